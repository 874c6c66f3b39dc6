package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ftpgram/internal/notifications"
	"ftpgram/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.NotifyDelivered(context.Background(), "cam-20260101-0001.mp4", 42); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(ctx context.Context, svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "delivered",
			notify: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyDelivered(ctx, "cam-20260101-0001.mp4", 512)
			},
			expectTitle:   "Ftpgram - Delivered",
			expectMessage: "Delivered cam-20260101-0001.mp4 (message 512)",
			expectTags:    "ftpgram,publish,completed",
		},
		{
			name: "delivery failed",
			notify: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyDeliveryFailed(ctx, "clip.265", errors.New("payload too large"))
			},
			expectTitle:    "Ftpgram - Delivery Failed",
			expectMessage:  "Failed to deliver clip.265: payload too large",
			expectTags:     "ftpgram,publish,failed",
			expectPriority: "high",
		},
		{
			name: "error with context",
			notify: func(ctx context.Context, svc notifications.Service) error {
				return svc.NotifyError(ctx, errors.New("login refused"), "polling")
			},
			expectTitle:    "Ftpgram - Error",
			expectMessage:  "Error with polling: login refused",
			expectTags:     "ftpgram,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			notify: func(ctx context.Context, svc notifications.Service) error {
				return svc.TestNotification(ctx)
			},
			expectTitle:    "Ftpgram - Test",
			expectMessage:  "Notification system test",
			expectTags:     "ftpgram,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t)
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(cfg)

			if err := tc.notify(context.Background(), svc); err != nil {
				t.Fatalf("notify: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", captured.title, tc.expectTitle)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("message = %q, want %q", captured.body, tc.expectMessage)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", captured.tags, tc.expectTags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", captured.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(cfg)

	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
