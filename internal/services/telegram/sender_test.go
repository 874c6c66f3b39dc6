package telegram

import (
	"errors"
	"testing"

	"github.com/mymmrac/telego/telegoapi"

	"ftpgram/internal/services"
)

func TestParseChatID(t *testing.T) {
	numeric := ParseChatID("-1001234567890")
	if numeric.ID != -1001234567890 || numeric.Username != "" {
		t.Fatalf("unexpected numeric chat id: %+v", numeric)
	}

	named := ParseChatID("camera_feed")
	if named.Username != "@camera_feed" {
		t.Fatalf("expected @ prefix added, got %+v", named)
	}

	prefixed := ParseChatID("@camera_feed")
	if prefixed.Username != "@camera_feed" {
		t.Fatalf("expected username preserved, got %+v", prefixed)
	}
}

func TestClassifyAPIErrors(t *testing.T) {
	cases := []struct {
		name      string
		code      int
		retryable bool
	}{
		{"rate limited", 429, true},
		{"server error", 502, true},
		{"bad request", 400, false},
		{"unauthorized", 401, false},
		{"forbidden", 403, false},
		{"not found", 404, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify("send video", &telegoapi.Error{ErrorCode: tc.code, Description: tc.name})
			if got := services.IsRetryable(err); got != tc.retryable {
				t.Fatalf("code %d: retryable = %v, want %v", tc.code, got, tc.retryable)
			}
			if !tc.retryable && !errors.Is(err, services.ErrPermanent) {
				t.Fatalf("code %d: expected permanent marker", tc.code)
			}
		})
	}
}

func TestClassifyNetworkErrorIsTransient(t *testing.T) {
	err := classify("send video", errors.New("connection reset by peer"))
	if !services.IsRetryable(err) {
		t.Fatal("expected network failure to be retryable")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected transient marker")
	}
}
