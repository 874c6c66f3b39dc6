package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"ftpgram/internal/services"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger = NewComponentLogger(logger, "poller")
	logger.Info("scan complete", Int("discovered", 3), String("dir", "/20260826/record"))

	line := buf.String()
	for _, want := range []string{"INFO", "poller: scan complete", "discovered=3", "dir=/20260826/record"} {
		if !strings.Contains(line, want) {
			t.Fatalf("console output missing %q: %s", want, line)
		}
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger.Warn("odd value", String("msg", "two words"))
	if !strings.Contains(buf.String(), `msg="two words"`) {
		t.Fatalf("expected quoted value, got %s", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info record should be suppressed at warn level, got %s", buf.String())
	}
	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("error record missing: %s", buf.String())
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar, false))

	logger.Info("published", Int64(FieldItemID, 7))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json log line: %v", err)
	}
	if decoded["msg"] != "published" {
		t.Fatalf("expected msg field, got %v", decoded)
	}
	if decoded["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", decoded["level"])
	}
	if _, ok := decoded["ts"]; !ok {
		t.Fatalf("expected ts field, got %v", decoded)
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar, false))

	ctx := services.WithItemID(context.Background(), 42)
	ctx = services.WithStage(ctx, "download")
	ctx = services.WithRequestID(ctx, "req-1")

	WithContext(ctx, logger).Info("working")

	line := buf.String()
	for _, want := range []string{"item_id=42", "stage=download", "correlation_id=req-1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("context field %q missing: %s", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
