package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrTransfer, "download", "retr", "stream interrupted", base)
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected wrapped error to match ErrTransfer, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to retain cause, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "publish", "send", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected nil marker to default to ErrTransient, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		expect bool
	}{
		{"connectivity", Wrap(ErrConnectivity, "poll", "dial", "", nil), true},
		{"transfer", Wrap(ErrTransfer, "download", "retr", "", nil), true},
		{"transient publish", Wrap(ErrTransient, "publish", "send", "", nil), true},
		{"permanent publish", Wrap(ErrPermanent, "publish", "send", "chat not found", nil), false},
		{"payload too large", Wrap(ErrPayloadTooLarge, "publish", "size check", "", nil), false},
		{"encoding", Wrap(ErrEncoding, "normalize", "ffmpeg", "", nil), false},
		{"plain", errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.expect {
			t.Errorf("%s: IsRetryable = %v, want %v", tc.name, got, tc.expect)
		}
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrConfiguration, "config", "load", "ftp_host missing", nil)) {
		t.Fatal("configuration errors must be fatal")
	}
	if IsFatal(Wrap(ErrConnectivity, "poll", "dial", "", nil)) {
		t.Fatal("connectivity errors must not be fatal")
	}
}
