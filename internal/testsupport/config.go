package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ftpgram/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.FTP.Host = "ftp.test.invalid"
	cfgVal.FTP.User = "camera"
	cfgVal.FTP.Password = "secret"
	cfgVal.Telegram.BotToken = "123456:test-token"
	cfgVal.Telegram.ChatID = "-1000000000001"
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTargetFPS enables frame-rate normalization on the test config.
func WithTargetFPS(fps int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoding.TargetFPS = fps
	}
}

// WithMaxUploadMiB overrides the Telegram upload ceiling on the test config.
func WithMaxUploadMiB(mib int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.MaxUploadMiB = mib
	}
}

// WithDeleteAfterSuccess toggles remote source deletion on the test config.
func WithDeleteAfterSuccess(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cleanup.DeleteAfterSuccess = enabled
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
