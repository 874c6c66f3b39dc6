package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// FTP contains connection and listing settings for the watched server.
type FTP struct {
	Host         string   `toml:"host"`
	User         string   `toml:"user"`
	Password     string   `toml:"password"`
	Port         int      `toml:"port"`
	WatchDir     string   `toml:"watch_dir"`
	RecordSubdir string   `toml:"record_subdir"`
	Extensions   []string `toml:"extensions"`
	DialTimeout  int      `toml:"dial_timeout"`
}

// Telegram contains bot API credentials and publish behavior.
type Telegram struct {
	BotToken            string `toml:"bot_token"`
	ChatID              string `toml:"chat_id"`
	MaxUploadMiB        int64  `toml:"max_upload_mib"`
	MaxAttempts         int    `toml:"max_attempts"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds"`
	OversizePolicy      string `toml:"oversize_policy"`
}

// Encoding contains media normalization settings.
type Encoding struct {
	TargetFPS   int    `toml:"target_fps"`
	OnFailure   string `toml:"on_failure"`
	CompressCRF int    `toml:"compress_crf"`
}

// Paths contains local directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Cleanup controls post-delivery behavior on the remote side.
type Cleanup struct {
	DeleteAfterSuccess bool `toml:"delete_after_success"`
}

// Workflow contains bridge loop timing and retry limits.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	Workers            int `toml:"workers"`
	MaxAttempts        int `toml:"max_attempts"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// OversizePolicy values accepted by telegram.oversize_policy.
const (
	OversizeReject   = "reject"
	OversizeCompress = "compress"
)

// Encoding failure policies accepted by encoding.on_failure.
const (
	EncodeFailurePublishOriginal = "publish-original"
	EncodeFailureSkip            = "skip"
)

// Config encapsulates all configuration values for the bridge.
type Config struct {
	FTP           FTP           `toml:"ftp"`
	Telegram      Telegram      `toml:"telegram"`
	Encoding      Encoding      `toml:"encoding"`
	Paths         Paths         `toml:"paths"`
	Cleanup       Cleanup       `toml:"cleanup"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/ftpgram/config.toml")
}

// Load locates and parses a configuration file, applies the environment
// overlay, and validates the result. Returns the resolved path and whether
// a file was found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnvironment(os.LookupEnv); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ftpgram.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.FTP.Host, &c.FTP.User, &c.Telegram.BotToken, &c.Telegram.ChatID, &c.Notifications.NtfyTopic} {
		*field = strings.TrimSpace(*field)
	}

	stagingDir, err := ExpandPath(c.Paths.StagingDir)
	if err != nil {
		return err
	}
	c.Paths.StagingDir = stagingDir

	logDir, err := ExpandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	c.FTP.WatchDir = strings.TrimSpace(c.FTP.WatchDir)
	if c.FTP.WatchDir == "" {
		c.FTP.WatchDir = "/"
	}
	c.FTP.RecordSubdir = strings.Trim(strings.TrimSpace(c.FTP.RecordSubdir), "/")

	normalized := make([]string, 0, len(c.FTP.Extensions))
	for _, ext := range c.FTP.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.FTP.Extensions = normalized

	c.Telegram.OversizePolicy = strings.ToLower(strings.TrimSpace(c.Telegram.OversizePolicy))
	c.Encoding.OnFailure = strings.ToLower(strings.TrimSpace(c.Encoding.OnFailure))
	return nil
}

// EnsureDirectories creates the local directories daemon operation needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FTPAddr returns the dial address for the configured FTP server.
func (c *Config) FTPAddr() string {
	return fmt.Sprintf("%s:%d", c.FTP.Host, c.FTP.Port)
}

// AllowsExtension reports whether a remote file name passes the extension filter.
// An empty filter allows everything.
func (c *Config) AllowsExtension(name string) bool {
	if len(c.FTP.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range c.FTP.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FFmpegBinary returns the ffmpeg executable name used for normalization.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// MaxUploadBytes returns the publish size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Telegram.MaxUploadMiB * 1024 * 1024
}

// ExpandPath resolves ~ and environment variables into an absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
