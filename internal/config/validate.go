package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Failures here halt startup.
func (c *Config) Validate() error {
	if err := c.validateFTP(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFTP() error {
	if c.FTP.Host == "" {
		return errors.New("ftp.host is required (set FTP_HOST or edit the config file)")
	}
	if c.FTP.User == "" {
		return errors.New("ftp.user is required (set FTP_USER or edit the config file)")
	}
	if c.FTP.Password == "" {
		return errors.New("ftp.password is required (set FTP_PASS or edit the config file)")
	}
	if c.FTP.Port <= 0 || c.FTP.Port > 65535 {
		return fmt.Errorf("ftp.port must be between 1 and 65535, got %d", c.FTP.Port)
	}
	if c.FTP.DialTimeout <= 0 {
		return errors.New("ftp.dial_timeout must be positive")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required (set BOT_TOKEN or edit the config file)")
	}
	if c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required (set CHAT_ID or edit the config file)")
	}
	if c.Telegram.MaxUploadMiB <= 0 {
		return errors.New("telegram.max_upload_mib must be positive")
	}
	if c.Telegram.MaxAttempts < 1 {
		return errors.New("telegram.max_attempts must be at least 1")
	}
	if c.Telegram.RetryBackoffSeconds < 1 {
		return errors.New("telegram.retry_backoff_seconds must be at least 1")
	}
	switch c.Telegram.OversizePolicy {
	case OversizeReject, OversizeCompress:
	default:
		return fmt.Errorf("telegram.oversize_policy must be %q or %q, got %q",
			OversizeReject, OversizeCompress, c.Telegram.OversizePolicy)
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.TargetFPS < 0 {
		return fmt.Errorf("encoding.target_fps must not be negative, got %d", c.Encoding.TargetFPS)
	}
	switch c.Encoding.OnFailure {
	case EncodeFailurePublishOriginal, EncodeFailureSkip:
	default:
		return fmt.Errorf("encoding.on_failure must be %q or %q, got %q",
			EncodeFailurePublishOriginal, EncodeFailureSkip, c.Encoding.OnFailure)
	}
	if c.Encoding.CompressCRF < 0 || c.Encoding.CompressCRF > 51 {
		return fmt.Errorf("encoding.compress_crf must be between 0 and 51, got %d", c.Encoding.CompressCRF)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval < 1 {
		return errors.New("workflow.poll_interval must be at least 1 second")
	}
	if c.Workflow.Workers < 1 {
		return errors.New("workflow.workers must be at least 1")
	}
	if c.Workflow.MaxAttempts < 1 {
		return errors.New("workflow.max_attempts must be at least 1")
	}
	if c.Workflow.ErrorRetryInterval < 1 {
		return errors.New("workflow.error_retry_interval must be at least 1 second")
	}
	if c.Workflow.HeartbeatInterval < 1 {
		return errors.New("workflow.heartbeat_interval must be at least 1 second")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
