package config

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv and lets tests supply environments.
type LookupFunc func(string) (string, bool)

// applyEnvironment overlays the recognized add-on environment variables on
// top of whatever the TOML file provided. Environment values always win.
func (c *Config) applyEnvironment(lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}

	setString(lookup, "FTP_HOST", &c.FTP.Host)
	setString(lookup, "FTP_USER", &c.FTP.User)
	setString(lookup, "FTP_PASS", &c.FTP.Password)
	setString(lookup, "BOT_TOKEN", &c.Telegram.BotToken)
	setString(lookup, "CHAT_ID", &c.Telegram.ChatID)
	setString(lookup, "LOG_LEVEL", &c.Logging.Level)

	if err := setInt(lookup, "FTP_PORT", &c.FTP.Port); err != nil {
		return err
	}
	if err := setInt(lookup, "TARGET_FPS", &c.Encoding.TargetFPS); err != nil {
		return err
	}
	if err := setInt(lookup, "POLL_INTERVAL", &c.Workflow.PollInterval); err != nil {
		return err
	}
	if err := setBool(lookup, "DELETE_AFTER_SUCCESS", &c.Cleanup.DeleteAfterSuccess); err != nil {
		return err
	}
	return nil
}

func setString(lookup LookupFunc, key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func setInt(lookup LookupFunc, key string, target *int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("environment variable %s: invalid integer %q", key, value)
	}
	*target = parsed
	return nil
}

func setBool(lookup LookupFunc, key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		*target = true
	case "0", "false", "no", "off":
		*target = false
	default:
		return fmt.Errorf("environment variable %s: invalid boolean %q", key, value)
	}
	return nil
}
