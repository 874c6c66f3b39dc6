// Package config loads, validates, and normalizes bridge configuration.
// Settings come from an optional TOML file overlaid with the environment
// variables the Home Assistant add-on contract supplies (FTP_HOST,
// BOT_TOKEN, CHAT_ID, ...). The environment always wins.
package config
