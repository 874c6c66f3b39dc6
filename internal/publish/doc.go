// Package publish uploads normalized artifacts to the configured Telegram
// chat, enforcing the upload size ceiling and retrying transient Bot API
// failures with bounded backoff.
package publish
