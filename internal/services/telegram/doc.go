// Package telegram delivers media files to a chat through the Bot API and
// classifies delivery failures into retryable and permanent groups.
package telegram
