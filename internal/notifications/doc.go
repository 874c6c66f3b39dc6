// Package notifications pushes bridge lifecycle events to an ntfy topic.
// When no topic is configured every notification is a no-op.
package notifications
