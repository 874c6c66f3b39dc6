// Package logging builds the slog loggers used across the bridge. It
// provides a console handler for interactive use, a JSON handler for
// machine-readable output, and attribute helpers that keep field names
// consistent between stages.
package logging
