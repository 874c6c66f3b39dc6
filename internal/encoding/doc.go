// Package encoding normalizes downloaded media to the configured constant
// frame rate before publication. When no target rate is configured the
// stage passes the download through untouched.
package encoding
