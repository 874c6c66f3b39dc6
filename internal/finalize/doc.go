// Package finalize closes out delivered items: it removes the remote
// source when configured to, and clears the item's staging scratch space.
package finalize
