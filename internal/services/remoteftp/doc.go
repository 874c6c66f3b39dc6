// Package remoteftp wraps the FTP control and data operations the bridge
// needs behind small interfaces so stages can be exercised against fakes.
package remoteftp
