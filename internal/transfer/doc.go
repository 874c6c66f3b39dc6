// Package transfer downloads claimed remote files into the local staging
// area and verifies them against the size recorded at discovery.
package transfer
