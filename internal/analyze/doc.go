// Package analyze defines the capability contract for AI-backed analysis
// of collected community data, together with a CLI-backed implementation
// and a mock for tests.
package analyze
