// Package log provides secure logging utilities built on log/slog.
//
// The package's core type is SecureHandler, an slog.Handler wrapper that
// sanitizes sensitive information (API credentials, OAuth tokens, session
// cookies) before records reach the underlying handler. Analysis runs log
// request metadata and command invocations; sanitization prevents
// credentials from leaking into log files or terminal scrollback.
package log
