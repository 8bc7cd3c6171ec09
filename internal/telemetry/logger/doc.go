// Package logger provides structured logging for seqlink.
//
// Files:
//
//   - logger.go: slog-based Logger, global level and default logger
//   - context.go: request and conversation IDs carried in context.Context
//   - redact.go: attribute redaction for secrets, state and plaintext
package logger
