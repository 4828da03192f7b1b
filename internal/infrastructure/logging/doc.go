// Package logging provides structured logging for Frontdesk Core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Security
//
// Never log admin secrets, passwords, or raw session tokens.
// Use TokenPrefix when a token has to be correlated in logs:
//
//	logger.Debug("session lookup", "token", logging.TokenPrefix(token))
package logging
