// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, WarnKV, etc.).
//
// Diagnostic records go through this package. User-facing status lines are
// written by the console package instead, so stdout stays readable.
package logger
