// Package logger wraps zap for the importer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment,
//   - convenience functions (InfoKV, WarnKV, etc.) that read the context logger.
package logger
