// Package logging provides structured logging for WePower IoT Core.
//
// It wraps log/slog with configuration-driven format and level selection.
// Components should not import this package directly; they accept a small
// Logger interface (Debug/Info/Warn/Error) that *logging.Logger satisfies,
// keeping them testable with no-op or recording loggers.
package logging
