// Package logging provides a tiny abstraction over slog so the rest of the
// assistant can depend on a minimal interface (Logger) while allowing callers
// to plug any structured logger. The engine, stores and webhook all log
// structured key/value events through this interface.
package logging
