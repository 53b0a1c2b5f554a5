// Package logging builds slog loggers for the CLI and pipeline components
// and provides typed attribute helpers shared across packages.
package logging
