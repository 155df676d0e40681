// Package logging builds the slog loggers used across nostrcast: a pretty
// console handler for interactive runs and a JSON handler for log files.
package logging
