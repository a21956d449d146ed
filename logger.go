package gpuplot

import (
	"log/slog"

	"github.com/gogpu/gpuplot/internal/logging"
)

// SetLogger configures the logger for gpuplot and all its sub-packages.
// By default, gpuplot produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by gpuplot:
//   - [slog.LevelDebug]: program compiles, cache evictions, texture recomputes
//   - [slog.LevelInfo]: lifecycle events (backend selected, adapter opened)
//   - [slog.LevelWarn]: non-fatal issues (scheduled frame failures, resource release errors)
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	gpuplot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by gpuplot.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
