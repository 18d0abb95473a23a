// Package logging builds the structured logger used across RateGate.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text and console output formats
//   - Async buffering so a slow sink never blocks a gate
//   - Context fields for load-run IDs and gate names
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	logger.SetDefault()
//
//	ctx := logging.WithRunID(ctx, runID)
//	slog.InfoContext(ctx, "run started")  // includes run_id
//
// # Buffering
//
// Writes are queued on a bounded channel and written by one goroutine.
// When the queue is full the write is dropped and counted; Dropped reports
// the total. Close drains the queue.
package logging
