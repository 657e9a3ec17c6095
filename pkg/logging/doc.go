// Package logging provides structured logging configuration for bankmock.
//
// This package wraps log/slog so every component logs the same way:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.Log.Level),
//	    Format: logging.ParseFormat(cfg.Log.Format),
//	})
//
//	logger.Info("server started", "addr", ":8000")
//	logger.Error("storage failure", "operation", "create", "error", err)
//
// Text output is meant for development, JSON for log aggregation. When
// Config.Tee is set every record is also written as JSON to that writer.
//
// Components accept a *slog.Logger in their constructor and fall back to
// logging.Nop() when none is given.
package logging
