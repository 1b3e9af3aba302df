// Package logger provides the structured logging interface used across paystubdl.
//
// It wraps zerolog with a small field-oriented API:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("year", "2024").Info("Created year directory")
//	logger.WithError(err).Error("Download failed")
//
// Console output is written to stderr, colourised on a terminal; when a log file is
// configured every event is also appended to it as JSON. Tests can use
// NewTestLogger to capture and assert on messages, or NewNopLogger to
// discard them.
package logger
