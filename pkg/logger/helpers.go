package logger

import (
	"time"
)

// LogRequest logs one portal request through l
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs the outcome of one statement download
func LogDownload(l Logger, path string, downloaded bool, err error) {
	fields := map[string]interface{}{
		"path":       path,
		"downloaded": downloaded,
	}

	switch {
	case err != nil:
		l.WithFields(fields).WithError(err).Error("Download failed")
	case downloaded:
		l.InfoWithFields("Download completed", fields)
	default:
		l.InfoWithFields("skipping (already downloaded)", fields)
	}
}

// LogRunSummary logs the counters of a finished retrieval pass
func LogRunSummary(l Logger, listed, downloaded, skipped, filtered int, stoppedEarly bool) {
	l.InfoWithFields("Done", map[string]interface{}{
		"listed":        listed,
		"downloaded":    downloaded,
		"skipped":       skipped,
		"filtered":      filtered,
		"stopped_early": stoppedEarly,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
