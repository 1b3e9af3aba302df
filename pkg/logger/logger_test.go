package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paystubdl/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel)

	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), `"app":"paystubdl"`)
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("year", "2024").
		WithFields(map[string]interface{}{"count": 3, "early": true}).
		InfoWithFields("chained", map[string]interface{}{"elapsed": 2 * time.Second})

	output := buf.String()
	assert.Contains(t, output, "chained")
	assert.Contains(t, output, `"year":"2024"`)
	assert.Contains(t, output, `"count":3`)
	assert.Contains(t, output, `"early":true`)
}

func TestWithFieldDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.DebugLevel)
	_ = parent.WithField("child", "only")

	parent.Info("parent message")
	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("disk full")).Error("write failed")
	assert.Contains(t, buf.String(), "disk full")
	assert.Contains(t, buf.String(), "write failed")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://portal/index", 200, time.Millisecond)
	LogRequest(tl, "GET", "https://portal/missing", 404, time.Millisecond)
	LogRequest(tl, "GET", "https://portal/broken", 502, time.Millisecond)
	LogDownload(tl, "2024/2024-01-05.pdf", true, nil)
	LogDownload(tl, "2024/2024-01-05.pdf", false, nil)
	LogDownload(tl, "2024/2024-01-19.pdf", false, errors.New("boom"))
	LogRunSummary(tl, 3, 1, 1, 1, false)

	assert.True(t, tl.HasMessage("HTTP request completed"))
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.True(t, tl.HasMessage("Download completed"))
	assert.True(t, tl.HasMessage("skipping (already downloaded)"))
	assert.True(t, tl.HasError())

	done := tl.GetMessagesByLevel("INFO")
	last := done[len(done)-1]
	assert.Equal(t, "Done", last.Message)
	assert.Equal(t, 3, last.Fields["listed"])
}

func TestTestLoggerSharesSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "retriever")
	child.WithError(errors.New("x")).Warn("child warning")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "retriever", msgs[0].Fields["component"])
	assert.EqualError(t, msgs[0].Error, "x")
	assert.Equal(t, 1, tl.CountMessage("child warning"))
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "error"}))
	assert.NotNil(t, GetLogger())

	// smoke test the package-level helpers
	Info("info message")
	Warn("warn message")
	WithField("key", "value").Info("with field")
	WithFields(map[string]interface{}{"k1": "v1"}).Info("with fields")
	WithError(errors.New("test")).Error("with error")
}
