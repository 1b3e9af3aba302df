package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "paystubdl/pkg/errors"
)

func TestRunWriteTextfile(t *testing.T) {
	r := NewRun()
	r.Listed(5)
	r.Downloaded(1024)
	r.Downloaded(2048)
	r.Skipped()
	r.Filtered()
	r.Filtered()
	r.Finish(1500*time.Millisecond, true)

	path := filepath.Join(t.TempDir(), "paystubdl.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "paystubdl_statements_listed 5")
	assert.Contains(t, out, `paystubdl_statements_total{outcome="downloaded"} 2`)
	assert.Contains(t, out, `paystubdl_statements_total{outcome="skipped"} 1`)
	assert.Contains(t, out, `paystubdl_statements_total{outcome="filtered"} 2`)
	assert.Contains(t, out, "paystubdl_bytes_downloaded_total 3072")
	assert.Contains(t, out, "paystubdl_run_duration_seconds 1.5")
	assert.Contains(t, out, "paystubdl_run_stopped_early 1")
	assert.Contains(t, out, "paystubdl_last_success_timestamp_seconds")
}

func TestRunOutcomesStartAtZero(t *testing.T) {
	r := NewRun()

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	var series int
	for _, mf := range families {
		if mf.GetName() == "paystubdl_statements_total" {
			series = len(mf.GetMetric())
			for _, m := range mf.GetMetric() {
				assert.Zero(t, m.GetCounter().GetValue())
			}
		}
	}
	assert.Equal(t, 3, series)
}

func TestRunsDoNotShareCounters(t *testing.T) {
	first := NewRun()
	first.Skipped()

	second := NewRun()
	path := filepath.Join(t.TempDir(), "second.prom")
	require.NoError(t, second.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `paystubdl_statements_total{outcome="skipped"} 0`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	r := NewRun()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeFilesystem))
}
