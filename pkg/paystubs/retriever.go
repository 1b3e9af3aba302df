package paystubs

import (
	"context"
	"net/http"
	"time"

	"paystubdl/pkg/logger"
	"paystubdl/pkg/portal"
	"paystubdl/pkg/storage"
)

// Requester is the part of the portal session the retriever depends on
type Requester interface {
	Request(ctx context.Context, url string, data []byte) (*http.Response, error)
	DocumentURL(href string) string
}

// Recorder receives per-statement outcomes, typically a metrics.Run
type Recorder interface {
	Listed(n int)
	Downloaded(bytes int64)
	Skipped()
	Filtered()
	Finish(duration time.Duration, stoppedEarly bool)
}

// Options controls which statements are fetched and when a pass stops
type Options struct {
	// OnlyYear restricts downloads to one year; "all" or empty disables the filter
	OnlyYear string
	// MaxConsecutiveSkips stops the pass after this many already downloaded
	// statements in a row; zero or less never stops early
	MaxConsecutiveSkips int
}

// Result summarises a finished retrieval pass
type Result struct {
	Listed       int
	Downloaded   int
	Skipped      int
	Filtered     int
	StoppedEarly bool
	Duration     time.Duration
}

// Retriever downloads pay statements that are not yet on disk
type Retriever struct {
	client   Requester
	storage  *storage.Manager
	opts     Options
	recorder Recorder
	logger   logger.Logger
}

// NewRetriever creates a Retriever. rec and log may be nil.
func NewRetriever(client Requester, store *storage.Manager, opts Options, rec Recorder, log logger.Logger) *Retriever {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Retriever{
		client:   client,
		storage:  store,
		opts:     opts,
		recorder: rec,
		logger:   log,
	}
}

// DownloadAll walks statements in index order, downloading each selected
// statement that is not already on disk. It stops early once
// MaxConsecutiveSkips statements in a row were already present; later
// statements are then never looked at. Any error aborts the pass and is
// returned together with the counts so far.
func (r *Retriever) DownloadAll(ctx context.Context, statements []portal.PayStatement) (*Result, error) {
	start := time.Now()
	result := &Result{Listed: len(statements)}
	r.recorder.Listed(len(statements))

	r.logger.InfoWithFields("Starting statement retrieval", map[string]interface{}{
		"statements": len(statements),
		"only_year":  r.opts.OnlyYear,
		"max_skips":  r.opts.MaxConsecutiveSkips,
	})

	consecutiveSkips := 0

	for target, err := range r.Targets(statements) {
		if err != nil {
			r.logger.WithError(err).ErrorWithFields("Invalid statement record", map[string]interface{}{
				"index":    target.Index,
				"pay_date": target.PayDate,
			})
			return result, err
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if _, err := r.storage.EnsureYearDir(target.Year); err != nil {
			return result, err
		}

		if target.Filtered {
			result.Filtered++
			r.recorder.Filtered()
			r.logger.DebugWithFields("Statement outside selected year", map[string]interface{}{
				"pay_date":  target.PayDate,
				"only_year": r.opts.OnlyYear,
			})
			continue
		}

		downloaded, err := r.DownloadFile(ctx, target.URL, target.Path)
		if err != nil {
			return result, err
		}

		if downloaded {
			result.Downloaded++
			consecutiveSkips = 0
			continue
		}

		result.Skipped++
		consecutiveSkips++
		if r.opts.MaxConsecutiveSkips > 0 && consecutiveSkips >= r.opts.MaxConsecutiveSkips {
			result.StoppedEarly = true
			r.logger.InfoWithFields("Reached run of already downloaded statements, stopping", map[string]interface{}{
				"consecutive_skips": consecutiveSkips,
				"remaining":         len(statements) - target.Index - 1,
			})
			break
		}
	}

	result.Duration = time.Since(start)
	r.recorder.Finish(result.Duration, result.StoppedEarly)
	logger.LogRunSummary(r.logger, result.Listed, result.Downloaded, result.Skipped, result.Filtered, result.StoppedEarly)

	return result, nil
}

// DownloadFile fetches url into path unless a file is already there.
// It reports whether a download happened. An existing file is never
// requested or touched.
func (r *Retriever) DownloadFile(ctx context.Context, url, path string) (bool, error) {
	if r.storage.Exists(path) {
		r.recorder.Skipped()
		logger.LogDownload(r.logger, path, false, nil)
		return false, nil
	}

	r.logger.InfoWithFields("Downloading statement", map[string]interface{}{
		"url":  url,
		"path": path,
	})

	resp, err := r.client.Request(ctx, url, nil)
	if err != nil {
		logger.LogDownload(r.logger, path, false, err)
		return false, err
	}
	defer resp.Body.Close()

	n, err := r.storage.Save(resp.Body, path)
	if err != nil {
		logger.LogDownload(r.logger, path, false, err)
		return false, err
	}

	r.recorder.Downloaded(n)
	logger.LogDownload(r.logger, path, true, nil)
	return true, nil
}

type nopRecorder struct{}

func (nopRecorder) Listed(int)                 {}
func (nopRecorder) Downloaded(int64)           {}
func (nopRecorder) Skipped()                   {}
func (nopRecorder) Filtered()                  {}
func (nopRecorder) Finish(time.Duration, bool) {}
