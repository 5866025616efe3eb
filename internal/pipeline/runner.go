// Package pipeline sequences one full compaction cycle: export each stream's
// buffered records, merge the resulting files, and fold merged files into the
// run's archive. Cycles run to completion on a single goroutine; the caller is
// the only writer for the export directory.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"swap-telemetry-lab/internal/compaction"
	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/export"
	"swap-telemetry-lab/internal/observability"
	"swap-telemetry-lab/internal/storage"
)

// RunIDFormat timestamps a cycle. Underscore-free so run ids survive the
// underscore-delimited file naming scheme.
const RunIDFormat = "20060102T150405"

// Streams lists the buffered streams a cycle processes, in order.
var Streams = []string{domain.StreamTrades, domain.StreamWallets}

// Runner owns the per-cycle wiring. Thresholds and group sizes are fixed at
// construction; each cycle gets a fresh run id and a fresh compaction engine
// so archives stay scoped to their run.
type Runner struct {
	buf       storage.RecordBuffer
	dir       string
	threshold int
	group     int
	logger    *log.Logger
	now       func() time.Time
}

// NewRunner returns a Runner exporting batches of threshold records and
// merging group files at a time under dir.
func NewRunner(buf storage.RecordBuffer, dir string, threshold, group int, logger *log.Logger) *Runner {
	return &Runner{
		buf:       buf,
		dir:       dir,
		threshold: threshold,
		group:     group,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the run-id clock.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// StreamStats counts what one cycle did to a single stream.
type StreamStats struct {
	Exports  int
	Merges   int
	Archives int
}

// Result reports one cycle.
type Result struct {
	RunID   string
	Streams map[string]StreamStats
}

// RunCycle executes export, merge and archive for every stream under one run
// id. With drain set, partial groups are merged and archived too, leaving no
// plaintext behind. Errors abort the cycle; already-completed steps keep their
// on-disk effects and the next cycle resumes from the directory scan.
func (r *Runner) RunCycle(ctx context.Context, drain bool) (*Result, error) {
	started := r.now()
	runID := started.UTC().Format(RunIDFormat)
	res := &Result{RunID: runID, Streams: make(map[string]StreamStats)}

	exp := export.NewExporter(r.dir, r.threshold, r.logger)
	eng := compaction.NewEngine(r.dir, r.group, r.logger)

	for _, stream := range Streams {
		var stats StreamStats
		var err error

		stats.Exports, err = exp.Export(ctx, r.buf, stream, runID)
		if err != nil {
			observability.RecordCycle("error", time.Since(started).Seconds())
			return res, fmt.Errorf("export %s: %w", stream, err)
		}
		stats.Merges, err = eng.Compact(stream, runID, drain)
		if err != nil {
			observability.RecordCycle("error", time.Since(started).Seconds())
			return res, fmt.Errorf("compact %s: %w", stream, err)
		}
		stats.Archives, err = eng.Archive(stream, runID, drain)
		if err != nil {
			observability.RecordCycle("error", time.Since(started).Seconds())
			return res, fmt.Errorf("archive %s: %w", stream, err)
		}

		res.Streams[stream] = stats
		observability.RecordStreamCycle(stream, stats.Exports, stats.Merges, stats.Archives)
		r.logger.Printf("[pipeline] run %s stream %s: %d exports, %d merges, %d archived",
			runID, stream, stats.Exports, stats.Merges, stats.Archives)
	}

	observability.RecordCycle("success", time.Since(started).Seconds())
	observability.DefaultMetrics.LastSuccessfulCycle.SetToCurrentTime()
	return res, nil
}
