package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"swap-telemetry-lab/internal/normalize"
	"swap-telemetry-lab/internal/storage"
)

// Exporter slices full batches off a stream's buffer and writes them as
// export files, persisting the remainder back in a single buffer write.
type Exporter struct {
	dir       string
	threshold int
	logger    *log.Logger
}

// NewExporter creates an Exporter writing into dir, batching at threshold
// records per file.
func NewExporter(dir string, threshold int, logger *log.Logger) *Exporter {
	return &Exporter{dir: dir, threshold: threshold, logger: logger}
}

// Export drains full batches from the stream. Zero files per cycle is the
// common case; the remainder (possibly the unmodified buffer) is always
// persisted in exactly one Replace. A crash between a file write and the
// final Replace re-exports that batch next cycle: at-least-once, never
// at-most-once.
func (e *Exporter) Export(ctx context.Context, buf storage.RecordBuffer, stream, runID string) (int, error) {
	docs, err := buf.Load(ctx, stream)
	if err != nil {
		return 0, fmt.Errorf("load stream %s: %w", stream, err)
	}

	written := 0
	seq := nextSequence(e.dir, stream, runID)
	for len(docs) >= e.threshold {
		batch := docs[:e.threshold]
		rows := make([]map[string]any, len(batch))
		for i, doc := range batch {
			rows[i] = normalize.Flatten(doc)
		}

		name := fmt.Sprintf("%s_%s_%d.csv", stream, runID, seq)
		if err := WriteRows(filepath.Join(e.dir, name), rows); err != nil {
			return written, fmt.Errorf("write export %s: %w", name, err)
		}
		e.logger.Printf("exported %d %s records to %s", len(batch), stream, name)

		docs = docs[e.threshold:]
		seq++
		written++
	}

	if err := buf.Replace(ctx, stream, docs); err != nil {
		return written, fmt.Errorf("persist remainder for %s: %w", stream, err)
	}
	return written, nil
}

// nextSequence returns the first free sequence number for the run, probing
// past files a previous invocation with the same run id already wrote.
func nextSequence(dir, stream, runID string) int {
	seq := 0
	for {
		name := fmt.Sprintf("%s_%s_%d.csv", stream, runID, seq)
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return seq
		}
		seq++
	}
}
