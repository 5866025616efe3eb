package compaction

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"swap-telemetry-lab/internal/export"
)

// Engine runs the merge and archival passes for one export directory. An
// Engine instance is scoped to a single run: the first archival merge resolves
// the run's archive file and later merges append to it.
type Engine struct {
	dir    string
	group  int
	logger *log.Logger

	archivePath string
}

// NewEngine returns an Engine merging group files at a time under dir.
func NewEngine(dir string, group int, logger *log.Logger) *Engine {
	if group < 2 {
		group = 2
	}
	return &Engine{dir: dir, group: group, logger: logger}
}

// Compact merges pending export files for prefix into combined files, group
// files at a time, and deletes the consumed inputs. With drain set, a final
// short group of fewer than group files is merged as well; otherwise leftovers
// stay pending for the next cycle. Returns the number of merges performed.
func (e *Engine) Compact(prefix, runID string, drain bool) (int, error) {
	m, err := ScanDir(e.dir, prefix)
	if err != nil {
		return 0, err
	}
	pending := m.Pending()

	merges := 0
	for batch := 0; len(pending) >= e.group || (drain && len(pending) > 0); batch++ {
		take := e.group
		if take > len(pending) {
			take = len(pending)
		}
		chunk := pending[:take]
		pending = pending[take:]

		rows, err := e.mergeRows(chunk)
		if err != nil {
			return merges, err
		}

		out := e.combinedName(prefix, runID, batch)
		if err := export.WriteRows(filepath.Join(e.dir, out), rows); err != nil {
			return merges, fmt.Errorf("write combined file: %w", err)
		}
		if err := e.removeAll(chunk); err != nil {
			return merges, err
		}
		merges++
		e.logger.Printf("[compaction] merged %d files into %s (%d rows)", take, out, len(rows))
	}
	return merges, nil
}

// mergeRows concatenates the rows of the named files in order. Column
// alignment happens on write, where the union header is recomputed.
func (e *Engine) mergeRows(names []string) ([]map[string]any, error) {
	var rows []map[string]any
	for _, name := range names {
		_, part, err := export.ReadRows(filepath.Join(e.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

// combinedName picks the output name for one merge batch. The pass suffix is
// probed forward so a prior run with the same run id never gets overwritten.
func (e *Engine) combinedName(prefix, runID string, batch int) string {
	for pass := 0; ; pass++ {
		name := fmt.Sprintf("%s_%s_%d-%d_combined.csv", prefix, runID, batch, pass)
		if _, err := os.Stat(filepath.Join(e.dir, name)); err != nil {
			return name
		}
	}
}

func (e *Engine) removeAll(names []string) error {
	for _, name := range names {
		if err := os.Remove(filepath.Join(e.dir, name)); err != nil {
			return fmt.Errorf("remove merged input: %w", err)
		}
	}
	return nil
}
