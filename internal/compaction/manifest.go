// Package compaction folds first-level export files into combined files and
// combined files into per-run zip archives. File names are the only state the
// package reads: every cycle rebuilds its manifest from a directory scan, so a
// restart picks up exactly where the previous process stopped.
package compaction

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// State classifies a CSV file in the export directory by how far it has
// progressed through the compaction ladder.
type State int

const (
	// StatePending marks a first-level export file that has not been merged.
	StatePending State = iota
	// StateCombined marks the output of a first-level merge.
	StateCombined
	// StateCompacted marks a fully merged file awaiting archival. These
	// normally live only inside archives, but a crash between zip append and
	// plaintext cleanup can leave one on disk.
	StateCompacted
)

// Manifest is the scan result for a single stream prefix, split by state.
// Slices are sorted lexically so merge groups are deterministic.
type Manifest struct {
	pending  []string
	combined []string
}

// ScanDir classifies the CSV files for one stream prefix under dir.
func ScanDir(dir, prefix string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan export dir: %w", err)
	}

	m := &Manifest{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix+"_") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		switch classify(name) {
		case StatePending:
			m.pending = append(m.pending, name)
		case StateCombined:
			m.combined = append(m.combined, name)
		}
	}
	sort.Strings(m.pending)
	sort.Strings(m.combined)
	return m, nil
}

func classify(name string) State {
	switch {
	case strings.Contains(name, "_compact"):
		return StateCompacted
	case strings.Contains(name, "_combined"):
		return StateCombined
	default:
		return StatePending
	}
}

// Pending returns first-level export files eligible for merging.
func (m *Manifest) Pending() []string { return m.pending }

// Combined returns merged files eligible for archival.
func (m *Manifest) Combined() []string { return m.combined }
