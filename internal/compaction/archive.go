package compaction

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"swap-telemetry-lab/internal/export"
)

// Archive folds combined files for prefix into the run's zip archive, group
// files at a time, then deletes the plaintext inputs. Grouping and drain work
// exactly as in Compact. The archive is shared across streams: the first merge
// of the run resolves its name, subsequent merges append entries to it.
func (e *Engine) Archive(prefix, runID string, drain bool) (int, error) {
	m, err := ScanDir(e.dir, prefix)
	if err != nil {
		return 0, err
	}
	combined := m.Combined()

	merges := 0
	for len(combined) >= e.group || (drain && len(combined) > 0) {
		take := e.group
		if take > len(combined) {
			take = len(combined)
		}
		chunk := combined[:take]
		combined = combined[take:]

		rows, err := e.mergeRows(chunk)
		if err != nil {
			return merges, err
		}
		var buf bytes.Buffer
		if err := export.RenderRows(&buf, rows); err != nil {
			return merges, err
		}

		archive := e.resolveArchive(runID)
		entry, err := appendEntry(archive, prefix, runID, buf.Bytes())
		if err != nil {
			return merges, err
		}
		if err := e.removeAll(chunk); err != nil {
			return merges, err
		}
		merges++
		e.logger.Printf("[compaction] archived %d files as %s in %s", take, entry, filepath.Base(archive))
	}
	return merges, nil
}

// resolveArchive picks the zip file for this run, probing past archives left
// behind by a prior or concurrent run with the same run id. The result is
// cached so every merge of the run lands in the same archive.
func (e *Engine) resolveArchive(runID string) string {
	if e.archivePath != "" {
		return e.archivePath
	}
	name := fmt.Sprintf("archive_%s.zip", runID)
	for n := 1; ; n++ {
		path := filepath.Join(e.dir, name)
		if _, err := os.Stat(path); err != nil {
			e.archivePath = path
			return path
		}
		name = fmt.Sprintf("archive_%s_%d.zip", runID, n)
	}
}

// appendEntry rewrites the archive at path with one extra deflated CSV entry
// and returns the entry name chosen. Zip files cannot be appended in place, so
// existing entries are copied into a temporary archive that replaces the old
// one atomically.
func appendEntry(path, prefix, runID string, data []byte) (string, error) {
	type zipEntry struct {
		name string
		data []byte
	}
	var entries []zipEntry
	existing := make(map[string]struct{})

	zr, err := zip.OpenReader(path)
	switch {
	case err == nil:
		for _, f := range zr.File {
			rc, err := f.Open()
			if err != nil {
				zr.Close()
				return "", fmt.Errorf("read archive entry %s: %w", f.Name, err)
			}
			b, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				zr.Close()
				return "", fmt.Errorf("read archive entry %s: %w", f.Name, err)
			}
			entries = append(entries, zipEntry{name: f.Name, data: b})
			existing[f.Name] = struct{}{}
		}
		zr.Close()
	case errors.Is(err, fs.ErrNotExist):
		// fresh archive
	default:
		return "", fmt.Errorf("open archive: %w", err)
	}

	name := entryName(existing, prefix, runID)
	entries = append(entries, zipEntry{name: name, data: data})

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp archive: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(tmp)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate})
		if err != nil {
			zw.Close()
			tmp.Close()
			return "", fmt.Errorf("create archive entry: %w", err)
		}
		if _, err := w.Write(e.data); err != nil {
			zw.Close()
			tmp.Close()
			return "", fmt.Errorf("write archive entry: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp archive: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename archive into place: %w", err)
	}
	return name, nil
}

// entryName probes forward past entries already present in the archive, so
// repeated merges of the same stream within one run stay distinct.
func entryName(existing map[string]struct{}, prefix, runID string) string {
	name := fmt.Sprintf("%s_%s_compact.csv", prefix, runID)
	for n := 1; ; n++ {
		if _, ok := existing[name]; !ok {
			return name
		}
		name = fmt.Sprintf("%s_%s_%d_compact.csv", prefix, runID, n)
	}
}
