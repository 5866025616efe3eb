// Package export slices the record buffer into row-oriented CSV export files
// once a stream crosses its batch threshold.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// WriteRows writes one export file: header is the sorted union of column
// names across all rows, values missing from a row are emitted as empty.
// The file is written to a temporary name in the same directory and renamed
// into place, so glob-based discovery never observes a partially written file.
func WriteRows(path string, rows []map[string]any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := RenderRows(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp export: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename export into place: %w", err)
	}
	return nil
}

// RenderRows writes rows in export format to w. The archival engine uses it
// to render merged rows straight into a zip entry.
func RenderRows(out io.Writer, rows []map[string]any) error {
	columns := Columns(rows)

	w := csv.NewWriter(out)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	line := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			v, ok := row[col]
			if !ok {
				line[i] = ""
				continue
			}
			line[i] = formatValue(v)
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadRows reads an export-format file back into its column set and rows.
func ReadRows(path string) ([]string, []map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read export %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}

	columns := all[0]
	rows := make([]map[string]any, 0, len(all)-1)
	for _, line := range all[1:] {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(line) && line[i] != "" {
				row[col] = line[i]
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// Columns returns the sorted union of column names across rows.
func Columns(rows []map[string]any) []string {
	set := make(map[string]struct{})
	for _, row := range rows {
		for col := range row {
			set[col] = struct{}{}
		}
	}

	columns := make([]string, 0, len(set))
	for col := range set {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// formatValue renders one cell. Floats use the shortest representation that
// round-trips, so rounded 6-decimal values stay exact in the export.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
