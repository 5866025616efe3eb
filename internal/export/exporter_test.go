package export

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/storage/memory"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func seedBuffer(t *testing.T, n int) *memory.Buffer {
	t.Helper()

	docs := make([]domain.Document, n)
	for i := range docs {
		docs[i] = domain.Document{
			"rentability": float64(i),
			"timestamp":   int64(1700000000 + i),
		}
	}
	buf := memory.NewBuffer()
	if err := buf.Replace(context.Background(), domain.StreamTrades, docs); err != nil {
		t.Fatalf("seed buffer: %v", err)
	}
	return buf
}

func TestExport_SlicesFullBatches(t *testing.T) {
	dir := t.TempDir()
	buf := seedBuffer(t, 25)
	ctx := context.Background()

	written, err := NewExporter(dir, 10, discardLogger()).Export(ctx, buf, domain.StreamTrades, "20240301T120000")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if written != 2 {
		t.Errorf("expected 2 export files, got %d", written)
	}

	remainder, err := buf.Load(ctx, domain.StreamTrades)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(remainder) != 5 {
		t.Errorf("expected remainder of 5, got %d", len(remainder))
	}
	// First remaining record is the 21st seeded one.
	if remainder[0]["rentability"] != float64(20) {
		t.Errorf("remainder starts at wrong record: %v", remainder[0])
	}

	for _, name := range []string{"trades_20240301T120000_0.csv", "trades_20240301T120000_1.csv"} {
		_, rows, err := ReadRows(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(rows) != 10 {
			t.Errorf("%s: expected 10 rows, got %d", name, len(rows))
		}
	}
}

func TestExport_BelowThresholdIsNoOp(t *testing.T) {
	dir := t.TempDir()
	buf := seedBuffer(t, 7)
	ctx := context.Background()

	written, err := NewExporter(dir, 10, discardLogger()).Export(ctx, buf, domain.StreamTrades, "20240301T120000")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if written != 0 {
		t.Errorf("expected zero exports, got %d", written)
	}

	remainder, err := buf.Load(ctx, domain.StreamTrades)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(remainder) != 7 {
		t.Errorf("buffer changed on no-op export: %d", len(remainder))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files, found %v", entries)
	}
}

func TestExport_SequenceProbesPastExistingFiles(t *testing.T) {
	dir := t.TempDir()
	// A file from an earlier crash-interrupted cycle of the same run.
	stale := filepath.Join(dir, "trades_20240301T120000_0.csv")
	if err := os.WriteFile(stale, []byte("rentability\n1\n"), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}

	buf := seedBuffer(t, 10)
	written, err := NewExporter(dir, 10, discardLogger()).Export(context.Background(), buf, domain.StreamTrades, "20240301T120000")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if written != 1 {
		t.Fatalf("expected 1 export, got %d", written)
	}

	if _, err := os.Stat(filepath.Join(dir, "trades_20240301T120000_1.csv")); err != nil {
		t.Errorf("expected sequence to advance past existing file: %v", err)
	}
	data, err := os.ReadFile(stale)
	if err != nil || !strings.HasPrefix(string(data), "rentability") {
		t.Errorf("pre-existing file was clobbered")
	}
}

func TestWriteRows_UnionHeaderAndEmptyCells(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	rows := []map[string]any{
		{"b": 1.5, "a": "x"},
		{"c": int64(7)},
	}
	if err := WriteRows(path, rows); err != nil {
		t.Fatalf("WriteRows failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "a,b,c" {
		t.Errorf("header not sorted union: %q", lines[0])
	}
	if lines[1] != "x,1.5," {
		t.Errorf("first row mismatch: %q", lines[1])
	}
	if lines[2] != ",,7" {
		t.Errorf("second row mismatch: %q", lines[2])
	}
}

func TestReadRows_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "round.csv")

	rows := []map[string]any{
		{"cost.total": 0.123457, "exchange.from": "137:USDC:EUR"},
		{"cost.total": 1.0},
	}
	if err := WriteRows(path, rows); err != nil {
		t.Fatalf("WriteRows failed: %v", err)
	}

	columns, got, err := ReadRows(path)
	if err != nil {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if !reflect.DeepEqual(columns, []string{"cost.total", "exchange.from"}) {
		t.Errorf("columns mismatch: %v", columns)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0]["cost.total"] != "0.123457" {
		t.Errorf("value mismatch: %v", got[0])
	}
	if _, ok := got[1]["exchange.from"]; ok {
		t.Errorf("missing cell should stay absent, got %v", got[1])
	}
}

func TestExport_ManyBatches(t *testing.T) {
	dir := t.TempDir()
	buf := seedBuffer(t, 40)

	written, err := NewExporter(dir, 10, discardLogger()).Export(context.Background(), buf, domain.StreamTrades, "20240301T120000")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if written != 4 {
		t.Errorf("expected 4 exports, got %d", written)
	}
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("trades_20240301T120000_%d.csv", i)
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing export %s: %v", name, err)
		}
	}
}
