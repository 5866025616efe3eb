package pipeline

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"swap-telemetry-lab/internal/domain"
	"swap-telemetry-lab/internal/storage/memory"
)

func fixedClock() func() time.Time {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	return func() time.Time { return ts }
}

func seedStream(t *testing.T, buf *memory.Buffer, stream string, n int) {
	t.Helper()
	docs := make([]domain.Document, n)
	for i := range docs {
		docs[i] = domain.Document{"seq": float64(i), "stream": stream}
	}
	if err := buf.Replace(context.Background(), stream, docs); err != nil {
		t.Fatalf("seed %s: %v", stream, err)
	}
}

func TestRunCycleDrainEndToEnd(t *testing.T) {
	dir := t.TempDir()
	buf := memory.NewBuffer()
	seedStream(t, buf, domain.StreamTrades, 25)
	seedStream(t, buf, domain.StreamWallets, 12)

	r := NewRunner(buf, dir, 10, 2, log.New(io.Discard, "", 0)).WithClock(fixedClock())
	res, err := r.RunCycle(context.Background(), true)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if res.RunID != "20240301T123045" {
		t.Fatalf("RunID = %q", res.RunID)
	}
	trades := res.Streams[domain.StreamTrades]
	if trades.Exports != 2 || trades.Merges != 1 || trades.Archives != 1 {
		t.Fatalf("trades stats = %+v, want 2 exports, 1 merge, 1 archive", trades)
	}
	wallets := res.Streams[domain.StreamWallets]
	if wallets.Exports != 1 || wallets.Merges != 1 || wallets.Archives != 1 {
		t.Fatalf("wallets stats = %+v, want 1 export, 1 merge, 1 archive", wallets)
	}

	left, err := buf.Load(context.Background(), domain.StreamTrades)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(left) != 5 {
		t.Fatalf("trade remainder = %d, want 5", len(left))
	}

	zr, err := zip.OpenReader(filepath.Join(dir, "archive_"+res.RunID+".zip"))
	if err != nil {
		t.Fatalf("open run archive: %v", err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "trades_"+res.RunID) || !strings.Contains(joined, "wallets_"+res.RunID) {
		t.Fatalf("archive entries = %v, want one per stream", names)
	}

	// drain leaves no plaintext CSV behind
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("plaintext files after drain: %v", leftovers)
	}
}

func TestRunCycleBelowThresholdIsQuiet(t *testing.T) {
	dir := t.TempDir()
	buf := memory.NewBuffer()
	seedStream(t, buf, domain.StreamTrades, 4)

	r := NewRunner(buf, dir, 10, 10, log.New(io.Discard, "", 0)).WithClock(fixedClock())
	res, err := r.RunCycle(context.Background(), false)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	for stream, stats := range res.Streams {
		if stats.Exports != 0 || stats.Merges != 0 || stats.Archives != 0 {
			t.Fatalf("%s stats = %+v, want all zero", stream, stats)
		}
	}

	left, err := buf.Load(context.Background(), domain.StreamTrades)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(left) != 4 {
		t.Fatalf("buffer = %d docs, want 4 untouched", len(left))
	}

	files, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("files created without reaching threshold: %v", files)
	}
}

func TestRunCycleAccumulatesAcrossCycles(t *testing.T) {
	dir := t.TempDir()
	buf := memory.NewBuffer()

	r := NewRunner(buf, dir, 5, 2, log.New(io.Discard, "", 0)).WithClock(fixedClock())

	// two cycles with fresh data each, no drain: exports stack up as pending
	// and merge once a full group exists
	for cycle := 0; cycle < 2; cycle++ {
		seedStream(t, buf, domain.StreamTrades, 5)
		if _, err := r.RunCycle(context.Background(), false); err != nil {
			t.Fatalf("cycle %d: %v", cycle, err)
		}
	}

	combined, err := filepath.Glob(filepath.Join(dir, "trades_*_combined.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(combined) != 1 {
		t.Fatalf("combined files = %v, want 1 after two single-export cycles", combined)
	}
	if want := fmt.Sprintf("trades_%s_0-0_combined.csv", "20240301T123045"); filepath.Base(combined[0]) != want {
		t.Fatalf("combined name = %s, want %s", filepath.Base(combined[0]), want)
	}
}
