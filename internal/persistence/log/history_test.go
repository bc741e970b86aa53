package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmenning/asu-calculator/internal/chain"
	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/inventory"
)

func TestWriter_RotatesDailyAndReplays(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	day1 := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Hour)
	entries := []Entry{
		{ID: "a", RecordedAt: day1, BaseUnits: 10, Counts: map[string]int64{"tech_scraps": 10}},
		{ID: "b", RecordedAt: day1.Add(time.Minute), BaseUnits: 20},
		{ID: "c", RecordedAt: day2, BaseUnits: 30},
	}
	for _, e := range entries {
		if err := w.Write(e); err != nil {
			t.Fatalf("Write %s: %v", e.ID, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%d want 2", len(files))
	}
	if filepath.Base(files[0]) != "history-2024-03-01.jsonl.zst" || filepath.Base(files[1]) != "history-2024-03-02.jsonl.zst" {
		t.Fatalf("unexpected file names: %v", files)
	}

	got, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries=%d want 3", len(got))
	}
	for i := range entries {
		if got[i].ID != entries[i].ID || got[i].BaseUnits != entries[i].BaseUnits {
			t.Fatalf("entry %d = %+v want %+v", i, got[i], entries[i])
		}
	}
	if got[0].Counts["tech_scraps"] != 10 {
		t.Fatalf("counts not preserved: %v", got[0].Counts)
	}
}

func TestWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"x", "y"} {
		w := NewWriter(dir)
		if err := w.Write(Entry{ID: id, RecordedAt: at.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	got, err := ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(got) != 2 || got[0].ID != "x" || got[1].ID != "y" {
		t.Fatalf("got %+v", got)
	}
}

func TestListFiles_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "history-2024-01-01.jsonl", "history-2024-01-02.jsonl.zst"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files=%v want only the .jsonl.zst one", files)
	}
}

func TestNewEntry(t *testing.T) {
	cfg := chain.Default()
	e := engine.New(cfg)
	inv := inventory.New(inventory.Fields(cfg))
	inv.Set("employee_office_cases", 5)
	inv.Set(inventory.TechScraps, 7)

	now := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)
	ent := NewEntry(e, inv, now)
	if ent.ID == "" {
		t.Fatalf("expected id")
	}
	if ent.BaseUnits != 5*300_000+7 {
		t.Fatalf("base_units=%d want %d", ent.BaseUnits, 5*300_000+7)
	}
	if ent.ProgressTier != "employee_office_case" {
		t.Fatalf("progress_tier=%q", ent.ProgressTier)
	}
	if ent.Progress < 5 || ent.Progress > 5.01 {
		t.Fatalf("progress=%f want ~5", ent.Progress)
	}
	if ent.ChainDigest != cfg.Digest() {
		t.Fatalf("digest mismatch")
	}

	inv.Set(inventory.TechScraps, 99)
	if ent.Counts[inventory.TechScraps] != 7 {
		t.Fatalf("entry shares counts with inventory")
	}
}

func TestReadDir_MissingDirIsEmpty(t *testing.T) {
	got, err := ReadDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("entries=%d want 0", len(got))
	}
}
