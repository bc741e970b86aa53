package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmenning/asu-calculator/internal/persistence/indexdb"
	persistlog "github.com/cmenning/asu-calculator/internal/persistence/log"
)

func seed(t *testing.T, dataDir string) {
	t.Helper()
	w := persistlog.NewWriter(filepath.Join(dataDir, "history"))
	idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	at := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, units := range []int64{1000, 2500, 9000} {
		e := persistlog.Entry{
			ID:           string(rune('a' + i)),
			RecordedAt:   at.AddDate(0, 0, i),
			BaseUnits:    units,
			ProgressTier: "employee_office_case",
			Counts:       map[string]int64{"tech_scraps": units, "asus": 0},
		}
		if err := w.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := idx.RecordEntry(context.Background(), e); err != nil {
			t.Fatalf("RecordEntry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRun_LogAndIndexAgree(t *testing.T) {
	dataDir := t.TempDir()
	seed(t, dataDir)

	var fromLog, fromIndex bytes.Buffer
	if err := run(context.Background(), []string{"-data", dataDir, "-limit", "2"}, &fromLog); err != nil {
		t.Fatalf("run log: %v", err)
	}
	if err := run(context.Background(), []string{"-data", dataDir, "-limit", "2", "-source", "index"}, &fromIndex); err != nil {
		t.Fatalf("run index: %v", err)
	}
	if fromLog.String() != fromIndex.String() {
		t.Fatalf("log and index disagree:\n%s\n---\n%s", fromLog.String(), fromIndex.String())
	}
	if strings.Count(fromLog.String(), "\n") != 2 {
		t.Fatalf("expected 2 lines, got:\n%s", fromLog.String())
	}
	if !strings.Contains(fromLog.String(), "9,000 base units (+6,500)") {
		t.Fatalf("unexpected listing:\n%s", fromLog.String())
	}
}

func runBoth(t *testing.T, args ...string) string {
	t.Helper()
	var fromLog, fromIndex bytes.Buffer
	if err := run(context.Background(), args, &fromLog); err != nil {
		t.Fatalf("run log: %v", err)
	}
	if err := run(context.Background(), append(args, "-source", "index"), &fromIndex); err != nil {
		t.Fatalf("run index: %v", err)
	}
	if fromLog.String() != fromIndex.String() {
		t.Fatalf("log and index disagree:\n%s\n---\n%s", fromLog.String(), fromIndex.String())
	}
	return fromLog.String()
}

func TestRun_ZeroLimitShowsAllFromBothSources(t *testing.T) {
	dataDir := t.TempDir()
	seed(t, dataDir)

	out := runBoth(t, "-data", dataDir, "-limit", "0")
	if strings.Count(out, "\n") != 3 {
		t.Fatalf("expected 3 lines, got:\n%s", out)
	}
}

func TestRun_FieldSeries(t *testing.T) {
	dataDir := t.TempDir()
	seed(t, dataDir)

	out := runBoth(t, "-data", dataDir, "-field", "tech_scraps", "-limit", "0")
	if strings.Count(out, "\n") != 3 {
		t.Fatalf("expected 3 lines, got:\n%s", out)
	}
	if !strings.Contains(out, "tech_scraps 2,500 (+1,500)") || !strings.Contains(out, "tech_scraps 9,000 (+6,500)") {
		t.Fatalf("unexpected series:\n%s", out)
	}

	var buf bytes.Buffer
	if err := run(context.Background(), []string{"-data", dataDir, "-field", "nope"}, &buf); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestRun_UnknownSource(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-data", t.TempDir(), "-source", "cloud"}, &out); err == nil {
		t.Fatalf("expected error")
	}
}
