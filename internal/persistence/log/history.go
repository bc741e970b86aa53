package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/inventory"
)

const filePrefix = "history-"

// Entry records one saved inventory together with the figures derived from
// it at save time.
type Entry struct {
	ID           string           `json:"id"`
	RecordedAt   time.Time        `json:"recorded_at"`
	Counts       map[string]int64 `json:"counts"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	BaseUnits    int64            `json:"base_units"`
	ProgressTier string           `json:"progress_tier"`
	Progress     float64          `json:"progress"`
	ChainDigest  string           `json:"chain_digest"`
}

func NewEntry(e *engine.Engine, inv *inventory.Inventory, now time.Time) Entry {
	cfg := e.Config()
	progress, _ := e.EquivalentUnits(inv, cfg.ProgressTier)
	snap := inv.Clone()
	return Entry{
		ID:           uuid.NewString(),
		RecordedAt:   now.UTC(),
		Counts:       snap.Counts,
		StartDate:    snap.StartDate,
		BaseUnits:    e.EquivalentBaseUnits(inv),
		ProgressTier: cfg.ProgressTier,
		Progress:     progress,
		ChainDigest:  cfg.Digest(),
	}
}

// Writer appends entries as zstd-compressed JSON lines, one file per UTC day.
type Writer struct {
	dir string

	mu     sync.Mutex
	curDay string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := e.RecordedAt.UTC().Format(time.DateOnly)
	if day != w.curDay {
		if err := w.rotateLocked(day); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) rotateLocked(day string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForDay(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 32*1024)
	w.curDay = day
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curDay = ""
	return err1
}

func (w *Writer) pathForDay(day string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s%s.jsonl.zst", filePrefix, day))
}

// ListFiles returns the history files in dir in chronological order. A
// missing dir has no files.
func ListFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadDir replays every entry under dir, oldest file first.
func ReadDir(dir string) ([]Entry, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, p := range files {
		entries, err := readFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var out []Entry
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}
