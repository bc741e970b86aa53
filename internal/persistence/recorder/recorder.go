// Package recorder persists a saved inventory everywhere it is kept: the
// snapshot file, the history log, the sqlite index and, once the target is
// reached, the completion archive.
package recorder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/inventory"
	"github.com/cmenning/asu-calculator/internal/persistence/archive"
	"github.com/cmenning/asu-calculator/internal/persistence/indexdb"
	persistlog "github.com/cmenning/asu-calculator/internal/persistence/log"
	"github.com/cmenning/asu-calculator/internal/persistence/snapshot"
)

type Recorder struct {
	Store   *snapshot.Store
	History *persistlog.Writer
	Index   *indexdb.SQLiteIndex // nil when the index is disabled
	Engine  *engine.Engine
	DataDir string
	Target  int64
	Log     *log.Logger
}

// Record saves inv. Only the snapshot write is fatal; the history log, index
// and archive are secondary and their failures are logged.
func (r *Recorder) Record(ctx context.Context, inv *inventory.Inventory, now time.Time) error {
	if err := r.Store.Save(inv, now); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}

	entry := persistlog.NewEntry(r.Engine, inv, now)
	if r.History != nil {
		if err := r.History.Write(entry); err != nil {
			r.Log.Printf("history: %v", err)
		}
	}
	if r.Index != nil {
		if err := r.Index.RecordEntry(ctx, entry); err != nil {
			r.Log.Printf("index: %v", err)
		}
	}

	cfg := r.Engine.Config()
	final := cfg.Final()
	meta := archive.CompletionMeta{
		FinalTier:   final.Name,
		FinalCount:  inv.Get(final.Field),
		Target:      r.Target,
		BaseUnits:   entry.BaseUnits,
		ChainDigest: entry.ChainDigest,
	}
	path, archived, err := archive.ArchiveCompletion(r.DataDir, r.Store.Path(), meta, now)
	if err != nil {
		r.Log.Printf("archive: %v", err)
		return nil
	}
	if archived {
		r.Log.Printf("target reached: snapshot archived to %s", path)
		if err := r.Index.RecordArchive(ctx, meta.FinalCount, path, now); err != nil {
			r.Log.Printf("index: %v", err)
		}
	}
	return nil
}

func (r *Recorder) Close() error {
	var err error
	if r.History != nil {
		err = r.History.Close()
	}
	if r.Index != nil {
		if cerr := r.Index.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
