package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cmenning/asu-calculator/internal/config"
	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/inventory"
	"github.com/cmenning/asu-calculator/internal/persistence/indexdb"
	persistlog "github.com/cmenning/asu-calculator/internal/persistence/log"
	"github.com/cmenning/asu-calculator/internal/persistence/recorder"
	"github.com/cmenning/asu-calculator/internal/persistence/snapshot"
	"github.com/cmenning/asu-calculator/internal/prompt"
	"github.com/cmenning/asu-calculator/internal/report"
)

func main() {
	logger := log.New(os.Stderr, "[asucalc] ", log.LstdFlags)
	err := guard(func() error {
		return run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, logger)
	})
	if err != nil {
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

// guard turns a panic in fn into an error so the process reports it and exits
// instead of dumping a trace.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return fn()
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("asucalc", flag.ContinueOnError)
	reportOnly := fs.Bool("report", false, "skip the inventory prompts and only print the report")
	s, err := config.ParseSettings(fs, args)
	if err != nil {
		return err
	}

	cfg, err := s.Chain()
	if err != nil {
		return err
	}
	eng := engine.New(cfg)
	fields := inventory.Fields(cfg)
	store := snapshot.NewStore(s.InventoryPath, fields, logger)

	inv, err := store.Load()
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	if !*reportOnly {
		fmt.Fprintln(out, "ASU Time Calculator")
		fmt.Fprintln(out, "========================================")

		if err := prompt.New(in, out).UpdateInventory(inv, fields); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				fmt.Fprintln(out, "\n\nGoodbye!")
				return nil
			}
			return err
		}

		rec := &recorder.Recorder{
			Store:   store,
			History: persistlog.NewWriter(s.HistoryDir()),
			Engine:  eng,
			DataDir: s.DataDir,
			Target:  s.Target,
			Log:     logger,
		}
		if !s.DisableDB {
			idx, err := indexdb.OpenSQLite(s.IndexPath())
			if err != nil {
				logger.Printf("index disabled: %v", err)
			} else {
				rec.Index = idx
				if err := idx.UpsertChain(ctx, cfg); err != nil {
					logger.Printf("index: %v", err)
				}
			}
		}
		defer rec.Close()

		if err := rec.Record(ctx, inv, time.Now()); err != nil {
			return err
		}
	}

	now := time.Now()
	res := eng.Summarize(inv, s.Target, now)
	if s.JSON {
		return report.JSON(out, res)
	}
	return report.Text(out, cfg, res, now)
}
