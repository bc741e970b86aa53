package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cmenning/asu-calculator/internal/config"
	"github.com/cmenning/asu-calculator/internal/inventory"
	"github.com/cmenning/asu-calculator/internal/persistence/indexdb"
	persistlog "github.com/cmenning/asu-calculator/internal/persistence/log"
	"github.com/cmenning/asu-calculator/internal/report"
)

func main() {
	logger := log.New(os.Stderr, "[asuhistory] ", log.LstdFlags)
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("asuhistory", flag.ContinueOnError)
	source := fs.String("source", "log", "where to read history from: log or index")
	limit := fs.Int("limit", 20, "most recent entries to show (0 for all)")
	field := fs.String("field", "", "list the recorded values of one inventory field instead")
	s, err := config.ParseSettings(fs, args)
	if err != nil {
		return err
	}
	if *source != "log" && *source != "index" {
		return fmt.Errorf("unknown -source %q (want log or index)", *source)
	}
	if *source == "index" && s.DisableDB {
		return fmt.Errorf("-source=index with the index disabled")
	}
	if *field != "" {
		if err := checkField(s, *field); err != nil {
			return err
		}
		points, err := fieldSeries(ctx, s, *source, *field)
		if err != nil {
			return err
		}
		return report.Series(out, *field, tail(points, *limit), time.Now())
	}

	var lines []report.HistoryLine
	switch *source {
	case "log":
		entries, err := persistlog.ReadDir(s.HistoryDir())
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		for _, e := range tail(entries, *limit) {
			lines = append(lines, report.HistoryLine{
				RecordedAt: e.RecordedAt, BaseUnits: e.BaseUnits,
				ProgressTier: e.ProgressTier, Progress: e.Progress,
			})
		}
	case "index":
		idx, err := indexdb.OpenSQLite(s.IndexPath())
		if err != nil {
			return err
		}
		defer idx.Close()
		rows, err := idx.Recent(ctx, *limit)
		if err != nil {
			return err
		}
		// Recent is newest first; the listing reads oldest first.
		for i := len(rows) - 1; i >= 0; i-- {
			r := rows[i]
			lines = append(lines, report.HistoryLine{
				RecordedAt: r.RecordedAt, BaseUnits: r.BaseUnits,
				ProgressTier: r.ProgressTier, Progress: r.Progress,
			})
		}
	}
	return report.History(out, lines, time.Now())
}

func checkField(s config.Settings, field string) error {
	cfg, err := s.Chain()
	if err != nil {
		return err
	}
	for _, f := range inventory.Fields(cfg) {
		if f.Key == field {
			return nil
		}
	}
	return fmt.Errorf("unknown -field %q", field)
}

func fieldSeries(ctx context.Context, s config.Settings, source, field string) ([]report.SeriesPoint, error) {
	var out []report.SeriesPoint
	if source == "log" {
		entries, err := persistlog.ReadDir(s.HistoryDir())
		if err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		for _, e := range entries {
			if v, ok := e.Counts[field]; ok {
				out = append(out, report.SeriesPoint{At: e.RecordedAt, Value: v})
			}
		}
		return out, nil
	}
	idx, err := indexdb.OpenSQLite(s.IndexPath())
	if err != nil {
		return nil, err
	}
	defer idx.Close()
	points, err := idx.FieldSeries(ctx, field)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		out = append(out, report.SeriesPoint{At: p.At, Value: p.Value})
	}
	return out, nil
}

// tail keeps the last n items; n <= 0 keeps everything.
func tail[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
