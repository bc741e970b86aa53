package report

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// HistoryLine is one saved snapshot as shown by the history listing.
type HistoryLine struct {
	RecordedAt   time.Time
	BaseUnits    int64
	ProgressTier string
	Progress     float64
}

// History writes one line per entry plus the change since the previous one.
// Entries are expected oldest first.
func History(w io.Writer, lines []HistoryLine, now time.Time) error {
	p := message.NewPrinter(language.English)
	if len(lines) == 0 {
		_, err := p.Fprintln(w, "no history recorded")
		return err
	}
	for i, l := range lines {
		delta := ""
		if i > 0 {
			delta = signedDelta(p, l.BaseUnits-lines[i-1].BaseUnits)
		}
		_, err := p.Fprintf(w, "%s  %s  %d base units%s  %.2f %s\n",
			l.RecordedAt.Local().Format("2006-01-02 15:04"),
			humanize.RelTime(l.RecordedAt, now, "ago", "from now"),
			l.BaseUnits, delta, l.Progress, l.ProgressTier)
		if err != nil {
			return err
		}
	}
	return nil
}

// SeriesPoint is one recorded value of a single inventory field.
type SeriesPoint struct {
	At    time.Time
	Value int64
}

// Series lists the recorded values of field, oldest first, with the change
// since the previous entry.
func Series(w io.Writer, field string, points []SeriesPoint, now time.Time) error {
	p := message.NewPrinter(language.English)
	if len(points) == 0 {
		_, err := p.Fprintf(w, "no history recorded for %s\n", field)
		return err
	}
	for i, pt := range points {
		delta := ""
		if i > 0 {
			delta = signedDelta(p, pt.Value-points[i-1].Value)
		}
		_, err := p.Fprintf(w, "%s  %s  %s %d%s\n",
			pt.At.Local().Format("2006-01-02 15:04"),
			humanize.RelTime(pt.At, now, "ago", "from now"),
			field, pt.Value, delta)
		if err != nil {
			return err
		}
	}
	return nil
}

func signedDelta(p *message.Printer, d int64) string {
	sign := "+"
	if d < 0 {
		sign = ""
	}
	return p.Sprintf(" (%s%d)", sign, d)
}
