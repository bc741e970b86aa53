package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/cmenning/asu-calculator/internal/chain"
)

// Resource fields every inventory carries regardless of the chain.
const (
	TechScraps        = "tech_scraps"
	TechScrapClusters = "tech_scrap_clusters"
	MedTech           = "med_tech"
	MedTechClusters   = "med_tech_clusters"
	Bitcoin           = "bitcoin"

	StartDate   = "start_date"
	LastUpdated = "last_updated"
)

type Field struct {
	Key   string
	Label string
}

// Fields lists the count fields of an inventory for cfg in prompt order.
func Fields(cfg *chain.Config) []Field {
	out := []Field{
		{Key: TechScraps, Label: "Tech Scraps"},
		{Key: TechScrapClusters, Label: "Tech Scrap Clusters"},
		{Key: MedTech, Label: "Med Tech"},
		{Key: MedTechClusters, Label: "Med Tech Clusters"},
		{Key: Bitcoin, Label: "Bitcoin"},
	}
	for _, t := range cfg.Tiers {
		label := t.Display
		if label == "" {
			label = t.Field
		}
		out = append(out, Field{Key: t.Field, Label: label})
	}
	return out
}

// Inventory is a player's holdings. Counts are never negative.
type Inventory struct {
	Counts      map[string]int64
	StartDate   *time.Time
	LastUpdated *time.Time
}

// New returns an all-zero inventory with the given fields.
func New(fields []Field) *Inventory {
	inv := &Inventory{Counts: make(map[string]int64, len(fields))}
	for _, f := range fields {
		inv.Counts[f.Key] = 0
	}
	return inv
}

func (inv *Inventory) Get(field string) int64 { return inv.Counts[field] }

// Set stores v for field, clamping negatives to 0.
func (inv *Inventory) Set(field string, v int64) {
	if v < 0 {
		v = 0
	}
	inv.Counts[field] = v
}

func (inv *Inventory) Clone() *Inventory {
	out := &Inventory{Counts: make(map[string]int64, len(inv.Counts))}
	for k, v := range inv.Counts {
		out.Counts[k] = v
	}
	if inv.StartDate != nil {
		t := *inv.StartDate
		out.StartDate = &t
	}
	if inv.LastUpdated != nil {
		t := *inv.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

// Decode builds an inventory from a raw JSON object. Missing, non-numeric and
// negative counts become 0; fractional counts are floored and counts past
// math.MaxInt64 saturate. Timestamps that do not parse become nil. Keys outside
// fields are dropped.
func Decode(raw []byte, fields []Field) (*Inventory, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after inventory object")
	}
	inv := New(fields)
	for _, f := range fields {
		inv.Counts[f.Key] = coerceCount(m[f.Key])
	}
	inv.StartDate = coerceTime(m[StartDate])
	inv.LastUpdated = coerceTime(m[LastUpdated])
	return inv, nil
}

func coerceCount(v any) int64 {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return max(0, i)
	}
	// Out of int64 range or written with a fraction or exponent. ParseFloat
	// reports overflow as +/-Inf, which FloorSat clamps.
	f, _ := n.Float64()
	return chain.FloorSat(f)
}

func coerceTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil
	}
	return &t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTime accepts RFC 3339 as well as the zone-less ISO-8601 forms older
// snapshots were written with (interpreted as local time).
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for i, layout := range timeLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func (inv *Inventory) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(inv.Counts)+2)
	for k, v := range inv.Counts {
		m[k] = v
	}
	m[StartDate] = formatTime(inv.StartDate)
	m[LastUpdated] = formatTime(inv.LastUpdated)
	return json.Marshal(m)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}
