package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmenning/asu-calculator/internal/chain"
	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/inventory"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0 minutes", FormatDuration(0))
	assert.Equal(t, "45 minutes", FormatDuration(45))
	assert.Equal(t, "1.0 hours", FormatDuration(60))
	assert.Equal(t, "23.5 hours", FormatDuration(1410))
	assert.Equal(t, "1.0 days", FormatDuration(1440))
	assert.Equal(t, "2.5 days", FormatDuration(3600))
}

func summarize(t *testing.T, counts map[string]int64, start *time.Time, now time.Time) (*chain.Config, engine.Results) {
	t.Helper()
	cfg := chain.Default()
	inv := inventory.New(inventory.Fields(cfg))
	for k, v := range counts {
		inv.Set(k, v)
	}
	inv.StartDate = start
	return cfg, engine.New(cfg).Summarize(inv, 1, now)
}

func TestText_FreshInventory(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg, res := summarize(t, nil, nil, now)

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, cfg, res, now))
	out := buf.String()

	assert.Contains(t, out, "ASU CALCULATOR RESULTS")
	assert.Contains(t, out, "Tech Scraps: 7,500,000")
	assert.Contains(t, out, "Bitcoin: 79,250,000")
	assert.Contains(t, out, "Employee Office Cases: 0.0 / 25")
	assert.Contains(t, out, "Old Pouches: 75,000")
	assert.Contains(t, out, "Explorer's Backpacks to buy: 500")
	assert.Contains(t, out, "After buying Explorer's Backpacks:")
	assert.NotContains(t, out, "YOUR COLLECTION RATE")
	assert.NotContains(t, out, "COMPLETION ESTIMATE")
}

func TestText_WithRateShowsETA(t *testing.T) {
	now := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -10)
	cfg, res := summarize(t, map[string]int64{"employee_office_cases": 5}, &start, now)
	require.NotNil(t, res.Completion)

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, cfg, res, now))
	out := buf.String()

	assert.Contains(t, out, "YOUR COLLECTION RATE")
	assert.Contains(t, out, "Days elapsed: 10.0")
	assert.Contains(t, out, "COMPLETION ESTIMATE")
	assert.Contains(t, out, "from now")
	assert.Contains(t, out, "Progress: 20.0% complete")
}

func TestText_NothingToBuy(t *testing.T) {
	now := time.Now()
	cfg, res := summarize(t, map[string]int64{"asus": 1}, nil, now)

	var buf bytes.Buffer
	require.NoError(t, Text(&buf, cfg, res, now))
	assert.Contains(t, buf.String(), "No Explorer's Backpacks need to be purchased")
}

func TestJSON(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	_, res := summarize(t, nil, nil, now)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, res))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "total_requirements")
	assert.Contains(t, doc, "bag_crafter_service")
	assert.Nil(t, doc["collection_rate"])
}

func TestHistory(t *testing.T) {
	now := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	lines := []HistoryLine{
		{RecordedAt: now.AddDate(0, 0, -2), BaseUnits: 1000, ProgressTier: "employee_office_case", Progress: 0.01},
		{RecordedAt: now.AddDate(0, 0, -1), BaseUnits: 4500, ProgressTier: "employee_office_case", Progress: 0.02},
	}
	var buf bytes.Buffer
	require.NoError(t, History(&buf, lines, now))
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.Contains(t, out, "4,500 base units (+3,500)")
	assert.Contains(t, out, "ago")

	buf.Reset()
	require.NoError(t, History(&buf, nil, now))
	assert.Contains(t, buf.String(), "no history recorded")
}

func TestSeries(t *testing.T) {
	now := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	points := []SeriesPoint{
		{At: now.AddDate(0, 0, -3), Value: 12_000},
		{At: now.AddDate(0, 0, -2), Value: 2_000},
		{At: now.AddDate(0, 0, -1), Value: 2_500},
	}
	var buf bytes.Buffer
	require.NoError(t, Series(&buf, "tech_scraps", points, now))
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, "tech_scraps 2,000 (-10,000)")
	assert.Contains(t, out, "tech_scraps 2,500 (+500)")

	buf.Reset()
	require.NoError(t, Series(&buf, "asus", nil, now))
	assert.Contains(t, buf.String(), "no history recorded for asus")
}
