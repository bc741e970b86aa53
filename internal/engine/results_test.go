package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmenning/asu-calculator/internal/chain"
	"github.com/cmenning/asu-calculator/internal/inventory"
)

func TestSummarize_FreshInventory(t *testing.T) {
	e := New(chain.Default())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	res := e.Summarize(newInv(t, nil), 1, now)

	assert.Equal(t, int64(7_500_000), res.Requirements.BaseUnits)
	assert.Nil(t, res.Rate)
	assert.Nil(t, res.Completion)
	assert.Zero(t, res.Progress)
	assert.Equal(t, int64(25), res.ProgressNeeded)

	assert.Equal(t, int64(7_500_000), res.Gathering.BaseUnits)
	assert.InDelta(t, 7_500_000/1.2/1000, res.Gathering.MTCNeeded, 1e-6)
	require.NotNil(t, res.Gathering.ScavTime)

	assert.Equal(t, int64(75_000), res.Bags.Count("old_pouch"))
	assert.Equal(t, int64(79_250_000), res.Crafting.Bitcoin)
	wantMinutes := float64(75_000*5 + 7500*15 + 500*30 + 25*45 + 60)
	assert.InDelta(t, wantMinutes/60, res.Crafting.Hours, 1e-9)
	assert.InDelta(t, wantMinutes/60*0.2, res.Crafting.SynHours, 1e-9)

	bc := res.BagCrafter
	assert.Equal(t, "explorer_backpack", bc.Tier)
	assert.Equal(t, int64(500), bc.StillNeeded)
	assert.Zero(t, bc.CanCraft)
	assert.Equal(t, int64(500), bc.ToBuy)
	assert.Equal(t, int64(7500), bc.MTCCost)
	assert.Equal(t, int64(7500*5000), bc.BitcoinClustering)
	require.NotNil(t, bc.ScavTime)
	require.NotNil(t, bc.AfterBuying)
	assert.Equal(t, int64(25*50000+500000+7500*5000), bc.AfterBuying.Bitcoin)
	assert.InDelta(t, float64(25*45+60)/60, bc.AfterBuying.CraftHours, 1e-9)
}

func TestSummarize_WithProgressAndRate(t *testing.T) {
	e := New(chain.Default())
	now := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -30)

	inv := newInv(t, map[string]int64{
		"employee_office_cases":     10,
		"explorer_backpacks":        200,
		inventory.TechScrapClusters: 500, // 5,000 old pouches worth
		inventory.Bitcoin:           1_000_000,
	})
	inv.StartDate = &start

	res := e.Summarize(inv, 1, now)

	require.NotNil(t, res.Rate)
	held := int64(10*300_000 + 200*15_000 + 500_000)
	assert.Equal(t, held, res.Rate.BaseCollected)
	assert.InDelta(t, float64(held)/30, res.Rate.DailyRate, 1e-6)

	assert.InDelta(t, 20, res.Progress, 1e-9)
	assert.Equal(t, int64(7_500_000-held), res.Gathering.BaseUnits)

	require.NotNil(t, res.Completion)
	assert.InDelta(t, float64(7_500_000-held)/res.Rate.DailyRate, res.Completion.Days, 1e-9)

	// 15 EOCs missing -> 300 doras, 200 held -> 100 doras still needed.
	bc := res.BagCrafter
	assert.Equal(t, int64(100), bc.StillNeeded)
	// 5,000 old pouches -> 500 fannys -> 33 doras craftable.
	assert.Equal(t, int64(5_000), bc.FromBase)
	assert.Equal(t, int64(33), bc.CanCraft)
	assert.Equal(t, int64(67), bc.ToBuy)
	assert.Equal(t, int64(67*15), bc.MTCCost)
	require.NotNil(t, bc.ScavTime)
	require.NotNil(t, bc.AfterBuying)
	assert.Equal(t, int64(15*50_000+500_000-1_000_000+67*15*5000), bc.AfterBuying.Bitcoin)
	assert.InDelta(t, float64(15*45+60)/60, bc.AfterBuying.CraftHours, 1e-9)
}

func TestSummarize_Complete(t *testing.T) {
	e := New(chain.Default())
	res := e.Summarize(newInv(t, map[string]int64{"asus": 1}), 1, time.Now())
	assert.Zero(t, res.Gathering.BaseUnits)
	assert.Nil(t, res.Gathering.ScavTime)
	assert.Zero(t, res.Crafting.Bitcoin)
	assert.Zero(t, res.BagCrafter.ToBuy)
}
