package engine

import (
	"fmt"
	"time"

	"github.com/cmenning/asu-calculator/internal/chain"
	"github.com/cmenning/asu-calculator/internal/inventory"
)

const (
	minutesPerHour = 60
	hoursPerDay    = 24
)

// Cluster kinds accepted by ClusterUnits and ClusteringCost.
const (
	KindTechScrap = "tech_scrap"
	KindMedTech   = "med_tech"
)

// Engine evaluates requirement and progress formulas over one chain table.
// It holds no mutable state.
type Engine struct {
	cfg *chain.Config
}

// New expects a validated config.
func New(cfg *chain.Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() *chain.Config { return e.cfg }

type Remaining struct {
	Tiers []chain.TierCount `json:"tiers"`
}

func (r Remaining) Count(tier string) int64 {
	for _, tc := range r.Tiers {
		if tc.Tier == tier {
			return tc.Count
		}
	}
	return 0
}

type Craftable struct {
	// FromBase is the number of first-tier units raw and clustered base units
	// cover; Leftover is what remains of the base units after that.
	FromBase int64 `json:"from_base"`
	Leftover int64 `json:"leftover"`

	// Craftable[i] is newly craftable from lower stock; Available[i] adds the
	// held count of tier i.
	Tiers []CraftableTier `json:"tiers"`
}

type CraftableTier struct {
	Tier      string `json:"tier"`
	Craftable int64  `json:"craftable"`
	Available int64  `json:"available"`
}

func (c Craftable) Tier(name string) CraftableTier {
	for _, t := range c.Tiers {
		if t.Tier == name {
			return t
		}
	}
	return CraftableTier{Tier: name}
}

type ScavTime struct {
	Hours    float64 `json:"hours_no_syn"`
	Days     float64 `json:"days_no_syn"`
	SynHours float64 `json:"hours_with_syn"`
	SynDays  float64 `json:"days_with_syn"`
}

func (s ScavTime) IsZero() bool { return s.Hours == 0 }

type Rate struct {
	DaysElapsed    float64 `json:"days_elapsed"`
	BaseCollected  int64   `json:"base_collected"`
	DailyRate      float64 `json:"daily_rate"`
	ScavRunsPerDay float64 `json:"scav_runs_per_day"`
}

type Completion struct {
	Days float64   `json:"days_to_completion"`
	ETA  time.Time `json:"completion_date"`
}

func (e *Engine) baseFromClusters(inv *inventory.Inventory) int64 {
	clustered := chain.MulSat(inv.Get(inventory.TechScrapClusters), e.cfg.Conversions.TechScrapPerCluster)
	return chain.AddSat(inv.Get(inventory.TechScraps), clustered)
}

func (e *Engine) medTechTotal(inv *inventory.Inventory) float64 {
	clustered := float64(inv.Get(inventory.MedTechClusters)) * float64(e.cfg.Conversions.MedTechPerCluster)
	return float64(inv.Get(inventory.MedTech)) + clustered
}

// EquivalentBaseUnits values every holding in base units, floored and
// saturated at math.MaxInt64. It is monotonic in every field.
func (e *Engine) EquivalentBaseUnits(inv *inventory.Inventory) int64 {
	cv := e.cfg.Conversions
	total := float64(inv.Get(inventory.TechScraps))
	total += float64(inv.Get(inventory.TechScrapClusters)) * float64(cv.TechScrapPerCluster)
	total += e.RecycleToBase(e.medTechTotal(inv))
	for i, t := range e.cfg.Tiers {
		total += float64(inv.Get(t.Field)) * float64(e.cfg.BaseUnitsPer(i))
	}
	return chain.FloorSat(total)
}

// EquivalentUnits values the held tiers up to and including tier in units of
// tier. Higher tiers are not counted.
func (e *Engine) EquivalentUnits(inv *inventory.Inventory, tier string) (float64, error) {
	k, err := e.cfg.Index(tier)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := 0; i <= k; i++ {
		held := inv.Get(e.cfg.Tiers[i].Field)
		total += float64(held) / float64(e.cfg.RatioBetween(i, k))
	}
	return total, nil
}

func (e *Engine) EquivalentFinalUnits(inv *inventory.Inventory) float64 {
	v, _ := e.EquivalentUnits(inv, e.cfg.Final().Name)
	return v
}

// RemainingTierCounts walks the chain from the final tier down. Each tier's
// shortfall is clamped at 0 before it is multiplied into the tier below, so a
// surplus never reduces lower requirements past zero.
func (e *Engine) RemainingTierCounts(inv *inventory.Inventory, target int64) Remaining {
	n := len(e.cfg.Tiers)
	out := Remaining{Tiers: make([]chain.TierCount, n)}
	required := target
	for i := n - 1; i >= 0; i-- {
		t := e.cfg.Tiers[i]
		remaining := max(0, required-inv.Get(t.Field))
		out.Tiers[i] = chain.TierCount{Tier: t.Name, Field: t.Field, Count: remaining}
		required = chain.MulSat(remaining, t.Ratio)
	}
	return out
}

// CraftableFromStock is a single greedy pass upward from the base units.
func (e *Engine) CraftableFromStock(inv *inventory.Inventory) Craftable {
	base := e.baseFromClusters(inv)
	first := e.cfg.Tiers[0]
	out := Craftable{
		FromBase: base / first.Ratio,
		Leftover: base % first.Ratio,
		Tiers:    make([]CraftableTier, len(e.cfg.Tiers)),
	}
	below := int64(0)
	for i, t := range e.cfg.Tiers {
		craftable := out.FromBase
		if i > 0 {
			craftable = below / t.Ratio
		}
		available := chain.AddSat(inv.Get(t.Field), craftable)
		out.Tiers[i] = CraftableTier{Tier: t.Name, Craftable: craftable, Available: available}
		below = available
	}
	return out
}

// ScavTime estimates how long scavenging units of med tech takes, using the
// expected yield per run rather than simulating drops.
func (e *Engine) ScavTime(units float64) ScavTime {
	if units <= 0 {
		return ScavTime{}
	}
	runs := units / e.cfg.Scavenging.ExpectedPerRun()
	hours := runs * e.cfg.Scavenging.RunHours
	synHours := hours * e.cfg.SynRate
	return ScavTime{
		Hours:    hours,
		Days:     hours / hoursPerDay,
		SynHours: synHours,
		SynDays:  synHours / hoursPerDay,
	}
}

// CollectionRate reports false without a start date or before any time has
// elapsed.
func (e *Engine) CollectionRate(inv *inventory.Inventory, now time.Time) (Rate, bool) {
	if inv.StartDate == nil {
		return Rate{}, false
	}
	days := now.Sub(*inv.StartDate).Hours() / hoursPerDay
	if days <= 0 {
		return Rate{}, false
	}
	collected := e.EquivalentBaseUnits(inv)
	daily := float64(collected) / days
	perRun := e.cfg.Scavenging.ExpectedPerRun() * e.cfg.Conversions.RecycleRatio
	return Rate{
		DaysElapsed:    days,
		BaseCollected:  collected,
		DailyRate:      daily,
		ScavRunsPerDay: daily / perRun,
	}, true
}

// CompletionEstimate reports false for a non-positive daily rate.
func (e *Engine) CompletionEstimate(remaining, daily float64, now time.Time) (Completion, bool) {
	if daily <= 0 {
		return Completion{}, false
	}
	days := remaining / daily
	return Completion{
		Days: days,
		ETA:  now.Add(time.Duration(days * hoursPerDay * float64(time.Hour))),
	}, true
}

// CraftingTime returns minutes to craft qty units of tier.
func (e *Engine) CraftingTime(tier string, qty int64, syn bool) (float64, error) {
	t, err := e.cfg.Tier(tier)
	if err != nil {
		return 0, err
	}
	return e.synScale(float64(t.CraftMinutes)*float64(qty), syn), nil
}

// RecycleTime returns minutes to recycle medTech units into base units.
func (e *Engine) RecycleTime(medTech float64, syn bool) float64 {
	cycles := medTech / float64(e.cfg.Conversions.MedTechPerCluster)
	return e.synScale(cycles*e.cfg.Conversions.RecycleMinutes, syn)
}

func (e *Engine) synScale(v float64, syn bool) float64 {
	if syn {
		return v * e.cfg.SynRate
	}
	return v
}

func (e *Engine) RecycleToBase(medTech float64) float64 {
	return medTech * e.cfg.Conversions.RecycleRatio
}

func (e *Engine) clusterSpec(kind string) (size, cost int64, err error) {
	cv := e.cfg.Conversions
	switch kind {
	case KindTechScrap:
		return cv.TechScrapPerCluster, cv.ClusterCostTSC, nil
	case KindMedTech:
		return cv.MedTechPerCluster, cv.ClusterCostMTC, nil
	default:
		return 0, 0, fmt.Errorf("unknown cluster kind %q", kind)
	}
}

// ClusterUnits converts clusters of kind into loose units.
func (e *Engine) ClusterUnits(clusters int64, kind string) (int64, error) {
	size, _, err := e.clusterSpec(kind)
	if err != nil {
		return 0, err
	}
	return chain.MulSat(clusters, size), nil
}

// ClusteringCost is the bitcoin needed to pack units of kind into clusters.
func (e *Engine) ClusteringCost(units float64, kind string) (float64, error) {
	size, cost, err := e.clusterSpec(kind)
	if err != nil {
		return 0, err
	}
	return units / float64(size) * float64(cost), nil
}

// BagCrafterCost is the med tech cluster price of buying units from the
// crafting service.
func (e *Engine) BagCrafterCost(units int64) int64 {
	return chain.MulSat(units, e.cfg.BagCrafter.MTCPerUnit)
}

func ProgressPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return min(100, current/target*100)
}
