package engine

import (
	"time"

	"github.com/cmenning/asu-calculator/internal/chain"
	"github.com/cmenning/asu-calculator/internal/inventory"
)

// Results is everything the report shows for one inventory.
type Results struct {
	Target       int64              `json:"target"`
	Requirements chain.Requirements `json:"total_requirements"`
	Rate         *Rate              `json:"collection_rate"`

	ProgressTier   string  `json:"progress_tier"`
	Progress       float64 `json:"progress"`
	ProgressNeeded int64   `json:"progress_needed"`

	Gathering  Gathering      `json:"remaining_gathering"`
	Bags       Remaining      `json:"remaining_bags"`
	Crafting   CraftingTotals `json:"crafting_totals"`
	BagCrafter BagCrafterPlan `json:"bag_crafter_service"`
	Completion *Completion    `json:"completion_estimate"`
}

type Gathering struct {
	BaseUnits int64     `json:"base_units"`
	MTCNeeded float64   `json:"mtc_needed"`
	ScavTime  *ScavTime `json:"scav_time"`
}

type CraftingTotals struct {
	Hours    float64 `json:"time_hours"`
	Days     float64 `json:"time_days"`
	SynHours float64 `json:"time_hours_syn"`
	SynDays  float64 `json:"time_days_syn"`
	Bitcoin  int64   `json:"btc"`
}

type BagCrafterPlan struct {
	Service           string       `json:"service"`
	Tier              string       `json:"tier"`
	StillNeeded       int64        `json:"still_needed"`
	FromBase          int64        `json:"from_base"`
	CanCraft          int64        `json:"can_craft"`
	ToBuy             int64        `json:"to_buy"`
	MTCCost           int64        `json:"mtc_cost"`
	BitcoinClustering int64        `json:"btc_for_clustering"`
	ScavTime          *ScavTime    `json:"scav_time"`
	AfterBuying       *AfterBuying `json:"after_buying"`
}

// AfterBuying covers the tiers above the purchased one.
type AfterBuying struct {
	Bitcoin       int64   `json:"btc_needed"`
	CraftHours    float64 `json:"crafting_time_hours"`
	CraftSynHours float64 `json:"crafting_time_hours_syn"`
}

// Summarize computes the full projection for inv against target final units.
func (e *Engine) Summarize(inv *inventory.Inventory, target int64, now time.Time) Results {
	cfg := e.cfg
	res := Results{
		Target:       target,
		Requirements: cfg.Totals(target),
		ProgressTier: cfg.ProgressTier,
	}

	if rate, ok := e.CollectionRate(inv, now); ok {
		res.Rate = &rate
	}

	res.Progress, _ = e.EquivalentUnits(inv, cfg.ProgressTier)
	res.ProgressNeeded = res.Requirements.Count(cfg.ProgressTier)

	// Gathering: what is still missing in base units, and how much med tech
	// would have to be scavenged on top of what is held to recycle it.
	remainingBase := max(0, res.Requirements.BaseUnits-e.EquivalentBaseUnits(inv))
	medNeeded := float64(remainingBase) / cfg.Conversions.RecycleRatio
	mtcNeeded := max(0, medNeeded-e.medTechTotal(inv)) / float64(cfg.Conversions.MedTechPerCluster)
	res.Gathering = Gathering{BaseUnits: remainingBase, MTCNeeded: mtcNeeded}
	if mtcNeeded > 0 {
		st := e.ScavTime(mtcNeeded * float64(cfg.Conversions.MedTechPerCluster))
		res.Gathering.ScavTime = &st
	}

	res.Bags = e.RemainingTierCounts(inv, target)
	var minutes int64
	for i, t := range cfg.Tiers {
		n := res.Bags.Tiers[i].Count
		minutes = chain.AddSat(minutes, chain.MulSat(n, t.CraftMinutes))
		res.Crafting.Bitcoin = chain.AddSat(res.Crafting.Bitcoin, chain.MulSat(n, t.Bitcoin))
	}
	res.Crafting.Hours = float64(minutes) / minutesPerHour
	res.Crafting.Days = res.Crafting.Hours / hoursPerDay
	res.Crafting.SynHours = res.Crafting.Hours * cfg.SynRate
	res.Crafting.SynDays = res.Crafting.SynHours / hoursPerDay

	res.BagCrafter = e.bagCrafterPlan(inv, res.Bags)

	if res.Rate != nil {
		if c, ok := e.CompletionEstimate(float64(remainingBase), res.Rate.DailyRate, now); ok {
			res.Completion = &c
		}
	}
	return res
}

func (e *Engine) bagCrafterPlan(inv *inventory.Inventory, bags Remaining) BagCrafterPlan {
	cfg := e.cfg
	k, _ := cfg.Index(cfg.BagCrafter.Tier)
	tier := cfg.Tiers[k]

	craftable := e.CraftableFromStock(inv)
	plan := BagCrafterPlan{
		Service:     cfg.BagCrafter.ServiceName,
		Tier:        tier.Name,
		StillNeeded: bags.Tiers[k].Count,
		FromBase:    craftable.FromBase,
		CanCraft:    craftable.Tiers[k].Craftable,
	}
	plan.ToBuy = max(0, plan.StillNeeded-plan.CanCraft)
	plan.MTCCost = e.BagCrafterCost(plan.ToBuy)
	plan.BitcoinClustering = chain.MulSat(plan.MTCCost, cfg.Conversions.ClusterCostMTC)

	if plan.MTCCost > 0 {
		st := e.ScavTime(float64(plan.MTCCost) * float64(cfg.Conversions.MedTechPerCluster))
		plan.ScavTime = &st
	}

	if plan.ToBuy > 0 {
		var btc, minutes int64
		for i := k + 1; i < len(cfg.Tiers); i++ {
			n := bags.Tiers[i].Count
			btc = chain.AddSat(btc, chain.MulSat(n, cfg.Tiers[i].Bitcoin))
			minutes = chain.AddSat(minutes, chain.MulSat(n, cfg.Tiers[i].CraftMinutes))
		}
		hours := float64(minutes) / minutesPerHour
		plan.AfterBuying = &AfterBuying{
			Bitcoin:       btc - inv.Get(inventory.Bitcoin) + plan.BitcoinClustering,
			CraftHours:    hours,
			CraftSynHours: hours * cfg.SynRate,
		}
	}
	return plan
}
