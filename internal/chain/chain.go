package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

var ErrUnknownTier = errors.New("unknown tier")

// Config is the static crafting chain plus conversion constants. It is built
// once at startup and never mutated afterwards.
type Config struct {
	BaseResource string `yaml:"base_resource" json:"base_resource"`

	// Tiers are ordered from the one crafted directly out of the base resource
	// up to the final item.
	Tiers []Tier `yaml:"tiers" json:"tiers"`

	Conversions Conversions `yaml:"conversions" json:"conversions"`
	Scavenging  Scavenging  `yaml:"scavenging" json:"scavenging"`
	BagCrafter  BagCrafter  `yaml:"bag_crafter" json:"bag_crafter"`

	SynRate      float64 `yaml:"syn_rate" json:"syn_rate"`
	ProgressTier string  `yaml:"progress_tier" json:"progress_tier"`
}

type Tier struct {
	Name         string `yaml:"name" json:"name"`
	Field        string `yaml:"field" json:"field"`
	Display      string `yaml:"display" json:"display"`
	Input        string `yaml:"input" json:"input"`
	Ratio        int64  `yaml:"ratio" json:"ratio"`
	Bitcoin      int64  `yaml:"bitcoin" json:"bitcoin"`
	CraftMinutes int64  `yaml:"craft_minutes" json:"craft_minutes"`
}

type Conversions struct {
	TechScrapPerCluster int64   `yaml:"tech_scrap_per_cluster" json:"tech_scrap_per_cluster"`
	MedTechPerCluster   int64   `yaml:"med_tech_per_cluster" json:"med_tech_per_cluster"`
	ClusterCostTSC      int64   `yaml:"cluster_cost_tsc" json:"cluster_cost_tsc"`
	ClusterCostMTC      int64   `yaml:"cluster_cost_mtc" json:"cluster_cost_mtc"`
	RecycleRatio        float64 `yaml:"recycle_ratio" json:"recycle_ratio"`
	RecycleMinutes      float64 `yaml:"recycle_minutes" json:"recycle_minutes"` // per med tech cluster
}

type Scavenging struct {
	MaxUnitsPerRun int64   `yaml:"max_units_per_run" json:"max_units_per_run"`
	DropChance     float64 `yaml:"drop_chance" json:"drop_chance"`
	UnitsPerDrop   int64   `yaml:"units_per_drop" json:"units_per_drop"`
	RunHours       float64 `yaml:"run_hours" json:"run_hours"`
}

// ExpectedPerRun is the expected med tech yield of one scavenging run.
func (s Scavenging) ExpectedPerRun() float64 {
	return float64(s.MaxUnitsPerRun) * s.DropChance * float64(s.UnitsPerDrop)
}

type BagCrafter struct {
	ServiceName string `yaml:"service_name" json:"service_name"`
	Tier        string `yaml:"tier" json:"tier"`
	MTCPerUnit  int64  `yaml:"mtc_per_unit" json:"mtc_per_unit"`
}

// Requirements is the forward cost fold for a number of final units.
type Requirements struct {
	Final        int64       `json:"final"`
	Tiers        []TierCount `json:"tiers"`
	BaseUnits    int64       `json:"base_units"`
	Bitcoin      int64       `json:"bitcoin"`
	CraftMinutes int64       `json:"craft_minutes"`
}

type TierCount struct {
	Tier  string `json:"tier"`
	Field string `json:"field"`
	Count int64  `json:"count"`
}

// Count returns the count recorded for tier, or 0.
func (r Requirements) Count(tier string) int64 {
	return countOf(r.Tiers, tier)
}

func countOf(tcs []TierCount, tier string) int64 {
	for _, tc := range tcs {
		if tc.Tier == tier {
			return tc.Count
		}
	}
	return 0
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("chain.yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("chain.yaml: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.BaseResource == "" {
		return fmt.Errorf("empty base_resource")
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("no tiers")
	}
	names := map[string]bool{}
	fields := map[string]bool{}
	for i, t := range c.Tiers {
		if t.Name == "" || t.Field == "" {
			return fmt.Errorf("tier %d: empty name or field", i)
		}
		if names[t.Name] {
			return fmt.Errorf("tier %s: duplicate name", t.Name)
		}
		if fields[t.Field] {
			return fmt.Errorf("tier %s: duplicate field %s", t.Name, t.Field)
		}
		names[t.Name] = true
		fields[t.Field] = true

		want := c.BaseResource
		if i > 0 {
			want = c.Tiers[i-1].Name
		}
		if t.Input != want {
			return fmt.Errorf("tier %s: input %q, want %q", t.Name, t.Input, want)
		}
		if t.Ratio <= 0 {
			return fmt.Errorf("tier %s: ratio must be positive", t.Name)
		}
		if t.Bitcoin < 0 || t.CraftMinutes < 0 {
			return fmt.Errorf("tier %s: negative cost", t.Name)
		}
	}

	cv := c.Conversions
	if cv.TechScrapPerCluster <= 0 || cv.MedTechPerCluster <= 0 {
		return fmt.Errorf("conversions: cluster sizes must be positive")
	}
	if cv.RecycleRatio <= 0 {
		return fmt.Errorf("conversions: recycle_ratio must be positive")
	}
	if cv.ClusterCostTSC < 0 || cv.ClusterCostMTC < 0 || cv.RecycleMinutes < 0 {
		return fmt.Errorf("conversions: negative cost")
	}

	s := c.Scavenging
	if s.MaxUnitsPerRun <= 0 || s.DropChance <= 0 || s.DropChance > 1 || s.UnitsPerDrop <= 0 || s.RunHours <= 0 {
		return fmt.Errorf("scavenging: yield parameters must be positive (drop_chance <= 1)")
	}
	if c.SynRate <= 0 {
		return fmt.Errorf("syn_rate must be positive")
	}
	if !names[c.BagCrafter.Tier] {
		return fmt.Errorf("bag_crafter: %w", c.unknown(c.BagCrafter.Tier))
	}
	if c.BagCrafter.MTCPerUnit < 0 {
		return fmt.Errorf("bag_crafter: negative mtc_per_unit")
	}
	if !names[c.ProgressTier] {
		return fmt.Errorf("progress_tier: %w", c.unknown(c.ProgressTier))
	}
	return nil
}

// Final is the last tier of the chain.
func (c *Config) Final() Tier { return c.Tiers[len(c.Tiers)-1] }

func (c *Config) Index(name string) (int, error) {
	for i, t := range c.Tiers {
		if t.Name == name {
			return i, nil
		}
	}
	return -1, c.unknown(name)
}

func (c *Config) Tier(name string) (Tier, error) {
	i, err := c.Index(name)
	if err != nil {
		return Tier{}, err
	}
	return c.Tiers[i], nil
}

func (c *Config) unknown(name string) error {
	best, bestDist := "", -1
	for _, t := range c.Tiers {
		d := levenshtein.ComputeDistance(name, t.Name)
		if bestDist < 0 || d < bestDist {
			best, bestDist = t.Name, d
		}
	}
	if best != "" && bestDist <= len(best)/2 {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownTier, name, best)
	}
	return fmt.Errorf("%w %q", ErrUnknownTier, name)
}

// BaseUnitsPer returns how many base units one unit of tier i is made of.
func (c *Config) BaseUnitsPer(i int) int64 {
	n := int64(1)
	for j := 0; j <= i; j++ {
		n *= c.Tiers[j].Ratio
	}
	return n
}

// UnitsPerFinal returns how many units of tier i go into one final unit.
func (c *Config) UnitsPerFinal(i int) int64 {
	return c.RatioBetween(i, len(c.Tiers)-1)
}

// RatioBetween returns how many units of tier from go into one unit of tier
// to. It is 1 when from >= to.
func (c *Config) RatioBetween(from, to int) int64 {
	n := int64(1)
	for j := from + 1; j <= to; j++ {
		n *= c.Tiers[j].Ratio
	}
	return n
}

// Totals folds the chain forward for count final units.
func (c *Config) Totals(count int64) Requirements {
	r := Requirements{Final: count, Tiers: make([]TierCount, len(c.Tiers))}
	for i, t := range c.Tiers {
		units := MulSat(c.UnitsPerFinal(i), count)
		r.Tiers[i] = TierCount{Tier: t.Name, Field: t.Field, Count: units}
		r.Bitcoin = AddSat(r.Bitcoin, MulSat(units, t.Bitcoin))
		r.CraftMinutes = AddSat(r.CraftMinutes, MulSat(units, t.CraftMinutes))
	}
	if len(c.Tiers) > 0 {
		r.BaseUnits = MulSat(r.Tiers[0].Count, c.Tiers[0].Ratio)
	}
	return r
}

// Digest identifies the table a history entry was computed with.
func (c *Config) Digest() string {
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
