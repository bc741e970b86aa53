// Package report renders engine results for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cmenning/asu-calculator/internal/chain"
	"github.com/cmenning/asu-calculator/internal/engine"
	"github.com/cmenning/asu-calculator/internal/inventory"
)

const rule = "============================================================"

// FormatDuration renders minutes as minutes, hours or days depending on size.
func FormatDuration(minutes float64) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%.0f minutes", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%.1f hours", minutes/60)
	default:
		return fmt.Sprintf("%.1f days", minutes/1440)
	}
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res engine.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Text writes the human-readable report. now anchors the relative ETA.
func Text(w io.Writer, cfg *chain.Config, res engine.Results, now time.Time) error {
	r := &textReport{
		w:     w,
		p:     message.NewPrinter(language.English),
		cfg:   cfg,
		label: labels(cfg),
	}
	r.render(res, now)
	return r.err
}

type textReport struct {
	w     io.Writer
	p     *message.Printer
	cfg   *chain.Config
	label map[string]string
	err   error
}

func labels(cfg *chain.Config) map[string]string {
	out := map[string]string{}
	for _, f := range inventory.Fields(cfg) {
		out[f.Key] = f.Label
	}
	for _, t := range cfg.Tiers {
		out[t.Name] = out[t.Field]
	}
	return out
}

func (r *textReport) line(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = r.p.Fprintf(r.w, format+"\n", args...)
}

func (r *textReport) scav(indent string, st *engine.ScavTime) {
	r.line("%sScav Time (without syn): %.1f hours (%.1f days)", indent, st.Hours, st.Days)
	r.line("%sScav Time (with syn): %.1f hours (%.1f days)", indent, st.SynHours, st.SynDays)
}

func (r *textReport) render(res engine.Results, now time.Time) {
	base := r.label[r.cfg.BaseResource]
	final := r.cfg.Final()

	r.line("\n%s", rule)
	r.line("%s CALCULATOR RESULTS", strings.ToUpper(final.Name))
	r.line("%s", rule)

	r.line("\nTOTAL REQUIREMENTS:")
	r.line("   %s: %d", base, res.Requirements.BaseUnits)
	r.line("   Bitcoin: %d", res.Requirements.Bitcoin)
	r.line("   %s: %d", r.label[r.cfg.ProgressTier], res.ProgressNeeded)
	if res.Target != 1 {
		r.line("   %s: %d", final.Display, res.Target)
	}

	if rate := res.Rate; rate != nil {
		r.line("\nYOUR COLLECTION RATE:")
		r.line("   Days elapsed: %.1f", rate.DaysElapsed)
		r.line("   %s collected (equivalent): %d", base, rate.BaseCollected)
		r.line("   Average per day: %.0f %s/day", rate.DailyRate, strings.ToLower(base))
		r.line("   Estimated scav runs per day: %.1f", rate.ScavRunsPerDay)
	}

	r.line("\nBAG CRAFTING PROGRESS:")
	r.line("   %s: %.1f / %d", r.label[r.cfg.ProgressTier], res.Progress, res.ProgressNeeded)
	r.line("   Progress: %.1f%% complete", engine.ProgressPercent(res.Progress, float64(res.ProgressNeeded)))

	r.line("\nREMAINING GATHERING REQUIREMENTS:")
	r.line("   %s (equivalent): %d", base, res.Gathering.BaseUnits)
	r.line("   Med Tech Clusters (MTC): %.1f", res.Gathering.MTCNeeded)
	if res.Gathering.ScavTime != nil {
		r.scav("   ", res.Gathering.ScavTime)
	}

	r.line("\nREMAINING BAGS TO CRAFT:")
	for _, tc := range res.Bags.Tiers {
		r.line("   %s: %d", r.label[tc.Tier], tc.Count)
	}
	r.line("   ---")
	r.line("   Total crafting time (without syn): %.1f hours (%.1f days)", res.Crafting.Hours, res.Crafting.Days)
	r.line("   Total crafting time (with syn): %.1f hours (%.1f days)", res.Crafting.SynHours, res.Crafting.SynDays)
	r.line("   Total crafting BTC: %d", res.Crafting.Bitcoin)

	bc := res.BagCrafter
	bags := r.label[bc.Tier]
	r.line("\n%s:", strings.ToUpper(bc.Service))
	r.line("   %s still needed: %d", bags, bc.StillNeeded)
	r.line("   %s you can craft from %s: %d", r.label[r.cfg.Tiers[0].Name], strings.ToLower(base), bc.FromBase)
	r.line("   %s you can craft: %d", bags, bc.CanCraft)
	r.line("   %s to buy: %d", bags, bc.ToBuy)
	r.line("   MTC cost for purchase: %d MTC (%d BTC for clustering)", bc.MTCCost, bc.BitcoinClustering)
	if bc.ScavTime != nil {
		r.scav("     ", bc.ScavTime)
	}
	if ab := bc.AfterBuying; ab != nil {
		r.line("   After buying %s:", bags)
		r.line("     Total BTC needed: %d BTC", ab.Bitcoin)
		r.line("     Crafting time (without syn): %s", FormatDuration(ab.CraftHours*60))
		r.line("     Crafting time (with syn): %s", FormatDuration(ab.CraftSynHours*60))
	} else {
		r.line("   No %s need to be purchased - you can craft all needed %s", bags, bags)
	}

	if c := res.Completion; c != nil {
		r.line("\nCOMPLETION ESTIMATE:")
		r.line("   Days to completion: %.1f", c.Days)
		r.line("   Estimated completion: %s (%s)", c.ETA.Format("2006-01-02 15:04"), humanize.RelTime(c.ETA, now, "ago", "from now"))
	}
}
