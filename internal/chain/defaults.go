package chain

// Default returns the built-in ASU chain.
func Default() *Config {
	return &Config{
		BaseResource: "tech_scraps",
		Tiers: []Tier{
			{Name: "old_pouch", Field: "old_pouches", Display: "Old Pouches", Input: "tech_scraps", Ratio: 100, Bitcoin: 500, CraftMinutes: 5},
			{Name: "fanny_pack", Field: "fanny_packs", Display: "Fanny Packs", Input: "old_pouch", Ratio: 10, Bitcoin: 5000, CraftMinutes: 15},
			{Name: "explorer_backpack", Field: "explorer_backpacks", Display: "Explorer's Backpacks", Input: "fanny_pack", Ratio: 15, Bitcoin: 5000, CraftMinutes: 30},
			{Name: "employee_office_case", Field: "employee_office_cases", Display: "Employee Office Cases", Input: "explorer_backpack", Ratio: 20, Bitcoin: 50000, CraftMinutes: 45},
			{Name: "asu", Field: "asus", Display: "ASUs", Input: "employee_office_case", Ratio: 25, Bitcoin: 500000, CraftMinutes: 60},
		},
		Conversions: Conversions{
			TechScrapPerCluster: 1000,
			MedTechPerCluster:   1000,
			ClusterCostTSC:      5000,
			ClusterCostMTC:      5000,
			RecycleRatio:        1.2,
			RecycleMinutes:      266.67,
		},
		Scavenging: Scavenging{
			MaxUnitsPerRun: 12,
			DropChance:     0.7252,
			UnitsPerDrop:   57,
			RunHours:       3,
		},
		BagCrafter: BagCrafter{
			ServiceName: "Bag Crafter Service",
			Tier:        "explorer_backpack",
			MTCPerUnit:  15,
		},
		SynRate:      0.2,
		ProgressTier: "employee_office_case",
	}
}
