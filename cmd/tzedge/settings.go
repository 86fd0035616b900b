package main

import (
	"time"

	"tzedge/internal/core/tzrule"
	"tzedge/internal/platform/config"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// settings are the env-backed defaults for flags (TZEDGE_*)
type settings struct {
	Zone     string
	Format   string
	ScanStep time.Duration
}

func loadSettings() settings {
	cfg := config.New().Prefix("TZEDGE_")
	return settings{
		Zone:     cfg.MayString("ZONE", tzrule.NewYorkZone),
		Format:   cfg.MayEnum("FORMAT", formatText, formatText, formatJSON),
		ScanStep: cfg.MayDuration("SCAN_STEP", 6*time.Hour),
	}
}
