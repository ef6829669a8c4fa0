package models

import "time"

// RunState is the only memory carried between runs: the ids seen last time,
// used to compute the alert delta. It lives in a small JSON file that is
// replaced atomically after the artifacts commit. A missing file simply
// means a first run.
type RunState struct {
	LastRunAt  time.Time `json:"last_run_at"`
	ListingIDs []string  `json:"listing_ids"`
}

// RunSummary is the content of last_run.json. It describes the latest
// successful run; failed runs never touch it.
type RunSummary struct {
	RunID          string         `json:"run_id"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Mode           string         `json:"mode"`
	RawCount       int            `json:"raw_count"`
	RejectedCount  int            `json:"rejected_count"`
	DuplicateCount int            `json:"duplicate_count"`
	ListingCount   int            `json:"listing_count"`
	ScoredCount    int            `json:"scored_count"`
	AlertCount     int            `json:"alert_count"`
	TopCount       int            `json:"top_count"`
	Baseline       MarketBaseline `json:"baseline"`
	DurationMs     int64          `json:"duration_ms"`
}
