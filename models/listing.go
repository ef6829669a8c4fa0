package models

import "time"

// Source modes. Exactly one is active per run.
const (
	ModeDemo = "demo"
	ModeSeed = "seed"
	ModeLive = "live"
)

// RawListing holds an unprocessed record exactly as a source produced it.
// Numeric fields stay strings so heterogeneous feeds ("$1,234,000" vs
// 1234000) survive decoding; parsing is the normalizer's job.
type RawListing struct {
	ListingID    string `mapstructure:"listing_id"`
	Source       string `mapstructure:"source"`
	URL          string `mapstructure:"url"`
	Title        string `mapstructure:"title"`
	Address      string `mapstructure:"address"`
	City         string `mapstructure:"city"`
	PropertyType string `mapstructure:"property_type"`
	RawPrice     string `mapstructure:"price"`
	RawArea      string `mapstructure:"area"`
	Beds         string `mapstructure:"beds"`
	Baths        string `mapstructure:"baths"`
	Description  string `mapstructure:"description"`
	RawListedAt  string `mapstructure:"listed_at"`
}

// Listing is the canonical, validated record every stage past the normalizer
// works with. Price is always positive; a zero Area, Beds or Baths means the
// source did not provide the value.
type Listing struct {
	ListingID    string    `json:"listing_id"`
	Source       string    `json:"source"`
	URL          string    `json:"url,omitempty"`
	Title        string    `json:"title,omitempty"`
	Address      string    `json:"address"`
	City         string    `json:"city,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	Price        float64   `json:"price"`
	Area         float64   `json:"area"`
	Beds         float64   `json:"beds,omitempty"`
	Baths        float64   `json:"baths,omitempty"`
	Description  string    `json:"description,omitempty"`
	ListedAt     time.Time `json:"listed_at"`
}

// ScoredListing is a Listing with its deal score. Score depends only on the
// listing itself, the baseline and the scoring weights, so re-running over
// the same data always reproduces it. Scored distinguishes a genuine 0.00
// from "could not be scored": unscored listings never appear in the top
// deals but stay alert-eligible.
type ScoredListing struct {
	Listing
	Score        float64  `json:"score"`
	PricePerArea float64  `json:"price_per_area,omitempty"`
	Rank         int      `json:"rank,omitempty"`
	Reasons      []string `json:"reasons,omitempty"`
	Scored       bool     `json:"-"`
}

// Baseline sources.
const (
	BaselineComputed   = "computed"
	BaselineConfigured = "configured"
)

// MarketBaseline is the reference price-per-area listings are scored against.
// A zero PricePerArea means no usable baseline existed this run.
type MarketBaseline struct {
	PricePerArea float64 `json:"price_per_area"`
	SampleSize   int     `json:"sample_size,omitempty"`
	Source       string  `json:"source"`
}
