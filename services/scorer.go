package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"dealradar/config"
	"dealradar/models"
	"dealradar/utils"
)

// Scorer rates listings against the market baseline. A score is a pure
// function of the listing, the baseline, the weights and the run's
// reference time; it never depends on what previous runs saw.
type Scorer struct {
	cfg    config.ScoringConfig
	logger *utils.Logger
}

// NewScorer creates a Scorer with the given weights.
func NewScorer(cfg config.ScoringConfig, logger *utils.Logger) *Scorer {
	return &Scorer{cfg: cfg, logger: logger}
}

// Baseline returns the reference price-per-area: the configured override
// when set, otherwise the median over listings with a known area. Too small
// a sample yields a zero baseline, and scoring is skipped for the run.
func (s *Scorer) Baseline(listings []*models.Listing) models.MarketBaseline {
	if s.cfg.BaselinePricePerArea > 0 {
		return models.MarketBaseline{
			PricePerArea: s.cfg.BaselinePricePerArea,
			Source:       models.BaselineConfigured,
		}
	}

	var ratios []float64
	for _, l := range listings {
		if l.Area > 0 {
			ratios = append(ratios, l.Price/l.Area)
		}
	}
	if len(ratios) < s.cfg.MinBaselineSample {
		s.logger.Warn("[scorer] Only %d listings with a known area (need %d) — skipping scoring this run",
			len(ratios), s.cfg.MinBaselineSample)
		return models.MarketBaseline{Source: models.BaselineComputed, SampleSize: len(ratios)}
	}

	sort.Float64s(ratios)
	mid := len(ratios) / 2
	median := ratios[mid]
	if len(ratios)%2 == 0 {
		median = (ratios[mid-1] + ratios[mid]) / 2
	}

	return models.MarketBaseline{
		PricePerArea: round2(median),
		SampleSize:   len(ratios),
		Source:       models.BaselineComputed,
	}
}

// ScoreAll wraps every listing in a ScoredListing and scores the ones that
// can be scored. Listings without an area, or runs without a usable
// baseline, pass through unscored but stay alert-eligible. The second
// return value is how many listings actually received a score.
func (s *Scorer) ScoreAll(listings []*models.Listing, baseline models.MarketBaseline, now time.Time) ([]*models.ScoredListing, int) {
	scored := make([]*models.ScoredListing, 0, len(listings))
	n := 0
	for _, l := range listings {
		sl := &models.ScoredListing{Listing: *l}
		if baseline.PricePerArea > 0 && l.Area > 0 {
			s.score(sl, baseline, now)
			sl.Scored = true
			n++
		}
		scored = append(scored, sl)
	}

	s.logger.Info("[scorer] Scored %d of %d listings (baseline %.2f, %s)",
		n, len(listings), baseline.PricePerArea, baseline.Source)
	return scored, n
}

// score fills Score, PricePerArea and Reasons on one listing.
func (s *Scorer) score(sl *models.ScoredListing, baseline models.MarketBaseline, now time.Time) {
	ppa := sl.Price / sl.Area
	sl.PricePerArea = round2(ppa)

	discount := 1 - ppa/baseline.PricePerArea
	total := clamp(discount, -s.cfg.MaxDiscount, s.cfg.MaxDiscount) * s.cfg.DiscountWeight
	if discount >= 0.03 {
		sl.Reasons = append(sl.Reasons, fmt.Sprintf("%.0f%% below market price per area", discount*100))
	}

	ageDays := now.Sub(sl.ListedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	if horizon := float64(s.cfg.FreshnessHorizonDays); ageDays < horizon {
		total += (1 - ageDays/horizon) * s.cfg.FreshnessWeight
		if ageDays <= 7 {
			sl.Reasons = append(sl.Reasons, fmt.Sprintf("listed %d days ago", int(ageDays)))
		}
	}

	if hits := s.keywordHits(sl.Description); hits > 0 {
		if hits > s.cfg.KeywordMaxHits {
			hits = s.cfg.KeywordMaxHits
		}
		total += float64(hits) * s.cfg.KeywordBonus
		sl.Reasons = append(sl.Reasons, "motivated-seller wording")
	}

	sl.Score = round2(total)
}

// keywordHits counts configured phrases appearing in the description.
func (s *Scorer) keywordHits(desc string) int {
	if desc == "" {
		return 0
	}
	lowered := strings.ToLower(desc)
	hits := 0
	for _, kw := range s.cfg.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			hits++
		}
	}
	return hits
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
