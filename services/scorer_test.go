package services

import (
	"testing"

	"dealradar/config"
	"dealradar/models"
)

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		DiscountWeight:       100,
		MaxDiscount:          0.5,
		FreshnessWeight:      10,
		FreshnessHorizonDays: 30,
		KeywordBonus:         2,
		KeywordMaxHits:       3,
		Keywords:             []string{"priced to sell", "must sell", "急售"},
		MinBaselineSample:    3,
	}
}

// ratios 500, 600, 700, 800 per unit of area
func baselineListings() []*models.Listing {
	return []*models.Listing{
		{ListingID: "a", Price: 500000, Area: 1000, ListedAt: testNow},
		{ListingID: "b", Price: 600000, Area: 1000, ListedAt: testNow},
		{ListingID: "c", Price: 700000, Area: 1000, ListedAt: testNow},
		{ListingID: "d", Price: 800000, Area: 1000, ListedAt: testNow},
	}
}

func TestBaselineMedian(t *testing.T) {
	s := NewScorer(testScoringConfig(), newTestLogger())

	b := s.Baseline(baselineListings())
	if b.PricePerArea != 650 {
		t.Errorf("even-count median: got %.2f, want 650", b.PricePerArea)
	}
	if b.SampleSize != 4 || b.Source != models.BaselineComputed {
		t.Errorf("baseline meta: %+v", b)
	}

	odd := append(baselineListings(), &models.Listing{ListingID: "e", Price: 900000, Area: 1000, ListedAt: testNow})
	if b := s.Baseline(odd); b.PricePerArea != 700 {
		t.Errorf("odd-count median: got %.2f, want 700", b.PricePerArea)
	}
}

func TestBaselineConfiguredOverride(t *testing.T) {
	cfg := testScoringConfig()
	cfg.BaselinePricePerArea = 750
	s := NewScorer(cfg, newTestLogger())

	b := s.Baseline(baselineListings())
	if b.PricePerArea != 750 || b.Source != models.BaselineConfigured {
		t.Errorf("override not honoured: %+v", b)
	}
}

func TestBaselineSampleTooSmall(t *testing.T) {
	s := NewScorer(testScoringConfig(), newTestLogger())

	b := s.Baseline(baselineListings()[:2])
	if b.PricePerArea != 0 {
		t.Errorf("baseline from 2 samples should be zero, got %.2f", b.PricePerArea)
	}
	if b.SampleSize != 2 {
		t.Errorf("sample size: got %d, want 2", b.SampleSize)
	}
}

func TestScoreDiscountAndBounds(t *testing.T) {
	s := NewScorer(testScoringConfig(), newTestLogger())
	baseline := models.MarketBaseline{PricePerArea: 1000, Source: models.BaselineConfigured}
	stale := testNow.AddDate(0, 0, -60) // outside the freshness horizon

	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"20% below baseline", 800000, 20},
		{"at baseline", 1000000, 0},
		{"20% above baseline", 1200000, -20},
		{"deep discount clipped", 100000, 50},
		{"overpriced clipped", 5000000, -50},
	}

	for _, tt := range tests {
		l := &models.Listing{ListingID: "x", Price: tt.price, Area: 1000, ListedAt: stale}
		scored, n := s.ScoreAll([]*models.Listing{l}, baseline, testNow)
		if n != 1 {
			t.Fatalf("%s: scored %d listings, want 1", tt.name, n)
		}
		if scored[0].Score != tt.want {
			t.Errorf("%s: score %.2f, want %.2f", tt.name, scored[0].Score, tt.want)
		}
		if !scored[0].Scored {
			t.Errorf("%s: listing not marked as scored", tt.name)
		}
	}
}

func TestScoreFreshness(t *testing.T) {
	s := NewScorer(testScoringConfig(), newTestLogger())
	baseline := models.MarketBaseline{PricePerArea: 1000, Source: models.BaselineConfigured}

	today := &models.Listing{ListingID: "x", Price: 1000000, Area: 1000, ListedAt: testNow}
	scored, _ := s.ScoreAll([]*models.Listing{today}, baseline, testNow)
	if scored[0].Score != 10 {
		t.Errorf("brand-new listing: score %.2f, want 10 (full freshness)", scored[0].Score)
	}

	half := &models.Listing{ListingID: "y", Price: 1000000, Area: 1000, ListedAt: testNow.AddDate(0, 0, -15)}
	scored, _ = s.ScoreAll([]*models.Listing{half}, baseline, testNow)
	if scored[0].Score != 5 {
		t.Errorf("15-day-old listing: score %.2f, want 5 (half freshness)", scored[0].Score)
	}
}

func TestScoreKeywords(t *testing.T) {
	s := NewScorer(testScoringConfig(), newTestLogger())
	baseline := models.MarketBaseline{PricePerArea: 1000, Source: models.BaselineConfigured}
	stale := testNow.AddDate(0, 0, -60)

	l := &models.Listing{
		ListingID: "x", Price: 1000000, Area: 1000, ListedAt: stale,
		Description: "Priced to sell, owner must sell. 急售",
	}
	scored, _ := s.ScoreAll([]*models.Listing{l}, baseline, testNow)
	if scored[0].Score != 6 {
		t.Errorf("three keyword hits: score %.2f, want 6", scored[0].Score)
	}

	found := false
	for _, r := range scored[0].Reasons {
		if r == "motivated-seller wording" {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons missing the keyword note: %v", scored[0].Reasons)
	}
}

func TestScoreSkipsUnknownArea(t *testing.T) {
	s := NewScorer(testScoringConfig(), newTestLogger())
	baseline := models.MarketBaseline{PricePerArea: 1000, Source: models.BaselineConfigured}

	l := &models.Listing{ListingID: "x", Price: 500000, ListedAt: testNow}
	scored, n := s.ScoreAll([]*models.Listing{l}, baseline, testNow)
	if n != 0 {
		t.Errorf("scored %d listings without an area, want 0", n)
	}
	if len(scored) != 1 || scored[0].Score != 0 {
		t.Error("unscored listing should still pass through with a zero score")
	}
	if scored[0].Scored {
		t.Error("listing without an area should not be marked as scored")
	}
}

func TestScoreSkippedWhenBaselineUnusable(t *testing.T) {
	s := NewScorer(testScoringConfig(), newTestLogger())
	baseline := models.MarketBaseline{Source: models.BaselineComputed}

	scored, n := s.ScoreAll(baselineListings(), baseline, testNow)
	if n != 0 {
		t.Errorf("scored %d listings against a zero baseline, want 0", n)
	}
	if len(scored) != 4 {
		t.Errorf("passed through %d listings, want 4", len(scored))
	}
}
