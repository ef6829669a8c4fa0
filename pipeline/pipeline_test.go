package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealradar/config"
	"dealradar/models"
	"dealradar/source"
	"dealradar/storage"
	"dealradar/utils"
)

var clock = time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)

type stubAdapter struct {
	records []*models.RawListing
	err     error
}

func (s *stubAdapter) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	return s.records, s.err
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.OutputDir = filepath.Join(dir, "public")
	cfg.StatePath = filepath.Join(dir, "data", "run_state.json")
	cfg.TopN = 10
	cfg.Scoring.MinBaselineSample = 2
	return cfg
}

func newTestPipeline(t *testing.T, cfg *config.Config, adapter source.Adapter) *Pipeline {
	t.Helper()
	p, err := New(cfg, utils.NewNopLogger())
	require.NoError(t, err)
	p.adapter = adapter
	p.now = func() time.Time { return clock }
	return p
}

func rawRecord(id, addr string, price, sqft, listedDaysAgo int) *models.RawListing {
	return &models.RawListing{
		ListingID:   id,
		Source:      "seed",
		Address:     addr,
		City:        "Vancouver",
		RawPrice:    fmt.Sprintf("%d", price),
		RawArea:     fmt.Sprintf("%d", sqft),
		RawListedAt: clock.AddDate(0, 0, -listedDaysAgo).Format(time.RFC3339),
	}
}

func defaultRecords() []*models.RawListing {
	return []*models.RawListing{
		rawRecord("a", "100 Pine St", 700000, 1000, 3),
		rawRecord("b", "102 Pine St", 800000, 1000, 10),
		rawRecord("c", "104 Pine St", 560000, 1000, 1),
		rawRecord("d", "106 Pine St", 900000, 1000, 20),
	}
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func readAlerts(t *testing.T, dir string) []*models.ScoredListing {
	t.Helper()
	var alerts []*models.ScoredListing
	require.NoError(t, json.Unmarshal([]byte(readFile(t, dir, storage.AlertsFile)), &alerts))
	return alerts
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	first, err := newTestPipeline(t, cfg, &stubAdapter{records: defaultRecords()}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, first.ListingCount)
	assert.Equal(t, 4, first.AlertCount, "first run alerts on everything")
	assert.Equal(t, 4, first.ScoredCount)

	dealsAfterFirst := readFile(t, cfg.OutputDir, storage.DealsFile)

	second, err := newTestPipeline(t, cfg, &stubAdapter{records: defaultRecords()}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.AlertCount, "unchanged inventory must not re-alert")

	assert.Equal(t, dealsAfterFirst, readFile(t, cfg.OutputDir, storage.DealsFile),
		"top_deals.json must be byte-identical across identical runs")
	assert.Empty(t, readAlerts(t, cfg.OutputDir))
}

func TestRunReusedPipelineStaysIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"listings": [
			{"listing_id": "a", "address": "100 Pine St", "price": 700000, "area": 1000, "listed_at": %q},
			{"listing_id": "b", "address": "102 Pine St", "price": 800000, "area": 1000, "listed_at": %q}
		]}`, clock.Format(time.RFC3339), clock.Format(time.RFC3339))
	}))
	defer srv.Close()

	cfg.Mode = "live"
	cfg.Live.BaseURL = srv.URL
	cfg.Live.Cities = []string{"Vancouver"}
	cfg.Live.Delay = 0

	// one pipeline serving every tick, the way the schedule command runs it
	p, err := New(cfg, utils.NewNopLogger())
	require.NoError(t, err)
	p.now = func() time.Time { return clock }

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.ListingCount)
	dealsAfterFirst := readFile(t, cfg.OutputDir, storage.DealsFile)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.ListingCount, "an unchanged feed keeps the full inventory")
	assert.Equal(t, 0, second.AlertCount)
	assert.Equal(t, dealsAfterFirst, readFile(t, cfg.OutputDir, storage.DealsFile))
}

func TestRunAlertDelta(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	runA := []*models.RawListing{
		rawRecord("a", "100 Pine St", 700000, 1000, 3),
		rawRecord("b", "102 Pine St", 800000, 1000, 5),
	}
	_, err := newTestPipeline(t, cfg, &stubAdapter{records: runA}).Run(context.Background())
	require.NoError(t, err)

	runB := []*models.RawListing{
		rawRecord("b", "102 Pine St", 800000, 1000, 5),
		rawRecord("c", "104 Pine St", 600000, 1000, 1),
	}
	summary, err := newTestPipeline(t, cfg, &stubAdapter{records: runB}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertCount)

	alerts := readAlerts(t, cfg.OutputDir)
	require.Len(t, alerts, 1)
	assert.Equal(t, "c", alerts[0].ListingID, "only the listing new to this run alerts")
}

func TestRunToleratesRejectedRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	records := make([]*models.RawListing, 0, 10)
	for i := 0; i < 8; i++ {
		records = append(records, rawRecord(fmt.Sprintf("ok%d", i), fmt.Sprintf("%d Cedar St", 200+i), 650000+i*1000, 950, i))
	}
	records = append(records,
		&models.RawListing{ListingID: "bad1", Address: "300 Cedar St", RawPrice: "-500000"},
		&models.RawListing{ListingID: "bad2", Address: "301 Cedar St", RawPrice: "not for sale"})

	summary, err := newTestPipeline(t, cfg, &stubAdapter{records: records}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, summary.RawCount)
	assert.Equal(t, 2, summary.RejectedCount)
	assert.Equal(t, 8, summary.ListingCount)
}

func TestRunCollapsesDuplicates(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	// a fresher refetch of listing a
	records := append(defaultRecords(), rawRecord("a", "100 Pine St", 690000, 1000, 1))
	summary, err := newTestPipeline(t, cfg, &stubAdapter{records: records}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.DuplicateCount)
	assert.Equal(t, 4, summary.ListingCount)

	var deals []*models.ScoredListing
	require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputDir, storage.DealsFile)), &deals))
	for _, d := range deals {
		if d.ListingID == "a" {
			assert.InDelta(t, 690000.0, d.Price, 0.1, "the latest record should win")
		}
	}
}

func TestRunFailsWithZeroValidListings(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	p := newTestPipeline(t, cfg, &stubAdapter{records: []*models.RawListing{
		{ListingID: "bad", Address: "1 Elm St", RawPrice: "-1"},
	}})
	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrNoValidListings)

	// nothing was published
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, storage.AlertsFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunSourceFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	p := newTestPipeline(t, cfg, &stubAdapter{err: source.ErrUnavailable})
	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, source.ErrUnavailable)
}

func TestRunWriteFailureLeavesEverythingUntouched(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	_, err := newTestPipeline(t, cfg, &stubAdapter{records: defaultRecords()}).Run(context.Background())
	require.NoError(t, err)

	before := map[string]string{}
	for _, name := range []string{storage.AlertsFile, storage.DealsFile, storage.LastRunFile} {
		before[name] = readFile(t, cfg.OutputDir, name)
	}
	stateBefore := readFile(t, filepath.Dir(cfg.StatePath), filepath.Base(cfg.StatePath))

	// block staging of top_deals.json with a directory on its temp path
	blocker := filepath.Join(cfg.OutputDir, storage.DealsFile+".tmp")
	require.NoError(t, os.Mkdir(blocker, 0o755))

	grown := append(defaultRecords(), rawRecord("e", "108 Pine St", 500000, 1000, 0))
	_, err = newTestPipeline(t, cfg, &stubAdapter{records: grown}).Run(context.Background())
	require.Error(t, err)

	for name, content := range before {
		assert.Equal(t, content, readFile(t, cfg.OutputDir, name), "%s changed after a failed run", name)
	}
	assert.Equal(t, stateBefore, readFile(t, filepath.Dir(cfg.StatePath), filepath.Base(cfg.StatePath)),
		"state must not advance on a failed run")

	// once the blockage is gone the new listing still alerts, exactly once
	require.NoError(t, os.Remove(blocker))
	summary, err := newTestPipeline(t, cfg, &stubAdapter{records: grown}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AlertCount)

	alerts := readAlerts(t, cfg.OutputDir)
	require.Len(t, alerts, 1)
	assert.Equal(t, "e", alerts[0].ListingID)
}

func TestRunHonoursTopN(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.TopN = 2

	summary, err := newTestPipeline(t, cfg, &stubAdapter{records: defaultRecords()}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TopCount)
	assert.Equal(t, 4, summary.AlertCount, "alerts come from the full ranking, not the top cut")

	var deals []*models.ScoredListing
	require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputDir, storage.DealsFile)), &deals))
	assert.Len(t, deals, 2)
}

func TestRunUnscorableListingAlertsButNeverRanks(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	noArea := &models.RawListing{
		ListingID:   "e",
		Source:      "seed",
		Address:     "108 Pine St",
		City:        "Vancouver",
		RawPrice:    "450000",
		RawListedAt: clock.Format(time.RFC3339),
	}
	records := append(defaultRecords(), noArea)

	summary, err := newTestPipeline(t, cfg, &stubAdapter{records: records}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.ListingCount)
	assert.Equal(t, 4, summary.ScoredCount, "a listing without an area cannot be scored")
	assert.Equal(t, 4, summary.TopCount)
	assert.Equal(t, 5, summary.AlertCount, "unscorable listings still alert")

	var deals []*models.ScoredListing
	require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputDir, storage.DealsFile)), &deals))
	for _, d := range deals {
		assert.NotEqual(t, "e", d.ListingID, "unscorable listing published as a deal")
	}

	found := false
	for _, a := range readAlerts(t, cfg.OutputDir) {
		if a.ListingID == "e" {
			found = true
		}
	}
	assert.True(t, found, "unscorable listing missing from alerts")
}

func TestRunSummaryFields(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	summary, err := newTestPipeline(t, cfg, &stubAdapter{records: defaultRecords()}).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "demo", summary.Mode)
	assert.True(t, summary.GeneratedAt.Equal(clock))
	assert.Zero(t, summary.DurationMs, "duration is measured on the pipeline clock")
	assert.Equal(t, models.BaselineComputed, summary.Baseline.Source)
	assert.InDelta(t, 750.0, summary.Baseline.PricePerArea, 0.001)

	var fromDisk models.RunSummary
	require.NoError(t, json.Unmarshal([]byte(readFile(t, cfg.OutputDir, storage.LastRunFile)), &fromDisk))
	assert.Equal(t, summary.RunID, fromDisk.RunID)
}
