package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"dealradar/config"
	"dealradar/models"
	"dealradar/services"
	"dealradar/source"
	"dealradar/storage"
	"dealradar/utils"
)

// ErrNoValidListings means every raw record was rejected. The run fails
// rather than publish empty artifacts over good ones.
var ErrNoValidListings = errors.New("no valid listings after normalization")

// Pipeline wires the stages of one run together: fetch, normalize, dedupe,
// score, rank, publish. A run either commits all three artifacts plus the
// state file, or changes nothing on disk.
type Pipeline struct {
	cfg     *config.Config
	logger  *utils.Logger
	adapter source.Adapter
	writer  storage.ArtifactWriter
	state   storage.StateStore

	normalizer *services.Normalizer
	deduper    *services.Deduper
	scorer     *services.Scorer
	ranker     *services.Ranker

	now func() time.Time
}

// New builds a Pipeline for the configured mode.
func New(cfg *config.Config, logger *utils.Logger) (*Pipeline, error) {
	adapter, err := source.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	writer, err := storage.NewJSONWriter(cfg.OutputDir, logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		adapter:    adapter,
		writer:     writer,
		state:      storage.NewFileStateStore(cfg.StatePath, logger),
		normalizer: services.NewNormalizer(logger),
		deduper:    services.NewDeduper(logger),
		scorer:     services.NewScorer(cfg.Scoring, logger),
		ranker:     services.NewRanker(logger),
		now:        time.Now,
	}, nil
}

// Run executes one full cycle and returns the summary that was written to
// last_run.json. On any error the previous artifacts and state survive
// untouched.
func (p *Pipeline) Run(ctx context.Context) (*models.RunSummary, error) {
	started := p.now()
	now := started.UTC().Truncate(time.Second)

	p.logger.Info("[pipeline] Run starting — mode: %s", p.cfg.Mode)

	prev, err := p.state.Load()
	if err != nil {
		return nil, err
	}

	raw, err := p.adapter.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	p.logger.Info("[pipeline] Fetched %d raw records", len(raw))

	listings, rejections := p.normalizer.NormalizeAll(raw, now)
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: %d raw records, all rejected", ErrNoValidListings, len(raw))
	}

	deduped, duplicates := p.deduper.Dedupe(listings)

	baseline := p.scorer.Baseline(deduped)
	scored, scoredCount := p.scorer.ScoreAll(deduped, baseline, now)

	ranked := p.ranker.Rank(scored)
	top := p.ranker.TopN(ranked, p.cfg.TopN)
	alerts := p.ranker.NewSince(ranked, prev.ListingIDs)

	summary := &models.RunSummary{
		RunID:          uuid.NewString(),
		GeneratedAt:    now,
		Mode:           p.cfg.Mode,
		RawCount:       len(raw),
		RejectedCount:  len(rejections),
		DuplicateCount: duplicates,
		ListingCount:   len(deduped),
		ScoredCount:    scoredCount,
		AlertCount:     len(alerts),
		TopCount:       len(top),
		Baseline:       baseline,
		DurationMs:     p.now().Sub(started).Milliseconds(),
	}

	if err := p.writer.WriteArtifacts(alerts, top, summary); err != nil {
		return nil, err
	}

	// State moves forward only after the artifacts are all committed; a
	// crash in between re-alerts rather than loses alerts.
	if err := p.state.Save(&models.RunState{
		LastRunAt:  now,
		ListingIDs: listingIDs(deduped),
	}); err != nil {
		return nil, err
	}

	p.logger.Info("[pipeline] Run complete — %d listings, %d alerts, %d top deals in %dms",
		summary.ListingCount, summary.AlertCount, summary.TopCount, summary.DurationMs)
	return summary, nil
}

// listingIDs collects the sorted id set persisted for the next run's delta.
func listingIDs(listings []*models.Listing) []string {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ListingID)
	}
	sort.Strings(ids)
	return ids
}
