package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"dealradar/config"
	"dealradar/models"
	"dealradar/utils"
)

const liveUserAgent = "dealradar/0.1"

// feedPayload is the wrapped feed shape. Bare arrays are also accepted.
type feedPayload struct {
	Listings []map[string]any `json:"listings"`
}

// LiveAdapter pulls raw records from an external JSON feed, one request per
// configured city, with retry, bounded concurrency and a politeness delay.
// The feed is expected to return canonical record objects; this client does
// no scraping of its own.
type LiveAdapter struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
	pool   *utils.WorkerPool
	retry  *utils.RetryConfig
}

// NewLiveAdapter creates a LiveAdapter from the live.* configuration.
func NewLiveAdapter(cfg *config.Config, logger *utils.Logger) *LiveAdapter {
	return &LiveAdapter{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.Live.Timeout},
		pool:   utils.NewWorkerPool(cfg.Live.Concurrency, cfg.Live.Delay),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.Live.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Fetch requests the feed for every configured city and merges the results.
// Individual city failures are tolerated; every request failing, or a feed
// that yields nothing, is ErrUnavailable.
func (a *LiveAdapter) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	cities := a.cfg.Live.Cities
	if len(cities) == 0 {
		cities = []string{""}
	}

	var (
		mu       sync.Mutex
		listings []*models.RawListing
		failures int
	)

	// The id set lives for one fetch only; a reused adapter sees the full
	// feed again on the next run.
	seen := utils.NewIDSet()

	for _, city := range cities {
		city := city
		a.pool.Submit(func() {
			recs, err := a.fetchCity(ctx, city, seen)
			if err != nil {
				a.logger.Error("[live] Feed request for %q failed: %v", city, err)
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}
			mu.Lock()
			listings = append(listings, recs...)
			mu.Unlock()
		})
	}
	a.pool.Wait()

	if failures == len(cities) {
		return nil, fmt.Errorf("%w: all %d feed requests failed", ErrUnavailable, len(cities))
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: feed returned no records", ErrUnavailable)
	}

	a.logger.Info("[live] Fetched %d records from %d of %d cities",
		len(listings), len(cities)-failures, len(cities))
	return listings, nil
}

func (a *LiveAdapter) fetchCity(ctx context.Context, city string, seen *utils.IDSet) ([]*models.RawListing, error) {
	feedURL, err := a.feedURL(city)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = a.retry.Do(ctx, "live-feed "+city, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", liveUserAgent)

		resp, err := a.client.Do(req)
		if err != nil {
			return fmt.Errorf("get %s: %w", feedURL, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("get %s: status %d", feedURL, resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records, err := decodeFeed(body)
	if err != nil {
		return nil, fmt.Errorf("feed for %q: %w", city, err)
	}

	out := make([]*models.RawListing, 0, len(records))
	for i, rec := range records {
		raw, err := decodeRecord(rec)
		if err != nil {
			a.logger.Warn("[live] Skipping record %d for %q: %v", i, city, err)
			continue
		}
		if raw.Source == "" {
			raw.Source = models.ModeLive
		}
		if raw.City == "" {
			raw.City = city
		}
		// City feeds overlap occasionally; drop repeats of an explicit id
		// here so the merge stays cheap. Content-level duplicates are the
		// deduplicator's job.
		if raw.ListingID != "" && !seen.Add(raw.ListingID) {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// feedURL derives the per-city request URL from the configured base.
func (a *LiveAdapter) feedURL(city string) (string, error) {
	u, err := url.Parse(a.cfg.Live.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: live.base_url %q: %v", config.ErrInvalid, a.cfg.Live.BaseURL, err)
	}
	if city != "" {
		q := u.Query()
		q.Set("city", city)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// decodeFeed accepts a wrapped {"listings": [...]} object or a bare array.
func decodeFeed(body []byte) ([]map[string]any, error) {
	var wrapped feedPayload
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Listings != nil {
		return wrapped.Listings, nil
	}

	var bare []map[string]any
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("unrecognised payload: %w", err)
	}
	return bare, nil
}
