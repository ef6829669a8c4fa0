package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dealradar/models"
	"dealradar/utils"
)

// SeedAdapter reads raw records from a local JSON or YAML file, so the
// pipeline can be exercised end-to-end against a fixed dataset.
type SeedAdapter struct {
	path   string
	logger *utils.Logger
}

// NewSeedAdapter creates a SeedAdapter for the given file path.
func NewSeedAdapter(path string, logger *utils.Logger) *SeedAdapter {
	return &SeedAdapter{path: path, logger: logger}
}

// Fetch loads and decodes the seed file. Records that fail to decode are
// skipped with a warning; a file that yields none at all is an error.
func (a *SeedAdapter) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrSeedInvalid, a.path, err)
	}

	var records []map[string]any
	switch strings.ToLower(filepath.Ext(a.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrSeedInvalid, a.path, err)
	}

	listings := make([]*models.RawListing, 0, len(records))
	for i, rec := range records {
		raw, err := decodeRecord(rec)
		if err != nil {
			a.logger.Warn("[seed] Skipping record %d: %v", i, err)
			continue
		}
		if raw.Source == "" {
			raw.Source = models.ModeSeed
		}
		listings = append(listings, raw)
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: %q contains no decodable records", ErrSeedInvalid, a.path)
	}

	a.logger.Info("[seed] Loaded %d records from %s", len(listings), a.path)
	return listings, nil
}
