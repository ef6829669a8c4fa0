package source

import (
	"context"
	"errors"
	"fmt"

	"dealradar/config"
	"dealradar/models"
	"dealradar/utils"
)

var (
	// ErrUnavailable means the configured source could not deliver records.
	ErrUnavailable = errors.New("listing source unavailable")

	// ErrSeedInvalid means the seed file is missing, unparsable, or yields
	// no usable records. It is a configuration problem, not a source outage.
	ErrSeedInvalid = errors.New("invalid seed file")
)

// Adapter delivers raw listing records from one source mode. Implementations
// may parallelise internally; the pipeline itself stays sequential.
type Adapter interface {
	Fetch(ctx context.Context) ([]*models.RawListing, error)
}

// New selects the adapter for the configured mode.
func New(cfg *config.Config, logger *utils.Logger) (Adapter, error) {
	switch cfg.Mode {
	case models.ModeDemo:
		return NewDemoAdapter(cfg, logger), nil
	case models.ModeSeed:
		return NewSeedAdapter(cfg.Seed.File, logger), nil
	case models.ModeLive:
		return NewLiveAdapter(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown source mode %q", config.ErrInvalid, cfg.Mode)
	}
}
