package services

import (
	"sort"

	"dealradar/models"
	"dealradar/utils"
)

// Ranker orders scored listings and selects the published sets.
type Ranker struct {
	logger *utils.Logger
}

// NewRanker creates a Ranker with the given logger.
func NewRanker(logger *utils.Logger) *Ranker {
	return &Ranker{logger: logger}
}

// Rank orders by score descending with listing id breaking ties, then
// assigns 1-based ranks to the scored listings. Ids are unique after
// deduplication, so the order is total and any input permutation ranks
// identically. Unscored listings sort by the same comparator but keep a
// zero rank.
func (r *Ranker) Rank(scored []*models.ScoredListing) []*models.ScoredListing {
	ranked := make([]*models.ScoredListing, len(scored))
	copy(ranked, scored)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ListingID < ranked[j].ListingID
	})

	pos := 0
	for _, sl := range ranked {
		if sl.Scored {
			pos++
			sl.Rank = pos
		}
	}
	return ranked
}

// TopN returns the first n scored listings in rank order. Listings that
// could not be scored are never published as deals.
func (r *Ranker) TopN(ranked []*models.ScoredListing, n int) []*models.ScoredListing {
	top := make([]*models.ScoredListing, 0, n)
	for _, sl := range ranked {
		if len(top) == n {
			break
		}
		if sl.Scored {
			top = append(top, sl)
		}
	}
	return top
}

// NewSince filters ranked listings down to ids absent from the previous
// run, preserving rank order so the best new deals come first. An empty
// previous set (first run) means every listing is new.
func (r *Ranker) NewSince(ranked []*models.ScoredListing, previous []string) []*models.ScoredListing {
	seen := make(map[string]struct{}, len(previous))
	for _, id := range previous {
		seen[id] = struct{}{}
	}

	fresh := make([]*models.ScoredListing, 0)
	for _, sl := range ranked {
		if _, ok := seen[sl.ListingID]; !ok {
			fresh = append(fresh, sl)
		}
	}

	r.logger.Info("[ranker] %d of %d listings are new since last run", len(fresh), len(ranked))
	return fresh
}
