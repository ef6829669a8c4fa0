package services

import (
	"sort"
	"strconv"
	"strings"

	"dealradar/models"
	"dealradar/utils"
)

// Deduper collapses records that share a listing identity.
type Deduper struct {
	logger *utils.Logger
}

// NewDeduper creates a Deduper with the given logger.
func NewDeduper(logger *utils.Logger) *Deduper {
	return &Deduper{logger: logger}
}

// Dedupe keeps one listing per id: the latest listed_at wins, ties go to
// the more complete record, and a content comparison settles exact ties.
// Arrival order never decides a winner. Output is sorted by id, and the
// number of collapsed duplicates is returned.
func (d *Deduper) Dedupe(listings []*models.Listing) ([]*models.Listing, int) {
	best := make(map[string]*models.Listing, len(listings))
	for _, l := range listings {
		cur, ok := best[l.ListingID]
		if !ok || prefer(l, cur) {
			best[l.ListingID] = l
		}
	}

	result := make([]*models.Listing, 0, len(best))
	for _, l := range best {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ListingID < result[j].ListingID
	})

	dropped := len(listings) - len(result)
	if dropped > 0 {
		d.logger.Info("[dedupe] Collapsed %d → %d listings (%d duplicates)",
			len(listings), len(result), dropped)
	}
	return result, dropped
}

// prefer reports whether candidate should replace current. The comparison
// is a total order over record content, so the winner is the same for any
// input permutation.
func prefer(candidate, current *models.Listing) bool {
	if !candidate.ListedAt.Equal(current.ListedAt) {
		return candidate.ListedAt.After(current.ListedAt)
	}
	if cc, cur := completeness(candidate), completeness(current); cc != cur {
		return cc > cur
	}
	return contentKey(candidate) < contentKey(current)
}

// completeness counts populated optional fields.
func completeness(l *models.Listing) int {
	n := 0
	for _, s := range []string{l.URL, l.Title, l.City, l.PropertyType, l.Description} {
		if s != "" {
			n++
		}
	}
	for _, f := range []float64{l.Area, l.Beds, l.Baths} {
		if f > 0 {
			n++
		}
	}
	return n
}

// contentKey is a stable comparison key over the whole record content.
func contentKey(l *models.Listing) string {
	return strings.Join([]string{
		l.Address, l.City, l.PropertyType, l.Title, l.URL, l.Description, l.Source,
		strconv.FormatFloat(l.Price, 'f', -1, 64),
		strconv.FormatFloat(l.Area, 'f', -1, 64),
		strconv.FormatFloat(l.Beds, 'f', -1, 64),
		strconv.FormatFloat(l.Baths, 'f', -1, 64),
	}, "|")
}
