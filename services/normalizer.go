package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"dealradar/models"
	"dealradar/utils"
)

// numberRegexp captures the first numeric value in a raw price/area string.
var numberRegexp = regexp.MustCompile(`-?[\d,]+(?:\.\d+)?`)

// Bucket widths for derived listing ids. Coarse on purpose: a re-fetched
// record with slightly different numbers must keep the same identity.
const (
	idAreaBucket  = 25
	idPriceBucket = 25000
)

// listedAtFormats are the accepted listed_at layouts, tried in order.
var listedAtFormats = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Rejection records one raw record that failed validation.
type Rejection struct {
	Index  int
	Reason string
}

// Normalizer turns raw source records into canonical listings.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeAll validates every raw record. Invalid records are collected as
// rejections and never silently repaired; the run continues without them.
func (n *Normalizer) NormalizeAll(raw []*models.RawListing, now time.Time) ([]*models.Listing, []Rejection) {
	listings := make([]*models.Listing, 0, len(raw))
	var rejections []Rejection

	for i, r := range raw {
		listing, err := n.Normalize(r, now)
		if err != nil {
			n.logger.Warn("[normalizer] Rejecting record %d (%s): %v", i, describeRecord(r), err)
			rejections = append(rejections, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		listings = append(listings, listing)
	}

	n.logger.Info("[normalizer] Normalized %d → %d listings (rejected %d)",
		len(raw), len(listings), len(rejections))
	return listings, rejections
}

// Normalize validates one raw record against the canonical Listing rules.
// now is the observation time used when the record carries no listing date.
func (n *Normalizer) Normalize(r *models.RawListing, now time.Time) (*models.Listing, error) {
	address := normaliseText(r.Address)
	listingID := strings.TrimSpace(r.ListingID)
	if listingID == "" && address == "" {
		return nil, fmt.Errorf("no listing_id and no address")
	}

	price, err := parseAmount(r.RawPrice)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", r.RawPrice, err)
	}
	if price <= 0 {
		return nil, fmt.Errorf("price %q: must be positive", r.RawPrice)
	}

	var area float64
	if strings.TrimSpace(r.RawArea) != "" {
		area, err = parseAmount(r.RawArea)
		if err != nil {
			return nil, fmt.Errorf("area %q: %w", r.RawArea, err)
		}
		if area < 0 {
			return nil, fmt.Errorf("area %q: must not be negative", r.RawArea)
		}
	}

	listing := &models.Listing{
		ListingID:    listingID,
		Source:       strings.ToLower(strings.TrimSpace(r.Source)),
		URL:          strings.TrimSpace(r.URL),
		Title:        normaliseText(r.Title),
		Address:      address,
		City:         normaliseText(r.City),
		PropertyType: normaliseText(r.PropertyType),
		Price:        price,
		Area:         area,
		Beds:         parseOptional(r.Beds),
		Baths:        parseOptional(r.Baths),
		Description:  normaliseText(r.Description),
		ListedAt:     parseListedAt(r.RawListedAt, now).UTC(),
	}

	if listing.ListingID == "" {
		listing.ListingID = deriveID(listing)
	}
	return listing, nil
}

// parseAmount extracts the first numeric value from a raw money or measure
// string. Currency symbols, thousands separators and unit suffixes are
// tolerated:
//
//	"$1,234,000" → 1234000
//	"1050 sqft"  → 1050
//	"CAD 989000" → 989000
func parseAmount(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("no numeric value")
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", match, err)
	}
	return val, nil
}

// parseOptional parses a numeric field where absence is fine; empty,
// unparsable or negative values become 0 (unknown).
func parseOptional(raw string) float64 {
	if strings.TrimSpace(raw) == "" {
		return 0
	}
	val, err := parseAmount(raw)
	if err != nil || val < 0 {
		return 0
	}
	return val
}

// parseListedAt parses the listing date, falling back to the observation
// time when the source did not provide a usable one.
func parseListedAt(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range listedAtFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

// deriveID builds a stable identity for listings whose source provided
// none. Address plus coarse area/price buckets: refetch jitter keeps the
// id, a different unit or a big reprice changes it.
func deriveID(l *models.Listing) string {
	key := strings.ToLower(l.Address)
	if l.City != "" {
		key += ", " + strings.ToLower(l.City)
	}
	return utils.StableID(key,
		strconv.Itoa(int(l.Area)/idAreaBucket),
		strconv.Itoa(int(l.Price)/idPriceBucket))
}

func describeRecord(r *models.RawListing) string {
	switch {
	case r.Address != "":
		return r.Address
	case r.Title != "":
		return r.Title
	default:
		return "unidentified"
	}
}

// normaliseText strips leading/trailing whitespace and collapses internal
// whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
