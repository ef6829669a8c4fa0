package source

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"dealradar/config"
	"dealradar/models"
	"dealradar/utils"
)

// Property types cycled by the generator.
var demoPropertyTypes = []string{"Condo", "Townhouse", "Detached", "1/2 Duplex"}

// Typical asking price per city, the anchor the price drift multiplies.
var demoBasePrice = map[string]float64{
	"Vancouver":       1100000,
	"Burnaby":         950000,
	"Richmond":        980000,
	"Surrey":          780000,
	"Coquitlam":       820000,
	"North Vancouver": 1050000,
}

const demoDefaultBasePrice = 900000

// Phrases sprinkled into a deterministic fraction of descriptions so the
// keyword scoring signal fires on demo data.
var demoMotivatedPhrases = []string{
	"Priced to sell. Motivated seller!",
	"Bring your offer, must sell.",
	"急售，诚意卖。",
}

// DemoAdapter generates a synthetic dataset. The generator is seeded by the
// UTC date (or a fixed configured seed), so repeated runs on the same day
// see identical records and the published artifacts stay idempotent.
type DemoAdapter struct {
	cfg    *config.Config
	logger *utils.Logger
	now    func() time.Time
}

// NewDemoAdapter creates a DemoAdapter using the wall clock.
func NewDemoAdapter(cfg *config.Config, logger *utils.Logger) *DemoAdapter {
	return &DemoAdapter{cfg: cfg, logger: logger, now: time.Now}
}

// Fetch generates cfg.Demo.Listings raw records. A deterministic slice of
// them carries formatted prices or no listing id, keeping the normalizer's
// parsing and id-derivation paths in daily use.
func (a *DemoAdapter) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	day := a.now().UTC().Truncate(24 * time.Hour)
	seed := a.cfg.Demo.Seed
	if seed == 0 {
		seed = day.Unix() / 86400
	}
	rng := rand.New(rand.NewSource(seed))

	cities := a.cfg.Demo.Cities
	if len(cities) == 0 {
		cities = []string{"Vancouver", "Burnaby", "Richmond"}
	}

	n := a.cfg.Demo.Listings
	listings := make([]*models.RawListing, 0, n)
	for i := 0; i < n; i++ {
		city := cities[i%len(cities)]
		ptype := demoPropertyTypes[i%len(demoPropertyTypes)]

		base, ok := demoBasePrice[city]
		if !ok {
			base = demoDefaultBasePrice
		}
		switch ptype {
		case "Condo":
			base *= 0.72
		case "Townhouse":
			base *= 0.86
		}

		price := int(base * (0.78 + rng.Float64()*0.44))
		sqft := 450 + rng.Intn(2751)
		beds := 1 + rng.Intn(5)
		baths := 1 + rng.Intn(3)
		ageDays := rng.Intn(46)

		desc := fmt.Sprintf("%d bed %d bath %s in %s.", beds, baths, ptype, city)
		switch r := rng.Float64(); {
		case r < 0.18:
			desc += " " + demoMotivatedPhrases[0]
		case r < 0.30:
			desc += " " + demoMotivatedPhrases[1]
		case r < 0.40:
			desc += " " + demoMotivatedPhrases[2]
		}

		raw := &models.RawListing{
			Source:       models.ModeDemo,
			Title:        fmt.Sprintf("%s in %s", ptype, city),
			Address:      fmt.Sprintf("%d Example St", 100+i),
			City:         city,
			PropertyType: ptype,
			RawArea:      strconv.Itoa(sqft),
			Beds:         strconv.Itoa(beds),
			Baths:        strconv.Itoa(baths),
			Description:  desc,
			RawListedAt:  day.AddDate(0, 0, -ageDays).Format(time.RFC3339),
		}

		if i%3 == 0 {
			raw.RawPrice = "$" + formatThousands(price)
		} else {
			raw.RawPrice = strconv.Itoa(price)
		}
		if i%6 != 0 {
			raw.ListingID = utils.StableID("demo", raw.Address, city)
			raw.URL = "https://listings.example.com/" + raw.ListingID
		}

		listings = append(listings, raw)
	}

	a.logger.Info("[demo] Generated %d listings (seed %d, %d cities)", len(listings), seed, len(cities))
	return listings, nil
}

// formatThousands renders 1234000 as "1,234,000".
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
