package source

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"dealradar/models"
)

// rawFieldAliases maps common feed key variants onto canonical field names.
var rawFieldAliases = map[string]string{
	"id":           "listing_id",
	"sqft":         "area",
	"asking_price": "price",
	"listed":       "listed_at",
}

// decodeRecord converts one loosely-typed record map into a RawListing.
// Numbers and bools are accepted for string-typed fields, so a feed sending
// "price": 450000 decodes the same as "price": "450000".
func decodeRecord(rec map[string]any) (*models.RawListing, error) {
	for alias, canonical := range rawFieldAliases {
		if v, ok := rec[alias]; ok {
			if _, exists := rec[canonical]; !exists {
				rec[canonical] = v
			}
		}
	}

	var raw models.RawListing
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &raw, nil
}
