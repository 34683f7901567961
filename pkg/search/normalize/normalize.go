package normalize

import (
	"sort"
	"strconv"

	"parcelhq/atlas/pkg/provider"
	"parcelhq/atlas/pkg/search"
)

// Source keys consumed into the canonical schema. Everything else on a raw
// hit lands in RawExtra verbatim.
const (
	keyAddress        = "formattedAddress"
	keyBeds           = "bedrooms"
	keyBaths          = "bathrooms"
	keySquareFootage  = "squareFootage"
	keyPrice          = "lastSalePrice"
	keyTaxAssessments = "taxAssessments"
	keyPropertyTaxes  = "propertyTaxes"
)

// Hits normalizes a raw hit sequence, preserving the provider's return
// order. A nil input yields an empty (never nil) slice so a zero-match
// search still produces a well-formed record.
func Hits(raw []provider.RawHit) []search.PropertyHit {
	hits := make([]search.PropertyHit, 0, len(raw))
	for _, r := range raw {
		hits = append(hits, Hit(r))
	}
	return hits
}

// Hit normalizes a single raw hit into the canonical schema.
func Hit(raw provider.RawHit) search.PropertyHit {
	hit := search.PropertyHit{
		Address:        search.Unknown,
		TaxAssessments: []search.YearAmount{},
		PropertyTaxes:  []search.YearAmount{},
	}

	consumed := map[string]bool{}

	if addr, ok := raw[keyAddress].(string); ok && addr != "" {
		hit.Address = addr
		consumed[keyAddress] = true
	}

	if beds, ok := asInt(raw[keyBeds]); ok {
		hit.Beds = &beds
		consumed[keyBeds] = true
	}
	if baths, ok := asFloat(raw[keyBaths]); ok {
		hit.Baths = &baths
		consumed[keyBaths] = true
	}
	if sqft, ok := asInt(raw[keySquareFootage]); ok {
		hit.SquareFootage = &sqft
		consumed[keySquareFootage] = true
	}
	if price, ok := asFloat(raw[keyPrice]); ok {
		hit.Price = &price
		consumed[keyPrice] = true
	}

	var lossless bool
	if hit.TaxAssessments, lossless = history(raw[keyTaxAssessments], "value"); lossless {
		consumed[keyTaxAssessments] = true
	}
	if hit.PropertyTaxes, lossless = history(raw[keyPropertyTaxes], "total"); lossless {
		consumed[keyPropertyTaxes] = true
	}

	for key, value := range raw {
		if consumed[key] {
			continue
		}
		if hit.RawExtra == nil {
			hit.RawExtra = make(map[string]any)
		}
		hit.RawExtra[key] = value
	}

	return hit
}

// history extracts a (year, amount) sequence from a provider tax field and
// sorts it ascending by year. The source is a map keyed by year string, each
// value an object carrying the amount under amountKey.
//
// The second return value reports whether the extraction was lossless; when
// an entry carries subfields beyond the modeled amount (land value,
// improvements), the original field is kept in RawExtra as well so the
// structured-data export loses nothing.
func history(field any, amountKey string) ([]search.YearAmount, bool) {
	entries, ok := field.(map[string]any)
	if !ok || len(entries) == 0 {
		return []search.YearAmount{}, false
	}

	lossless := true
	out := make([]search.YearAmount, 0, len(entries))
	for yearStr, value := range entries {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			lossless = false
			continue
		}

		obj, ok := value.(map[string]any)
		if !ok {
			// Bare number form: {"2023": 210000}
			if amount, ok := asFloat(value); ok {
				out = append(out, search.YearAmount{Year: year, Amount: amount})
				continue
			}
			lossless = false
			continue
		}

		amount, ok := asFloat(obj[amountKey])
		if !ok {
			lossless = false
			continue
		}
		out = append(out, search.YearAmount{Year: year, Amount: amount})

		for key := range obj {
			if key != amountKey && key != "year" {
				lossless = false
			}
		}
	}

	// Stable so duplicate years from list-shaped sources keep their given
	// relative order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })

	return out, lossless
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}
