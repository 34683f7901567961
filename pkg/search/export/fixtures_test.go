package export

import (
	"time"

	"parcelhq/atlas/pkg/search"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// testRecord returns a fixed two-hit record used across export tests.
func testRecord() *search.SearchRecord {
	return &search.SearchRecord{
		ID:    "rec-1",
		Owner: "owner-1",
		Criteria: map[string]any{
			"city":     "Fort Worth",
			"state":    "TX",
			"maxPrice": float64(400000),
		},
		Results: []search.PropertyHit{
			{
				Address:       "123 Oak St, Fort Worth, TX",
				Beds:          intPtr(3),
				Baths:         floatPtr(2.5),
				SquareFootage: intPtr(1850),
				Price:         floatPtr(315000),
				TaxAssessments: []search.YearAmount{
					{Year: 2021, Amount: 260000},
					{Year: 2022, Amount: 280000},
					{Year: 2023, Amount: 295000},
				},
				PropertyTaxes: []search.YearAmount{
					{Year: 2022, Amount: 5800},
					{Year: 2023, Amount: 6200},
				},
				RawExtra: map[string]any{"propertyType": "Single Family"},
			},
			{
				Address:        "9 Elm Ave, Dallas, TX",
				TaxAssessments: []search.YearAmount{},
				PropertyTaxes:  []search.YearAmount{},
			},
		},
		CreatedAt: time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
	}
}

// emptyRecord returns a zero-match record.
func emptyRecord() *search.SearchRecord {
	return &search.SearchRecord{
		ID:        "rec-empty",
		Owner:     "owner-1",
		Criteria:  map[string]any{"city": "Nowhere"},
		Results:   []search.PropertyHit{},
		CreatedAt: time.Date(2026, 8, 15, 11, 0, 0, 0, time.UTC),
	}
}
