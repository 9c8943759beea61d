package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"bandcamp-dashboard/internal/models"
)

func cleanRow(row csvRow) models.Record {
	paid, paidOK := parseAmount(row.AmountPaid)
	over, _ := parseAmount(row.AmountOver)

	return models.Record{
		ID:          strings.TrimSpace(row.ID),
		ArtistName:  strings.TrimSpace(row.ArtistName),
		AlbumTitle:  strings.TrimSpace(row.AlbumTitle),
		Country:     strings.TrimSpace(row.Country),
		CountryCode: strings.TrimSpace(row.CountryCode),
		ItemType:    strings.TrimSpace(row.ItemType),
		AmountPaid:  paid,
		AmountOver:  over,
		PaidValid:   paidOK,
		Timestamp:   parseUnix(row.UTCDate),
	}
}

// parseAmount coerces a missing or malformed amount to zero and reports
// whether a number was actually present.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return roundCents(v), true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// parseUnix reads fractional unix seconds; anything else is the zero time.
func parseUnix(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
