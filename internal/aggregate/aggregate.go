// Package aggregate computes the dashboard metrics and rankings over a loaded
// record set. Every function is a single pass over its input and never mutates it.
package aggregate

import (
	"errors"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"bandcamp-dashboard/internal/models"
)

// ErrNoPaidRecords is returned when an average has no paid records to divide by.
var ErrNoPaidRecords = errors.New("no records with a paid amount")

// KeyFunc selects the grouping key of a record.
type KeyFunc func(models.Record) string

// ValueFunc selects the value summed or averaged per group.
type ValueFunc func(models.Record) float64

func ByArtist(r models.Record) string  { return r.ArtistName }
func ByCountry(r models.Record) string { return r.Country }

func AmountPaid(r models.Record) float64  { return r.AmountPaid }
func PercentOver(r models.Record) float64 { return r.PercentOver() }

// PaidCount counts a record once when its paid amount was present.
func PaidCount(r models.Record) float64 {
	if r.PaidValid {
		return 1
	}
	return 0
}

// TotalRevenue is the sum of paid and over amounts across all records.
func TotalRevenue(records []models.Record) decimal.Decimal {
	var cents int64
	for _, r := range records {
		cents += toCents(r.AmountPaid) + toCents(r.AmountOver)
	}
	return decimal.New(cents, -2)
}

// AverageTicket divides TotalRevenue by the number of records with a paid amount.
func AverageTicket(records []models.Record) (decimal.Decimal, error) {
	paid := PaidRecords(records)
	if paid == 0 {
		return decimal.Zero, ErrNoPaidRecords
	}
	return TotalRevenue(records).DivRound(decimal.NewFromInt(paid), 2), nil
}

func PaidRecords(records []models.Record) int64 {
	var n int64
	for _, r := range records {
		if r.PaidValid {
			n++
		}
	}
	return n
}

// UniqueArtistCount counts distinct non-blank artist names.
func UniqueArtistCount(records []models.Record) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		if r.ArtistName == "" {
			continue
		}
		seen[r.ArtistName] = struct{}{}
	}
	return len(seen)
}

// TopNBySum returns the n groups with the highest summed value, descending.
// Equal sums keep the order in which their groups were first seen.
func TopNBySum(records []models.Record, key KeyFunc, value ValueFunc, n int) []models.GroupValue {
	if n <= 0 {
		return []models.GroupValue{}
	}
	groups := group(records, key, value)
	return rank(groups, n)
}

// TopNByMean is TopNBySum over per-group means. Groups with fewer than
// minGroupSize members never rank, whatever their mean.
func TopNByMean(records []models.Record, key KeyFunc, value ValueFunc, n, minGroupSize int) []models.GroupValue {
	if n <= 0 {
		return []models.GroupValue{}
	}
	groups := group(records, key, value)
	eligible := groups[:0]
	for _, g := range groups {
		if g.Count < minGroupSize {
			continue
		}
		g.Value = g.Value / float64(g.Count)
		eligible = append(eligible, g)
	}
	return rank(eligible, n)
}

// ValueCounts orders groups by member count, most frequent first.
func ValueCounts(records []models.Record, key KeyFunc) []models.GroupValue {
	groups := group(records, key, func(models.Record) float64 { return 1 })
	return rank(groups, len(groups))
}

// Histogram spreads values over bins of equal width covering [0, upper].
// Values outside the range are clamped into the first or last bin.
func Histogram(values []float64, bins int, upper float64) []models.HistogramBin {
	if bins <= 0 {
		return []models.HistogramBin{}
	}
	if upper <= 0 {
		return []models.HistogramBin{{Lower: 0, Upper: 0, Count: len(values)}}
	}

	width := upper / float64(bins)
	result := make([]models.HistogramBin, bins)
	for i := range result {
		result[i].Lower = float64(i) * width
		result[i].Upper = float64(i+1) * width
	}
	for _, v := range values {
		idx := int(v / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		result[idx].Count++
	}
	return result
}

// group folds records by key in first-seen order. Records with a blank key
// belong to no group.
func group(records []models.Record, key KeyFunc, value ValueFunc) []models.GroupValue {
	index := make(map[string]int)
	groups := make([]models.GroupValue, 0)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, models.GroupValue{Key: k})
		}
		groups[i].Value += value(r)
		groups[i].Count++
	}
	return groups
}

func rank(groups []models.GroupValue, n int) []models.GroupValue {
	slices.SortStableFunc(groups, func(a, b models.GroupValue) int {
		if a.Value > b.Value {
			return -1
		}
		if a.Value < b.Value {
			return 1
		}
		return 0
	})
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

func toCents(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v * 100))
}
