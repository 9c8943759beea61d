package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one cleaned sale. Amounts are in USD rounded to cents.
type Record struct {
	ID          string
	ArtistName  string
	AlbumTitle  string
	Country     string
	CountryCode string
	ItemType    string
	AmountPaid  float64
	AmountOver  float64
	PaidValid   bool
	Timestamp   time.Time
}

// PercentOver is AmountOver as a percentage of AmountPaid, or 0 when nothing was paid.
func (r Record) PercentOver() float64 {
	if !r.PaidValid || r.AmountPaid == 0 {
		return 0
	}
	return r.AmountOver / r.AmountPaid * 100
}

type GroupValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

type Metrics struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	UniqueArtists int             `json:"unique_artists"`
	Records       int64           `json:"records"`
	PaidRecords   int64           `json:"paid_records"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type ColumnSummary struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type PreviewRow struct {
	ID          string  `json:"id"`
	ArtistName  string  `json:"artist_name"`
	AlbumTitle  string  `json:"album_title"`
	Country     string  `json:"country"`
	AmountPaid  float64 `json:"amount_paid_usd"`
	AmountOver  float64 `json:"amount_over_fmt"`
	PercentOver string  `json:"percent_over"`
}
