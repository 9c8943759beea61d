package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"bandcamp-dashboard/internal/models"
)

// snapshotRow is the on-disk layout of the cleaned dataset. A nil amount paid
// keeps the difference between "missing" and "zero".
type snapshotRow struct {
	ID          string   `parquet:"_id"`
	ArtistName  string   `parquet:"artist_name,dict"`
	AlbumTitle  string   `parquet:"album_title"`
	Country     string   `parquet:"country,dict"`
	CountryCode string   `parquet:"country_code,dict"`
	ItemType    string   `parquet:"item_type,dict"`
	AmountPaid  *float64 `parquet:"amount_paid_usd,optional"`
	AmountOver  float64  `parquet:"amount_over_fmt"`
	UTCDateMs   int64    `parquet:"utc_date_ms"`
}

// WriteParquet stores records as a zstd-compressed Parquet file. The file is
// written next to path and renamed into place once complete.
func WriteParquet(ctx context.Context, path string, records []models.Record) error {
	rows := make([]snapshotRow, len(records))
	for i, r := range records {
		if i%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rows[i] = toSnapshotRow(r)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows, parquet.Compression(&parquet.Zstd)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// ReadParquet loads a snapshot written by WriteParquet.
func ReadParquet(ctx context.Context, path string) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := parquet.ReadFile[snapshotRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}

	records := make([]models.Record, len(rows))
	for i, row := range rows {
		records[i] = fromSnapshotRow(row)
	}
	return records, nil
}

func toSnapshotRow(r models.Record) snapshotRow {
	row := snapshotRow{
		ID:          r.ID,
		ArtistName:  r.ArtistName,
		AlbumTitle:  r.AlbumTitle,
		Country:     r.Country,
		CountryCode: r.CountryCode,
		ItemType:    r.ItemType,
		AmountOver:  r.AmountOver,
	}
	if r.PaidValid {
		paid := r.AmountPaid
		row.AmountPaid = &paid
	}
	if !r.Timestamp.IsZero() {
		row.UTCDateMs = r.Timestamp.UnixMilli()
	}
	return row
}

func fromSnapshotRow(row snapshotRow) models.Record {
	r := models.Record{
		ID:          row.ID,
		ArtistName:  row.ArtistName,
		AlbumTitle:  row.AlbumTitle,
		Country:     row.Country,
		CountryCode: row.CountryCode,
		ItemType:    row.ItemType,
		AmountOver:  row.AmountOver,
	}
	if row.AmountPaid != nil {
		r.AmountPaid = *row.AmountPaid
		r.PaidValid = true
	}
	if row.UTCDateMs != 0 {
		r.Timestamp = time.UnixMilli(row.UTCDateMs).UTC()
	}
	return r
}
