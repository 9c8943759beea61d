package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"golang.org/x/sync/errgroup"

	"bandcamp-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrNoRecords         = errors.New("no records found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// csvRow mirrors the columns kept from the sales export. Numeric columns stay
// strings so that malformed values are coerced instead of failing the decode.
// slug_type, amount_paid, currency, art_url and url are never read.
type csvRow struct {
	ID          string `csv:"_id"`
	ArtistName  string `csv:"artist_name"`
	AlbumTitle  string `csv:"album_title"`
	Country     string `csv:"country"`
	CountryCode string `csv:"country_code"`
	ItemType    string `csv:"item_type"`
	UTCDate     string `csv:"utc_date"`
	AmountPaid  string `csv:"amount_paid_usd"`
	AmountOver  string `csv:"amount_over_fmt"`
}

// Open loads records from a .csv or .parquet file.
func Open(ctx context.Context, path string) ([]models.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		return ReadCSV(ctx, f)
	case ".parquet":
		return ReadParquet(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV decodes and cleans every row of r. The result keeps the input order.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.Record, error) {
	records := make([]models.Record, 0, batchSize)
	batch := make([]csvRow, 0, batchSize)

	flush := func() error {
		cleaned, err := cleanBatch(ctx, batch)
		if err != nil {
			return err
		}
		records = append(records, cleaned...)
		batch = batch[:0]
		return nil
	}

	err := gocsv.UnmarshalToCallbackWithError(r, func(row csvRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) || errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("decode csv: %w", err)
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// cleanBatch splits rows across a bounded pool; each worker owns a disjoint
// range of the output slice so no locking is needed and order is preserved.
func cleanBatch(ctx context.Context, rows []csvRow) ([]models.Record, error) {
	out := make([]models.Record, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	chunk := (len(rows) + maxWorkers - 1) / maxWorkers
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%1000 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				out[i] = cleanRow(rows[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
