package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/montanaflynn/stats"
	"go.opentelemetry.io/otel/attribute"

	"bandcamp-dashboard/internal/aggregate"
	"bandcamp-dashboard/internal/dataset"
	"bandcamp-dashboard/internal/models"
	"bandcamp-dashboard/internal/money"
	"bandcamp-dashboard/internal/observability"
)

const (
	defaultTopN          = 20
	defaultMinGroupSize  = 50
	defaultHistogramBins = 30
	defaultPreviewRows   = 1000
	histogramPercentile  = 99
	maxArtistOptions     = 500
)

type Options struct {
	TopN          int
	MinGroupSize  int
	HistogramBins int
	SnapshotPath  string
}

func DefaultOptions() Options {
	return Options{
		TopN:          defaultTopN,
		MinGroupSize:  defaultMinGroupSize,
		HistogramBins: defaultHistogramBins,
	}
}

type PrecomputedData struct {
	Metrics         models.Metrics        `json:"metrics"`
	TopArtists      []models.GroupValue   `json:"top_artists"`
	TopCountries    []models.GroupValue   `json:"top_countries"`
	TopEngagement   []models.GroupValue   `json:"top_engagement"`
	Artists         []models.GroupValue   `json:"artists"`
	AmountHistogram []models.HistogramBin `json:"amount_histogram"`
	Summary         models.ColumnSummary  `json:"summary"`
	LastModified    time.Time             `json:"last_modified"`
	RecordCount     int64                 `json:"record_count"`
}

type Analytics struct {
	mu          sync.RWMutex
	records     []models.Record
	precomputed *PrecomputedData
	source      string
	opts        Options
	logger      *slog.Logger
}

func NewAnalytics(opts ...Options) *Analytics {
	o := DefaultOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.TopN <= 0 {
		o.TopN = defaultTopN
	}
	if o.HistogramBins <= 0 {
		o.HistogramBins = defaultHistogramBins
	}

	return &Analytics{
		precomputed: emptyPrecomputed(),
		opts:        o,
		logger:      slog.Default(),
	}
}

func emptyPrecomputed() *PrecomputedData {
	return &PrecomputedData{
		TopArtists:      []models.GroupValue{},
		TopCountries:    []models.GroupValue{},
		TopEngagement:   []models.GroupValue{},
		Artists:         []models.GroupValue{},
		AmountHistogram: []models.HistogramBin{},
	}
}

func (a *Analytics) SetData(data []models.Record) {
	precomputed := a.computeAnalytics(data)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = data
	a.precomputed = precomputed
}

// LoadFromFile reads the dataset at filename, preferring an up-to-date
// snapshot when one is configured, and precomputes every dashboard view.
func (a *Analytics) LoadFromFile(ctx context.Context, filename string) error {
	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer span.End()
	span.SetAttributes(attribute.String("dataset.path", filename))

	a.mu.Lock()
	a.source = filename
	a.mu.Unlock()

	start := time.Now()

	records, fromSnapshot, err := a.readRecords(ctx, filename)
	if err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("load dataset: %w", err)
	}

	if !fromSnapshot && a.opts.SnapshotPath != "" {
		if err := dataset.WriteParquet(ctx, a.opts.SnapshotPath, records); err != nil {
			a.logger.Warn("failed to save snapshot", "path", a.opts.SnapshotPath, "error", err)
		} else {
			a.logger.Info("snapshot written", "path", a.opts.SnapshotPath)
		}
	}

	a.SetData(records)

	duration := time.Since(start)
	count := len(records)
	span.SetAttributes(
		attribute.Int("dataset.records", count),
		attribute.Bool("dataset.from_snapshot", fromSnapshot),
	)
	a.logger.Info("dataset processing complete",
		"records", count,
		"from_snapshot", fromSnapshot,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(count)/duration.Seconds()))

	return nil
}

func (a *Analytics) readRecords(ctx context.Context, filename string) ([]models.Record, bool, error) {
	if a.snapshotFresh(filename) {
		records, err := dataset.ReadParquet(ctx, a.opts.SnapshotPath)
		if err == nil {
			a.logger.Info("loaded from snapshot", "path", a.opts.SnapshotPath, "records", len(records))
			return records, true, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		a.logger.Warn("snapshot unreadable, falling back to source", "error", err)
	}

	a.logger.Info("processing dataset file", "filename", filename)
	records, err := dataset.Open(ctx, filename)
	return records, false, err
}

func (a *Analytics) snapshotFresh(filename string) bool {
	if a.opts.SnapshotPath == "" || a.opts.SnapshotPath == filename {
		return false
	}
	snap, err := os.Stat(a.opts.SnapshotPath)
	if err != nil {
		return false
	}
	src, err := os.Stat(filename)
	if err != nil {
		// Source gone but snapshot present: the snapshot is all we have.
		return true
	}
	return src.ModTime().Before(snap.ModTime())
}

func (a *Analytics) computeAnalytics(data []models.Record) *PrecomputedData {
	p := emptyPrecomputed()
	p.LastModified = time.Now()
	p.RecordCount = int64(len(data))
	if len(data) == 0 {
		return p
	}

	avg, err := aggregate.AverageTicket(data)
	if err != nil {
		a.logger.Warn("average ticket unavailable", "error", err)
	}
	p.Metrics = models.Metrics{
		TotalRevenue:  aggregate.TotalRevenue(data),
		AverageTicket: avg,
		UniqueArtists: aggregate.UniqueArtistCount(data),
		Records:       int64(len(data)),
		PaidRecords:   aggregate.PaidRecords(data),
	}

	p.TopArtists = aggregate.TopNBySum(data, aggregate.ByArtist, aggregate.AmountPaid, a.opts.TopN)
	p.TopCountries = aggregate.TopNBySum(data, aggregate.ByCountry, aggregate.PaidCount, a.opts.TopN)
	p.TopEngagement = aggregate.TopNByMean(data, aggregate.ByArtist, aggregate.PercentOver, a.opts.TopN, a.opts.MinGroupSize)

	artists := aggregate.ValueCounts(data, aggregate.ByArtist)
	if len(artists) > maxArtistOptions {
		artists = artists[:maxArtistOptions]
	}
	p.Artists = artists

	paid := make([]float64, 0, len(data))
	paidColumn := make([]float64, len(data))
	overColumn := make([]float64, len(data))
	for i, r := range data {
		if r.PaidValid {
			paid = append(paid, r.AmountPaid)
		}
		paidColumn[i] = r.AmountPaid
		overColumn[i] = r.AmountOver
	}
	p.AmountHistogram = aggregate.Histogram(paid, a.opts.HistogramBins, histogramUpper(paid))
	p.Summary = describe(paidColumn, overColumn, a.logger)

	return p
}

// histogramUpper clips the long tail so a few large purchases do not flatten
// every other bin.
func histogramUpper(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	upper, err := stats.Percentile(values, histogramPercentile)
	if err != nil || upper <= 0 {
		upper, _ = stats.Max(values)
	}
	return upper
}

// describe summarises the amount columns; unparseable amounts count as zero.
func describe(paid, over []float64, logger *slog.Logger) models.ColumnSummary {
	df := dataframe.New(
		series.New(paid, series.Float, "amount_paid_usd"),
		series.New(over, series.Float, "amount_over_fmt"),
	)
	if df.Err != nil {
		logger.Warn("column summary unavailable", "error", df.Err)
		return models.ColumnSummary{}
	}

	desc := df.Describe()
	if desc.Err != nil {
		logger.Warn("column summary unavailable", "error", desc.Err)
		return models.ColumnSummary{}
	}

	rows := desc.Records()
	if len(rows) == 0 {
		return models.ColumnSummary{}
	}
	return models.ColumnSummary{Columns: rows[0], Rows: rows[1:]}
}

func (a *Analytics) Metrics() models.Metrics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Metrics
}

func (a *Analytics) TopArtists(limit int) []models.GroupValue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return head(a.precomputed.TopArtists, limit)
}

func (a *Analytics) TopCountries(limit int) []models.GroupValue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return head(a.precomputed.TopCountries, limit)
}

func (a *Analytics) TopEngagement(limit int) []models.GroupValue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return head(a.precomputed.TopEngagement, limit)
}

// Artists lists artist names by number of sales, most frequent first.
func (a *Analytics) Artists(limit int) []models.GroupValue {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return head(a.precomputed.Artists, limit)
}

func (a *Analytics) AmountHistogram() []models.HistogramBin {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.AmountHistogram
}

func (a *Analytics) Summary() models.ColumnSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.precomputed.Summary
}

// Preview returns the first limit rows, optionally restricted to one artist.
func (a *Analytics) Preview(artist string, limit int) []models.PreviewRow {
	if limit <= 0 {
		limit = defaultPreviewRows
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	rows := make([]models.PreviewRow, 0, min(limit, len(a.records)))
	for _, r := range a.records {
		if len(rows) >= limit {
			break
		}
		if artist != "" && r.ArtistName != artist {
			continue
		}
		rows = append(rows, models.PreviewRow{
			ID:          r.ID,
			ArtistName:  r.ArtistName,
			AlbumTitle:  r.AlbumTitle,
			Country:     r.Country,
			AmountPaid:  r.AmountPaid,
			AmountOver:  r.AmountOver,
			PercentOver: money.Percent(r.PercentOver()),
		})
	}
	return rows
}

// Records exposes the loaded rows; callers must treat the slice as read-only.
func (a *Analytics) Records() []models.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.records
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"source":           a.source,
		"record_count":     a.precomputed.RecordCount,
		"paid_records":     a.precomputed.Metrics.PaidRecords,
		"last_processed":   a.precomputed.LastModified,
		"artists":          a.precomputed.Metrics.UniqueArtists,
		"ranked_countries": len(a.precomputed.TopCountries),
		"histogram_bins":   len(a.precomputed.AmountHistogram),
	}
}

func head[T any](s []T, limit int) []T {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
