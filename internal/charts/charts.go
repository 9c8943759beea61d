// Package charts renders the dashboard's bar charts and histograms.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bandcamp-dashboard/internal/models"
)

var ErrNoData = errors.New("no data to chart")

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

const (
	height     = 520
	minWidth   = 960
	barWidth   = 32
	barSpacing = 12
	maxLabel   = 18
)

var barColor = drawing.ColorFromHex("d63031")

// Bar draws one bar per group, in the order given.
func Bar(w io.Writer, format Format, title string, groups []models.GroupValue) error {
	bars := make([]chart.Value, 0, len(groups))
	for _, g := range groups {
		bars = append(bars, chart.Value{Label: truncate(g.Key), Value: g.Value})
	}
	return render(w, format, title, bars)
}

// Histogram draws one bar per bin, labelled with the bin's upper bound.
func Histogram(w io.Writer, format Format, title string, bins []models.HistogramBin) error {
	bars := make([]chart.Value, 0, len(bins))
	for _, b := range bins {
		bars = append(bars, chart.Value{Label: binLabel(b), Value: float64(b.Count)})
	}
	return render(w, format, title, bars)
}

func render(w io.Writer, format Format, title string, bars []chart.Value) error {
	if !hasValues(bars) {
		return ErrNoData
	}
	for i := range bars {
		bars[i].Style = chart.Style{FillColor: barColor, StrokeColor: barColor}
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      width(len(bars)),
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 96}},
		XAxis:      chart.Style{TextRotationDegrees: 45, FontSize: 8},
		YAxis: chart.YAxis{
			Range: yRange(bars),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var provider chart.RendererProvider
	switch format {
	case PNG:
		provider = chart.PNG
	default:
		provider = chart.SVG
	}

	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("render %q: %w", title, err)
	}
	return nil
}

func hasValues(bars []chart.Value) bool {
	for _, b := range bars {
		if b.Value != 0 && !math.IsNaN(b.Value) {
			return true
		}
	}
	return false
}

// yRange anchors the axis at zero so bar heights stay proportional and a
// single bar or a row of equal bars still has a non-empty range.
func yRange(bars []chart.Value) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		if math.IsNaN(b.Value) {
			continue
		}
		lo = min(lo, b.Value)
		hi = max(hi, b.Value)
	}
	if hi <= lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// binLabel keeps cents when bins are narrower than a dollar.
func binLabel(b models.HistogramBin) string {
	if b.Upper-b.Lower < 1 {
		return fmt.Sprintf("≤%.2f", b.Upper)
	}
	return fmt.Sprintf("≤%.0f", b.Upper)
}

func width(n int) int {
	return max(minWidth, n*(barWidth+barSpacing)+160)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLabel {
		return s
	}
	return string(r[:maxLabel-1]) + "…"
}

// ContentType is the MIME type of a rendered chart.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}
