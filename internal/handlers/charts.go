package handlers

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"net/http"

	"bandcamp-dashboard/internal/charts"
	"bandcamp-dashboard/internal/errors"
	"bandcamp-dashboard/internal/observability"
	"bandcamp-dashboard/internal/services"
)

const chartBars = 20

type ChartHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewChartHandlers(analytics *services.Analytics, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *ChartHandlers) draw(name string, buf *bytes.Buffer) (bool, error) {
	switch name {
	case "top-artists.svg":
		return true, charts.Bar(buf, charts.SVG, "Top artists by revenue (USD)", h.analytics.TopArtists(chartBars))
	case "top-countries.svg":
		return true, charts.Bar(buf, charts.SVG, "Countries with the most sales", h.analytics.TopCountries(chartBars))
	case "engagement.svg":
		return true, charts.Bar(buf, charts.SVG, "Mean % paid over the asking price", h.analytics.TopEngagement(chartBars))
	case "amount-histogram.svg":
		return true, charts.Histogram(buf, charts.SVG, "Amount paid (USD)", h.analytics.AmountHistogram())
	default:
		return false, nil
	}
}

// HandleChart serves GET /charts/{name}.
func (h *ChartHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerFrom(ctx, h.logger)
	name := r.PathValue("name")

	var buf bytes.Buffer
	known, err := h.draw(name, &buf)
	switch {
	case !known:
		errors.WriteError(w, logger, errors.NotFound("chart not found").WithDetails("unknown chart %q", name), observability.GetRequestID(ctx))
		return
	case stderrors.Is(err, charts.ErrNoData):
		errors.WriteError(w, logger, errors.NotFound("no data to chart"), observability.GetRequestID(ctx))
		return
	case err != nil:
		errors.WriteError(w, logger, errors.InternalWrap(err, "failed to render chart"), observability.GetRequestID(ctx))
		return
	}

	w.Header().Set("Content-Type", charts.SVG.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("write chart", "chart", name, "error", err)
	}
}
