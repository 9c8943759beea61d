package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"bandcamp-dashboard/internal/models"
	"bandcamp-dashboard/internal/money"
	"bandcamp-dashboard/internal/observability"
	"bandcamp-dashboard/internal/services"
	"bandcamp-dashboard/internal/ui/templates"
)

const (
	maxTableRows    = 20
	maxPreviewRows  = 100
	maxArtistFilter = 500
)

// previewSignals mirrors the client-side signal store.
type previewSignals struct {
	Artist string `json:"artist"`
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func renderHTML(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

// patch renders each component and sends it as an element patch. It stops at
// the first failure.
func (h *SSEHandlers) patch(r *http.Request, sse *datastar.ServerSentEventGenerator, components ...templ.Component) bool {
	logger := observability.LoggerFrom(r.Context(), h.logger)
	for _, c := range components {
		html, err := renderHTML(r.Context(), c)
		if err != nil {
			logger.Error("render component", "error", err)
			return false
		}
		if err := sse.PatchElements(html); err != nil {
			logger.Warn("patch elements", "error", err)
			return false
		}
	}
	return true
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) metrics() templ.Component {
	return templates.MetricCards(h.analytics.Metrics())
}

func (h *SSEHandlers) topArtists() templ.Component {
	return templates.RankingTable("artists-content", "Artist", "Revenue (USD)",
		h.analytics.TopArtists(maxTableRows), money.USDFloat)
}

func (h *SSEHandlers) topCountries() templ.Component {
	return templates.RankingTable("countries-content", "Country", "Sales",
		h.analytics.TopCountries(maxTableRows), func(v float64) string { return money.Count(int64(v)) })
}

func (h *SSEHandlers) engagement() templ.Component {
	return templates.RankingTable("engagement-content", "Artist", "Mean % over",
		h.analytics.TopEngagement(maxTableRows), money.Percent)
}

func (h *SSEHandlers) histogram() templ.Component {
	bins := h.analytics.AmountHistogram()
	groups := make([]models.GroupValue, 0, len(bins))
	for _, b := range bins {
		groups = append(groups, models.GroupValue{
			Key:   money.USDFloat(b.Lower) + " – " + money.USDFloat(b.Upper),
			Value: float64(b.Count),
			Count: b.Count,
		})
	}
	return templates.RankingTable("histogram-content", "Amount paid", "Sales", groups,
		func(v float64) string { return money.Count(int64(v)) })
}

func (h *SSEHandlers) preview(artist string) templ.Component {
	return templates.PreviewTable(h.analytics.Preview(artist, maxPreviewRows))
}

func (h *SSEHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patch(r, sse, h.metrics())
	flush(w)
}

func (h *SSEHandlers) HandleTopArtists(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patch(r, sse, h.topArtists())
	flush(w)
}

func (h *SSEHandlers) HandleTopCountries(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patch(r, sse, h.topCountries())
	flush(w)
}

func (h *SSEHandlers) HandleEngagement(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patch(r, sse, h.engagement())
	flush(w)
}

// HandlePreview re-renders the preview table for the artist held in the
// client's signals. Missing or unreadable signals mean every artist.
func (h *SSEHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var signals previewSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		observability.LoggerFrom(r.Context(), h.logger).Debug("no preview signals", "error", err)
		signals = previewSignals{}
	}

	sse := datastar.NewSSE(w, r)
	h.patch(r, sse, h.preview(signals.Artist))
	flush(w)
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	ok := h.patch(r, sse,
		h.metrics(),
		h.topCountries(),
		h.topArtists(),
		h.engagement(),
		h.histogram(),
		templates.SummaryTable(h.analytics.Summary()),
		templates.ArtistFilter(h.analytics.Artists(maxArtistFilter)),
		h.preview(""),
	)
	if !ok {
		return
	}

	stats, err := json.Marshal(map[string]any{
		"recordCount": h.analytics.Metrics().Records,
		"artist":      "",
	})
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(stats); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}

	flush(w)
}
