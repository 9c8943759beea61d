package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bandcamp-dashboard/internal/errors"
	"bandcamp-dashboard/internal/observability"
	"bandcamp-dashboard/internal/services"
)

const (
	defaultLimit = 20
	maxLimit     = 5000
	previewLimit = 1000
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// parseLimit reads the optional limit query parameter.
func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.BadRequest("limit must be a positive integer").WithDetails("got %q", raw)
	}
	if n > maxLimit {
		return 0, errors.BadRequest("limit is too large").WithDetails("maximum is %d", maxLimit)
	}
	return n, nil
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	errors.WriteError(w, observability.LoggerFrom(ctx, h.logger), err, observability.GetRequestID(ctx))
}

// list serves a limit-bounded query.
func (h *APIHandlers) list(fallback int, query func(limit int) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r, fallback)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		errors.WriteSuccessWithHeaders(w, query(limit), cacheHeaders)
	}
}

func (h *APIHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Metrics(), cacheHeaders)
}

func (h *APIHandlers) HandleTopArtists(w http.ResponseWriter, r *http.Request) {
	h.list(defaultLimit, func(limit int) any { return h.analytics.TopArtists(limit) })(w, r)
}

func (h *APIHandlers) HandleTopCountries(w http.ResponseWriter, r *http.Request) {
	h.list(defaultLimit, func(limit int) any { return h.analytics.TopCountries(limit) })(w, r)
}

func (h *APIHandlers) HandleEngagement(w http.ResponseWriter, r *http.Request) {
	h.list(defaultLimit, func(limit int) any { return h.analytics.TopEngagement(limit) })(w, r)
}

func (h *APIHandlers) HandleArtists(w http.ResponseWriter, r *http.Request) {
	h.list(maxLimit, func(limit int) any { return h.analytics.Artists(limit) })(w, r)
}

func (h *APIHandlers) HandleHistogram(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.AmountHistogram(), cacheHeaders)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Summary(), cacheHeaders)
}

func (h *APIHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	artist := r.URL.Query().Get("artist")
	h.list(previewLimit, func(limit int) any { return h.analytics.Preview(artist, limit) })(w, r)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
