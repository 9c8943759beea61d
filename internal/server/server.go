package server

import (
	"log/slog"
	"net/http"

	"bandcamp-dashboard/internal/handlers"
	"bandcamp-dashboard/internal/services"
)

type Server struct {
	analytics     *services.Analytics
	mux           *http.ServeMux
	logger        *slog.Logger
	apiHandlers   *handlers.APIHandlers
	sseHandlers   *handlers.SSEHandlers
	chartHandlers *handlers.ChartHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:     analytics,
		mux:           http.NewServeMux(),
		logger:        logger,
		apiHandlers:   handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:   handlers.NewSSEHandlers(analytics, logger),
		chartHandlers: handlers.NewChartHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/metrics", s.apiHandlers.HandleMetrics)
	s.mux.HandleFunc("GET /api/top-artists", s.apiHandlers.HandleTopArtists)
	s.mux.HandleFunc("GET /api/top-countries", s.apiHandlers.HandleTopCountries)
	s.mux.HandleFunc("GET /api/engagement", s.apiHandlers.HandleEngagement)
	s.mux.HandleFunc("GET /api/artists", s.apiHandlers.HandleArtists)
	s.mux.HandleFunc("GET /api/histogram", s.apiHandlers.HandleHistogram)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/preview", s.apiHandlers.HandlePreview)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/metrics", s.sseHandlers.HandleMetrics)
	s.mux.HandleFunc("GET /sse/top-artists", s.sseHandlers.HandleTopArtists)
	s.mux.HandleFunc("GET /sse/top-countries", s.sseHandlers.HandleTopCountries)
	s.mux.HandleFunc("GET /sse/engagement", s.sseHandlers.HandleEngagement)
	s.mux.HandleFunc("GET /sse/preview", s.sseHandlers.HandlePreview)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)

	// Chart images
	s.mux.HandleFunc("GET /charts/{name}", s.chartHandlers.HandleChart)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
