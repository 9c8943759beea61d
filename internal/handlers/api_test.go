package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"bandcamp-dashboard/internal/models"
	"bandcamp-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(services.Options{TopN: 20, MinGroupSize: 1, HistogramBins: 4})
	ts := time.Date(2020, 9, 9, 12, 0, 0, 0, time.UTC)
	a.SetData([]models.Record{
		{ID: "s1", ArtistName: "Alpha", AlbumTitle: "First Light", Country: "Germany", CountryCode: "de",
			ItemType: "a", AmountPaid: 10, AmountOver: 2, PaidValid: true, Timestamp: ts},
		{ID: "s2", ArtistName: "Beta", AlbumTitle: "Second Wind", Country: "United States", CountryCode: "us",
			ItemType: "t", AmountPaid: 5, AmountOver: 0, PaidValid: true, Timestamp: ts},
		{ID: "s3", ArtistName: "Alpha", AlbumTitle: "First Light", Country: "United States", CountryCode: "us",
			ItemType: "a", AmountPaid: 20, AmountOver: 5, PaidValid: true, Timestamp: ts},
		{ID: "s4", ArtistName: "Gamma", AlbumTitle: "Third Eye", Country: "Japan", CountryCode: "jp",
			ItemType: "p", Timestamp: ts},
	})
	return a
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return env
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := slog.Default()
	handlers := NewAPIHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}

	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleTopArtists(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/top-artists", nil)
	w := httptest.NewRecorder()

	handlers.HandleTopArtists(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	env := decodeEnvelope(t, w)
	var groups []models.GroupValue
	if err := json.Unmarshal(env.Data, &groups); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	if len(groups) != 3 {
		t.Fatalf("expected 3 artists, got %d", len(groups))
	}
	if groups[0].Key != "Alpha" || groups[0].Value != 30 || groups[0].Count != 2 {
		t.Errorf("unexpected leader: %+v", groups[0])
	}
}

func TestAPIHandlers_HandleTopCountries(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/top-countries?limit=1", nil)
	w := httptest.NewRecorder()

	handlers.HandleTopCountries(w, req)

	env := decodeEnvelope(t, w)
	var groups []models.GroupValue
	if err := json.Unmarshal(env.Data, &groups); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("expected limit to cap results at 1, got %d", len(groups))
	}
	if groups[0].Key != "United States" || groups[0].Value != 2 {
		t.Errorf("expected United States with 2 sales, got %+v", groups[0])
	}
}

func TestAPIHandlers_HandleMetrics(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	w := httptest.NewRecorder()

	handlers.HandleMetrics(w, req)

	env := decodeEnvelope(t, w)
	var metrics struct {
		UniqueArtists int   `json:"unique_artists"`
		Records       int64 `json:"records"`
		PaidRecords   int64 `json:"paid_records"`
	}
	if err := json.Unmarshal(env.Data, &metrics); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	if metrics.UniqueArtists != 3 || metrics.Records != 4 || metrics.PaidRecords != 3 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
}

func TestAPIHandlers_HandlePreview(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/preview?artist=Alpha&limit=1", nil)
	w := httptest.NewRecorder()

	handlers.HandlePreview(w, req)

	env := decodeEnvelope(t, w)
	var rows []models.PreviewRow
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ID != "s1" || rows[0].PercentOver != "20.00%" {
		t.Errorf("unexpected preview row: %+v", rows[0])
	}
}

func TestAPIHandlers_InvalidLimit(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	for _, limit := range []string{"abc", "0", "-3", "5001"} {
		t.Run(limit, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/top-artists?limit="+limit, nil)
			w := httptest.NewRecorder()

			handlers.HandleTopArtists(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}

			env := decodeEnvelope(t, w)
			if env.Success {
				t.Error("expected success=false")
			}
			if env.Error == nil || env.Error.Code != "BAD_REQUEST" {
				t.Errorf("expected BAD_REQUEST error, got %+v", env.Error)
			}
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	analytics := createTestAnalytics()
	logger := slog.Default()
	handlers := NewAPIHandlers(analytics, logger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	if data, ok := response["data"].(map[string]interface{}); !ok {
		t.Error("expected health data in response")
	} else {
		if status, ok := data["status"].(string); !ok || status != "healthy" {
			t.Errorf("expected status 'healthy', got %q", status)
		}

		if timestamp, ok := data["timestamp"].(string); !ok || timestamp == "" {
			t.Error("expected non-empty timestamp")
		} else if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
			t.Errorf("invalid timestamp format: %v", err)
		}
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response struct {
		Data    map[string]any `json:"data"`
		Success bool           `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if !response.Success {
		t.Error("expected success=true in response")
	}
	if got, ok := response.Data["record_count"].(float64); !ok || got != 4 {
		t.Errorf("expected record_count 4, got %v", response.Data["record_count"])
	}
}

// Test that handlers set correct headers consistently
func TestAPIHandlers_HeaderConsistency(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger())

	apiEndpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"metrics", handlers.HandleMetrics},
		{"top-artists", handlers.HandleTopArtists},
		{"top-countries", handlers.HandleTopCountries},
		{"engagement", handlers.HandleEngagement},
		{"artists", handlers.HandleArtists},
		{"histogram", handlers.HandleHistogram},
		{"summary", handlers.HandleSummary},
		{"preview", handlers.HandlePreview},
	}

	for _, endpoint := range apiEndpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			endpoint.handler(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}

			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type 'application/json', got %q", ct)
			}

			if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
				t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
			}

			body := w.Body.String()
			if !strings.HasPrefix(body, "{") {
				t.Errorf("expected JSON object response, got: %s", body)
			}

			var response map[string]interface{}
			if err := json.Unmarshal([]byte(body), &response); err != nil {
				t.Fatalf("response should be valid JSON: %v", err)
			}

			if success, ok := response["success"].(bool); !ok || !success {
				t.Error("expected success=true in response")
			}

			if _, ok := response["data"]; !ok {
				t.Error("expected data field in response")
			}
		})
	}
}

// Test that health endpoint doesn't set cache headers
func TestAPIHandlers_HealthNoCaching(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not set cache-control, got %q", cc)
	}
}

func TestAPIHandlers_EmptyAnalytics(t *testing.T) {
	handlers := NewAPIHandlers(services.NewAnalytics(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/top-artists", nil)
	w := httptest.NewRecorder()

	handlers.HandleTopArtists(w, req)

	env := decodeEnvelope(t, w)
	if string(env.Data) != "[]" {
		t.Errorf("expected empty JSON array, got %s", env.Data)
	}
}
