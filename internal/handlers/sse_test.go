package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNewSSEHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := testLogger()

	handlers := NewSSEHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}

	if handlers.analytics != analytics {
		t.Error("NewSSEHandlers() should set analytics field")
	}

	if handlers.logger != logger {
		t.Error("NewSSEHandlers() should set logger field")
	}
}

func serveSSE(t *testing.T, handler http.HandlerFunc, target string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "datastar-patch-elements") {
		t.Errorf("expected an element patch event, got %q", body)
	}
	return body
}

func TestSSEHandlers_Sections(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []string
	}{
		{"metrics", handlers.HandleMetrics, []string{`id="metrics-content"`, "Average ticket"}},
		{"top-artists", handlers.HandleTopArtists, []string{`id="artists-content"`, "Alpha", "$30.00"}},
		{"top-countries", handlers.HandleTopCountries, []string{`id="countries-content"`, "United States"}},
		{"engagement", handlers.HandleEngagement, []string{`id="engagement-content"`, "Alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := serveSSE(t, tt.handler, "/sse/"+tt.name)
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("expected SSE stream to contain %q", want)
				}
			}
		})
	}
}

func TestSSEHandlers_HandlePreview(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	body := serveSSE(t, handlers.HandlePreview, "/sse/preview")
	for _, want := range []string{`id="preview-content"`, "First Light", "Second Wind"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected unfiltered preview to contain %q", want)
		}
	}
}

func TestSSEHandlers_HandlePreview_ArtistSignal(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	target := "/sse/preview?datastar=" + url.QueryEscape(`{"artist":"Beta"}`)
	body := serveSSE(t, handlers.HandlePreview, target)

	if !strings.Contains(body, "Second Wind") {
		t.Error("expected Beta's album in the filtered preview")
	}
	if strings.Contains(body, "First Light") {
		t.Error("expected other artists to be filtered out")
	}
}

func TestSSEHandlers_HandlePreview_UnknownArtist(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	target := "/sse/preview?datastar=" + url.QueryEscape(`{"artist":"Nobody"}`)
	body := serveSSE(t, handlers.HandlePreview, target)

	if !strings.Contains(body, "No sales match this filter") {
		t.Error("expected the empty preview message")
	}
}

func TestSSEHandlers_HandleRefreshAll(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())

	body := serveSSE(t, handlers.HandleRefreshAll, "/sse/refresh-all")

	for _, want := range []string{
		`id="metrics-content"`,
		`id="countries-content"`,
		`id="artists-content"`,
		`id="engagement-content"`,
		`id="histogram-content"`,
		`id="summary-content"`,
		`id="artist-filter"`,
		`id="preview-content"`,
		"datastar-patch-signals",
		"recordCount",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected refresh-all stream to contain %q", want)
		}
	}
}

func TestSSEHandlers_EmptyAnalytics(t *testing.T) {
	handlers := NewSSEHandlers(createTestAnalytics(), testLogger())
	handlers.analytics.SetData(nil)

	body := serveSSE(t, handlers.HandleTopArtists, "/sse/top-artists")
	if !strings.Contains(body, "No data") {
		t.Error("expected the empty table message")
	}
}
