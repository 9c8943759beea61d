package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestWriteError_AppError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, discard, BadRequest("limit must be positive").WithDetails("got %d", -1), "req-1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			Details   string `json:"details"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("success should be false")
	}
	if resp.Error.Code != string(CodeBadRequest) || resp.Error.Details != "got -1" || resp.Error.RequestID != "req-1" {
		t.Errorf("unexpected error body: %+v", resp.Error)
	}
}

func TestWriteError_WrappedAndPlain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrapped app error", fmt.Errorf("handler: %w", NotFound("chart not found")), http.StatusNotFound},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
		{"unavailable", ServiceUnavailable("no data"), http.StatusServiceUnavailable},
		{"rate limit", RateLimit("slow down"), http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, discard, tt.err, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := InternalWrap(cause, "snapshot failed")
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Error() != "INTERNAL_ERROR: snapshot failed (caused by: disk full)" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, []int{1, 2}, map[string]string{"Cache-Control": "public, max-age=300"})

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("cache-control = %q", cc)
	}
	if body := w.Body.String(); body != "{\"data\":[1,2],\"success\":true}\n" {
		t.Errorf("body = %q", body)
	}
}
