package http_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gohttp "github.com/km-arc/go-ioc/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decodeJSON: %v", err)
	}
	return m
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q want application/json", ct)
	}
	m := decodeJSON(t, rr)
	if m["key"] != "val" {
		t.Errorf("body key: got %v want val", m["key"])
	}
}

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success(map[string]any{"id": "MovieLister"})

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	m := decodeJSON(t, rr)
	data, ok := m["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %T", m["data"])
	}
	if data["id"] != "MovieLister" {
		t.Errorf("data.id: got %v want MovieLister", data["id"])
	}
}

// ── Errors ────────────────────────────────────────────────────────────────────

func TestResponse_Error(t *testing.T) {
	res, rr := newResponse(t)
	res.Error(http.StatusServiceUnavailable, "down")

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d want 503", rr.Code)
	}
	if m := decodeJSON(t, rr); m["message"] != "down" {
		t.Errorf("message: got %v want down", m["message"])
	}
}

func TestResponse_NotFound(t *testing.T) {
	tests := []struct {
		format string
		args   []any
		want   string
	}{
		{"", nil, "Not found."},
		{"No definition %q.", []any{"lister"}, `No definition "lister".`},
		{"Gone.", nil, "Gone."},
	}
	for _, tt := range tests {
		res, rr := newResponse(t)
		res.NotFound(tt.format, tt.args...)

		if rr.Code != http.StatusNotFound {
			t.Errorf("status: got %d want 404", rr.Code)
		}
		if m := decodeJSON(t, rr); m["message"] != tt.want {
			t.Errorf("message: got %v want %q", m["message"], tt.want)
		}
	}
}

// ── Listings ──────────────────────────────────────────────────────────────────

func TestResponse_List(t *testing.T) {
	res, rr := newResponse(t)
	res.List([]string{"a", "b"}, 2)

	m := decodeJSON(t, rr)
	items, ok := m["data"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("data: got %v want two items", m["data"])
	}
	meta, ok := m["meta"].(map[string]any)
	if !ok || meta["count"] != float64(2) {
		t.Errorf("meta: got %v want count 2", m["meta"])
	}
}

// ── Encoding failures ─────────────────────────────────────────────────────────

func TestResponse_UnencodableIsServerError(t *testing.T) {
	var logs bytes.Buffer
	res, rr := newResponse(t)
	res.WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	res.Success(map[string]any{"ch": make(chan int)})

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d want 500", rr.Code)
	}
	if m := decodeJSON(t, rr); m["message"] != "Response could not be encoded." {
		t.Errorf("message: got %v", m["message"])
	}
	if !strings.Contains(logs.String(), "encoding response failed") {
		t.Errorf("expected the failure to be logged, got %q", logs.String())
	}
}
