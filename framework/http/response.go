package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response writes the inspector's JSON envelopes:
//
//	{"data": ...}                       one item
//	{"data": [...], "meta": {"count": n}} a listing
//	{"message": "..."}                  an error
type Response struct {
	w      http.ResponseWriter
	logger *slog.Logger
}

// NewResponse wraps a ResponseWriter. Encoding failures are logged to
// slog.Default unless WithLogger sets another logger.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w, logger: slog.Default()}
}

// WithLogger sets the logger encoding failures are reported to.
func (res *Response) WithLogger(l *slog.Logger) *Response {
	if l != nil {
		res.logger = l
	}
	return res
}

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON encodes data before writing anything, so a value that cannot be
// encoded becomes a 500 instead of a truncated body.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		res.logger.Error("encoding response failed", "error", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(envelope{"message": "Response could not be encoded."})
	}
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_, _ = res.w.Write(buf.Bytes())
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// List sends 200 JSON with the number of items alongside them.
func (res *Response) List(items any, count int) {
	res.JSON(http.StatusOK, envelope{"data": items, "meta": envelope{"count": count}})
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusServiceUnavailable, "No container attached.")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404 with a formatted message.
//
//	res.NotFound("No definition %q.", id)
func (res *Response) NotFound(format string, args ...any) {
	msg := "Not found."
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	res.Error(http.StatusNotFound, msg)
}

type envelope map[string]any
