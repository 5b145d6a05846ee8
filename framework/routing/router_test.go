package routing_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/routing"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router *routing.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// ── routes ───────────────────────────────────────────────────────────────────

func TestRouter_Get(t *testing.T) {
	r := routing.New(logging.Discard())
	r.Get("/hello", okHandler)

	rr := do(t, r, http.MethodGet, "/hello")
	if rr.Code != http.StatusOK {
		t.Errorf("GET /hello: got %d want 200", rr.Code)
	}
	rr = do(t, r, http.MethodPost, "/hello")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /hello: got %d want 405", rr.Code)
	}
}

func TestRouter_Prefix(t *testing.T) {
	r := routing.New(logging.Discard())
	r.Prefix("/debug/ioc", func(sub *routing.Router) {
		sub.Get("/objects/{id}", func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte(routing.Param(req, "id")))
		})
	})

	rr := do(t, r, http.MethodGet, "/debug/ioc/objects/MovieLister")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rr.Code)
	}
	if body := rr.Body.String(); body != "MovieLister" {
		t.Errorf("param: got %q want MovieLister", body)
	}
	if rr := do(t, r, http.MethodGet, "/objects/MovieLister"); rr.Code != http.StatusNotFound {
		t.Errorf("unprefixed: got %d want 404", rr.Code)
	}
}

func TestRouter_Middleware(t *testing.T) {
	r := routing.New(logging.Discard())
	r.Middleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Container", "ioc")
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/", okHandler)

	rr := do(t, r, http.MethodGet, "/")
	if got := rr.Header().Get("X-Container"); got != "ioc" {
		t.Errorf("X-Container: got %q want ioc", got)
	}
}

func TestRouter_RecoversAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug", "json")
	if err != nil {
		t.Fatal(err)
	}
	r := routing.New(logger)
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := do(t, r, http.MethodGet, "/panic")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d want 500", rr.Code)
	}
	if !strings.Contains(buf.String(), `"path":"/panic"`) {
		t.Errorf("request was not logged: %s", buf.String())
	}
}

func TestRouter_Routes(t *testing.T) {
	r := routing.New(logging.Discard())
	r.Get("/definitions", okHandler)
	r.Prefix("/debug/ioc", func(sub *routing.Router) {
		sub.Get("/objects/{id}", okHandler)
	})

	got := strings.Join(r.Routes(), ", ")
	want := "GET /debug/ioc/objects/{id}, GET /definitions"
	if got != want {
		t.Errorf("Routes: got %q want %q", got, want)
	}
}
