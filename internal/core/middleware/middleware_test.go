package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mylog "github.com/SAWGraph/public/internal/logger"
)

func TestLogging_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seen string
	h := Logging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = mylog.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/last", nil))
	if seen == "" || rr.Header().Get("X-Request-ID") != seen {
		t.Fatalf("request id: ctx=%q header=%q", seen, rr.Header().Get("X-Request-ID"))
	}
	if !strings.Contains(buf.String(), `"status":418`) {
		t.Fatalf("log line missing status: %s", buf.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "abc123" {
		t.Fatalf("incoming request id should be kept, got %q", seen)
	}
}

func TestRecover(t *testing.T) {
	l := slog.New(slog.DiscardHandler)
	h := Recover(l)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/query", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS()(http.NotFoundHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/query", nil))
	if rr.Code != http.StatusNoContent || !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatalf("preflight: %d %v", rr.Code, rr.Header())
	}
}
