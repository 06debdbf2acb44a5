package router

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SAWGraph/public/internal/debuglog"
	"github.com/SAWGraph/public/internal/sparql/client"
	"github.com/SAWGraph/public/internal/sparql/query"
	"github.com/SAWGraph/public/internal/sparql/results"
)

const (
	debugPreviewRows    = 10
	debugMinTimeout     = 5 * time.Second
	debugMaxTimeout     = 60 * time.Second
	debugDefaultTimeout = 30 * time.Second
)

func HandleProbes() http.HandlerFunc {
	return instrument("/api/debug/probes", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, query.Probes())
	})
}

type debugRunResponse struct {
	Entry   debuglog.Entry   `json:"entry"`
	Timeout string           `json:"timeout"`
	Columns []string         `json:"columns,omitempty"`
	Rows    []results.Record `json:"rows,omitempty"`
}

// HandleDebugRun executes one canned probe: POST /api/debug/run?probe=count&timeout=10s.
// timeout is clamped to 5s..60s and can never exceed the client's own
// request timeout (SPARQL_TIMEOUT); the effective value is echoed back.
// Failures are reported in the entry with status 200 so the page can show them.
func HandleDebugRun(logger *slog.Logger, exec client.Executor, log *debuglog.Log) http.HandlerFunc {
	logger = orDiscard(logger)
	return instrument("/api/debug/run", func(w http.ResponseWriter, r *http.Request) {
		p, err := query.LookupProbe(strings.TrimSpace(r.URL.Query().Get("probe")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		timeout := debugDefaultTimeout
		if raw := r.URL.Query().Get("timeout"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				http.Error(w, "timeout must be a duration such as 10s", http.StatusBadRequest)
				return
			}
			timeout = min(max(d, debugMinTimeout), debugMaxTimeout)
		}
		if c, ok := exec.(interface{ Timeout() time.Duration }); ok && c.Timeout() > 0 {
			timeout = min(timeout, c.Timeout())
		}

		out := runProbe(r.Context(), exec, p, timeout)
		out.Timeout = timeout.String()
		out.Entry = log.Add(out.Entry)
		logger.InfoContext(r.Context(), "debug probe",
			"probe", p.ID,
			"status", out.Entry.Status,
			"rows", out.Entry.Rows,
			"duration", out.Entry.Duration)
		writeJSON(w, http.StatusOK, out)
	})
}

func runProbe(ctx context.Context, exec client.Executor, p query.Probe, timeout time.Duration) debugRunResponse {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e := debuglog.Entry{Probe: p.ID, Query: p.Text}
	start := time.Now()
	raw, err := exec.Execute(ctx, p.Text)
	var t results.Table
	if err == nil {
		t, err = results.Normalize(raw)
	}
	e.Duration = time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		e.Status = "error"
		e.Error = err.Error()
		return debugRunResponse{Entry: e}
	}

	e.Status = "ok"
	e.Rows = t.Len()
	rows := t.Rows
	if len(rows) > debugPreviewRows {
		rows = rows[:debugPreviewRows]
	}
	return debugRunResponse{Entry: e, Columns: t.Columns, Rows: rows}
}

func HandleDebugLog(log *debuglog.Log) http.HandlerFunc {
	return instrument("/api/debug/log", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			log.Clear()
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, log.Recent())
	})
}
