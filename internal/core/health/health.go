package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// RepositoryProber reports the statement count of the backing repository.
type RepositoryProber interface {
	RepositorySize(ctx context.Context) (int64, error)
}

// Readiness is ready when the repository answers its size probe within timeout.
func Readiness(p RepositoryProber, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status     string `json:"status"`
			Statements int64  `json:"statements,omitempty"`
			Error      string `json:"error,omitempty"`
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		out := resp{Status: "ready"}
		n, err := p.RepositorySize(ctx)
		if err != nil {
			out = resp{Status: "not_ready", Error: err.Error()}
		} else {
			out.Statements = n
		}
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
