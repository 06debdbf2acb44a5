package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SAWGraph/public/internal/core/observability"
	"github.com/SAWGraph/public/internal/pipeline"
	"github.com/SAWGraph/public/internal/sparql/query"
	"github.com/SAWGraph/public/internal/vocabulary"
)

// Runner executes selections and serves the session slot.
type Runner interface {
	Run(ctx context.Context, spec query.Spec) (*pipeline.View, error)
	Last(ctx context.Context) (*pipeline.View, bool, error)
	Vocabulary() *vocabulary.Vocabulary
}

// validates the selection and runs the batch
func HandleQuery(logger *slog.Logger, rn Runner) http.HandlerFunc {
	logger = orDiscard(logger)
	return instrument("/api/query", func(w http.ResponseWriter, r *http.Request) {
		spec, err := ParseSelection(r, rn.Vocabulary())
		if err != nil {
			logger.DebugContext(r.Context(), "invalid selection", "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		view, err := rn.Run(r.Context(), spec)
		if err != nil {
			status := http.StatusInternalServerError
			if isSelectionError(err) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, http.StatusOK, view)
	})
}

func HandleLast(logger *slog.Logger, rn Runner) http.HandlerFunc {
	logger = orDiscard(logger)
	return instrument("/api/last", func(w http.ResponseWriter, r *http.Request) {
		view, ok, err := rn.Last(r.Context())
		if err != nil {
			logger.ErrorContext(r.Context(), "session load failed", "err", err)
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, view)
	})
}

type vocabularyResponse struct {
	*vocabulary.Vocabulary
	Shapes []shapeInfo `json:"shapes"`
}

type shapeInfo struct {
	ID            query.Shape `json:"id"`
	Title         string      `json:"title"`
	CountyBounded bool        `json:"countyBounded"`
}

func HandleVocabulary(rn Runner) http.HandlerFunc {
	return instrument("/api/vocabulary", func(w http.ResponseWriter, _ *http.Request) {
		out := vocabularyResponse{Vocabulary: rn.Vocabulary()}
		for _, sh := range query.PrimaryShapes() {
			out.Shapes = append(out.Shapes, shapeInfo{ID: sh, Title: query.Title(sh), CountyBounded: query.CountyBounded(sh)})
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func isSelectionError(err error) bool {
	return errors.Is(err, vocabulary.ErrUnknownLabel) ||
		errors.Is(err, query.ErrUnknownShape) ||
		errors.Is(err, query.ErrInvalidLimit) ||
		errors.Is(err, query.ErrInvalidDepth)
}

func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
