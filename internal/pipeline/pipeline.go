// Package pipeline runs one user interaction end to end: plan the query batch,
// execute it sequentially, materialize geometry and compose the map view.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAWGraph/public/internal/core/observability"
	"github.com/SAWGraph/public/internal/geo"
	"github.com/SAWGraph/public/internal/logger"
	"github.com/SAWGraph/public/internal/mapper"
	"github.com/SAWGraph/public/internal/mapview"
	"github.com/SAWGraph/public/internal/queryevents"
	"github.com/SAWGraph/public/internal/session"
	"github.com/SAWGraph/public/internal/sparql/client"
	"github.com/SAWGraph/public/internal/sparql/query"
	"github.com/SAWGraph/public/internal/sparql/results"
	"github.com/SAWGraph/public/internal/vocabulary"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

type Options struct {
	Style  mapview.Style
	Cells  mapper.Interface
	Slot   session.Slot[View]
	Events queryevents.Sink
}

type Service struct {
	logger *slog.Logger
	exec   client.Executor
	vocab  *vocabulary.Vocabulary
	opts   Options
	now    func() time.Time
}

func New(logger *slog.Logger, exec client.Executor, vocab *vocabulary.Vocabulary, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if opts.Style.DisplayItems == 0 {
		opts.Style = mapview.DefaultStyle()
	}
	if opts.Slot == nil {
		opts.Slot = session.NewMemory[View]()
	}
	if opts.Events == nil {
		opts.Events = queryevents.Nop{}
	}
	return &Service{logger: logger, exec: exec, vocab: vocab, opts: opts, now: time.Now}
}

func (s *Service) Vocabulary() *vocabulary.Vocabulary { return s.vocab }

// Last returns the slot contents.
func (s *Service) Last(ctx context.Context) (*View, bool, error) {
	return s.opts.Slot.Load(ctx)
}

// Run executes the batch for spec. The returned error is reserved for an
// invalid spec; query failures are reported as messages on the View.
func (s *Service) Run(ctx context.Context, spec query.Spec) (*View, error) {
	batch, err := query.Plan(spec, s.vocab)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithShape(ctx, string(spec.Shape))

	view := &View{
		Label: query.Title(spec.Shape),
		Selection: Selection{
			Shape:      spec.Shape,
			Industries: spec.Industries,
			Counties:   spec.Counties,
			Limit:      spec.Limit,
			Depth:      spec.Depth,
		},
		At: s.now().UTC(),
	}

	sets := make([]mapview.LayerSet, 0, len(batch))
	primaryOK := true
	for i, q := range batch {
		t, res := s.execute(ctx, q)
		if q.Set == query.SetFacilities {
			catalogLabels(t, s.vocab)
		}
		view.Sets = append(view.Sets, res.SetResult)
		if res.Status != statusOK {
			view.addMessage(LevelError, fmt.Sprintf("%s: %s", query.Title(q.Shape), res.errText))
			if i == 0 {
				primaryOK = false
			}
		} else if t.Len() == 0 && i == 0 {
			view.addMessage(LevelInfo, fmt.Sprintf("%s: no results for this selection", query.Title(q.Shape)))
		}
		sets = append(sets, layerSet(q, spec.Shape, t))
	}

	view.Map = mapview.Compose(sets, s.opts.Style)
	view.Tables, err = mapview.Summaries(sets, s.opts.Style, s.opts.Cells)
	if err != nil {
		view.addMessage(LevelWarning, "summaries: "+err.Error())
		view.Tables, _ = mapview.Summaries(sets, s.opts.Style, nil)
	}

	if !primaryOK {
		s.logger.WarnContext(ctx, "primary query failed; keeping previous results")
		return view, nil
	}
	view.Stored = true
	if err := s.opts.Slot.Store(ctx, view); err != nil {
		view.Stored = false
		view.addMessage(LevelWarning, "results could not be saved to the session")
		s.logger.ErrorContext(ctx, "session store failed", "err", err)
	}
	return view, nil
}

type setResult struct {
	SetResult
	errText string
}

// execute runs one query and returns its geometry table. Any failure yields
// an empty table with the geometry column set so composition stays uniform.
func (s *Service) execute(ctx context.Context, q query.Query) (geo.Table, setResult) {
	ctx = logger.WithQueryHash(ctx, q.Hash)
	empty := geo.Table{GeometryColumn: query.GeometryColumn(q.Shape), CRS: geo.CRS}
	out := setResult{SetResult: SetResult{
		Set:       q.Set,
		Title:     query.Title(q.Shape),
		QueryHash: q.Hash,
	}}

	s.logger.DebugContext(ctx, "executing query", "set", q.Set, "query", q.Text)
	start := s.now()
	raw, err := s.exec.Execute(ctx, q.Text)
	var t geo.Table
	if err == nil {
		var tbl results.Table
		tbl, err = results.Normalize(raw)
		if err == nil {
			t, err = geo.Attach(tbl, query.GeometryColumn(q.Shape))
		}
	}
	dur := s.now().Sub(start)
	out.Duration = dur.Round(time.Millisecond).String()

	if err != nil {
		out.Status = statusError
		out.ErrorKind = errorKind(err)
		out.errText = userText(err)
		observability.ObserveQuery(string(q.Shape), out.ErrorKind, dur.Seconds(), 0)
		s.logger.WarnContext(ctx, "query failed", "set", q.Set, "kind", out.ErrorKind, "err", err, "duration", out.Duration)
		s.publish(q, out.SetResult, dur)
		return empty, out
	}

	out.Status = statusOK
	out.Rows = t.Len()
	observability.ObserveQuery(string(q.Shape), statusOK, dur.Seconds(), t.Len())
	s.logger.InfoContext(ctx, "query done", "set", q.Set, "rows", t.Len(), "duration", out.Duration)
	s.publish(q, out.SetResult, dur)
	return t, out
}

func (s *Service) publish(q query.Query, r SetResult, dur time.Duration) {
	s.opts.Events.Publish(queryevents.Event{
		Shape:      string(q.Shape),
		Set:        q.Set,
		QueryHash:  q.Hash,
		Status:     r.Status,
		ErrorKind:  r.ErrorKind,
		Rows:       r.Rows,
		DurationMS: dur.Milliseconds(),
		TS:         s.now().UTC(),
	})
}

func errorKind(err error) string {
	if k := client.KindOf(err); k != "" {
		return string(k)
	}
	var ge *geo.GeometryParseError
	switch {
	case errors.As(err, &ge):
		return "geometry_parse"
	case errors.Is(err, results.ErrMalformed):
		return string(client.KindMalformed)
	}
	return "internal"
}

// userText is the message shown in the UI. It never carries query text or
// credentials.
func userText(err error) string {
	switch client.KindOf(err) {
	case client.KindConnectivity:
		return "the SPARQL endpoint could not be reached"
	case client.KindAuthentication:
		return "the SPARQL endpoint rejected the configured credentials"
	case client.KindTimeout:
		return "the query timed out; try a smaller limit or the fast depth"
	case client.KindMalformed:
		return "the SPARQL endpoint returned an unexpected response"
	}
	var ge *geo.GeometryParseError
	if errors.As(err, &ge) {
		return fmt.Sprintf("invalid geometry in row %d (%s)", ge.Row, ge.Column)
	}
	if errors.Is(err, results.ErrMalformed) {
		return "the SPARQL endpoint returned an unexpected response"
	}
	return err.Error()
}
