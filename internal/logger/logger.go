// Package logger builds the process zerolog logger and carries per-request
// fields (request id, component, query shape, query hash) on the context.
package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level     string
	Console   bool
	SampleN   int
	Service   string
	Component string
}

// fields is copied on every With* call; a context never sees later changes.
type fields struct {
	requestID string
	component string
	shape     string
	queryHash string
}

type fieldsKey struct{}

func fromCtx(ctx context.Context) fields {
	f, _ := ctx.Value(fieldsKey{}).(fields)
	return f
}

func with(ctx context.Context, set func(*fields)) context.Context {
	f := fromCtx(ctx)
	set(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// WithRequestID stores id, generating one when empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewID()
	}
	return with(ctx, func(f *fields) { f.requestID = id })
}

func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return with(ctx, func(f *fields) { f.component = component })
}

// WithShape tags log lines with the query shape being executed.
func WithShape(ctx context.Context, shape string) context.Context {
	if shape == "" {
		return ctx
	}
	return with(ctx, func(f *fields) { f.shape = shape })
}

func WithQueryHash(ctx context.Context, hash string) context.Context {
	if hash == "" {
		return ctx
	}
	return with(ctx, func(f *fields) { f.queryHash = hash })
}

func RequestID(ctx context.Context) string { return fromCtx(ctx).requestID }

// NewID is 16 hex chars of crypto randomness.
func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Build configures zerolog's globals and returns the base logger. Unknown
// levels fall back to info.
func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.MessageFieldName = "msg"

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	base := zerolog.New(out)
	if cfg.SampleN > 1 {
		base = base.Sample(&zerolog.BasicSampler{N: uint32(min(uint64(cfg.SampleN), math.MaxUint32))})
	}

	c := base.With().Timestamp()
	if cfg.Service != "" {
		c = c.Str("service", cfg.Service)
	}
	if cfg.Component != "" {
		c = c.Str("component", cfg.Component)
	}
	return c.Logger()
}

// FromContext returns parent with the context's fields attached. A nil
// parent logs nowhere.
func FromContext(ctx context.Context, parent *zerolog.Logger) *zerolog.Logger {
	if parent == nil {
		l := zerolog.Nop()
		return &l
	}
	f := fromCtx(ctx)
	if f == (fields{}) {
		return parent
	}
	c := parent.With()
	for _, kv := range [...][2]string{
		{"request_id", f.requestID},
		{"component", f.component},
		{"shape", f.shape},
		{"query_hash", f.queryHash},
	} {
		if kv[1] != "" {
			c = c.Str(kv[0], kv[1])
		}
	}
	l := c.Logger()
	return &l
}
