// Package session holds the single "last result" slot shown to users. The
// slot has capacity one: every Store replaces whatever was there.
package session

import (
	"context"
	"sync/atomic"

	"github.com/SAWGraph/public/internal/core/observability"
)

type Slot[T any] interface {
	Load(ctx context.Context) (*T, bool, error)
	Store(ctx context.Context, v *T) error
}

// Memory is a process-local slot.
type Memory[T any] struct {
	p atomic.Pointer[T]
}

func NewMemory[T any]() *Memory[T] { return &Memory[T]{} }

func (m *Memory[T]) Load(_ context.Context) (*T, bool, error) {
	v := m.p.Load()
	observability.ObserveSessionOp("load", nil)
	return v, v != nil, nil
}

func (m *Memory[T]) Store(_ context.Context, v *T) error {
	m.p.Store(v)
	observability.ObserveSessionOp("store", nil)
	return nil
}
