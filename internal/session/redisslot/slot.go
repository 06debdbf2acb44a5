// Package redisslot stores the session slot in Redis so that every replica
// serves the same last result.
package redisslot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/SAWGraph/public/internal/core/observability"
)

const keyPrefix = "sawgraph:slot:"

// Key derives the slot key from a namespace (normally the endpoint URL), so
// deployments against different repositories never share a slot.
func Key(namespace string) string {
	return fmt.Sprintf("%s%016x", keyPrefix, xxhash.Sum64String(namespace))
}

type Slot[T any] struct {
	c   *Client
	key string
	ttl time.Duration
}

// New returns a slot at key; ttl 0 keeps the value until overwritten.
func New[T any](c *Client, key string, ttl time.Duration) *Slot[T] {
	return &Slot[T]{c: c, key: key, ttl: ttl}
}

func (s *Slot[T]) Load(ctx context.Context) (*T, bool, error) {
	b, ok, err := s.c.Get(ctx, s.key)
	observability.ObserveSessionOp("load", err)
	if err != nil || !ok {
		return nil, false, err
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false, fmt.Errorf("decode slot %s: %w", s.key, err)
	}
	return &v, true, nil
}

func (s *Slot[T]) Store(ctx context.Context, v *T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", s.key, err)
	}
	err = s.c.Set(ctx, s.key, b, s.ttl)
	observability.ObserveSessionOp("store", err)
	return err
}
