// Package debuglog keeps the most recent diagnostic probe runs in memory.
package debuglog

import (
	"sort"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Entry struct {
	Seq      uint64    `json:"seq"`
	At       time.Time `json:"at"`
	Probe    string    `json:"probe"`
	Status   string    `json:"status"`
	Duration string    `json:"duration"`
	Rows     int       `json:"rows"`
	Error    string    `json:"error,omitempty"`
	Query    string    `json:"query"`
}

// Log evicts the oldest entry once size is reached.
type Log struct {
	seq atomic.Uint64
	lru *lru.Cache[uint64, Entry]
}

func New(size int) *Log {
	if size <= 0 {
		size = 10
	}
	c, _ := lru.New[uint64, Entry](size)
	return &Log{lru: c}
}

func (l *Log) Add(e Entry) Entry {
	e.Seq = l.seq.Add(1)
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	l.lru.Add(e.Seq, e)
	return e
}

// Recent returns entries newest first.
func (l *Log) Recent() []Entry {
	out := make([]Entry, 0, l.lru.Len())
	for _, k := range l.lru.Keys() {
		if e, ok := l.lru.Peek(k); ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out
}

func (l *Log) Clear() { l.lru.Purge() }
