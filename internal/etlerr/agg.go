package etlerr

import (
	"sort"
	"sync"
)

// Agg collects soft, per-row error messages. It keeps the first limit
// messages verbatim and counts every message by text so a run can end with a
// short summary instead of one log line per bad row. Safe for concurrent use.
type Agg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

// NewAgg returns an Agg that keeps at most limit messages verbatim.
func NewAgg(limit int) *Agg {
	return &Agg{limit: limit, buckets: make(map[string]int)}
}

// Add records one occurrence of msg.
func (a *Agg) Add(msg string) {
	a.mu.Lock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// Count returns the total number of messages added.
func (a *Agg) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// First returns a copy of the retained messages in insertion order.
func (a *Agg) First() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.first...)
}

// Bucket is one distinct message and how often it occurred.
type Bucket struct {
	Message string
	Count   int
}

// Top returns up to n distinct messages ordered by count desc, then message.
func (a *Agg) Top(n int) []Bucket {
	a.mu.Lock()
	out := make([]Bucket, 0, len(a.buckets))
	for m, c := range a.buckets {
		out = append(out, Bucket{Message: m, Count: c})
	}
	a.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
