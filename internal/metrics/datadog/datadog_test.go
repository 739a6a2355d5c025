package datadog

import (
	"reflect"
	"testing"

	"tmdbetl/internal/metrics"
)

type sent struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	sent   []sent
	closed bool
}

func (f *fakeClient) Count(name string, value int64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"count", name, float64(value), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"histogram", name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("expected error for empty Addr")
	}
}

func TestNewBackend_UDP(t *testing.T) {
	b, err := NewBackend(Config{Addr: "127.0.0.1:8125", Namespace: "tmdb.", GlobalTags: []string{"env:test"}})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestBackend_ForwardsWithTags(t *testing.T) {
	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RecordsTotal, 4800, metrics.Labels{"kind": "merged", "job": "tmdb"})
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "clean"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []sent{
		{"count", metrics.RecordsTotal, 4800, []string{"job:tmdb", "kind:merged"}},
		{"histogram", metrics.StepDuration, 0.25, []string{"step:clean"}},
	}
	if !reflect.DeepEqual(fc.sent, want) {
		t.Fatalf("sent = %#v\nwant %#v", fc.sent, want)
	}
	if !fc.closed {
		t.Fatal("Flush did not close the client")
	}
}

func TestBackend_NilClient(t *testing.T) {
	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v", got)
	}
}
