package publish

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Stats tracks in-memory publish counters per topic class. All methods are
// concurrency-safe and nil-receiver-safe so callers can pass a nil *Stats
// when they do not care.
type Stats struct {
	mu        sync.Mutex
	published map[string]uint64
	failed    map[string]uint64
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{
		published: make(map[string]uint64),
		failed:    make(map[string]uint64),
	}
}

// RecordPublish counts one publish attempt for the class.
func (s *Stats) RecordPublish(class string, err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed[class]++
		return
	}
	s.published[class]++
}

// StatsSnapshot is a copy of the current counter values, safe to read
// without holding the mutex.
type StatsSnapshot struct {
	Published map[string]uint64
	Failed    map[string]uint64
}

// TotalPublished sums the successful publishes across classes.
func (s StatsSnapshot) TotalPublished() uint64 {
	var n uint64
	for _, v := range s.Published {
		n += v
	}
	return n
}

// TotalFailed sums the failed publishes across classes.
func (s StatsSnapshot) TotalFailed() uint64 {
	var n uint64
	for _, v := range s.Failed {
		n += v
	}
	return n
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Published: make(map[string]uint64),
		Failed:    make(map[string]uint64),
	}
	if s == nil {
		return snap
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.published {
		snap.Published[k] = v
	}
	for k, v := range s.failed {
		snap.Failed[k] = v
	}
	return snap
}

// String renders a one-line summary like
// "published=42 failed=1 (ecg=30 location=10 vitals=2)".
func (s *Stats) String() string {
	snap := s.Snapshot()

	classes := make([]string, 0, len(snap.Published))
	for class := range snap.Published {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	parts := make([]string, 0, len(classes))
	for _, class := range classes {
		parts = append(parts, fmt.Sprintf("%s=%d", class, snap.Published[class]))
	}

	summary := fmt.Sprintf("published=%d failed=%d", snap.TotalPublished(), snap.TotalFailed())
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, " ") + ")"
	}
	return summary
}
