// Package stats implements the running IOStats counters: per-operation
// counts, byte totals, and timing with a streaming variance accumulator,
// reported via Report(stream).
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package stats

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

// IOStats is not thread-safe by itself; callers must lock.
type IOStats struct {
	NumReads, NumWrites     int64
	BytesRead, BytesWritten int64

	sumBytesSquared float64
	sumTime         float64
	sumTimeSquared  float64
}

// RecordRead/RecordWrite update the counters for one completed operation
// of the given size and elapsed duration.
func (s *IOStats) RecordRead(n int, d time.Duration)  { s.record(&s.NumReads, &s.BytesRead, n, d) }
func (s *IOStats) RecordWrite(n int, d time.Duration) { s.record(&s.NumWrites, &s.BytesWritten, n, d) }

func (s *IOStats) record(count, bytes *int64, n int, d time.Duration) {
	*count++
	*bytes += int64(n)
	s.sumBytesSquared += float64(n) * float64(n)
	secs := d.Seconds()
	s.sumTime += secs
	s.sumTimeSquared += secs * secs
}

// StdDevTime returns the population standard deviation of per-operation
// latency using √(n·Σx² − (Σx)²) / n; 0 when count == 0.
func (s *IOStats) StdDevTime() float64 {
	n := s.NumReads + s.NumWrites
	if n == 0 {
		return 0
	}
	nf := float64(n)
	v := nf*s.sumTimeSquared - s.sumTime*s.sumTime
	if v < 0 { // guard against floating-point underflow near zero
		v = 0
	}
	return math.Sqrt(v) / nf
}

// Report writes a human-readable summary to stream.
func (s *IOStats) Report(stream io.Writer) {
	fmt.Fprintf(stream, "reads.n=%d writes.n=%d read.size=%d write.size=%d time.stddev=%.6f\n",
		s.NumReads, s.NumWrites, s.BytesRead, s.BytesWritten, s.StdDevTime())
}

// Registry aggregates one IOStats per named sink, for the server's
// fasthttp /stats endpoint.
type Registry struct {
	mu     sync.Mutex
	byName map[string]*IOStats
}

func NewRegistry() *Registry { return &Registry{byName: make(map[string]*IOStats)} }

func (r *Registry) Get(name string) *IOStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byName[name]
	if !ok {
		s = &IOStats{}
		r.byName[name] = s
	}
	return s
}

func (r *Registry) ReportAll(stream io.Writer) {
	r.mu.Lock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	r.mu.Unlock()
	for _, n := range names {
		fmt.Fprintf(stream, "%s: ", n)
		r.Get(n).Report(stream)
	}
}
