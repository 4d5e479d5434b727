package stats_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tweska/multio/stats"
)

func TestRecordWriteAccumulatesCountsAndBytes(t *testing.T) {
	s := &stats.IOStats{}
	s.RecordWrite(100, 10*time.Millisecond)
	s.RecordWrite(200, 20*time.Millisecond)

	if s.NumWrites != 2 {
		t.Fatalf("expected 2 writes, got %d", s.NumWrites)
	}
	if s.BytesWritten != 300 {
		t.Fatalf("expected 300 bytes written, got %d", s.BytesWritten)
	}
}

func TestStdDevTimeZeroWhenNoOperations(t *testing.T) {
	s := &stats.IOStats{}
	if got := s.StdDevTime(); got != 0 {
		t.Fatalf("expected 0 stddev with no ops, got %v", got)
	}
}

func TestReportIncludesCounters(t *testing.T) {
	s := &stats.IOStats{}
	s.RecordRead(50, time.Millisecond)
	s.RecordWrite(75, 2*time.Millisecond)

	var buf bytes.Buffer
	s.Report(&buf)
	out := buf.String()
	if !strings.Contains(out, "reads.n=1") || !strings.Contains(out, "writes.n=1") {
		t.Fatalf("report missing expected counters: %s", out)
	}
}

func TestRegistryGetIsStablePerName(t *testing.T) {
	r := stats.NewRegistry()
	a := r.Get("sinkA")
	a.RecordWrite(10, time.Millisecond)

	again := r.Get("sinkA")
	if again.BytesWritten != 10 {
		t.Fatalf("expected the same IOStats instance for repeated Get, got BytesWritten=%d", again.BytesWritten)
	}

	b := r.Get("sinkB")
	if b.BytesWritten != 0 {
		t.Fatalf("expected a fresh IOStats for a new name, got BytesWritten=%d", b.BytesWritten)
	}
}
