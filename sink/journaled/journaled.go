// Package journaled wraps another sink.DataSink with a journal append
// per write, so every terminal write has crash-recovery
// context in the journal.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package journaled

import (
	"context"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/journal"
	"github.com/tweska/multio/sink"
)

type Sink struct {
	inner  sink.DataSink
	j      *journal.Writer
	sinkID uint32
}

func New(inner sink.DataSink, j *journal.Writer, sinkID uint32) *Sink {
	return &Sink{inner: inner, j: j, sinkID: sinkID}
}

// Write appends a Data+Write entry to the journal's current record and
// closes the record before (and regardless of the outcome of) delegating
// to the inner sink - one record per write, matching the
// "exactly one Data entry per record" invariant for the common single-
// sink-per-write case; a journaled sink shared across a multi-sink
// fan-out should instead call journal.Writer.AppendWrite directly per
// replica and close once, which this type does not attempt to model.
func (s *Sink) Write(ctx context.Context, msg *core.Message) error {
	if err := s.j.AppendWrite(msg, s.sinkID); err != nil {
		return err
	}
	if err := s.j.CloseRecord(); err != nil {
		return err
	}
	if err := s.inner.Write(ctx, msg); err != nil {
		return cmn.NewSinkFailure("journaled", err)
	}
	return nil
}

func (s *Sink) Flush(ctx context.Context) error {
	return s.inner.Flush(ctx)
}
