// Package action implements the pipeline stage catalogue: an ordered
// list of Stages, each either forwarding a (possibly transformed)
// Message exactly once, dropping it, or buffering it internally until a
// later event releases it.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package action

import (
	"context"

	"github.com/tweska/multio/core"
)

// Next is the continuation a Stage calls to forward a message downstream.
// A Stage may call Next zero or one time per incoming message (zero when
// it drops or buffers, one when it forwards immediately or later from a
// buffered release).
type Next func(ctx context.Context, msg *core.Message) error

// Stage is one pipeline element.
type Stage interface {
	// Execute receives msg and must either call next exactly once
	// (possibly with a transformed message), or return nil having
	// dropped/buffered it.
	Execute(ctx context.Context, msg *core.Message, next Next) error
}

// Pipeline is an ordered, fixed list of Stages wired into one call chain.
// A Pipeline is single-threaded cooperative: callers serialize access
// (the listener's per-pipeline mutex) so the stateful stages (Windspeed,
// Aggregate, Statistics) see strictly serial messages.
type Pipeline struct {
	name   string
	stages []Stage
}

// New builds a Pipeline from stages in traversal order.
func New(name string, stages ...Stage) *Pipeline {
	return &Pipeline{name: name, stages: stages}
}

func (p *Pipeline) Name() string { return p.name }

// Execute drives msg through stage 0..n-1, chaining each stage's next to
// the following stage's Execute, terminating the chain at a no-op once
// the stages are exhausted (a Sink stage is expected to be terminal and
// never call next, but the chain tolerates either).
func (p *Pipeline) Execute(ctx context.Context, msg *core.Message) error {
	return p.executeFrom(ctx, 0, msg)
}

func (p *Pipeline) executeFrom(ctx context.Context, idx int, msg *core.Message) error {
	if idx >= len(p.stages) {
		return nil
	}
	stage := p.stages[idx]
	return stage.Execute(ctx, msg, func(ctx context.Context, m *core.Message) error {
		return p.executeFrom(ctx, idx+1, m)
	})
}
