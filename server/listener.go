// Package server implements the server-side receive loop: a Listener
// drives Transport.Receive in a loop, dispatches each message into the
// pipeline keyed by its destination category, and tracks open-client
// count for termination.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package server

import (
	"context"
	"sync"

	"github.com/tweska/multio/action"
	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/nlog"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/transport"
)

// Router resolves a message's destination category to the pipeline that
// should handle it; many pipelines may coexist.
type Router interface {
	Route(msg *core.Message) (*action.Pipeline, bool)
}

// CategoryRouter is a Router backed by a static name->Pipeline table,
// keyed by the "category" metadata key the way Select filters on it.
type CategoryRouter struct {
	pipelines map[string]*action.Pipeline
}

func NewCategoryRouter(pipelines map[string]*action.Pipeline) *CategoryRouter {
	return &CategoryRouter{pipelines: pipelines}
}

func (r *CategoryRouter) Route(msg *core.Message) (*action.Pipeline, bool) {
	cat, ok := msg.Metadata().OptString("category")
	if !ok {
		return nil, false
	}
	p, ok := r.pipelines[cat]
	return p, ok
}

// Listener is the server-side receive loop. One Listener is
// owned by one goroutine running Listen; a sync.Mutex per pipeline
// (dispatchMu, keyed by Pipeline.Name) serializes dispatch so a single
// pipeline sees strictly serial messages, per §5.
type Listener struct {
	t      transport.Transport
	router Router

	mu          sync.Mutex
	openClients map[core.Peer]struct{}
	everOpened  bool

	dispatchMu sync.Map // pipeline name -> *sync.Mutex

	policy cmn.FailurePolicy
}

func New(t transport.Transport, router Router, policy cmn.FailurePolicy) *Listener {
	return &Listener{
		t:           t,
		router:      router,
		openClients: make(map[core.Peer]struct{}),
		policy:      policy,
	}
}

func (l *Listener) pipelineMutex(name string) *sync.Mutex {
	v, _ := l.dispatchMu.LoadOrStore(name, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Listen runs the receive loop until termination or
// a transport error.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		msg, err := l.t.Receive(ctx)
		if err != nil {
			return err
		}
		if done, err := l.handleLifecycle(msg); err != nil {
			return err
		} else if done {
			return nil
		}

		if err := l.dispatch(ctx, msg); err != nil {
			if cmn.IsPerMessagePolicy(err) {
				nlog.Warningf("listener: dropping message after stage error: %v", err)
				if l.policy == cmn.FailureAbort {
					return err
				}
				continue
			}
			return err
		}
	}
}

// handleLifecycle applies the Open/Close termination protocol; StepComplete is forwarded into the pipeline by dispatch and
// does not affect lifecycle (step 4).
func (l *Listener) handleLifecycle(msg *core.Message) (done bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch msg.Tag() {
	case core.Open:
		l.openClients[msg.Source()] = struct{}{}
		l.everOpened = true
	case core.Close:
		delete(l.openClients, msg.Source())
		if l.everOpened && len(l.openClients) == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (l *Listener) dispatch(ctx context.Context, msg *core.Message) error {
	pipeline, ok := l.router.Route(msg)
	if !ok {
		return nil
	}
	mu := l.pipelineMutex(pipeline.Name())
	mu.Lock()
	defer mu.Unlock()
	return pipeline.Execute(ctx, msg)
}
