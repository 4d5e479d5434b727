// Package transport defines the polymorphic carrier for Messages between
// Peers, common to the MPI, TCP, and thread variants in the
// transport/mpi, transport/tcp, and transport/thread sub-packages.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package transport

import (
	"context"

	"github.com/tweska/multio/core"
)

// Transport is the capability set every variant implements.
// send is synchronous w.r.t. local buffering, asynchronous w.r.t. remote
// processing; receive blocks until the next message addressed to
// LocalPeer() arrives, in arrival order per source but arbitrary order
// across sources.
type Transport interface {
	Send(ctx context.Context, msg *core.Message) error
	Receive(ctx context.Context) (*core.Message, error)
	LocalPeer() core.Peer
	Close() error
}

// Extra carries advanced, optional per-transport knobs.
type Extra struct {
	Compression string // "" | "lz4" - see transport/tcp
	SenderID    string // optional, surfaced in logs/metrics only
}

func (e *Extra) Compressed() bool { return e != nil && e.Compression != "" }
