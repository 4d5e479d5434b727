// Package mpi provides the MPI Transport variant. multio's C++ original
// backs this with real MPI point-to-point calls; here it is specified as
// an interface-compatible stand-in over the same in-process queue
// plumbing as transport/thread, partitioned by rank-within-communicator
// naming rather than a Hub of arbitrary Peer names.
//
// TODO: wire real MPI (via cgo against an MPI implementation) once a
// build-tagged cgo toolchain is part of the build matrix; until then this
// variant only exercises multio's transport-abstraction boundary, not
// actual multi-host MPI.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package mpi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
)

const mailboxSize = 256

// Communicator is the MPI stand-in's rank-addressed mailbox set - the
// analogue of an MPI_Comm, scoped to one process for now.
type Communicator struct {
	name string

	mu        sync.Mutex
	mailboxes map[int]chan *core.Message
}

func NewCommunicator(name string) *Communicator {
	return &Communicator{name: name, mailboxes: make(map[int]chan *core.Message)}
}

func (c *Communicator) mailbox(rank int) chan *core.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	mb, ok := c.mailboxes[rank]
	if !ok {
		mb = make(chan *core.Message, mailboxSize)
		c.mailboxes[rank] = mb
	}
	return mb
}

// rankPeer names a Peer after the communicator and rank, e.g.
// "mpi://world/3" - this is the "rank-within-communicator naming" the
// stand-in substitutes for an arbitrary domain string.
func rankPeer(comm *Communicator, rank int) core.Peer {
	return core.NewPeer(fmt.Sprintf("mpi://%s", comm.name), rank)
}

// Transport is a Communicator-scoped endpoint bound to one rank.
type Transport struct {
	comm  *Communicator
	rank  int
	local core.Peer
	inbox chan *core.Message

	closeOnce sync.Once
	closed    chan struct{}
}

func New(comm *Communicator, rank int) *Transport {
	return &Transport{
		comm:   comm,
		rank:   rank,
		local:  rankPeer(comm, rank),
		inbox:  comm.mailbox(rank),
		closed: make(chan struct{}),
	}
}

func (t *Transport) LocalPeer() core.Peer { return t.local }

func (t *Transport) Rank() int { return t.rank }

// Send routes by the destination Peer's ID field, interpreted as a rank
// within t.comm; the Domain field is ignored (a single communicator has
// one implicit domain).
func (t *Transport) Send(ctx context.Context, msg *core.Message) error {
	dst := t.comm.mailbox(msg.Destination().ID)
	select {
	case dst <- msg:
		return nil
	case <-ctx.Done():
		return cmn.NewTransportFailure(msg.Destination().String(), ctx.Err())
	case <-t.closed:
		return cmn.NewTransportFailure(msg.Destination().String(), errClosed)
	}
}

func (t *Transport) Receive(ctx context.Context) (*core.Message, error) {
	select {
	case msg := <-t.inbox:
		return msg, nil
	case <-ctx.Done():
		return nil, cmn.NewTransportFailure(t.local.String(), ctx.Err())
	case <-t.closed:
		return nil, cmn.NewTransportFailure(t.local.String(), errClosed)
	}
}

func (t *Transport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

var errClosed = errors.New("mpi transport closed")
