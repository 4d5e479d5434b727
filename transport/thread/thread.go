// Package thread implements the in-process Transport variant: peers are
// Go channels, no framing - the Message object itself crosses the
// boundary.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package thread

import (
	"context"
	"errors"
	"sync"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
)

const mailboxSize = 256

// Hub is the shared in-process registry of mailboxes every thread.Transport
// is constructed against; it is the thread variant's analogue of a named
// MPI communicator or a TCP listen address.
type Hub struct {
	mu        sync.Mutex
	mailboxes map[core.Peer]chan *core.Message
}

func NewHub() *Hub { return &Hub{mailboxes: make(map[core.Peer]chan *core.Message)} }

func (h *Hub) mailbox(p core.Peer) chan *core.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	mb, ok := h.mailboxes[p]
	if !ok {
		mb = make(chan *core.Message, mailboxSize)
		h.mailboxes[p] = mb
	}
	return mb
}

// Transport is a Hub-scoped endpoint bound to one local Peer.
type Transport struct {
	hub   *Hub
	local core.Peer
	inbox chan *core.Message

	closeOnce sync.Once
	closed    chan struct{}
}

func New(hub *Hub, local core.Peer) *Transport {
	return &Transport{hub: hub, local: local, inbox: hub.mailbox(local), closed: make(chan struct{})}
}

func (t *Transport) LocalPeer() core.Peer { return t.local }

func (t *Transport) Send(ctx context.Context, msg *core.Message) error {
	dst := t.hub.mailbox(msg.Destination())
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

var errClosed = errors.New("thread transport closed")
