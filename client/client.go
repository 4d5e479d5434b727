// Package client implements the simulation-client side of the handle_*
// surface: Open/Close connection lifecycle, write_domain / write_mask /
// write_field, flush, notify, and field_accepted. A single Client
// instance may be driven by multiple goroutines; an internal lock
// serializes access to the transport.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package client

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/transport"
)

// Client is one simulation process's connection to nServers, routing
// Field messages by FieldIdentity shard and broadcasting lifecycle/
// synchronization messages (Open, Close, Flush, Notification,
// StepComplete, Mapping) to every server.
type Client struct {
	mu            sync.Mutex
	t             transport.Transport
	local         core.Peer
	servers       []core.Peer
	category      string
	fieldAccepted func(core.FieldIdentity) bool
}

// New constructs a Client bound to t, addressing the given server peers.
// fieldAccepted, if non-nil, implements the handle_field_accepted
// predicate gating which fields this client actually writes.
func New(t transport.Transport, servers []core.Peer, category string, fieldAccepted func(core.FieldIdentity) bool) *Client {
	if fieldAccepted == nil {
		fieldAccepted = func(core.FieldIdentity) bool { return true }
	}
	return &Client{t: t, local: t.LocalPeer(), servers: servers, category: category, fieldAccepted: fieldAccepted}
}

func (c *Client) shard(ident core.FieldIdentity) core.Peer {
	return c.servers[ident.ShardIndex(len(c.servers))]
}

func (c *Client) send(ctx context.Context, dst core.Peer, tag core.Tag, md *core.Metadata, payload *core.Buffer) error {
	if md == nil {
		md = core.NewMetadata()
	}
	md.SetString("category", c.category)
	msg := core.NewMessage(tag, c.local, dst, md, payload)
	return c.t.Send(ctx, msg)
}

// broadcast fans a message out to every configured server concurrently.
func (c *Client) broadcast(ctx context.Context, tag core.Tag, md *core.Metadata) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range c.servers {
		s := s
		g.Go(func() error {
			return c.send(gctx, s, tag, md.Clone(), core.NewOwnedBuffer(nil))
		})
	}
	return g.Wait()
}

// Open announces this client to every server.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broadcast(ctx, core.Open, core.NewMetadata())
}

// Close announces departure to every server.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broadcast(ctx, core.Close, core.NewMetadata())
}

// Flush broadcasts a Flush message, clearing stateful stage caches
// server-side.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broadcast(ctx, core.Flush, core.NewMetadata())
}

// Notify broadcasts a Notification message carrying arbitrary metadata.
func (c *Client) Notify(ctx context.Context, md *core.Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broadcast(ctx, core.Notification, md)
}

// StepComplete broadcasts the step-complete barrier to every server.
func (c *Client) StepComplete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broadcast(ctx, core.StepComplete, core.NewMetadata())
}

// WriteDomain sends this client's DomainMap for domain under the Mapping
// tag, once per domain, before any Field for it.
func (c *Client) WriteDomain(ctx context.Context, domain string, dm *core.DomainMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	md := core.NewMetadata()
	md.SetString("domain", domain)
	md.SetListI64("local", dm.Local)
	md.SetListI64("global", dm.Global)
	md.SetI64("expectedClients", int64(dm.ExpectedClients))
	return c.broadcast(ctx, core.Mapping, md)
}

// WriteMask sends a Mask message (bitmap definition) to every server.
func (c *Client) WriteMask(ctx context.Context, md *core.Metadata, bitmap []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range c.servers {
		s := s
		g.Go(func() error {
			return c.send(gctx, s, core.Mask, md.Clone(), core.NewOwnedBuffer(append([]byte(nil), bitmap...)))
		})
	}
	return g.Wait()
}

// WriteField shard-routes a Field message to exactly one server, by
// hash(FieldIdentity) mod nServers. Returns without sending if
// fieldAccepted rejects the identity.
func (c *Client) WriteField(ctx context.Context, md *core.Metadata, payload *core.Buffer) error {
	ident, err := core.ExtractFieldIdentity(md)
	if err != nil {
		return err
	}
	if !c.fieldAccepted(ident) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.servers) == 0 {
		return cmn.NewConfigError("client: no servers configured")
	}
	dst := c.shard(ident)
	return c.send(ctx, dst, core.Field, md, payload)
}
