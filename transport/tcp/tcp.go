// Package tcp implements the connection-per-peer Transport variant over
// raw TCP, framed per transport.EncodeFrame/DecodeFrame.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package tcp

import (
	"context"
	"net"
	"sync"

	"github.com/teris-io/shortid"
	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/cmn/cos"
	"github.com/tweska/multio/cmn/nlog"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/transport"
)

// Transport owns one listening socket (server side) and a pool of
// outbound connections keyed by destination Peer (client side) -
// connection-per-peer.
type Transport struct {
	local    core.Peer
	extra    *transport.Extra
	ln       net.Listener
	dialer   net.Dialer
	resolver func(core.Peer) (addr string, err error)

	mu    sync.Mutex
	conns map[core.Peer]net.Conn

	inbox chan *core.Message
	errs  chan error
	sid   *shortid.Shortid
}

// New binds a listener at listenAddr (empty for a client-only endpoint)
// and uses resolver to turn a destination Peer into a dial address.
func New(local core.Peer, listenAddr string, resolver func(core.Peer) (string, error), extra *transport.Extra) (*Transport, error) {
	t := &Transport{
		local:    local,
		extra:    extra,
		resolver: resolver,
		conns:    make(map[core.Peer]net.Conn),
		inbox:    make(chan *core.Message, 256),
		errs:     make(chan error, 1),
	}
	sid, err := shortid.New(1, shortid.DefaultABC, 1)
	if err != nil {
		return nil, cmn.NewConfigError("shortid: %v", err)
	}
	t.sid = sid

	if listenAddr != "" {
		ln, err := net.Listen("tcp", listenAddr)
		if err != nil {
			return nil, cmn.NewTransportFailure(local.String(), err)
		}
		t.ln = ln
		go t.acceptLoop()
	}
	return t, nil
}

func (t *Transport) LocalPeer() core.Peer { return t.local }

func (t *Transport) acceptLoop() {
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			select {
			case t.errs <- cmn.NewTransportFailure(t.local.String(), err):
			default:
			}
			return
		}
		connID, _ := t.sid.Generate()
		go t.readLoop(conn, connID)
	}
}

func (t *Transport) readLoop(conn net.Conn, connID string) {
	defer conn.Close()
	for {
		msg, err := transport.DecodeFrame(conn)
		if err != nil {
			nlog.Warningf("tcp: connection %s read error: %v", connID, err)
			return
		}
		t.inbox <- msg
	}
}

func (t *Transport) connFor(dst core.Peer) (net.Conn, error) {
	t.mu.Lock()
	conn, ok := t.conns[dst]
	t.mu.Unlock()
	if ok {
		return conn, nil
	}
	addr, err := t.resolver(dst)
	if err != nil {
		return nil, cmn.NewTransportFailure(dst.String(), err)
	}
	conn, err = t.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, cmn.NewTransportFailure(dst.String(), err)
	}
	t.mu.Lock()
	t.conns[dst] = conn
	t.mu.Unlock()
	return conn, nil
}

func (t *Transport) Send(ctx context.Context, msg *core.Message) error {
	conn, err := t.connFor(msg.Destination())
	if err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(dl)
	}
	if err := transport.EncodeFrame(conn, msg, t.extra.Compressed()); err != nil {
		t.mu.Lock()
		delete(t.conns, msg.Destination())
		t.mu.Unlock()
		if cos.IsRetriableConnErr(err) {
			// the stale conn is already evicted above; the next Send for
			// this destination redials rather than reusing a dead socket.
			nlog.Warningf("tcp: dropping stale connection to %s: %v", msg.Destination(), err)
		}
		return cmn.NewTransportFailure(msg.Destination().String(), err)
	}
	return nil
}

func (t *Transport) Receive(ctx context.Context) (*core.Message, error) {
	select {
	case msg := <-t.inbox:
		return msg, nil
	case err := <-t.errs:
		return nil, err
	case <-ctx.Done():
		return nil, cmn.NewTransportFailure(t.local.String(), ctx.Err())
	}
}

func (t *Transport) Close() error {
	t.mu.Lock()
	for _, c := range t.conns {
		c.Close()
	}
	t.mu.Unlock()
	if t.ln != nil {
		return t.ln.Close()
	}
	return nil
}
