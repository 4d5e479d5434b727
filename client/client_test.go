package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/tweska/multio/client"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/transport/thread"
)

func serverPeers(n int) []core.Peer {
	peers := make([]core.Peer, n)
	for i := range peers {
		peers[i] = core.NewPeer("server", i)
	}
	return peers
}

func TestWriteFieldRoutesByShardIndexConsistently(t *testing.T) {
	hub := thread.NewHub()
	servers := serverPeers(4)
	inboxes := make([]*thread.Transport, len(servers))
	for i, p := range servers {
		inboxes[i] = thread.New(hub, p)
	}

	c := client.New(thread.New(hub, core.NewPeer("client", 0)), servers, "atmos", nil)

	md := core.NewMetadata()
	md.SetI64("param", 130)
	md.SetI64("level", 1)
	md.SetI64("step", 1)
	md.SetString("precision", "single")

	ctx := context.Background()
	if err := c.WriteField(ctx, md, core.NewOwnedBuffer([]byte{1, 2, 3, 4})); err != nil {
		t.Fatalf("write field: %v", err)
	}

	ident, _ := core.ExtractFieldIdentity(md)
	want := ident.ShardIndex(4)

	for i, inbox := range inboxes {
		msg, err := tryReceive(inbox)
		if i == want {
			if err != nil {
				t.Fatalf("expected the field at the shard server %d, got none: %v", want, err)
			}
			if msg.Tag() != core.Field {
				t.Fatalf("expected a Field message, got %v", msg.Tag())
			}
		} else if err == nil {
			t.Fatalf("field delivered to non-shard server %d (expected only %d)", i, want)
		}
	}
}

func TestWriteFieldSkipsRejectedIdentities(t *testing.T) {
	hub := thread.NewHub()
	servers := serverPeers(2)
	inboxes := make([]*thread.Transport, len(servers))
	for i, p := range servers {
		inboxes[i] = thread.New(hub, p)
	}

	reject := func(core.FieldIdentity) bool { return false }
	c := client.New(thread.New(hub, core.NewPeer("client", 0)), servers, "atmos", reject)

	md := core.NewMetadata()
	md.SetI64("param", 1)
	md.SetI64("level", 1)
	md.SetI64("step", 1)

	if err := c.WriteField(context.Background(), md, core.NewOwnedBuffer(nil)); err != nil {
		t.Fatalf("write field: %v", err)
	}
	for i, inbox := range inboxes {
		if _, err := tryReceive(inbox); err == nil {
			t.Fatalf("expected no delivery to server %d when field is rejected", i)
		}
	}
}

// tryReceive does a best-effort non-blocking check of a thread.Transport's
// inbox: a message already queued is picked up well within the timeout,
// while an empty inbox reliably times out.
func tryReceive(t *thread.Transport) (*core.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return t.Receive(ctx)
}
