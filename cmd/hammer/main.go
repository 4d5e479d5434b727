// Command hammer is a thin synthetic-load driver over a client.Client:
// parse flags, drive the library.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tweska/multio/client"
	"github.com/tweska/multio/cmn/cos"
	"github.com/tweska/multio/cmn/nlog"
	"github.com/tweska/multio/core"
	"github.com/tweska/multio/transport"
	"github.com/tweska/multio/transport/tcp"
	"github.com/tweska/multio/transport/thread"
)

var (
	transportKind = flag.String("transport", "thread", "transport: thread|tcp|mpi|none")
	nbClients     = flag.Int("nbclients", 1, "number of simulated client processes")
	nbServers     = flag.Int("nbservers", 1, "number of server shards")
	nbSteps       = flag.Int("nbsteps", 2, "number of simulation steps")
	nbLevels      = flag.Int("nblevels", 1, "number of vertical levels per step")
	nbParams      = flag.Int("nbparams", 1, "number of distinct parameters per level")
	nbEnsembles   = flag.Int("nbensembles", 1, "number of ensemble members")
	category      = flag.String("category", "hammer", "category metadata routed to the server's pipeline")
	serverAddrFmt = flag.String("server-addr-fmt", "127.0.0.1:%d", "tcp dial address template, used with --transport=tcp")
	basePort      = flag.Int("base-port", 27000, "base tcp port for server shard 0, used with --transport=tcp")
)

func main() {
	flag.Parse()
	cos.InitShortID(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		cos.ExitLogf("hammer: %v", err)
	}
}

func run(ctx context.Context) error {
	if *nbServers < 1 {
		return fmt.Errorf("nbservers must be >= 1")
	}
	servers := make([]core.Peer, *nbServers)
	for i := range servers {
		servers[i] = core.NewPeer("server", i)
	}

	hub := thread.NewHub()
	clients := make([]*client.Client, *nbClients)
	for i := range clients {
		t, err := newTransport(hub, core.NewPeer("hammer", i))
		if err != nil {
			return err
		}
		clients[i] = client.New(t, servers, *category, nil)
	}

	g := make(chan error, len(clients))
	for i, c := range clients {
		i, c := i, c
		go func() { g <- driveClient(ctx, i, c) }()
	}
	for range clients {
		if err := <-g; err != nil {
			return err
		}
	}
	return nil
}

func newTransport(hub *thread.Hub, local core.Peer) (transport.Transport, error) {
	switch *transportKind {
	case "thread":
		return thread.New(hub, local), nil
	case "tcp":
		resolver := func(dst core.Peer) (string, error) {
			return fmt.Sprintf(*serverAddrFmt, *basePort+dst.ID), nil
		}
		return tcp.New(local, "", resolver, &transport.Extra{})
	default:
		return nil, fmt.Errorf("unsupported --transport %q for the hammer driver (mpi/none require an external launcher)", *transportKind)
	}
}

// driveClient runs one simulated client through Open, nbsteps*nblevels*
// nbparams*nbensembles synthetic Field writes, StepComplete per step, and
// Close.
func driveClient(ctx context.Context, id int, c *client.Client) error {
	if err := c.Open(ctx); err != nil {
		return fmt.Errorf("client %d open: %w", id, err)
	}
	defer func() {
		if err := c.Close(ctx); err != nil {
			nlog.Errorf("client %d close: %v", id, err)
		}
	}()

	for step := 0; step < *nbSteps; step++ {
		for level := 0; level < *nbLevels; level++ {
			for param := 0; param < *nbParams; param++ {
				for ens := 0; ens < *nbEnsembles; ens++ {
					if err := writeField(ctx, c, step, level, param, ens); err != nil {
						return fmt.Errorf("client %d write: %w", id, err)
					}
				}
			}
		}
		if err := c.StepComplete(ctx); err != nil {
			return fmt.Errorf("client %d step %d complete: %w", id, step, err)
		}
	}
	return nil
}

func writeField(ctx context.Context, c *client.Client, step, level, param, ensemble int) error {
	md := core.NewMetadata()
	md.SetI64("param", int64(param))
	md.SetI64("level", int64(level))
	md.SetI64("step", int64(step))
	md.SetI64("ensemble", int64(ensemble))
	md.SetString("precision", core.Single.String())

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(step+level+param+ensemble) + float32(i)*0.5
	}
	payload := core.NewOwnedBuffer(core.Float32ToBytes(data))
	return c.WriteField(ctx, md, payload)
}
