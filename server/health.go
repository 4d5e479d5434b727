package server

import (
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/tweska/multio/stats"
)

// HealthServer exposes GET /healthz and GET /stats over fasthttp:
// open-client count and per-sink IOStats for operators, no control-plane
// semantics.
type HealthServer struct {
	listener *Listener
	stats    *stats.Registry
}

func NewHealthServer(l *Listener, reg *stats.Registry) *HealthServer {
	return &HealthServer{listener: l, stats: reg}
}

func (h *HealthServer) handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		h.listener.mu.Lock()
		n := len(h.listener.openClients)
		h.listener.mu.Unlock()
		fmt.Fprintf(ctx, "ok openClients=%d\n", n)
	case "/stats":
		ctx.SetContentType("text/plain; charset=utf-8")
		h.stats.ReportAll(ctx)
		if err := stats.SampleDisks(ctx); err != nil {
			fmt.Fprintf(ctx, "disk sample unavailable: %v\n", err)
		}
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

// ListenAndServe blocks serving the health/stats endpoints at addr.
func (h *HealthServer) ListenAndServe(addr string) error {
	return fasthttp.ListenAndServe(addr, h.handler)
}
