package action

import (
	"context"
	"sync"

	"github.com/tweska/multio/cmn"
	"github.com/tweska/multio/core"
)

// Aggregate reconstructs a global field from per-client partials using a
// DomainMap. A client's domain mapping arrives once under the
// Mapping tag, carrying metadata keys "domain" (name), "expectedClients",
// "local", "global" (local->global index lists); it must precede that
// client's partial Field contributions for the same domain.
type Aggregate struct {
	domains *core.DomainRegistry

	mu      sync.Mutex
	pending map[core.FieldIdentity]*partialField
}

type partialField struct {
	domain   string
	prec     core.Precision
	global   []float64 // accumulated in float64 regardless of precision; cast on emit
	filled   map[int]struct{}
	have     int
	template *core.Message // one contributing message, for metadata/tag/peers on emit
}

func NewAggregate(domains *core.DomainRegistry) *Aggregate {
	if domains == nil {
		domains = core.NewDomainRegistry()
	}
	return &Aggregate{domains: domains, pending: make(map[core.FieldIdentity]*partialField)}
}

func (a *Aggregate) Execute(ctx context.Context, msg *core.Message, next Next) error {
	switch msg.Tag() {
	case core.Mapping:
		return a.handleMapping(ctx, msg, next)
	case core.Field:
		return a.handleField(ctx, msg, next)
	case core.StepComplete:
		if err := a.checkComplete(); err != nil {
			return err
		}
		return next(ctx, msg)
	default:
		return next(ctx, msg)
	}
}

func (a *Aggregate) handleMapping(ctx context.Context, msg *core.Message, next Next) error {
	md := msg.Metadata()
	domain, err := md.String("domain")
	if err != nil {
		return err
	}
	local, err := md.ListI64("local")
	if err != nil {
		return err
	}
	global, err := md.ListI64("global")
	if err != nil {
		return err
	}
	expected, err := md.I64("expectedClients")
	if err != nil {
		return err
	}
	a.domains.Add(domain, msg.Source().ID, &core.DomainMap{Local: local, Global: global, ExpectedClients: int(expected)})
	return next(ctx, msg)
}

func (a *Aggregate) handleField(ctx context.Context, msg *core.Message, next Next) error {
	if err := msg.ValidateField(); err != nil {
		return err
	}
	ident, err := core.ExtractFieldIdentity(msg.Metadata())
	if err != nil {
		return err
	}
	domain, err := msg.Metadata().String("domain")
	if err != nil {
		return err
	}
	prec, err := msg.Precision()
	if err != nil {
		return err
	}

	maps := a.domains.Maps(domain)
	dm, ok := maps[msg.Source().ID]
	if !ok {
		return cmn.NewFieldError("aggregate: no domain mapping for client %d in domain %q", msg.Source().ID, domain)
	}

	a.mu.Lock()
	pf, ok := a.pending[ident]
	if !ok {
		total := a.domains.TotalSize(domain)
		pf = &partialField{
			domain:   domain,
			prec:     prec,
			global:   make([]float64, total),
			filled:   make(map[int]struct{}, total),
			template: msg,
		}
		a.pending[ident] = pf
	}

	var local []float64
	switch prec {
	case core.Single:
		for _, v := range msg.Floats32() {
			local = append(local, float64(v))
		}
	case core.Double:
		local = append(local, msg.Floats64()...)
	}
	for i, v := range local {
		if i >= len(dm.Local) {
			break
		}
		g := int(dm.Global[i])
		pf.global[g] = v
		pf.filled[g] = struct{}{}
	}
	pf.have++
	complete := dm.ExpectedClients > 0 && pf.have >= dm.ExpectedClients
	if complete {
		delete(a.pending, ident)
	}
	a.mu.Unlock()

	if !complete {
		return nil
	}

	md := pf.template.Metadata().Clone()
	var payload *core.Buffer
	switch pf.prec {
	case core.Single:
		out := make([]float32, len(pf.global))
		for i, v := range pf.global {
			out[i] = float32(v)
		}
		payload = core.NewOwnedBuffer(core.Float32ToBytes(out))
	case core.Double:
		out := append([]float64(nil), pf.global...)
		payload = core.NewOwnedBuffer(core.Float64ToBytes(out))
	}
	outMsg := core.NewMessage(core.Field, pf.template.Source(), pf.template.Destination(), md, payload)
	return next(ctx, outMsg)
}

// checkComplete reports a fatal error if any aggregation is still waiting
// on contributions when a StepComplete arrives.
func (a *Aggregate) checkComplete() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for ident, pf := range a.pending {
		return cmn.NewFieldError("aggregate: incomplete aggregation for %s in domain %q at step complete (have %d)",
			ident.String(), pf.domain, pf.have)
	}
	return nil
}
