package action_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/tweska/multio/action"
	"github.com/tweska/multio/core"
)

func mappingMessage(domain string, clientID int, local, global []int64, expected int64) *core.Message {
	md := core.NewMetadata()
	md.SetString("domain", domain)
	md.SetListI64("local", local)
	md.SetListI64("global", global)
	md.SetI64("expectedClients", expected)
	return core.NewMessage(core.Mapping, core.NewPeer("client", clientID), core.NewPeer("server", 0), md, nil)
}

func partialFieldMessage(domain string, clientID int, precision core.Precision, payload []byte) *core.Message {
	md := core.NewMetadata()
	md.SetString("domain", domain)
	md.SetString("precision", precision.String())
	md.SetI64("param", 130)
	md.SetI64("level", 1)
	md.SetI64("step", 1)
	return core.NewMessage(core.Field, core.NewPeer("client", clientID), core.NewPeer("server", 0), md, core.NewOwnedBuffer(payload))
}

var _ = Describe("Aggregate", func() {
	It("emits exactly once after all expected clients' partials arrive", func() {
		agg := action.NewAggregate(nil)
		terminal, out := collect(nil)
		ctx := context.Background()

		m1 := mappingMessage("global", 1, []int64{0, 1}, []int64{0, 1}, 2)
		m2 := mappingMessage("global", 2, []int64{0, 1}, []int64{2, 3}, 2)
		Expect(agg.Execute(ctx, m1, terminal)).To(Succeed())
		Expect(agg.Execute(ctx, m2, terminal)).To(Succeed())

		f1 := partialFieldMessage("global", 1, core.Single, core.Float32ToBytes([]float32{1, 2}))
		Expect(agg.Execute(ctx, f1, terminal)).To(Succeed())
		Expect(*out).To(HaveLen(2)) // the two Mapping forwards so far

		f2 := partialFieldMessage("global", 2, core.Single, core.Float32ToBytes([]float32{3, 4}))
		Expect(agg.Execute(ctx, f2, terminal)).To(Succeed())

		fields := 0
		var result *core.Message
		for _, m := range *out {
			if m.Tag() == core.Field {
				fields++
				result = m
			}
		}
		Expect(fields).To(Equal(1))
		Expect(result.Floats32()).To(Equal([]float32{1, 2, 3, 4}))
	})

	It("fails StepComplete when an aggregation is still incomplete", func() {
		agg := action.NewAggregate(nil)
		terminal, _ := collect(nil)
		ctx := context.Background()

		m1 := mappingMessage("global", 1, []int64{0}, []int64{0}, 2)
		Expect(agg.Execute(ctx, m1, terminal)).To(Succeed())
		f1 := partialFieldMessage("global", 1, core.Single, core.Float32ToBytes([]float32{1}))
		Expect(agg.Execute(ctx, f1, terminal)).To(Succeed())

		step := core.NewMessage(core.StepComplete, core.NewPeer("client", 1), core.NewPeer("server", 0), nil, nil)
		Expect(agg.Execute(ctx, step, terminal)).To(HaveOccurred())
	})
})
