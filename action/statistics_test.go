package action_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/tweska/multio/action"
	"github.com/tweska/multio/core"
)

func statsFieldMessage(step int64, payload []float32) *core.Message {
	md := core.NewMetadata()
	md.SetString("precision", core.Single.String())
	md.SetI64("param", 130)
	md.SetI64("level", 0)
	md.SetI64("step", step)
	return core.NewMessage(core.Field, core.NewPeer("client", 0), core.NewPeer("server", 0), md, core.NewOwnedBuffer(core.Float32ToBytes(payload)))
}

var _ = Describe("Statistics", func() {
	It("accumulates within a window and emits the mean once the window closes", func() {
		updater := action.NewPeriodUpdater(action.PeriodStep, 2)
		st := action.NewStatistics(action.OpMean, updater, "step")
		terminal, out := collect(nil)
		ctx := context.Background()

		Expect(st.Execute(ctx, statsFieldMessage(0, []float32{2, 4}), terminal)).To(Succeed())
		Expect(*out).To(BeEmpty())

		Expect(st.Execute(ctx, statsFieldMessage(1, []float32{4, 8}), terminal)).To(Succeed())
		Expect(*out).To(BeEmpty())

		// step 2 is >= windowEnd(0)=2, closes the first window and opens a new one.
		Expect(st.Execute(ctx, statsFieldMessage(2, []float32{0, 0}), terminal)).To(Succeed())
		Expect(*out).To(HaveLen(1))

		emitted := (*out)[0]
		Expect(emitted.Floats32()).To(Equal([]float32{3, 6}))
		startWindow, _ := emitted.Metadata().I64("startWindow")
		endWindow, _ := emitted.Metadata().I64("endWindow")
		Expect(startWindow).To(Equal(int64(0)))
		Expect(endWindow).To(Equal(int64(2)))
	})
})
