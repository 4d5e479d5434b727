package action_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/tweska/multio/action"
	"github.com/tweska/multio/core"
)

func fieldMessage(paramID int64, precision core.Precision, payload []byte, step int64) *core.Message {
	md := core.NewMetadata()
	md.SetI64("paramId", paramID)
	md.SetString("precision", precision.String())
	md.SetI64("step", step)
	return core.NewMessage(core.Field, core.NewPeer("client", 0), core.NewPeer("server", 0), md, core.NewOwnedBuffer(payload))
}

func collect(stage action.Stage) (func(ctx context.Context, msg *core.Message) error, *[]*core.Message) {
	out := make([]*core.Message, 0)
	terminal := func(ctx context.Context, msg *core.Message) error {
		out = append(out, msg)
		return nil
	}
	return terminal, &out
}

var _ = Describe("AddConst", func() {
	It("adds the constant elementwise and relabels paramId", func() {
		payload := core.Float32ToBytes([]float32{270.0, 273.15, 280.0})
		msg := fieldMessage(167, core.Single, payload, 1)

		st, err := action.NewAddConst(int64(167), 168, -273.15)
		Expect(err).NotTo(HaveOccurred())

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		Expect(*out).To(HaveLen(1))

		result := (*out)[0]
		pid, err := result.Metadata().I64("paramId")
		Expect(err).NotTo(HaveOccurred())
		Expect(pid).To(Equal(int64(168)))

		got := result.Floats32()
		Expect(got).To(HaveLen(3))
		Expect(got[0]).To(BeNumerically("~", -3.15, 1e-6))
		Expect(got[1]).To(BeNumerically("~", 0.0, 1e-6))
		Expect(got[2]).To(BeNumerically("~", 6.85, 1e-6))
	})

	It("preserves missing values under a bitmap", func() {
		payload := core.Float32ToBytes([]float32{270.0, 9999.0, 280.0})
		msg := fieldMessage(167, core.Single, payload, 1)
		msg.ModifyMetadata().SetBool("bitmapPresent", true)
		msg.ModifyMetadata().SetF64("missingValue", 9999.0)

		st, err := action.NewAddConst(int64(167), 168, -273.15)
		Expect(err).NotTo(HaveOccurred())

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		got := (*out)[0].Floats32()
		Expect(got[0]).To(BeNumerically("~", -3.15, 1e-6))
		Expect(got[1]).To(BeNumerically("~", 9999.0, 1e-6))
		Expect(got[2]).To(BeNumerically("~", 6.85, 1e-6))
	})

	It("preserves precision and payload size", func() {
		payload := core.Float64ToBytes([]float64{1, 2, 3})
		msg := fieldMessage(167, core.Double, payload, 1)
		st, err := action.NewAddConst(int64(167), 168, 5)
		Expect(err).NotTo(HaveOccurred())

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		result := (*out)[0]
		prec, err := result.Precision()
		Expect(err).NotTo(HaveOccurred())
		Expect(prec).To(Equal(core.Double))
		Expect(result.Payload().Size()).To(Equal(msg.Payload().Size()))
	})

	It("forwards non-Field messages unchanged", func() {
		md := core.NewMetadata()
		md.SetString("category", "ocean")
		msg := core.NewMessage(core.Notification, core.NewPeer("c", 0), core.NewPeer("s", 0), md, core.NewOwnedBuffer([]byte("hi")))
		st, err := action.NewAddConst(int64(167), 168, 5)
		Expect(err).NotTo(HaveOccurred())

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		Expect((*out)[0]).To(BeIdenticalTo(msg))
	})
})

var _ = Describe("Scale", func() {
	It("multiplies elementwise and preserves precision/size", func() {
		payload := core.Float32ToBytes([]float32{1, 2, 4})
		msg := fieldMessage(130, core.Single, payload, 1)
		st, err := action.NewScale(int64(130), 131, 2.0)
		Expect(err).NotTo(HaveOccurred())

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		result := (*out)[0]
		Expect(result.Payload().Size()).To(Equal(msg.Payload().Size()))
		Expect(result.Floats32()).To(Equal([]float32{2, 4, 8}))
	})
})

var _ = Describe("Select", func() {
	It("forwards a message whose category matches", func() {
		st := action.NewSelect([]string{"ocean", "atmos"})
		md := core.NewMetadata()
		md.SetString("category", "ocean")
		msg := core.NewMessage(core.Field, core.NewPeer("c", 0), core.NewPeer("s", 0), md, core.NewOwnedBuffer(nil))

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		Expect(*out).To(HaveLen(1))
	})

	It("drops a message whose category does not match", func() {
		st := action.NewSelect([]string{"atmos"})
		md := core.NewMetadata()
		md.SetString("category", "ocean")
		msg := core.NewMessage(core.Field, core.NewPeer("c", 0), core.NewPeer("s", 0), md, core.NewOwnedBuffer(nil))

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		Expect(*out).To(BeEmpty())
	})

	It("always forwards StepComplete regardless of category", func() {
		st := action.NewSelect([]string{"atmos"})
		msg := core.NewMessage(core.StepComplete, core.NewPeer("c", 0), core.NewPeer("s", 0), nil, nil)

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		Expect(*out).To(HaveLen(1))
	})
})

var _ = Describe("Windspeed", func() {
	It("buffers a lone u component and emits nothing", func() {
		st := action.NewWindspeed(131, 132, 10)
		u := fieldMessage(131, core.Single, core.Float32ToBytes([]float32{3.0, 0.0}), 1)

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), u, terminal)).To(Succeed())
		Expect(*out).To(BeEmpty())
	})

	It("correlates u then v and emits hypot", func() {
		st := action.NewWindspeed(131, 132, 10)
		u := fieldMessage(131, core.Single, core.Float32ToBytes([]float32{3.0, 0.0}), 1)
		v := fieldMessage(132, core.Single, core.Float32ToBytes([]float32{4.0, 5.0}), 1)

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), u, terminal)).To(Succeed())
		Expect(st.Execute(context.Background(), v, terminal)).To(Succeed())
		Expect(*out).To(HaveLen(1))

		result := (*out)[0]
		pid, _ := result.Metadata().I64("paramId")
		Expect(pid).To(Equal(int64(10)))
		Expect(result.Floats32()).To(Equal([]float32{5.0, 5.0}))
	})

	It("is commutative in arrival order of u and v", func() {
		stUV := action.NewWindspeed(131, 132, 10)
		u := fieldMessage(131, core.Single, core.Float32ToBytes([]float32{3.0, 6.0}), 1)
		v := fieldMessage(132, core.Single, core.Float32ToBytes([]float32{4.0, 8.0}), 1)
		termUV, outUV := collect(nil)
		Expect(stUV.Execute(context.Background(), u, termUV)).To(Succeed())
		Expect(stUV.Execute(context.Background(), v, termUV)).To(Succeed())

		stVU := action.NewWindspeed(131, 132, 10)
		u2 := fieldMessage(131, core.Single, core.Float32ToBytes([]float32{3.0, 6.0}), 1)
		v2 := fieldMessage(132, core.Single, core.Float32ToBytes([]float32{4.0, 8.0}), 1)
		termVU, outVU := collect(nil)
		Expect(stVU.Execute(context.Background(), v2, termVU)).To(Succeed())
		Expect(stVU.Execute(context.Background(), u2, termVU)).To(Succeed())

		Expect((*outUV)[0].Floats32()).To(Equal((*outVU)[0].Floats32()))
	})

	It("propagates missingValue through the bitmap", func() {
		st := action.NewWindspeed(131, 132, 10)
		u := fieldMessage(131, core.Single, core.Float32ToBytes([]float32{3.0, 9999.0}), 1)
		u.ModifyMetadata().SetBool("bitmapPresent", true)
		u.ModifyMetadata().SetF64("missingValue", 9999.0)
		v := fieldMessage(132, core.Single, core.Float32ToBytes([]float32{4.0, 1.0}), 1)

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), u, terminal)).To(Succeed())
		Expect(st.Execute(context.Background(), v, terminal)).To(Succeed())
		got := (*out)[0].Floats32()
		Expect(got[0]).To(BeNumerically("~", 5.0, 1e-6))
		Expect(got[1]).To(Equal(float32(9999.0)))
	})

	It("clears the cache on Flush", func() {
		st := action.NewWindspeed(131, 132, 10)
		u := fieldMessage(131, core.Single, core.Float32ToBytes([]float32{3.0, 0.0}), 1)
		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), u, terminal)).To(Succeed())

		flush := core.NewMessage(core.Flush, core.NewPeer("c", 0), core.NewPeer("s", 0), nil, nil)
		Expect(st.Execute(context.Background(), flush, terminal)).To(Succeed())

		v := fieldMessage(132, core.Single, core.Float32ToBytes([]float32{4.0, 5.0}), 1)
		Expect(st.Execute(context.Background(), v, terminal)).To(Succeed())
		// Flush forwards itself, v is cached with nothing to pair against.
		Expect(*out).To(HaveLen(1))
		Expect((*out)[0].Tag()).To(Equal(core.Flush))
	})
})
