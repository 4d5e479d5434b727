package action_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/tweska/multio/action"
	"github.com/tweska/multio/core"
)

var _ = Describe("Encode", func() {
	It("tags the output format as grib and forwards", func() {
		st := action.NewEncode(nil)
		msg := fieldMessage(130, core.Single, core.Float32ToBytes([]float32{1, 2}), 1)

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		Expect(*out).To(HaveLen(1))

		format, ok := (*out)[0].Metadata().OptString("format")
		Expect(ok).To(BeTrue())
		Expect(format).To(Equal("grib"))
	})

	It("forwards non-Field messages unchanged", func() {
		st := action.NewEncode(nil)
		msg := core.NewMessage(core.StepComplete, core.NewPeer("c", 0), core.NewPeer("s", 0), nil, nil)

		terminal, out := collect(nil)
		Expect(st.Execute(context.Background(), msg, terminal)).To(Succeed())
		Expect((*out)[0]).To(BeIdenticalTo(msg))
	})
})
