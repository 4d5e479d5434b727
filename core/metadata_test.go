package core_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/tweska/multio/core"
)

var _ = Describe("Metadata", func() {
	It("round-trips every typed setter through its getter", func() {
		md := core.NewMetadata()
		md.SetI64("step", 12)
		md.SetF64("missingValue", 9999.0)
		md.SetBool("bitmapPresent", true)
		md.SetString("category", "ocean")
		md.SetListI64("local", []int64{1, 2, 3})
		md.SetListF64("weights", []float64{0.5, 1.5})
		md.SetListString("tags", []string{"a", "b"})

		v, err := md.I64("step")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(12)))

		f, err := md.F64("missingValue")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(9999.0))

		b, err := md.Bool("bitmapPresent")
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(BeTrue())

		s, err := md.String("category")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("ocean"))

		li, err := md.ListI64("local")
		Expect(err).NotTo(HaveOccurred())
		Expect(li).To(Equal([]int64{1, 2, 3}))

		lf, err := md.ListF64("weights")
		Expect(err).NotTo(HaveOccurred())
		Expect(lf).To(Equal([]float64{0.5, 1.5}))

		ls, err := md.ListString("tags")
		Expect(err).NotTo(HaveOccurred())
		Expect(ls).To(Equal([]string{"a", "b"}))
	})

	It("fails a typed get on a missing key with MetadataMissing", func() {
		md := core.NewMetadata()
		_, err := md.I64("absent")
		Expect(err).To(HaveOccurred())
	})

	It("fails a typed get on a kind mismatch", func() {
		md := core.NewMetadata()
		md.SetString("step", "not-a-number")
		_, err := md.I64("step")
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("Opt getters return false instead of failing",
		func(set func(md *core.Metadata), get func(md *core.Metadata) bool) {
			md := core.NewMetadata()
			Expect(get(md)).To(BeFalse())
			set(md)
			Expect(get(md)).To(BeTrue())
		},
		Entry("OptI64", func(md *core.Metadata) { md.SetI64("k", 1) },
			func(md *core.Metadata) bool { _, ok := md.OptI64("k"); return ok }),
		Entry("OptF64", func(md *core.Metadata) { md.SetF64("k", 1) },
			func(md *core.Metadata) bool { _, ok := md.OptF64("k"); return ok }),
		Entry("OptBool", func(md *core.Metadata) { md.SetBool("k", true) },
			func(md *core.Metadata) bool { _, ok := md.OptBool("k"); return ok }),
		Entry("OptString", func(md *core.Metadata) { md.SetString("k", "v") },
			func(md *core.Metadata) bool { _, ok := md.OptString("k"); return ok }),
	)

	It("Delete removes a key idempotently", func() {
		md := core.NewMetadata()
		md.SetI64("k", 1)
		md.Delete("k")
		Expect(md.Has("k")).To(BeFalse())
		md.Delete("k") // no-op, must not panic
	})

	It("Clone is independent of the original", func() {
		md := core.NewMetadata()
		md.SetI64("k", 1)
		clone := md.Clone()
		clone.SetI64("k", 2)
		v, _ := md.I64("k")
		Expect(v).To(Equal(int64(1)))
		cv, _ := clone.I64("k")
		Expect(cv).To(Equal(int64(2)))
	})

	It("Canonical sorts keys regardless of insertion order", func() {
		a := core.NewMetadata()
		a.SetI64("b", 1)
		a.SetI64("a", 2)

		b := core.NewMetadata()
		b.SetI64("a", 2)
		b.SetI64("b", 1)

		Expect(a.Canonical()).To(Equal(b.Canonical()))
		Expect(a.Canonical()).To(Equal(`{"a":2,"b":1}`))
	})

	It("round-trips through MarshalBinary/UnmarshalBinary", func() {
		orig := core.NewMetadata()
		orig.SetI64("step", 3)
		orig.SetF64("missingValue", 1.5)
		orig.SetBool("bitmapPresent", false)
		orig.SetString("category", "atmosphere")
		orig.SetListI64("local", []int64{4, 5})

		data, err := orig.MarshalBinary()
		Expect(err).NotTo(HaveOccurred())

		restored := core.NewMetadata()
		Expect(restored.UnmarshalBinary(data)).To(Succeed())
		Expect(restored.Canonical()).To(Equal(orig.Canonical()))
	})
})
