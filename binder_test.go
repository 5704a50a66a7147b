// Copyright (c) 2025 Neomantra Corp

package tagbin_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codezerg/tagbin"
)

// quoteRecord is a plain struct used to exercise the object binder without
// any nested types, mirroring a hand-written record accessor set.
type quoteRecord struct {
	Symbol string
	Price  float64
	Size   int64
}

func quoteDescriptor() *tagbin.TypeDescriptor {
	return tagbin.NewTypeDescriptor([]tagbin.FieldSpec{
		{
			WireName: "symbol", Order: 0, Kind: tagbin.KindString,
			Get: func(r any) any { return r.(*quoteRecord).Symbol },
			Set: func(r any, v any) error { r.(*quoteRecord).Symbol = v.(string); return nil },
		},
		{
			WireName: "price", Order: 1, Kind: tagbin.KindFloat64,
			Get: func(r any) any { return r.(*quoteRecord).Price },
			Set: func(r any, v any) error { r.(*quoteRecord).Price = v.(float64); return nil },
		},
		{
			WireName: "size", Order: 2, Kind: tagbin.KindInt,
			Get: func(r any) any { return r.(*quoteRecord).Size },
			Set: func(r any, v any) error { r.(*quoteRecord).Size = v.(int64); return nil },
		},
	})
}

var _ = Describe("Object binder", func() {
	It("round-trips a record through EncodeRecord/DecodeRecord", func() {
		td := quoteDescriptor()
		opts := tagbin.DefaultOptions()
		in := &quoteRecord{Symbol: "AAPL", Price: 189.25, Size: 100}

		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(tagbin.EncodeRecord(wr, in, td, opts)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		out := &quoteRecord{}
		rd := tagbin.NewReader(&buf, true)
		Expect(tagbin.DecodeRecord(rd, out, td, opts)).To(Succeed())
		Expect(out).To(Equal(in))
	})

	It("skips unknown keys without aborting the record", func() {
		td := quoteDescriptor()
		opts := tagbin.DefaultOptions()

		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteMapHeader(4)).To(Succeed())
		Expect(wr.WriteKey("symbol")).To(Succeed())
		Expect(wr.WriteString("AAPL")).To(Succeed())
		Expect(wr.WriteKey("exchange")).To(Succeed()) // not in descriptor
		Expect(wr.WriteString("XNAS")).To(Succeed())
		Expect(wr.WriteKey("price")).To(Succeed())
		Expect(wr.WriteFloat64(189.25)).To(Succeed())
		Expect(wr.WriteKey("size")).To(Succeed())
		Expect(wr.WriteInt(100)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		out := &quoteRecord{}
		rd := tagbin.NewReader(&buf, true)
		Expect(tagbin.DecodeRecord(rd, out, td, opts)).To(Succeed())
		Expect(out.Symbol).To(Equal("AAPL"))
		Expect(out.Price).To(Equal(189.25))
		Expect(out.Size).To(Equal(int64(100)))
	})

	It("leaves a missing field at its existing default", func() {
		td := quoteDescriptor()
		opts := tagbin.DefaultOptions()

		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteMapHeader(1)).To(Succeed())
		Expect(wr.WriteKey("symbol")).To(Succeed())
		Expect(wr.WriteString("AAPL")).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		out := &quoteRecord{Price: 1.5, Size: 7} // pre-populated defaults
		rd := tagbin.NewReader(&buf, true)
		Expect(tagbin.DecodeRecord(rd, out, td, opts)).To(Succeed())
		Expect(out.Symbol).To(Equal("AAPL"))
		Expect(out.Price).To(Equal(1.5))
		Expect(out.Size).To(Equal(int64(7)))
	})

	It("skips a known key whose wire type doesn't match the declared kind", func() {
		td := quoteDescriptor()
		opts := tagbin.DefaultOptions()

		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteMapHeader(2)).To(Succeed())
		Expect(wr.WriteKey("symbol")).To(Succeed())
		Expect(wr.WriteString("AAPL")).To(Succeed())
		Expect(wr.WriteKey("price")).To(Succeed()) // declared float64, sent as a string
		Expect(wr.WriteString("not-a-number")).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		out := &quoteRecord{Price: -1}
		rd := tagbin.NewReader(&buf, true)
		Expect(tagbin.DecodeRecord(rd, out, td, opts)).To(Succeed())
		Expect(out.Symbol).To(Equal("AAPL"))
		Expect(out.Price).To(Equal(float64(-1))) // untouched, mismatch was skipped
	})

	It("rejects an unbounded array decoded into a counted slice field", func() {
		td := tagbin.NewTypeDescriptor([]tagbin.FieldSpec{
			{
				WireName: "tags", Kind: tagbin.KindSlice, ElemKind: tagbin.KindString,
				Get: func(r any) any { return nil },
				Set: func(r any, v any) error { return nil },
			},
		})
		opts := tagbin.DefaultOptions()

		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteMapHeader(1)).To(Succeed())
		Expect(wr.WriteKey("tags")).To(Succeed())
		Expect(wr.BeginArray()).To(Succeed())
		Expect(wr.WriteString("a")).To(Succeed())
		Expect(wr.WriteEnd()).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		var target any
		err := tagbin.DecodeRecord(rd, &target, td, opts)
		Expect(err).To(MatchError(tagbin.ErrInvalidNesting))
	})
})
