// Copyright (c) 2025 Neomantra Corp

package tagbin_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codezerg/tagbin"
)

var _ = Describe("Resource limits", func() {
	It("rejects a string past MaxStringLength before allocating", func() {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteString(string(bytes.Repeat([]byte("x"), 100)))).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		limits := tagbin.DefaultLimits()
		limits.MaxStringLength = 10
		rd := tagbin.NewReaderWithLimits(&buf, limits, true)
		_, err := rd.ReadString()
		Expect(err).To(MatchError(tagbin.ErrLimitExceeded))
	})

	It("rejects binary past MaxBinaryLength before allocating", func() {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteBinary(bytes.Repeat([]byte{0xFF}, 100))).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		limits := tagbin.DefaultLimits()
		limits.MaxBinaryLength = 10
		rd := tagbin.NewReaderWithLimits(&buf, limits, true)
		_, err := rd.ReadBinary()
		Expect(err).To(MatchError(tagbin.ErrLimitExceeded))
	})

	It("rejects growing the key table past MaxKeyTableSize", func() {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteKey("a")).To(Succeed())
		Expect(wr.WriteKey("b")).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		limits := tagbin.DefaultLimits()
		limits.MaxKeyTableSize = 1
		rd := tagbin.NewReaderWithLimits(&buf, limits, true)
		_, err := rd.ReadKey()
		Expect(err).NotTo(HaveOccurred())
		_, err = rd.ReadKey()
		Expect(err).To(MatchError(tagbin.ErrLimitExceeded))
	})

	It("rejects defining a struct template past MaxStructTableSize", func() {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		_, err := wr.DefineStruct("a")
		Expect(err).NotTo(HaveOccurred())
		_, err = wr.DefineStruct("b")
		Expect(err).NotTo(HaveOccurred())
		Expect(wr.Flush()).To(Succeed())

		limits := tagbin.DefaultLimits()
		limits.MaxStructTableSize = 1
		rd := tagbin.NewReaderWithLimits(&buf, limits, true)
		_, _, err = rd.ReadStructHeader()
		Expect(err).NotTo(HaveOccurred())
		_, _, err = rd.ReadStructHeader()
		Expect(err).To(MatchError(tagbin.ErrLimitExceeded))
	})

	It("rejects nesting past MaxDepth via the object binder", func() {
		td := tagbin.NewTypeDescriptor([]tagbin.FieldSpec{
			{WireName: "v", Kind: tagbin.KindInt,
				Get: func(r any) any { return r.(*map[string]any) },
				Set: func(r any, v any) error { return nil }},
		})

		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteMapHeader(1)).To(Succeed())
		Expect(wr.WriteKey("v")).To(Succeed())
		Expect(wr.WriteInt(1)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		limits := tagbin.DefaultLimits()
		limits.MaxDepth = 0
		rd := tagbin.NewReaderWithLimits(&buf, limits, true)
		record := map[string]any{}
		err := tagbin.DecodeRecord(rd, &record, td, tagbin.DefaultOptions())
		Expect(err).To(MatchError(tagbin.ErrLimitExceeded))
	})
})
