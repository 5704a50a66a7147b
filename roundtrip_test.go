// Copyright (c) 2025 Neomantra Corp

package tagbin_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codezerg/tagbin"
)

var _ = Describe("Writer/Reader primitive roundtrip", func() {
	roundtrip := func(write func(*tagbin.Writer) error) *tagbin.Reader {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(write(wr)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())
		return tagbin.NewReader(&buf, true)
	}

	It("round-trips nil", func() {
		rd := roundtrip(func(wr *tagbin.Writer) error { return wr.WriteNil() })
		Expect(rd.ReadNil()).To(Succeed())
	})

	It("round-trips bool", func() {
		rd := roundtrip(func(wr *tagbin.Writer) error { return wr.WriteBool(true) })
		v, err := rd.ReadBool()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeTrue())
	})

	DescribeTable("round-trips integers across marker boundaries",
		func(n int64) {
			rd := roundtrip(func(wr *tagbin.Writer) error { return wr.WriteInt(n) })
			v, err := rd.ReadInt()
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(n))
		},
		Entry("positive fixint max", int64(127)),
		Entry("just above fixint max", int64(128)),
		Entry("negative fixint min", int64(-16)),
		Entry("just below negative fixint", int64(-17)),
		Entry("int8 max", int64(127)),
		Entry("int16 boundary", int64(32767)),
		Entry("int32 boundary", int64(2147483647)),
		Entry("int64 large", int64(9223372036854775807)),
		Entry("negative int64", int64(-9223372036854775808)),
	)

	It("round-trips float64", func() {
		rd := roundtrip(func(wr *tagbin.Writer) error { return wr.WriteFloat64(3.14159) })
		v, err := rd.ReadFloat64()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(3.14159))
	})

	DescribeTable("round-trips strings across length-class boundaries",
		func(n int) {
			s := string(bytes.Repeat([]byte("a"), n))
			rd := roundtrip(func(wr *tagbin.Writer) error { return wr.WriteString(s) })
			v, err := rd.ReadString()
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(s))
		},
		Entry("fixstr max (31 bytes)", 31),
		Entry("str8 (32 bytes)", 32),
		Entry("str8 max (255 bytes)", 255),
		Entry("str16 (256 bytes)", 256),
	)

	It("round-trips binary", func() {
		data := []byte{1, 2, 3, 4, 5}
		rd := roundtrip(func(wr *tagbin.Writer) error { return wr.WriteBinary(data) })
		v, err := rd.ReadBinary()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(data))
	})

	It("round-trips a counted array of mixed scalars", func() {
		rd := roundtrip(func(wr *tagbin.Writer) error {
			if err := wr.WriteArrayHeader(3); err != nil {
				return err
			}
			if err := wr.WriteInt(1); err != nil {
				return err
			}
			if err := wr.WriteString("two"); err != nil {
				return err
			}
			return wr.WriteBool(false)
		})
		n, err := rd.ReadArrayHeader()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
		i, err := rd.ReadInt()
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(int64(1)))
		s, err := rd.ReadString()
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal("two"))
		b, err := rd.ReadBool()
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(BeFalse())
	})

	It("round-trips an unbounded array framed by BEGIN_ARRAY/END", func() {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.BeginArray()).To(Succeed())
		Expect(wr.WriteInt(1)).To(Succeed())
		Expect(wr.WriteInt(2)).To(Succeed())
		Expect(wr.WriteEnd()).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		n, err := rd.ReadArrayHeader()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(-1))
		for i := 0; i < 2; i++ {
			end, err := rd.IsEnd()
			Expect(err).NotTo(HaveOccurred())
			Expect(end).To(BeFalse())
			v, err := rd.ReadInt()
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(int64(i + 1)))
		}
		end, err := rd.IsEnd()
		Expect(err).NotTo(HaveOccurred())
		Expect(end).To(BeTrue())
		Expect(rd.ReadEnd()).To(Succeed())
	})

	It("round-trips dynamic values via WriteAny/ReadAny", func() {
		val := map[string]any{
			"a": int64(1),
			"b": "two",
			"c": []any{int64(1), int64(2), int64(3)},
		}
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteAny(val)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		decoded, err := rd.ReadAny()
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(val))
	})

	It("rejects an END with no open BEGIN_ARRAY/BEGIN_MAP", func() {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteEnd()).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		err := rd.Skip()
		Expect(err).To(MatchError(tagbin.ErrInvalidNesting))
	})
})
