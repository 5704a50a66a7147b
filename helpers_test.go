// Copyright (c) 2025 Neomantra Corp

package tagbin_test

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codezerg/tagbin"
)

var _ = Describe("Scalar helper mappings", func() {
	It("round-trips a moment under MomentPolicyUnixMilli", func() {
		t := time.Date(2026, 7, 31, 12, 30, 0, 0, time.UTC)
		wire := tagbin.MomentToWire(t, tagbin.MomentPolicyUnixMilli)
		got := tagbin.WireToMoment(wire, tagbin.MomentPolicyUnixMilli)
		Expect(got.Equal(t)).To(BeTrue())
	})

	It("round-trips a moment under MomentPolicyTicksWithKind", func() {
		t := time.Date(2026, 7, 31, 12, 30, 0, 0, time.UTC)
		wire := tagbin.MomentToWire(t, tagbin.MomentPolicyTicksWithKind)
		got := tagbin.WireToMoment(wire, tagbin.MomentPolicyTicksWithKind)
		Expect(got.UnixMilli()).To(Equal(t.UnixMilli()))
	})

	It("round-trips an offset-moment as Unix milliseconds", func() {
		t := time.Date(2026, 7, 31, 12, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
		wire := tagbin.OffsetMomentToWire(t)
		got := tagbin.WireToOffsetMoment(wire)
		Expect(got.Equal(t)).To(BeTrue())
	})

	It("round-trips a duration as 100ns ticks", func() {
		d := 90*time.Second + 250*time.Millisecond
		ticks := tagbin.DurationToTicks(d)
		Expect(tagbin.TicksToDuration(ticks)).To(Equal(d))
	})

	It("round-trips a UUID through its RFC 4122 byte form", func() {
		u := uuid.New()
		wire := tagbin.UUIDToWire(u)
		Expect(wire).To(HaveLen(16))
		got, err := tagbin.WireToUUID(wire)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(u))
	})

	It("rejects a malformed UUID byte slice", func() {
		_, err := tagbin.WireToUUID([]byte{1, 2, 3})
		Expect(err).To(MatchError(tagbin.ErrTypeMismatch))
	})

	DescribeTable("round-trips decimal literals through their canonical string form",
		func(literal string) {
			d, err := tagbin.NewDecimalFromString(literal)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.String()).To(Equal(literal))
		},
		Entry("integer", "10"),
		Entry("simple fraction", "123.456"),
		Entry("negative", "-0.5"),
	)

	It("rejects a malformed decimal literal", func() {
		_, err := tagbin.NewDecimalFromString("not-a-decimal")
		Expect(err).To(MatchError(tagbin.ErrTypeMismatch))
	})

	It("round-trips a Decimal over the wire via WriteDecimal/ReadDecimal", func() {
		d, err := tagbin.NewDecimalFromString("101.50")
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(wr.WriteDecimal(d)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		got, err := rd.ReadDecimal()
		Expect(err).NotTo(HaveOccurred())
		Expect(got.String()).To(Equal(d.String()))
	})
})
