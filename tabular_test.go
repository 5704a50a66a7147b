// Copyright (c) 2025 Neomantra Corp

package tagbin_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codezerg/tagbin"
)

var _ = Describe("Tabular bridges", func() {
	opts := tagbin.DefaultOptions()

	It("round-trips a Table and reconstructs the union-of-keys schema", func() {
		rows := tagbin.Table{
			{"symbol": "AAPL", "price": 189.25},
			{"symbol": "MSFT", "price": 402.1, "venue": "XNAS"},
		}
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(tagbin.WriteTable(wr, rows, opts)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		out, cols, err := tagbin.ReadTable(rd)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(rows))
		// Rows are maps, so only the row in which a column first appears
		// fixes its position; "symbol" and "price" share the first row.
		Expect(cols).To(HaveLen(3))
		Expect(cols[:2]).To(ConsistOf("symbol", "price"))
		Expect(cols[2]).To(Equal("venue"))
	})

	It("round-trips a table set", func() {
		tables := []tagbin.Table{
			{{"a": int64(1)}},
			{{"b": int64(2)}, {"b": int64(3)}},
		}
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(tagbin.WriteTableSet(wr, tables, opts)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		out, err := tagbin.ReadTableSet(rd)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(tables))
	})

	It("pulls rows one at a time from a counted RowStreamReader", func() {
		rows := tagbin.Table{
			{"a": int64(1)},
			{"a": int64(2)},
		}
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(tagbin.WriteTable(wr, rows, opts)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		rs, err := tagbin.NewRowStreamReader(rd)
		Expect(err).NotTo(HaveOccurred())

		var got tagbin.Table
		for rs.Next() {
			got = append(got, rs.Row())
		}
		Expect(rs.Err()).NotTo(HaveOccurred())
		Expect(got).To(Equal(rows))
	})

	It("pulls rows from an unbounded WriteRowStream/CloseRowStream frame", func() {
		var buf bytes.Buffer
		wr := tagbin.NewWriter(&buf, true)
		Expect(tagbin.WriteRowStream(wr)).To(Succeed())
		Expect(tagbin.WriteRow(wr, tagbin.Row{"x": int64(1)}, opts)).To(Succeed())
		Expect(tagbin.WriteRow(wr, tagbin.Row{"x": int64(2)}, opts)).To(Succeed())
		Expect(tagbin.CloseRowStream(wr)).To(Succeed())
		Expect(wr.Flush()).To(Succeed())

		rd := tagbin.NewReader(&buf, true)
		rs, err := tagbin.NewRowStreamReader(rd)
		Expect(err).NotTo(HaveOccurred())

		var got tagbin.Table
		for rs.Next() {
			got = append(got, rs.Row())
		}
		Expect(rs.Err()).NotTo(HaveOccurred())
		Expect(got).To(Equal(tagbin.Table{{"x": int64(1)}, {"x": int64(2)}}))
	})
})
