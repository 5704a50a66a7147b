// Copyright (c) 2025 Neomantra Corp

package tagbin

// Row is one row of a generic tabular data source: a map of column
// name to dynamic value. A column absent from a particular row is
// permitted -- the row simply omits that key (§4.5).
type Row = map[string]any

// Table is an ordered set of rows, the "row-of-map" form of §4.5.
type Table = []Row

// WriteRow writes one row as a counted map. When opts.UseKeyInterning is
// set, column names go through write_key so repeated column names across
// rows are interned; otherwise they are written as inline strings.
func WriteRow(wr *Writer, row Row, opts Options) error {
	if err := wr.WriteMapHeader(len(row)); err != nil {
		return err
	}
	for col, val := range row {
		if err := writeFieldName(wr, col, opts); err != nil {
			return err
		}
		if err := wr.WriteAny(val); err != nil {
			return err
		}
	}
	return nil
}

// ReadRow reads one row, accepting either a counted map or an unbounded
// BEGIN_MAP...END frame (§4.5: "the decoder accepts both counted and
// unbounded forms").
func ReadRow(rd *Reader) (Row, error) {
	if err := rd.SkipClearCommands(); err != nil {
		return nil, err
	}
	n, err := rd.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	row := make(Row)
	if n < 0 {
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return nil, err
			}
			if end {
				return row, rd.ReadEnd()
			}
			col, err := rd.ReadKey()
			if err != nil {
				return nil, err
			}
			val, err := rd.ReadAny()
			if err != nil {
				return nil, err
			}
			row[col] = val
		}
	}
	for i := 0; i < n; i++ {
		col, err := rd.ReadKey()
		if err != nil {
			return nil, err
		}
		val, err := rd.ReadAny()
		if err != nil {
			return nil, err
		}
		row[col] = val
	}
	return row, nil
}

// WriteTable writes rows as a counted array of rows.
func WriteTable(wr *Writer, rows Table, opts Options) error {
	if err := wr.WriteArrayHeader(len(rows)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := WriteRow(wr, row, opts); err != nil {
			return err
		}
	}
	return nil
}

// ReadTable reads a table (counted or unbounded array of rows) and
// reconstructs its schema by union-of-keys across the decoded rows, per
// §4.5. The returned column slice lists each column once, ordered by the
// first row that carries it; columns first seen in the same row come in
// map iteration order, which is not defined. Every row keeps only the
// keys it actually carried (the union is informational, not a
// sparse-fill of the rows themselves).
func ReadTable(rd *Reader) (Table, []string, error) {
	n, err := rd.ReadArrayHeader()
	if err != nil {
		return nil, nil, err
	}
	var rows Table
	if n < 0 {
		rows = make(Table, 0)
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return nil, nil, err
			}
			if end {
				if err := rd.ReadEnd(); err != nil {
					return nil, nil, err
				}
				break
			}
			row, err := ReadRow(rd)
			if err != nil {
				return nil, nil, err
			}
			rows = append(rows, row)
		}
	} else {
		rows = make(Table, 0, n)
		for i := 0; i < n; i++ {
			row, err := ReadRow(rd)
			if err != nil {
				return nil, nil, err
			}
			rows = append(rows, row)
		}
	}
	return rows, unionOfKeys(rows), nil
}

func unionOfKeys(rows Table) []string {
	seen := make(map[string]bool)
	cols := make([]string, 0)
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	return cols
}

// WriteTableSet writes a "table set": a counted array of tables.
func WriteTableSet(wr *Writer, tables []Table, opts Options) error {
	if err := wr.WriteArrayHeader(len(tables)); err != nil {
		return err
	}
	for _, t := range tables {
		if err := WriteTable(wr, t, opts); err != nil {
			return err
		}
	}
	return nil
}

// ReadTableSet reads a table set (counted or unbounded array of tables).
func ReadTableSet(rd *Reader) ([]Table, error) {
	n, err := rd.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	var tables []Table
	if n < 0 {
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return nil, err
			}
			if end {
				return tables, rd.ReadEnd()
			}
			t, _, err := ReadTable(rd)
			if err != nil {
				return nil, err
			}
			tables = append(tables, t)
		}
	}
	tables = make([]Table, 0, n)
	for i := 0; i < n; i++ {
		t, _, err := ReadTable(rd)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

///////////////////////////////////////////////////////////////////////////////
// Row stream: producer/consumer that does not know the row count upfront

// WriteRowStream opens an unbounded row-of-map stream (BEGIN_ARRAY); the
// caller writes rows via WriteRow and closes the frame with
// CloseRowStream.
func WriteRowStream(wr *Writer) error {
	return wr.BeginArray()
}

// CloseRowStream closes a frame opened by WriteRowStream.
func CloseRowStream(wr *Writer) error {
	return wr.WriteEnd()
}

// RowStreamReader pulls rows one at a time from an unbounded (or
// counted) row array without materializing the whole table, mirroring
// dbn-go's DbnScanner.Next()/Error()/record pull-loop (dbn_scanner.go):
// the caller loops "for rs.Next() { row := rs.Row(); ... }" and checks
// rs.Err() once the loop ends.
type RowStreamReader struct {
	rd       *Reader
	counted  bool
	remain   int
	row      Row
	err      error
	finished bool
}

// NewRowStreamReader reads the array header (counted or unbounded) and
// returns a reader positioned to pull rows.
func NewRowStreamReader(rd *Reader) (*RowStreamReader, error) {
	n, err := rd.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return &RowStreamReader{rd: rd, counted: false}, nil
	}
	return &RowStreamReader{rd: rd, counted: true, remain: n}, nil
}

// Next advances to the next row, returning false at end of stream or on error.
func (rs *RowStreamReader) Next() bool {
	if rs.finished || rs.err != nil {
		return false
	}
	if rs.counted {
		if rs.remain <= 0 {
			rs.finished = true
			return false
		}
		rs.remain--
	} else {
		end, err := rs.rd.IsEnd()
		if err != nil {
			rs.err = err
			return false
		}
		if end {
			rs.finished = true
			rs.err = rs.rd.ReadEnd()
			return false
		}
	}
	row, err := ReadRow(rs.rd)
	if err != nil {
		rs.err = err
		return false
	}
	rs.row = row
	return true
}

// Row returns the row last produced by Next.
func (rs *RowStreamReader) Row() Row {
	return rs.row
}

// Err returns the first error encountered, if any. io.EOF from a
// counted stream ending exactly on schedule is not surfaced as an error.
func (rs *RowStreamReader) Err() error {
	return rs.err
}
