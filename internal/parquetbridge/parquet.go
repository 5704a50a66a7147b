// Copyright (c) 2025 Neomantra Corp

// Package parquetbridge exports a decoded tagbin Table (tabular.go) to a
// Parquet file, one Arrow column builder per union-of-keys column.
// Adapted from dbn-go's internal/file/parquet_writer.go, which builds a
// fixed GroupNode per Databento record schema and writes one
// WriteBatch-per-column-per-row; here the GroupNode is built dynamically
// from the table's own column set and inferred value types instead of a
// compiled-in record layout.
package parquetbridge

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/codezerg/tagbin"
)

// columnType is the inferred Arrow/Parquet representation of a column,
// picked from the first non-nil value observed in any row.
type columnType int

const (
	colString columnType = iota
	colInt64
	colFloat64
	colBool
	colBinary
)

// ExportTable writes table to destFile as a single-row-group Parquet
// file. Columns are ordered by the first row that carries them; columns
// first seen in the same row come in map iteration order, which is not
// defined. A column whose every row is nil defaults to a string column.
func ExportTable(table tagbin.Table, destFile string) error {
	columns := unionOfKeysOrdered(table)
	types := inferColumnTypes(table, columns)

	outfile, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destFile, err)
	}
	defer outfile.Close()

	pwProperties := parquet.NewWriterProperties(
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(compress.Codecs.Snappy))

	group := groupNodeForColumns(columns, types)
	pw := pqfile.NewParquetWriter(outfile, group, pqfile.WithWriterProps(pwProperties))
	defer pw.Close()

	rgw := pw.AppendBufferedRowGroup()
	for _, row := range table {
		if err := writeRow(rgw, columns, types, row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := rgw.Close(); err != nil {
		return err
	}
	if err := pw.FlushWithFooter(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func unionOfKeysOrdered(table tagbin.Table) []string {
	seen := make(map[string]bool)
	cols := make([]string, 0)
	for _, row := range table {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	return cols
}

func inferColumnTypes(table tagbin.Table, columns []string) []columnType {
	types := make([]columnType, len(columns))
	for i, col := range columns {
		types[i] = colString
	rows:
		for _, row := range table {
			v, ok := row[col]
			if !ok || v == nil {
				continue
			}
			switch v.(type) {
			case bool:
				types[i] = colBool
			case int64:
				types[i] = colInt64
			case float64:
				types[i] = colFloat64
			case []byte:
				types[i] = colBinary
			default:
				types[i] = colString
			}
			break rows
		}
	}
	return types
}

func groupNodeForColumns(columns []string, types []columnType) *pqschema.GroupNode {
	fields := make(pqschema.FieldList, len(columns))
	for i, col := range columns {
		switch types[i] {
		case colBool:
			fields[i] = pqschema.NewBooleanNode(col, parquet.Repetitions.Optional, -1)
		case colInt64:
			fields[i] = pqschema.MustPrimitive(pqschema.NewPrimitiveNodeLogical(
				col, parquet.Repetitions.Optional, pqschema.NewIntLogicalType(64, true), parquet.Types.Int64, 0, -1))
		case colFloat64:
			fields[i] = pqschema.NewFloat64Node(col, parquet.Repetitions.Optional, -1)
		case colBinary:
			fields[i] = pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted(
				col, parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.None, 0, 0, 0, -1))
		default:
			fields[i] = pqschema.MustPrimitive(pqschema.NewPrimitiveNodeConverted(
				col, parquet.Repetitions.Optional, parquet.Types.ByteArray, pqschema.ConvertedTypes.UTF8, 0, 0, 0, -1))
		}
	}
	return pqschema.MustGroup(pqschema.NewGroupNode("schema", parquet.Repetitions.Required, fields, -1))
}

func writeRow(rgw pqfile.BufferedRowGroupWriter, columns []string, types []columnType, row tagbin.Row) error {
	for i, col := range columns {
		cw, err := rgw.Column(i)
		if err != nil {
			return err
		}
		v, present := row[col]
		if !present {
			v = nil
		}
		if err := writeCell(cw, types[i], v); err != nil {
			return err
		}
	}
	return nil
}

// writeCell writes one row's value for a column. Errors from WriteBatch
// are not propagated, mirroring dbn-go's own per-row column writers in
// parquet_writer.go ("TODO: handle errors").
func writeCell(cw pqfile.ColumnChunkWriter, t columnType, v any) error {
	if v == nil {
		writeNull(cw, t)
		return nil
	}
	switch t {
	case colBool:
		b, ok := v.(bool)
		if !ok {
			writeNull(cw, t)
			return nil
		}
		cw.(*pqfile.BooleanColumnChunkWriter).WriteBatch([]bool{b}, []int16{1}, nil)
	case colInt64:
		n, ok := v.(int64)
		if !ok {
			writeNull(cw, t)
			return nil
		}
		cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch([]int64{n}, []int16{1}, nil)
	case colFloat64:
		f, ok := v.(float64)
		if !ok {
			writeNull(cw, t)
			return nil
		}
		cw.(*pqfile.Float64ColumnChunkWriter).WriteBatch([]float64{f}, []int16{1}, nil)
	case colBinary:
		b, ok := v.([]byte)
		if !ok {
			writeNull(cw, t)
			return nil
		}
		cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{b}, []int16{1}, nil)
	default:
		s := stringifyCell(v)
		cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch([]parquet.ByteArray{[]byte(s)}, []int16{1}, nil)
	}
	return nil
}

func writeNull(cw pqfile.ColumnChunkWriter, t columnType) {
	switch t {
	case colBool:
		cw.(*pqfile.BooleanColumnChunkWriter).WriteBatch(nil, []int16{0}, nil)
	case colInt64:
		cw.(*pqfile.Int64ColumnChunkWriter).WriteBatch(nil, []int16{0}, nil)
	case colFloat64:
		cw.(*pqfile.Float64ColumnChunkWriter).WriteBatch(nil, []int16{0}, nil)
	default:
		cw.(*pqfile.ByteArrayColumnChunkWriter).WriteBatch(nil, []int16{0}, nil)
	}
}

func stringifyCell(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
