// Copyright (c) 2025 Neomantra Corp

package tagbin

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// DefaultDecodeBufferSize sizes the bufio.Reader wrapping the source,
// mirroring dbn-go's DbnScanner buffering (dbn_scanner.go).
const DefaultDecodeBufferSize = 16 * 1024

// Reader is the low-level tagbin decoder. It owns the decoder-side key
// and struct tables for one stream, enforces Limits, and supports
// structural skip and one-token lookahead via peek_type. Modeled on
// dbn-go's DbnScanner: a *bufio.Reader wrapped source plus small bits of
// session state (here, the symbol tables instead of a metadata cache).
type Reader struct {
	br        *bufio.Reader
	leaveOpen bool
	closer    io.Closer

	Keys    *KeyTable
	Structs *StructTable
	Limits  Limits
}

// NewReader wraps r as a tagbin Reader using DefaultLimits. If r
// implements io.Closer, Close() will close it unless leaveOpen is true.
func NewReader(r io.Reader, leaveOpen bool) *Reader {
	return NewReaderWithLimits(r, DefaultLimits(), leaveOpen)
}

// NewReaderWithLimits is NewReader with explicit resource Limits.
func NewReaderWithLimits(r io.Reader, limits Limits, leaveOpen bool) *Reader {
	closer, _ := r.(io.Closer)
	return &Reader{
		br:        bufio.NewReaderSize(r, DefaultDecodeBufferSize),
		leaveOpen: leaveOpen,
		closer:    closer,
		Keys:      NewKeyTable(),
		Structs:   NewStructTable(),
		Limits:    limits,
	}
}

// Close closes the underlying stream unless leaveOpen was set.
func (rd *Reader) Close() error {
	if !rd.leaveOpen && rd.closer != nil {
		return rd.closer.Close()
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Byte-level plumbing

// peekByte returns the next byte without consuming it. At a top-level
// token boundary, io.EOF is reported back to the caller (not translated)
// so PeekType can distinguish "clean end of stream" from mid-token
// truncation.
func (rd *Reader) peekByte() (byte, error) {
	b, err := rd.br.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readByteRaw consumes and returns one byte; EOF here is always mid-token.
func (rd *Reader) readByteRaw() (byte, error) {
	b, err := rd.br.ReadByte()
	if err != nil {
		return 0, ensureNotEOF(err)
	}
	return b, nil
}

// readN consumes and returns exactly n bytes; EOF here is always mid-token.
func (rd *Reader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rd.br, buf); err != nil {
		return nil, ensureNotEOF(err)
	}
	return buf, nil
}

func (rd *Reader) readMarker() (Marker, error) {
	b, err := rd.readByteRaw()
	return Marker(b), err
}

func (rd *Reader) readUint16() (uint16, error) {
	b, err := rd.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (rd *Reader) readUint32() (uint32, error) {
	b, err := rd.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (rd *Reader) readUint64() (uint64, error) {
	b, err := rd.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

///////////////////////////////////////////////////////////////////////////////
// Peek / type classification

// PeekType classifies the next marker without consuming it. At a clean
// end of stream it returns TokenEndOfStream with a nil error.
func (rd *Reader) PeekType() (TokenType, error) {
	b, err := rd.peekByte()
	if err != nil {
		if err == io.EOF {
			return TokenEndOfStream, nil
		}
		return TokenUnknown, err
	}
	m := Marker(b)
	if isReservedMarker(m) {
		return TokenUnknown, nil
	}
	if m == MarkerBeginMap {
		return TokenMap, nil
	}
	return classifyMarker(m), nil
}

// ReadType reports the same classification as PeekType. It does not
// consume the marker: every typed Read* method and Skip() re-derives the
// marker itself, so there is no separate "consumed but unprocessed"
// state to track between ReadType and the call that follows it.
func (rd *Reader) ReadType() (TokenType, error) {
	return rd.PeekType()
}

// IsEnd reports whether the next token is END, without consuming it.
func (rd *Reader) IsEnd() (bool, error) {
	b, err := rd.peekByte()
	if err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return Marker(b) == MarkerEnd, nil
}

// ReadEnd consumes the END marker closing an unbounded collection.
func (rd *Reader) ReadEnd() error {
	m, err := rd.readMarker()
	if err != nil {
		return err
	}
	if m != MarkerEnd {
		return endWithoutBeginError()
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Commands that mutate table state as a side effect of being read (not skipped)

// SkipClearCommands consumes and applies any run of CLEAR_KEYS /
// CLEAR_STRUCTS / CLEAR_ALL commands sitting at the current stream
// position. Callers that start reading an independent top-level value
// (a new record, a new table row) should call this first, since these
// commands may appear between values wherever a long-lived stream wants
// to bound its table growth.
func (rd *Reader) SkipClearCommands() error {
	for {
		b, err := rd.peekByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch Marker(b) {
		case MarkerClearKeys:
			rd.br.Discard(1) //nolint:errcheck
			rd.Keys.Clear()
		case MarkerClearStructs:
			rd.br.Discard(1) //nolint:errcheck
			rd.Structs.Clear()
		case MarkerClearAll:
			rd.br.Discard(1) //nolint:errcheck
			rd.Keys.Clear()
			rd.Structs.Clear()
		default:
			return nil
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// Primitive scalars

func (rd *Reader) expectMarker(got Marker, want ...Marker) error {
	for _, m := range want {
		if got == m {
			return nil
		}
	}
	return unexpectedTokenError(classifyMarker(got), classifyMarker(want[0]))
}

// ReadNil consumes the nil marker.
func (rd *Reader) ReadNil() error {
	m, err := rd.readMarker()
	if err != nil {
		return err
	}
	if m != MarkerNil {
		return unexpectedTokenError(classifyMarker(m), TokenNil)
	}
	return nil
}

// ReadBool consumes a true/false marker.
func (rd *Reader) ReadBool() (bool, error) {
	m, err := rd.readMarker()
	if err != nil {
		return false, err
	}
	switch m {
	case MarkerTrue:
		return true, nil
	case MarkerFalse:
		return false, nil
	default:
		return false, unexpectedTokenError(classifyMarker(m), TokenBoolean)
	}
}

// ReadInt reads any integer-family marker and widens it to int64.
func (rd *Reader) ReadInt() (int64, error) {
	m, err := rd.readMarker()
	if err != nil {
		return 0, err
	}
	switch {
	case m >= markerPosFixintMin && m <= markerPosFixintMax:
		return int64(m), nil
	case m >= markerNegFixintMin && m <= markerNegFixintMax:
		return int64(m&0x0F) - 16, nil
	}
	switch m {
	case MarkerInt8:
		b, err := rd.readByteRaw()
		return int64(int8(b)), err
	case MarkerInt16:
		v, err := rd.readUint16()
		return int64(int16(v)), err
	case MarkerInt32:
		v, err := rd.readUint32()
		return int64(int32(v)), err
	case MarkerInt64:
		v, err := rd.readUint64()
		return int64(v), err
	case MarkerUint8:
		b, err := rd.readByteRaw()
		return int64(b), err
	case MarkerUint16:
		v, err := rd.readUint16()
		return int64(v), err
	case MarkerUint32:
		v, err := rd.readUint32()
		return int64(v), err
	case MarkerUint64:
		v, err := rd.readUint64()
		if v > math.MaxInt64 {
			return 0, ErrTypeMismatch
		}
		return int64(v), err
	default:
		return 0, unexpectedTokenError(classifyMarker(m), TokenInteger)
	}
}

// ReadUint reads any integer-family marker and widens it to uint64.
// Negative values are rejected with ErrTypeMismatch.
func (rd *Reader) ReadUint() (uint64, error) {
	if b, err := rd.peekByte(); err == nil && Marker(b) == MarkerUint64 {
		rd.br.Discard(1) //nolint:errcheck
		return rd.readUint64()
	}
	v, err := rd.ReadInt()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, ErrTypeMismatch
	}
	return uint64(v), nil
}

// ReadFloat32 reads a float32 marker.
func (rd *Reader) ReadFloat32() (float32, error) {
	m, err := rd.readMarker()
	if err != nil {
		return 0, err
	}
	if m != MarkerFloat32 {
		return 0, unexpectedTokenError(classifyMarker(m), TokenFloat)
	}
	v, err := rd.readUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a float marker, widening float32 to float64.
func (rd *Reader) ReadFloat64() (float64, error) {
	m, err := rd.readMarker()
	if err != nil {
		return 0, err
	}
	switch m {
	case MarkerFloat64:
		v, err := rd.readUint64()
		return math.Float64frombits(v), err
	case MarkerFloat32:
		v, err := rd.readUint32()
		return float64(math.Float32frombits(v)), err
	default:
		return 0, unexpectedTokenError(classifyMarker(m), TokenFloat)
	}
}

func (rd *Reader) readLengthPrefix(m Marker) (int, error) {
	switch {
	case m >= markerFixstrMin && m <= markerFixstrMax:
		return int(m & 0x1F), nil
	}
	switch m {
	case MarkerStr8, MarkerBin8:
		b, err := rd.readByteRaw()
		return int(b), err
	case MarkerStr16, MarkerBin16:
		v, err := rd.readUint16()
		return int(v), err
	case MarkerStr32, MarkerBin32:
		v, err := rd.readUint32()
		return int(v), err
	}
	return 0, unexpectedTokenError(classifyMarker(m), TokenString)
}

// ReadString reads a string-family marker.
func (rd *Reader) ReadString() (string, error) {
	m, err := rd.readMarker()
	if err != nil {
		return "", err
	}
	if !(m >= markerFixstrMin && m <= markerFixstrMax) && m != MarkerStr8 && m != MarkerStr16 && m != MarkerStr32 {
		return "", unexpectedTokenError(classifyMarker(m), TokenString)
	}
	n, err := rd.readLengthPrefix(m)
	if err != nil {
		return "", err
	}
	if err := rd.Limits.checkStringLength(n); err != nil {
		return "", err
	}
	b, err := rd.readN(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBinary reads a bin-family marker.
func (rd *Reader) ReadBinary() ([]byte, error) {
	m, err := rd.readMarker()
	if err != nil {
		return nil, err
	}
	if m != MarkerBin8 && m != MarkerBin16 && m != MarkerBin32 {
		return nil, unexpectedTokenError(classifyMarker(m), TokenBinary)
	}
	n, err := rd.readLengthPrefix(m)
	if err != nil {
		return nil, err
	}
	if err := rd.Limits.checkBinaryLength(n); err != nil {
		return nil, err
	}
	return rd.readN(n)
}

///////////////////////////////////////////////////////////////////////////////
// Arrays and maps

// ReadArrayHeader reads an array-family marker (fixarray/array16/array32
// or BEGIN_ARRAY) and returns its element count, or -1 for unbounded.
func (rd *Reader) ReadArrayHeader() (int, error) {
	m, err := rd.readMarker()
	if err != nil {
		return 0, err
	}
	switch {
	case m >= markerFixarrayMin && m <= markerFixarrayMax:
		return int(m & 0x0F), nil
	}
	switch m {
	case MarkerArray16:
		v, err := rd.readUint16()
		return int(v), err
	case MarkerArray32:
		v, err := rd.readUint32()
		return int(v), err
	case MarkerBeginArray:
		return -1, nil
	default:
		return 0, unexpectedTokenError(classifyMarker(m), TokenArray)
	}
}

// ReadMapHeader reads a map-family marker (fixmap/map16/map32 or
// BEGIN_MAP) and returns its pair count, or -1 for unbounded.
func (rd *Reader) ReadMapHeader() (int, error) {
	m, err := rd.readMarker()
	if err != nil {
		return 0, err
	}
	switch {
	case m >= markerFixmapMin && m <= markerFixmapMax:
		return int(m & 0x0F), nil
	}
	switch m {
	case MarkerMap16:
		v, err := rd.readUint16()
		return int(v), err
	case MarkerMap32:
		v, err := rd.readUint32()
		return int(v), err
	case MarkerBeginMap:
		return -1, nil
	default:
		return 0, unexpectedTokenError(classifyMarker(m), TokenMap)
	}
}

///////////////////////////////////////////////////////////////////////////////
// Key interning and struct templates (§4.3)

// ReadKey implements the read-key protocol: USE_KEY dereferences,
// SET_KEY decodes+registers+returns, anything else is read as an inline
// string (bypassing the table). Any CLEAR_* commands sitting before the
// key are applied first.
func (rd *Reader) ReadKey() (string, error) {
	if err := rd.SkipClearCommands(); err != nil {
		return "", err
	}
	b, err := rd.peekByte()
	if err != nil {
		return "", ensureNotEOF(err)
	}
	switch Marker(b) {
	case MarkerUseKey:
		rd.br.Discard(1) //nolint:errcheck
		id, err := readVarint(rd)
		if err != nil {
			return "", err
		}
		s, ok := rd.Keys.Get(id)
		if !ok {
			return "", unknownKeyIDError(id)
		}
		return s, nil
	case MarkerSetKey:
		rd.br.Discard(1) //nolint:errcheck
		id, err := readVarint(rd)
		if err != nil {
			return "", err
		}
		s, err := rd.ReadString()
		if err != nil {
			return "", err
		}
		if err := rd.Limits.checkKeyTableSize(rd.Keys.Len() + 1); err != nil {
			return "", err
		}
		rd.Keys.Insert(id, s)
		return s, nil
	default:
		return rd.ReadString()
	}
}

// ReadStructHeader reads either a DEFINE_STRUCT (registering the
// template, with no following values) or a USE_STRUCT (lookup only,
// with the field values following in the stream). The bool result
// reports whether field values follow.
func (rd *Reader) ReadStructHeader() (fields []string, hasValues bool, err error) {
	m, err := rd.readMarker()
	if err != nil {
		return nil, false, err
	}
	switch m {
	case MarkerDefineStruct:
		id, err := readVarint(rd)
		if err != nil {
			return nil, false, err
		}
		count, err := rd.readByteRaw()
		if err != nil {
			return nil, false, err
		}
		names := make([]string, count)
		for i := range names {
			names[i], err = rd.ReadKey()
			if err != nil {
				return nil, false, err
			}
		}
		if err := rd.Limits.checkStructTableSize(rd.Structs.Len() + 1); err != nil {
			return nil, false, err
		}
		rd.Structs.Insert(id, names)
		return names, false, nil
	case MarkerUseStruct:
		id, err := readVarint(rd)
		if err != nil {
			return nil, false, err
		}
		names, ok := rd.Structs.Get(id)
		if !ok {
			return nil, false, unknownStructIDError(id)
		}
		return names, true, nil
	default:
		return nil, false, unexpectedTokenError(classifyMarker(m), TokenStruct)
	}
}

///////////////////////////////////////////////////////////////////////////////
// Structural skip (§4.2)

// Skip consumes exactly one logical value (of any shape), including its
// nested subtree and unbounded collections terminated by END. It does
// not mutate the symbol tables: SET_KEY and DEFINE_STRUCT are consumed
// but not registered when encountered this way (per the format's
// "skipping does not mutate the symbol tables" rule), so a USE_KEY or
// USE_STRUCT that is itself skipped still requires its definition to
// have been registered by a prior non-skip read.
func (rd *Reader) Skip() error {
	m, err := rd.readMarker()
	if err != nil {
		return err
	}
	return rd.skipAfterMarker(m)
}

func (rd *Reader) skipAfterMarker(m Marker) error {
	switch {
	case m >= markerPosFixintMin && m <= markerPosFixintMax:
		return nil
	case m >= markerNegFixintMin && m <= markerNegFixintMax:
		return nil
	case m >= markerFixstrMin && m <= markerFixstrMax:
		n := int(m & 0x1F)
		_, err := rd.readN(n)
		return err
	case m >= markerFixarrayMin && m <= markerFixarrayMax:
		return rd.skipCounted(int(m & 0x0F))
	case m >= markerFixmapMin && m <= markerFixmapMax:
		return rd.skipCounted(2 * int(m&0x0F))
	}
	switch m {
	case MarkerNil, MarkerFalse, MarkerTrue:
		return nil
	case MarkerBin8, MarkerBin16, MarkerBin32, MarkerStr8, MarkerStr16, MarkerStr32:
		n, err := rd.readLengthPrefix(m)
		if err != nil {
			return err
		}
		_, err = rd.readN(n)
		return err
	case MarkerFloat32, MarkerUint32, MarkerInt32:
		_, err := rd.readN(4)
		return err
	case MarkerFloat64, MarkerUint64, MarkerInt64:
		_, err := rd.readN(8)
		return err
	case MarkerUint8, MarkerInt8:
		_, err := rd.readN(1)
		return err
	case MarkerUint16, MarkerInt16:
		_, err := rd.readN(2)
		return err
	case MarkerArray16:
		n, err := rd.readUint16()
		if err != nil {
			return err
		}
		return rd.skipCounted(int(n))
	case MarkerArray32:
		n, err := rd.readUint32()
		if err != nil {
			return err
		}
		return rd.skipCounted(int(n))
	case MarkerMap16:
		n, err := rd.readUint16()
		if err != nil {
			return err
		}
		return rd.skipCounted(2 * int(n))
	case MarkerMap32:
		n, err := rd.readUint32()
		if err != nil {
			return err
		}
		return rd.skipCounted(2 * int(n))
	case MarkerBeginArray, MarkerBeginMap:
		return rd.skipUntilEnd()
	case MarkerEnd:
		return endWithoutBeginError()
	case MarkerSetKey:
		if _, err := readVarint(rd); err != nil {
			return err
		}
		_, err := rd.ReadString()
		return err
	case MarkerUseKey:
		_, err := readVarint(rd)
		return err
	case MarkerDefineStruct:
		if _, err := readVarint(rd); err != nil {
			return err
		}
		count, err := rd.readByteRaw()
		if err != nil {
			return err
		}
		return rd.skipCounted(int(count))
	case MarkerUseStruct:
		id, err := readVarint(rd)
		if err != nil {
			return err
		}
		fields, ok := rd.Structs.Get(id)
		if !ok {
			return unknownStructIDError(id)
		}
		return rd.skipCounted(len(fields))
	case MarkerClearKeys, MarkerClearStructs, MarkerClearAll:
		return nil
	default:
		return malformedMarkerError(m)
	}
}

func (rd *Reader) skipCounted(n int) error {
	for i := 0; i < n; i++ {
		if err := rd.Skip(); err != nil {
			return err
		}
	}
	return nil
}

func (rd *Reader) skipUntilEnd() error {
	for {
		end, err := rd.IsEnd()
		if err != nil {
			return err
		}
		if end {
			return rd.ReadEnd()
		}
		if err := rd.Skip(); err != nil {
			return err
		}
	}
}
