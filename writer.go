// Copyright (c) 2025 Neomantra Corp

package tagbin

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer is the low-level tagbin encoder. It owns the encoder-side key
// and struct tables for one stream and is single-owner, synchronous: it
// must not be shared across goroutines. Modeled on dbn-go's Metadata.Write
// (writeV1/writeV2), which builds up a byte stream with a sequence of
// binary.Write calls over an io.Writer -- here generalized to every
// marker in the wire alphabet and big-endian throughout.
type Writer struct {
	w         io.Writer
	leaveOpen bool
	closer    io.Closer

	Keys    *KeyTable
	Structs *StructTable
}

// NewWriter wraps w as a tagbin Writer. If w implements io.Closer,
// Close() will close it unless leaveOpen is true.
func NewWriter(w io.Writer, leaveOpen bool) *Writer {
	closer, _ := w.(io.Closer)
	return &Writer{
		w:         w,
		leaveOpen: leaveOpen,
		closer:    closer,
		Keys:      NewKeyTable(),
		Structs:   NewStructTable(),
	}
}

// Flush flushes any buffered writer beneath w, if it exposes a Flush method.
func (wr *Writer) Flush() error {
	type flusher interface{ Flush() error }
	if f, ok := wr.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and, unless leaveOpen was set, closes the underlying stream.
func (wr *Writer) Close() error {
	if err := wr.Flush(); err != nil {
		return err
	}
	if !wr.leaveOpen && wr.closer != nil {
		return wr.closer.Close()
	}
	return nil
}

func (wr *Writer) writeByte(b byte) error {
	_, err := wr.w.Write([]byte{b})
	return err
}

func (wr *Writer) writeBytes(b []byte) error {
	_, err := wr.w.Write(b)
	return err
}

func (wr *Writer) writeMarker(m Marker) error {
	return wr.writeByte(byte(m))
}

///////////////////////////////////////////////////////////////////////////////
// Primitive scalars

// WriteNil emits the nil marker.
func (wr *Writer) WriteNil() error {
	return wr.writeMarker(MarkerNil)
}

// WriteBool emits true or false.
func (wr *Writer) WriteBool(v bool) error {
	if v {
		return wr.writeMarker(MarkerTrue)
	}
	return wr.writeMarker(MarkerFalse)
}

// WriteInt emits a signed integer using the smallest marker that holds it,
// per the encoder compaction rule: positive fixint, negative fixint,
// int8, int16, int32, int64 in that preference order.
func (wr *Writer) WriteInt(v int64) error {
	switch {
	case v >= 0 && v <= int64(markerPosFixintMax):
		return wr.writeByte(byte(v))
	case v < 0 && v >= -16:
		return wr.writeByte(byte(0xE0 | (v + 16)))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return wr.writeFixed(MarkerInt8, uint64(uint8(int8(v))), 1)
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return wr.writeFixed(MarkerInt16, uint64(uint16(int16(v))), 2)
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return wr.writeFixed(MarkerInt32, uint64(uint32(int32(v))), 4)
	default:
		return wr.writeFixed(MarkerInt64, uint64(v), 8)
	}
}

// WriteUint emits an unsigned integer using the smallest marker that
// holds it: positive fixint, uint8, uint16, uint32, uint64.
func (wr *Writer) WriteUint(v uint64) error {
	switch {
	case v <= uint64(markerPosFixintMax):
		return wr.writeByte(byte(v))
	case v <= math.MaxUint8:
		return wr.writeFixed(MarkerUint8, v, 1)
	case v <= math.MaxUint16:
		return wr.writeFixed(MarkerUint16, v, 2)
	case v <= math.MaxUint32:
		return wr.writeFixed(MarkerUint32, v, 4)
	default:
		return wr.writeFixed(MarkerUint64, v, 8)
	}
}

func (wr *Writer) writeFixed(m Marker, v uint64, nbytes int) error {
	if err := wr.writeMarker(m); err != nil {
		return err
	}
	var buf [8]byte
	switch nbytes {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(buf[:2], uint16(v))
	case 4:
		binary.BigEndian.PutUint32(buf[:4], uint32(v))
	case 8:
		binary.BigEndian.PutUint64(buf[:8], v)
	}
	return wr.writeBytes(buf[:nbytes])
}

// WriteFloat32 emits a 32-bit IEEE-754 float.
func (wr *Writer) WriteFloat32(v float32) error {
	return wr.writeFixed(MarkerFloat32, uint64(math.Float32bits(v)), 4)
}

// WriteFloat64 emits a 64-bit IEEE-754 float.
func (wr *Writer) WriteFloat64(v float64) error {
	return wr.writeFixed(MarkerFloat64, math.Float64bits(v), 8)
}

// WriteString emits a UTF-8 string using the smallest length class:
// fixstr (<=31 bytes), str8, str16, str32.
func (wr *Writer) WriteString(s string) error {
	n := len(s)
	switch {
	case n <= 31:
		if err := wr.writeByte(byte(markerFixstrMin) | byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint8:
		if err := wr.writeMarker(MarkerStr8); err != nil {
			return err
		}
		if err := wr.writeByte(byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := wr.writeMarker(MarkerStr16); err != nil {
			return err
		}
		if err := wr.writeFixed16(uint16(n)); err != nil {
			return err
		}
	default:
		if err := wr.writeMarker(MarkerStr32); err != nil {
			return err
		}
		if err := wr.writeFixed32(uint32(n)); err != nil {
			return err
		}
	}
	return wr.writeBytes([]byte(s))
}

// WriteBinary emits an opaque byte blob using bin8/bin16/bin32.
func (wr *Writer) WriteBinary(b []byte) error {
	n := len(b)
	switch {
	case n <= math.MaxUint8:
		if err := wr.writeMarker(MarkerBin8); err != nil {
			return err
		}
		if err := wr.writeByte(byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := wr.writeMarker(MarkerBin16); err != nil {
			return err
		}
		if err := wr.writeFixed16(uint16(n)); err != nil {
			return err
		}
	default:
		if err := wr.writeMarker(MarkerBin32); err != nil {
			return err
		}
		if err := wr.writeFixed32(uint32(n)); err != nil {
			return err
		}
	}
	return wr.writeBytes(b)
}

func (wr *Writer) writeFixed16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return wr.writeBytes(buf[:])
}

func (wr *Writer) writeFixed32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return wr.writeBytes(buf[:])
}

///////////////////////////////////////////////////////////////////////////////
// Arrays and maps

// WriteArrayHeader emits a counted array header for n elements. The
// caller must then write exactly n values; the Writer does not validate this.
func (wr *Writer) WriteArrayHeader(n int) error {
	switch {
	case n <= 15:
		return wr.writeByte(byte(markerFixarrayMin) | byte(n))
	case n <= math.MaxUint16:
		if err := wr.writeMarker(MarkerArray16); err != nil {
			return err
		}
		return wr.writeFixed16(uint16(n))
	default:
		if err := wr.writeMarker(MarkerArray32); err != nil {
			return err
		}
		return wr.writeFixed32(uint32(n))
	}
}

// WriteMapHeader emits a counted map header for n pairs. The caller must
// then write exactly n (key, value) pairs; the Writer does not validate this.
func (wr *Writer) WriteMapHeader(n int) error {
	switch {
	case n <= 15:
		return wr.writeByte(byte(markerFixmapMin) | byte(n))
	case n <= math.MaxUint16:
		if err := wr.writeMarker(MarkerMap16); err != nil {
			return err
		}
		return wr.writeFixed16(uint16(n))
	default:
		if err := wr.writeMarker(MarkerMap32); err != nil {
			return err
		}
		return wr.writeFixed32(uint32(n))
	}
}

// BeginArray opens an unbounded array; the caller writes elements until
// calling WriteEnd.
func (wr *Writer) BeginArray() error {
	return wr.writeMarker(MarkerBeginArray)
}

// BeginMap opens an unbounded map; the caller writes (key, value) pairs
// until calling WriteEnd.
func (wr *Writer) BeginMap() error {
	return wr.writeMarker(MarkerBeginMap)
}

// WriteEnd closes the innermost open BEGIN_ARRAY/BEGIN_MAP frame.
func (wr *Writer) WriteEnd() error {
	return wr.writeMarker(MarkerEnd)
}

///////////////////////////////////////////////////////////////////////////////
// Key interning and struct templates (§4.3)

// WriteKey implements the write-key protocol: if s is already interned,
// emit USE_KEY(id); otherwise allocate a fresh id, intern it, and emit
// SET_KEY(id, s).
func (wr *Writer) WriteKey(s string) error {
	id, isNew := wr.Keys.Intern(s)
	if !isNew {
		return wr.UseKey(id)
	}
	return wr.setKey(id, s)
}

// SetKey interns s under the next free id, even if s is already
// interned, emits SET_KEY, and returns that id. WriteKey is the usual
// entry point.
func (wr *Writer) SetKey(s string) (uint32, error) {
	id := wr.Keys.NextID()
	wr.Keys.Insert(id, s)
	return id, wr.setKey(id, s)
}

func (wr *Writer) setKey(id uint32, s string) error {
	if err := wr.writeMarker(MarkerSetKey); err != nil {
		return err
	}
	if err := writeVarint(wr, id); err != nil {
		return err
	}
	return wr.WriteString(s)
}

// UseKey emits USE_KEY(id), dereferencing a previously interned key.
func (wr *Writer) UseKey(id uint32) error {
	if err := wr.writeMarker(MarkerUseKey); err != nil {
		return err
	}
	return writeVarint(wr, id)
}

// DefineStruct allocates a fresh struct-template id, emits DEFINE_STRUCT
// with fieldNames (each written through WriteKey so names are
// themselves interned), and returns the id. The caller must not follow
// this with field values -- DEFINE_STRUCT carries the template only.
func (wr *Writer) DefineStruct(fieldNames ...string) (uint32, error) {
	if len(fieldNames) > 255 {
		return 0, limitExceededError("struct field count", len(fieldNames), 255)
	}
	id := wr.Structs.Define(fieldNames)
	if err := wr.writeMarker(MarkerDefineStruct); err != nil {
		return 0, err
	}
	if err := writeVarint(wr, id); err != nil {
		return 0, err
	}
	if err := wr.writeByte(byte(len(fieldNames))); err != nil {
		return 0, err
	}
	for _, name := range fieldNames {
		if err := wr.WriteKey(name); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// UseStruct emits USE_STRUCT(id). The caller must follow this with
// exactly the template's field count of values, in declared order.
func (wr *Writer) UseStruct(id uint32) error {
	if err := wr.writeMarker(MarkerUseStruct); err != nil {
		return err
	}
	return writeVarint(wr, id)
}

// ClearKeys empties the key table; the next key id restarts at 0.
func (wr *Writer) ClearKeys() error {
	wr.Keys.Clear()
	return wr.writeMarker(MarkerClearKeys)
}

// ClearStructs empties the struct table; the next struct id restarts at 0.
func (wr *Writer) ClearStructs() error {
	wr.Structs.Clear()
	return wr.writeMarker(MarkerClearStructs)
}

// ClearAll empties both tables.
func (wr *Writer) ClearAll() error {
	wr.Keys.Clear()
	wr.Structs.Clear()
	return wr.writeMarker(MarkerClearAll)
}
