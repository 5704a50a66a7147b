// Copyright (c) 2025 Neomantra Corp

package tagbin

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/relvacode/iso8601"
)

// Options are the serializer options of §6: use_key_interning controls
// whether field/column names go through the key table, include_fields
// is carried for API parity with the source format's annotation surface
// but has no mechanical effect here -- this module takes its field list
// from a host-supplied FieldSpec slice rather than runtime reflection
// (spec.md §9's design note), so "should reflection include fields as
// well as properties" has nothing to act on; a host code generator
// consults it when it builds that FieldSpec slice, not this binder.
type Options struct {
	UseKeyInterning bool
	IncludeFields   bool
	MomentPolicy    MomentPolicy
}

// DefaultOptions returns { UseKeyInterning: true, IncludeFields: false,
// MomentPolicy: MomentPolicyUnixMilli }, matching §6.
func DefaultOptions() Options {
	return Options{UseKeyInterning: true, MomentPolicy: MomentPolicyUnixMilli}
}

// Encodable lets a nested record type hand-write its own encoding
// instead of going through reflect-free FieldSpec dispatch.
type Encodable interface {
	EncodeTagbin(wr *Writer, opts Options) error
}

// Decodable is Encodable's decode-side counterpart; DecodeTagbin must
// have a pointer receiver so it can mutate the record in place.
type Decodable interface {
	DecodeTagbin(rd *Reader, opts Options) error
}

///////////////////////////////////////////////////////////////////////////////
// Encode

// EncodeRecord writes record as a map of its descriptor's fields, per
// §4.4: a map header with the field count, then wire-name + value for
// each field in descriptor order.
func EncodeRecord(wr *Writer, record any, td *TypeDescriptor, opts Options) error {
	if err := wr.WriteMapHeader(len(td.Fields)); err != nil {
		return err
	}
	for _, f := range td.Fields {
		if err := writeFieldName(wr, f.WireName, opts); err != nil {
			return err
		}
		val := f.Get(record)
		if err := writeValueByKind(wr, f.Kind, f.ElemKind, val, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeFieldName(wr *Writer, name string, opts Options) error {
	if opts.UseKeyInterning {
		return wr.WriteKey(name)
	}
	return wr.WriteString(name)
}

func writeValueByKind(wr *Writer, kind, elemKind FieldKind, val any, opts Options) error {
	if val == nil {
		return wr.WriteNil()
	}
	switch kind {
	case KindAny:
		return wr.WriteAny(val)
	case KindBool:
		return wr.WriteBool(val.(bool))
	case KindInt:
		return wr.WriteInt(reflectInt(val))
	case KindUint:
		return wr.WriteUint(reflectUint(val))
	case KindFloat32:
		return wr.WriteFloat32(float32(reflectFloat(val)))
	case KindFloat64:
		return wr.WriteFloat64(reflectFloat(val))
	case KindString:
		return wr.WriteString(val.(string))
	case KindBinary:
		return wr.WriteBinary(val.([]byte))
	case KindDecimal:
		return wr.WriteDecimal(val.(Decimal))
	case KindMoment:
		return wr.WriteInt(MomentToWire(val.(time.Time), opts.MomentPolicy))
	case KindMomentOffset:
		return wr.WriteInt(OffsetMomentToWire(val.(time.Time)))
	case KindDuration:
		return wr.WriteInt(DurationToTicks(val.(time.Duration)))
	case KindUUID:
		return wr.WriteBinary(UUIDToWire(val.(uuid.UUID)))
	case KindEnum:
		return wr.WriteInt(reflectInt(val))
	case KindSlice:
		return writeSlice(wr, elemKind, val, opts)
	case KindMap:
		return writeMap(wr, elemKind, val, opts)
	case KindStruct:
		if enc, ok := val.(Encodable); ok {
			return enc.EncodeTagbin(wr, opts)
		}
		return wr.WriteAny(val)
	default:
		return wr.WriteAny(val)
	}
}

func writeSlice(wr *Writer, elemKind FieldKind, val any, opts Options) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return unsupportedDynamicTypeError(val)
	}
	n := rv.Len()
	if err := wr.WriteArrayHeader(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := writeValueByKind(wr, elemKind, KindAny, rv.Index(i).Interface(), opts); err != nil {
			return err
		}
	}
	return nil
}

func writeMap(wr *Writer, elemKind FieldKind, val any, opts Options) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Map {
		return unsupportedDynamicTypeError(val)
	}
	keys := rv.MapKeys()
	if err := wr.WriteMapHeader(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if k.Kind() != reflect.String {
			return unsupportedDynamicTypeError(val)
		}
		if err := writeFieldName(wr, k.String(), opts); err != nil {
			return err
		}
		if err := writeValueByKind(wr, elemKind, KindAny, rv.MapIndex(k).Interface(), opts); err != nil {
			return err
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Decode (resiliency rules of §4.4 / §7)

// DecodeRecord decodes one map or struct-template value into record
// using td, tolerating schema drift per §4.4: unknown keys are skipped,
// missing keys keep record's existing (freshly constructed) defaults,
// and a known key whose wire type is incompatible with the field's
// declared kind is skipped rather than aborting the whole record.
func DecodeRecord(rd *Reader, record any, td *TypeDescriptor, opts Options) error {
	return decodeRecordDepth(rd, record, td, opts, 0)
}

func decodeRecordDepth(rd *Reader, record any, td *TypeDescriptor, opts Options, depth int) error {
	if err := rd.Limits.checkDepth(depth + 1); err != nil {
		return err
	}
	if err := rd.SkipClearCommands(); err != nil {
		return err
	}
	b, err := rd.peekByte()
	if err != nil {
		return err
	}
	if Marker(b) == MarkerDefineStruct || Marker(b) == MarkerUseStruct {
		fields, hasValues, err := rd.ReadStructHeader()
		if err != nil {
			return err
		}
		if !hasValues {
			// A bare template definition sitting where a record value was
			// expected: it was registered as a side effect; the actual
			// record value follows immediately.
			return decodeRecordDepth(rd, record, td, opts, depth)
		}
		for _, name := range fields {
			if err := decodeOneField(rd, record, td, name, opts, depth); err != nil {
				return err
			}
		}
		return nil
	}

	n, err := rd.ReadMapHeader()
	if err != nil {
		return err
	}
	if n < 0 {
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return err
			}
			if end {
				return rd.ReadEnd()
			}
			key, err := rd.ReadKey()
			if err != nil {
				return err
			}
			if err := decodeOneField(rd, record, td, key, opts, depth); err != nil {
				return err
			}
		}
	}
	for i := 0; i < n; i++ {
		key, err := rd.ReadKey()
		if err != nil {
			return err
		}
		if err := decodeOneField(rd, record, td, key, opts, depth); err != nil {
			return err
		}
	}
	return nil
}

func decodeOneField(rd *Reader, record any, td *TypeDescriptor, key string, opts Options, depth int) error {
	spec, known := td.FieldByName(key)
	if !known {
		return rd.Skip()
	}
	tt, err := rd.PeekType()
	if err != nil {
		return err
	}
	if tt == TokenNil {
		// A nil on the wire leaves the field at its existing default
		// rather than forcing every concrete Kind's typed Read* method to
		// special-case MarkerNil; KindAny still gets the nil via Set.
		if err := rd.ReadNil(); err != nil {
			return err
		}
		if spec.Kind == KindAny {
			return spec.Set(record, nil)
		}
		return nil
	}
	if !wireCompatible(tt, spec.Kind) {
		return rd.Skip()
	}
	val, err := decodeValueByKind(rd, spec, opts, depth)
	if err != nil {
		return err
	}
	return spec.Set(record, val)
}

// wireCompatible implements §4.4's wire-type -> declared-family table.
// TokenNil is handled by decodeOneField before this is consulted.
func wireCompatible(tt TokenType, kind FieldKind) bool {
	if kind == KindAny {
		return true
	}
	switch tt {
	case TokenBoolean:
		return kind == KindBool
	case TokenInteger:
		switch kind {
		case KindInt, KindUint, KindEnum, KindMoment, KindMomentOffset, KindDuration:
			return true
		}
		return false
	case TokenFloat:
		switch kind {
		case KindFloat32, KindFloat64, KindDecimal:
			return true
		}
		return false
	case TokenString:
		switch kind {
		case KindString, KindDecimal, KindMoment, KindMomentOffset:
			return true
		}
		return false
	case TokenBinary:
		switch kind {
		case KindBinary, KindUUID:
			return true
		}
		return false
	case TokenArray:
		return kind == KindSlice
	case TokenMap, TokenStruct:
		return kind == KindMap || kind == KindStruct
	}
	return false
}

func decodeValueByKind(rd *Reader, spec FieldSpec, opts Options, depth int) (any, error) {
	switch spec.Kind {
	case KindBool:
		return rd.ReadBool()
	case KindInt:
		return rd.ReadInt()
	case KindUint:
		return rd.ReadUint()
	case KindFloat32:
		return rd.ReadFloat32()
	case KindFloat64:
		return rd.ReadFloat64()
	case KindString:
		return rd.ReadString()
	case KindBinary:
		return rd.ReadBinary()
	case KindDecimal:
		tt, _ := rd.PeekType()
		if tt == TokenFloat {
			f, err := rd.ReadFloat64()
			return NewDecimalFromFloat64(f), err
		}
		return rd.ReadDecimal()
	case KindMoment:
		tt, _ := rd.PeekType()
		if tt == TokenString {
			s, err := rd.ReadString()
			if err != nil {
				return nil, err
			}
			t, err := iso8601.ParseString(s)
			return t, err
		}
		v, err := rd.ReadInt()
		return WireToMoment(v, opts.MomentPolicy), err
	case KindMomentOffset:
		tt, _ := rd.PeekType()
		if tt == TokenString {
			s, err := rd.ReadString()
			if err != nil {
				return nil, err
			}
			t, err := iso8601.ParseString(s)
			return t, err
		}
		v, err := rd.ReadInt()
		return WireToOffsetMoment(v), err
	case KindDuration:
		v, err := rd.ReadInt()
		return TicksToDuration(v), err
	case KindUUID:
		b, err := rd.ReadBinary()
		if err != nil {
			return nil, err
		}
		return WireToUUID(b)
	case KindEnum:
		return rd.ReadInt()
	case KindSlice:
		return decodeSlice(rd, spec, opts, depth)
	case KindMap:
		return decodeMapValue(rd, spec, opts, depth)
	case KindStruct:
		return decodeStructValue(rd, spec, opts, depth)
	default:
		return rd.ReadAny()
	}
}

// decodeSlice decodes a counted array into []any, element kind per
// spec.ElemKind. Unbounded arrays are rejected into a slice target
// (§4.4: "refuses to deserialize unbounded arrays ... into counted
// collection targets"); use the low-level API for unbounded streams.
func decodeSlice(rd *Reader, spec FieldSpec, opts Options, depth int) (any, error) {
	n, err := rd.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, unboundedIntoCountedError()
	}
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeElemByKind(rd, spec.ElemKind, opts, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeMapValue(rd *Reader, spec FieldSpec, opts Options, depth int) (any, error) {
	n, err := rd.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, unboundedIntoCountedError()
	}
	out := make(map[string]any, n)
	for i := 0; i < n; i++ {
		key, err := rd.ReadKey()
		if err != nil {
			return nil, err
		}
		v, err := decodeElemByKind(rd, spec.ElemKind, opts, depth+1)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func decodeElemByKind(rd *Reader, kind FieldKind, opts Options, depth int) (any, error) {
	return decodeValueByKind(rd, FieldSpec{Kind: kind}, opts, depth)
}

func decodeStructValue(rd *Reader, spec FieldSpec, opts Options, depth int) (any, error) {
	if spec.New == nil {
		return rd.ReadAny()
	}
	nested := spec.New()
	if dec, ok := nested.(Decodable); ok {
		if err := dec.DecodeTagbin(rd, opts); err != nil {
			return nil, err
		}
		return nested, nil
	}
	return rd.ReadAny()
}

///////////////////////////////////////////////////////////////////////////////
// reflect-based scalar widening shared by encode/decode

func reflectInt(v any) int64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	}
	return 0
}

func reflectUint(v any) uint64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(rv.Int())
	}
	return 0
}

func reflectFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return 0
}
