// Copyright (c) 2025 Neomantra Corp

package tagbin

// ReadAny decodes the next value generically: the declared target is
// any/object, so the reader widens integers to int64 and floats to
// float64 per §4.4, and resolves to one of nil, bool, int64, float64,
// string, []byte, []any, or map[string]any.
//
// Unbounded arrays/maps are fully materialized here (ReadAny has no
// counted-target constraint to violate); callers that must preserve
// "unbounded-ness" should use Walk/Skip instead.
func (rd *Reader) ReadAny() (any, error) {
	if err := rd.SkipClearCommands(); err != nil {
		return nil, err
	}
	tt, err := rd.PeekType()
	if err != nil {
		return nil, err
	}
	switch tt {
	case TokenNil:
		return nil, rd.ReadNil()
	case TokenBoolean:
		return rd.ReadBool()
	case TokenInteger:
		return rd.ReadInt()
	case TokenFloat:
		return rd.ReadFloat64()
	case TokenString:
		return rd.ReadString()
	case TokenBinary:
		return rd.ReadBinary()
	case TokenArray:
		return rd.readAnyArray()
	case TokenMap, TokenStruct:
		return rd.readAnyMap()
	case TokenEndOfStream:
		return nil, ErrTruncated
	default:
		return nil, unexpectedTokenError(tt, TokenNil)
	}
}

func (rd *Reader) readAnyArray() (any, error) {
	n, err := rd.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0)
	if n < 0 {
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return nil, err
			}
			if end {
				return out, rd.ReadEnd()
			}
			v, err := rd.ReadAny()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	out = make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := rd.ReadAny()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (rd *Reader) readAnyMap() (any, error) {
	b, err := rd.peekByte()
	if err != nil {
		return nil, err
	}
	if Marker(b) == MarkerDefineStruct || Marker(b) == MarkerUseStruct {
		fields, hasValues, err := rd.ReadStructHeader()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(fields))
		if hasValues {
			for _, f := range fields {
				v, err := rd.ReadAny()
				if err != nil {
					return nil, err
				}
				out[f] = v
			}
		}
		return out, nil
	}

	n, err := rd.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if n < 0 {
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return nil, err
			}
			if end {
				return out, rd.ReadEnd()
			}
			key, err := rd.ReadKey()
			if err != nil {
				return nil, err
			}
			v, err := rd.ReadAny()
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
	}
	for i := 0; i < n; i++ {
		key, err := rd.ReadKey()
		if err != nil {
			return nil, err
		}
		v, err := rd.ReadAny()
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// WriteAny encodes a dynamic Go value (the inverse of ReadAny): nil,
// bool, every Go integer and float width, string, []byte, []any and
// map[string]any. Any other type (time.Time, uuid.UUID, Decimal, typed
// slices or maps, structs) is rejected with ErrUnsupportedTarget.
func (wr *Writer) WriteAny(v any) error {
	switch x := v.(type) {
	case nil:
		return wr.WriteNil()
	case bool:
		return wr.WriteBool(x)
	case int:
		return wr.WriteInt(int64(x))
	case int8:
		return wr.WriteInt(int64(x))
	case int16:
		return wr.WriteInt(int64(x))
	case int32:
		return wr.WriteInt(int64(x))
	case int64:
		return wr.WriteInt(x)
	case uint:
		return wr.WriteUint(uint64(x))
	case uint8:
		return wr.WriteUint(uint64(x))
	case uint16:
		return wr.WriteUint(uint64(x))
	case uint32:
		return wr.WriteUint(uint64(x))
	case uint64:
		return wr.WriteUint(x)
	case float32:
		return wr.WriteFloat32(x)
	case float64:
		return wr.WriteFloat64(x)
	case string:
		return wr.WriteString(x)
	case []byte:
		return wr.WriteBinary(x)
	case []any:
		if err := wr.WriteArrayHeader(len(x)); err != nil {
			return err
		}
		for _, elem := range x {
			if err := wr.WriteAny(elem); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		if err := wr.WriteMapHeader(len(x)); err != nil {
			return err
		}
		for k, val := range x {
			if err := wr.WriteKey(k); err != nil {
				return err
			}
			if err := wr.WriteAny(val); err != nil {
				return err
			}
		}
		return nil
	default:
		return unsupportedDynamicTypeError(v)
	}
}
