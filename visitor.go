// Copyright (c) 2025 Neomantra Corp

package tagbin

// Visitor lets a caller walk a dynamic tagbin value without
// materializing it into a Go value, mirroring dbn-go's record-dispatch
// Visitor but keyed on wire shape instead of record type.
type Visitor interface {
	OnNil() error
	OnBool(v bool) error
	OnInt(v int64) error
	OnFloat(v float64) error
	OnString(v string) error
	OnBinary(v []byte) error

	// OnArrayBegin is called with n >= 0 for a counted array, or -1 for
	// an unbounded one; OnArrayEnd always follows once every element has
	// been walked.
	OnArrayBegin(n int) error
	OnArrayEnd() error

	// OnMapBegin/OnMapEnd bracket a map the same way OnArrayBegin/End do.
	// OnKey is called for each pair's key before its value is walked.
	OnMapBegin(n int) error
	OnKey(key string) error
	OnMapEnd() error
}

// Walk drives visitor over exactly one logical value read from rd,
// recursing into nested arrays/maps/struct instances.
func (rd *Reader) Walk(visitor Visitor) error {
	tt, err := rd.PeekType()
	if err != nil {
		return err
	}
	switch tt {
	case TokenNil:
		if err := rd.ReadNil(); err != nil {
			return err
		}
		return visitor.OnNil()
	case TokenBoolean:
		v, err := rd.ReadBool()
		if err != nil {
			return err
		}
		return visitor.OnBool(v)
	case TokenInteger:
		v, err := rd.ReadInt()
		if err != nil {
			return err
		}
		return visitor.OnInt(v)
	case TokenFloat:
		v, err := rd.ReadFloat64()
		if err != nil {
			return err
		}
		return visitor.OnFloat(v)
	case TokenString:
		v, err := rd.ReadString()
		if err != nil {
			return err
		}
		return visitor.OnString(v)
	case TokenBinary:
		v, err := rd.ReadBinary()
		if err != nil {
			return err
		}
		return visitor.OnBinary(v)
	case TokenArray:
		return rd.walkArray(visitor)
	case TokenMap:
		return rd.walkMapOrStruct(visitor)
	case TokenStruct:
		return rd.walkMapOrStruct(visitor)
	default:
		return unexpectedTokenError(tt, TokenNil)
	}
}

func (rd *Reader) walkArray(visitor Visitor) error {
	n, err := rd.ReadArrayHeader()
	if err != nil {
		return err
	}
	if err := visitor.OnArrayBegin(n); err != nil {
		return err
	}
	if n < 0 {
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return err
			}
			if end {
				if err := rd.ReadEnd(); err != nil {
					return err
				}
				break
			}
			if err := rd.Walk(visitor); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < n; i++ {
			if err := rd.Walk(visitor); err != nil {
				return err
			}
		}
	}
	return visitor.OnArrayEnd()
}

// walkMapOrStruct handles both a plain map token and a struct-template
// token (DEFINE_STRUCT / USE_STRUCT), surfacing both as a map to visitor.
func (rd *Reader) walkMapOrStruct(visitor Visitor) error {
	peekByte, err := rd.peekByte()
	if err != nil {
		return err
	}
	if Marker(peekByte) == MarkerDefineStruct || Marker(peekByte) == MarkerUseStruct {
		fields, hasValues, err := rd.ReadStructHeader()
		if err != nil {
			return err
		}
		if err := visitor.OnMapBegin(len(fields)); err != nil {
			return err
		}
		if hasValues {
			for _, f := range fields {
				if err := visitor.OnKey(f); err != nil {
					return err
				}
				if err := rd.Walk(visitor); err != nil {
					return err
				}
			}
		}
		return visitor.OnMapEnd()
	}

	n, err := rd.ReadMapHeader()
	if err != nil {
		return err
	}
	if err := visitor.OnMapBegin(n); err != nil {
		return err
	}
	if n < 0 {
		for {
			end, err := rd.IsEnd()
			if err != nil {
				return err
			}
			if end {
				if err := rd.ReadEnd(); err != nil {
					return err
				}
				break
			}
			key, err := rd.ReadKey()
			if err != nil {
				return err
			}
			if err := visitor.OnKey(key); err != nil {
				return err
			}
			if err := rd.Walk(visitor); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < n; i++ {
			key, err := rd.ReadKey()
			if err != nil {
				return err
			}
			if err := visitor.OnKey(key); err != nil {
				return err
			}
			if err := rd.Walk(visitor); err != nil {
				return err
			}
		}
	}
	return visitor.OnMapEnd()
}
