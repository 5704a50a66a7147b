// Copyright (c) 2025 Neomantra Corp

package tagbin

// Marker is the leading byte of every token in a tagbin stream.
type Marker byte

const (
	markerPosFixintMin Marker = 0x00
	markerPosFixintMax Marker = 0x7F

	markerFixmapMin Marker = 0x80
	markerFixmapMax Marker = 0x8F

	markerFixarrayMin Marker = 0x90
	markerFixarrayMax Marker = 0x9F

	markerFixstrMin Marker = 0xA0
	markerFixstrMax Marker = 0xBF

	MarkerNil   Marker = 0xC0
	MarkerFalse Marker = 0xC1
	MarkerTrue  Marker = 0xC2

	MarkerBin8  Marker = 0xC3
	MarkerBin16 Marker = 0xC4
	MarkerBin32 Marker = 0xC5

	MarkerFloat32 Marker = 0xC6
	MarkerFloat64 Marker = 0xC7

	MarkerUint8  Marker = 0xC8
	MarkerUint16 Marker = 0xC9
	MarkerUint32 Marker = 0xCA
	MarkerUint64 Marker = 0xCB

	MarkerInt8  Marker = 0xCC
	MarkerInt16 Marker = 0xCD
	MarkerInt32 Marker = 0xCE
	MarkerInt64 Marker = 0xCF

	MarkerStr8  Marker = 0xD0
	MarkerStr16 Marker = 0xD1
	MarkerStr32 Marker = 0xD2

	MarkerArray16 Marker = 0xD3
	MarkerArray32 Marker = 0xD4

	MarkerMap16 Marker = 0xD5
	MarkerMap32 Marker = 0xD6

	markerNegFixintMin Marker = 0xE0
	markerNegFixintMax Marker = 0xEF

	// Commands, see consts below.
	MarkerSetKey       Marker = 0xF0
	MarkerUseKey       Marker = 0xF1
	MarkerDefineStruct Marker = 0xF2
	MarkerUseStruct    Marker = 0xF3
	MarkerClearKeys    Marker = 0xF4
	MarkerClearStructs Marker = 0xF5
	MarkerClearAll     Marker = 0xF6
	MarkerBeginArray   Marker = 0xF7
	MarkerEnd          Marker = 0xF8
	MarkerBeginMap     Marker = 0xF9

	markerReservedMin Marker = 0xFA
	markerReservedMax Marker = 0xFF
)

// TokenType is the stable classification peek_type() resolves a marker to.
type TokenType int

const (
	TokenUnknown TokenType = iota
	TokenNil
	TokenBoolean
	TokenInteger
	TokenFloat
	TokenString
	TokenBinary
	TokenArray
	TokenMap
	TokenKey     // SET_KEY or USE_KEY
	TokenStruct  // DEFINE_STRUCT or USE_STRUCT
	TokenCommand // CLEAR_KEYS / CLEAR_STRUCTS / CLEAR_ALL
	TokenEnd     // END
	TokenEndOfStream
)

// classifyMarker maps a leading byte to its stable TokenType.
// It does not validate reserved markers; callers check isReserved first.
func classifyMarker(m Marker) TokenType {
	switch {
	case m >= markerPosFixintMin && m <= markerPosFixintMax:
		return TokenInteger
	case m >= markerFixmapMin && m <= markerFixmapMax:
		return TokenMap
	case m >= markerFixarrayMin && m <= markerFixarrayMax:
		return TokenArray
	case m >= markerFixstrMin && m <= markerFixstrMax:
		return TokenString
	case m >= markerNegFixintMin && m <= markerNegFixintMax:
		return TokenInteger
	}
	switch m {
	case MarkerNil:
		return TokenNil
	case MarkerFalse, MarkerTrue:
		return TokenBoolean
	case MarkerBin8, MarkerBin16, MarkerBin32:
		return TokenBinary
	case MarkerFloat32, MarkerFloat64:
		return TokenFloat
	case MarkerUint8, MarkerUint16, MarkerUint32, MarkerUint64,
		MarkerInt8, MarkerInt16, MarkerInt32, MarkerInt64:
		return TokenInteger
	case MarkerStr8, MarkerStr16, MarkerStr32:
		return TokenString
	case MarkerArray16, MarkerArray32:
		return TokenArray
	case MarkerMap16, MarkerMap32:
		return TokenMap
	case MarkerSetKey, MarkerUseKey:
		return TokenKey
	case MarkerDefineStruct, MarkerUseStruct:
		return TokenStruct
	case MarkerClearKeys, MarkerClearStructs, MarkerClearAll:
		return TokenCommand
	case MarkerBeginArray, MarkerBeginMap:
		return TokenArray // caller distinguishes map/array by the specific marker
	case MarkerEnd:
		return TokenEnd
	}
	return TokenUnknown
}

func isReservedMarker(m Marker) bool {
	return m >= markerReservedMin && m <= markerReservedMax
}

func isCommandMarker(m Marker) bool {
	return m >= MarkerSetKey && m <= MarkerBeginMap
}
