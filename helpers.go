// Copyright (c) 2025 Neomantra Corp

package tagbin

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// MomentPolicy selects how a moment-in-time scalar (§4.4's "DateTime")
// is packed into its int64 wire form. The source format's native binary
// form packs a 2-bit Unspecified/Utc/Local kind tag into the high bits
// of a signed 64-bit tick count; that is not portable across languages,
// so this port defaults to plain Unix milliseconds (spec.md §9's Open
// Question, resolved in favor of portability) and offers the ticks+kind
// form as an explicit opt-in for same-language round-tripping.
type MomentPolicy int

const (
	MomentPolicyUnixMilli MomentPolicy = iota
	MomentPolicyTicksWithKind
)

const ticksPerMillisecond = 10000
const ticksEpochOffset = 621355968000000000 // ticks between 0001-01-01 and the Unix epoch

// MomentToWire encodes t as the int64 wire form selected by policy.
func MomentToWire(t time.Time, policy MomentPolicy) int64 {
	switch policy {
	case MomentPolicyTicksWithKind:
		ticks := t.UTC().UnixNano()/100 + ticksEpochOffset
		kind := uint64(1) // Utc
		return int64(uint64(ticks)&^(uint64(3)<<62) | kind<<62)
	default:
		return t.UnixMilli()
	}
}

// WireToMoment decodes the int64 wire form produced by MomentToWire.
func WireToMoment(v int64, policy MomentPolicy) time.Time {
	switch policy {
	case MomentPolicyTicksWithKind:
		ticks := int64(uint64(v) &^ (uint64(3) << 62))
		nanos := (ticks - ticksEpochOffset) * 100
		return time.Unix(0, nanos).UTC()
	default:
		return time.UnixMilli(v).UTC()
	}
}

// OffsetMomentToWire encodes t (an offset-moment / "DateTimeOffset") as
// Unix milliseconds; the offset itself lives in t.Location() and is not
// separately encoded, matching §4.4's canonical mapping.
func OffsetMomentToWire(t time.Time) int64 {
	return t.UnixMilli()
}

// WireToOffsetMoment is the inverse of OffsetMomentToWire.
func WireToOffsetMoment(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// DurationToTicks encodes a duration ("TimeSpan") as int64 100ns ticks.
func DurationToTicks(d time.Duration) int64 {
	return int64(d) / 100
}

// TicksToDuration is the inverse of DurationToTicks.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * 100
}

// UUIDToWire returns u's 16 raw bytes in RFC 4122 network byte order,
// resolving spec.md §9's UUID Open Question in favor of the portable
// layout (google/uuid already stores and marshals in that order).
func UUIDToWire(u uuid.UUID) []byte {
	b, _ := u.MarshalBinary()
	return b
}

// WireToUUID is the inverse of UUIDToWire; it requires exactly 16 bytes.
func WireToUUID(b []byte) (uuid.UUID, error) {
	var u uuid.UUID
	if err := u.UnmarshalBinary(b); err != nil {
		return uuid.UUID{}, ErrTypeMismatch
	}
	return u, nil
}

// Decimal is the canonical Go representation of the "decimal" scalar
// type (§4.4): a string-form invariant-culture decimal literal over the
// wire, backed here by math/big since no decimal library appears
// anywhere in the retrieval pack (see DESIGN.md).
type Decimal struct {
	rat *big.Rat
}

// NewDecimalFromString parses an invariant-culture decimal literal
// ("123.456", "-0.5", "10") into a Decimal.
func NewDecimalFromString(s string) (Decimal, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Decimal{}, malformedDecimalError(s)
	}
	return Decimal{rat: r}, nil
}

// NewDecimalFromFloat64 builds a Decimal from a float64.
func NewDecimalFromFloat64(f float64) Decimal {
	return Decimal{rat: new(big.Rat).SetFloat64(f)}
}

// String renders d as an invariant-culture decimal literal.
func (d Decimal) String() string {
	if d.rat == nil {
		return "0"
	}
	return d.rat.FloatString(decimalDisplayPrecision(d.rat))
}

// decimalDisplayPrecision picks enough fractional digits to round-trip
// the rational exactly when its denominator divides a power of ten, falling
// back to a fixed precision otherwise.
func decimalDisplayPrecision(r *big.Rat) int {
	const maxPrecision = 34
	pow := big.NewInt(1)
	ten := big.NewInt(10)
	mod := new(big.Int)
	for prec := 0; prec <= maxPrecision; prec++ {
		if mod.Mod(pow, r.Denom()).Sign() == 0 {
			return prec
		}
		pow.Mul(pow, ten)
	}
	return maxPrecision
}

// WriteDecimal emits d as its canonical string wire form.
func (wr *Writer) WriteDecimal(d Decimal) error {
	return wr.WriteString(d.String())
}

// ReadDecimal reads a string token and parses it as a Decimal.
func (rd *Reader) ReadDecimal() (Decimal, error) {
	s, err := rd.ReadString()
	if err != nil {
		return Decimal{}, err
	}
	return NewDecimalFromString(s)
}
