// Copyright (c) 2025 Neomantra Corp

package tagbin

import (
	"bytes"
	"io"
)

// Encode serializes value to a byte slice. If td is non-nil, value is
// encoded as a record through the object binder (§4.4); if td is nil,
// value is encoded dynamically through WriteAny (the "generic object"
// target_type of §6's encode operation).
func Encode(value any, td *TypeDescriptor, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeStream(&buf, value, td, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeStream is Encode's stream variant, writing to an already-open sink.
func EncodeStream(w io.Writer, value any, td *TypeDescriptor, opts Options) error {
	wr := NewWriter(w, true)
	if td != nil {
		if err := EncodeRecord(wr, value, td, opts); err != nil {
			return err
		}
	} else if err := wr.WriteAny(value); err != nil {
		return err
	}
	return wr.Flush()
}

// Decode deserializes data into record. If td is non-nil, record is
// populated field-by-field through the object binder, tolerating
// schema drift per §4.4; record must be a pointer-like value whose
// FieldSpec.Set closures can mutate it. If td is nil, data is decoded
// dynamically and returned as the second result (record is ignored).
func Decode(data []byte, record any, td *TypeDescriptor, opts Options) (any, error) {
	return DecodeStream(bytes.NewReader(data), record, td, opts)
}

// DecodeStream is Decode's stream variant, reading from an already-open source.
func DecodeStream(r io.Reader, record any, td *TypeDescriptor, opts Options) (any, error) {
	rd := NewReader(r, true)
	if td != nil {
		return record, DecodeRecord(rd, record, td, opts)
	}
	return rd.ReadAny()
}
