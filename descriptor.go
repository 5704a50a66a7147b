// Copyright (c) 2025 Neomantra Corp

package tagbin

import (
	"reflect"
	"sort"
	"sync"
)

// FieldKind is the declared-type family of a field, used to pick the
// canonical wire shape (§4.4) and to check wire/declared compatibility
// on decode (§4.4's compatibility table).
type FieldKind int

const (
	KindAny FieldKind = iota
	KindBool
	KindInt
	KindUint
	KindFloat32
	KindFloat64
	KindString
	KindBinary
	KindDecimal
	KindMoment
	KindMomentOffset
	KindDuration
	KindUUID
	KindEnum
	KindSlice
	KindMap
	KindStruct
)

// FieldSpec is the host-supplied declaration for one field of a record
// type -- the input this module consumes in place of runtime reflection
// (spec.md §9's design note: a systems-language port gets its
// TypeDescriptor from generated code, not reflection). wire_name, order
// and ignored come straight from spec.md §3's Object descriptor; Get/Set
// are the accessor closures a code generator would emit.
type FieldSpec struct {
	WireName string
	Order    int
	Ignored  bool
	Kind     FieldKind

	// ElemKind is consulted when Kind is KindSlice or KindMap to pick the
	// wire shape of each element/value (map keys are always strings).
	ElemKind FieldKind

	// New constructs a fresh nested record instance when Kind is
	// KindStruct and the field's Go type is known at registration time;
	// nil falls back to dynamic (map[string]any) decoding of the nested
	// value. The returned value should implement Decodable to receive
	// the nested fields.
	New func() any

	Get func(record any) any
	Set func(record any, value any) error
}

// TypeDescriptor is a resolved, emit-order-sorted view of a record
// type's fields (spec.md §3's Object descriptor).
type TypeDescriptor struct {
	Fields []FieldSpec
}

// NewTypeDescriptor sorts fields by (order asc, wire_name asc) as
// required by §3 and drops ignored fields, since "ignored fields appear
// in neither direction".
func NewTypeDescriptor(fields []FieldSpec) *TypeDescriptor {
	kept := make([]FieldSpec, 0, len(fields))
	for _, f := range fields {
		if !f.Ignored {
			kept = append(kept, f)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Order != kept[j].Order {
			return kept[i].Order < kept[j].Order
		}
		return kept[i].WireName < kept[j].WireName
	})
	return &TypeDescriptor{Fields: kept}
}

// FieldByName returns the field with the given wire name, or false.
func (d *TypeDescriptor) FieldByName(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.WireName == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// descriptorCache is the process-wide, concurrent-safe memoization of
// reflect.Type -> *TypeDescriptor called for in spec.md §5 ("a
// concurrent map suffices; the entries are immutable once computed").
var descriptorCache sync.Map // map[reflect.Type]*TypeDescriptor

// DescriptorFor returns the cached TypeDescriptor for the dynamic type
// of sample, computing and caching it from fields on first use.
func DescriptorFor(sample any, fields []FieldSpec) *TypeDescriptor {
	rt := reflect.TypeOf(sample)
	if d, ok := descriptorCache.Load(rt); ok {
		return d.(*TypeDescriptor)
	}
	d := NewTypeDescriptor(fields)
	actual, _ := descriptorCache.LoadOrStore(rt, d)
	return actual.(*TypeDescriptor)
}
