// Package value models the graphs the codec serializes: primitives, ordered
// records, dense and sparse arrays, dates, regular expressions, maps, sets,
// byte buffers, and typed views.
//
// Scalars use native Go types (bool, int32, uint32, float64, string; nil is
// the null value). Composites are pointer types so that object identity —
// cycles and shared subtrees — is plain pointer identity, which is what the
// codec's identity map keys on.
package value

import "time"

// UndefinedType is the type of the Undefined singleton.
type UndefinedType struct{}

// Undefined is the undefined value. It is distinct from nil (null).
var Undefined UndefinedType

func (UndefinedType) String() string { return "undefined" }

// HoleType is the type of the Hole singleton.
type HoleType struct{}

// Hole marks a gap in a dense array's element list.
var Hole HoleType

func (HoleType) String() string { return "hole" }

// Property is one own property of an object or array. Key is a string or a
// uint32 array index; insertion order is preserved and significant.
type Property struct {
	Key   any
	Value any
}

// Object is a plain record with ordered properties keyed by strings or
// uint32 indices.
type Object struct {
	Props []Property
}

// Set appends a property, preserving insertion order.
func (o *Object) Set(key, val any) {
	o.Props = append(o.Props, Property{Key: key, Value: val})
}

// Get returns the value of the first property with the given key.
func (o *Object) Get(key any) (any, bool) {
	for _, p := range o.Props {
		if p.Key == key {
			return p.Value, true
		}
	}

	return nil, false
}

// DenseArray stores every index positionally; gaps hold the Hole singleton.
// Props carries trailing non-index properties in insertion order.
type DenseArray struct {
	Elements []any
	Props    []Property
}

// Length returns the array length.
func (a *DenseArray) Length() uint32 {
	return uint32(len(a.Elements))
}

// SparseArray stores a declared length and only the present indices, as
// ordered properties with uint32 keys. Non-index properties follow in the
// same list.
type SparseArray struct {
	Len   uint32
	Props []Property
}

// Date wraps a timestamp with object identity. The wire precision is
// milliseconds since the Unix epoch.
type Date struct {
	Time time.Time
}

// NewDate creates a Date truncated to wire precision.
func NewDate(t time.Time) *Date {
	return &Date{Time: t.Truncate(time.Millisecond)}
}

// RegExpFlags is the flag bitfield of a regular expression.
type RegExpFlags uint8

const (
	RegExpGlobal     RegExpFlags = 1 << 0
	RegExpIgnoreCase RegExpFlags = 1 << 1
	RegExpMultiline  RegExpFlags = 1 << 2
	RegExpSticky     RegExpFlags = 1 << 3
	RegExpUnicode    RegExpFlags = 1 << 4
)

// String renders the flags in the conventional source order, e.g. "gim".
func (f RegExpFlags) String() string {
	buf := make([]byte, 0, 5)
	if f&RegExpGlobal != 0 {
		buf = append(buf, 'g')
	}
	if f&RegExpIgnoreCase != 0 {
		buf = append(buf, 'i')
	}
	if f&RegExpMultiline != 0 {
		buf = append(buf, 'm')
	}
	if f&RegExpSticky != 0 {
		buf = append(buf, 'y')
	}
	if f&RegExpUnicode != 0 {
		buf = append(buf, 'u')
	}

	return string(buf)
}

// RegExp is a regular expression: source pattern plus flags.
type RegExp struct {
	Source string
	Flags  RegExpFlags
}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is a key/value collection with ordered entries.
type Map struct {
	Entries []MapEntry
}

// Set is a collection of ordered values.
type Set struct {
	Values []any
}

// ArrayBuffer owns a raw byte payload. Shared marks SharedArrayBuffer
// semantics; shared buffers travel only through the transfer map.
type ArrayBuffer struct {
	Data   []byte
	Shared bool
}

// NewArrayBuffer creates a buffer owning data.
func NewArrayBuffer(data []byte) *ArrayBuffer {
	return &ArrayBuffer{Data: data}
}

// ByteLength returns the buffer length in bytes.
func (b *ArrayBuffer) ByteLength() uint32 {
	return uint32(len(b.Data))
}

// ViewKind names a typed view constructor.
type ViewKind uint8

const (
	ViewInt8 ViewKind = iota
	ViewUint8
	ViewUint8Clamped
	ViewInt16
	ViewUint16
	ViewInt32
	ViewUint32
	ViewFloat32
	ViewFloat64
	ViewDataView
)

// ElementSize returns the element width in bytes. DataView reports 1.
func (k ViewKind) ElementSize() int {
	switch k {
	case ViewInt8, ViewUint8, ViewUint8Clamped, ViewDataView:
		return 1
	case ViewInt16, ViewUint16:
		return 2
	case ViewInt32, ViewUint32, ViewFloat32:
		return 4
	case ViewFloat64:
		return 8
	default:
		return 0
	}
}

// String returns the constructor name.
func (k ViewKind) String() string {
	switch k {
	case ViewInt8:
		return "Int8Array"
	case ViewUint8:
		return "Uint8Array"
	case ViewUint8Clamped:
		return "Uint8ClampedArray"
	case ViewInt16:
		return "Int16Array"
	case ViewUint16:
		return "Uint16Array"
	case ViewInt32:
		return "Int32Array"
	case ViewUint32:
		return "Uint32Array"
	case ViewFloat32:
		return "Float32Array"
	case ViewFloat64:
		return "Float64Array"
	case ViewDataView:
		return "DataView"
	default:
		return "Unknown"
	}
}

// ArrayBufferView is a typed window over an ArrayBuffer. The view and its
// buffer are distinct objects with distinct identities.
type ArrayBufferView struct {
	Kind       ViewKind
	Buffer     *ArrayBuffer
	ByteOffset uint32
	ByteLength uint32
}

// NewView creates a view spanning the whole buffer.
func NewView(kind ViewKind, buf *ArrayBuffer) *ArrayBufferView {
	return &ArrayBufferView{
		Kind:       kind,
		Buffer:     buf,
		ByteLength: buf.ByteLength(),
	}
}

// Bytes returns the window of the underlying buffer this view covers.
func (v *ArrayBufferView) Bytes() []byte {
	return v.Buffer.Data[v.ByteOffset : v.ByteOffset+v.ByteLength]
}

// BooleanObject is a boxed boolean.
type BooleanObject struct {
	Value bool
}

// NumberObject is a boxed number.
type NumberObject struct {
	Value float64
}

// StringObject is a boxed string.
type StringObject struct {
	Value string
}
