package codec

import (
	"fmt"
	"math"
	"time"
	"unicode/utf16"

	"github.com/renvoy/jswire/encoding"
	"github.com/renvoy/jswire/endian"
	"github.com/renvoy/jswire/errs"
	"github.com/renvoy/jswire/internal/options"
	"github.com/renvoy/jswire/value"
	"github.com/renvoy/jswire/wire"
)

// Deserializer parses a structured clone byte stream back into a value
// graph.
//
// Composites are registered in the identity map before their contents are
// decoded, so back-references to an enclosing value (cycles) resolve while
// the value is still being filled in.
//
// Note: The Deserializer is NOT thread-safe, and it must not be reused
// after ReadValue or ReadHeader returns an error: the cursor position is
// unspecified at that point.
type Deserializer struct {
	data   []byte
	pos    int
	engine endian.EndianEngine

	delegate DeserializerDelegate

	version  uint32
	depth    int
	ids      []any
	transfer map[uint32]*value.ArrayBuffer
}

// DeserializerOption represents a functional option for configuring the Deserializer.
type DeserializerOption = options.Option[*Deserializer]

// WithReadDelegate installs the host-object delegate.
func WithReadDelegate(d DeserializerDelegate) DeserializerOption {
	return options.NoError(func(dec *Deserializer) {
		dec.delegate = d
	})
}

// NewDeserializer creates a new Deserializer over data. The input slice is
// never mutated.
//
// Parameters:
//   - data: Encoded byte stream
//   - opts: Optional configuration (delegate)
//
// Returns:
//   - *Deserializer: New deserializer instance ready for decoding
//   - error: Configuration error if invalid options provided
func NewDeserializer(data []byte, opts ...DeserializerOption) (*Deserializer, error) {
	d := &Deserializer{
		data:     data,
		engine:   endian.NativeEngine(),
		transfer: make(map[uint32]*value.ArrayBuffer),
	}

	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// ReadHeader consumes the version header if present.
//
// If the first tag (after any padding) is Version, the varint that follows
// becomes the detected wire format version; otherwise the position stays at
// zero and the version defaults to 0 (legacy).
//
// Returns:
//   - error: ErrUnsupportedVersion if the stream declares a version newer
//     than this codec supports
func (d *Deserializer) ReadHeader() error {
	start := d.pos

	tag, err := d.readTag()
	if err != nil || tag != wire.TagVersion {
		d.pos = start
		return nil
	}

	v, err := d.readVarint32()
	if err != nil {
		return err
	}

	if v > wire.FormatVersion {
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, v)
	}

	d.version = v

	return nil
}

// ReadValue consumes one encoded value and returns it.
func (d *Deserializer) ReadValue() (any, error) {
	return d.readValue()
}

// TransferArrayBuffer registers buf under the externally-chosen transfer id,
// so transfer references in the stream resolve to the caller's handle.
//
// Returns:
//   - error: ErrDuplicateTransfer if the id is already registered
func (d *Deserializer) TransferArrayBuffer(id uint32, buf *value.ArrayBuffer) error {
	if _, ok := d.transfer[id]; ok {
		return fmt.Errorf("%w: transfer id %d", errs.ErrDuplicateTransfer, id)
	}

	d.transfer[id] = buf

	return nil
}

// WireFormatVersion returns the version detected by ReadHeader, or 0 for
// headerless legacy streams.
func (d *Deserializer) WireFormatVersion() uint32 {
	return d.version
}

// ReadUint32 reads a varint. Exposed for host-object payloads.
func (d *Deserializer) ReadUint32() (uint32, error) {
	return d.readVarint32()
}

// ReadUint64 reads a 64-bit varint and returns it as two unsigned 32-bit
// halves. Exposed for host-object payloads.
func (d *Deserializer) ReadUint64() (hi, lo uint32, err error) {
	v, err := d.readVarint()
	if err != nil {
		return 0, 0, err
	}

	return uint32(v >> 32), uint32(v), nil
}

// ReadDouble reads 8 bytes in host byte order. Exposed for host-object
// payloads.
func (d *Deserializer) ReadDouble() (float64, error) {
	if len(d.data)-d.pos < 8 {
		return 0, d.corrupt("truncated double")
	}

	bits := d.engine.Uint64(d.data[d.pos : d.pos+8])
	d.pos += 8

	return math.Float64frombits(bits), nil
}

// ReadRawBytes consumes n bytes and returns them as a sub-slice of the
// input. The returned slice must be treated as read-only. Exposed for
// host-object payloads.
func (d *Deserializer) ReadRawBytes(n int) ([]byte, error) {
	if n < 0 || len(d.data)-d.pos < n {
		return nil, d.corrupt("truncated raw bytes")
	}

	b := d.data[d.pos : d.pos+n]
	d.pos += n

	return b, nil
}

func (d *Deserializer) corrupt(detail string) error {
	return fmt.Errorf("%w: %s at offset %d", errs.ErrDeserialization, detail, d.pos)
}

// readTag consumes the next tag, skipping padding.
func (d *Deserializer) readTag() (wire.Tag, error) {
	for d.pos < len(d.data) {
		t := wire.Tag(d.data[d.pos])
		d.pos++
		if t != wire.TagPadding {
			return t, nil
		}
	}

	return 0, d.corrupt("truncated stream")
}

// peekTag reports the next tag without consuming it. Padding is consumed.
func (d *Deserializer) peekTag() (wire.Tag, bool) {
	for d.pos < len(d.data) {
		t := wire.Tag(d.data[d.pos])
		if t != wire.TagPadding {
			return t, true
		}
		d.pos++
	}

	return 0, false
}

func (d *Deserializer) readVarint() (uint64, error) {
	v, n := encoding.Uvarint(d.data[d.pos:])
	if n == 0 {
		return 0, d.corrupt("invalid varint")
	}

	d.pos += n

	return v, nil
}

func (d *Deserializer) readVarint32() (uint32, error) {
	v, err := d.readVarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, d.corrupt("varint exceeds 32 bits")
	}

	return uint32(v), nil
}

// assignID reserves the next identity slot and returns its index. Slots are
// assigned in the order composites begin, mirroring the serializer.
func (d *Deserializer) assignID() int {
	d.ids = append(d.ids, nil)
	return len(d.ids) - 1
}

func (d *Deserializer) setID(idx int, v any) {
	d.ids[idx] = v
}

// maxNestingDepth bounds recursion on hostile inputs; a run of begin tags
// deeper than this cannot come from a real value graph.
const maxNestingDepth = 4096

// readValue is the recursive-descent entry point. It also implements the
// buffer/view interleave: whenever a value decodes to a byte buffer and the
// next tag is ArrayBufferView, the view is consumed and returned instead.
func (d *Deserializer) readValue() (any, error) {
	d.depth++
	defer func() { d.depth-- }()

	if d.depth > maxNestingDepth {
		return nil, d.corrupt("nesting too deep")
	}

	v, err := d.readValueInternal()
	if err != nil {
		return nil, err
	}

	if buf, ok := v.(*value.ArrayBuffer); ok {
		if t, ok := d.peekTag(); ok && t == wire.TagArrayBufferView {
			return d.readArrayBufferView(buf)
		}
	}

	return v, nil
}

func (d *Deserializer) readValueInternal() (any, error) {
	for {
		tag, err := d.readTag()
		if err != nil {
			return nil, err
		}

		switch tag {
		case wire.TagVerifyObjectCount:
			// Legacy tag: consume the count and continue.
			if _, err := d.readVarint(); err != nil {
				return nil, err
			}
		case wire.TagUndefined:
			return value.Undefined, nil
		case wire.TagNull:
			return nil, nil
		case wire.TagTrue:
			return true, nil
		case wire.TagFalse:
			return false, nil
		case wire.TagTheHole:
			return value.Hole, nil
		case wire.TagInt32:
			v, err := d.readVarint32()
			if err != nil {
				return nil, err
			}
			return encoding.DecodeZigZag32(v), nil
		case wire.TagUint32:
			return d.readVarint32()
		case wire.TagDouble:
			return d.ReadDouble()
		case wire.TagUtf8String:
			return d.readUtf8StringBody()
		case wire.TagOneByteString:
			return d.readOneByteStringBody()
		case wire.TagTwoByteString:
			return d.readTwoByteStringBody()
		case wire.TagObjectReference:
			return d.readObjectReference()
		case wire.TagBeginObject:
			return d.readObject()
		case wire.TagBeginDenseArray:
			return d.readDenseArray()
		case wire.TagBeginSparseArray:
			return d.readSparseArray()
		case wire.TagDate:
			return d.readDate()
		case wire.TagRegExp:
			return d.readRegExp()
		case wire.TagTrueObject:
			b := &value.BooleanObject{Value: true}
			d.setID(d.assignID(), b)
			return b, nil
		case wire.TagFalseObject:
			b := &value.BooleanObject{Value: false}
			d.setID(d.assignID(), b)
			return b, nil
		case wire.TagNumberObject:
			return d.readNumberObject()
		case wire.TagStringObject:
			return d.readStringObject()
		case wire.TagBeginMap:
			return d.readMap()
		case wire.TagBeginSet:
			return d.readSet()
		case wire.TagArrayBuffer:
			return d.readArrayBuffer()
		case wire.TagArrayBufferTransfer:
			return d.readArrayBufferTransfer(false)
		case wire.TagSharedArrayBuffer:
			return d.readArrayBufferTransfer(true)
		case wire.TagHostObject:
			return d.readHostObject()
		default:
			// Before version 13 the wire format had no dedicated host
			// object tag; unknown tags belong to the delegate.
			if d.version < 13 {
				d.pos--
				return d.readHostObject()
			}

			return nil, d.corrupt(fmt.Sprintf("unknown tag %q", byte(tag)))
		}
	}
}

func (d *Deserializer) readUtf8StringBody() (string, error) {
	n, err := d.readVarint32()
	if err != nil {
		return "", err
	}

	b, err := d.ReadRawBytes(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (d *Deserializer) readOneByteStringBody() (string, error) {
	n, err := d.readVarint32()
	if err != nil {
		return "", err
	}

	b, err := d.ReadRawBytes(int(n))
	if err != nil {
		return "", err
	}

	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}

	return string(runes), nil
}

func (d *Deserializer) readTwoByteStringBody() (string, error) {
	n, err := d.readVarint32()
	if err != nil {
		return "", err
	}
	if n%2 != 0 {
		return "", d.corrupt("odd two-byte string length")
	}

	b, err := d.ReadRawBytes(int(n))
	if err != nil {
		return "", err
	}

	units := make([]uint16, n/2)
	for i := range units {
		units[i] = d.engine.Uint16(b[2*i:])
	}

	return string(utf16.Decode(units)), nil
}

// readString reads a string value. From version 12 on, strings inside
// RegExp and boxed strings use the regular value protocol; before that they
// were raw UTF-8.
func (d *Deserializer) readString() (string, error) {
	if d.version < 12 {
		tag, err := d.readTag()
		if err != nil {
			return "", err
		}
		if tag != wire.TagUtf8String {
			return "", d.corrupt("expected UTF-8 string")
		}

		return d.readUtf8StringBody()
	}

	v, err := d.readValue()
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", d.corrupt("expected string value")
	}

	return s, nil
}

func (d *Deserializer) readObjectReference() (any, error) {
	id, err := d.readVarint32()
	if err != nil {
		return nil, err
	}

	if int(id) >= len(d.ids) || d.ids[id] == nil {
		return nil, d.corrupt(fmt.Sprintf("dangling object reference %d", id))
	}

	return d.ids[id], nil
}

// readProperties reads key/value pairs until endTag, then validates the
// trailing declared count.
func (d *Deserializer) readProperties(endTag wire.Tag) ([]value.Property, error) {
	var props []value.Property

	for {
		t, ok := d.peekTag()
		if !ok {
			return nil, d.corrupt("truncated properties")
		}

		if t == endTag {
			d.pos++

			count, err := d.readVarint32()
			if err != nil {
				return nil, err
			}
			if int(count) != len(props) {
				return nil, d.corrupt("property count mismatch")
			}

			return props, nil
		}

		key, err := d.readValue()
		if err != nil {
			return nil, err
		}

		val, err := d.readValue()
		if err != nil {
			return nil, err
		}

		props = append(props, value.Property{Key: normalizeKey(key), Value: val})
	}
}

// normalizeKey folds numeric property keys onto uint32, the index type the
// value model uses. String keys pass through.
func normalizeKey(key any) any {
	switch k := key.(type) {
	case int32:
		if k >= 0 {
			return uint32(k)
		}
	case float64:
		if k >= 0 && k == math.Trunc(k) && k <= math.MaxUint32 {
			return uint32(k)
		}
	}

	return key
}

func (d *Deserializer) readObject() (*value.Object, error) {
	obj := &value.Object{}
	d.setID(d.assignID(), obj)

	props, err := d.readProperties(wire.TagEndObject)
	if err != nil {
		return nil, err
	}

	obj.Props = props

	return obj, nil
}

func (d *Deserializer) readDenseArray() (*value.DenseArray, error) {
	arr := &value.DenseArray{}
	d.setID(d.assignID(), arr)

	length, err := d.readVarint32()
	if err != nil {
		return nil, err
	}
	if int(length) > len(d.data)-d.pos {
		return nil, d.corrupt("dense array length exceeds input")
	}

	arr.Elements = make([]any, 0, length)
	for i := uint32(0); i < length; i++ {
		t, ok := d.peekTag()
		if !ok {
			return nil, d.corrupt("truncated dense array")
		}

		if t == wire.TagTheHole {
			d.pos++
			arr.Elements = append(arr.Elements, value.Hole)
			continue
		}

		el, err := d.readValue()
		if err != nil {
			return nil, err
		}

		// Before version 11, undefined in a dense array marked a gap.
		if _, isUndef := el.(value.UndefinedType); isUndef && d.version < 11 {
			arr.Elements = append(arr.Elements, value.Hole)
			continue
		}

		arr.Elements = append(arr.Elements, el)
	}

	props, err := d.readProperties(wire.TagEndDenseArray)
	if err != nil {
		return nil, err
	}
	arr.Props = props

	finalLength, err := d.readVarint32()
	if err != nil {
		return nil, err
	}
	if finalLength != length {
		return nil, d.corrupt("dense array length mismatch")
	}

	return arr, nil
}

func (d *Deserializer) readSparseArray() (*value.SparseArray, error) {
	arr := &value.SparseArray{}
	d.setID(d.assignID(), arr)

	length, err := d.readVarint32()
	if err != nil {
		return nil, err
	}
	arr.Len = length

	props, err := d.readProperties(wire.TagEndSparseArray)
	if err != nil {
		return nil, err
	}
	arr.Props = props

	finalLength, err := d.readVarint32()
	if err != nil {
		return nil, err
	}
	if finalLength != length {
		return nil, d.corrupt("sparse array length mismatch")
	}

	return arr, nil
}

func (d *Deserializer) readDate() (*value.Date, error) {
	idx := d.assignID()

	millis, err := d.ReadDouble()
	if err != nil {
		return nil, err
	}

	date := value.NewDate(timeFromMillis(millis))
	d.setID(idx, date)

	return date, nil
}

func (d *Deserializer) readRegExp() (*value.RegExp, error) {
	idx := d.assignID()

	source, err := d.readString()
	if err != nil {
		return nil, err
	}

	flags, err := d.readVarint32()
	if err != nil {
		return nil, err
	}
	if flags&^wire.RegExpFlagMask != 0 {
		return nil, d.corrupt("invalid regexp flags")
	}

	re := &value.RegExp{Source: source, Flags: value.RegExpFlags(flags)}
	d.setID(idx, re)

	return re, nil
}

func (d *Deserializer) readNumberObject() (*value.NumberObject, error) {
	idx := d.assignID()

	f, err := d.ReadDouble()
	if err != nil {
		return nil, err
	}

	n := &value.NumberObject{Value: f}
	d.setID(idx, n)

	return n, nil
}

func (d *Deserializer) readStringObject() (*value.StringObject, error) {
	idx := d.assignID()

	s, err := d.readString()
	if err != nil {
		return nil, err
	}

	obj := &value.StringObject{Value: s}
	d.setID(idx, obj)

	return obj, nil
}

func (d *Deserializer) readMap() (*value.Map, error) {
	m := &value.Map{}
	d.setID(d.assignID(), m)

	for {
		t, ok := d.peekTag()
		if !ok {
			return nil, d.corrupt("truncated map")
		}

		if t == wire.TagEndMap {
			d.pos++

			count, err := d.readVarint32()
			if err != nil {
				return nil, err
			}
			if int(count) != 2*len(m.Entries) {
				return nil, d.corrupt("map entry count mismatch")
			}

			return m, nil
		}

		key, err := d.readValue()
		if err != nil {
			return nil, err
		}

		val, err := d.readValue()
		if err != nil {
			return nil, err
		}

		m.Entries = append(m.Entries, value.MapEntry{Key: key, Value: val})
	}
}

func (d *Deserializer) readSet() (*value.Set, error) {
	set := &value.Set{}
	d.setID(d.assignID(), set)

	for {
		t, ok := d.peekTag()
		if !ok {
			return nil, d.corrupt("truncated set")
		}

		if t == wire.TagEndSet {
			d.pos++

			count, err := d.readVarint32()
			if err != nil {
				return nil, err
			}
			if int(count) != len(set.Values) {
				return nil, d.corrupt("set element count mismatch")
			}

			return set, nil
		}

		el, err := d.readValue()
		if err != nil {
			return nil, err
		}

		set.Values = append(set.Values, el)
	}
}

func (d *Deserializer) readArrayBuffer() (*value.ArrayBuffer, error) {
	idx := d.assignID()

	byteLength, err := d.readVarint32()
	if err != nil {
		return nil, err
	}

	raw, err := d.ReadRawBytes(int(byteLength))
	if err != nil {
		return nil, err
	}

	// Fresh allocation: the decoded buffer never aliases the input.
	data := make([]byte, byteLength)
	copy(data, raw)

	buf := &value.ArrayBuffer{Data: data}
	d.setID(idx, buf)

	return buf, nil
}

func (d *Deserializer) readArrayBufferTransfer(shared bool) (*value.ArrayBuffer, error) {
	idx := d.assignID()

	id, err := d.readVarint32()
	if err != nil {
		return nil, err
	}

	buf, ok := d.transfer[id]
	if !ok {
		return nil, fmt.Errorf("%w: transfer id %d", errs.ErrMissingTransfer, id)
	}
	if shared && !buf.Shared {
		return nil, d.corrupt(fmt.Sprintf("transfer id %d is not a shared buffer", id))
	}

	d.setID(idx, buf)

	return buf, nil
}

// readArrayBufferView consumes an ArrayBufferView tag that follows buf. The
// view receives its own identity slot, assigned after the buffer's.
func (d *Deserializer) readArrayBufferView(buf *value.ArrayBuffer) (*value.ArrayBufferView, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}
	if tag != wire.TagArrayBufferView {
		return nil, d.corrupt("expected array buffer view tag")
	}

	idx := d.assignID()

	subtag, err := d.ReadRawBytes(1)
	if err != nil {
		return nil, err
	}

	kind, ok := viewKindFor(wire.ViewTag(subtag[0]))
	if !ok {
		return nil, d.corrupt(fmt.Sprintf("unknown view subtag %q", subtag[0]))
	}

	byteOffset, err := d.readVarint32()
	if err != nil {
		return nil, err
	}

	byteLength, err := d.readVarint32()
	if err != nil {
		return nil, err
	}

	if uint64(byteOffset)+uint64(byteLength) > uint64(len(buf.Data)) {
		return nil, d.corrupt("view exceeds buffer bounds")
	}

	elemSize := uint32(kind.ElementSize())
	if byteOffset%elemSize != 0 || byteLength%elemSize != 0 {
		return nil, d.corrupt("view not aligned to element size")
	}

	view := &value.ArrayBufferView{
		Kind:       kind,
		Buffer:     buf,
		ByteOffset: byteOffset,
		ByteLength: byteLength,
	}
	d.setID(idx, view)

	return view, nil
}

func (d *Deserializer) readHostObject() (any, error) {
	if d.delegate == nil {
		return nil, d.corrupt("host object without delegate")
	}

	idx := d.assignID()

	v, err := d.delegate.ReadHostObject(d)
	if err != nil {
		return nil, err
	}

	d.setID(idx, v)

	return v, nil
}

func timeFromMillis(millis float64) time.Time {
	if math.IsNaN(millis) || math.IsInf(millis, 0) {
		return time.Time{}
	}

	return time.UnixMilli(int64(millis)).UTC()
}

func viewKindFor(t wire.ViewTag) (value.ViewKind, bool) {
	switch t {
	case wire.ViewTagInt8:
		return value.ViewInt8, true
	case wire.ViewTagUint8:
		return value.ViewUint8, true
	case wire.ViewTagUint8Clamped:
		return value.ViewUint8Clamped, true
	case wire.ViewTagInt16:
		return value.ViewInt16, true
	case wire.ViewTagUint16:
		return value.ViewUint16, true
	case wire.ViewTagInt32:
		return value.ViewInt32, true
	case wire.ViewTagUint32:
		return value.ViewUint32, true
	case wire.ViewTagFloat32:
		return value.ViewFloat32, true
	case wire.ViewTagFloat64:
		return value.ViewFloat64, true
	case wire.ViewTagDataView:
		return value.ViewDataView, true
	default:
		return 0, false
	}
}
