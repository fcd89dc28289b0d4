package codec

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf16"

	"github.com/renvoy/jswire/encoding"
	"github.com/renvoy/jswire/endian"
	"github.com/renvoy/jswire/errs"
	"github.com/renvoy/jswire/internal/options"
	"github.com/renvoy/jswire/internal/pool"
	"github.com/renvoy/jswire/value"
	"github.com/renvoy/jswire/wire"
)

// Serializer encodes a value graph into the structured clone wire format.
//
// The identity map persists across WriteValue calls, so a composite written
// twice (even across calls) is emitted once and back-referenced afterwards.
//
// Note: The Serializer is NOT thread-safe. Each instance should be used by a
// single goroutine at a time.
//
// Note: The Serializer is NOT reusable. After calling Release, a new
// serializer must be created for further encoding.
type Serializer struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine

	delegate SerializerDelegate

	idMap    map[any]uint32
	nextID   uint32
	transfer map[*value.ArrayBuffer]uint32

	treatViewsAsHostObjects bool
	headerWritten           bool
	released                bool
}

// SerializerOption represents a functional option for configuring the Serializer.
type SerializerOption = options.Option[*Serializer]

// WithDelegate installs the host-object delegate.
func WithDelegate(d SerializerDelegate) SerializerOption {
	return options.NoError(func(s *Serializer) {
		s.delegate = d
	})
}

// WithViewsAsHostObjects routes typed views through the host-object hook
// instead of the ArrayBufferView core path.
func WithViewsAsHostObjects(flag bool) SerializerOption {
	return options.NoError(func(s *Serializer) {
		s.treatViewsAsHostObjects = flag
	})
}

// NewSerializer creates a new Serializer.
//
// Parameters:
//   - opts: Optional configuration (delegate, typed-view routing)
//
// Returns:
//   - *Serializer: New serializer instance ready for encoding
//   - error: Configuration error if invalid options provided
func NewSerializer(opts ...SerializerOption) (*Serializer, error) {
	s := &Serializer{
		buf:      pool.GetStreamBuffer(),
		engine:   endian.NativeEngine(),
		idMap:    make(map[any]uint32),
		transfer: make(map[*value.ArrayBuffer]uint32),
	}

	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// SetTreatArrayBufferViewsAsHostObjects switches typed-view routing after
// construction. When set, views dispatch to the host-object hook rather than
// the ArrayBufferView core path.
func (s *Serializer) SetTreatArrayBufferViewsAsHostObjects(flag bool) {
	s.treatViewsAsHostObjects = flag
}

// WriteHeader emits the Version tag followed by the wire format version.
// It must be called exactly once, before any value.
//
// Returns:
//   - error: ErrReleased after Release, ErrHeaderState if already written
func (s *Serializer) WriteHeader() error {
	if s.released {
		return errs.ErrReleased
	}
	if s.headerWritten {
		return fmt.Errorf("%w: header already written", errs.ErrHeaderState)
	}

	s.headerWritten = true
	s.writeTag(wire.TagVersion)
	s.writeVarint(uint64(wire.FormatVersion))

	return nil
}

// WriteValue encodes one value. It may be called repeatedly; subsequent
// values share the identity map.
//
// Returns:
//   - error: ErrReleased, ErrHeaderState if the header has not been written,
//     or ErrDataClone for values the format cannot represent
func (s *Serializer) WriteValue(v any) error {
	if s.released {
		return errs.ErrReleased
	}
	if !s.headerWritten {
		return fmt.Errorf("%w: header not written", errs.ErrHeaderState)
	}

	return s.writeValue(v)
}

// TransferArrayBuffer registers buf under the externally-chosen transfer id.
// A registered buffer is emitted as a transfer reference instead of its
// payload. Must be called before the buffer is written.
//
// Returns:
//   - error: ErrDuplicateTransfer if buf is already registered
func (s *Serializer) TransferArrayBuffer(id uint32, buf *value.ArrayBuffer) error {
	if _, ok := s.transfer[buf]; ok {
		return fmt.Errorf("%w: buffer already registered", errs.ErrDuplicateTransfer)
	}

	s.transfer[buf] = id

	return nil
}

// Release returns the accumulated byte stream and recycles the internal
// buffer. The serializer must not be used afterwards.
func (s *Serializer) Release() []byte {
	if s.released {
		return nil
	}

	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())

	pool.PutStreamBuffer(s.buf)
	s.buf = nil
	s.released = true

	return out
}

// WriteUint32 writes a varint. Exposed for host-object payloads.
func (s *Serializer) WriteUint32(v uint32) {
	s.writeVarint(uint64(v))
}

// WriteUint64 writes a 64-bit varint supplied as two unsigned 32-bit halves.
// Exposed for host-object payloads.
func (s *Serializer) WriteUint64(hi, lo uint32) {
	s.buf.B = encoding.AppendUvarintPair(s.buf.B, hi, lo)
}

// WriteDouble writes 8 bytes in host byte order. Exposed for host-object
// payloads.
func (s *Serializer) WriteDouble(v float64) {
	s.buf.B = s.engine.AppendUint64(s.buf.B, math.Float64bits(v))
}

// WriteRawBytes writes data verbatim. Exposed for host-object payloads.
func (s *Serializer) WriteRawBytes(data []byte) {
	s.buf.MustWrite(data)
}

func (s *Serializer) writeTag(t wire.Tag) {
	s.buf.B = append(s.buf.B, byte(t))
}

func (s *Serializer) writeVarint(v uint64) {
	s.buf.B = encoding.AppendUvarint(s.buf.B, v)
}

// writeValue dispatches one value. Scalars are matched first; everything
// else takes the composite path through the identity map.
func (s *Serializer) writeValue(v any) error {
	switch t := v.(type) {
	case nil:
		s.writeTag(wire.TagNull)
	case value.UndefinedType:
		s.writeTag(wire.TagUndefined)
	case value.HoleType:
		s.writeTag(wire.TagTheHole)
	case bool:
		if t {
			s.writeTag(wire.TagTrue)
		} else {
			s.writeTag(wire.TagFalse)
		}
	case int:
		s.writeInt64(int64(t))
	case int8:
		s.writeInt32(int32(t))
	case int16:
		s.writeInt32(int32(t))
	case int32:
		s.writeInt32(t)
	case int64:
		s.writeInt64(t)
	case uint:
		s.writeUint64Number(uint64(t))
	case uint8:
		s.writeInt32(int32(t))
	case uint16:
		s.writeInt32(int32(t))
	case uint32:
		s.writeUint64Number(uint64(t))
	case uint64:
		s.writeUint64Number(t)
	case float32:
		s.writeNumber(float64(t))
	case float64:
		s.writeNumber(t)
	case string:
		s.writeString(t)
	default:
		return s.writeComposite(v)
	}

	return nil
}

func (s *Serializer) writeInt32(n int32) {
	s.writeTag(wire.TagInt32)
	s.writeVarint(uint64(encoding.EncodeZigZag32(n)))
}

func (s *Serializer) writeInt64(n int64) {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		s.writeInt32(int32(n))
		return
	}

	s.writeDoubleValue(float64(n))
}

func (s *Serializer) writeUint64Number(n uint64) {
	switch {
	case n <= math.MaxInt32:
		s.writeInt32(int32(n))
	case n <= math.MaxUint32:
		s.writeTag(wire.TagUint32)
		s.writeVarint(n)
	default:
		s.writeDoubleValue(float64(n))
	}
}

// writeNumber encodes a float. Integral values in signed 32-bit range
// (except negative zero) take the compact Int32 form, everything else is a
// raw double.
func (s *Serializer) writeNumber(f float64) {
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 && !(f == 0 && math.Signbit(f)) {
		s.writeInt32(int32(f))
		return
	}

	s.writeDoubleValue(f)
}

func (s *Serializer) writeDoubleValue(f float64) {
	s.writeTag(wire.TagDouble)
	s.buf.B = s.engine.AppendUint64(s.buf.B, math.Float64bits(f))
}

// writeString picks the narrowest representation: latin-1 when every code
// point fits in one byte, UTF-16 otherwise.
func (s *Serializer) writeString(str string) {
	if isLatin1(str) {
		s.writeOneByteString(str)
		return
	}

	s.writeTwoByteString(str)
}

func isLatin1(str string) bool {
	for _, r := range str {
		if r >= 0x100 {
			return false
		}
	}

	return true
}

func (s *Serializer) writeOneByteString(str string) {
	// Count code points first; multi-byte UTF-8 sequences below U+0100
	// collapse to single latin-1 bytes.
	n := 0
	for range str {
		n++
	}

	s.writeTag(wire.TagOneByteString)
	s.writeVarint(uint64(n))

	s.buf.Grow(n)
	for _, r := range str {
		s.buf.B = append(s.buf.B, byte(r))
	}
}

func (s *Serializer) writeTwoByteString(str string) {
	units := utf16.Encode([]rune(str))
	byteLen := uint64(2 * len(units))

	// The payload must start at an even stream offset so a reader can
	// interpret it as native 16-bit units. Account for the tag and the
	// varint length, then pad if the payload would start odd.
	lenBytes := encoding.UvarintLen(byteLen)
	if (s.buf.Len()+1+lenBytes)%2 != 0 {
		s.writeTag(wire.TagPadding)
	}

	s.writeTag(wire.TagTwoByteString)
	s.writeVarint(byteLen)

	s.buf.Grow(int(byteLen))
	for _, u := range units {
		s.buf.B = s.engine.AppendUint16(s.buf.B, u)
	}
}

// writeComposite emits a back-reference for already-seen values, otherwise
// registers the value and encodes its body.
func (s *Serializer) writeComposite(v any) error {
	// Typed views serialize their underlying buffer first, so the decoder
	// finds a buffer on hand when it meets the view tag. The buffer write
	// happens only on the view's first visit.
	if view, ok := v.(*value.ArrayBufferView); ok && !s.treatViewsAsHostObjects {
		if _, seen := s.idMap[v]; !seen {
			if err := s.writeComposite(view.Buffer); err != nil {
				return err
			}
		}
	}

	if !reflect.TypeOf(v).Comparable() {
		return s.dataCloneError(fmt.Sprintf("%v", v))
	}

	if id, ok := s.idMap[v]; ok {
		s.writeTag(wire.TagObjectReference)
		s.writeVarint(uint64(id))

		return nil
	}

	s.idMap[v] = s.nextID
	s.nextID++

	switch t := v.(type) {
	case *value.Object:
		return s.writeObject(t)
	case *value.DenseArray:
		return s.writeDenseArray(t)
	case *value.SparseArray:
		return s.writeSparseArray(t)
	case *value.Date:
		s.writeTag(wire.TagDate)
		s.WriteDouble(float64(t.Time.UnixMilli()))
	case *value.RegExp:
		s.writeTag(wire.TagRegExp)
		s.writeString(t.Source)
		s.writeVarint(uint64(t.Flags))
	case *value.Map:
		return s.writeMap(t)
	case *value.Set:
		return s.writeSet(t)
	case *value.ArrayBuffer:
		return s.writeArrayBuffer(t)
	case *value.ArrayBufferView:
		return s.writeArrayBufferView(t)
	case *value.BooleanObject:
		if t.Value {
			s.writeTag(wire.TagTrueObject)
		} else {
			s.writeTag(wire.TagFalseObject)
		}
	case *value.NumberObject:
		s.writeTag(wire.TagNumberObject)
		s.WriteDouble(t.Value)
	case *value.StringObject:
		s.writeTag(wire.TagStringObject)
		s.writeString(t.Value)
	default:
		return s.writeHostObject(v)
	}

	return nil
}

func (s *Serializer) writeProperties(props []value.Property) error {
	for _, p := range props {
		if err := s.writeValue(p.Key); err != nil {
			return err
		}
		if err := s.writeValue(p.Value); err != nil {
			return err
		}
	}

	return nil
}

func (s *Serializer) writeObject(o *value.Object) error {
	s.writeTag(wire.TagBeginObject)

	if err := s.writeProperties(o.Props); err != nil {
		return err
	}

	s.writeTag(wire.TagEndObject)
	s.writeVarint(uint64(len(o.Props)))

	return nil
}

func (s *Serializer) writeDenseArray(a *value.DenseArray) error {
	length := uint64(len(a.Elements))

	s.writeTag(wire.TagBeginDenseArray)
	s.writeVarint(length)

	for _, el := range a.Elements {
		if err := s.writeValue(el); err != nil {
			return err
		}
	}

	if err := s.writeProperties(a.Props); err != nil {
		return err
	}

	s.writeTag(wire.TagEndDenseArray)
	s.writeVarint(uint64(len(a.Props)))
	s.writeVarint(length)

	return nil
}

func (s *Serializer) writeSparseArray(a *value.SparseArray) error {
	s.writeTag(wire.TagBeginSparseArray)
	s.writeVarint(uint64(a.Len))

	if err := s.writeProperties(a.Props); err != nil {
		return err
	}

	s.writeTag(wire.TagEndSparseArray)
	s.writeVarint(uint64(len(a.Props)))
	s.writeVarint(uint64(a.Len))

	return nil
}

func (s *Serializer) writeMap(m *value.Map) error {
	s.writeTag(wire.TagBeginMap)

	for _, e := range m.Entries {
		if err := s.writeValue(e.Key); err != nil {
			return err
		}
		if err := s.writeValue(e.Value); err != nil {
			return err
		}
	}

	s.writeTag(wire.TagEndMap)
	s.writeVarint(uint64(2 * len(m.Entries)))

	return nil
}

func (s *Serializer) writeSet(set *value.Set) error {
	s.writeTag(wire.TagBeginSet)

	for _, el := range set.Values {
		if err := s.writeValue(el); err != nil {
			return err
		}
	}

	s.writeTag(wire.TagEndSet)
	s.writeVarint(uint64(len(set.Values)))

	return nil
}

func (s *Serializer) writeArrayBuffer(b *value.ArrayBuffer) error {
	if id, ok := s.transfer[b]; ok {
		if b.Shared {
			s.writeTag(wire.TagSharedArrayBuffer)
		} else {
			s.writeTag(wire.TagArrayBufferTransfer)
		}
		s.writeVarint(uint64(id))

		return nil
	}

	if b.Shared {
		// Shared buffers have no payload form; they only travel by id.
		return s.dataCloneError(fmt.Sprintf("%v", b))
	}

	s.writeTag(wire.TagArrayBuffer)
	s.writeVarint(uint64(len(b.Data)))
	s.buf.MustWrite(b.Data)

	return nil
}

func (s *Serializer) writeArrayBufferView(v *value.ArrayBufferView) error {
	if s.treatViewsAsHostObjects {
		return s.writeHostObjectPayload(v)
	}

	s.writeTag(wire.TagArrayBufferView)
	s.buf.B = append(s.buf.B, byte(viewTagFor(v.Kind)))
	s.writeVarint(uint64(v.ByteOffset))
	s.writeVarint(uint64(v.ByteLength))

	return nil
}

// writeHostObject rejects callables outright, then defers to the delegate.
func (s *Serializer) writeHostObject(v any) error {
	if reflect.ValueOf(v).Kind() == reflect.Func {
		return s.dataCloneError(fmt.Sprintf("%v", v))
	}

	return s.writeHostObjectPayload(v)
}

func (s *Serializer) writeHostObjectPayload(v any) error {
	if s.delegate == nil {
		return &CloneError{Message: fmt.Sprintf("unknown host object type: %T", v)}
	}

	s.writeTag(wire.TagHostObject)

	return s.delegate.WriteHostObject(s, v)
}

func (s *Serializer) dataCloneError(stringified string) error {
	msg := stringified + " could not be cloned"
	if s.delegate != nil {
		return s.delegate.DataCloneError(msg)
	}

	return &CloneError{Message: msg}
}

func viewTagFor(k value.ViewKind) wire.ViewTag {
	switch k {
	case value.ViewInt8:
		return wire.ViewTagInt8
	case value.ViewUint8:
		return wire.ViewTagUint8
	case value.ViewUint8Clamped:
		return wire.ViewTagUint8Clamped
	case value.ViewInt16:
		return wire.ViewTagInt16
	case value.ViewUint16:
		return wire.ViewTagUint16
	case value.ViewInt32:
		return wire.ViewTagInt32
	case value.ViewUint32:
		return wire.ViewTagUint32
	case value.ViewFloat32:
		return wire.ViewTagFloat32
	case value.ViewFloat64:
		return wire.ViewTagFloat64
	default:
		return wire.ViewTagDataView
	}
}
