package codec

import (
	"fmt"

	"github.com/renvoy/jswire/value"
)

// rawBufferConstructorIndex extends the view constructor table with a plain
// byte-buffer wrapper.
const rawBufferConstructorIndex = 10

// ViewHostCodec is the stock host-object delegate pair for typed views.
//
// It is the convention used when the serializer treats views as host
// objects: the payload is a varint constructor index (the view's position
// in the value.ViewKind table, or the raw-buffer index), a varint byte
// length, and the raw bytes of the viewed region.
//
// A view decoded through this codec owns a fresh buffer covering exactly
// the viewed region; buffer sharing between views does not survive this
// path.
type ViewHostCodec struct{}

var (
	_ SerializerDelegate   = ViewHostCodec{}
	_ DeserializerDelegate = ViewHostCodec{}
)

// WriteHostObject encodes typed views and raw buffers. Anything else is
// rejected with a clone error.
func (ViewHostCodec) WriteHostObject(s *Serializer, v any) error {
	switch t := v.(type) {
	case *value.ArrayBufferView:
		s.WriteUint32(uint32(t.Kind))
		s.WriteUint32(t.ByteLength)
		s.WriteRawBytes(t.Bytes())
	case *value.ArrayBuffer:
		s.WriteUint32(rawBufferConstructorIndex)
		s.WriteUint32(t.ByteLength())
		s.WriteRawBytes(t.Data)
	default:
		return &CloneError{Message: fmt.Sprintf("%v could not be cloned", v)}
	}

	return nil
}

// DataCloneError implements SerializerDelegate with the stock error kind.
func (ViewHostCodec) DataCloneError(message string) error {
	return &CloneError{Message: message}
}

// ReadHostObject decodes the payload written by WriteHostObject. The bytes
// are always copied out of the input stream into a fresh buffer, so the
// returned value never aliases caller input regardless of alignment.
func (ViewHostCodec) ReadHostObject(d *Deserializer) (any, error) {
	ctor, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}

	byteLength, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}

	raw, err := d.ReadRawBytes(int(byteLength))
	if err != nil {
		return nil, err
	}

	data := make([]byte, byteLength)
	copy(data, raw)
	buf := &value.ArrayBuffer{Data: data}

	if ctor == rawBufferConstructorIndex {
		return buf, nil
	}
	if ctor > uint32(value.ViewDataView) {
		return nil, d.corrupt(fmt.Sprintf("unknown view constructor index %d", ctor))
	}

	kind := value.ViewKind(ctor)
	if int(byteLength)%kind.ElementSize() != 0 {
		return nil, d.corrupt("view length not aligned to element size")
	}

	return &value.ArrayBufferView{
		Kind:       kind,
		Buffer:     buf,
		ByteLength: byteLength,
	}, nil
}
