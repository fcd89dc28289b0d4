// Package wire defines the tag alphabet and framing constants of the
// structured clone wire format.
//
// The tables here are shared by the serializer, the deserializer, and the
// tests; they carry no logic beyond diagnostics.
package wire

// FormatVersion is the wire format version this codec writes. Streams
// declaring a newer version are rejected on read; older versions decode
// through the legacy branches.
const FormatVersion uint32 = 13

// Tag is the one-byte discriminator at the head of every encoded value.
type Tag byte

const (
	// TagVersion heads the stream, followed by the format version as varint.
	TagVersion Tag = 0xFF

	// TagPadding is skipped on read; the serializer emits it to align
	// two-byte string payloads to even offsets.
	TagPadding Tag = 0x00

	// TagVerifyObjectCount is a legacy tag; the varint that follows is
	// consumed and ignored.
	TagVerifyObjectCount Tag = '?'

	// TagTheHole marks a gap in a dense array.
	TagTheHole Tag = '-'

	TagUndefined Tag = '_'
	TagNull      Tag = '0'
	TagTrue      Tag = 'T'
	TagFalse     Tag = 'F'

	// TagInt32 is followed by a ZigZag-encoded varint.
	TagInt32 Tag = 'I'
	// TagUint32 is followed by a plain varint.
	TagUint32 Tag = 'U'
	// TagDouble is followed by 8 bytes in host byte order.
	TagDouble Tag = 'N'

	// TagUtf8String is followed by a varint byte length and UTF-8 bytes.
	// Read-only: the serializer emits one-byte or two-byte strings.
	TagUtf8String Tag = 'S'
	// TagOneByteString is followed by a varint length and latin-1 bytes.
	TagOneByteString Tag = '"'
	// TagTwoByteString is followed by a varint byte length and UTF-16LE
	// code units; the payload always starts at an even stream offset.
	TagTwoByteString Tag = 'c'

	// TagObjectReference is followed by the varint id of a composite that
	// has already been encoded.
	TagObjectReference Tag = '^'

	TagBeginObject      Tag = 'o'
	TagEndObject        Tag = '{'
	TagBeginSparseArray Tag = 'a'
	TagEndSparseArray   Tag = '@'
	TagBeginDenseArray  Tag = 'A'
	TagEndDenseArray    Tag = '$'

	// TagDate is followed by milliseconds since epoch as a double.
	TagDate Tag = 'D'

	TagTrueObject   Tag = 'y'
	TagFalseObject  Tag = 'x'
	TagNumberObject Tag = 'n'
	TagStringObject Tag = 's'

	// TagRegExp is followed by the source string and a varint flag
	// bitfield.
	TagRegExp Tag = 'R'

	TagBeginMap Tag = ';'
	TagEndMap   Tag = ':'
	TagBeginSet Tag = '\''
	TagEndSet   Tag = ','

	// TagArrayBuffer is followed by a varint byte length and raw bytes.
	TagArrayBuffer Tag = 'B'
	// TagArrayBufferTransfer is followed by a varint transfer id resolved
	// through the caller-supplied transfer map.
	TagArrayBufferTransfer Tag = 't'
	// TagArrayBufferView follows a buffer-producing value: subtag, varint
	// byte offset, varint byte length.
	TagArrayBufferView Tag = 'V'
	// TagSharedArrayBuffer is followed by a varint transfer id.
	TagSharedArrayBuffer Tag = 'u'

	// TagWasmModule and TagWasmModuleTransfer are engine-internal; this
	// codec never writes them and rejects them on read.
	TagWasmModule         Tag = 'W'
	TagWasmModuleTransfer Tag = 'w'

	// TagHostObject is followed by an opaque delegate-defined payload.
	TagHostObject Tag = '\\'
)

// ViewTag is the one-byte subtag following TagArrayBufferView, naming the
// view constructor.
type ViewTag byte

const (
	ViewTagInt8         ViewTag = 'b'
	ViewTagUint8        ViewTag = 'B'
	ViewTagUint8Clamped ViewTag = 'C'
	ViewTagInt16        ViewTag = 'w'
	ViewTagUint16       ViewTag = 'W'
	ViewTagInt32        ViewTag = 'd'
	ViewTagUint32       ViewTag = 'D'
	ViewTagFloat32      ViewTag = 'f'
	ViewTagFloat64      ViewTag = 'F'
	ViewTagDataView     ViewTag = '?'
)

// RegExp flag bits as they appear in the varint bitfield after TagRegExp.
const (
	RegExpGlobal     uint32 = 1 << 0
	RegExpIgnoreCase uint32 = 1 << 1
	RegExpMultiline  uint32 = 1 << 2
	RegExpSticky     uint32 = 1 << 3
	RegExpUnicode    uint32 = 1 << 4

	// RegExpFlagMask covers every defined flag bit; set bits outside the
	// mask make a stream undecodable.
	RegExpFlagMask uint32 = RegExpGlobal | RegExpIgnoreCase | RegExpMultiline | RegExpSticky | RegExpUnicode
)

// String returns a human-readable name for the tag.
func (t Tag) String() string {
	switch t {
	case TagVersion:
		return "Version"
	case TagPadding:
		return "Padding"
	case TagVerifyObjectCount:
		return "VerifyObjectCount"
	case TagTheHole:
		return "TheHole"
	case TagUndefined:
		return "Undefined"
	case TagNull:
		return "Null"
	case TagTrue:
		return "True"
	case TagFalse:
		return "False"
	case TagInt32:
		return "Int32"
	case TagUint32:
		return "Uint32"
	case TagDouble:
		return "Double"
	case TagUtf8String:
		return "Utf8String"
	case TagOneByteString:
		return "OneByteString"
	case TagTwoByteString:
		return "TwoByteString"
	case TagObjectReference:
		return "ObjectReference"
	case TagBeginObject:
		return "BeginObject"
	case TagEndObject:
		return "EndObject"
	case TagBeginSparseArray:
		return "BeginSparseArray"
	case TagEndSparseArray:
		return "EndSparseArray"
	case TagBeginDenseArray:
		return "BeginDenseArray"
	case TagEndDenseArray:
		return "EndDenseArray"
	case TagDate:
		return "Date"
	case TagTrueObject:
		return "TrueObject"
	case TagFalseObject:
		return "FalseObject"
	case TagNumberObject:
		return "NumberObject"
	case TagStringObject:
		return "StringObject"
	case TagRegExp:
		return "RegExp"
	case TagBeginMap:
		return "BeginMap"
	case TagEndMap:
		return "EndMap"
	case TagBeginSet:
		return "BeginSet"
	case TagEndSet:
		return "EndSet"
	case TagArrayBuffer:
		return "ArrayBuffer"
	case TagArrayBufferTransfer:
		return "ArrayBufferTransfer"
	case TagArrayBufferView:
		return "ArrayBufferView"
	case TagSharedArrayBuffer:
		return "SharedArrayBuffer"
	case TagWasmModule:
		return "WasmModule"
	case TagWasmModuleTransfer:
		return "WasmModuleTransfer"
	case TagHostObject:
		return "HostObject"
	default:
		return "Unknown"
	}
}
