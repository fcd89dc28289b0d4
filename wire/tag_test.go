package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The tag alphabet is a wire contract; the byte values must never drift.
func TestTag_ByteValues(t *testing.T) {
	assert.Equal(t, byte(0xFF), byte(TagVersion))
	assert.Equal(t, byte(0x00), byte(TagPadding))
	assert.Equal(t, byte('?'), byte(TagVerifyObjectCount))
	assert.Equal(t, byte('-'), byte(TagTheHole))
	assert.Equal(t, byte('_'), byte(TagUndefined))
	assert.Equal(t, byte('0'), byte(TagNull))
	assert.Equal(t, byte('T'), byte(TagTrue))
	assert.Equal(t, byte('F'), byte(TagFalse))
	assert.Equal(t, byte('I'), byte(TagInt32))
	assert.Equal(t, byte('U'), byte(TagUint32))
	assert.Equal(t, byte('N'), byte(TagDouble))
	assert.Equal(t, byte('S'), byte(TagUtf8String))
	assert.Equal(t, byte('"'), byte(TagOneByteString))
	assert.Equal(t, byte('c'), byte(TagTwoByteString))
	assert.Equal(t, byte('^'), byte(TagObjectReference))
	assert.Equal(t, byte('o'), byte(TagBeginObject))
	assert.Equal(t, byte('{'), byte(TagEndObject))
	assert.Equal(t, byte('a'), byte(TagBeginSparseArray))
	assert.Equal(t, byte('@'), byte(TagEndSparseArray))
	assert.Equal(t, byte('A'), byte(TagBeginDenseArray))
	assert.Equal(t, byte('$'), byte(TagEndDenseArray))
	assert.Equal(t, byte('D'), byte(TagDate))
	assert.Equal(t, byte('y'), byte(TagTrueObject))
	assert.Equal(t, byte('x'), byte(TagFalseObject))
	assert.Equal(t, byte('n'), byte(TagNumberObject))
	assert.Equal(t, byte('s'), byte(TagStringObject))
	assert.Equal(t, byte('R'), byte(TagRegExp))
	assert.Equal(t, byte(';'), byte(TagBeginMap))
	assert.Equal(t, byte(':'), byte(TagEndMap))
	assert.Equal(t, byte('\''), byte(TagBeginSet))
	assert.Equal(t, byte(','), byte(TagEndSet))
	assert.Equal(t, byte('B'), byte(TagArrayBuffer))
	assert.Equal(t, byte('t'), byte(TagArrayBufferTransfer))
	assert.Equal(t, byte('V'), byte(TagArrayBufferView))
	assert.Equal(t, byte('u'), byte(TagSharedArrayBuffer))
	assert.Equal(t, byte('W'), byte(TagWasmModule))
	assert.Equal(t, byte('w'), byte(TagWasmModuleTransfer))
	assert.Equal(t, byte('\\'), byte(TagHostObject))
}

func TestViewTag_ByteValues(t *testing.T) {
	assert.Equal(t, byte('b'), byte(ViewTagInt8))
	assert.Equal(t, byte('B'), byte(ViewTagUint8))
	assert.Equal(t, byte('C'), byte(ViewTagUint8Clamped))
	assert.Equal(t, byte('w'), byte(ViewTagInt16))
	assert.Equal(t, byte('W'), byte(ViewTagUint16))
	assert.Equal(t, byte('d'), byte(ViewTagInt32))
	assert.Equal(t, byte('D'), byte(ViewTagUint32))
	assert.Equal(t, byte('f'), byte(ViewTagFloat32))
	assert.Equal(t, byte('F'), byte(ViewTagFloat64))
	assert.Equal(t, byte('?'), byte(ViewTagDataView))
}

func TestRegExpFlagBits(t *testing.T) {
	assert.Equal(t, uint32(1), RegExpGlobal)
	assert.Equal(t, uint32(2), RegExpIgnoreCase)
	assert.Equal(t, uint32(4), RegExpMultiline)
	assert.Equal(t, uint32(8), RegExpSticky)
	assert.Equal(t, uint32(16), RegExpUnicode)
	assert.Equal(t, uint32(0x1f), RegExpFlagMask)
}

func TestTag_String(t *testing.T) {
	require.Equal(t, "Version", TagVersion.String())
	require.Equal(t, "Padding", TagPadding.String())
	require.Equal(t, "ObjectReference", TagObjectReference.String())
	require.Equal(t, "ArrayBufferView", TagArrayBufferView.String())
	require.Equal(t, "HostObject", TagHostObject.String())
	require.Equal(t, "Unknown", Tag('Z').String())
}

func TestFormatVersion(t *testing.T) {
	require.Equal(t, uint32(13), FormatVersion)
}
