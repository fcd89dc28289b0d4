package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_SetGet(t *testing.T) {
	obj := &Object{}
	obj.Set("a", int32(1))
	obj.Set("b", "two")
	obj.Set(uint32(0), true)

	v, ok := obj.Get("b")
	require.True(t, ok)
	require.Equal(t, "two", v)

	v, ok = obj.Get(uint32(0))
	require.True(t, ok)
	require.Equal(t, true, v)

	_, ok = obj.Get("missing")
	require.False(t, ok)

	require.Len(t, obj.Props, 3)
	require.Equal(t, "a", obj.Props[0].Key, "insertion order is preserved")
}

func TestDenseArray_Length(t *testing.T) {
	arr := &DenseArray{Elements: []any{int32(1), Hole, int32(3)}}
	require.Equal(t, uint32(3), arr.Length())
}

func TestNewDate_TruncatesToMillis(t *testing.T) {
	ts := time.Date(2024, 6, 15, 10, 20, 30, 123_456_789, time.UTC)
	d := NewDate(ts)

	require.Equal(t, int64(123), int64(d.Time.Nanosecond())/1e6)
	require.Equal(t, ts.Truncate(time.Millisecond), d.Time)
}

func TestRegExpFlags_String(t *testing.T) {
	assert.Equal(t, "", RegExpFlags(0).String())
	assert.Equal(t, "g", RegExpGlobal.String())
	assert.Equal(t, "gim", (RegExpGlobal | RegExpIgnoreCase | RegExpMultiline).String())
	assert.Equal(t, "yu", (RegExpSticky | RegExpUnicode).String())
}

func TestViewKind_ElementSize(t *testing.T) {
	cases := []struct {
		kind ViewKind
		size int
	}{
		{ViewInt8, 1},
		{ViewUint8, 1},
		{ViewUint8Clamped, 1},
		{ViewInt16, 2},
		{ViewUint16, 2},
		{ViewInt32, 4},
		{ViewUint32, 4},
		{ViewFloat32, 4},
		{ViewFloat64, 8},
		{ViewDataView, 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.size, tc.kind.ElementSize(), tc.kind.String())
	}
}

func TestViewKind_String(t *testing.T) {
	require.Equal(t, "Uint16Array", ViewUint16.String())
	require.Equal(t, "DataView", ViewDataView.String())
	require.Equal(t, "Unknown", ViewKind(200).String())
}

func TestArrayBufferView_Bytes(t *testing.T) {
	buf := NewArrayBuffer([]byte{1, 2, 3, 4, 5, 6})
	view := &ArrayBufferView{Kind: ViewUint16, Buffer: buf, ByteOffset: 2, ByteLength: 4}

	require.Equal(t, []byte{3, 4, 5, 6}, view.Bytes())

	whole := NewView(ViewUint8, buf)
	require.Equal(t, buf.Data, whole.Bytes())
	require.Equal(t, uint32(6), buf.ByteLength())
}

func TestSingletons(t *testing.T) {
	require.Equal(t, "undefined", Undefined.String())
	require.Equal(t, "hole", Hole.String())

	// Both are comparable zero-size values usable as map keys.
	m := map[any]int{Undefined: 1, Hole: 2}
	require.Equal(t, 1, m[UndefinedType{}])
	require.Equal(t, 2, m[HoleType{}])
}
