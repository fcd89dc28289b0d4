// Package encoding provides the integer encoding primitives of the wire
// format: little-endian base-128 varints and ZigZag mappings for signed
// values.
//
// All helpers are pure append/consume functions with no internal state, so
// they are safe for concurrent use.
package encoding

// MaxUvarintLen is the maximum encoded size of a 64-bit varint.
const MaxUvarintLen = 10

// AppendUvarint appends v to dst as a little-endian base-128 varint.
//
// Each byte contributes 7 bits, least-significant group first; the high bit
// is set on every byte except the last. Zero encodes as a single 0x00 byte.
//
// Returns:
//   - []byte: The extended destination slice
func AppendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}

// AppendUvarintPair appends a 64-bit value supplied as two unsigned 32-bit
// halves. This is the split form used by host-object payloads.
//
// Parameters:
//   - hi: Most-significant 32 bits
//   - lo: Least-significant 32 bits
//
// Returns:
//   - []byte: The extended destination slice (at most MaxUvarintLen bytes added)
func AppendUvarintPair(dst []byte, hi, lo uint32) []byte {
	return AppendUvarint(dst, uint64(hi)<<32|uint64(lo))
}

// UvarintLen returns the encoded size of v in bytes without encoding it.
//
// The serializer uses this to compute payload start offsets for the two-byte
// string alignment rule.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// Uvarint decodes a varint from the front of buf.
//
// Returns:
//   - uint64: The decoded value
//   - int: The number of bytes consumed; 0 if buf is truncated or the
//     encoding exceeds 64 bits
func Uvarint(buf []byte) (uint64, int) {
	var v uint64
	var shift uint

	for i, b := range buf {
		if i >= MaxUvarintLen || (i == MaxUvarintLen-1 && b > 1) {
			return 0, 0 // value does not fit in 64 bits
		}

		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}

	return 0, 0 // truncated
}

// EncodeZigZag32 maps a signed 32-bit integer onto the unsigned range so that
// small magnitudes produce short varints: 0 → 0, -1 → 1, 1 → 2, -2 → 3, ...
func EncodeZigZag32(n int32) uint32 {
	return uint32(n<<1) ^ uint32(n>>31)
}

// DecodeZigZag32 inverts EncodeZigZag32.
func DecodeZigZag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// EncodeZigZag64 maps a signed 64-bit integer onto the unsigned range.
func EncodeZigZag64(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// DecodeZigZag64 inverts EncodeZigZag64.
func DecodeZigZag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}
