// Package jswire encodes value graphs into the structured clone wire format
// (version 13), the byte stream produced by the serialize/deserialize pair
// of a well-known embedded script engine, and decodes such streams back
// into structurally equivalent graphs.
//
// # Core Features
//
//   - Identity-preserving traversal: cycles and shared subtrees round-trip
//   - Compact tagged stream with varint/ZigZag integers
//   - Latin-1 and UTF-16 string forms with even-offset payload alignment
//   - Byte-buffer transfer by caller-chosen id instead of payload copying
//   - Host-object escape hatch for values outside the core format
//
// # Basic Usage
//
// Encoding and decoding a single value:
//
//	import "github.com/renvoy/jswire"
//
//	obj := &value.Object{}
//	obj.Set("foo", "bar")
//
//	data, err := jswire.Serialize(obj)
//	if err != nil {
//	    return err
//	}
//
//	decoded, err := jswire.Deserialize(data)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the codec
// package, covering the one-value case. For repeated values sharing one
// identity map, buffer transfer, or host-object delegates, use the codec
// package directly. The value package holds the graph model, wire the tag
// tables.
package jswire

import (
	"github.com/renvoy/jswire/codec"
	"github.com/renvoy/jswire/wire"
)

// FormatVersion is the wire format version written by Serialize.
const FormatVersion = wire.FormatVersion

// Serialize encodes a single value with a fresh default serializer: header,
// value, stream. Identity is not shared across calls.
//
// Parameters:
//   - v: The value graph to encode
//
// Returns:
//   - []byte: The encoded stream
//   - error: Clone error if the graph contains values the format cannot
//     represent
func Serialize(v any) ([]byte, error) {
	s, err := codec.NewSerializer()
	if err != nil {
		return nil, err
	}

	if err := s.WriteHeader(); err != nil {
		return nil, err
	}

	if err := s.WriteValue(v); err != nil {
		return nil, err
	}

	return s.Release(), nil
}

// Deserialize decodes the first value of an encoded stream with a fresh
// default deserializer.
//
// Parameters:
//   - data: Encoded byte stream
//
// Returns:
//   - any: The decoded value graph
//   - error: Deserialization error on malformed or unsupported input
func Deserialize(data []byte) (any, error) {
	d, err := codec.NewDeserializer(data)
	if err != nil {
		return nil, err
	}

	if err := d.ReadHeader(); err != nil {
		return nil, err
	}

	return d.ReadValue()
}
