// Package codec implements the structured clone wire format at version 13.
//
// Serializer turns a value graph into a self-describing byte stream;
// Deserializer parses the stream back into a structurally equivalent graph.
// Both preserve object identity: every composite is encoded once, and
// further occurrences travel as back-references, which is what makes cycles
// and shared subtrees round-trip.
//
// # Basic Usage
//
// Encoding a value:
//
//	s, _ := codec.NewSerializer()
//	s.WriteHeader()
//	if err := s.WriteValue(v); err != nil {
//	    return err
//	}
//	data := s.Release()
//
// Decoding it again:
//
//	d, _ := codec.NewDeserializer(data)
//	if err := d.ReadHeader(); err != nil {
//	    return err
//	}
//	v, err := d.ReadValue()
//
// Values the core format cannot express are dispatched to a caller-supplied
// delegate pair; ViewHostCodec is the stock delegate for typed views.
//
// Note: neither type is safe for concurrent use, and neither is reusable
// once released or failed.
package codec
