package codec

import "github.com/renvoy/jswire/errs"

// SerializerDelegate handles values the core format refuses.
//
// When the serializer meets a composite it has no tag for, it writes the
// HostObject tag and hands control to WriteHostObject, which emits an opaque
// payload through the serializer's primitive writers (WriteUint32,
// WriteUint64, WriteDouble, WriteRawBytes). The matching deserializer
// delegate must consume exactly that payload.
type SerializerDelegate interface {
	// WriteHostObject writes the payload for v. Returning an error aborts
	// the surrounding WriteValue.
	WriteHostObject(s *Serializer, v any) error

	// DataCloneError converts a rejection message into the domain error the
	// serializer returns for values that cannot be cloned.
	DataCloneError(message string) error
}

// CloneError is the error kind returned when a value cannot be represented
// in the wire format. It unwraps to errs.ErrDataClone so callers can match
// the kind without parsing the message.
type CloneError struct {
	Message string
}

func (e *CloneError) Error() string { return e.Message }

func (e *CloneError) Unwrap() error { return errs.ErrDataClone }

// DeserializerDelegate reconstructs host objects on the read side.
type DeserializerDelegate interface {
	// ReadHostObject consumes the payload written by the matching
	// SerializerDelegate, using the deserializer's primitive readers, and
	// returns the reconstructed value. The core registers the returned
	// value in the identity map.
	ReadHostObject(d *Deserializer) (any, error)
}
