package tlv

import "errors"

// Errors returned by the TLV reader and writer.
var (
	// ErrInvalidElementType indicates an element type outside the supported set.
	ErrInvalidElementType = errors.New("tlv: invalid element type")

	// ErrInvalidTagControl indicates an unsupported tag control form.
	ErrInvalidTagControl = errors.New("tlv: invalid tag control")

	// ErrInvalidUTF8 indicates a UTF-8 string element with invalid encoding.
	ErrInvalidUTF8 = errors.New("tlv: invalid UTF-8 string")

	// ErrTypeMismatch indicates the current element has a different type
	// than the accessor expects.
	ErrTypeMismatch = errors.New("tlv: element type mismatch")

	// ErrNoElement indicates no current element; call Next first.
	ErrNoElement = errors.New("tlv: no current element")

	// ErrValueAlreadyRead indicates the current element's value was
	// already consumed.
	ErrValueAlreadyRead = errors.New("tlv: value already read")

	// ErrNotInContainer indicates an EndContainer or ExitContainer with
	// no open container.
	ErrNotInContainer = errors.New("tlv: not in a container")
)
