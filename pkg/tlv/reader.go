package tlv

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// Reader decodes TLV elements from an io.Reader.
// Call Next to advance, then use the typed accessors to consume the
// current element's value.
type Reader struct {
	r     io.Reader
	depth int

	hasElement bool
	elemType   ElementType
	tag        Tag
	valueRead  bool

	// Buffered value for fixed-size types.
	valueBuf [8]byte
	valueLen int

	// Pending payload length for string types; read lazily.
	payloadLen uint32
}

// NewReader creates a TLV Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next advances to the next TLV element.
// Returns io.EOF when there are no more elements.
func (r *Reader) Next() error {
	if r.hasElement && !r.valueRead {
		if err := r.skipValue(); err != nil {
			return err
		}
	}

	var ctrl [1]byte
	if _, err := io.ReadFull(r.r, ctrl[:]); err != nil {
		return err
	}

	elemType, tagCtrl := ParseControlOctet(ctrl[0])
	if !validElementType(elemType) {
		return ErrInvalidElementType
	}
	r.elemType = elemType

	tag, err := ReadTag(r.r, tagCtrl)
	if err != nil {
		return err
	}
	r.tag = tag

	switch {
	case r.elemType.IsSignedInt() || r.elemType.IsUnsignedInt():
		r.valueLen = r.elemType.ValueSize()
		if _, err := io.ReadFull(r.r, r.valueBuf[:r.valueLen]); err != nil {
			return err
		}
	case r.elemType.IsString():
		var lenBuf [4]byte
		lenSize := r.elemType.LengthFieldSize()
		if _, err := io.ReadFull(r.r, lenBuf[:lenSize]); err != nil {
			return err
		}
		switch lenSize {
		case 1:
			r.payloadLen = uint32(lenBuf[0])
		case 2:
			r.payloadLen = uint32(binary.LittleEndian.Uint16(lenBuf[:2]))
		case 4:
			r.payloadLen = binary.LittleEndian.Uint32(lenBuf[:4])
		}
	default:
		r.valueLen = 0
		r.payloadLen = 0
	}

	r.hasElement = true
	r.valueRead = false
	return nil
}

// Type returns the type of the current element.
func (r *Reader) Type() ElementType {
	return r.elemType
}

// Tag returns the tag of the current element.
func (r *Reader) Tag() Tag {
	return r.tag
}

// HasElement reports whether there is a current element.
func (r *Reader) HasElement() bool {
	return r.hasElement
}

// Int returns the current element as a signed integer.
func (r *Reader) Int() (int64, error) {
	if err := r.checkValue(); err != nil {
		return 0, err
	}
	if !r.elemType.IsSignedInt() {
		return 0, ErrTypeMismatch
	}
	r.valueRead = true

	switch r.elemType {
	case ElementTypeInt8:
		return int64(int8(r.valueBuf[0])), nil
	case ElementTypeInt16:
		return int64(int16(binary.LittleEndian.Uint16(r.valueBuf[:2]))), nil
	case ElementTypeInt32:
		return int64(int32(binary.LittleEndian.Uint32(r.valueBuf[:4]))), nil
	default:
		return int64(binary.LittleEndian.Uint64(r.valueBuf[:8])), nil
	}
}

// Uint returns the current element as an unsigned integer.
func (r *Reader) Uint() (uint64, error) {
	if err := r.checkValue(); err != nil {
		return 0, err
	}
	if !r.elemType.IsUnsignedInt() {
		return 0, ErrTypeMismatch
	}
	r.valueRead = true

	switch r.elemType {
	case ElementTypeUInt8:
		return uint64(r.valueBuf[0]), nil
	case ElementTypeUInt16:
		return uint64(binary.LittleEndian.Uint16(r.valueBuf[:2])), nil
	case ElementTypeUInt32:
		return uint64(binary.LittleEndian.Uint32(r.valueBuf[:4])), nil
	default:
		return binary.LittleEndian.Uint64(r.valueBuf[:8]), nil
	}
}

// Bool returns the current element as a boolean.
func (r *Reader) Bool() (bool, error) {
	if err := r.checkValue(); err != nil {
		return false, err
	}
	if !r.elemType.IsBool() {
		return false, ErrTypeMismatch
	}
	r.valueRead = true
	return r.elemType == ElementTypeTrue, nil
}

// Null verifies the current element is a null value.
func (r *Reader) Null() error {
	if err := r.checkValue(); err != nil {
		return err
	}
	if r.elemType != ElementTypeNull {
		return ErrTypeMismatch
	}
	r.valueRead = true
	return nil
}

// String returns the current element as a UTF-8 string.
func (r *Reader) String() (string, error) {
	if err := r.checkValue(); err != nil {
		return "", err
	}
	if !r.elemType.IsUTF8String() {
		return "", ErrTypeMismatch
	}
	r.valueRead = true

	data, err := r.readPayload()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

// Bytes returns the current element as a byte slice.
func (r *Reader) Bytes() ([]byte, error) {
	if err := r.checkValue(); err != nil {
		return nil, err
	}
	if !r.elemType.IsBytes() {
		return nil, ErrTypeMismatch
	}
	r.valueRead = true
	return r.readPayload()
}

// EnterContainer enters the current structure or array element.
func (r *Reader) EnterContainer() error {
	if !r.hasElement {
		return ErrNoElement
	}
	if !r.elemType.IsContainer() {
		return ErrTypeMismatch
	}
	r.depth++
	r.hasElement = false
	r.valueRead = true
	return nil
}

// ExitContainer exits the current container, discarding any remaining
// elements up to and including the end-of-container marker.
func (r *Reader) ExitContainer() error {
	if r.depth == 0 {
		return ErrNotInContainer
	}

	if r.hasElement && r.elemType == ElementTypeEnd {
		r.depth--
		r.hasElement = false
		return nil
	}

	nested := 1
	for nested > 0 {
		if err := r.Next(); err != nil {
			return err
		}
		switch {
		case r.elemType == ElementTypeEnd:
			nested--
		case r.elemType.IsContainer():
			nested++
		}
	}

	r.depth--
	r.hasElement = false
	return nil
}

// IsEndOfContainer reports whether the current element is an
// end-of-container marker.
func (r *Reader) IsEndOfContainer() bool {
	return r.hasElement && r.elemType == ElementTypeEnd
}

// ContainerDepth returns the current container nesting depth.
func (r *Reader) ContainerDepth() int {
	return r.depth
}

// Skip skips the current element, including nested content for
// containers.
func (r *Reader) Skip() error {
	if !r.hasElement {
		return ErrNoElement
	}
	if r.elemType.IsContainer() {
		if err := r.EnterContainer(); err != nil {
			return err
		}
		return r.ExitContainer()
	}
	return r.skipValue()
}

func (r *Reader) checkValue() error {
	if !r.hasElement {
		return ErrNoElement
	}
	if r.valueRead {
		return ErrValueAlreadyRead
	}
	return nil
}

func (r *Reader) readPayload() ([]byte, error) {
	if r.payloadLen == 0 {
		return nil, nil
	}
	data := make([]byte, r.payloadLen)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Reader) skipValue() error {
	if r.valueRead {
		return nil
	}
	r.valueRead = true
	if r.elemType.IsString() && r.payloadLen > 0 {
		_, err := io.CopyN(io.Discard, r.r, int64(r.payloadLen))
		return err
	}
	return nil
}

// validElementType reports whether t belongs to the subset of element
// types this package decodes.
func validElementType(t ElementType) bool {
	switch {
	case t.IsSignedInt(), t.IsUnsignedInt(), t.IsBool(), t.IsString():
		return true
	case t == ElementTypeNull, t == ElementTypeStruct, t == ElementTypeArray, t == ElementTypeEnd:
		return true
	default:
		return false
	}
}
