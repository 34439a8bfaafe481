package tlv

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"
)

// Writer encodes TLV elements to an io.Writer.
// Values are always encoded with the minimum width that fits.
type Writer struct {
	w     io.Writer
	depth int
}

// NewWriter creates a TLV Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// PutInt writes a signed integer with the given tag.
func (w *Writer) PutInt(tag Tag, v int64) error {
	var buf [8]byte
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		buf[0] = byte(v)
		return w.putFixed(ElementTypeInt8, tag, buf[:1])
	case v >= math.MinInt16 && v <= math.MaxInt16:
		binary.LittleEndian.PutUint16(buf[:2], uint16(v))
		return w.putFixed(ElementTypeInt16, tag, buf[:2])
	case v >= math.MinInt32 && v <= math.MaxInt32:
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		return w.putFixed(ElementTypeInt32, tag, buf[:4])
	default:
		binary.LittleEndian.PutUint64(buf[:8], uint64(v))
		return w.putFixed(ElementTypeInt64, tag, buf[:8])
	}
}

// PutUint writes an unsigned integer with the given tag.
func (w *Writer) PutUint(tag Tag, v uint64) error {
	var buf [8]byte
	switch {
	case v <= math.MaxUint8:
		buf[0] = byte(v)
		return w.putFixed(ElementTypeUInt8, tag, buf[:1])
	case v <= math.MaxUint16:
		binary.LittleEndian.PutUint16(buf[:2], uint16(v))
		return w.putFixed(ElementTypeUInt16, tag, buf[:2])
	case v <= math.MaxUint32:
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		return w.putFixed(ElementTypeUInt32, tag, buf[:4])
	default:
		binary.LittleEndian.PutUint64(buf[:8], v)
		return w.putFixed(ElementTypeUInt64, tag, buf[:8])
	}
}

// PutBool writes a boolean with the given tag.
func (w *Writer) PutBool(tag Tag, v bool) error {
	t := ElementTypeFalse
	if v {
		t = ElementTypeTrue
	}
	return w.putControlAndTag(t, tag)
}

// PutNull writes a null value with the given tag.
func (w *Writer) PutNull(tag Tag) error {
	return w.putControlAndTag(ElementTypeNull, tag)
}

// PutString writes a UTF-8 string with the given tag.
// Returns ErrInvalidUTF8 if v is not valid UTF-8.
func (w *Writer) PutString(tag Tag, v string) error {
	if !utf8.ValidString(v) {
		return ErrInvalidUTF8
	}
	return w.putLengthPrefixed(true, tag, []byte(v))
}

// PutBytes writes an octet string with the given tag.
func (w *Writer) PutBytes(tag Tag, v []byte) error {
	return w.putLengthPrefixed(false, tag, v)
}

// StartStructure opens a structure container with the given tag.
func (w *Writer) StartStructure(tag Tag) error {
	if err := w.putControlAndTag(ElementTypeStruct, tag); err != nil {
		return err
	}
	w.depth++
	return nil
}

// StartArray opens an array container with the given tag.
func (w *Writer) StartArray(tag Tag) error {
	if err := w.putControlAndTag(ElementTypeArray, tag); err != nil {
		return err
	}
	w.depth++
	return nil
}

// EndContainer closes the innermost open container.
func (w *Writer) EndContainer() error {
	if w.depth == 0 {
		return ErrNotInContainer
	}
	w.depth--
	_, err := w.w.Write([]byte{byte(ElementTypeEnd)})
	return err
}

// ContainerDepth returns the current container nesting depth.
func (w *Writer) ContainerDepth() int {
	return w.depth
}

func (w *Writer) putControlAndTag(t ElementType, tag Tag) error {
	if _, err := w.w.Write([]byte{BuildControlOctet(t, tag.Control())}); err != nil {
		return err
	}
	_, err := tag.WriteTo(w.w)
	return err
}

func (w *Writer) putFixed(t ElementType, tag Tag, value []byte) error {
	if err := w.putControlAndTag(t, tag); err != nil {
		return err
	}
	_, err := w.w.Write(value)
	return err
}

func (w *Writer) putLengthPrefixed(isUTF8 bool, tag Tag, data []byte) error {
	length := len(data)

	var t ElementType
	var lenBuf [4]byte
	var lenSize int
	switch {
	case length <= math.MaxUint8:
		lenSize = 1
		lenBuf[0] = byte(length)
		t = ElementTypeBytes1
		if isUTF8 {
			t = ElementTypeUTF8_1
		}
	case length <= math.MaxUint16:
		lenSize = 2
		binary.LittleEndian.PutUint16(lenBuf[:2], uint16(length))
		t = ElementTypeBytes2
		if isUTF8 {
			t = ElementTypeUTF8_2
		}
	default:
		lenSize = 4
		binary.LittleEndian.PutUint32(lenBuf[:4], uint32(length))
		t = ElementTypeBytes4
		if isUTF8 {
			t = ElementTypeUTF8_4
		}
	}

	if err := w.putControlAndTag(t, tag); err != nil {
		return err
	}
	if _, err := w.w.Write(lenBuf[:lenSize]); err != nil {
		return err
	}
	_, err := w.w.Write(data)
	return err
}
