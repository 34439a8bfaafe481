package tlv

import (
	"encoding/binary"
	"io"
)

// TagControl is the tag form encoded in the upper 3 bits of the
// control octet.
type TagControl int

const (
	TagControlAnonymous      TagControl = 0 // no tag octets
	TagControlContext        TagControl = 1 // 1 octet
	TagControlCommonProfile2 TagControl = 2 // 2 octets
	TagControlCommonProfile4 TagControl = 3 // 4 octets
)

// Size returns the number of tag octets for this control form.
func (tc TagControl) Size() int {
	switch tc {
	case TagControlContext:
		return 1
	case TagControlCommonProfile2:
		return 2
	case TagControlCommonProfile4:
		return 4
	default:
		return 0
	}
}

// Tag identifies a TLV element within its container.
type Tag struct {
	control   TagControl
	tagNumber uint32
}

// Anonymous returns the anonymous tag.
func Anonymous() Tag {
	return Tag{control: TagControlAnonymous}
}

// ContextTag returns a context-specific tag with the given number.
func ContextTag(n uint8) Tag {
	return Tag{control: TagControlContext, tagNumber: uint32(n)}
}

// CommonProfileTag returns a common-profile tag with the given number.
func CommonProfileTag(n uint32) Tag {
	tc := TagControlCommonProfile2
	if n > 0xFFFF {
		tc = TagControlCommonProfile4
	}
	return Tag{control: tc, tagNumber: n}
}

// Control returns the tag control form.
func (t Tag) Control() TagControl {
	return t.control
}

// TagNumber returns the tag number. Zero for anonymous tags.
func (t Tag) TagNumber() uint32 {
	return t.tagNumber
}

// IsAnonymous reports whether t is the anonymous tag.
func (t Tag) IsAnonymous() bool {
	return t.control == TagControlAnonymous
}

// IsContext reports whether t is a context-specific tag.
func (t Tag) IsContext() bool {
	return t.control == TagControlContext
}

// WriteTo writes the tag octets to w.
func (t Tag) WriteTo(w io.Writer) (int64, error) {
	var buf [4]byte
	switch t.control {
	case TagControlAnonymous:
		return 0, nil
	case TagControlContext:
		buf[0] = byte(t.tagNumber)
	case TagControlCommonProfile2:
		binary.LittleEndian.PutUint16(buf[:2], uint16(t.tagNumber))
	case TagControlCommonProfile4:
		binary.LittleEndian.PutUint32(buf[:4], t.tagNumber)
	default:
		return 0, ErrInvalidTagControl
	}
	n, err := w.Write(buf[:t.control.Size()])
	return int64(n), err
}

// ReadTag reads the tag octets for the given control form from r.
func ReadTag(r io.Reader, tc TagControl) (Tag, error) {
	size := tc.Size()
	if size == 0 {
		if tc != TagControlAnonymous {
			return Tag{}, ErrInvalidTagControl
		}
		return Anonymous(), nil
	}

	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		return Tag{}, err
	}

	var n uint32
	switch tc {
	case TagControlContext:
		n = uint32(buf[0])
	case TagControlCommonProfile2:
		n = uint32(binary.LittleEndian.Uint16(buf[:2]))
	case TagControlCommonProfile4:
		n = binary.LittleEndian.Uint32(buf[:4])
	}

	return Tag{control: tc, tagNumber: n}, nil
}
