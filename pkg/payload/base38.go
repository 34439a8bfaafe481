package payload

import (
	"errors"
	"strings"
)

// base38 is the alphanumeric alphabet Matter uses for QR payloads. It
// avoids characters that inflate QR code size in alphanumeric mode.
const base38Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-."

var ErrBase38InvalidChar = errors.New("payload: invalid base38 character")

// chars38PerChunk[n] is the encoded length of an n-byte chunk.
var chars38PerChunk = [4]int{0, 2, 4, 5}

// base38Encode encodes bytes in little-endian chunks of up to three
// bytes, each chunk becoming a fixed number of characters.
func base38Encode(data []byte) string {
	var sb strings.Builder
	for len(data) > 0 {
		n := len(data)
		if n > 3 {
			n = 3
		}
		var value uint32
		for i := n - 1; i >= 0; i-- {
			value = value<<8 | uint32(data[i])
		}
		for i := 0; i < chars38PerChunk[n]; i++ {
			sb.WriteByte(base38Alphabet[value%38])
			value /= 38
		}
		data = data[n:]
	}
	return sb.String()
}

// base38Decode reverses base38Encode. The input length must be a valid
// sequence of full chunks.
func base38Decode(s string) ([]byte, error) {
	var out []byte
	for len(s) > 0 {
		chars := len(s)
		if chars > 5 {
			chars = 5
		}
		var bytes int
		switch chars {
		case 5:
			bytes = 3
		case 4:
			bytes = 2
		case 2:
			bytes = 1
		default:
			return nil, errors.New("payload: invalid base38 length")
		}
		var value uint32
		for i := chars - 1; i >= 0; i-- {
			idx := strings.IndexByte(base38Alphabet, s[i])
			if idx < 0 {
				return nil, ErrBase38InvalidChar
			}
			value = value*38 + uint32(idx)
		}
		for i := 0; i < bytes; i++ {
			out = append(out, byte(value))
			value >>= 8
		}
		if value != 0 {
			return nil, errors.New("payload: base38 chunk out of range")
		}
		s = s[chars:]
	}
	return out, nil
}
