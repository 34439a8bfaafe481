package payload

import (
	"errors"
	"strings"
)

// QRCodePrefix starts every Matter onboarding QR code.
const QRCodePrefix = "MT:"

// Packed field widths, in encoding order from bit 0.
const (
	versionBits       = 3
	vendorIDBits      = 16
	productIDBits     = 16
	flowBits          = 2
	capabilitiesBits  = 8
	discriminatorBits = 12
	passcodeBits      = 27
	paddingBits       = 4

	packedPayloadBytes = 11
)

var (
	ErrQRCodePrefix  = errors.New("payload: missing MT: prefix")
	ErrQRCodeLength  = errors.New("payload: truncated QR payload")
	ErrQRCodePadding = errors.New("payload: nonzero QR padding")
)

// QRCode encodes the payload as an onboarding QR code string.
func (p *SetupPayload) QRCode() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	var w bitWriter
	w.write(uint64(p.Version), versionBits)
	w.write(uint64(p.VendorID), vendorIDBits)
	w.write(uint64(p.ProductID), productIDBits)
	w.write(uint64(p.Flow), flowBits)
	w.write(uint64(p.Capabilities), capabilitiesBits)
	w.write(uint64(p.Discriminator), discriminatorBits)
	w.write(uint64(p.Passcode), passcodeBits)
	w.write(0, paddingBits)

	return QRCodePrefix + base38Encode(w.data), nil
}

// ParseQRCode decodes an onboarding QR code string.
func ParseQRCode(code string) (*SetupPayload, error) {
	body, ok := strings.CutPrefix(code, QRCodePrefix)
	if !ok || body == "" {
		return nil, ErrQRCodePrefix
	}

	data, err := base38Decode(body)
	if err != nil {
		return nil, err
	}
	if len(data) < packedPayloadBytes {
		return nil, ErrQRCodeLength
	}

	r := bitReader{data: data}
	p := &SetupPayload{}
	p.Version = uint8(r.read(versionBits))
	p.VendorID = uint16(r.read(vendorIDBits))
	p.ProductID = uint16(r.read(productIDBits))
	p.Flow = CommissioningFlow(r.read(flowBits))
	p.Capabilities = DiscoveryCapabilities(r.read(capabilitiesBits))
	p.Discriminator = uint16(r.read(discriminatorBits))
	p.Passcode = uint32(r.read(passcodeBits))
	if r.read(paddingBits) != 0 {
		return nil, ErrQRCodePadding
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// bitWriter packs values LSB first into a growing byte slice.
type bitWriter struct {
	data []byte
	pos  int
}

func (w *bitWriter) write(value uint64, bits int) {
	for need := (w.pos + bits + 7) / 8; len(w.data) < need; {
		w.data = append(w.data, 0)
	}
	for i := 0; i < bits; i++ {
		if value&(1<<i) != 0 {
			w.data[(w.pos+i)/8] |= 1 << ((w.pos + i) % 8)
		}
	}
	w.pos += bits
}

// bitReader reads LSB-first packed values. Reads past the end return
// zero bits; callers bound their reads by the checked payload length.
type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) read(bits int) uint64 {
	var value uint64
	for i := 0; i < bits; i++ {
		idx := (r.pos + i) / 8
		if idx >= len(r.data) {
			break
		}
		if r.data[idx]&(1<<((r.pos+i)%8)) != 0 {
			value |= 1 << i
		}
	}
	r.pos += bits
	return value
}
