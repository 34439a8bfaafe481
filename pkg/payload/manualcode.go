package payload

import (
	"fmt"
	"strings"
)

// Manual pairing codes carry only the short (4-bit) discriminator and
// the passcode, split across three decimal chunks:
//
//	chunk1 (1 digit):  bits 0-1 discriminator MSBs, bit 2 VID/PID flag
//	chunk2 (5 digits): bits 0-13 passcode LSBs, bits 14-15 discriminator LSBs
//	chunk3 (4 digits): bits 0-12 passcode MSBs
//
// Long codes append five digits each of vendor and product ID. A
// Verhoeff check digit closes the code.

// ManualCode encodes the payload as a manual pairing code: 11 digits
// for the standard flow, 21 digits when the flow is custom (which
// requires the commissioner to know vendor and product ID).
func (p *SetupPayload) ManualCode() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	disc := uint32(p.ShortDiscriminator())
	long := p.Flow == FlowCustom

	chunk1 := disc >> 2
	if long {
		chunk1 |= 1 << 2
	}
	chunk2 := p.Passcode&0x3FFF | (disc&0x3)<<14
	chunk3 := p.Passcode >> 14

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d%05d%04d", chunk1, chunk2, chunk3)
	if long {
		fmt.Fprintf(&sb, "%05d%05d", p.VendorID, p.ProductID)
	}

	check, err := verhoeffCheckDigit(sb.String())
	if err != nil {
		return "", err
	}
	sb.WriteByte(check)
	return sb.String(), nil
}
