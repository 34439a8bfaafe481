// Package payload builds Matter onboarding payloads: the base38 QR code
// string and the Verhoeff-checked manual pairing code that commissioners
// use to reach a device before it is on the network.
package payload

import "errors"

// CommissioningFlow indicates how the device expects to be commissioned.
type CommissioningFlow uint8

const (
	FlowStandard   CommissioningFlow = 0
	FlowUserIntent CommissioningFlow = 1
	FlowCustom     CommissioningFlow = 2
)

// DiscoveryCapabilities is a bitmask of the rendezvous channels the
// device advertises on.
type DiscoveryCapabilities uint8

const (
	DiscoverySoftAP DiscoveryCapabilities = 1 << 0
	DiscoveryBLE    DiscoveryCapabilities = 1 << 1
	DiscoveryOnIP   DiscoveryCapabilities = 1 << 2
)

const (
	maxDiscriminator = 0xFFF
	maxPasscode      = 99999998
)

var (
	ErrInvalidDiscriminator = errors.New("payload: discriminator exceeds 12 bits")
	ErrInvalidPasscode      = errors.New("payload: invalid setup passcode")
)

// invalidPasscodes are the trivially guessable values the commissioning
// flow rejects.
var invalidPasscodes = map[uint32]struct{}{
	0:        {},
	11111111: {},
	22222222: {},
	33333333: {},
	44444444: {},
	55555555: {},
	66666666: {},
	77777777: {},
	88888888: {},
	99999999: {},
	12345678: {},
	87654321: {},
}

// SetupPayload carries the fields shared by both onboarding encodings.
// Discriminator is the full 12-bit value; manual codes only carry its
// upper 4 bits.
type SetupPayload struct {
	Version       uint8
	VendorID      uint16
	ProductID     uint16
	Flow          CommissioningFlow
	Capabilities  DiscoveryCapabilities
	Discriminator uint16
	Passcode      uint32
}

// ShortDiscriminator returns the 4-bit discriminator used in manual codes.
func (p *SetupPayload) ShortDiscriminator() uint8 {
	return uint8(p.Discriminator >> 8)
}

// Validate checks the field ranges and passcode rules.
func (p *SetupPayload) Validate() error {
	if p.Discriminator > maxDiscriminator {
		return ErrInvalidDiscriminator
	}
	if p.Passcode > maxPasscode {
		return ErrInvalidPasscode
	}
	if _, bad := invalidPasscodes[p.Passcode]; bad {
		return ErrInvalidPasscode
	}
	return nil
}
