// Package discovery publishes the Matter DNS-SD services: the
// commissionable service while the device waits for a commissioner
// and the operational service once it is on the network.
package discovery

import "errors"

// DNS-SD service constants.
const (
	// ServiceOperational is the DNS-SD service type for operational
	// nodes.
	ServiceOperational = "_matter._tcp"

	// ServiceCommissionable is the DNS-SD service type for nodes in
	// commissioning mode.
	ServiceCommissionable = "_matterc._udp"

	// DefaultDomain is the default mDNS domain.
	DefaultDomain = "local."

	// DefaultPort is the default operational port.
	DefaultPort = 5540
)

// Package-level sentinel errors for discovery operations.
var (
	// ErrClosed is returned when an operation is attempted on a closed
	// component.
	ErrClosed = errors.New("discovery: closed")

	// ErrAlreadyStarted is returned when starting an already-started
	// service.
	ErrAlreadyStarted = errors.New("discovery: already started")

	// ErrInvalidTXTRecord is returned when a TXT record has invalid
	// format.
	ErrInvalidTXTRecord = errors.New("discovery: invalid TXT record format")
)
