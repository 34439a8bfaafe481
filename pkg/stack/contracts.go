package stack

import (
	"context"

	"github.com/oddlama/matter-provision/pkg/netif"
)

// Conn is a framed bidirectional channel to a single peer.
//
// Implementations must unblock pending Send and Recv calls when the
// given context is cancelled.
type Conn interface {
	// Send transmits one frame.
	Send(ctx context.Context, payload []byte) error

	// Recv returns the next received frame.
	Recv(ctx context.Context) ([]byte, error)

	// Close releases the underlying resources.
	Close() error
}

// OOBChannel accepts one out-of-band commissioning connection, for
// example over BLE or a soft access point.
type OOBChannel interface {
	// AdvertiseAndAccept advertises the device under deviceName with
	// the given onboarding payload and blocks until a commissioner
	// connects or ctx is cancelled.
	AdvertiseAndAccept(ctx context.Context, deviceName, onboardingPayload string) (Conn, error)
}

// Responder serves protocol exchanges for one session. Run returns
// when the session ends or ctx is cancelled.
type Responder interface {
	Run(ctx context.Context, conn Conn, buf []byte) error
}

// Transport pumps protocol traffic between the wire and the responder
// for one session.
type Transport interface {
	Run(ctx context.Context, conn Conn, buf []byte) error
}

// Advertiser announces the operational service on the local network.
type Advertiser interface {
	// Advertise announces the device on the interface addresses and
	// blocks until ctx is cancelled.
	Advertise(ctx context.Context, addrs netif.Addrs) error
}
