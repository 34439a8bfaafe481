// Package netif reports the addresses of the operational network
// interface and notifies when they change.
package netif

import (
	"context"
	"net/netip"
)

// Addrs holds the usable addresses of a network interface.
type Addrs struct {
	// IPv4 is the first global IPv4 address, if any.
	IPv4 netip.Addr

	// IPv6 is the first IPv6 address, preferring link-local.
	IPv6 netip.Addr
}

// Ready reports whether the interface is usable for operational
// traffic.
func (a Addrs) Ready() bool {
	return a.IPv4.IsValid() && a.IPv6.IsValid()
}

// Monitor observes one network interface.
//
// All methods must be safe for concurrent use.
type Monitor interface {
	// Addrs returns the current interface addresses. An interface
	// that is down or unconfigured returns zero Addrs, not an error.
	Addrs() (Addrs, error)

	// WaitChanged blocks until the interface configuration may have
	// changed or ctx is cancelled. Spurious wakeups are allowed;
	// callers re-read Addrs after waking.
	WaitChanged(ctx context.Context) error
}

// WaitReady blocks until the monitored interface has usable addresses.
func WaitReady(ctx context.Context, m Monitor) (Addrs, error) {
	for {
		addrs, err := m.Addrs()
		if err != nil {
			return Addrs{}, err
		}
		if addrs.Ready() {
			return addrs, nil
		}
		if err := m.WaitChanged(ctx); err != nil {
			return Addrs{}, err
		}
	}
}
