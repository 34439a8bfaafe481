//go:build linux

package netif

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// LinkMonitor observes a named interface through netlink.
type LinkMonitor struct {
	name    string
	updates chan netlink.AddrUpdate
	done    chan struct{}
}

// NewLinkMonitor creates a monitor for the named interface and
// subscribes to kernel address updates. Close releases the
// subscription.
func NewLinkMonitor(name string) (*LinkMonitor, error) {
	if _, err := netlink.LinkByName(name); err != nil {
		return nil, fmt.Errorf("netif: interface %s: %w", name, err)
	}

	m := &LinkMonitor{
		name:    name,
		updates: make(chan netlink.AddrUpdate, 16),
		done:    make(chan struct{}),
	}
	if err := netlink.AddrSubscribe(m.updates, m.done); err != nil {
		return nil, fmt.Errorf("netif: subscribe: %w", err)
	}
	return m, nil
}

// Close stops the address subscription.
func (m *LinkMonitor) Close() error {
	close(m.done)
	return nil
}

// Addrs implements Monitor.
func (m *LinkMonitor) Addrs() (Addrs, error) {
	link, err := netlink.LinkByName(m.name)
	if err != nil {
		return Addrs{}, fmt.Errorf("netif: interface %s: %w", m.name, err)
	}
	if link.Attrs().Flags&net.FlagUp == 0 {
		return Addrs{}, nil
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		return Addrs{}, fmt.Errorf("netif: list addresses: %w", err)
	}

	var out Addrs
	for _, a := range addrs {
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		switch {
		case ip.Is4():
			if !out.IPv4.IsValid() && ip.IsGlobalUnicast() {
				out.IPv4 = ip
			}
		case ip.Is6():
			// Prefer the link-local address for local operation.
			if ip.IsLinkLocalUnicast() {
				out.IPv6 = ip
			} else if !out.IPv6.IsValid() {
				out.IPv6 = ip
			}
		}
	}
	return out, nil
}

// WaitChanged implements Monitor. Any address change on the host wakes
// the caller; changes on other interfaces surface as spurious wakeups.
func (m *LinkMonitor) WaitChanged(ctx context.Context) error {
	select {
	case <-m.updates:
		return nil
	case <-m.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}
