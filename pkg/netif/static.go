package netif

import (
	"context"
	"sync"
)

// StaticMonitor is a Monitor with externally controlled addresses,
// useful for tests and fixed-address deployments.
type StaticMonitor struct {
	mu      sync.Mutex
	addrs   Addrs
	changed chan struct{}
}

// NewStaticMonitor creates a monitor reporting the given addresses.
func NewStaticMonitor(addrs Addrs) *StaticMonitor {
	return &StaticMonitor{
		addrs:   addrs,
		changed: make(chan struct{}, 1),
	}
}

// SetAddrs replaces the reported addresses and wakes waiters.
func (m *StaticMonitor) SetAddrs(addrs Addrs) {
	m.mu.Lock()
	m.addrs = addrs
	m.mu.Unlock()

	select {
	case m.changed <- struct{}{}:
	default:
	}
}

// Addrs implements Monitor.
func (m *StaticMonitor) Addrs() (Addrs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addrs, nil
}

// WaitChanged implements Monitor.
func (m *StaticMonitor) WaitChanged(ctx context.Context) error {
	select {
	case <-m.changed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
