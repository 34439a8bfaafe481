//go:build !linux

package netif

import (
	"context"
	"errors"
)

// LinkMonitor watches a network interface for address changes. Only
// the Linux netlink implementation exists.
type LinkMonitor struct{}

func NewLinkMonitor(name string) (*LinkMonitor, error) {
	return nil, errors.New("netif: link monitoring requires linux")
}

func (m *LinkMonitor) Addrs() (Addrs, error) { return Addrs{}, errors.New("netif: not supported") }

func (m *LinkMonitor) WaitChanged(ctx context.Context) error {
	return errors.New("netif: not supported")
}

func (m *LinkMonitor) Close() error { return nil }
