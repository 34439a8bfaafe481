package wifi

import (
	"context"
	"errors"
	"sync"
)

const (
	// MaxSSIDLen is the maximum SSID length in bytes.
	MaxSSIDLen = 32
	// MaxPasswordLen is the maximum passphrase length in bytes.
	MaxPasswordLen = 64
	// DefaultMaxNetworks is the network table capacity used when none
	// is configured.
	DefaultMaxNetworks = 3
)

var (
	// ErrInvalidSSID indicates an empty or over-long SSID.
	ErrInvalidSSID = errors.New("wifi: invalid ssid")
	// ErrInvalidPassword indicates an over-long passphrase.
	ErrInvalidPassword = errors.New("wifi: invalid password")
	// ErrTableFull indicates the network table is at capacity.
	ErrTableFull = errors.New("wifi: network table full")
	// ErrNetworkNotFound indicates the SSID is not in the table.
	ErrNetworkNotFound = errors.New("wifi: network not found")
	// ErrIndexOutOfRange indicates a reorder target outside the table.
	ErrIndexOutOfRange = errors.New("wifi: index out of range")
)

// Credential is one stored network entry.
type Credential struct {
	SSID     string
	Password string
}

// NetworkInfo is the externally visible view of one table entry.
type NetworkInfo struct {
	SSID      string
	Connected bool
}

// ConnectionStatus is the outcome of the most recent connection
// attempt.
type ConnectionStatus struct {
	SSID   string
	Status Status
	Value  int32
}

// Snapshot is a point-in-time copy of the durable provisioning state.
// Seq ties the copy to the mutation that produced it so a save can be
// acknowledged without clearing newer changes.
type Snapshot struct {
	Networks []Credential
	Seq      uint64
}

// Context is the shared WiFi provisioning state. It is safe for
// concurrent use. The mutex is held only for short state accesses,
// never across a network operation or a channel wait.
type Context struct {
	mu          sync.Mutex
	maxNetworks int
	networks    []Credential

	status           *ConnectionStatus
	connectRequested string
	connectPending   bool

	changed bool
	seq     uint64

	connectCh chan struct{}
	dirtyCh   chan struct{}
}

// NewContext creates an empty Context with the given table capacity.
// A capacity of zero or less selects DefaultMaxNetworks.
func NewContext(maxNetworks int) *Context {
	if maxNetworks <= 0 {
		maxNetworks = DefaultMaxNetworks
	}
	return &Context{
		maxNetworks: maxNetworks,
		connectCh:   make(chan struct{}, 1),
		dirtyCh:     make(chan struct{}, 1),
	}
}

// MaxNetworks returns the table capacity.
func (c *Context) MaxNetworks() int {
	return c.maxNetworks
}

func validateCredential(ssid, password string) error {
	if len(ssid) == 0 || len(ssid) > MaxSSIDLen {
		return ErrInvalidSSID
	}
	if len(password) > MaxPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}

// AddOrUpdate inserts a network or replaces the passphrase of an
// existing entry. It returns the zero-based position of the entry and
// whether an existing entry was updated.
func (c *Context) AddOrUpdate(ssid, password string) (int, bool, error) {
	if err := validateCredential(ssid, password); err != nil {
		return 0, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.networks {
		if c.networks[i].SSID == ssid {
			c.networks[i].Password = password
			c.markDirtyLocked()
			return i, true, nil
		}
	}
	if len(c.networks) >= c.maxNetworks {
		return 0, false, ErrTableFull
	}
	c.networks = append(c.networks, Credential{SSID: ssid, Password: password})
	c.markDirtyLocked()
	return len(c.networks) - 1, false, nil
}

// Remove deletes the entry with the given SSID. It returns the
// position the entry held and whether it was present.
func (c *Context) Remove(ssid string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.networks {
		if c.networks[i].SSID == ssid {
			c.networks = append(c.networks[:i], c.networks[i+1:]...)
			c.markDirtyLocked()
			return i, true
		}
	}
	return 0, false
}

// Reorder moves the entry with the given SSID to index. The remaining
// entries keep their relative order.
func (c *Context) Reorder(ssid string, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := -1
	for i := range c.networks {
		if c.networks[i].SSID == ssid {
			from = i
			break
		}
	}
	if from < 0 {
		return ErrNetworkNotFound
	}
	if index < 0 || index >= len(c.networks) {
		return ErrIndexOutOfRange
	}
	if from == index {
		return nil
	}

	entry := c.networks[from]
	c.networks = append(c.networks[:from], c.networks[from+1:]...)
	c.networks = append(c.networks[:index], append([]Credential{entry}, c.networks[index:]...)...)
	c.markDirtyLocked()
	return nil
}

// Credential returns the stored entry for ssid.
func (c *Context) Credential(ssid string) (Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.networks {
		if n.SSID == ssid {
			return n, true
		}
	}
	return Credential{}, false
}

// Networks returns the table entries in priority order, marking the
// currently connected network.
func (c *Context) Networks() []NetworkInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	connected := ""
	if c.status != nil && c.status.Status == StatusSuccess {
		connected = c.status.SSID
	}
	out := make([]NetworkInfo, len(c.networks))
	for i, n := range c.networks {
		out[i] = NetworkInfo{SSID: n.SSID, Connected: n.SSID == connected}
	}
	return out
}

// IsProvisioned reports whether at least one network is stored.
func (c *Context) IsProvisioned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.networks) > 0
}

// RequestConnect records a pending connect request for ssid and wakes
// anyone waiting for one. A newer request replaces an unconsumed one.
func (c *Context) RequestConnect(ssid string) {
	c.mu.Lock()
	c.connectRequested = ssid
	c.connectPending = true
	c.mu.Unlock()

	signal(c.connectCh)
}

// TakeConnectRequest consumes the pending connect request, if any.
func (c *Context) TakeConnectRequest() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connectPending {
		return "", false
	}
	ssid := c.connectRequested
	c.connectRequested = ""
	c.connectPending = false
	return ssid, true
}

// ConnectRequested reports whether a connect request is pending
// without consuming it.
func (c *Context) ConnectRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectPending
}

// WaitConnectRequested blocks until a connect request is pending or
// ctx is cancelled. The request is left for TakeConnectRequest.
func (c *Context) WaitConnectRequested(ctx context.Context) error {
	for {
		if c.ConnectRequested() {
			return nil
		}
		select {
		case <-c.connectCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetStatus records the outcome of a connection attempt.
func (c *Context) SetStatus(s ConnectionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := s
	c.status = &status
}

// Status returns the most recent connection outcome, if any.
func (c *Context) Status() (ConnectionStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == nil {
		return ConnectionStatus{}, false
	}
	return *c.status, true
}

// Restore replaces the table with previously persisted entries and
// marks the state clean. Entries beyond the capacity are dropped.
func (c *Context) Restore(networks []Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(networks) > c.maxNetworks {
		networks = networks[:c.maxNetworks]
	}
	c.networks = append([]Credential(nil), networks...)
	c.changed = false
}

// IsDirty reports whether the durable state changed since the last
// acknowledged snapshot.
func (c *Context) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Snapshot copies the durable state. The caller passes the returned
// sequence back to MarkClean once the copy has been written out.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Networks: append([]Credential(nil), c.networks...),
		Seq:      c.seq,
	}
}

// MarkClean clears the dirty flag if no mutation happened after the
// snapshot with the given sequence was taken.
func (c *Context) MarkClean(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seq == seq {
		c.changed = false
	}
}

// WaitDirty blocks until the durable state is dirty or ctx is
// cancelled.
func (c *Context) WaitDirty(ctx context.Context) error {
	for {
		if c.IsDirty() {
			return nil
		}
		select {
		case <-c.dirtyCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Context) markDirtyLocked() {
	c.changed = true
	c.seq++
	signal(c.dirtyCh)
}

// signal posts a wakeup without blocking. The channel holds at most
// one pending wakeup; waiters re-check state after waking.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
