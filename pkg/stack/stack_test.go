package stack

import (
	"context"
	"errors"
	"net/netip"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oddlama/matter-provision/pkg/netif"
	"github.com/oddlama/matter-provision/pkg/storage"
	"github.com/oddlama/matter-provision/pkg/wifi"
)

type idleEngine struct{}

func (idleEngine) Run(ctx context.Context, conn Conn, buf []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

// commissioningResponder simulates a commissioner provisioning the
// device on its first session.
type commissioningResponder struct {
	networks *wifi.Context
	once     sync.Once
}

func (r *commissioningResponder) Run(ctx context.Context, conn Conn, buf []byte) error {
	r.once.Do(func() {
		r.networks.AddOrUpdate("home", "secret")
		r.networks.RequestConnect("home")
	})
	<-ctx.Done()
	return ctx.Err()
}

// mockOOB hands out pipe connections and counts accepts. Optional
// errs are returned first, one per accept.
type mockOOB struct {
	mu      sync.Mutex
	errs    []error
	accepts int
}

func (o *mockOOB) AdvertiseAndAccept(ctx context.Context, deviceName, payload string) (Conn, error) {
	o.mu.Lock()
	o.accepts++
	var err error
	if len(o.errs) > 0 {
		err = o.errs[0]
		o.errs = o.errs[1:]
	}
	o.mu.Unlock()

	if err != nil {
		return nil, err
	}
	local, _ := Pipe()
	return local, nil
}

func (o *mockOOB) acceptCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.accepts
}

type mockAdvertiser struct {
	mu    sync.Mutex
	addrs []netif.Addrs
}

func (a *mockAdvertiser) Advertise(ctx context.Context, addrs netif.Addrs) error {
	a.mu.Lock()
	a.addrs = append(a.addrs, addrs)
	a.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (a *mockAdvertiser) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.addrs)
}

func (a *mockAdvertiser) last() netif.Addrs {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addrs[len(a.addrs)-1]
}

type nopWifiClient struct {
	connects atomic.Int32
}

func (c *nopWifiClient) Connect(ctx context.Context, ssid, password string) error {
	c.connects.Add(1)
	return nil
}

func readyAddrs() netif.Addrs {
	return netif.Addrs{
		IPv4: netip.MustParseAddr("192.168.1.10"),
		IPv6: netip.MustParseAddr("fe80::1"),
	}
}

func pipeListen() ListenFunc {
	return func(ctx context.Context, addrs netif.Addrs) (Conn, error) {
		local, _ := Pipe()
		return local, nil
	}
}

type testStack struct {
	stack      *Stack
	networks   *wifi.Context
	monitor    *netif.StaticMonitor
	oob        *mockOOB
	advertiser *mockAdvertiser
	client     *nopWifiClient
}

func newTestStack(t *testing.T, responder Responder, oob *mockOOB) *testStack {
	t.Helper()

	networks := wifi.NewContext(3)
	persistence, err := storage.NewPersistenceManager(storage.PersistenceManagerConfig{
		Networks: networks,
		Storage:  storage.NewMemStorage(),
	})
	if err != nil {
		t.Fatalf("NewPersistenceManager: %v", err)
	}

	monitor := netif.NewStaticMonitor(readyAddrs())
	advertiser := &mockAdvertiser{}
	client := &nopWifiClient{}

	s, err := New(Config{
		DeviceName:        "test-device",
		OnboardingPayload: "MT:TEST",
		Networks:          networks,
		Persistence:       persistence,
		WifiClient:        client,
		Netif:             monitor,
		OOB:               oob,
		Responder:         responder,
		Transport:         idleEngine{},
		Advertiser:        advertiser,
		Listen:            pipeListen(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &testStack{
		stack:      s,
		networks:   networks,
		monitor:    monitor,
		oob:        oob,
		advertiser: advertiser,
		client:     client,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timedout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStackCommissionsThenOperates(t *testing.T) {
	responder := &commissioningResponder{}
	ts := newTestStack(t, responder, &mockOOB{})
	responder.networks = ts.networks

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.stack.Run(ctx) }()

	// The simulated commissioner provisions a network and requests a
	// connect; the stack must move to the operational phase, connect
	// and start advertising.
	waitFor(t, "wifi connect", func() bool { return ts.client.connects.Load() > 0 })
	waitFor(t, "advertising", func() bool { return ts.advertiser.count() > 0 })

	if got := ts.advertiser.last(); got != readyAddrs() {
		t.Fatalf("advertised addrs: got %+v", got)
	}
	status, ok := ts.networks.Status()
	if !ok || status.Status != wifi.StatusSuccess {
		t.Fatalf("connection status: got (%+v, %v)", status, ok)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("run: got %v", err)
	}
}

func TestStackRetriesFailedCommissioning(t *testing.T) {
	oob := &mockOOB{errs: []error{errors.New("radio glitch")}}
	responder := &commissioningResponder{}
	ts := newTestStack(t, responder, oob)
	responder.networks = ts.networks

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ts.stack.Run(ctx)

	// The first accept fails; the stack must advertise again instead
	// of giving up.
	waitFor(t, "advertising after retry", func() bool { return ts.advertiser.count() > 0 })
	if oob.acceptCount() < 2 {
		t.Fatalf("accepts: got %d, want at least 2", oob.acceptCount())
	}
}

func TestStackRestartsServiceOnAddressChange(t *testing.T) {
	responder := &commissioningResponder{}
	ts := newTestStack(t, responder, &mockOOB{})
	responder.networks = ts.networks

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ts.stack.Run(ctx)

	waitFor(t, "advertising", func() bool { return ts.advertiser.count() > 0 })

	newAddrs := netif.Addrs{
		IPv4: netip.MustParseAddr("10.0.0.7"),
		IPv6: netip.MustParseAddr("fe80::2"),
	}
	ts.monitor.SetAddrs(newAddrs)

	waitFor(t, "re-advertising", func() bool {
		return ts.advertiser.count() > 1 && ts.advertiser.last() == newAddrs
	})
}

func TestStackReconnectsToStoredNetwork(t *testing.T) {
	ts := newTestStack(t, idleEngine{}, &mockOOB{})
	ts.networks.AddOrUpdate("home", "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ts.stack.Run(ctx)

	// A device that starts provisioned skips commissioning and joins
	// its first stored network on its own.
	waitFor(t, "wifi reconnect", func() bool { return ts.client.connects.Load() > 0 })

	status, ok := ts.networks.Status()
	if !ok || status.SSID != "home" {
		t.Fatalf("connection status: got (%+v, %v)", status, ok)
	}
	if got := ts.oob.acceptCount(); got != 0 {
		t.Fatalf("oob accepts: got %d, want 0", got)
	}
}

func TestStackShutdown(t *testing.T) {
	ts := newTestStack(t, idleEngine{}, &mockOOB{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.stack.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run: got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("stack did not shut down")
	}
}
