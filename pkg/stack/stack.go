package stack

import (
	"context"
	"errors"
	"net"

	"github.com/pion/logging"

	"github.com/oddlama/matter-provision/pkg/netif"
	"github.com/oddlama/matter-provision/pkg/storage"
	"github.com/oddlama/matter-provision/pkg/wifi"
)

// DefaultOperationalPort is the UDP port for operational traffic.
const DefaultOperationalPort = 5540

// DefaultSessionBuffers is the default session buffer pool size.
const DefaultSessionBuffers = 2

// ListenFunc opens the operational listener once the interface has the
// given addresses.
type ListenFunc func(ctx context.Context, addrs netif.Addrs) (Conn, error)

// Config provides the components the stack supervises.
type Config struct {
	// DeviceName is the name advertised during commissioning.
	DeviceName string

	// OnboardingPayload is the payload handed to the out-of-band
	// channel, typically a QR code string.
	OnboardingPayload string

	// Networks is the shared provisioning state. Required.
	Networks *wifi.Context

	// Persistence saves the provisioning state. Required.
	Persistence *storage.PersistenceManager

	// WifiClient connects the station to access points. Required.
	WifiClient wifi.Client

	// Netif reports the operational interface addresses. Required.
	Netif netif.Monitor

	// OOB accepts commissioning connections. Required.
	OOB OOBChannel

	// Responder serves protocol exchanges. Required.
	Responder Responder

	// Transport pumps protocol traffic. Required.
	Transport Transport

	// Advertiser announces the operational service. Required.
	Advertiser Advertiser

	// Listen opens the operational listener.
	// Defaults to UDPListen(DefaultOperationalPort).
	Listen ListenFunc

	// SessionBuffers bounds concurrent sessions.
	// Defaults to DefaultSessionBuffers.
	SessionBuffers int

	LoggerFactory logging.LoggerFactory
}

// Stack supervises the provisioning components. Run drives the device
// through the commissioning phase into the operational phase and
// restarts the failing phase on errors.
type Stack struct {
	deviceName        string
	onboardingPayload string

	networks    *wifi.Context
	persistence *storage.PersistenceManager
	wifiManager *wifi.Manager
	netif       netif.Monitor
	oob         OOBChannel
	responder   Responder
	transport   Transport
	advertiser  Advertiser
	listen      ListenFunc

	buffers *BufferPool
	log     logging.LeveledLogger
}

// New creates a Stack from config.
func New(config Config) (*Stack, error) {
	switch {
	case config.Networks == nil:
		return nil, errors.New("stack: config requires Networks")
	case config.Persistence == nil:
		return nil, errors.New("stack: config requires Persistence")
	case config.WifiClient == nil:
		return nil, errors.New("stack: config requires WifiClient")
	case config.Netif == nil:
		return nil, errors.New("stack: config requires Netif")
	case config.OOB == nil:
		return nil, errors.New("stack: config requires OOB")
	case config.Responder == nil:
		return nil, errors.New("stack: config requires Responder")
	case config.Transport == nil:
		return nil, errors.New("stack: config requires Transport")
	case config.Advertiser == nil:
		return nil, errors.New("stack: config requires Advertiser")
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	manager, err := wifi.NewManager(wifi.ManagerConfig{
		Context:       config.Networks,
		Client:        config.WifiClient,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return nil, err
	}

	listen := config.Listen
	if listen == nil {
		listen = UDPListen(DefaultOperationalPort)
	}
	buffers := config.SessionBuffers
	if buffers <= 0 {
		buffers = DefaultSessionBuffers
	}

	return &Stack{
		deviceName:        config.DeviceName,
		onboardingPayload: config.OnboardingPayload,
		networks:          config.Networks,
		persistence:       config.Persistence,
		wifiManager:       manager,
		netif:             config.Netif,
		oob:               config.OOB,
		responder:         config.Responder,
		transport:         config.Transport,
		advertiser:        config.Advertiser,
		listen:            listen,
		buffers:           NewBufferPool(buffers),
		log:               loggerFactory.NewLogger("stack"),
	}, nil
}

// Run restores the persisted state and supervises the device until
// ctx is cancelled. Phase errors are contained: a failed commissioning
// attempt re-advertises, a failed operational phase restarts it.
func (s *Stack) Run(ctx context.Context) error {
	if err := s.persistence.Load(); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !s.networks.IsProvisioned() {
			err := s.commission(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				s.log.Warnf("commissioning attempt failed: %v", err)
				continue
			}
		}

		s.requestReconnect()

		err := s.operate(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.log.Warnf("operational phase ended: %v", err)
		}
	}
}

// requestReconnect asks the network manager to join the first stored
// network when nothing else already drives a connection. This is how
// a restored device rejoins its network after a restart.
func (s *Stack) requestReconnect() {
	if s.networks.ConnectRequested() {
		return
	}
	if _, attempted := s.networks.Status(); attempted {
		return
	}
	networks := s.networks.Networks()
	if len(networks) == 0 {
		return
	}
	s.log.Infof("reconnecting to stored network %q", networks[0].SSID)
	s.networks.RequestConnect(networks[0].SSID)
}

// commission advertises over the out-of-band channel and serves one
// commissioning session. A direct connect request ends the phase early
// so the device can switch to the operational network.
func (s *Stack) commission(ctx context.Context) error {
	s.log.Infof("starting commissioning as %q", s.deviceName)

	return Race(ctx,
		s.commissionSession,
		s.networks.WaitConnectRequested,
	)
}

func (s *Stack) commissionSession(ctx context.Context) error {
	conn, err := s.oob.AdvertiseAndAccept(ctx, s.deviceName, s.onboardingPayload)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Infof("commissioner connected")
	return s.serveSession(ctx, conn)
}

// operate runs the network manager alongside the operational service.
func (s *Stack) operate(ctx context.Context) error {
	s.log.Infof("entering operational phase")

	return Race(ctx,
		s.wifiManager.Run,
		s.runWithNetif,
	)
}

// runWithNetif serves the operational service while the interface is
// usable and starts over whenever its addresses change.
func (s *Stack) runWithNetif(ctx context.Context) error {
	for {
		addrs, err := netif.WaitReady(ctx, s.netif)
		if err != nil {
			return err
		}
		s.log.Infof("interface ready: %s / %s", addrs.IPv4, addrs.IPv6)

		err = Race(ctx,
			func(ctx context.Context) error { return s.runOnce(ctx, addrs) },
			func(ctx context.Context) error { return s.advertiser.Advertise(ctx, addrs) },
			func(ctx context.Context) error { return s.waitAddrsChanged(ctx, addrs) },
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.log.Warnf("operational service interrupted: %v", err)
		}
	}
}

// runOnce serves one operational session over a fresh listener.
func (s *Stack) runOnce(ctx context.Context, addrs netif.Addrs) error {
	conn, err := s.listen(ctx, addrs)
	if err != nil {
		return err
	}
	defer conn.Close()

	return s.serveSession(ctx, conn)
}

// serveSession runs the protocol engine and the persistence loop over
// conn until one of them settles.
func (s *Stack) serveSession(ctx context.Context, conn Conn) error {
	buf, err := s.buffers.Get(ctx)
	if err != nil {
		return err
	}
	defer s.buffers.Put(buf)

	return Race(ctx,
		s.persistence.Run,
		func(ctx context.Context) error { return s.responder.Run(ctx, conn, buf) },
		func(ctx context.Context) error { return s.transport.Run(ctx, conn, buf) },
	)
}

// waitAddrsChanged returns once the interface addresses differ from
// prev.
func (s *Stack) waitAddrsChanged(ctx context.Context, prev netif.Addrs) error {
	for {
		if err := s.netif.WaitChanged(ctx); err != nil {
			return err
		}
		addrs, err := s.netif.Addrs()
		if err != nil {
			return err
		}
		if addrs != prev {
			s.log.Infof("interface addresses changed")
			return nil
		}
	}
}

// UDPListen returns a ListenFunc that binds a UDP socket on the
// interface IPv4 address.
func UDPListen(port int) ListenFunc {
	return func(_ context.Context, addrs netif.Addrs) (Conn, error) {
		pc, err := net.ListenUDP("udp", &net.UDPAddr{
			IP:   addrs.IPv4.AsSlice(),
			Port: port,
		})
		if err != nil {
			return nil, err
		}
		return NewPacketConn(pc), nil
	}
}
