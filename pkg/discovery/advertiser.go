package discovery

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"

	"github.com/oddlama/matter-provision/pkg/netif"
)

// MDNSServer is the interface for mDNS service registration.
// This allows for dependency injection in tests.
type MDNSServer interface {
	// Shutdown stops the server.
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	// Register creates a new mDNS server for the given service.
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

// zeroconfServerFactory is the production implementation using
// grandcat/zeroconf.
type zeroconfServerFactory struct{}

func (z *zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig holds configuration for the Advertiser.
type AdvertiserConfig struct {
	// InstanceName is the mDNS instance name.
	// If empty, a random name is generated per advertisement.
	InstanceName string

	// Port is the operational port to advertise (default: 5540).
	Port int

	// TXT holds the operational TXT records.
	TXT OperationalTXT

	// ServerFactory is the factory for creating mDNS servers.
	// If nil, the default zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes the operational DNS-SD service.
type Advertiser struct {
	config  AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu     sync.Mutex
	active bool
}

// NewAdvertiser creates a new Advertiser with the given configuration.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if config.Port <= 0 || config.Port > 65535 {
		config.Port = DefaultPort
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = &zeroconfServerFactory{}
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	return &Advertiser{
		config:  config,
		factory: factory,
		log:     loggerFactory.NewLogger("discovery"),
	}, nil
}

// Advertise registers the operational service on the interfaces that
// carry addrs and keeps it registered until ctx is cancelled.
func (a *Advertiser) Advertise(ctx context.Context, addrs netif.Addrs) error {
	a.mu.Lock()
	if a.active {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.active = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.active = false
		a.mu.Unlock()
	}()

	instanceName := a.config.InstanceName
	if instanceName == "" {
		var err error
		instanceName, err = generateRandomInstanceName()
		if err != nil {
			return fmt.Errorf("discovery: generate instance name: %w", err)
		}
	}

	ifaces := interfacesFor(addrs)
	txtRecords := a.config.TXT.Encode()

	a.log.Debugf("registering mDNS service: instance=%s service=%s port=%d",
		instanceName, ServiceOperational, a.config.Port)

	server, err := a.factory.Register(
		instanceName,
		ServiceOperational,
		DefaultDomain,
		a.config.Port,
		txtRecords,
		ifaces,
	)
	if err != nil {
		return fmt.Errorf("discovery: mDNS registration failed: %w", err)
	}
	defer server.Shutdown()

	a.log.Infof("advertising %s as %s", ServiceOperational, instanceName)

	<-ctx.Done()
	return ctx.Err()
}

// interfacesFor returns the network interfaces carrying any of the
// given addresses. An empty result lets the mDNS server pick.
func interfacesFor(addrs netif.Addrs) []net.Interface {
	all, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []net.Interface
	for _, iface := range all {
		ifaceAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range ifaceAddrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip, ok := netip.AddrFromSlice(ipNet.IP)
			if !ok {
				continue
			}
			ip = ip.Unmap()
			if ip == addrs.IPv4 || ip == addrs.IPv6 {
				out = append(out, iface)
				break
			}
		}
	}
	return out
}

// generateRandomInstanceName generates a random 64-bit instance name.
// Format: 16 uppercase hex characters.
func generateRandomInstanceName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016X", binary.BigEndian.Uint64(buf[:])), nil
}
