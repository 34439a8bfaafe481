package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/pion/logging"
)

// TXT record keys for commissionable discovery.
const (
	// TXTKeyDiscriminator is the 12-bit discriminator key (D).
	TXTKeyDiscriminator = "D"

	// TXTKeyCommissioningMode is the commissioning mode key (CM).
	TXTKeyCommissioningMode = "CM"

	// TXTKeyVendorProduct is the vendor+product key (VP).
	TXTKeyVendorProduct = "VP"

	// TXTKeyDeviceName is the device name key (DN).
	TXTKeyDeviceName = "DN"
)

// MaxDeviceNameLength bounds the DN record.
const MaxDeviceNameLength = 32

// CommissioningMode indicates whether a commissioning window is open.
type CommissioningMode uint8

const (
	CommissioningModeDisabled CommissioningMode = 0
	CommissioningModeBasic    CommissioningMode = 1
	CommissioningModeEnhanced CommissioningMode = 2
)

// CommissionableTXT holds TXT records for the commissionable service.
type CommissionableTXT struct {
	// Discriminator is the 12-bit discriminator. Required.
	Discriminator uint16

	// CommissioningMode indicates the open commissioning window.
	CommissioningMode CommissioningMode

	// VendorID and ProductID fill the VP record when either is set.
	VendorID  uint16
	ProductID uint16

	// DeviceName is truncated to MaxDeviceNameLength. Optional.
	DeviceName string

	// SessionIdleInterval and SessionActiveInterval mirror the
	// operational SII/SAI records. Zero omits them.
	SessionIdleInterval   time.Duration
	SessionActiveInterval time.Duration
}

// ShortDiscriminator returns the upper 4 bits of the discriminator.
func (c *CommissionableTXT) ShortDiscriminator() uint8 {
	return uint8(c.Discriminator >> 8)
}

// Encode converts the TXT record to DNS-SD format strings.
func (c *CommissionableTXT) Encode() []string {
	records := []string{
		fmt.Sprintf("%s=%d", TXTKeyDiscriminator, c.Discriminator),
		fmt.Sprintf("%s=%d", TXTKeyCommissioningMode, c.CommissioningMode),
	}

	if c.VendorID != 0 || c.ProductID != 0 {
		records = append(records, fmt.Sprintf("%s=%d+%d", TXTKeyVendorProduct, c.VendorID, c.ProductID))
	}
	if c.DeviceName != "" {
		name := c.DeviceName
		if len(name) > MaxDeviceNameLength {
			name = name[:MaxDeviceNameLength]
		}
		records = append(records, TXTKeyDeviceName+"="+name)
	}
	if c.SessionIdleInterval > 0 {
		records = append(records, fmt.Sprintf("%s=%d", TXTKeyIdleInterval, c.SessionIdleInterval.Milliseconds()))
	}
	if c.SessionActiveInterval > 0 {
		records = append(records, fmt.Sprintf("%s=%d", TXTKeyActiveInterval, c.SessionActiveInterval.Milliseconds()))
	}

	return records
}

// subtypes returns the DNS-SD subtypes commissioners filter on:
// _S<short> and _L<long> for the discriminator, _CM while a window is
// open, _V<vid> when a vendor ID is set.
func (c *CommissionableTXT) subtypes() []string {
	subtypes := []string{
		fmt.Sprintf("_S%d", c.ShortDiscriminator()),
		fmt.Sprintf("_L%d", c.Discriminator),
	}
	if c.CommissioningMode > CommissioningModeDisabled {
		subtypes = append(subtypes, "_CM")
	}
	if c.VendorID != 0 {
		subtypes = append(subtypes, fmt.Sprintf("_V%d", c.VendorID))
	}
	return subtypes
}

// CommissionableAdvertiserConfig holds configuration for the
// CommissionableAdvertiser.
type CommissionableAdvertiserConfig struct {
	// Port is the port commissioners connect to. Required.
	Port int

	// TXT holds the commissionable TXT records.
	TXT CommissionableTXT

	// ServerFactory is the factory for creating mDNS servers.
	// If nil, the default zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// CommissionableAdvertiser publishes the commissionable DNS-SD service
// while a commissioning window is open. The device is not on its
// operational network yet, so registration covers all interfaces.
type CommissionableAdvertiser struct {
	config  CommissionableAdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger
}

// NewCommissionableAdvertiser creates a CommissionableAdvertiser.
func NewCommissionableAdvertiser(config CommissionableAdvertiserConfig) (*CommissionableAdvertiser, error) {
	if config.Port <= 0 || config.Port > 65535 {
		return nil, fmt.Errorf("discovery: invalid commissioning port %d", config.Port)
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = &zeroconfServerFactory{}
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	return &CommissionableAdvertiser{
		config:  config,
		factory: factory,
		log:     loggerFactory.NewLogger("discovery"),
	}, nil
}

// Advertise registers the commissionable service and keeps it
// registered until ctx is cancelled.
func (a *CommissionableAdvertiser) Advertise(ctx context.Context) error {
	instanceName, err := generateRandomInstanceName()
	if err != nil {
		return fmt.Errorf("discovery: generate instance name: %w", err)
	}

	// Subtypes ride the service string; zeroconf splits on commas and
	// creates the _sub PTR records.
	service := ServiceCommissionable
	for _, st := range a.config.TXT.subtypes() {
		service += "," + st
	}

	a.log.Debugf("registering mDNS service: instance=%s service=%s port=%d",
		instanceName, service, a.config.Port)

	server, err := a.factory.Register(
		instanceName,
		service,
		DefaultDomain,
		a.config.Port,
		a.config.TXT.Encode(),
		nil,
	)
	if err != nil {
		return fmt.Errorf("discovery: mDNS registration failed: %w", err)
	}
	defer server.Shutdown()

	a.log.Infof("advertising %s as %s", ServiceCommissionable, instanceName)

	<-ctx.Done()
	return ctx.Err()
}
