// provisiond runs the network provisioning service for a Matter device.
//
// The device starts unprovisioned, advertises an onboarding payload and
// waits for a commissioner on the out-of-band bearer. Once provisioned
// it joins the configured WiFi network, publishes the operational mDNS
// service and persists its network table across restarts.
//
// Usage:
//
//	provisiond -config /etc/provisiond.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pion/logging"

	"github.com/oddlama/matter-provision/internal/config"
	"github.com/oddlama/matter-provision/pkg/discovery"
	"github.com/oddlama/matter-provision/pkg/netif"
	"github.com/oddlama/matter-provision/pkg/stack"
	"github.com/oddlama/matter-provision/pkg/storage"
	"github.com/oddlama/matter-provision/pkg/wifi"
)

func main() {
	configPath := flag.String("config", "provisiond.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	if err := run(cfg); err != nil && err != context.Canceled {
		log.Fatalf("provisiond: %v", err)
	}
}

func run(cfg *config.Config) error {
	loggerFactory := newLoggerFactory(cfg.Log.Level)
	logger := loggerFactory.NewLogger("provisiond")

	var store storage.Storage
	if cfg.Storage.Dir != "" {
		fileStore, err := storage.NewFileStorage(cfg.Storage.Dir)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		store = fileStore
	} else {
		logger.Warnf("no storage.dir configured, provisioning state will not survive restarts")
		store = storage.NewMemStorage()
	}

	networks := wifi.NewContext(cfg.Network.MaxNetworks)

	persistence, err := storage.NewPersistenceManager(storage.PersistenceManagerConfig{
		Networks:      networks,
		Storage:       store,
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return err
	}

	monitor, err := netif.NewLinkMonitor(cfg.Network.Interface)
	if err != nil {
		return fmt.Errorf("watch interface %s: %w", cfg.Network.Interface, err)
	}
	defer monitor.Close()

	advertiser, err := discovery.NewAdvertiser(discovery.AdvertiserConfig{
		Port: cfg.Operational.Port,
		TXT: discovery.OperationalTXT{
			SessionIdleInterval:   time.Duration(cfg.Operational.IdleIntervalMs) * time.Millisecond,
			SessionActiveInterval: time.Duration(cfg.Operational.ActiveIntervalMs) * time.Millisecond,
		},
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return err
	}

	// Apply the pre-provisioned credential from the configuration
	// unless a stored network table already exists.
	if cfg.Network.SSID != "" {
		if err := persistence.Load(); err != nil {
			return err
		}
		if !networks.IsProvisioned() {
			if _, _, err := networks.AddOrUpdate(cfg.Network.SSID, cfg.Network.Password); err != nil {
				return fmt.Errorf("provision %s: %w", cfg.Network.SSID, err)
			}
			logger.Infof("provisioned %q from configuration", cfg.Network.SSID)
		}
	}

	_, portStr, err := net.SplitHostPort(cfg.Commissioning.Listen)
	if err != nil {
		return fmt.Errorf("parse commissioning listen address: %w", err)
	}
	commissioningPort, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("parse commissioning listen address: %w", err)
	}
	commissionable, err := discovery.NewCommissionableAdvertiser(discovery.CommissionableAdvertiserConfig{
		Port: commissioningPort,
		TXT: discovery.CommissionableTXT{
			Discriminator:         cfg.Device.Discriminator,
			CommissioningMode:     discovery.CommissioningModeBasic,
			VendorID:              cfg.Device.VendorID,
			ProductID:             cfg.Device.ProductID,
			DeviceName:            cfg.Device.Name,
			SessionIdleInterval:   time.Duration(cfg.Operational.IdleIntervalMs) * time.Millisecond,
			SessionActiveInterval: time.Duration(cfg.Operational.ActiveIntervalMs) * time.Millisecond,
		},
		LoggerFactory: loggerFactory,
	})
	if err != nil {
		return err
	}

	onboarding := cfg.Onboarding()
	qrCode, err := onboarding.QRCode()
	if err != nil {
		return err
	}
	manualCode, err := onboarding.ManualCode()
	if err != nil {
		return err
	}
	printOnboardingInfo(cfg, qrCode, manualCode)

	s, err := stack.New(stack.Config{
		DeviceName:        cfg.Device.Name,
		OnboardingPayload: qrCode,
		Networks:          networks,
		Persistence:       persistence,
		WifiClient:        &loggingWifiClient{log: loggerFactory.NewLogger("wifi")},
		Netif:             monitor,
		OOB: &tcpOOB{
			addr:           cfg.Commissioning.Listen,
			commissionable: commissionable,
			log:            loggerFactory.NewLogger("oob"),
		},
		Responder:      idleResponder{},
		Transport:      &echoTransport{log: loggerFactory.NewLogger("transport")},
		Advertiser:     advertiser,
		Listen:         stack.UDPListen(cfg.Operational.Port),
		SessionBuffers: cfg.Operational.SessionBuffers,
		LoggerFactory:  loggerFactory,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = s.Run(ctx)
	if ctx.Err() != nil {
		logger.Infof("shutting down")
		return nil
	}
	return err
}

func newLoggerFactory(level string) *logging.DefaultLoggerFactory {
	factory := logging.NewDefaultLoggerFactory()
	switch level {
	case "error":
		factory.DefaultLogLevel = logging.LogLevelError
	case "warn":
		factory.DefaultLogLevel = logging.LogLevelWarn
	case "info":
		factory.DefaultLogLevel = logging.LogLevelInfo
	case "debug":
		factory.DefaultLogLevel = logging.LogLevelDebug
	case "trace":
		factory.DefaultLogLevel = logging.LogLevelTrace
	}
	return factory
}

func printOnboardingInfo(cfg *config.Config, qrCode, manualCode string) {
	fmt.Println("========================================")
	fmt.Println("       Device Ready for Setup")
	fmt.Println("========================================")
	fmt.Printf("Device Name:    %s\n", cfg.Device.Name)
	fmt.Printf("Interface:      %s\n", cfg.Network.Interface)
	fmt.Printf("Discriminator:  %d\n", cfg.Device.Discriminator)
	fmt.Printf("Passcode:       %d\n", cfg.Device.Passcode)
	fmt.Println("----------------------------------------")
	fmt.Printf("QR Code:        %s\n", qrCode)
	fmt.Printf("Manual Code:    %s\n", manualCode)
	fmt.Println("========================================")
}
