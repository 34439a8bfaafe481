// Package config loads and validates the provisiond YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oddlama/matter-provision/pkg/payload"
	"github.com/oddlama/matter-provision/pkg/wifi"
)

type Config struct {
	Device        DeviceConfig        `yaml:"device"`
	Network       NetworkConfig       `yaml:"network"`
	Storage       StorageConfig       `yaml:"storage"`
	Commissioning CommissioningConfig `yaml:"commissioning"`
	Operational   OperationalConfig   `yaml:"operational"`
	Log           LogConfig           `yaml:"log"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Name          string `yaml:"name"`
	VendorID      uint16 `yaml:"vendor_id"`
	ProductID     uint16 `yaml:"product_id"`
	Discriminator uint16 `yaml:"discriminator"`
	Passcode      uint32 `yaml:"passcode"`
}

// ---- NETWORK ----

type NetworkConfig struct {
	Interface   string `yaml:"interface"`
	MaxNetworks int    `yaml:"max_networks"`

	// Optional pre-provisioned credential. When set, provisiond joins
	// this network on startup without waiting for a commissioner.
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// ---- STORAGE ----

type StorageConfig struct {
	// Dir is the persistence directory. Empty selects in-memory
	// storage, which loses provisioning state on restart.
	Dir string `yaml:"dir"`
}

// ---- COMMISSIONING ----

type CommissioningConfig struct {
	// Listen is the TCP address the out-of-band bearer accepts
	// commissioner connections on.
	Listen string `yaml:"listen"`
}

// ---- OPERATIONAL ----

type OperationalConfig struct {
	Port             int `yaml:"port"`
	SessionBuffers   int `yaml:"session_buffers"`
	IdleIntervalMs   int `yaml:"idle_interval_ms"`
	ActiveIntervalMs int `yaml:"active_interval_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills in default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Device.Name == "" {
		c.Device.Name = "matter-provision"
	}
	if c.Device.VendorID == 0 {
		c.Device.VendorID = 0xFFF1
	}
	if c.Device.ProductID == 0 {
		c.Device.ProductID = 0x8000
	}
	if c.Device.Discriminator == 0 {
		c.Device.Discriminator = 3840
	}
	if c.Device.Passcode == 0 {
		c.Device.Passcode = 20202021
	}
	if c.Network.Interface == "" {
		c.Network.Interface = "wlan0"
	}
	if c.Network.MaxNetworks == 0 {
		c.Network.MaxNetworks = wifi.DefaultMaxNetworks
	}
	if c.Commissioning.Listen == "" {
		c.Commissioning.Listen = ":5541"
	}
	if c.Operational.Port == 0 {
		c.Operational.Port = 5540
	}
	if c.Operational.IdleIntervalMs == 0 {
		c.Operational.IdleIntervalMs = 500
	}
	if c.Operational.ActiveIntervalMs == 0 {
		c.Operational.ActiveIntervalMs = 300
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if len(cfg.Device.Name) > 32 {
		return fmt.Errorf("config: device.name exceeds 32 characters")
	}

	onboarding := cfg.Onboarding()
	if err := onboarding.Validate(); err != nil {
		return fmt.Errorf("config: device onboarding fields: %w", err)
	}

	if cfg.Network.MaxNetworks < 1 {
		return fmt.Errorf("config: network.max_networks must be at least 1")
	}
	if len(cfg.Network.SSID) > wifi.MaxSSIDLen {
		return fmt.Errorf("config: network.ssid exceeds %d bytes", wifi.MaxSSIDLen)
	}
	if cfg.Network.SSID == "" && cfg.Network.Password != "" {
		return fmt.Errorf("config: network.password set without network.ssid")
	}

	if cfg.Operational.Port < 1 || cfg.Operational.Port > 65535 {
		return fmt.Errorf("config: operational.port out of range: %d", cfg.Operational.Port)
	}
	if cfg.Operational.SessionBuffers < 0 {
		return fmt.Errorf("config: operational.session_buffers must not be negative")
	}

	switch cfg.Log.Level {
	case "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("config: log.level must be one of [error, warn, info, debug, trace] (got: %s)", cfg.Log.Level)
	}

	return nil
}

// Onboarding builds the setup payload described by the device section.
func (c *Config) Onboarding() *payload.SetupPayload {
	return &payload.SetupPayload{
		VendorID:      c.Device.VendorID,
		ProductID:     c.Device.ProductID,
		Flow:          payload.FlowStandard,
		Capabilities:  payload.DiscoveryOnIP,
		Discriminator: c.Device.Discriminator,
		Passcode:      c.Device.Passcode,
	}
}
