package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provisiond.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "device:\n  name: test-device\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.Name != "test-device" {
		t.Fatalf("device.name = %q", cfg.Device.Name)
	}
	if cfg.Device.Passcode != 20202021 {
		t.Fatalf("default passcode = %d", cfg.Device.Passcode)
	}
	if cfg.Network.Interface != "wlan0" {
		t.Fatalf("default interface = %q", cfg.Network.Interface)
	}
	if cfg.Operational.Port != 5540 {
		t.Fatalf("default port = %d", cfg.Operational.Port)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
device:
  name: lab-device
  vendor_id: 4660
  product_id: 22136
  discriminator: 1234
  passcode: 84261001
network:
  interface: wlp2s0
  max_networks: 5
  ssid: lab
  password: hunter22
storage:
  dir: /tmp/provisiond
commissioning:
  listen: ":6541"
operational:
  port: 6540
  session_buffers: 4
log:
  level: debug
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Device.Discriminator != 1234 {
		t.Fatalf("discriminator = %d", cfg.Device.Discriminator)
	}
	if cfg.Network.MaxNetworks != 5 {
		t.Fatalf("max_networks = %d", cfg.Network.MaxNetworks)
	}
	if cfg.Commissioning.Listen != ":6541" {
		t.Fatalf("commissioning.listen = %q", cfg.Commissioning.Listen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "device: [not a mapping\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"long device name", func(c *Config) { c.Device.Name = "0123456789012345678901234567890123" }},
		{"invalid passcode", func(c *Config) { c.Device.Passcode = 11111111 }},
		{"wide discriminator", func(c *Config) { c.Device.Discriminator = 0x1000 }},
		{"negative max networks", func(c *Config) { c.Network.MaxNetworks = -1 }},
		{"password without ssid", func(c *Config) { c.Network.Password = "secret" }},
		{"bad port", func(c *Config) { c.Operational.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestOnboardingPayload(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	p := cfg.Onboarding()
	if p.Discriminator != 3840 || p.Passcode != 20202021 {
		t.Fatalf("onboarding payload = %+v", p)
	}
	if _, err := p.QRCode(); err != nil {
		t.Fatalf("QRCode: %v", err)
	}
}
