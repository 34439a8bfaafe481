package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testCommissionableTXT() CommissionableTXT {
	return CommissionableTXT{
		Discriminator:     3840,
		CommissioningMode: CommissioningModeBasic,
		VendorID:          65521,
		ProductID:         32768,
		DeviceName:        "test-device",
	}
}

func TestCommissionableTXTEncode(t *testing.T) {
	txt := testCommissionableTXT()
	txt.SessionIdleInterval = 500 * time.Millisecond

	records := txt.Encode()
	want := []string{"D=3840", "CM=1", "VP=65521+32768", "DN=test-device", "SII=500"}
	if len(records) != len(want) {
		t.Fatalf("records: got %v, want %v", records, want)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d: got %q, want %q", i, records[i], want[i])
		}
	}
}

func TestCommissionableTXTTruncatesDeviceName(t *testing.T) {
	txt := CommissionableTXT{
		Discriminator: 1,
		DeviceName:    strings.Repeat("x", 40),
	}
	for _, record := range txt.Encode() {
		if strings.HasPrefix(record, "DN=") && len(record) != len("DN=")+MaxDeviceNameLength {
			t.Fatalf("DN record not truncated: %q", record)
		}
	}
}

func TestCommissionableSubtypes(t *testing.T) {
	txt := testCommissionableTXT()
	got := txt.subtypes()
	want := []string{"_S15", "_L3840", "_CM", "_V65521"}
	if len(got) != len(want) {
		t.Fatalf("subtypes: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("subtype %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCommissionableAdvertise(t *testing.T) {
	factory := &mockServerFactory{}
	a, err := NewCommissionableAdvertiser(CommissionableAdvertiserConfig{
		Port:          5541,
		TXT:           testCommissionableTXT(),
		ServerFactory: factory,
	})
	if err != nil {
		t.Fatalf("NewCommissionableAdvertiser: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Advertise(ctx) }()

	var regs []registration
	deadline := time.Now().Add(time.Second)
	for len(regs) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for registration")
		}
		time.Sleep(5 * time.Millisecond)
		regs = factory.registered()
	}

	reg := regs[0]
	if !strings.HasPrefix(reg.service, ServiceCommissionable+",") {
		t.Fatalf("service: got %q", reg.service)
	}
	if !strings.Contains(reg.service, "_L3840") {
		t.Fatalf("service missing discriminator subtype: %q", reg.service)
	}
	if reg.port != 5541 {
		t.Fatalf("port: got %d", reg.port)
	}
	if len(reg.instance) != 16 {
		t.Fatalf("instance name: got %q", reg.instance)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Advertise: got %v", err)
	}
	if !factory.servers[0].isShutdown() {
		t.Fatal("server not shut down")
	}
}

func TestCommissionableAdvertiserRejectsBadPort(t *testing.T) {
	if _, err := NewCommissionableAdvertiser(CommissionableAdvertiserConfig{Port: 0}); err == nil {
		t.Fatal("expected error for missing port")
	}
}
