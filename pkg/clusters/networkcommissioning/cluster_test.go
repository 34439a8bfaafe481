package networkcommissioning

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oddlama/matter-provision/pkg/datamodel"
	"github.com/oddlama/matter-provision/pkg/tlv"
	"github.com/oddlama/matter-provision/pkg/wifi"
)

func createTestCluster(maxNetworks int) (*Cluster, *wifi.Context) {
	networks := wifi.NewContext(maxNetworks)
	c := New(Config{
		EndpointID: 0,
		Networks:   networks,
	})
	return c, networks
}

func invoke(t *testing.T, c *Cluster, cmd datamodel.CommandID, payload []byte) ([]byte, error) {
	t.Helper()
	req := datamodel.InvokeRequest{
		Path: datamodel.ConcreteCommandPath{
			Endpoint: 0,
			Cluster:  ClusterID,
			Command:  cmd,
		},
	}
	return c.InvokeCommand(context.Background(), req, tlv.NewReader(bytes.NewReader(payload)))
}

func readAttr(t *testing.T, c *Cluster, attr datamodel.AttributeID) *tlv.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	req := datamodel.ReadAttributeRequest{
		Path: datamodel.ConcreteAttributePath{
			Endpoint:  0,
			Cluster:   ClusterID,
			Attribute: attr,
		},
	}
	if err := c.ReadAttribute(context.Background(), req, w); err != nil {
		t.Fatalf("read attribute 0x%04X: %v", attr, err)
	}
	r := tlv.NewReader(bytes.NewReader(buf.Bytes()))
	if err := r.Next(); err != nil {
		t.Fatalf("decode attribute 0x%04X: %v", attr, err)
	}
	return r
}

func encodeAddRequest(t *testing.T, ssid, credentials string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		t.Fatal(err)
	}
	if err := w.PutBytes(tlv.ContextTag(0), []byte(ssid)); err != nil {
		t.Fatal(err)
	}
	if err := w.PutBytes(tlv.ContextTag(1), []byte(credentials)); err != nil {
		t.Fatal(err)
	}
	if err := w.PutUint(tlv.ContextTag(2), 1); err != nil {
		t.Fatal(err)
	}
	if err := w.EndContainer(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeNetworkIDRequest(t *testing.T, ssid string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		t.Fatal(err)
	}
	if err := w.PutBytes(tlv.ContextTag(0), []byte(ssid)); err != nil {
		t.Fatal(err)
	}
	if err := w.PutUint(tlv.ContextTag(1), 1); err != nil {
		t.Fatal(err)
	}
	if err := w.EndContainer(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeReorderRequest(t *testing.T, ssid string, index uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)
	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		t.Fatal(err)
	}
	if err := w.PutBytes(tlv.ContextTag(0), []byte(ssid)); err != nil {
		t.Fatal(err)
	}
	if err := w.PutUint(tlv.ContextTag(1), uint64(index)); err != nil {
		t.Fatal(err)
	}
	if err := w.PutUint(tlv.ContextTag(2), 1); err != nil {
		t.Fatal(err)
	}
	if err := w.EndContainer(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeConfigResponse(t *testing.T, data []byte) NetworkConfigResponse {
	t.Helper()
	var resp NetworkConfigResponse
	r := tlv.NewReader(bytes.NewReader(data))
	if err := r.Next(); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := r.EnterContainer(); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for {
		if err := r.Next(); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if r.IsEndOfContainer() {
			break
		}
		switch r.Tag().TagNumber() {
		case 0:
			val, err := r.Uint()
			if err != nil {
				t.Fatal(err)
			}
			resp.NetworkingStatus = wifi.Status(val)
		case 1:
			val, err := r.String()
			if err != nil {
				t.Fatal(err)
			}
			resp.DebugText = val
		case 2:
			val, err := r.Uint()
			if err != nil {
				t.Fatal(err)
			}
			idx := uint8(val)
			resp.NetworkIndex = &idx
		}
	}
	return resp
}

func TestClusterIdentity(t *testing.T) {
	c, _ := createTestCluster(3)
	if c.ID() != ClusterID {
		t.Errorf("expected cluster ID 0x%04X, got 0x%04X", ClusterID, c.ID())
	}
	if c.FeatureMap() != uint32(FeatureWiFiNetworkInterface) {
		t.Errorf("expected WiFi feature bit, got 0x%X", c.FeatureMap())
	}
}

func TestAddNetworkReportsTableLength(t *testing.T) {
	c, _ := createTestCluster(3)

	out, err := invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	resp := decodeConfigResponse(t, out)
	if resp.NetworkingStatus != wifi.StatusSuccess {
		t.Fatalf("status: got %v", resp.NetworkingStatus)
	}
	if resp.NetworkIndex == nil || *resp.NetworkIndex != 1 {
		t.Fatalf("index: got %v, want 1", resp.NetworkIndex)
	}

	out, err = invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "office", "word"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	resp = decodeConfigResponse(t, out)
	if resp.NetworkIndex == nil || *resp.NetworkIndex != 2 {
		t.Fatalf("index: got %v, want 2", resp.NetworkIndex)
	}
}

func TestUpdateNetworkReportsEntryPosition(t *testing.T) {
	c, _ := createTestCluster(3)

	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret"))
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "office", "word"))

	out, err := invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "rotated"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	resp := decodeConfigResponse(t, out)
	if resp.NetworkingStatus != wifi.StatusSuccess {
		t.Fatalf("status: got %v", resp.NetworkingStatus)
	}
	if resp.NetworkIndex == nil || *resp.NetworkIndex != 0 {
		t.Fatalf("index: got %v, want 0", resp.NetworkIndex)
	}
}

func TestAddNetworkTableFull(t *testing.T) {
	c, _ := createTestCluster(1)

	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret"))

	out, err := invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "office", "word"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	resp := decodeConfigResponse(t, out)
	if resp.NetworkingStatus != wifi.StatusBoundsExceeded {
		t.Fatalf("status: got %v, want BoundsExceeded", resp.NetworkingStatus)
	}
}

func TestAddNetworkConstraintViolations(t *testing.T) {
	c, _ := createTestCluster(3)

	cases := []struct {
		name        string
		ssid        string
		credentials string
	}{
		{"empty ssid", "", "pw"},
		{"long ssid", strings.Repeat("s", wifi.MaxSSIDLen+1), "pw"},
		{"long credentials", "net", strings.Repeat("p", wifi.MaxPasswordLen+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, tc.ssid, tc.credentials))
			if !errors.Is(err, datamodel.ErrConstraintError) {
				t.Fatalf("got %v, want ErrConstraintError", err)
			}
		})
	}
}

func TestRemoveNetwork(t *testing.T) {
	c, _ := createTestCluster(3)
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret"))

	out, err := invoke(t, c, CmdRemoveNetwork, encodeNetworkIDRequest(t, "home"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	resp := decodeConfigResponse(t, out)
	if resp.NetworkingStatus != wifi.StatusSuccess {
		t.Fatalf("status: got %v", resp.NetworkingStatus)
	}
	if resp.NetworkIndex == nil || *resp.NetworkIndex != 0 {
		t.Fatalf("index: got %v, want 0", resp.NetworkIndex)
	}

	out, err = invoke(t, c, CmdRemoveNetwork, encodeNetworkIDRequest(t, "home"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	resp = decodeConfigResponse(t, out)
	if resp.NetworkingStatus != wifi.StatusNetworkIDNotFound {
		t.Fatalf("status: got %v, want NetworkIDNotFound", resp.NetworkingStatus)
	}
}

func TestReorderNetwork(t *testing.T) {
	c, networks := createTestCluster(3)
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "a", "1"))
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "b", "2"))

	out, err := invoke(t, c, CmdReorderNetwork, encodeReorderRequest(t, "b", 0))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	resp := decodeConfigResponse(t, out)
	if resp.NetworkingStatus != wifi.StatusSuccess {
		t.Fatalf("status: got %v", resp.NetworkingStatus)
	}
	if resp.NetworkIndex == nil || *resp.NetworkIndex != 0 {
		t.Fatalf("index: got %v, want 0", resp.NetworkIndex)
	}
	if got := networks.Networks()[0].SSID; got != "b" {
		t.Fatalf("first network: got %q, want b", got)
	}

	out, _ = invoke(t, c, CmdReorderNetwork, encodeReorderRequest(t, "ghost", 0))
	if resp := decodeConfigResponse(t, out); resp.NetworkingStatus != wifi.StatusNetworkIDNotFound {
		t.Fatalf("status: got %v, want NetworkIDNotFound", resp.NetworkingStatus)
	}

	out, _ = invoke(t, c, CmdReorderNetwork, encodeReorderRequest(t, "a", 5))
	resp = decodeConfigResponse(t, out)
	if resp.NetworkingStatus != wifi.StatusOutOfRange {
		t.Fatalf("status: got %v, want OutOfRange", resp.NetworkingStatus)
	}
	if resp.NetworkIndex == nil || *resp.NetworkIndex != 5 {
		t.Fatalf("index: got %v, want 5", resp.NetworkIndex)
	}
}

func TestConnectNetworkUnknownRecordsRequest(t *testing.T) {
	c, networks := createTestCluster(3)

	// The handler posts the request and suspends even when the ssid is
	// not in the table; the network manager reports NetworkIDNotFound
	// when it later picks the request up.
	ctx, cancel := context.WithCancel(context.Background())
	req := datamodel.InvokeRequest{
		Path: datamodel.ConcreteCommandPath{Cluster: ClusterID, Command: CmdConnectNetwork},
	}

	done := make(chan error, 1)
	go func() {
		payload := encodeNetworkIDRequest(t, "ghost")
		_, err := c.InvokeCommand(ctx, req, tlv.NewReader(bytes.NewReader(payload)))
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !networks.ConnectRequested() {
		if time.Now().After(deadline) {
			t.Fatal("connect request never posted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case err := <-done:
		t.Fatalf("handler returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("handler: got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not observe cancellation")
	}

	ssid, ok := networks.TakeConnectRequest()
	if !ok || ssid != "ghost" {
		t.Fatalf("pending request: got (%q, %v)", ssid, ok)
	}
}

func TestConnectNetworkBlocksUntilCancelled(t *testing.T) {
	c, networks := createTestCluster(3)
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret"))

	ctx, cancel := context.WithCancel(context.Background())
	req := datamodel.InvokeRequest{
		Path: datamodel.ConcreteCommandPath{Cluster: ClusterID, Command: CmdConnectNetwork},
	}

	done := make(chan error, 1)
	go func() {
		payload := encodeNetworkIDRequest(t, "home")
		_, err := c.InvokeCommand(ctx, req, tlv.NewReader(bytes.NewReader(payload)))
		done <- err
	}()

	// The request must be posted before the handler suspends.
	deadline := time.Now().Add(2 * time.Second)
	for !networks.ConnectRequested() {
		if time.Now().After(deadline) {
			t.Fatal("connect request never posted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case err := <-done:
		t.Fatalf("handler returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("handler: got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not observe cancellation")
	}

	ssid, ok := networks.TakeConnectRequest()
	if !ok || ssid != "home" {
		t.Fatalf("pending request: got (%q, %v)", ssid, ok)
	}
}

func TestScanNetworksBusy(t *testing.T) {
	c, _ := createTestCluster(3)

	_, err := invoke(t, c, CmdScanNetworks, nil)
	if !errors.Is(err, datamodel.ErrBusy) {
		t.Fatalf("got %v, want ErrBusy", err)
	}
}

func TestReadAttributes(t *testing.T) {
	c, networks := createTestCluster(3)

	r := readAttr(t, c, AttrMaxNetworks)
	if val, err := r.Uint(); err != nil || val != 3 {
		t.Fatalf("MaxNetworks: got (%d, %v)", val, err)
	}

	r = readAttr(t, c, AttrScanMaxTimeSeconds)
	if val, err := r.Uint(); err != nil || val != uint64(ScanMaxTimeSeconds) {
		t.Fatalf("ScanMaxTimeSeconds: got (%d, %v)", val, err)
	}

	r = readAttr(t, c, AttrConnectMaxTimeSeconds)
	if val, err := r.Uint(); err != nil || val != uint64(ConnectMaxTimeSeconds) {
		t.Fatalf("ConnectMaxTimeSeconds: got (%d, %v)", val, err)
	}

	r = readAttr(t, c, AttrInterfaceEnabled)
	if val, err := r.Bool(); err != nil || !val {
		t.Fatalf("InterfaceEnabled: got (%v, %v)", val, err)
	}

	// No connection attempt yet: the status attributes are null.
	r = readAttr(t, c, AttrLastNetworkingStatus)
	if err := r.Null(); err != nil {
		t.Fatalf("LastNetworkingStatus: %v", err)
	}
	r = readAttr(t, c, AttrLastNetworkID)
	if err := r.Null(); err != nil {
		t.Fatalf("LastNetworkID: %v", err)
	}
	r = readAttr(t, c, AttrLastConnectErrorValue)
	if err := r.Null(); err != nil {
		t.Fatalf("LastConnectErrorValue: %v", err)
	}

	networks.SetStatus(wifi.ConnectionStatus{
		SSID:   "home",
		Status: wifi.StatusAuthFailure,
		Value:  13,
	})

	r = readAttr(t, c, AttrLastNetworkingStatus)
	if val, err := r.Uint(); err != nil || wifi.Status(val) != wifi.StatusAuthFailure {
		t.Fatalf("LastNetworkingStatus: got (%d, %v)", val, err)
	}
	r = readAttr(t, c, AttrLastNetworkID)
	if val, err := r.Bytes(); err != nil || string(val) != "home" {
		t.Fatalf("LastNetworkID: got (%q, %v)", val, err)
	}
	r = readAttr(t, c, AttrLastConnectErrorValue)
	if val, err := r.Int(); err != nil || val != 13 {
		t.Fatalf("LastConnectErrorValue: got (%d, %v)", val, err)
	}
}

func TestReadNetworksAttribute(t *testing.T) {
	c, networks := createTestCluster(3)
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret"))
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "office", "word"))
	networks.SetStatus(wifi.ConnectionStatus{SSID: "office", Status: wifi.StatusSuccess})

	r := readAttr(t, c, AttrNetworks)
	if r.Type() != tlv.ElementTypeArray {
		t.Fatalf("Networks: got type %v, want array", r.Type())
	}
	if err := r.EnterContainer(); err != nil {
		t.Fatal(err)
	}

	type entry struct {
		ssid      string
		connected bool
	}
	var got []entry
	for {
		if err := r.Next(); err != nil {
			t.Fatal(err)
		}
		if r.IsEndOfContainer() {
			break
		}
		if err := r.EnterContainer(); err != nil {
			t.Fatal(err)
		}
		var e entry
		for {
			if err := r.Next(); err != nil {
				t.Fatal(err)
			}
			if r.IsEndOfContainer() {
				break
			}
			switch r.Tag().TagNumber() {
			case 0:
				val, err := r.Bytes()
				if err != nil {
					t.Fatal(err)
				}
				e.ssid = string(val)
			case 1:
				val, err := r.Bool()
				if err != nil {
					t.Fatal(err)
				}
				e.connected = val
			}
		}
		if err := r.ExitContainer(); err != nil {
			t.Fatal(err)
		}
		got = append(got, e)
	}

	want := []entry{{"home", false}, {"office", true}}
	if len(got) != len(want) {
		t.Fatalf("entries: got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDataVersionChangesOnMutation(t *testing.T) {
	c, _ := createTestCluster(3)

	before := c.DataVersion()
	invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret"))
	if c.DataVersion() == before {
		t.Fatal("data version must change after a table mutation")
	}

	// A rejected command leaves no state behind and must not bump.
	before = c.DataVersion()
	invoke(t, c, CmdRemoveNetwork, encodeNetworkIDRequest(t, "ghost"))
	if c.DataVersion() != before {
		t.Fatal("data version must not change on a rejected command")
	}
}

func TestNetworksChangedCallback(t *testing.T) {
	networks := wifi.NewContext(3)
	var notified []datamodel.EndpointID
	c := New(Config{
		EndpointID: 0,
		Networks:   networks,
		OnNetworksChanged: func(endpoint datamodel.EndpointID) {
			notified = append(notified, endpoint)
		},
	})

	if _, err := invoke(t, c, CmdAddOrUpdateWiFiNetwork, encodeAddRequest(t, "home", "secret")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(notified) != 1 {
		t.Fatalf("notifications after add: %d", len(notified))
	}

	// A failed command must not notify.
	if _, err := invoke(t, c, CmdRemoveNetwork, encodeNetworkIDRequest(t, "absent")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(notified) != 1 {
		t.Fatalf("notifications after failed remove: %d", len(notified))
	}

	if _, err := invoke(t, c, CmdRemoveNetwork, encodeNetworkIDRequest(t, "home")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(notified) != 2 {
		t.Fatalf("notifications after remove: %d", len(notified))
	}
}

func TestWriteAttributeUnsupported(t *testing.T) {
	c, _ := createTestCluster(3)

	req := datamodel.WriteAttributeRequest{
		Path: datamodel.ConcreteAttributePath{Cluster: ClusterID, Attribute: AttrInterfaceEnabled},
	}
	err := c.WriteAttribute(context.Background(), req, tlv.NewReader(bytes.NewReader(nil)))
	if !errors.Is(err, datamodel.ErrUnsupportedWrite) {
		t.Fatalf("got %v, want ErrUnsupportedWrite", err)
	}
}
