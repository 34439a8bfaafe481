// Package networkcommissioning implements the Network Commissioning
// Cluster (0x0031) for WiFi station devices.
//
// The cluster edits the shared network table and reports connection
// state. It never talks to the radio itself: connect requests are
// posted to the shared wifi.Context and executed by the network
// manager.
package networkcommissioning

import (
	"context"

	"github.com/oddlama/matter-provision/pkg/datamodel"
	"github.com/oddlama/matter-provision/pkg/tlv"
	"github.com/oddlama/matter-provision/pkg/wifi"
)

// Cluster constants.
const (
	ClusterID       datamodel.ClusterID = 0x0031
	ClusterRevision uint16              = 1
)

// Attribute IDs.
const (
	AttrMaxNetworks           datamodel.AttributeID = 0x0000
	AttrNetworks              datamodel.AttributeID = 0x0001
	AttrScanMaxTimeSeconds    datamodel.AttributeID = 0x0002
	AttrConnectMaxTimeSeconds datamodel.AttributeID = 0x0003
	AttrInterfaceEnabled      datamodel.AttributeID = 0x0004
	AttrLastNetworkingStatus  datamodel.AttributeID = 0x0005
	AttrLastNetworkID         datamodel.AttributeID = 0x0006
	AttrLastConnectErrorValue datamodel.AttributeID = 0x0007
)

// Command IDs.
const (
	CmdScanNetworks           datamodel.CommandID = 0x00
	CmdScanNetworksResponse   datamodel.CommandID = 0x01
	CmdAddOrUpdateWiFiNetwork datamodel.CommandID = 0x02
	CmdRemoveNetwork          datamodel.CommandID = 0x04
	CmdNetworkConfigResponse  datamodel.CommandID = 0x05
	CmdConnectNetwork         datamodel.CommandID = 0x06
	CmdConnectNetworkResponse datamodel.CommandID = 0x07
	CmdReorderNetwork         datamodel.CommandID = 0x08
)

// Feature bits.
type Feature uint32

const (
	// FeatureWiFiNetworkInterface indicates a WiFi station interface.
	FeatureWiFiNetworkInterface Feature = 1 << 0 // WI
)

// Advertised command timing bounds.
const (
	ScanMaxTimeSeconds    uint8 = 30
	ConnectMaxTimeSeconds uint8 = 60
)

// NetworksChangedCallback is called after a command changes the
// network table.
type NetworksChangedCallback func(endpoint datamodel.EndpointID)

// Config provides dependencies for the Network Commissioning cluster.
type Config struct {
	// EndpointID is the endpoint this cluster belongs to (should be 0).
	EndpointID datamodel.EndpointID

	// Networks is the shared provisioning state. Required.
	Networks *wifi.Context

	// OnNetworksChanged callback when the table changes (optional).
	OnNetworksChanged NetworksChangedCallback
}

// Cluster implements the Network Commissioning cluster (0x0031) for a
// WiFi station. All mutable state lives in the shared wifi.Context.
type Cluster struct {
	*datamodel.ClusterBase
	networks  *wifi.Context
	onChanged NetworksChangedCallback

	attrList []datamodel.AttributeEntry
}

// New creates a new Network Commissioning cluster.
func New(cfg Config) *Cluster {
	c := &Cluster{
		ClusterBase: datamodel.NewClusterBase(ClusterID, cfg.EndpointID, ClusterRevision),
		networks:    cfg.Networks,
		onChanged:   cfg.OnNetworksChanged,
	}
	c.SetFeatureMap(uint32(FeatureWiFiNetworkInterface))

	c.attrList = c.buildAttributeList()

	return c
}

// markChanged bumps the data version and notifies the subscription
// layer after a command changed the network table.
func (c *Cluster) markChanged() {
	c.IncrementDataVersion()
	if c.onChanged != nil {
		c.onChanged(c.EndpointID())
	}
}

// buildAttributeList constructs the list of supported attributes.
func (c *Cluster) buildAttributeList() []datamodel.AttributeEntry {
	adminPriv := datamodel.PrivilegeAdminister

	attrs := []datamodel.AttributeEntry{
		datamodel.NewReadOnlyAttribute(AttrMaxNetworks, datamodel.AttrQualityFixed, adminPriv),
		datamodel.NewReadOnlyAttribute(AttrNetworks, datamodel.AttrQualityList, adminPriv),
		datamodel.NewReadOnlyAttribute(AttrScanMaxTimeSeconds, datamodel.AttrQualityFixed, adminPriv),
		datamodel.NewReadOnlyAttribute(AttrConnectMaxTimeSeconds, datamodel.AttrQualityFixed, adminPriv),
		datamodel.NewReadOnlyAttribute(AttrInterfaceEnabled, 0, adminPriv),
		datamodel.NewReadOnlyAttribute(AttrLastNetworkingStatus, datamodel.AttrQualityNullable, adminPriv),
		datamodel.NewReadOnlyAttribute(AttrLastNetworkID, datamodel.AttrQualityNullable, adminPriv),
		datamodel.NewReadOnlyAttribute(AttrLastConnectErrorValue, datamodel.AttrQualityNullable, adminPriv),
	}

	return datamodel.MergeAttributeLists(attrs)
}

// AttributeList implements datamodel.Cluster.
func (c *Cluster) AttributeList() []datamodel.AttributeEntry {
	return c.attrList
}

// AcceptedCommandList implements datamodel.Cluster.
func (c *Cluster) AcceptedCommandList() []datamodel.CommandEntry {
	adminPriv := datamodel.PrivilegeAdminister

	return []datamodel.CommandEntry{
		datamodel.NewCommandEntry(CmdScanNetworks, 0, adminPriv),
		datamodel.NewCommandEntry(CmdAddOrUpdateWiFiNetwork, 0, adminPriv),
		datamodel.NewCommandEntry(CmdRemoveNetwork, 0, adminPriv),
		datamodel.NewCommandEntry(CmdConnectNetwork, 0, adminPriv),
		datamodel.NewCommandEntry(CmdReorderNetwork, 0, adminPriv),
	}
}

// GeneratedCommandList implements datamodel.Cluster.
func (c *Cluster) GeneratedCommandList() []datamodel.CommandID {
	return []datamodel.CommandID{
		CmdScanNetworksResponse,
		CmdNetworkConfigResponse,
		CmdConnectNetworkResponse,
	}
}

// ReadAttribute implements datamodel.Cluster.
func (c *Cluster) ReadAttribute(ctx context.Context, req datamodel.ReadAttributeRequest, w *tlv.Writer) error {
	handled, err := c.ReadGlobalAttribute(ctx, req.Path.Attribute, w,
		c.attrList, c.AcceptedCommandList(), c.GeneratedCommandList())
	if handled || err != nil {
		return err
	}

	switch req.Path.Attribute {
	case AttrMaxNetworks:
		return w.PutUint(tlv.Anonymous(), uint64(c.networks.MaxNetworks()))

	case AttrNetworks:
		return c.readNetworks(w)

	case AttrScanMaxTimeSeconds:
		return w.PutUint(tlv.Anonymous(), uint64(ScanMaxTimeSeconds))

	case AttrConnectMaxTimeSeconds:
		return w.PutUint(tlv.Anonymous(), uint64(ConnectMaxTimeSeconds))

	case AttrInterfaceEnabled:
		return w.PutBool(tlv.Anonymous(), true)

	case AttrLastNetworkingStatus:
		status, ok := c.networks.Status()
		if !ok {
			return w.PutNull(tlv.Anonymous())
		}
		return w.PutUint(tlv.Anonymous(), uint64(status.Status))

	case AttrLastNetworkID:
		status, ok := c.networks.Status()
		if !ok {
			return w.PutNull(tlv.Anonymous())
		}
		return w.PutBytes(tlv.Anonymous(), []byte(status.SSID))

	case AttrLastConnectErrorValue:
		status, ok := c.networks.Status()
		if !ok || status.Status == wifi.StatusSuccess {
			return w.PutNull(tlv.Anonymous())
		}
		return w.PutInt(tlv.Anonymous(), int64(status.Value))

	default:
		return datamodel.ErrUnsupportedAttribute
	}
}

// readNetworks writes the Networks attribute, a list of
// NetworkInfoStruct entries in priority order.
func (c *Cluster) readNetworks(w *tlv.Writer) error {
	if err := w.StartArray(tlv.Anonymous()); err != nil {
		return err
	}

	for _, n := range c.networks.Networks() {
		if err := w.StartStructure(tlv.Anonymous()); err != nil {
			return err
		}

		// NetworkID (field 0)
		if err := w.PutBytes(tlv.ContextTag(0), []byte(n.SSID)); err != nil {
			return err
		}

		// Connected (field 1)
		if err := w.PutBool(tlv.ContextTag(1), n.Connected); err != nil {
			return err
		}

		if err := w.EndContainer(); err != nil {
			return err
		}
	}

	return w.EndContainer()
}

// WriteAttribute implements datamodel.Cluster.
func (c *Cluster) WriteAttribute(ctx context.Context, req datamodel.WriteAttributeRequest, r *tlv.Reader) error {
	return datamodel.ErrUnsupportedWrite
}

// InvokeCommand implements datamodel.Cluster.
func (c *Cluster) InvokeCommand(ctx context.Context, req datamodel.InvokeRequest, r *tlv.Reader) ([]byte, error) {
	switch req.Path.Command {
	case CmdScanNetworks:
		// Scanning is not offered; the commissioner falls back to
		// directly provisioned credentials.
		return nil, datamodel.ErrBusy
	case CmdAddOrUpdateWiFiNetwork:
		return c.handleAddOrUpdateNetwork(ctx, r)
	case CmdRemoveNetwork:
		return c.handleRemoveNetwork(ctx, r)
	case CmdConnectNetwork:
		return c.handleConnectNetwork(ctx, r)
	case CmdReorderNetwork:
		return c.handleReorderNetwork(ctx, r)
	default:
		return nil, datamodel.ErrUnsupportedCommand
	}
}
