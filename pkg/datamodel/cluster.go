package datamodel

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"

	"github.com/oddlama/matter-provision/pkg/tlv"
)

// ClusterBase provides common functionality for cluster implementations.
// Embed it to get standard behavior for identity, global attributes and
// data-version management.
type ClusterBase struct {
	id          ClusterID
	endpointID  EndpointID
	revision    uint16
	featureMap  uint32
	dataVersion atomic.Uint32
}

// NewClusterBase creates a cluster base. The data version starts at a
// random value so clients cannot confuse instances across restarts.
func NewClusterBase(id ClusterID, endpointID EndpointID, revision uint16) *ClusterBase {
	cb := &ClusterBase{
		id:         id,
		endpointID: endpointID,
		revision:   revision,
	}
	cb.dataVersion.Store(randomDataVersion())
	return cb
}

// ID returns the cluster ID.
func (c *ClusterBase) ID() ClusterID {
	return c.id
}

// EndpointID returns the endpoint this cluster belongs to.
func (c *ClusterBase) EndpointID() EndpointID {
	return c.endpointID
}

// ClusterRevision returns the cluster revision.
func (c *ClusterBase) ClusterRevision() uint16 {
	return c.revision
}

// FeatureMap returns the feature map.
func (c *ClusterBase) FeatureMap() uint32 {
	return c.featureMap
}

// SetFeatureMap sets the feature map bits.
func (c *ClusterBase) SetFeatureMap(features uint32) {
	c.featureMap = features
}

// DataVersion returns the current data version.
func (c *ClusterBase) DataVersion() DataVersion {
	return DataVersion(c.dataVersion.Load())
}

// IncrementDataVersion increments the data version. Call this whenever
// an attribute value changes.
func (c *ClusterBase) IncrementDataVersion() {
	c.dataVersion.Add(1)
}

// Path returns the concrete cluster path for this cluster.
func (c *ClusterBase) Path() ConcreteClusterPath {
	return ConcreteClusterPath{Endpoint: c.endpointID, Cluster: c.id}
}

// ReadGlobalAttribute handles reading of global attributes.
// Returns true if the attribute was handled.
func (c *ClusterBase) ReadGlobalAttribute(_ context.Context, attrID AttributeID, w *tlv.Writer, attrList []AttributeEntry, cmdList []CommandEntry, genCmdList []CommandID) (bool, error) {
	switch attrID {
	case GlobalAttrClusterRevision:
		return true, w.PutUint(tlv.Anonymous(), uint64(c.revision))

	case GlobalAttrFeatureMap:
		return true, w.PutUint(tlv.Anonymous(), uint64(c.featureMap))

	case GlobalAttrAttributeList:
		if err := w.StartArray(tlv.Anonymous()); err != nil {
			return true, err
		}
		for _, attr := range attrList {
			if err := w.PutUint(tlv.Anonymous(), uint64(attr.ID)); err != nil {
				return true, err
			}
		}
		return true, w.EndContainer()

	case GlobalAttrAcceptedCommandList:
		if err := w.StartArray(tlv.Anonymous()); err != nil {
			return true, err
		}
		for _, cmd := range cmdList {
			if err := w.PutUint(tlv.Anonymous(), uint64(cmd.ID)); err != nil {
				return true, err
			}
		}
		return true, w.EndContainer()

	case GlobalAttrGeneratedCommandList:
		if err := w.StartArray(tlv.Anonymous()); err != nil {
			return true, err
		}
		for _, cmdID := range genCmdList {
			if err := w.PutUint(tlv.Anonymous(), uint64(cmdID)); err != nil {
				return true, err
			}
		}
		return true, w.EndContainer()

	default:
		return false, nil
	}
}

// randomDataVersion generates a random initial data version.
func randomDataVersion() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	return binary.LittleEndian.Uint32(buf[:])
}
