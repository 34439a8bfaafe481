package datamodel

import (
	"context"

	"github.com/oddlama/matter-provision/pkg/tlv"
)

// ReadAttributeRequest contains parameters for reading an attribute.
type ReadAttributeRequest struct {
	// Path identifies the attribute to read.
	Path ConcreteAttributePath
}

// WriteAttributeRequest contains parameters for writing an attribute.
type WriteAttributeRequest struct {
	// Path identifies the attribute to write.
	Path ConcreteAttributePath
}

// InvokeRequest contains parameters for invoking a command.
type InvokeRequest struct {
	// Path identifies the command to invoke.
	Path ConcreteCommandPath
}

// Cluster is a server-side cluster instance.
//
// Implementations embed ClusterBase for identity, data-version and
// global-attribute handling, and add the cluster-specific attribute
// and command semantics on top.
type Cluster interface {
	// ID returns the cluster ID.
	ID() ClusterID

	// EndpointID returns the endpoint this cluster belongs to.
	EndpointID() EndpointID

	// DataVersion returns the current cluster data version.
	// Increments whenever any attribute changes.
	DataVersion() DataVersion

	// ClusterRevision returns the implemented cluster revision.
	ClusterRevision() uint16

	// FeatureMap returns the supported features bitmap.
	FeatureMap() uint32

	// AttributeList returns metadata for all supported attributes,
	// including the global attributes.
	AttributeList() []AttributeEntry

	// AcceptedCommandList returns metadata for accepted commands.
	AcceptedCommandList() []CommandEntry

	// GeneratedCommandList returns IDs of generated (response) commands.
	GeneratedCommandList() []CommandID

	// ReadAttribute encodes the requested attribute into w.
	ReadAttribute(ctx context.Context, req ReadAttributeRequest, w *tlv.Writer) error

	// WriteAttribute decodes the attribute value from r and applies it.
	WriteAttribute(ctx context.Context, req WriteAttributeRequest, r *tlv.Reader) error

	// InvokeCommand decodes the command payload from r, executes the
	// command, and returns the TLV-encoded response payload (nil for
	// status-only responses).
	//
	// InvokeCommand may block until ctx is cancelled; implementations
	// must not hold locks while suspended.
	InvokeCommand(ctx context.Context, req InvokeRequest, r *tlv.Reader) ([]byte, error)
}
