// Package datamodel provides the foundational types for server-side
// cluster implementations: identifiers, attribute and command metadata,
// the Cluster interface, and a reusable ClusterBase with data-version
// management.
package datamodel

// EndpointID is an endpoint number within a node.
type EndpointID uint16

// ClusterID is a 32-bit cluster identifier.
type ClusterID uint32

// AttributeID is a 32-bit attribute identifier.
type AttributeID uint32

// CommandID is a 32-bit command identifier.
type CommandID uint32

// DataVersion is the per-cluster monotonic data version exposed to
// protocol clients so they can detect attribute changes.
type DataVersion uint32

// Privilege defines the minimum access level required for an operation.
type Privilege int

const (
	PrivilegeUnknown Privilege = iota
	PrivilegeView
	PrivilegeOperate
	PrivilegeManage
	PrivilegeAdminister
)

// String returns the privilege name.
func (p Privilege) String() string {
	switch p {
	case PrivilegeView:
		return "View"
	case PrivilegeOperate:
		return "Operate"
	case PrivilegeManage:
		return "Manage"
	case PrivilegeAdminister:
		return "Administer"
	default:
		return "Unknown"
	}
}

// AttributeQuality contains attribute quality flags.
type AttributeQuality uint32

const (
	// AttrQualityFixed indicates the value never changes (F quality).
	AttrQualityFixed AttributeQuality = 1 << iota

	// AttrQualityNonVolatile indicates the value persists across restarts (N quality).
	AttrQualityNonVolatile

	// AttrQualityNullable indicates the data type is nullable (X quality).
	AttrQualityNullable

	// AttrQualityList indicates a list-typed attribute.
	AttrQualityList
)

// CommandQuality contains command quality flags.
type CommandQuality uint32

const (
	// CmdQualityFabricScoped indicates the command is fabric-scoped.
	CmdQualityFabricScoped CommandQuality = 1 << iota

	// CmdQualityTimed indicates the command requires a timed interaction.
	CmdQualityTimed
)

// ConcreteClusterPath identifies a cluster instance.
type ConcreteClusterPath struct {
	Endpoint EndpointID
	Cluster  ClusterID
}

// ConcreteAttributePath identifies an attribute on a cluster instance.
type ConcreteAttributePath struct {
	Endpoint  EndpointID
	Cluster   ClusterID
	Attribute AttributeID
}

// ConcreteCommandPath identifies a command on a cluster instance.
type ConcreteCommandPath struct {
	Endpoint EndpointID
	Cluster  ClusterID
	Command  CommandID
}
