// Package wifi holds the shared WiFi provisioning state and the
// background manager that turns connect requests into network actions.
//
// A single Context instance is created at process start, seeded from
// persistent storage, and borrowed by the Network Commissioning
// cluster, the persistence manager and the network manager for the
// process lifetime.
package wifi

import "fmt"

// Status is the Network Commissioning status code reported in command
// responses and the LastNetworkingStatus attribute.
type Status uint8

const (
	StatusSuccess                Status = 0
	StatusOutOfRange             Status = 1
	StatusBoundsExceeded         Status = 2
	StatusNetworkIDNotFound      Status = 3
	StatusDuplicateNetworkID     Status = 4
	StatusNetworkNotFound        Status = 5
	StatusRegulatoryError        Status = 6
	StatusAuthFailure            Status = 7
	StatusUnsupportedSecurity    Status = 8
	StatusOtherConnectionFailure Status = 9
	StatusIPV6Failed             Status = 10
	StatusIPBindFailed           Status = 11
	StatusUnknownError           Status = 12
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusOutOfRange:
		return "OutOfRange"
	case StatusBoundsExceeded:
		return "BoundsExceeded"
	case StatusNetworkIDNotFound:
		return "NetworkIDNotFound"
	case StatusDuplicateNetworkID:
		return "DuplicateNetworkID"
	case StatusNetworkNotFound:
		return "NetworkNotFound"
	case StatusRegulatoryError:
		return "RegulatoryError"
	case StatusAuthFailure:
		return "AuthFailure"
	case StatusUnsupportedSecurity:
		return "UnsupportedSecurity"
	case StatusOtherConnectionFailure:
		return "OtherConnectionFailure"
	case StatusIPV6Failed:
		return "IPV6Failed"
	case StatusIPBindFailed:
		return "IPBindFailed"
	default:
		return "UnknownError"
	}
}

// StatusError is a connect failure carrying the Network Commissioning
// status code and a platform-specific diagnostic value.
//
// Platform clients return a StatusError to report typed association
// failures; any other error is treated as OtherConnectionFailure.
type StatusError struct {
	Status Status
	Value  int32
	Err    error
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wifi: connect failed: %s (value=%d): %v", e.Status, e.Value, e.Err)
	}
	return fmt.Sprintf("wifi: connect failed: %s (value=%d)", e.Status, e.Value)
}

// Unwrap returns the underlying platform error.
func (e *StatusError) Unwrap() error {
	return e.Err
}
