package discovery

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TXT record keys for operational discovery.
const (
	// TXTKeyIdleInterval is the session idle interval key (SII).
	TXTKeyIdleInterval = "SII"

	// TXTKeyActiveInterval is the session active interval key (SAI).
	TXTKeyActiveInterval = "SAI"

	// TXTKeyTCPSupported indicates TCP support (T).
	TXTKeyTCPSupported = "T"
)

// OperationalTXT holds TXT records for the operational service.
type OperationalTXT struct {
	// SessionIdleInterval is the MRP retry interval while idle.
	// Zero omits the record.
	SessionIdleInterval time.Duration

	// SessionActiveInterval is the MRP retry interval while active.
	// Zero omits the record.
	SessionActiveInterval time.Duration

	// TCPSupported indicates the node accepts TCP connections.
	TCPSupported bool
}

// Encode converts the TXT record to DNS-SD format strings.
func (o *OperationalTXT) Encode() []string {
	var records []string

	if o.SessionIdleInterval > 0 {
		records = append(records, fmt.Sprintf("%s=%d", TXTKeyIdleInterval, o.SessionIdleInterval.Milliseconds()))
	}
	if o.SessionActiveInterval > 0 {
		records = append(records, fmt.Sprintf("%s=%d", TXTKeyActiveInterval, o.SessionActiveInterval.Milliseconds()))
	}
	if o.TCPSupported {
		records = append(records, TXTKeyTCPSupported+"=1")
	}

	return records
}

// ParseOperationalTXT parses raw TXT records into OperationalTXT.
// Unknown keys are ignored.
func ParseOperationalTXT(records []string) (*OperationalTXT, error) {
	txt := &OperationalTXT{}

	for _, record := range records {
		key, value, found := strings.Cut(record, "=")
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTXTRecord, record)
		}

		switch key {
		case TXTKeyIdleInterval:
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidTXTRecord, record)
			}
			txt.SessionIdleInterval = time.Duration(ms) * time.Millisecond

		case TXTKeyActiveInterval:
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidTXTRecord, record)
			}
			txt.SessionActiveInterval = time.Duration(ms) * time.Millisecond

		case TXTKeyTCPSupported:
			txt.TCPSupported = value == "1"
		}
	}

	return txt, nil
}
