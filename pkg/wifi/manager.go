package wifi

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/pion/logging"
)

// Client connects the station to an access point. Connect blocks until
// the association either succeeds or fails and returns a *StatusError
// for typed failures.
type Client interface {
	Connect(ctx context.Context, ssid, password string) error
}

// ManagerState describes what the manager is currently doing.
type ManagerState uint8

const (
	ManagerIdle ManagerState = iota
	ManagerConnecting
)

// String returns the state name.
func (s ManagerState) String() string {
	switch s {
	case ManagerIdle:
		return "Idle"
	case ManagerConnecting:
		return "Connecting"
	default:
		return "Unknown"
	}
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Context *Context
	Client  Client

	LoggerFactory logging.LoggerFactory
}

// Manager executes connect requests posted to the shared Context. It
// is the only writer of the Context connection status.
type Manager struct {
	ctx    *Context
	client Client
	state  atomic.Uint32
	log    logging.LeveledLogger
}

// NewManager creates a Manager from config.
func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Context == nil {
		return nil, errors.New("wifi: manager requires a context")
	}
	if config.Client == nil {
		return nil, errors.New("wifi: manager requires a client")
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Manager{
		ctx:    config.Context,
		client: config.Client,
		log:    loggerFactory.NewLogger("wifi-manager"),
	}, nil
}

// State returns what the manager is currently doing.
func (m *Manager) State() ManagerState {
	return ManagerState(m.state.Load())
}

// Run services connect requests until ctx is cancelled. It always
// returns ctx.Err(); connection failures are reported through the
// shared Context status, not as a Run error.
func (m *Manager) Run(ctx context.Context) error {
	for {
		ssid, ok := m.ctx.TakeConnectRequest()
		if !ok {
			if err := m.ctx.WaitConnectRequested(ctx); err != nil {
				return err
			}
			continue
		}
		m.state.Store(uint32(ManagerConnecting))
		m.connect(ctx, ssid)
		m.state.Store(uint32(ManagerIdle))

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (m *Manager) connect(ctx context.Context, ssid string) {
	cred, ok := m.ctx.Credential(ssid)
	if !ok {
		m.log.Warnf("connect requested for unknown network %q", ssid)
		m.ctx.SetStatus(ConnectionStatus{
			SSID:   ssid,
			Status: StatusNetworkIDNotFound,
		})
		return
	}

	m.log.Infof("connecting to %q", ssid)
	err := m.client.Connect(ctx, cred.SSID, cred.Password)
	if err == nil {
		m.log.Infof("connected to %q", ssid)
		m.ctx.SetStatus(ConnectionStatus{
			SSID:   ssid,
			Status: StatusSuccess,
		})
		return
	}
	if ctx.Err() != nil {
		// Shutdown interrupted the attempt. Leave the last
		// completed outcome in place.
		return
	}

	status := ConnectionStatus{
		SSID:   ssid,
		Status: StatusOtherConnectionFailure,
	}
	var serr *StatusError
	if errors.As(err, &serr) {
		status.Status = serr.Status
		status.Value = serr.Value
	}
	m.log.Warnf("connect to %q failed: %v", ssid, err)
	m.ctx.SetStatus(status)
}
