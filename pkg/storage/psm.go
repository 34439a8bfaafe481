package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/pion/logging"

	"github.com/oddlama/matter-provision/pkg/wifi"
)

// NetworksNamespace is the storage namespace holding the WiFi network
// table.
const NetworksNamespace = "wifi-networks"

// stateVersion is the current blob format version.
const stateVersion = 1

type persistedNetwork struct {
	SSID     string `cbor:"1,keyasint"`
	Password string `cbor:"2,keyasint"`
}

type persistedState struct {
	Version  int                `cbor:"1,keyasint"`
	Networks []persistedNetwork `cbor:"2,keyasint"`
}

// PersistenceManagerConfig configures a PersistenceManager.
type PersistenceManagerConfig struct {
	Networks *wifi.Context
	Storage  Storage

	LoggerFactory logging.LoggerFactory
}

// PersistenceManager saves the WiFi network table to storage whenever
// it changes, and restores it at startup.
type PersistenceManager struct {
	networks *wifi.Context
	storage  Storage
	log      logging.LeveledLogger
}

// NewPersistenceManager creates a PersistenceManager from config.
func NewPersistenceManager(config PersistenceManagerConfig) (*PersistenceManager, error) {
	if config.Networks == nil {
		return nil, errors.New("storage: persistence manager requires a network context")
	}
	if config.Storage == nil {
		return nil, errors.New("storage: persistence manager requires a storage backend")
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &PersistenceManager{
		networks: config.Networks,
		storage:  config.Storage,
		log:      loggerFactory.NewLogger("psm"),
	}, nil
}

// Load restores the network table from storage. A missing blob leaves
// the table empty; a corrupt blob is an error.
func (m *PersistenceManager) Load() error {
	data, err := m.storage.Load(NetworksNamespace)
	if err != nil {
		return fmt.Errorf("storage: load %s: %w", NetworksNamespace, err)
	}
	if data == nil {
		m.log.Debugf("no persisted network table")
		return nil
	}

	var state persistedState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("storage: decode %s: %w", NetworksNamespace, err)
	}
	if state.Version != stateVersion {
		return fmt.Errorf("storage: unsupported state version %d", state.Version)
	}

	networks := make([]wifi.Credential, len(state.Networks))
	for i, n := range state.Networks {
		networks[i] = wifi.Credential{SSID: n.SSID, Password: n.Password}
	}
	m.networks.Restore(networks)
	m.log.Infof("restored %d network(s)", len(networks))
	return nil
}

// Run saves the network table whenever it becomes dirty, until ctx is
// cancelled. A storage failure is returned so the caller can restart
// the save loop; the dirty flag stays set and the save is retried
// after the restart.
func (m *PersistenceManager) Run(ctx context.Context) error {
	for {
		if err := m.networks.WaitDirty(ctx); err != nil {
			return err
		}
		if err := m.save(); err != nil {
			return err
		}
	}
}

func (m *PersistenceManager) save() error {
	snap := m.networks.Snapshot()

	state := persistedState{
		Version:  stateVersion,
		Networks: make([]persistedNetwork, len(snap.Networks)),
	}
	for i, n := range snap.Networks {
		state.Networks[i] = persistedNetwork{SSID: n.SSID, Password: n.Password}
	}

	data, err := cbor.Marshal(state)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", NetworksNamespace, err)
	}
	if len(data) > MaxBlobSize {
		return ErrBlobTooLarge
	}
	if err := m.storage.Store(NetworksNamespace, data); err != nil {
		return fmt.Errorf("storage: store %s: %w", NetworksNamespace, err)
	}

	// Only acknowledged once the blob is durably written. A mutation
	// that raced the save keeps the state dirty for the next round.
	m.networks.MarkClean(snap.Seq)
	m.log.Debugf("saved %d network(s)", len(snap.Networks))
	return nil
}
