package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quasilyte/gdata"

	"github.com/automoto/ld51/logger"
)

// ErrNoRecording is returned by Store.Load for a name with nothing saved.
var ErrNoRecording = errors.New("no saved recording")

const storeVersion = 1

// ItemStore is the subset of *gdata.Manager used by Store.
type ItemStore interface {
	LoadItem(itemKey string) ([]byte, error)
	SaveItem(itemKey string, data []byte) error
}

// SavedRecording is the persisted form of a recording. Seed is kept with
// the log since replays only reproduce a game from the same seed.
type SavedRecording struct {
	Version int       `json:"version"`
	ID      string    `json:"id"`
	Saved   time.Time `json:"saved"`
	Seed    uint64    `json:"seed"`
	Log     []byte    `json:"log"`
}

// Store keeps named recordings in the user data directory.
type Store struct {
	items ItemStore
}

// OpenStore opens the data directory of appName.
func OpenStore(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		logger.Log.WithField("component", "recorder").WithError(err).Warn("could not open recording store")
		return nil, err
	}
	return NewStore(m), nil
}

// NewStore returns a store over items.
func NewStore(items ItemStore) *Store {
	return &Store{items: items}
}

// Save writes the log of rec under name.
func (s *Store) Save(name string, rec *Recorder, seed uint64) error {
	if err := validName(name); err != nil {
		return err
	}

	data, err := json.Marshal(SavedRecording{
		Version: storeVersion,
		ID:      uuid.NewString(),
		Saved:   time.Now().UTC(),
		Seed:    seed,
		Log:     rec.Export(),
	})
	if err != nil {
		return fmt.Errorf("encode recording %s: %w", name, err)
	}

	if err := s.items.SaveItem(itemKey(name), data); err != nil {
		return fmt.Errorf("save recording %s: %w", name, err)
	}
	return nil
}

// Load replaces the log of rec with the recording saved under name and
// returns its seed. rec is untouched on error.
func (s *Store) Load(name string, rec *Recorder) (uint64, error) {
	if err := validName(name); err != nil {
		return 0, err
	}

	data, err := s.items.LoadItem(itemKey(name))
	if err != nil {
		return 0, fmt.Errorf("load recording %s: %w", name, err)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoRecording, name)
	}

	var saved SavedRecording
	if err := json.Unmarshal(data, &saved); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrCorruptRecording, name, err)
	}
	if saved.Version != storeVersion {
		return 0, fmt.Errorf("%w: %s has version %d, want %d", ErrCorruptRecording, name, saved.Version, storeVersion)
	}
	if err := rec.Import(saved.Log); err != nil {
		return 0, fmt.Errorf("load recording %s: %w", name, err)
	}
	return saved.Seed, nil
}

// Delete clears the recording saved under name.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.items.SaveItem(itemKey(name), nil); err != nil {
		return fmt.Errorf("delete recording %s: %w", name, err)
	}
	return nil
}

func itemKey(name string) string {
	return "replay_" + name
}

func validName(name string) error {
	if name == "" || len(name) > 64 {
		return fmt.Errorf("invalid recording name %q", name)
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return fmt.Errorf("invalid recording name %q", name)
		}
	}
	return nil
}
