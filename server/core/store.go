package core

import (
	"errors"
	"fmt"

	"github.com/experica/orthocam/shared/messages"
	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/quasilyte/gdata"
)

const geometryKey = "geometry"

var errStoreDisabled = errors.New("store disabled")

// itemStore is the subset of *gdata.Manager the store uses.
type itemStore interface {
	LoadItem(key string) ([]byte, error)
	SaveItem(key string, data []byte) error
	DeleteItem(key string) error
}

// Store persists the last geometry of the command host between runs.
type Store struct {
	items  itemStore
	handle *codec.MsgpackHandle
}

// OpenStore opens the per-user data directory of appName.
func OpenStore(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return newStore(m), nil
}

func newStore(items itemStore) *Store {
	return &Store{items: items, handle: &codec.MsgpackHandle{}}
}

// Load returns the saved geometry, or nil when nothing was saved.
func (s *Store) Load() (*messages.GeometrySnapshot, error) {
	if s == nil || s.items == nil {
		return nil, errStoreDisabled
	}
	data, err := s.items.LoadItem(geometryKey)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", geometryKey, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var snap messages.GeometrySnapshot
	if err := codec.NewDecoderBytes(data, s.handle).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", geometryKey, err)
	}
	return &snap, nil
}

func (s *Store) Save(snap messages.GeometrySnapshot) error {
	if s == nil || s.items == nil {
		return errStoreDisabled
	}
	var data []byte
	if err := codec.NewEncoderBytes(&data, s.handle).Encode(snap); err != nil {
		return fmt.Errorf("encode %s: %w", geometryKey, err)
	}
	if err := s.items.SaveItem(geometryKey, data); err != nil {
		return fmt.Errorf("save %s: %w", geometryKey, err)
	}
	return nil
}

// Clear removes the saved geometry so the next start uses the defaults.
func (s *Store) Clear() error {
	if s == nil || s.items == nil {
		return errStoreDisabled
	}
	if err := s.items.DeleteItem(geometryKey); err != nil {
		return fmt.Errorf("delete %s: %w", geometryKey, err)
	}
	return nil
}
