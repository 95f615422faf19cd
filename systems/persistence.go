package systems

import (
	"encoding/json"
	"log"

	"github.com/experica/orthocam/config"
	"github.com/quasilyte/gdata"
)

const displayKey = "display"

// SavedDisplay is the window state of the environment client stored on disk.
type SavedDisplay struct {
	Address    string  `json:"address"`
	Fullscreen bool    `json:"fullscreen"`
	GridStep   float64 `json:"gridStep"`
	ShowInfo   bool    `json:"showInfo"`
}

// itemStore is the subset of *gdata.Manager used here.
type itemStore interface {
	LoadItem(key string) ([]byte, error)
	SaveItem(key string, data []byte) error
}

var displayStore itemStore

// InitPersistence opens the per-user data directory of the client.
func InitPersistence(appName string) error {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		log.Printf("[persistence] WARN could not initialize persistence: %v", err)
		return err
	}
	displayStore = m
	return nil
}

// LoadDisplay returns the saved display state, or nil if none was saved.
func LoadDisplay() (*SavedDisplay, error) {
	if displayStore == nil {
		return nil, nil
	}

	data, err := displayStore.LoadItem(displayKey)
	if err != nil {
		log.Printf("[persistence] WARN could not load display settings: %v", err)
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	var saved SavedDisplay
	if err := json.Unmarshal(data, &saved); err != nil {
		log.Printf("[persistence] WARN could not parse display settings: %v", err)
		return nil, err
	}
	return &saved, nil
}

// SaveDisplay stores the display state of cfg.
func SaveDisplay(cfg *config.ClientConfig) error {
	if displayStore == nil {
		return nil
	}

	data, err := json.Marshal(SavedDisplay{
		Address:    cfg.Address,
		Fullscreen: cfg.Fullscreen,
		GridStep:   cfg.GridStep,
		ShowInfo:   cfg.ShowInfo,
	})
	if err != nil {
		return err
	}
	if err := displayStore.SaveItem(displayKey, data); err != nil {
		log.Printf("[persistence] WARN could not save display settings: %v", err)
		return err
	}
	return nil
}

// ApplyDisplay copies saved state into cfg. Fields in skip were set on the
// command line and are left alone.
func ApplyDisplay(cfg *config.ClientConfig, saved *SavedDisplay, skip map[string]bool) {
	if saved == nil {
		return
	}
	if !skip["addr"] && saved.Address != "" {
		cfg.Address = saved.Address
	}
	if !skip["fullscreen"] {
		cfg.Fullscreen = saved.Fullscreen
	}
	if !skip["grid"] && saved.GridStep >= 0 {
		cfg.GridStep = saved.GridStep
	}
	cfg.ShowInfo = saved.ShowInfo
}
