package config

import (
	"fmt"

	"github.com/experica/orthocam/shared/netconfig"
)

// ClientConfig configures the environment render client.
type ClientConfig struct {
	Address    string
	MasterURL  string
	Name       string
	Version    string
	Width      int
	Height     int
	Fullscreen bool
	GridStep   float64 // degrees between grid lines, 0 hides the grid
	ShowInfo   bool
	InboxSize  int
}

// DefaultClientConfig returns the client defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Address:   fmt.Sprintf("localhost:%d", netconfig.DefaultPort),
		Name:      "Experica Environment",
		Width:     1280,
		Height:    960,
		GridStep:  5,
		ShowInfo:  true,
		InboxSize: 1024,
	}
}
