// Package directory holds the JSON documents exchanged between command
// hosts, the master directory and environment clients.
package directory

import (
	"fmt"
	"time"
)

// Display summarizes the viewing geometry a command host currently drives.
type Display struct {
	ScreenToEye  float32 `json:"screenToEye"`
	ScreenHeight float32 `json:"screenHeight"`
	ScreenAspect float32 `json:"screenAspect"`
	WidthDeg     float32 `json:"widthDeg"`
	HeightDeg    float32 `json:"heightDeg"`
	MapColor     bool    `json:"mapColor"`
	LUT          string  `json:"lut,omitempty"`
	LUTEdge      int     `json:"lutEdge,omitempty"`
}

// String renders the summary for host listings.
func (d *Display) String() string {
	if d == nil {
		return "no display"
	}
	s := fmt.Sprintf("%.1f x %.1f deg @ %.0f cm", d.WidthDeg, d.HeightDeg, d.ScreenToEye)
	switch {
	case !d.MapColor:
		s += ", mapping off"
	case d.LUT != "":
		s += fmt.Sprintf(", lut %s/%d", d.LUT, d.LUTEdge)
	}
	return s
}

// Status is the part of a host entry refreshed by every heartbeat.
type Status struct {
	Observers int      `json:"observers"`
	Display   *Display `json:"display,omitempty"`
}

// Register announces a command host.
type Register struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Version string `json:"version"`
	Region  string `json:"region"`
	Status
}

// Registered is the directory's answer to Register.
type Registered struct {
	ID string `json:"id"`
}

// Heartbeat keeps a registration alive.
type Heartbeat struct {
	ID string `json:"id"`
	Status
}

// Host is one entry of the directory listing.
type Host struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Version  string    `json:"version"`
	Region   string    `json:"region"`
	LastSeen time.Time `json:"lastSeen"`
	Status
}

// Accepts reports whether the host takes clients of version. An empty
// version on either side matches anything.
func (h Host) Accepts(version string) bool {
	return version == "" || h.Version == "" || h.Version == version
}
