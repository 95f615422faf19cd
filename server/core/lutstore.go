package core

import (
	"sync"

	"github.com/experica/orthocam/shared/lut"
)

// LUTInfo describes the selected lookup table.
type LUTInfo struct {
	Name     string `json:"name"`
	EdgeSize int    `json:"edgeSize"`
	Bytes    int    `json:"bytes"`
	Checksum uint32 `json:"checksum"`
}

// LUTStore holds the lookup table currently selected for the display.
// It implements orthocam.LUTSource.
type LUTStore struct {
	mu   sync.RWMutex
	name string
	cube *lut.Cube
}

func NewLUTStore() *LUTStore {
	return &LUTStore{}
}

func (s *LUTStore) CurrentLUT() *lut.Cube {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cube
}

// Set selects cube; nil clears the selection.
func (s *LUTStore) Set(name string, cube *lut.Cube) {
	s.mu.Lock()
	s.name = name
	s.cube = cube
	s.mu.Unlock()
}

// Info returns the selection, or false when none is set.
func (s *LUTStore) Info() (LUTInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cube == nil {
		return LUTInfo{}, false
	}
	return LUTInfo{
		Name:     s.name,
		EdgeSize: s.cube.Size,
		Bytes:    len(s.cube.Data),
		Checksum: s.cube.Checksum(),
	}, true
}
