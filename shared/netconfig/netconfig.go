// Package netconfig defines lightweight types shared between the command host
// and its clients. It must have zero dependencies on ebiten or any graphics
// library so the command host binary stays headless.
package netconfig

import (
	"fmt"
	"strings"
)

// PeerRole classifies a network connection.
type PeerRole int

const (
	RoleUnknown     PeerRole = iota
	RoleCommand              // Controlling host
	RoleEnvironment          // Rendering client presenting stimuli
	RoleAnalysis             // Online analysis client
)

var roleNames = map[PeerRole]string{
	RoleUnknown:     "unknown",
	RoleCommand:     "command",
	RoleEnvironment: "environment",
	RoleAnalysis:    "analysis",
}

func (r PeerRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParsePeerRole maps a role name (case-insensitive) to a PeerRole.
func ParsePeerRole(s string) (PeerRole, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if role != RoleUnknown && name == s {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown peer role %q", s)
}

// Protocol defaults shared by host and clients.
const (
	DefaultPort      = 7373
	DefaultTickRate  = 60
	DefaultChunkSize = 16 * 1024
)
