package core

import (
	"sort"
	"sync"
	"time"

	"github.com/experica/orthocam/shared/netconfig"
)

// Conn is the part of a network client the server needs.
// *router.NetworkClient satisfies it.
type Conn interface {
	Id() string
	SendMessage(msg any) error
}

// Peer is one connected client.
type Peer struct {
	ID       string
	Name     string
	Version  string
	Role     netconfig.PeerRole
	JoinedAt time.Time

	conn   Conn
	outbox *Outbox
}

// PeerInfo is the JSON view of a peer.
type PeerInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Version  string    `json:"version"`
	JoinedAt time.Time `json:"joinedAt"`
	Pending  int       `json:"pending"`
}

// PeerTable tracks connected peers and their roles. It implements
// orthocam.PeerRegistry.
type PeerTable struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[string]*Peer)}
}

// Add registers a connection whose role is not known yet.
func (t *PeerTable) Add(conn Conn) *Peer {
	p := &Peer{ID: conn.Id(), Role: netconfig.RoleUnknown, conn: conn}
	t.mu.Lock()
	t.peers[p.ID] = p
	t.mu.Unlock()
	return p
}

// Join records the role a peer announced and attaches its outbox.
// It returns false if the peer is not connected.
func (t *PeerTable) Join(id, name, version string, role netconfig.PeerRole, outbox *Outbox) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[id]
	if !ok {
		return false
	}
	p.Name = name
	p.Version = version
	p.Role = role
	p.JoinedAt = time.Now()
	p.outbox = outbox
	return true
}

// Remove forgets a peer and returns it, or nil if unknown.
func (t *PeerTable) Remove(id string) *Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.peers[id]
	if !ok {
		return nil
	}
	delete(t.peers, id)
	return p
}

// Outbox returns the outbox of a joined peer.
func (t *PeerTable) Outbox(id string) *Outbox {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.peers[id]; ok {
		return p.outbox
	}
	return nil
}

func (t *PeerTable) IsPeerRole(conn string, role netconfig.PeerRole) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.peers[conn]
	return ok && p.Role == role
}

// PeerRoleConnections returns the ids of peers with role, sorted.
func (t *PeerTable) PeerRoleConnections(role netconfig.PeerRole) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ids []string
	for id, p := range t.peers {
		if p.Role == role {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of joined peers with role.
func (t *PeerTable) Count(role netconfig.PeerRole) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, p := range t.peers {
		if p.Role == role {
			n++
		}
	}
	return n
}

// List returns every connected peer sorted by id.
func (t *PeerTable) List() []PeerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]PeerInfo, 0, len(t.peers))
	for _, p := range t.peers {
		info := PeerInfo{
			ID:       p.ID,
			Name:     p.Name,
			Role:     p.Role.String(),
			Version:  p.Version,
			JoinedAt: p.JoinedAt,
		}
		if p.outbox != nil {
			info.Pending = p.outbox.Pending()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
