package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/experica/orthocam/shared/directory"
)

// Filter narrows a listing. Empty fields match every host.
type Filter struct {
	Version string
	Region  string
	// MapColor, when set, keeps hosts whose color mapping is in that state.
	MapColor *bool
}

func (f Filter) match(h *directory.Host) bool {
	if !h.Accepts(f.Version) {
		return false
	}
	if f.Region != "" && h.Region != f.Region {
		return false
	}
	if f.MapColor != nil && (h.Display == nil || h.Display.MapColor != *f.MapColor) {
		return false
	}
	return true
}

// Registry is an in-memory store of command hosts with TTL-based expiry.
type Registry struct {
	mu     sync.RWMutex
	hosts  map[string]*directory.Host
	ttl    time.Duration
	now    func() time.Time
	stopCh chan struct{}
}

func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		hosts:  make(map[string]*directory.Host),
		ttl:    ttl,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

func (r *Registry) Stop() {
	close(r.stopCh)
}

// Register stores a new host and returns its id.
func (r *Registry) Register(req directory.Register) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	id := fmt.Sprintf("%x", b)

	r.mu.Lock()
	r.hosts[id] = &directory.Host{
		ID:       id,
		Name:     req.Name,
		Address:  req.Address,
		Version:  req.Version,
		Region:   req.Region,
		LastSeen: r.now(),
		Status:   req.Status,
	}
	r.mu.Unlock()

	return id
}

// Heartbeat refreshes a host. A heartbeat without a display summary keeps
// the last one reported.
func (r *Registry) Heartbeat(id string, st directory.Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hosts[id]
	if !ok {
		return false
	}
	h.LastSeen = r.now()
	h.Observers = st.Observers
	if st.Display != nil {
		if h.Display == nil || *h.Display != *st.Display {
			log.Printf("[master] DEBUG host %q display: %s", h.Name, st.Display)
		}
		d := *st.Display
		h.Display = &d
	}
	return true
}

// Get returns one host.
func (r *Registry) Get(id string) (directory.Host, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hosts[id]
	if !ok {
		return directory.Host{}, false
	}
	return copyHost(h), true
}

// List returns the hosts matching f, sorted by name then id.
func (r *Registry) List(f Filter) []directory.Host {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]directory.Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		if f.match(h) {
			result = append(result, copyHost(h))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func copyHost(h *directory.Host) directory.Host {
	out := *h
	if h.Display != nil {
		d := *h.Display
		out.Display = &d
	}
	return out
}

func (r *Registry) expire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, h := range r.hosts {
		if now.Sub(h.LastSeen) >= r.ttl {
			log.Printf("[master] expired host %q (id=%s, last seen %s ago)",
				h.Name, id, now.Sub(h.LastSeen).Round(time.Second))
			delete(r.hosts, id)
		}
	}
}

func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.expire()
		}
	}
}
