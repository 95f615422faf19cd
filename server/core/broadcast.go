package core

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/experica/orthocam/shared/lut"
	"github.com/experica/orthocam/shared/messages"
)

// ObserverPolicy selects which connections receive replication.
type ObserverPolicy interface {
	RebuildObservers(observers map[string]struct{}) bool
}

type lutTransfer struct {
	peer    string
	cube    *lut.Cube
	retried bool
}

// Broadcaster delivers camera deltas and chunked lookup tables to observing
// peers. It implements orthocam.Publisher.
type Broadcaster struct {
	peers     *PeerTable
	policy    ObserverPolicy
	chunkSize int
	drop      func(id string, err error)
	live      func() *lut.Cube

	nextID    atomic.Uint32
	mu        sync.Mutex
	transfers map[uint32]lutTransfer
}

func NewBroadcaster(peers *PeerTable, chunkSize int, drop func(id string, err error)) *Broadcaster {
	if chunkSize <= 0 {
		chunkSize = lut.DefaultChunkSize
	}
	return &Broadcaster{
		peers:     peers,
		chunkSize: chunkSize,
		drop:      drop,
		transfers: make(map[uint32]lutTransfer),
	}
}

// SetLiveTable installs the lookup of the table observers should currently
// hold, or nil when none should be applied. Failed transfers of any other
// table are not resent.
func (b *Broadcaster) SetLiveTable(fn func() *lut.Cube) {
	b.live = fn
}

// SetPolicy installs the observer filter. Until set nothing is delivered.
func (b *Broadcaster) SetPolicy(p ObserverPolicy) {
	b.policy = p
}

func (b *Broadcaster) observers() []string {
	if b.policy == nil {
		return nil
	}
	set := make(map[string]struct{})
	if !b.policy.RebuildObservers(set) {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Publish sends msg to every observer.
func (b *Broadcaster) Publish(msg any) {
	for _, id := range b.observers() {
		b.sendTo(id, msg)
	}
}

// PublishLUT starts one chunked transfer per observer.
func (b *Broadcaster) PublishLUT(c *lut.Cube) {
	for _, id := range b.observers() {
		b.SendLUT(id, c)
	}
}

// SendLUT transfers c to one peer under a fresh transfer id. Unfinished
// transfers to the same peer are superseded and no longer tracked.
func (b *Broadcaster) SendLUT(peer string, c *lut.Cube) uint32 {
	id := b.nextID.Add(1)
	b.mu.Lock()
	for old, t := range b.transfers {
		if t.peer == peer {
			delete(b.transfers, old)
			log.Printf("[server] DEBUG LUT transfer %d to %s superseded by %d", old, peer, id)
		}
	}
	b.transfers[id] = lutTransfer{peer: peer, cube: c}
	b.mu.Unlock()

	if !b.sendChunks(peer, id, c) {
		b.forget(id)
	}
	return id
}

func (b *Broadcaster) sendChunks(peer string, id uint32, c *lut.Cube) bool {
	h := c.Header(id, b.chunkSize)
	begin := messages.LUTBegin{
		TransferID: h.TransferID,
		EdgeSize:   h.EdgeSize,
		TotalBytes: h.TotalBytes,
		ChunkCount: h.ChunkCount,
		Checksum:   h.Checksum,
	}
	if !b.sendTo(peer, begin) {
		return false
	}
	for i, data := range c.Split(b.chunkSize) {
		if !b.sendTo(peer, messages.LUTChunk{TransferID: id, Index: i, Data: data}) {
			return false
		}
	}
	log.Printf("[server] DEBUG queued LUT transfer %d to %s: %d bytes in %d chunks", id, peer, h.TotalBytes, h.ChunkCount)
	return true
}

// HandleAck settles a transfer. A failed transfer is resent once.
func (b *Broadcaster) HandleAck(peer string, ack messages.LUTReceived) {
	b.mu.Lock()
	t, ok := b.transfers[ack.TransferID]
	ok = ok && t.peer == peer
	if ok {
		delete(b.transfers, ack.TransferID)
	}
	b.mu.Unlock()

	if !ok {
		log.Printf("[server] WARN ack for unknown LUT transfer %d from %s", ack.TransferID, peer)
		return
	}
	if ack.OK {
		log.Printf("[server] %s applied LUT transfer %d", peer, ack.TransferID)
		return
	}
	if t.retried {
		log.Printf("[server] ERROR %s rejected LUT transfer %d again: %s", peer, ack.TransferID, ack.Reason)
		return
	}
	if b.live != nil && b.live() != t.cube {
		log.Printf("[server] %s rejected LUT transfer %d (%s); table no longer selected, not resending", peer, ack.TransferID, ack.Reason)
		return
	}

	log.Printf("[server] WARN %s rejected LUT transfer %d (%s), resending", peer, ack.TransferID, ack.Reason)
	id := b.SendLUT(peer, t.cube)
	b.mu.Lock()
	if r, ok := b.transfers[id]; ok {
		r.retried = true
		b.transfers[id] = r
	}
	b.mu.Unlock()
}

// ClearLUT tells every observer to drop its table and abandons pending
// transfers to them.
func (b *Broadcaster) ClearLUT() {
	for _, id := range b.observers() {
		b.ForgetPeer(id)
		b.sendTo(id, messages.LUTCleared{})
	}
}

// ForgetPeer drops pending transfers of a departed peer.
func (b *Broadcaster) ForgetPeer(peer string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.transfers {
		if t.peer == peer {
			delete(b.transfers, id)
		}
	}
}

// Pending returns the number of unacknowledged transfers.
func (b *Broadcaster) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.transfers)
}

func (b *Broadcaster) forget(id uint32) {
	b.mu.Lock()
	delete(b.transfers, id)
	b.mu.Unlock()
}

func (b *Broadcaster) sendTo(peer string, msg any) bool {
	out := b.peers.Outbox(peer)
	if out == nil {
		return false
	}
	if err := out.Send(msg); err != nil {
		if b.drop != nil {
			b.drop(peer, err)
		}
		return false
	}
	return true
}
