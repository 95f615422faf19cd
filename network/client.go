package network

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/coder/websocket"
	"github.com/experica/orthocam/shared/messages"
	"github.com/experica/orthocam/shared/netconfig"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoined
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Client manages the WebSocket connection of an environment peer.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu sync.RWMutex

	state      ClientState
	lastError  error
	peerID     string
	serverName string
	tickRate   int
	chunkSize  int
	conn       *websocket.Conn

	// Geometry and LUT messages in arrival order. Router goroutines block
	// while it is full so a slow render loop throttles the sender.
	inbox chan any
	done  chan struct{}
}

func NewClient(inboxSize int) *Client {
	if inboxSize <= 0 {
		inboxSize = 1024
	}
	return &Client{
		state: StateDisconnected,
		inbox: make(chan any, inboxSize),
		done:  make(chan struct{}),
	}
}

// Connect dials the server in a background goroutine and initiates the join handshake.
func (c *Client) Connect(address, version, name string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		log.Println("[client] connected to server")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		err := c.SendMessage(messages.JoinRequest{
			Version: version,
			Name:    name,
			Role:    netconfig.RoleEnvironment.String(),
		})
		if err != nil {
			c.setError(fmt.Errorf("failed to send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		log.Printf("[client] join accepted: peer=%s server=%s tickRate=%d chunkSize=%d",
			msg.PeerID, msg.ServerName, msg.TickRate, msg.ChunkSize)
		c.mu.Lock()
		c.peerID = msg.PeerID
		c.serverName = msg.ServerName
		c.tickRate = msg.TickRate
		c.chunkSize = msg.ChunkSize
		c.state = StateJoined
		c.mu.Unlock()
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		log.Printf("[client] join rejected: %s", msg.Reason)
		c.setError(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, msg messages.ScreenToEyeUpdate) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.ScreenHeightUpdate) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.ScreenAspectUpdate) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.BGColorUpdate) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.MapColorUpdate) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.GeometrySnapshot) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.LUTBegin) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.LUTChunk) { c.push(msg) })
	router.On(func(_ *router.NetworkClient, msg messages.LUTCleared) { c.push(msg) })

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] disconnected: %v", err)
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] error: %v", err)
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) push(msg any) {
	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) PeerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.peerID
}

func (c *Client) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName
}

func (c *Client) TickRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

// DrainUpdates returns all pending geometry and LUT messages, non-blocking.
func (c *Client) DrainUpdates() []any {
	return drainChan(c.inbox)
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
