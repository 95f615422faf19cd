package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/experica/orthocam/config"
)

type fakeConn struct {
	id string

	mu   sync.Mutex
	msgs []any
	err  error
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) Id() string { return c.id }

func (c *fakeConn) SendMessage(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) fail() {
	c.mu.Lock()
	c.err = errors.New("broken pipe")
	c.mu.Unlock()
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.msgs...)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	c.msgs = nil
	c.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func countOf[T any](msgs []any) int {
	n := 0
	for _, m := range msgs {
		if _, ok := m.(T); ok {
			n++
		}
	}
	return n
}

func lastOf[T any](msgs []any) (T, bool) {
	var zero T
	for i := len(msgs) - 1; i >= 0; i-- {
		if v, ok := msgs[i].(T); ok {
			return v, true
		}
	}
	return zero, false
}

func newTestServer(t *testing.T, store *Store) *Server {
	t.Helper()
	cfg := config.DefaultHostConfig()
	cfg.TickRate = 1000
	cfg.SendTimeout = 200 * time.Millisecond
	return NewServer(cfg, store)
}

func startLoop(t *testing.T, s *Server) {
	t.Helper()
	go s.loop.Run()
	t.Cleanup(s.Stop)
}
