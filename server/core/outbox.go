package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var ErrOutboxClosed = errors.New("outbox closed")

// Outbox serializes writes to one peer. Enqueue blocks while the queue is
// full, so a slow peer pushes back on the sender instead of growing memory.
type Outbox struct {
	conn    Conn
	queue   chan any
	timeout time.Duration
	done    chan struct{}
	once    sync.Once
}

func NewOutbox(conn Conn, size int, timeout time.Duration) *Outbox {
	return &Outbox{
		conn:    conn,
		queue:   make(chan any, size),
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Run writes queued messages until Close or the first write error.
func (o *Outbox) Run() {
	for {
		select {
		case <-o.done:
			return
		case msg := <-o.queue:
			if err := o.conn.SendMessage(msg); err != nil {
				log.Printf("[server] failed to send %T to %s: %v", msg, o.conn.Id(), err)
				o.Close()
				return
			}
		}
	}
}

// Enqueue waits for queue space until ctx is done or the outbox closes.
func (o *Outbox) Enqueue(ctx context.Context, msg any) error {
	select {
	case <-o.done:
		return ErrOutboxClosed
	default:
	}

	select {
	case o.queue <- msg:
		return nil
	case <-o.done:
		return ErrOutboxClosed
	case <-ctx.Done():
		return fmt.Errorf("enqueue %T: %w", msg, ctx.Err())
	}
}

// Send enqueues with the outbox's send timeout.
func (o *Outbox) Send(msg any) error {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	return o.Enqueue(ctx, msg)
}

// Pending returns the number of queued messages.
func (o *Outbox) Pending() int {
	return len(o.queue)
}

func (o *Outbox) Close() {
	o.once.Do(func() { close(o.done) })
}

func (o *Outbox) Done() <-chan struct{} {
	return o.done
}
