package core

import (
	"log"
	"sync"
	"time"
)

// Loop applies queued commands at a fixed tick so every camera mutation
// happens on one goroutine.
type Loop struct {
	server   *Server
	tickRate int
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewLoop(server *Server, tickRate int) *Loop {
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Loop{
		server:   server,
		tickRate: tickRate,
		stopChan: make(chan struct{}),
	}
}

func (l *Loop) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(l.tickRate))
	defer ticker.Stop()

	log.Printf("[server] loop started at %d ticks/second", l.tickRate)

	for {
		select {
		case <-l.stopChan:
			log.Println("[server] loop stopped")
			return
		case <-ticker.C:
			l.server.ProcessCommands()
		}
	}
}

func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}
