package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/experica/orthocam/shared/directory"
)

const heartbeatInterval = 30 * time.Second

// Registration announces the command host to a directory and keeps the
// entry alive with heartbeats carrying the current display summary.
type Registration struct {
	masterURL string
	hostID    string
	info      directory.Register
	status    func() directory.Status
	client    *http.Client
	interval  time.Duration
	stopCh    chan struct{}
}

func NewRegistration(masterURL, name, address, version, region string, status func() directory.Status) *Registration {
	return &Registration{
		masterURL: masterURL,
		info: directory.Register{
			Name:    name,
			Address: address,
			Version: version,
			Region:  region,
		},
		status:   status,
		client:   &http.Client{Timeout: 5 * time.Second},
		interval: heartbeatInterval,
		stopCh:   make(chan struct{}),
	}
}

func (r *Registration) Start() {
	if err := r.register(); err != nil {
		log.Printf("[registration] WARN initial registration failed: %v", err)
	}
	go r.heartbeatLoop()
}

func (r *Registration) Stop() {
	close(r.stopCh)
}

func (r *Registration) post(path string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	resp, err := r.client.Post(r.masterURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return resp, nil
}

func (r *Registration) register() error {
	req := r.info
	req.Status = r.status()
	resp, err := r.post("/servers/register", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result directory.Registered
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	r.hostID = result.ID
	log.Printf("[registration] registered %q with master (id=%s, %s)", r.info.Name, r.hostID, req.Display)
	return nil
}

func (r *Registration) heartbeatLoop() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			if err := r.sendHeartbeat(); err != nil {
				log.Printf("[registration] WARN heartbeat failed: %v", err)
			}
		}
	}
}

func (r *Registration) sendHeartbeat() error {
	if r.hostID == "" {
		return r.register()
	}

	resp, err := r.post("/servers/heartbeat", directory.Heartbeat{ID: r.hostID, Status: r.status()})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Printf("[registration] master lost registration %s, re-registering", r.hostID)
		r.hostID = ""
		return r.register()
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
