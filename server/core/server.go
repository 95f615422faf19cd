package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/experica/orthocam/components"
	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/orthocam"
	"github.com/experica/orthocam/shared/directory"
	"github.com/experica/orthocam/shared/lut"
	"github.com/experica/orthocam/shared/messages"
	"github.com/experica/orthocam/shared/netconfig"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	"github.com/yohamta/donburi"
)

// Command mutates or reads the authority camera on the loop goroutine.
type Command func(cam *orthocam.OrthoCamera)

// Server owns the authority camera and the observer connections.
type Server struct {
	cfg       *config.HostConfig
	world     donburi.World
	camera    *donburi.Entry
	cam       *orthocam.OrthoCamera
	peers     *PeerTable
	luts      *LUTStore
	bcast     *Broadcaster
	store     *Store
	loop      *Loop
	transport *transports.WsServerTransport

	commands  chan Command
	lastSaved messages.GeometrySnapshot

	statusTimeout time.Duration
}

// NewServer creates a command host. store may be nil to disable persistence.
func NewServer(cfg *config.HostConfig, store *Store) *Server {
	world := donburi.NewWorld()

	s := &Server{
		cfg:      cfg,
		world:    world,
		camera:   components.NewCameraEntity(world),
		peers:    NewPeerTable(),
		luts:     NewLUTStore(),
		store:    store,
		commands: make(chan Command, 256),

		statusTimeout: 2 * time.Second,
	}
	s.bcast = NewBroadcaster(s.peers, cfg.ChunkSize, s.dropPeer)
	s.cam = orthocam.New(orthocam.Deps{
		Sink:      components.NewCameraSink(s.camera),
		Peers:     s.peers,
		LUTs:      s.luts,
		Publisher: s.bcast,
	})
	s.bcast.SetPolicy(s.cam)
	s.bcast.SetLiveTable(s.cam.LiveLUT)
	s.cam.AddChangeListener(func() {
		log.Printf("[server] DEBUG viewport %.2f x %.2f deg", s.cam.Width(), s.cam.Height())
	})
	s.loop = NewLoop(s, cfg.TickRate)

	s.restore()
	s.lastSaved = s.cam.Snapshot()

	// Register router callbacks
	s.setupRouterCallbacks()

	return s
}

// Start runs the loop and serves WebSocket peers on port. It blocks until
// the transport fails.
func (s *Server) Start(port uint) error {
	go s.loop.Run()

	s.transport = transports.NewWsServerTransport(port, "", nil)
	return s.transport.Start()
}

// Stop halts the loop. Pending commands are dropped.
func (s *Server) Stop() {
	s.loop.Stop()
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		s.onConnect(client)
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.onDisconnect(client, err)
	})

	router.On(func(client *router.NetworkClient, req messages.JoinRequest) {
		s.onJoin(client, req)
	})

	router.On(func(client *router.NetworkClient, ack messages.LUTReceived) {
		s.onLUTReceived(client, ack)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Printf("[server] client error: %v", err)
	})
}

func (s *Server) onConnect(conn Conn) {
	log.Printf("[server] client connected: %s", conn.Id())
	s.peers.Add(conn)
}

func (s *Server) onJoin(conn Conn, req messages.JoinRequest) {
	reject := func(reason string) {
		log.Printf("[server] rejected %s (%s): %s", conn.Id(), req.Name, reason)
		if err := conn.SendMessage(messages.JoinRejected{Reason: reason}); err != nil {
			log.Printf("[server] failed to send rejection to %s: %v", conn.Id(), err)
		}
	}

	if s.cfg.Version != "" && req.Version != s.cfg.Version {
		reject(fmt.Sprintf("version mismatch: server %s, client %s", s.cfg.Version, req.Version))
		return
	}
	role, err := netconfig.ParsePeerRole(req.Role)
	if err != nil {
		reject(err.Error())
		return
	}

	if prev := s.peers.Outbox(conn.Id()); prev != nil {
		prev.Close()
	}
	outbox := NewOutbox(conn, s.cfg.OutboxSize, s.cfg.SendTimeout)
	if !s.peers.Join(conn.Id(), req.Name, req.Version, role, outbox) {
		log.Printf("[server] WARN join from unknown connection %s", conn.Id())
		return
	}
	go outbox.Run()

	accepted := messages.JoinAccepted{
		PeerID:     conn.Id(),
		ServerName: s.cfg.Name,
		TickRate:   s.cfg.TickRate,
		ChunkSize:  s.cfg.ChunkSize,
	}
	if err := outbox.Send(accepted); err != nil {
		s.dropPeer(conn.Id(), err)
		return
	}
	log.Printf("[server] %s joined as %s (%s)", conn.Id(), role, req.Name)

	id := conn.Id()
	s.Submit(func(cam *orthocam.OrthoCamera) {
		s.syncObserver(cam, id)
	})
}

// syncObserver brings a newly joined peer up to date.
func (s *Server) syncObserver(cam *orthocam.OrthoCamera, id string) {
	if !cam.CheckObserver(id) {
		return
	}
	out := s.peers.Outbox(id)
	if out == nil {
		return
	}
	if err := out.Send(cam.Snapshot()); err != nil {
		s.dropPeer(id, err)
		return
	}
	if cam.MapColor.Get() {
		if cube := s.luts.CurrentLUT(); cube != nil {
			s.bcast.SendLUT(id, cube)
		}
	}
}

func (s *Server) onLUTReceived(conn Conn, ack messages.LUTReceived) {
	id := conn.Id()
	s.Submit(func(*orthocam.OrthoCamera) {
		s.bcast.HandleAck(id, ack)
	})
}

func (s *Server) onDisconnect(conn Conn, err error) {
	if err != nil {
		log.Printf("[server] client %s disconnected with error: %v", conn.Id(), err)
	} else {
		log.Printf("[server] client %s disconnected", conn.Id())
	}
	s.removePeer(conn.Id())
}

func (s *Server) dropPeer(id string, err error) {
	log.Printf("[server] WARN dropping slow peer %s: %v", id, err)
	p := s.removePeer(id)
	if p == nil {
		return
	}
	if closer, ok := p.conn.(interface{ CloseNow() error }); ok {
		_ = closer.CloseNow()
	}
}

func (s *Server) removePeer(id string) *Peer {
	p := s.peers.Remove(id)
	if p == nil {
		return nil
	}
	if p.outbox != nil {
		p.outbox.Close()
	}
	s.bcast.ForgetPeer(id)
	return p
}

// Submit queues cmd for the loop goroutine. It returns false when the queue
// is full.
func (s *Server) Submit(cmd Command) bool {
	select {
	case s.commands <- cmd:
		return true
	default:
		log.Println("[server] WARN command queue full, dropping command")
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (s *Server) Do(ctx context.Context, fn Command) error {
	done := make(chan struct{})
	cmd := func(cam *orthocam.OrthoCamera) {
		defer close(done)
		fn(cam)
	}
	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessCommands runs every queued command, then persists the geometry if
// it changed.
func (s *Server) ProcessCommands() {
	for {
		select {
		case cmd := <-s.commands:
			cmd(s.cam)
		default:
			s.persist()
			return
		}
	}
}

// ApplyGeometry queues the fields present in g.
func (s *Server) ApplyGeometry(g config.GeometryConfig) {
	if g.Empty() {
		return
	}
	s.Submit(func(cam *orthocam.OrthoCamera) {
		ApplyGeometry(cam, g)
	})
}

// SelectLUT makes cube the current table and re-broadcasts it if colour
// mapping is on. A nil cube clears the table on the host and on observers.
func (s *Server) SelectLUT(name string, cube *lut.Cube) {
	s.luts.Set(name, cube)
	s.Submit(func(cam *orthocam.OrthoCamera) {
		if cube == nil {
			cam.RefreshLUT()
			log.Printf("[server] cleared LUT on host and %d observers", s.ObserverCount())
			return
		}
		if cam.RefreshLUT() {
			log.Printf("[server] broadcast LUT %q to %d observers", name, s.ObserverCount())
		}
	})
}

// LUTs returns the lookup-table selection.
func (s *Server) LUTs() *LUTStore {
	return s.luts
}

// Peers returns the peer table.
func (s *Server) Peers() *PeerTable {
	return s.peers
}

// ObserverCount returns the number of environment peers.
func (s *Server) ObserverCount() int {
	return s.peers.Count(netconfig.RoleEnvironment)
}

// DirectoryStatus reports the observer count and a summary of the current
// display for the directory listing. The summary is left out when the loop
// does not answer in time.
func (s *Server) DirectoryStatus() directory.Status {
	st := directory.Status{Observers: s.ObserverCount()}

	ctx, cancel := context.WithTimeout(context.Background(), s.statusTimeout)
	defer cancel()
	var d directory.Display
	err := s.Do(ctx, func(cam *orthocam.OrthoCamera) {
		d = directory.Display{
			ScreenToEye:  cam.ScreenToEye.Get(),
			ScreenHeight: cam.ScreenHeight.Get(),
			ScreenAspect: cam.ScreenAspect.Get(),
			WidthDeg:     cam.Width(),
			HeightDeg:    cam.Height(),
			MapColor:     cam.MapColor.Get(),
		}
	})
	if err != nil {
		log.Printf("[server] DEBUG display summary unavailable: %v", err)
		return st
	}
	if info, ok := s.luts.Info(); ok {
		d.LUT = info.Name
		d.LUTEdge = info.EdgeSize
	}
	st.Display = &d
	return st
}

func (s *Server) restore() {
	if s.store == nil {
		return
	}
	snap, err := s.store.Load()
	if err != nil {
		log.Printf("[server] WARN could not restore geometry: %v", err)
		return
	}
	if snap == nil {
		return
	}
	if snap.ScreenToEye <= 0 || snap.ScreenHeight < 0 || snap.ScreenAspect <= 0 {
		log.Printf("[server] WARN ignoring saved geometry %+v", *snap)
		return
	}
	// No peers exist yet, so Set only updates the local camera.
	s.cam.SetScreenToEye(snap.ScreenToEye)
	s.cam.SetScreenHeight(snap.ScreenHeight)
	s.cam.SetScreenAspect(snap.ScreenAspect)
	s.cam.SetBGColor(colorFromArray(snap.BGColor))
	s.cam.SetMapColor(snap.MapColor)
	log.Printf("[server] restored geometry: distance %.1f height %.1f aspect %.3f",
		snap.ScreenToEye, snap.ScreenHeight, snap.ScreenAspect)
}

func (s *Server) persist() {
	if s.store == nil {
		return
	}
	snap := s.cam.Snapshot()
	if snap == s.lastSaved {
		return
	}
	if err := s.store.Save(snap); err != nil {
		if !errors.Is(err, errStoreDisabled) {
			log.Printf("[server] WARN could not save geometry: %v", err)
		}
		return
	}
	s.lastSaved = snap
}
