package scenes

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/experica/orthocam/components"
	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/network"
	"github.com/experica/orthocam/orthocam"
	"github.com/experica/orthocam/render"
	"github.com/experica/orthocam/shared/directory"
	"github.com/experica/orthocam/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

const reconnectDelay = 2 * time.Second

// Render layers.
const (
	LayerDefault ecs.LayerID = iota
	LayerOverlay
)

// DisplayScene renders the stimulus viewport of an environment peer and keeps
// its observer camera in sync with the command host.
type DisplayScene struct {
	cfg      *config.ClientConfig
	ecsWorld *ecs.ECS
	cam      *orthocam.OrthoCamera
	panel    *render.ViewportPanel
	once     sync.Once

	netClient *network.Client
	retryAt   time.Time
	discover  *http.Client
	resolved  chan string
	resolving bool
}

func NewDisplayScene(cfg *config.ClientConfig) *DisplayScene {
	return &DisplayScene{
		cfg:      cfg,
		discover: &http.Client{Timeout: 5 * time.Second},
		resolved: make(chan string, 1),
	}
}

func (ds *DisplayScene) configure() {
	world := donburi.NewWorld()
	entry := components.NewCameraEntity(world)
	ds.cam = orthocam.New(orthocam.Deps{Sink: components.NewCameraSink(entry)})
	ds.panel = render.NewViewportPanel()
	ds.cam.AddChangeListener(ds.updateViewport)
	ds.updateViewport()

	ds.ecsWorld = ecs.NewECS(world)
	ds.ecsWorld.AddSystem(systems.NewNetCameraSystem(ds, ds.cam, ds.send))
	ds.ecsWorld.AddRenderer(LayerDefault, render.NewViewportRenderer(ds.cfg.GridStep))
	ds.ecsWorld.AddRenderer(LayerOverlay, func(_ *ecs.ECS, screen *ebiten.Image) {
		if ds.cfg.ShowInfo {
			ds.panel.Draw(screen)
		}
	})
}

// updateViewport runs whenever distance, height or aspect change.
func (ds *DisplayScene) updateViewport() {
	log.Printf("[display] DEBUG viewport %.2f x %.2f deg", ds.cam.Width(), ds.cam.Height())
	ds.panel.SetGeometry(render.Geometry{
		ScreenToEye:  ds.cam.ScreenToEye.Get(),
		ScreenHeight: ds.cam.ScreenHeight.Get(),
		Aspect:       ds.cam.ScreenAspect.Get(),
		WidthDeg:     ds.cam.Width(),
		HeightDeg:    ds.cam.Height(),
		Near:         ds.cam.NearPlane(),
		Far:          ds.cam.FarPlane(),
	})
}

func (ds *DisplayScene) connectionStatus() string {
	switch {
	case ds.netClient != nil && ds.netClient.State() == network.StateJoined:
		return fmt.Sprintf("joined %s as %s", ds.netClient.ServerName(), ds.netClient.PeerID())
	case ds.netClient != nil:
		return ds.netClient.State().String()
	case ds.resolving:
		return "discovering"
	}
	return "waiting to reconnect"
}

// DrainUpdates forwards to the current connection so the camera system
// survives reconnects.
func (ds *DisplayScene) DrainUpdates() []any {
	if ds.netClient == nil {
		return nil
	}
	return ds.netClient.DrainUpdates()
}

func (ds *DisplayScene) send(msg any) error {
	if ds.netClient == nil || ds.netClient.State() != network.StateJoined {
		return nil
	}
	return ds.netClient.SendMessage(msg)
}

func (ds *DisplayScene) Update() {
	ds.once.Do(ds.configure)

	ds.handleKeys()
	ds.maintainConnection()
	ds.ecsWorld.Update()
	if ds.cfg.ShowInfo {
		ds.panel.Update(ds.ecsWorld, ds.connectionStatus())
	}
}

func (ds *DisplayScene) Draw(screen *ebiten.Image) {
	if ds.ecsWorld == nil {
		return
	}
	ds.ecsWorld.Draw(screen)
}

// Close drops the connection.
func (ds *DisplayScene) Close() {
	if ds.netClient != nil {
		ds.netClient.Disconnect()
		ds.netClient = nil
	}
}

func (ds *DisplayScene) handleKeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		ds.cfg.Fullscreen = !ds.cfg.Fullscreen
		ebiten.SetFullscreen(ds.cfg.Fullscreen)
		_ = systems.SaveDisplay(ds.cfg)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		ds.cfg.ShowInfo = !ds.cfg.ShowInfo
		_ = systems.SaveDisplay(ds.cfg)
	}
}

func (ds *DisplayScene) maintainConnection() {
	if ds.netClient != nil {
		state := ds.netClient.State()
		if state != network.StateDisconnected && state != network.StateError {
			return
		}
		if err := ds.netClient.LastError(); err != nil {
			log.Printf("[display] WARN connection lost: %v", err)
		} else {
			log.Println("[display] disconnected, retrying")
		}
		ds.netClient.Disconnect()
		ds.netClient = nil
		ds.retryAt = time.Now().Add(reconnectDelay)
		return
	}

	if ds.resolving {
		select {
		case address := <-ds.resolved:
			ds.resolving = false
			if address != "" {
				ds.connect(address)
			}
		default:
		}
		return
	}

	if time.Now().Before(ds.retryAt) {
		return
	}
	ds.retryAt = time.Now().Add(reconnectDelay)

	if ds.cfg.MasterURL == "" {
		ds.connect(ds.cfg.Address)
		return
	}
	ds.resolving = true
	go ds.resolve()
}

// resolve asks the directory for a host and reports its address, or "" on
// failure.
func (ds *DisplayScene) resolve() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hosts, err := network.Discover(ctx, ds.discover, ds.cfg.MasterURL, ds.cfg.Version)
	var host directory.Host
	if err == nil {
		host, err = network.PickHost(hosts, "")
	}
	if err != nil {
		log.Printf("[display] WARN discovery failed: %v", err)
	} else {
		log.Printf("[display] found host %q at %s (%d observers, %s)", host.Name, host.Address, host.Observers, host.Display)
	}
	ds.resolved <- host.Address
}

func (ds *DisplayScene) connect(address string) {
	log.Printf("[display] connecting to %s", address)
	ds.netClient = network.NewClient(ds.cfg.InboxSize)
	ds.netClient.Connect(address, ds.cfg.Version, ds.cfg.Name)
}
