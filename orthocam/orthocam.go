// Package orthocam synchronizes viewing geometry from a controlling host to
// rendering clients and applies it to an orthographic camera measured in
// degrees of visual angle.
//
// The same type runs on both ends. On the command host it is the authority:
// setters run the change hooks locally and publish per-field deltas. On an
// environment client it is an observer: received deltas are applied through
// the same hooks without publishing.
package orthocam

import (
	"errors"
	"fmt"

	"github.com/experica/orthocam/shared/geometry"
	"github.com/experica/orthocam/shared/lut"
	"github.com/experica/orthocam/shared/messages"
	"github.com/experica/orthocam/shared/netconfig"
	"github.com/experica/orthocam/shared/replica"
)

// ErrUnknownMessage is returned by Apply for messages it does not handle.
var ErrUnknownMessage = errors.New("orthocam: unknown message")

// ObserverRole is the peer role allowed to observe the camera.
const ObserverRole = netconfig.RoleEnvironment

// StateSink receives camera and post-processing state.
type StateSink interface {
	Projection() geometry.Projection
	SetOrthographicSize(degrees float32)
	SetAspect(aspect float32)
	SetBackgroundHDR(c geometry.Color)
	// SetTonemapping toggles the tone-mapping effect and reports whether the
	// camera has one.
	SetTonemapping(active bool) bool
	// SetLUT replaces the tone-mapping lookup texture and reports whether the
	// camera has a tone-mapping effect to hold it.
	SetLUT(c *lut.Cube) bool
}

// PeerRegistry classifies network connections by role.
type PeerRegistry interface {
	IsPeerRole(conn string, role netconfig.PeerRole) bool
	PeerRoleConnections(role netconfig.PeerRole) []string
}

// LUTSource provides the lookup table currently selected for the display.
type LUTSource interface {
	CurrentLUT() *lut.Cube
}

// Publisher sends authority changes to observers.
type Publisher interface {
	Publish(msg any)
	PublishLUT(c *lut.Cube)
	// ClearLUT tells observers to drop their table.
	ClearLUT()
}

// Deps are the collaborators of an OrthoCamera. Only Sink is required;
// observers leave LUTs and Publisher nil.
type Deps struct {
	Sink      StateSink
	Peers     PeerRegistry
	LUTs      LUTSource
	Publisher Publisher
}

// OrthoCamera holds the replicated viewing geometry.
type OrthoCamera struct {
	ScreenToEye  *replica.Property[float32]
	ScreenHeight *replica.Property[float32]
	ScreenAspect *replica.Property[float32]
	BGColor      *replica.Property[geometry.Color]
	MapColor     *replica.Property[bool]

	sink      StateSink
	peers     PeerRegistry
	luts      LUTSource
	publisher Publisher
	listeners []func()
	live      bool
}

// New creates a camera with default geometry and brings the sink in line
// with it. Nothing is published during construction.
func New(deps Deps) *OrthoCamera {
	c := &OrthoCamera{
		sink:      deps.Sink,
		peers:     deps.Peers,
		luts:      deps.LUTs,
		publisher: deps.Publisher,
	}

	c.ScreenToEye = replica.New("ScreenToEye", geometry.DefaultScreenToEye, c.onScreenToEye)
	c.ScreenHeight = replica.New("ScreenHeight", geometry.DefaultScreenHeight, c.onScreenHeight)
	c.ScreenAspect = replica.New("ScreenAspect", geometry.DefaultScreenAspect, c.onScreenAspect)
	c.BGColor = replica.New("BGColor", geometry.Gray, c.onBGColor)
	c.MapColor = replica.New("MapColor", geometry.DefaultMapColor, c.onMapColor)

	if c.publisher != nil {
		c.ScreenToEye.OnPublish(func(v float32) { c.publisher.Publish(messages.ScreenToEyeUpdate{Value: v}) })
		c.ScreenHeight.OnPublish(func(v float32) { c.publisher.Publish(messages.ScreenHeightUpdate{Value: v}) })
		c.ScreenAspect.OnPublish(func(v float32) { c.publisher.Publish(messages.ScreenAspectUpdate{Value: v}) })
		c.BGColor.OnPublish(func(v geometry.Color) { c.publisher.Publish(messages.BGColorUpdate{Color: v.Array()}) })
		c.MapColor.OnPublish(func(v bool) { c.publisher.Publish(messages.MapColorUpdate{Enabled: v}) })
	}

	c.ScreenToEye.Sync()
	c.ScreenHeight.Sync()
	c.ScreenAspect.Sync()
	c.BGColor.Sync()
	c.MapColor.Sync()
	c.live = true

	return c
}

// AddChangeListener registers fn to run whenever distance, height or aspect
// change.
func (c *OrthoCamera) AddChangeListener(fn func()) {
	c.listeners = append(c.listeners, fn)
}

func (c *OrthoCamera) notify() {
	for _, fn := range c.listeners {
		fn()
	}
}

func (c *OrthoCamera) onScreenToEye(d float32) {
	c.sink.SetOrthographicSize(geometry.HalfAngle(c.ScreenHeight.Get(), d))
	c.notify()
}

func (c *OrthoCamera) onScreenHeight(h float32) {
	c.sink.SetOrthographicSize(geometry.HalfAngle(h, c.ScreenToEye.Get()))
	c.notify()
}

func (c *OrthoCamera) onScreenAspect(r float32) {
	c.sink.SetAspect(r)
	c.notify()
}

// Background changes do not fire change listeners.
func (c *OrthoCamera) onBGColor(col geometry.Color) {
	c.sink.SetBackgroundHDR(col)
}

func (c *OrthoCamera) onMapColor(enabled bool) {
	if !c.sink.SetTonemapping(enabled) || !enabled {
		return
	}
	c.relayLUT()
}

// relayLUT applies the current table locally and, once construction is done,
// publishes it to observers.
func (c *OrthoCamera) relayLUT() bool {
	if c.luts == nil {
		return false
	}
	cube := c.luts.CurrentLUT()
	if cube == nil {
		return false
	}
	if !c.sink.SetLUT(cube) {
		return false
	}
	if c.live && c.publisher != nil {
		c.publisher.PublishLUT(cube)
	}
	return true
}

// SetScreenToEye sets the eye-to-screen distance.
func (c *OrthoCamera) SetScreenToEye(d float32) { c.ScreenToEye.Set(d) }

// SetScreenHeight sets the physical viewport height.
func (c *OrthoCamera) SetScreenHeight(h float32) { c.ScreenHeight.Set(h) }

// SetScreenAspect sets the width/height ratio. The value is not validated.
func (c *OrthoCamera) SetScreenAspect(r float32) { c.ScreenAspect.Set(r) }

// SetBGColor sets the background color.
func (c *OrthoCamera) SetBGColor(col geometry.Color) { c.BGColor.Set(col) }

// SetMapColor toggles color mapping.
func (c *OrthoCamera) SetMapColor(enabled bool) { c.MapColor.Set(enabled) }

// RefreshLUT re-applies and re-publishes the current table after the LUT
// source changed. A source left without a table clears it everywhere, even
// while color mapping is off; otherwise nothing happens until mapping is on.
func (c *OrthoCamera) RefreshLUT() bool {
	if c.luts != nil && c.luts.CurrentLUT() == nil {
		c.clearLUT()
		return false
	}
	if !c.MapColor.Get() {
		return false
	}
	return c.relayLUT()
}

func (c *OrthoCamera) clearLUT() {
	if !c.sink.SetLUT(nil) {
		return
	}
	if c.live && c.publisher != nil {
		c.publisher.ClearLUT()
	}
}

// LiveLUT returns the table observers should hold right now: the current
// selection while color mapping is on, otherwise nil.
func (c *OrthoCamera) LiveLUT() *lut.Cube {
	if c.luts == nil || !c.MapColor.Get() {
		return nil
	}
	return c.luts.CurrentLUT()
}

// Apply mirrors one geometry message received from the authority.
func (c *OrthoCamera) Apply(msg any) error {
	switch m := msg.(type) {
	case messages.ScreenToEyeUpdate:
		c.ScreenToEye.Apply(m.Value)
	case messages.ScreenHeightUpdate:
		c.ScreenHeight.Apply(m.Value)
	case messages.ScreenAspectUpdate:
		c.ScreenAspect.Apply(m.Value)
	case messages.BGColorUpdate:
		c.BGColor.Apply(geometry.ColorFromArray(m.Color))
	case messages.MapColorUpdate:
		c.MapColor.Apply(m.Enabled)
	case messages.GeometrySnapshot:
		c.ApplySnapshot(m)
	case messages.LUTCleared:
		c.sink.SetLUT(nil)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}
	return nil
}

// ApplySnapshot mirrors every field at once.
func (c *OrthoCamera) ApplySnapshot(s messages.GeometrySnapshot) {
	c.ScreenToEye.Apply(s.ScreenToEye)
	c.ScreenHeight.Apply(s.ScreenHeight)
	c.ScreenAspect.Apply(s.ScreenAspect)
	c.BGColor.Apply(geometry.ColorFromArray(s.BGColor))
	c.MapColor.Apply(s.MapColor)
}

// Snapshot captures every replicated field.
func (c *OrthoCamera) Snapshot() messages.GeometrySnapshot {
	return messages.GeometrySnapshot{
		ScreenToEye:  c.ScreenToEye.Get(),
		ScreenHeight: c.ScreenHeight.Get(),
		ScreenAspect: c.ScreenAspect.Get(),
		BGColor:      c.BGColor.Get().Array(),
		MapColor:     c.MapColor.Get(),
	}
}

// ApplyLUT rebuilds a lookup table from a received RGB24 payload. The
// payload must hold exactly edgeSize³ × 3 bytes.
func (c *OrthoCamera) ApplyLUT(payload []byte, edgeSize int) error {
	cube, err := lut.New(edgeSize, payload)
	if err != nil {
		return err
	}
	c.sink.SetLUT(cube)
	return nil
}

// Height of the viewport in degrees.
func (c *OrthoCamera) Height() float32 { return c.sink.Projection().Height() }

// Width of the viewport in degrees.
func (c *OrthoCamera) Width() float32 { return c.sink.Projection().Width() }

// NearPlane is the world-space near clip distance.
func (c *OrthoCamera) NearPlane() float32 { return c.sink.Projection().NearPlane() }

// FarPlane is the world-space far clip distance.
func (c *OrthoCamera) FarPlane() float32 { return c.sink.Projection().FarPlane() }

// CheckObserver reports whether conn may receive replication.
func (c *OrthoCamera) CheckObserver(conn string) bool {
	if c.peers == nil {
		return false
	}
	return c.peers.IsPeerRole(conn, ObserverRole)
}

// RebuildObservers adds every qualifying connection to observers and reports
// whether any exist.
func (c *OrthoCamera) RebuildObservers(observers map[string]struct{}) bool {
	if c.peers == nil {
		return false
	}
	conns := c.peers.PeerRoleConnections(ObserverRole)
	if len(conns) == 0 {
		return false
	}
	for _, conn := range conns {
		observers[conn] = struct{}{}
	}
	return true
}
