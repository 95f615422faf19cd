package systems

import (
	"fmt"
	"log"

	"github.com/experica/orthocam/orthocam"
	"github.com/experica/orthocam/shared/lut"
	"github.com/experica/orthocam/shared/messages"
	"github.com/yohamta/donburi/ecs"
)

// UpdateSource yields geometry and LUT messages received since the last call.
type UpdateSource interface {
	DrainUpdates() []any
}

// NewNetCameraSystem returns an update system that applies received geometry
// to the observer camera. LUT transfers are reassembled and acknowledged
// through ack.
func NewNetCameraSystem(source UpdateSource, cam *orthocam.OrthoCamera, ack func(any) error) func(*ecs.ECS) {
	rx := NewLUTReceiver(cam, ack)

	return func(_ *ecs.ECS) {
		for _, msg := range source.DrainUpdates() {
			if rx.Handle(msg) {
				continue
			}
			if err := cam.Apply(msg); err != nil {
				log.Printf("[netcamera] WARN dropped message: %v", err)
			}
		}
	}
}

// LUTReceiver reassembles chunked lookup tables for one camera.
type LUTReceiver struct {
	cam     *orthocam.OrthoCamera
	ack     func(any) error
	current *lut.Assembler
}

func NewLUTReceiver(cam *orthocam.OrthoCamera, ack func(any) error) *LUTReceiver {
	return &LUTReceiver{cam: cam, ack: ack}
}

// Handle consumes LUT transfer messages and reports whether msg was one.
// LUTCleared abandons any unfinished transfer but is left for the camera.
func (r *LUTReceiver) Handle(msg any) bool {
	switch m := msg.(type) {
	case messages.LUTBegin:
		r.begin(m)
	case messages.LUTChunk:
		r.chunk(m)
	case messages.LUTCleared:
		r.abandon("table cleared")
		return false
	default:
		return false
	}
	return true
}

// abandon drops an unfinished transfer and tells the host it will not be
// applied.
func (r *LUTReceiver) abandon(reason string) {
	if r.current == nil || r.current.Complete() {
		r.current = nil
		return
	}
	id := r.current.Header().TransferID
	r.current = nil
	log.Printf("[netcamera] LUT transfer %d abandoned: %s", id, reason)
	r.send(messages.LUTReceived{TransferID: id, OK: false, Reason: reason})
}

func (r *LUTReceiver) begin(m messages.LUTBegin) {
	r.abandon(fmt.Sprintf("superseded by %d", m.TransferID))

	a, err := lut.NewAssembler(lut.Header{
		TransferID: m.TransferID,
		EdgeSize:   m.EdgeSize,
		TotalBytes: m.TotalBytes,
		ChunkCount: m.ChunkCount,
		Checksum:   m.Checksum,
	})
	if err != nil {
		r.fail(m.TransferID, err)
		return
	}
	r.current = a
}

func (r *LUTReceiver) chunk(m messages.LUTChunk) {
	if r.current == nil || r.current.Header().TransferID != m.TransferID {
		log.Printf("[netcamera] DEBUG ignoring chunk %d of stale transfer %d", m.Index, m.TransferID)
		return
	}

	done, err := r.current.Add(m.Index, m.Data)
	if err != nil {
		r.current = nil
		r.fail(m.TransferID, err)
		return
	}
	if !done {
		return
	}

	a := r.current
	r.current = nil
	cube, err := a.Cube()
	if err == nil {
		err = r.cam.ApplyLUT(cube.Data, cube.Size)
	}
	if err != nil {
		r.fail(m.TransferID, err)
		return
	}

	log.Printf("[netcamera] applied LUT transfer %d (edge %d, %d bytes)", m.TransferID, cube.Size, len(cube.Data))
	r.send(messages.LUTReceived{TransferID: m.TransferID, OK: true})
}

func (r *LUTReceiver) fail(id uint32, err error) {
	log.Printf("[netcamera] LUT transfer %d failed: %v", id, err)
	r.send(messages.LUTReceived{TransferID: id, OK: false, Reason: err.Error()})
}

func (r *LUTReceiver) send(msg messages.LUTReceived) {
	if r.ack == nil {
		return
	}
	if err := r.ack(msg); err != nil {
		log.Printf("[netcamera] WARN failed to acknowledge LUT transfer %d: %v", msg.TransferID, err)
	}
}
