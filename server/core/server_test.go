package core

import (
	"context"
	"testing"
	"time"

	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/orthocam"
	"github.com/experica/orthocam/shared/lut"
	"github.com/experica/orthocam/shared/messages"
)

func joinPeer(t *testing.T, s *Server, id, role string) *fakeConn {
	t.Helper()
	conn := newFakeConn(id)
	s.onConnect(conn)
	s.onJoin(conn, messages.JoinRequest{Name: id, Role: role})
	s.ProcessCommands()
	return conn
}

func TestEnvironmentJoinReceivesSnapshotAndLUT(t *testing.T) {
	s := newTestServer(t, nil)
	s.LUTs().Set("identity", lut.Identity(17))

	conn := joinPeer(t, s, "env-1", "environment")

	waitFor(t, "LUT chunk", func() bool { return countOf[messages.LUTChunk](conn.messages()) == 1 })
	msgs := conn.messages()
	if _, ok := msgs[0].(messages.JoinAccepted); !ok {
		t.Fatalf("first message = %T, want JoinAccepted", msgs[0])
	}
	snap, ok := msgs[1].(messages.GeometrySnapshot)
	if !ok {
		t.Fatalf("second message = %T, want GeometrySnapshot", msgs[1])
	}
	if snap.ScreenToEye != 57 || snap.ScreenHeight != 30 || !snap.MapColor {
		t.Errorf("snapshot = %+v", snap)
	}
	begin, ok := msgs[2].(messages.LUTBegin)
	if !ok {
		t.Fatalf("third message = %T, want LUTBegin", msgs[2])
	}
	if begin.EdgeSize != 17 || begin.TotalBytes != 3*17*17*17 || begin.ChunkCount != 1 {
		t.Errorf("begin = %+v", begin)
	}
	if s.ObserverCount() != 1 {
		t.Errorf("ObserverCount = %d, want 1", s.ObserverCount())
	}
}

func TestJoinWithoutLUTSendsOnlySnapshot(t *testing.T) {
	s := newTestServer(t, nil)
	conn := joinPeer(t, s, "env-1", "environment")

	waitFor(t, "snapshot", func() bool { return countOf[messages.GeometrySnapshot](conn.messages()) == 1 })
	if n := countOf[messages.LUTBegin](conn.messages()); n != 0 {
		t.Errorf("got %d LUT transfers, want 0", n)
	}
}

func TestJoinVersionMismatchRejected(t *testing.T) {
	s := newTestServer(t, nil)
	s.cfg.Version = "1.0"

	conn := newFakeConn("env-1")
	s.onConnect(conn)
	s.onJoin(conn, messages.JoinRequest{Version: "0.9", Role: "environment"})

	msgs := conn.messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if _, ok := msgs[0].(messages.JoinRejected); !ok {
		t.Errorf("message = %T, want JoinRejected", msgs[0])
	}
	if s.ObserverCount() != 0 {
		t.Errorf("rejected peer counted as observer")
	}
}

func TestJoinUnknownRoleRejected(t *testing.T) {
	s := newTestServer(t, nil)
	conn := newFakeConn("x")
	s.onConnect(conn)
	s.onJoin(conn, messages.JoinRequest{Role: "projector"})

	if _, ok := lastOf[messages.JoinRejected](conn.messages()); !ok {
		t.Error("expected JoinRejected")
	}
}

func TestCommandPeerDoesNotObserve(t *testing.T) {
	s := newTestServer(t, nil)
	cmd := joinPeer(t, s, "cmd-1", "command")
	env := joinPeer(t, s, "env-1", "environment")

	waitFor(t, "env snapshot", func() bool { return countOf[messages.GeometrySnapshot](env.messages()) == 1 })

	s.Submit(func(cam *orthocam.OrthoCamera) { cam.SetScreenToEye(60) })
	s.ProcessCommands()

	waitFor(t, "delta", func() bool { return countOf[messages.ScreenToEyeUpdate](env.messages()) == 1 })
	msgs := cmd.messages()
	if countOf[messages.JoinAccepted](msgs) != 1 {
		t.Errorf("command peer not accepted: %v", msgs)
	}
	if countOf[messages.GeometrySnapshot](msgs)+countOf[messages.ScreenToEyeUpdate](msgs) != 0 {
		t.Errorf("command peer received geometry: %v", msgs)
	}
}

func TestSetterBroadcastsDelta(t *testing.T) {
	s := newTestServer(t, nil)
	conn := joinPeer(t, s, "env-1", "environment")
	waitFor(t, "snapshot", func() bool { return countOf[messages.GeometrySnapshot](conn.messages()) == 1 })
	conn.reset()

	s.Submit(func(cam *orthocam.OrthoCamera) {
		cam.SetScreenHeight(40)
		cam.SetScreenHeight(40)
	})
	s.ProcessCommands()

	waitFor(t, "delta", func() bool { return countOf[messages.ScreenHeightUpdate](conn.messages()) == 1 })
	got, _ := lastOf[messages.ScreenHeightUpdate](conn.messages())
	if got.Value != 40 {
		t.Errorf("delta = %v, want 40", got.Value)
	}
	if n := len(conn.messages()); n != 1 {
		t.Errorf("got %d messages, want 1 (equal set is a no-op)", n)
	}
}

func TestSelectLUTRebroadcasts(t *testing.T) {
	s := newTestServer(t, nil)
	conn := joinPeer(t, s, "env-1", "environment")
	waitFor(t, "snapshot", func() bool { return countOf[messages.GeometrySnapshot](conn.messages()) == 1 })

	s.SelectLUT("warm", lut.Identity(4))
	s.ProcessCommands()

	waitFor(t, "LUT", func() bool { return countOf[messages.LUTChunk](conn.messages()) == 1 })
	begin, _ := lastOf[messages.LUTBegin](conn.messages())
	if begin.EdgeSize != 4 {
		t.Errorf("EdgeSize = %d, want 4", begin.EdgeSize)
	}
	if s.bcast.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", s.bcast.Pending())
	}

	s.onLUTReceived(conn, messages.LUTReceived{TransferID: begin.TransferID, OK: true})
	s.ProcessCommands()
	if s.bcast.Pending() != 0 {
		t.Errorf("Pending after ack = %d, want 0", s.bcast.Pending())
	}
}

func TestFailedAckAfterReselectDoesNotRestoreOldTable(t *testing.T) {
	s := newTestServer(t, nil)
	s.SelectLUT("a", lut.Identity(3))
	s.ProcessCommands()
	conn := joinPeer(t, s, "env-1", "environment")
	waitFor(t, "table a", func() bool { return countOf[messages.LUTBegin](conn.messages()) == 1 })
	first, _ := lastOf[messages.LUTBegin](conn.messages())

	s.SelectLUT("b", lut.Identity(5))
	s.ProcessCommands()
	waitFor(t, "table b", func() bool { return countOf[messages.LUTBegin](conn.messages()) == 2 })
	if s.bcast.Pending() != 1 {
		t.Errorf("Pending = %d, want 1 (transfer of a superseded)", s.bcast.Pending())
	}

	s.onLUTReceived(conn, messages.LUTReceived{TransferID: first.TransferID, OK: false, Reason: "superseded"})
	s.ProcessCommands()
	time.Sleep(20 * time.Millisecond)

	last, _ := lastOf[messages.LUTBegin](conn.messages())
	if last.EdgeSize != 5 {
		t.Errorf("last transfer sent has edge %d, want 5", last.EdgeSize)
	}
	if n := countOf[messages.LUTBegin](conn.messages()); n != 2 {
		t.Errorf("sent %d transfers, want 2", n)
	}
}

func TestFailedAckAfterMapColorOffNotResent(t *testing.T) {
	s := newTestServer(t, nil)
	s.SelectLUT("a", lut.Identity(3))
	s.ProcessCommands()
	conn := joinPeer(t, s, "env-1", "environment")
	waitFor(t, "table", func() bool { return countOf[messages.LUTBegin](conn.messages()) == 1 })
	begin, _ := lastOf[messages.LUTBegin](conn.messages())

	s.Submit(func(cam *orthocam.OrthoCamera) { cam.SetMapColor(false) })
	s.onLUTReceived(conn, messages.LUTReceived{TransferID: begin.TransferID, OK: false, Reason: "checksum"})
	s.ProcessCommands()
	time.Sleep(20 * time.Millisecond)

	if n := countOf[messages.LUTBegin](conn.messages()); n != 1 {
		t.Errorf("sent %d transfers, want 1 (no resend while mapping is off)", n)
	}
	if s.bcast.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", s.bcast.Pending())
	}
}

func TestSelectLUTWhileMapColorOff(t *testing.T) {
	s := newTestServer(t, nil)
	conn := joinPeer(t, s, "env-1", "environment")
	s.Submit(func(cam *orthocam.OrthoCamera) { cam.SetMapColor(false) })
	s.ProcessCommands()

	s.SelectLUT("warm", lut.Identity(4))
	s.ProcessCommands()

	waitFor(t, "map color delta", func() bool { return countOf[messages.MapColorUpdate](conn.messages()) == 1 })
	if n := countOf[messages.LUTBegin](conn.messages()); n != 0 {
		t.Errorf("got %d LUT transfers while color mapping is off", n)
	}
}

func TestDisconnectRemovesPeer(t *testing.T) {
	s := newTestServer(t, nil)
	conn := joinPeer(t, s, "env-1", "environment")
	out := s.peers.Outbox("env-1")

	s.onDisconnect(conn, nil)

	if s.ObserverCount() != 0 {
		t.Errorf("ObserverCount = %d, want 0", s.ObserverCount())
	}
	select {
	case <-out.Done():
	default:
		t.Error("outbox not closed")
	}
}

func TestDoRunsOnLoop(t *testing.T) {
	s := newTestServer(t, nil)
	startLoop(t, s)

	var height float32
	err := s.Do(context.Background(), func(cam *orthocam.OrthoCamera) {
		height = cam.Height()
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if height < 29.3 || height > 29.4 {
		t.Errorf("Height = %v, want ~29.33", height)
	}
}

func TestDoHonorsContext(t *testing.T) {
	s := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Do(ctx, func(*orthocam.OrthoCamera) {}); err == nil {
		t.Error("expected context error without a running loop")
	}
}

func TestApplyGeometryPartial(t *testing.T) {
	s := newTestServer(t, nil)
	d := float32(100)
	off := false
	s.ApplyGeometry(config.GeometryConfig{ScreenToEye: &d, MapColor: &off})
	s.ProcessCommands()

	st := s.cam.State()
	if st.ScreenToEye != 100 || st.MapColor {
		t.Errorf("state = %+v", st)
	}
	if st.ScreenHeight != 30 {
		t.Errorf("ScreenHeight changed to %v", st.ScreenHeight)
	}
}
