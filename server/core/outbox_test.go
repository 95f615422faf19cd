package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/experica/orthocam/shared/messages"
	"github.com/experica/orthocam/shared/netconfig"
)

func TestOutboxPreservesOrder(t *testing.T) {
	conn := newFakeConn("a")
	out := NewOutbox(conn, 8, time.Second)
	go out.Run()
	defer out.Close()

	for i := 1; i <= 5; i++ {
		if err := out.Send(messages.ScreenToEyeUpdate{Value: float32(i)}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	waitFor(t, "delivery", func() bool { return len(conn.messages()) == 5 })
	for i, m := range conn.messages() {
		if got := m.(messages.ScreenToEyeUpdate).Value; got != float32(i+1) {
			t.Errorf("message %d = %v, want %d", i, got, i+1)
		}
	}
}

func TestOutboxEnqueueBlocksWhenFull(t *testing.T) {
	out := NewOutbox(newFakeConn("a"), 1, time.Second)
	defer out.Close()

	if err := out.Enqueue(context.Background(), 1); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := out.Enqueue(ctx, 2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if out.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", out.Pending())
	}
}

func TestOutboxClosed(t *testing.T) {
	out := NewOutbox(newFakeConn("a"), 1, time.Second)
	out.Close()
	out.Close()

	if err := out.Send(1); !errors.Is(err, ErrOutboxClosed) {
		t.Errorf("err = %v, want ErrOutboxClosed", err)
	}
}

func TestOutboxStopsOnWriteError(t *testing.T) {
	conn := newFakeConn("a")
	conn.fail()
	out := NewOutbox(conn, 4, time.Second)
	go out.Run()

	_ = out.Send(1)
	select {
	case <-out.Done():
	case <-time.After(time.Second):
		t.Fatal("outbox still open after write error")
	}
}

func TestPeerTableRoles(t *testing.T) {
	table := NewPeerTable()
	for _, id := range []string{"c", "a", "b"} {
		table.Add(newFakeConn(id))
	}
	table.Join("a", "left", "1", netconfig.RoleEnvironment, nil)
	table.Join("c", "right", "1", netconfig.RoleEnvironment, nil)
	table.Join("b", "console", "1", netconfig.RoleCommand, nil)

	if table.Join("missing", "", "", netconfig.RoleEnvironment, nil) {
		t.Error("Join of unknown connection succeeded")
	}
	got := table.PeerRoleConnections(netconfig.RoleEnvironment)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("environment peers = %v, want [a c]", got)
	}
	if !table.IsPeerRole("b", netconfig.RoleCommand) || table.IsPeerRole("b", netconfig.RoleEnvironment) {
		t.Error("IsPeerRole misclassified b")
	}
	if table.IsPeerRole("zzz", netconfig.RoleEnvironment) {
		t.Error("unknown connection classified as environment")
	}

	if p := table.Remove("a"); p == nil || p.Name != "left" {
		t.Errorf("Remove returned %+v", p)
	}
	if table.Remove("a") != nil {
		t.Error("second Remove returned a peer")
	}
	if n := table.Count(netconfig.RoleEnvironment); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	list := table.List()
	if len(list) != 2 || list[0].ID != "b" || list[0].Role != "command" {
		t.Errorf("List = %+v", list)
	}
}
