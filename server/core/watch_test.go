package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/experica/orthocam/orthocam"
)

func TestConfigWatcherReloadsGeometry(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "host.yaml")
	lutPath := filepath.Join(dir, "display.cube")
	if err := os.WriteFile(cfgPath, []byte("geometry:\n  screen_to_eye: 57\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, nil)
	startLoop(t, s)

	w, err := NewConfigWatcher(s, cfgPath, lutPath)
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	if err := os.WriteFile(cfgPath, []byte("geometry:\n  screen_to_eye: 70\n  bg_color: black\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "geometry reload", func() bool {
		var d float32
		_ = s.Do(ctx, func(cam *orthocam.OrthoCamera) { d = cam.ScreenToEye.Get() })
		return d == 70
	})

	if err := os.WriteFile(lutPath, []byte(twoCube), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "lut reload", func() bool {
		info, ok := s.LUTs().Info()
		return ok && info.Name == "display.cube"
	})
}

func TestConfigWatcherIgnoresInvalidGeometry(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "host.yaml")
	if err := os.WriteFile(cfgPath, []byte("geometry: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, nil)
	w, err := NewConfigWatcher(s, cfgPath, "")
	if err != nil {
		t.Fatalf("NewConfigWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(cfgPath, []byte("geometry:\n  screen_to_eye: -3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.reload(cfgPath)
	s.ProcessCommands()
	if d := s.cam.ScreenToEye.Get(); d != 57 {
		t.Errorf("ScreenToEye = %v, want 57", d)
	}
}
