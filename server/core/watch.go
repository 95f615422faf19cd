package core

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/orthocam"
	"github.com/experica/orthocam/shared/lut"
	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 150 * time.Millisecond

// ConfigWatcher reloads the geometry section of the host config and the
// selected .cube file when they change on disk.
type ConfigWatcher struct {
	watcher    *fsnotify.Watcher
	server     *Server
	configPath string
	lutPath    string

	closeCh chan struct{}
	once    sync.Once
}

// NewConfigWatcher watches the directories holding configPath and lutPath.
// Either path may be empty.
func NewConfigWatcher(server *Server, configPath, lutPath string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]struct{})
	for _, p := range []string{configPath, lutPath} {
		if p != "" {
			dirs[filepath.Dir(p)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return &ConfigWatcher{
		watcher:    w,
		server:     server,
		configPath: cleanPath(configPath),
		lutPath:    cleanPath(lutPath),
		closeCh:    make(chan struct{}),
	}, nil
}

func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

func (w *ConfigWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// Run handles file events until ctx is done or Close is called. Events are
// coalesced until a file has been quiet for watchDebounce.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if name != w.configPath && name != w.lutPath {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(watchDebounce)
		case <-timer.C:
			for name := range pending {
				w.reload(name)
				delete(pending, name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] WARN watcher error: %v", err)
		case <-w.closeCh:
			return nil
		case <-ctx.Done():
			_ = w.Close()
			return nil
		}
	}
}

func (w *ConfigWatcher) reload(path string) {
	switch path {
	case w.configPath:
		g, err := config.LoadGeometry(path)
		if err != nil {
			log.Printf("[watch] ERROR reload %s: %v", path, err)
			return
		}
		log.Printf("[watch] reloading geometry from %s", path)
		w.server.Submit(func(cam *orthocam.OrthoCamera) {
			ApplyGeometry(cam, g)
		})
	case w.lutPath:
		cube, err := lut.LoadFile(path)
		if err != nil {
			log.Printf("[watch] ERROR reload %s: %v", path, err)
			return
		}
		log.Printf("[watch] reloading LUT from %s (size %d)", path, cube.Size)
		w.server.SelectLUT(filepath.Base(path), cube)
	}
}
