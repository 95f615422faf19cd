package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/server/core"
	"github.com/experica/orthocam/shared/lut"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Host config file (YAML)")
	port := flag.Uint("port", 0, "WebSocket port (overrides config)")
	tickRate := flag.Int("tickrate", 0, "Command loop ticks per second (overrides config)")
	control := flag.String("control", "", "Control API listen address (overrides config)")
	lutPath := flag.String("lut", "", "Color lookup table (.cube) to select at startup")
	masterURL := flag.String("master", "", "Directory URL to register with")
	name := flag.String("name", "", "Host display name (overrides config)")
	version := flag.String("version", "", "Required client version (empty = accept any)")
	logLevel := flag.String("loglevel", "", "Log level: DEBUG, INFO, WARN, ERROR")
	persist := flag.Bool("persist", false, "Restore and save the last geometry")
	reset := flag.Bool("reset", false, "Forget the saved geometry before starting (with -persist)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("[server] %v", err)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["port"] {
		cfg.Port = *port
	}
	if set["tickrate"] {
		cfg.TickRate = *tickRate
	}
	if set["control"] {
		cfg.ControlAddr = *control
	}
	if set["lut"] {
		cfg.LUTPath = *lutPath
	}
	if set["master"] {
		cfg.MasterURL = *masterURL
	}
	if set["name"] {
		cfg.Name = *name
	}
	if set["version"] {
		cfg.Version = *version
	}
	if set["loglevel"] {
		cfg.LogLevel = *logLevel
	}
	if set["persist"] {
		cfg.Persist = *persist
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[server] %v", err)
	}

	config.SetupLogging(cfg.LogLevel)

	var store *core.Store
	if cfg.Persist {
		store, err = core.OpenStore("orthocam")
		if err != nil {
			log.Printf("[server] WARN persistence disabled: %v", err)
		} else if *reset {
			if err := store.Clear(); err != nil {
				log.Printf("[server] WARN could not forget saved geometry: %v", err)
			} else {
				log.Println("[server] saved geometry cleared")
			}
		}
	}

	server := core.NewServer(cfg, store)
	server.ApplyGeometry(cfg.Geometry)
	if cfg.LUTPath != "" {
		cube, err := lut.LoadFile(cfg.LUTPath)
		if err != nil {
			log.Fatalf("[server] %v", err)
		}
		server.SelectLUT(filepath.Base(cfg.LUTPath), cube)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	log.Printf("[server] starting %q on port %d (tick rate: %d/s, version: %q)",
		cfg.Name, cfg.Port, cfg.TickRate, cfg.Version)

	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- server.Start(cfg.Port) }()
		select {
		case err := <-errCh:
			return fmt.Errorf("transport: %w", err)
		case <-ctx.Done():
			server.Stop()
			return nil
		}
	})

	if cfg.ControlAddr != "" {
		httpServer := &http.Server{
			Addr:              cfg.ControlAddr,
			Handler:           core.ControlHandler(server),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Printf("[control] listening on %s", cfg.ControlAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("control: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if *configPath != "" || cfg.LUTPath != "" {
		watcher, err := core.NewConfigWatcher(server, *configPath, cfg.LUTPath)
		if err != nil {
			log.Printf("[watch] WARN hot reload disabled: %v", err)
		} else {
			g.Go(func() error { return watcher.Run(ctx) })
		}
	}

	if cfg.MasterURL != "" {
		address := cfg.Address
		if address == "" {
			address = fmt.Sprintf("localhost:%d", cfg.Port)
		}
		reg := core.NewRegistration(cfg.MasterURL, cfg.Name, address, cfg.Version, cfg.Region, server.DirectoryStatus)
		reg.Start()
		g.Go(func() error {
			<-ctx.Done()
			reg.Stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("[server] ERROR %v", err)
	}
	log.Println("[server] shut down")
}

func loadConfig(path string) (*config.HostConfig, error) {
	if path == "" {
		return config.DefaultHostConfig(), nil
	}
	return config.LoadHostConfig(path)
}
