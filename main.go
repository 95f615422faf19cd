package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/experica/orthocam/config"
	"github.com/experica/orthocam/fonts"
	"github.com/experica/orthocam/scenes"
	"github.com/experica/orthocam/systems"
	"github.com/hajimehoshi/ebiten/v2"
)

type Game struct {
	cfg   *config.ClientConfig
	scene *scenes.DisplayScene
}

func NewGame(cfg *config.ClientConfig) *Game {
	return &Game{
		cfg:   cfg,
		scene: scenes.NewDisplayScene(cfg),
	}
}

func (g *Game) Update() error {
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func main() {
	cfg := config.DefaultClientConfig()

	addr := flag.String("addr", cfg.Address, "Command host address (host:port)")
	masterURL := flag.String("master", "", "Directory URL used to find a command host")
	name := flag.String("name", cfg.Name, "Name announced to the command host")
	version := flag.String("version", "", "Client version announced to the command host")
	fullscreen := flag.Bool("fullscreen", false, "Start in fullscreen")
	grid := flag.Float64("grid", cfg.GridStep, "Degrees between grid lines (0 hides the grid)")
	logLevel := flag.String("loglevel", "INFO", "Log level: DEBUG, INFO, WARN, ERROR")
	flag.Parse()

	config.SetupLogging(*logLevel)

	if err := fonts.LoadDefaults(); err != nil {
		log.Fatalf("[client] %v", err)
	}

	if err := systems.InitPersistence("orthocam-environment"); err != nil {
		log.Printf("[client] WARN could not initialize persistence: %v", err)
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if saved, err := systems.LoadDisplay(); err == nil && saved != nil {
		systems.ApplyDisplay(cfg, saved, set)
	}
	if set["addr"] {
		cfg.Address = *addr
	}
	if set["fullscreen"] {
		cfg.Fullscreen = *fullscreen
	}
	if set["grid"] {
		cfg.GridStep = *grid
	}
	cfg.MasterURL = *masterURL
	cfg.Name = *name
	cfg.Version = *version

	ebiten.SetWindowTitle(fmt.Sprintf("orthocam - %s", cfg.Name))
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Fullscreen)

	game := NewGame(cfg)
	defer game.scene.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
