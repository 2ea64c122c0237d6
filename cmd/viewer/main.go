// Command viewer opens a window onto a streamed world. Block edits made
// with the mouse go through the world store and are saved on exit.
package main

import (
	"context"
	"flag"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/shuidong/block-game/internal/config"
	"github.com/shuidong/block-game/internal/game"
	"github.com/shuidong/block-game/internal/input"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/session"
)

func init() {
	// GLFW and GL calls must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML config (default: $"+config.EnvPath+")")
		fps        = flag.Int("fps", 120, "frame rate cap, 0 for none")
		budget     = flag.Int("budget", 64, "pipeline tasks applied per frame, 0 for all")
		mapPath    = flag.String("map", "map.png", "where the M key writes a map of the loaded area")
		width      = flag.Int("width", 1280, "window width")
		height     = flag.Int("height", 720, "window height")
	)
	flag.Parse()

	log := logging.Component("viewer")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("%v", err)
		return
	}
	s, err := session.Open(cfg, nil)
	if err != nil {
		log.Error("%v", err)
		return
	}
	defer s.Close()

	if err := glfw.Init(); err != nil {
		log.Error("Failed to initialize glfw: %v", err)
		return
	}
	defer glfw.Terminate()

	window, err := game.SetupWindow("block-game", *width, *height)
	if err != nil {
		log.Error("Failed to open window: %v", err)
		return
	}

	im := input.NewInputManager()
	app, err := game.NewApp(window, im, game.Options{
		Engine:      s.Engine,
		FPSLimit:    *fps,
		DrainBudget: *budget,
		MapPath:     *mapPath,
		Logger:      log,
	})
	if err != nil {
		log.Error("%v", err)
		return
	}
	defer app.Dispose()
	game.SetupInputHandlers(app)

	if err := s.Engine.Start(context.Background()); err != nil {
		log.Error("%v", err)
		return
	}
	app.Run()
}
