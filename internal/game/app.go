// Package game hosts the interactive viewer: a window that flies over the
// streamed world and consumes the engine's queues on the GL thread.
package game

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/engine"
	"github.com/shuidong/block-game/internal/graphics"
	"github.com/shuidong/block-game/internal/input"
	"github.com/shuidong/block-game/internal/logging"
	"github.com/shuidong/block-game/internal/physics"
	"github.com/shuidong/block-game/internal/profiling"
	"github.com/shuidong/block-game/internal/registry"
	"github.com/shuidong/block-game/internal/worldmap"
)

const (
	moveSpeed        = 12.0
	sprintMultiplier = 3.0
	mouseSensitivity = 0.1
)

// Placeable lists the blocks the viewer cycles through for placement.
var Placeable = []registry.BlockID{
	registry.BlockDirt,
	registry.BlockGrass,
	registry.Stone(0),
	registry.BlockSand,
	registry.BlockRockyDirt,
	registry.BlockSlab,
	registry.Water(registry.WaterLevels - 1),
}

type Options struct {
	Engine   *engine.Engine
	FPSLimit int
	// DrainBudget bounds the tasks applied per frame; zero drains everything.
	DrainBudget int
	// MapPath is where the map export key writes its PNG.
	MapPath string
	Logger  *logging.Logger
}

type App struct {
	window       *glfw.Window
	inputManager *input.InputManager
	engine       *engine.Engine
	renderer     *graphics.ChunkRenderer
	camera       *graphics.Camera
	log          *logging.Logger

	budget  int
	mapPath string

	paused      bool
	showProfile bool
	spawned     bool
	selected    int

	cursorX, cursorY float64
	cursorInit       bool

	fpsLimiter *FPSLimiter
	lastTime   time.Time
	lastReport time.Time
	frames     int
}

// NewApp needs the window's GL context to be current.
func NewApp(window *glfw.Window, im *input.InputManager, opts Options) (*App, error) {
	dims := opts.Engine.Store().Dims()
	r, err := graphics.NewChunkRenderer(dims)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk renderer: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component("viewer")
	}

	width, height := window.GetSize()
	cam := graphics.NewCamera(width, height)
	cam.Position = mgl32.Vec3{0.5, float32(dims.Height() + 2), 0.5}
	cam.FarPlane = float32(dims.ChunkSize * (2*opts.Engine.LoadRadius() + 1))

	return &App{
		window:       window,
		inputManager: im,
		engine:       opts.Engine,
		renderer:     r,
		camera:       cam,
		log:          opts.Logger,
		budget:       opts.DrainBudget,
		mapPath:      opts.MapPath,
		fpsLimiter:   NewFPSLimiter(opts.FPSLimit),
		lastTime:     time.Now(),
		lastReport:   time.Now(),
	}, nil
}

func (a *App) Run() {
	for !a.window.ShouldClose() {
		a.tick()
	}
}

// Dispose frees the GPU side. The engine is stopped by the caller.
func (a *App) Dispose() {
	a.renderer.Dispose()
}

func (a *App) tick() {
	profiling.ResetFrame()
	startTick := time.Now()
	now := time.Now()
	dt := float32(now.Sub(a.lastTime).Seconds())
	a.lastTime = now

	glfw.PollEvents()
	a.update(dt)

	pos := a.camera.Position
	a.engine.SetViewer(float64(pos.X()), float64(pos.Z()))
	stats := a.engine.Drain(a.renderer, a.budget)
	if stats.Discarded > 0 {
		a.log.Debug("Discarded %d updates for columns not on screen", stats.Discarded)
	}

	a.render()
	a.window.SwapBuffers()
	a.frames++

	processingDuration := time.Since(startTick)
	if processingDuration > 16*time.Millisecond {
		a.log.Debug("Slow frame: %v. Top tasks: %s", processingDuration, profiling.TopN(5))
	}
	if since := time.Since(a.lastReport); since >= time.Second {
		a.report(since)
	}

	a.inputManager.PostUpdate() // Clear "JustPressed" flags
	a.fpsLimiter.Wait(a.paused)
}

func (a *App) update(dt float32) {
	im := a.inputManager
	store := a.engine.Store()

	if im.JustPressed(input.ActionQuit) {
		a.window.SetShouldClose(true)
		return
	}
	if im.JustPressed(input.ActionTogglePause) {
		a.setPaused(!a.paused)
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		a.showProfile = !a.showProfile
	}
	if im.JustPressed(input.ActionExportMap) {
		a.exportMap()
	}
	if a.paused {
		return
	}

	if !a.spawned {
		x, z := int(a.camera.Position.X()), int(a.camera.Position.Z())
		col := coord.WorldToColumn(x, z, store.Dims().ChunkSize)
		if store.Rendered(col) {
			if ground := physics.GroundLevel(store, x, z, store.Dims().Height()-1); ground >= 0 {
				a.camera.Position[1] = float32(ground) + 1.6
			}
			a.spawned = true
		}
	}

	speed := float32(moveSpeed) * dt
	if im.IsActive(input.ActionSprint) {
		speed *= sprintMultiplier
	}
	var forward, right, up float32
	if im.IsActive(input.ActionMoveForward) {
		forward += speed
	}
	if im.IsActive(input.ActionMoveBackward) {
		forward -= speed
	}
	if im.IsActive(input.ActionMoveRight) {
		right += speed
	}
	if im.IsActive(input.ActionMoveLeft) {
		right -= speed
	}
	if im.IsActive(input.ActionMoveUp) {
		up += speed
	}
	if im.IsActive(input.ActionMoveDown) {
		up -= speed
	}
	a.camera.Move(forward, right, up)

	if im.JustPressed(input.ActionNextBlock) {
		a.selected = (a.selected + 1) % len(Placeable)
	}
	if im.JustPressed(input.ActionPrevBlock) {
		a.selected = (a.selected + len(Placeable) - 1) % len(Placeable)
	}
	if im.JustPressed(input.ActionMouseLeft) {
		a.breakBlock()
	}
	if im.JustPressed(input.ActionMouseRight) {
		a.placeBlock()
	}
}

func (a *App) target() physics.RaycastResult {
	return physics.Raycast(a.camera.Position, a.camera.Front(),
		physics.MinReachDistance, physics.MaxReachDistance, a.engine.Store())
}

func (a *App) breakBlock() {
	hit := a.target()
	if !hit.Hit || !registry.CanBreak(hit.Block) {
		return
	}
	p := hit.HitPosition
	a.engine.RequestSetBlock(p[0], p[1], p[2], registry.BlockAir)
}

func (a *App) placeBlock() {
	hit := a.target()
	if !hit.Hit {
		return
	}
	p := hit.AdjacentPosition
	if physics.Solid(a.engine.Store().GetBlock(p[0], p[1], p[2], registry.BlockStone)) {
		return
	}
	a.engine.RequestSetBlock(p[0], p[1], p[2], Placeable[a.selected])
}

func (a *App) render() {
	gl.ClearColor(0.62, 0.76, 0.92, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	a.renderer.Draw(a.camera)
}

func (a *App) report(elapsed time.Duration) {
	fps := float64(a.frames) / elapsed.Seconds()
	depths := a.engine.Store().QueueDepths()
	title := fmt.Sprintf("block-game | %.0f fps | %d columns | %s faces | %s",
		fps, a.renderer.Columns(), humanize.Comma(int64(a.renderer.Faces())),
		registry.Get(Placeable[a.selected]).Name)
	a.window.SetTitle(title)
	a.log.Debug("%s | queued %d", title, depths.Total())
	if a.showProfile {
		a.log.Info("Top tasks: %s", profiling.TopN(8))
	}
	a.frames = 0
	a.lastReport = time.Now()
}

func (a *App) setPaused(paused bool) {
	a.paused = paused
	a.cursorInit = false
	if paused {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	} else {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	}
}

func (a *App) exportMap() {
	if a.mapPath == "" {
		return
	}
	store := a.engine.Store()
	r := coord.RectAround(a.engine.ViewerColumn(), a.engine.LoadRadius())

	f, err := os.Create(a.mapPath)
	if err != nil {
		a.log.Error("Failed to create map file: %v", err)
		return
	}
	defer f.Close()
	if err := worldmap.Export(f, store, r, store.Dims(), 2); err != nil {
		a.log.Error("Failed to export map: %v", err)
		return
	}
	a.log.Info("Wrote map of %d columns to %s", len(r.Columns()), a.mapPath)
}
