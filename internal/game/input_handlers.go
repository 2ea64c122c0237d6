package game

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func SetupInputHandlers(app *App) {
	window := app.window
	im := app.inputManager

	// Mouse look while the cursor is captured
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if app.paused {
			return
		}
		if !app.cursorInit {
			app.cursorX, app.cursorY = xpos, ypos
			app.cursorInit = true
			return
		}
		dx, dy := xpos-app.cursorX, ypos-app.cursorY
		app.cursorX, app.cursorY = xpos, ypos
		app.camera.Rotate(float32(dx)*mouseSensitivity, float32(-dy)*mouseSensitivity)
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})

	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		app.camera.SetAspect(fbWidth, fbHeight)
	})

	// Pause when the window loses focus
	window.SetFocusCallback(func(w *glfw.Window, focused bool) {
		if !focused && !app.paused {
			app.setPaused(true)
		}
	})

	window.SetRefreshCallback(func(w *glfw.Window) {
		app.render()
		w.SwapBuffers()
	})
}
