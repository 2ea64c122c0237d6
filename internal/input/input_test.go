package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestKeyEdges(t *testing.T) {
	im := NewInputManager()

	im.HandleKeyEvent(glfw.KeyW, glfw.Press)
	assert.True(t, im.IsActive(ActionMoveForward))
	assert.True(t, im.JustPressed(ActionMoveForward))

	im.PostUpdate()
	im.HandleKeyEvent(glfw.KeyW, glfw.Repeat)
	assert.True(t, im.IsActive(ActionMoveForward))
	assert.False(t, im.JustPressed(ActionMoveForward))

	im.HandleKeyEvent(glfw.KeyW, glfw.Release)
	assert.False(t, im.IsActive(ActionMoveForward))
	assert.True(t, im.JustReleased(ActionMoveForward))
}

func TestSeveralKeysShareAnAction(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyUp, glfw.Press)
	assert.True(t, im.IsActive(ActionMoveForward))

	im.UnbindKey(glfw.KeyUp)
	im.HandleKeyEvent(glfw.KeyUp, glfw.Release)
	assert.True(t, im.IsActive(ActionMoveForward))
}

func TestMouseButtons(t *testing.T) {
	im := NewInputManager()
	im.HandleMouseButtonEvent(glfw.MouseButtonRight, glfw.Press)
	assert.True(t, im.JustPressed(ActionMouseRight))
	assert.False(t, im.IsActive(ActionMouseLeft))

	im.PostUpdate()
	assert.False(t, im.JustPressed(ActionMouseRight))
	assert.True(t, im.IsActive(ActionMouseRight))
}

func TestOutOfRangeActions(t *testing.T) {
	im := NewInputManager()
	im.BindKey(glfw.KeyZ, ActionCount)
	im.HandleKeyEvent(glfw.KeyZ, glfw.Press)
	assert.False(t, im.IsActive(ActionCount))
	assert.False(t, im.JustPressed(-1))
}
