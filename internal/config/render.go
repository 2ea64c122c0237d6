package config

import "sync"

// RenderSettings holds the view distance shared by the viewer and the loader.
type RenderSettings struct {
	mu             sync.RWMutex
	renderDistance int // in columns
	unloadMargin   int
}

const (
	MinRenderDistance = 2
	MaxRenderDistance = 32
)

var globalRenderSettings = &RenderSettings{
	renderDistance: 8,
	unloadMargin:   2,
}

// GetRenderDistance returns the current render distance in columns
func GetRenderDistance() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance
}

// SetRenderDistance sets the render distance in columns, clamped to the supported range.
func SetRenderDistance(distance int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.renderDistance = max(MinRenderDistance, min(distance, MaxRenderDistance))
}

// SetUnloadMargin sets how far past the render distance columns stay loaded.
func SetUnloadMargin(margin int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.unloadMargin = max(margin, 0)
}

// GetChunkLoadRadius returns the radius of columns that get instantiated
func GetChunkLoadRadius() int {
	return GetRenderDistance()
}

// GetChunkEvictRadius returns the radius outside which columns are unloaded.
// It covers the load radius plus the halo plus the margin.
func GetChunkEvictRadius() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance + 1 + globalRenderSettings.unloadMargin
}

// Apply copies the streaming radii of c into the shared render settings.
func (c *Config) Apply() {
	SetRenderDistance(c.Streaming.LoadRadius)
	SetUnloadMargin(c.Streaming.UnloadMargin)
}
