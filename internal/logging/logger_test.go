package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggerThreshold(t *testing.T) {
	var buf bytes.Buffer
	lm := NewLoggerManager(&buf, INFO)
	l := lm.GetLogger("world")
	assert.Same(t, l, lm.GetLogger("world"))

	l.Debug("hidden %d", 1)
	l.Warn("column %d,%d failed", 3, -4)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] [world] column 3,-4 failed")

	lm.SetLevel(TRACE)
	l.Trace("now visible")
	assert.Contains(t, buf.String(), "[TRACE] [world] now visible")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, WARN, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(ERROR))
	l.Error("dropped")
}
