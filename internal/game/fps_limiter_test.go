package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFPSLimiterPacesFrames(t *testing.T) {
	f := NewFPSLimiter(100)
	start := time.Now()
	for range 5 {
		f.Wait(false)
	}
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
}

func TestFPSLimiterUnlimited(t *testing.T) {
	f := NewFPSLimiter(0)
	start := time.Now()
	for range 100 {
		f.Wait(false)
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.True(t, f.next.IsZero())
}

func TestFPSLimiterResyncsAfterHitch(t *testing.T) {
	f := NewFPSLimiter(1000)
	f.Wait(false)
	time.Sleep(20 * time.Millisecond)
	f.Wait(false)
	assert.WithinDuration(t, time.Now().Add(time.Millisecond), f.next, 5*time.Millisecond)
}
