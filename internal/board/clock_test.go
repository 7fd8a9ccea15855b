package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockScalesTime(t *testing.T) {
	c := NewClock(10)
	var wall time.Duration
	c.since = func(time.Time) time.Duration { return wall }
	var slept time.Duration
	c.sleep = func(d time.Duration) { slept += d }

	wall = 150 * time.Millisecond
	assert.Equal(t, 1500*time.Millisecond, c.Now().Sub(c.origin))

	c.Sleep(200 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, slept)
}

func TestClockDefaultsToRealTime(t *testing.T) {
	assert.Equal(t, 1.0, NewClock(0).Speed())
	assert.Equal(t, 1.0, NewClock(-3).Speed())
}
