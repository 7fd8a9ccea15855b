package board

import "time"

// Clock runs virtual time Speed times faster than the wall clock. It
// drives both the board and the control loop of a simulated run.
type Clock struct {
	origin time.Time
	start  time.Time
	speed  float64
	since  func(time.Time) time.Duration
	sleep  func(time.Duration)
}

// NewClock returns a clock starting now. Speed below or equal to zero
// runs in real time.
func NewClock(speed float64) *Clock {
	if speed <= 0 {
		speed = 1
	}
	now := time.Now()
	return &Clock{origin: now, start: now, speed: speed, since: time.Since, sleep: time.Sleep}
}

func (c *Clock) Now() time.Time {
	return c.origin.Add(time.Duration(float64(c.since(c.start)) * c.speed))
}

// Sleep blocks for d of virtual time.
func (c *Clock) Sleep(d time.Duration) {
	c.sleep(time.Duration(float64(d) / c.speed))
}

// Speed returns the time scale.
func (c *Clock) Speed() float64 { return c.speed }
