// Package sim runs experiments against the virtual board on a virtual
// clock, as fast as the host allows.
package sim

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/tecolab/internal/board"
	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/loop"
	"github.com/san-kum/tecolab/internal/storage"
)

// Config describes one simulated run.
type Config struct {
	Table      *experiment.Table
	PeriodMs   int64
	Controller control.Description
	Plant      board.Plant
	// Integrator names the plant integrator, "rk4" or "euler".
	Integrator string
	// Sink also receives every record when set.
	Sink      loop.Sink
	Observers []loop.Observer
	Log       logrus.FieldLogger
}

// Result is the outcome of a simulated run.
type Result struct {
	Records []storage.Record
	Stats   loop.Stats
	Metrics map[string]float64
}

// Clock is a virtual clock: Sleep advances Now without blocking.
type Clock struct {
	now time.Time
}

// NewClock returns a clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Sleep(d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	c.now = c.now.Add(d)
}

// Recorder keeps records in memory.
type Recorder struct {
	Records []storage.Record
	next    loop.Sink
}

func (r *Recorder) Append(rec storage.Record) error {
	r.Records = append(r.Records, rec)
	if r.next != nil {
		return r.next.Append(rec)
	}
	return nil
}

func (r *Recorder) Flush() error {
	if r.next != nil {
		return r.next.Flush()
	}
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
