// Package loop runs an experiment: it reads the board, evaluates the
// controller, disturbs its output, writes the board and logs the cycle, in
// lock-step with the experiment script.
package loop

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/disturbance"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
)

// MaxPoll bounds a single sleep so cancellation is noticed promptly.
const MaxPoll = 50 * time.Millisecond

// Link is the board side of the loop.
type Link interface {
	ReadTemperatures() (thermal.Temperatures, error)
	WritePWMs(p thermal.PWM) error
	Overheated() bool
}

// Sink receives one record per cycle.
type Sink interface {
	Append(r storage.Record) error
	Flush() error
}

// Observer sees every record after it was logged. Observe must not block.
type Observer interface {
	Observe(r storage.Record)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r storage.Record)

func (f ObserverFunc) Observe(r storage.Record) { f(r) }

// Clock abstracts wall-clock time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the real clock.
var SystemClock Clock = systemClock{}

// Config holds the collaborators of a Loop. Clock and Log are optional.
type Config struct {
	Link        Link
	Scheduler   *experiment.Scheduler
	Runtime     *control.Runtime
	Disturbance *disturbance.Model
	Sink        Sink
	Clock       Clock
	Log         logrus.FieldLogger
	Observers   []Observer
}

// Stats summarizes a finished run.
type Stats struct {
	Cycles   int
	Overruns int
	Elapsed  int64
	Stopped  bool
}

// Loop is a single experiment run. It is not reusable.
type Loop struct {
	cfg    Config
	period int64
	stats  Stats
	warned bool
}

// New checks cfg and returns a loop.
func New(cfg Config) (*Loop, error) {
	switch {
	case cfg.Link == nil:
		return nil, errors.New("loop: no link")
	case cfg.Scheduler == nil:
		return nil, errors.New("loop: no scheduler")
	case cfg.Runtime == nil:
		return nil, errors.New("loop: no controller")
	case cfg.Sink == nil:
		return nil, errors.New("loop: no sink")
	}
	if cfg.Disturbance == nil {
		cfg.Disturbance = disturbance.New()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &Loop{cfg: cfg, period: cfg.Scheduler.Period()}, nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

// Run drives the experiment until the script ends, ctx is cancelled or a
// cycle fails. In every case the actuators are switched off and the log is
// flushed before returning. Cancellation returns thermal.ErrStopped.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	sched := l.cfg.Scheduler
	log := l.cfg.Log
	clock := l.cfg.Clock

	sched.Start(millis(clock.Now()))
	log.WithFields(logrus.Fields{
		"period_ms": l.period,
		"final_ms":  sched.Final(),
	}).Info("experiment started")

	var runErr error
	for {
		if ctx.Err() != nil && sched.Running() {
			sched.Stop()
			l.stats.Stopped = true
			log.Warn("experiment stopped before the end of the script")
		}
		now := millis(clock.Now())
		if !sched.Tick(now) {
			if !sched.Running() {
				break
			}
			wait := time.Duration(sched.Until(now)) * time.Millisecond
			if wait > MaxPoll {
				wait = MaxPoll
			}
			if wait > 0 {
				clock.Sleep(wait)
			}
			continue
		}
		if err := l.cycle(now); err != nil {
			runErr = &thermal.CycleError{Cycle: l.stats.Cycles + 1, Elapsed: sched.Elapsed(), Wrapped: err}
			log.WithError(err).WithField("cycle", l.stats.Cycles+1).Error("control cycle failed")
			sched.Stop()
			break
		}
	}
	l.stats.Elapsed = sched.Elapsed()

	if err := l.cfg.Link.WritePWMs(thermal.PWM{}); err != nil {
		log.WithError(err).Error("could not switch the actuators off")
		if runErr == nil {
			runErr = errors.Wrap(err, "switch actuators off")
		}
	}
	if err := l.cfg.Sink.Flush(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "flush log")
	}

	log.WithFields(logrus.Fields{
		"cycles":   l.stats.Cycles,
		"overruns": l.stats.Overruns,
		"elapsed":  l.stats.Elapsed,
	}).Info("experiment finished")

	if runErr == nil && l.stats.Stopped {
		runErr = thermal.ErrStopped
	}
	return l.stats, runErr
}

// cycle performs one read, compute, disturb, write and log step.
func (l *Loop) cycle(started int64) error {
	sched := l.cfg.Scheduler
	row := sched.Active()

	temps, err := l.cfg.Link.ReadTemperatures()
	if err != nil {
		return errors.Wrap(err, "read temperatures")
	}
	if l.cfg.Link.Overheated() && !l.warned {
		l.warned = true
		l.cfg.Log.WithField("temperatures", temps).Warn("board overheated, heaters are held off")
	}

	action, err := l.cfg.Runtime.Invoke(row.Setpoints, temps)
	if err != nil {
		return errors.Wrap(err, "compute control action")
	}
	disturbed := l.cfg.Disturbance.Apply(action.PWM, row, l.period)
	if err := l.cfg.Link.WritePWMs(disturbed); err != nil {
		return errors.Wrap(err, "write duty cycles")
	}

	rec := storage.Record{
		Time:      sched.Elapsed(),
		Temps:     temps,
		Row:       row,
		Computed:  l.cfg.Disturbance.Computed(),
		Disturbed: disturbed,
		New:       action.New,
		Duration:  action.Duration,
	}
	if err := l.cfg.Sink.Append(rec); err != nil {
		return errors.Wrap(err, "log cycle")
	}
	for _, o := range l.cfg.Observers {
		o.Observe(rec)
	}

	l.stats.Cycles++
	if took := millis(l.cfg.Clock.Now()) - started; took > l.period {
		l.stats.Overruns++
		l.cfg.Log.WithFields(logrus.Fields{
			"elapsed": rec.Time,
			"took_ms": took,
		}).Debug("cycle overran the period")
	}
	return nil
}
