package sim

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/tecolab/internal/board"
	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/disturbance"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/integrators"
	"github.com/san-kum/tecolab/internal/loop"
	"github.com/san-kum/tecolab/internal/lti"
	"github.com/san-kum/tecolab/internal/metrics"
	"github.com/san-kum/tecolab/internal/protocol"
)

// epoch is the virtual start time of every simulated run.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func validateConfig(cfg Config) error {
	if cfg.Table == nil || cfg.Table.Len() == 0 {
		return errors.New("sim: empty experiment")
	}
	if cfg.PeriodMs <= 0 {
		return errors.Errorf("sim: period must be positive, got %d", cfg.PeriodMs)
	}
	return nil
}

// Run executes cfg on a fresh board, controller and LTI engine, so runs
// share no state and may execute concurrently.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	log := cfg.Log
	if log == nil {
		log = quietLogger()
	}

	law, err := cfg.Controller.Build(lti.NewEngine(nil), cfg.PeriodMs)
	if err != nil {
		return nil, errors.Wrapf(err, "sim: controller %s", cfg.Controller.Name)
	}

	clock := NewClock(epoch)
	b := board.New(board.Options{
		Plant:      cfg.Plant,
		Integrator: integrators.New(cfg.Integrator),
		Clock:      clock.Now,
		Resolution: board.SensorResolution,
	})
	link := protocol.NewLink(board.PortName, b, protocol.WithLogger(log))
	defer link.Close()

	rec := &Recorder{next: cfg.Sink}
	summary := metrics.Default()
	observers := append([]loop.Observer{summary}, cfg.Observers...)

	lp, err := loop.New(loop.Config{
		Link:        link,
		Scheduler:   experiment.NewScheduler(cfg.Table, cfg.PeriodMs),
		Runtime:     control.NewRuntime(law, cfg.Controller.Gate()),
		Disturbance: disturbance.New(),
		Sink:        rec,
		Clock:       clock,
		Log:         log,
		Observers:   observers,
	})
	if err != nil {
		return nil, err
	}

	stats, err := lp.Run(ctx)
	res := &Result{Records: rec.Records, Stats: stats, Metrics: summary.Values()}
	return res, err
}
