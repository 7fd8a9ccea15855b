package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/tecolab/internal/board"
	"github.com/san-kum/tecolab/internal/config"
	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/disturbance"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/integrators"
	"github.com/san-kum/tecolab/internal/loop"
	"github.com/san-kum/tecolab/internal/lti"
	"github.com/san-kum/tecolab/internal/metrics"
	"github.com/san-kum/tecolab/internal/protocol"
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
	"github.com/san-kum/tecolab/internal/viz"
)

const feedBuffer = 256

func runExperiment(cmd *cobra.Command, args []string) error {
	expPath, ctrlArg := args[0], args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	table, warnings, err := experiment.Load(expPath, cfg.Period)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logrus.WithField("experiment", expPath).Warn(w.Error())
		fmt.Println(viz.StatusStopped.Render("warning: ") + w.Error())
	}
	if !cfg.Monitor {
		experiment.Render(os.Stdout, table)
	}

	rt, desc, err := control.NewRegistry().Build(ctrlArg, lti.NewEngine(nil), cfg.Period)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	link, clock, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer link.Close()

	st := storage.New(cfg.Log.Dir)
	run, err := st.Create(storage.RunMetadata{
		Experiment: expPath,
		Controller: desc.Name,
		Port:       link.Name(),
		Simulated:  cfg.Simulate.Enabled,
		PeriodMs:   cfg.Period,
		Started:    time.Now(),
	}, cfg.Log.FlushInterval)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"run": run.Meta.ID, "controller": desc.Name})
	log.WithField("final_ms", table.Final()).Info("experiment started")

	summary := metrics.Default()
	observers := []loop.Observer{summary}
	var feed *viz.Feed
	if cfg.Monitor {
		feed = viz.NewFeed(feedBuffer)
		observers = append(observers, feed)
	}

	lp, err := loop.New(loop.Config{
		Link:        link,
		Scheduler:   experiment.NewScheduler(table, cfg.Period),
		Runtime:     rt,
		Disturbance: disturbance.New(),
		Sink:        run.Sink,
		Clock:       clock,
		Log:         log,
		Observers:   observers,
	})
	if err != nil {
		return err
	}

	var (
		stats  loop.Stats
		runErr error
	)
	if feed != nil {
		done := make(chan struct{})
		go func() {
			defer close(done)
			stats, runErr = lp.Run(ctx)
			feed.Close()
		}()
		title := fmt.Sprintf("%s / %s", filepath.Base(expPath), desc.Name)
		p := tea.NewProgram(viz.NewMonitor(title, table.Final(), feed, cancel), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.WithError(err).Error("monitor failed")
			cancel()
		}
		<-done
	} else {
		stats, runErr = lp.Run(ctx)
	}

	stopped := errors.Is(runErr, thermal.ErrStopped)
	if stopped {
		runErr = nil
	}
	values := summary.Values()
	if err := run.Finish(stats.Cycles, stats.Stopped, values, runErr); err != nil {
		log.WithError(err).Error("finish run")
		if runErr == nil {
			runErr = err
		}
	}
	log.WithFields(logrus.Fields{
		"cycles":   stats.Cycles,
		"overruns": stats.Overruns,
		"stopped":  stats.Stopped,
	}).Info("experiment finished")

	status := viz.StatusRunning.Render("finished")
	switch {
	case runErr != nil:
		status = viz.StatusFault.Render("failed")
	case stopped:
		status = viz.StatusStopped.Render("stopped")
	}
	fmt.Printf("%s %s  %d cycles  %s\n", viz.Title.Render(run.Meta.ID), status, stats.Cycles, viz.Subtle.Render(run.Dir))
	printMetrics(values)
	return runErr
}

// connect opens the simulated board or discovers the real one. The clock
// returned drives the loop.
func connect(ctx context.Context, cfg *config.Config) (*protocol.Link, loop.Clock, error) {
	opts := []protocol.Option{protocol.WithRetries(cfg.Serial.Retries)}
	if cfg.Simulate.Enabled {
		model, err := cfg.PlantModel()
		if err != nil {
			return nil, nil, err
		}
		clock := board.NewClock(cfg.Simulate.Speed)
		b := board.New(board.Options{
			Plant:      model,
			Integrator: integrators.New(cfg.Simulate.Integrator),
			Clock:      clock.Now,
			Resolution: board.SensorResolution,
		})
		d := &protocol.Discoverer{List: b.Lister(), Open: b.Opener(), Log: logrus.StandardLogger(), Options: opts}
		link, err := d.Discover(ctx)
		return link, clock, err
	}

	d := protocol.NewDiscoverer(cfg.Serial.Baud, cfg.Serial.ReadTimeout, cfg.Serial.BootDelay)
	d.Options = opts
	if cfg.Serial.Port != "" {
		name := cfg.Serial.Port
		d.List = func() ([]string, error) { return []string{name}, nil }
	}
	link, err := d.Discover(ctx)
	return link, loop.SystemClock, err
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"METRIC", "VALUE"})
	table.SetAutoFormatHeaders(false)
	for _, k := range names {
		table.Append([]string{k, strconv.FormatFloat(values[k], 'f', 3, 64)})
	}
	table.Render()
}
