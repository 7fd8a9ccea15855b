package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/tecolab/internal/automation"
	"github.com/san-kum/tecolab/internal/config"
	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/export"
	"github.com/san-kum/tecolab/internal/optim"
	"github.com/san-kum/tecolab/internal/sim"
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/viz"
)

var (
	kpRange  []float64
	kiRange  []float64
	kdRange  []float64
	metric   string
	template string
	workers  int
	topN     int
	format   string
	output   string
)

func tuneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune <experiment>",
		Short: "grid search PID gains on the simulated board",
		Args:  cobra.ExactArgs(1),
		RunE:  tunePID,
	}
	cmd.Flags().Int64VarP(&period, "period", "t", config.DefaultPeriod, "control period in milliseconds")
	cmd.Flags().StringVar(&plant, "plant", config.DefaultPlant, "simulated plant preset")
	cmd.Flags().Float64SliceVar(&kpRange, "kp", []float64{1, 2, 4, 8, 16}, "proportional gains")
	cmd.Flags().Float64SliceVar(&kiRange, "ki", []float64{0, 0.01, 0.02, 0.05}, "integral gains")
	cmd.Flags().Float64SliceVar(&kdRange, "kd", []float64{0}, "derivative gains")
	cmd.Flags().StringVar(&metric, "metric", "tracking_rms_h1", "metric to minimize")
	cmd.Flags().StringVar(&template, "template", "pid", "controller supplying gate and fan settings")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent simulations, 0 for one per CPU")
	cmd.Flags().IntVar(&topN, "top", 10, "number of results shown")
	return cmd
}

func tunePID(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.PlantModel()
	if err != nil {
		return err
	}
	table, _, err := experiment.Load(args[0], cfg.Period)
	if err != nil {
		return err
	}
	tmpl, err := control.NewRegistry().Resolve(template)
	if err != nil {
		return err
	}

	tuning := optim.PIDTuning{
		Base: sim.Config{
			Table:      table,
			PeriodMs:   cfg.Period,
			Plant:      model,
			Integrator: cfg.Simulate.Integrator,
		},
		Metric:   metric,
		Template: tmpl,
	}
	batch := sim.NewBatch(workers)
	search, err := optim.NewGridSearch(
		[]string{optim.ParamKp, optim.ParamKi, optim.ParamKd},
		[][]float64{kpRange, kiRange, kdRange},
		batch.Workers,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Printf("%s %d candidates on %d workers\n", viz.Title.Render("tuning"), len(search.Points()), batch.Workers)
	trials, err := search.Search(ctx, tuning.Objective())
	if err != nil {
		return err
	}

	out := tablewriter.NewWriter(os.Stdout)
	out.SetHeader([]string{"KP", "KI", "KD", strings.ToUpper(metric)})
	out.SetAutoFormatHeaders(false)
	for i, tr := range trials {
		if i == topN || tr.Err != nil {
			break
		}
		out.Append([]string{
			strconv.FormatFloat(tr.Params[optim.ParamKp], 'g', -1, 64),
			strconv.FormatFloat(tr.Params[optim.ParamKi], 'g', -1, 64),
			strconv.FormatFloat(tr.Params[optim.ParamKd], 'g', -1, 64),
			strconv.FormatFloat(tr.Score, 'f', 4, 64),
		})
	}
	out.Render()
	best := tuning.Describe(trials[0].Params)
	fmt.Println(viz.StatusRunning.Render("best: ") + best.Name)
	return nil
}

func batchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <plan>",
		Short: "run a plan of simulated experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent simulations, 0 for one per CPU")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	plan, err := automation.LoadPlan(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &automation.Runner{
		Registry: control.NewRegistry(),
		Store:    storage.New(cfg.Log.Dir),
		Workers:  workers,
		Log:      logrus.StandardLogger(),
	}
	outcomes := runner.Run(ctx, plan)

	out := tablewriter.NewWriter(os.Stdout)
	out.SetHeader([]string{"STEP", "EXPERIMENT", "CONTROLLER", "RUN", "CYCLES", "RESULT"})
	out.SetAutoFormatHeaders(false)
	failed := 0
	for i, o := range outcomes {
		cycles, result := "-", "ok"
		if o.Result != nil {
			cycles = strconv.Itoa(o.Result.Stats.Cycles)
		}
		if o.Err != nil {
			failed++
			result = o.Err.Error()
		}
		out.Append([]string{strconv.Itoa(i + 1), o.Step.Experiment, o.Step.Controller, o.RunID, cycles, result})
	}
	out.Render()
	if failed > 0 {
		return errors.Errorf("%d of %d steps failed", failed, len(outcomes))
	}
	return nil
}

func exportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run>",
		Short: "export a run as JSON or SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, svg or duty-svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	return cmd
}

func exportRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.Log.Dir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	records, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}

	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "create export")
		}
		defer f.Close()
		w = f
	}
	title := fmt.Sprintf("%s  %s / %s", meta.ID, filepath.Base(meta.Experiment), meta.Controller)
	switch format {
	case "json":
		return export.JSON(w, *meta, records)
	case "svg":
		_, err = fmt.Fprint(w, export.RunSVG(records, 960, 480, title))
	case "duty-svg":
		_, err = fmt.Fprint(w, export.DutySVG(records, 960, 320, title))
	default:
		return errors.Errorf("unknown export format %q", format)
	}
	return err
}
