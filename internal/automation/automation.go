// Package automation runs batches of simulated experiments described in
// YAML plans and stores each one as a regular run.
package automation

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecolab/internal/config"
	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/sim"
	"github.com/san-kum/tecolab/internal/storage"
)

// Plan is a named sequence of simulated runs. Step fields left empty
// inherit the plan defaults.
type Plan struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Period      int64  `yaml:"period"`
	Plant       string `yaml:"plant"`
	Integrator  string `yaml:"integrator"`
	Steps       []Step `yaml:"steps"`

	dir string
}

// Step is a single run of a plan.
type Step struct {
	Experiment string `yaml:"experiment"`
	Controller string `yaml:"controller"`
	Period     int64  `yaml:"period"`
	Plant      string `yaml:"plant"`
}

// LoadPlan reads a plan. Relative experiment and controller paths are
// resolved against the plan's directory.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read plan")
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, errors.Wrapf(err, "parse plan %s", path)
	}
	if len(plan.Steps) == 0 {
		return nil, errors.Errorf("plan %s has no steps", path)
	}
	plan.dir = filepath.Dir(path)
	return &plan, nil
}

// Outcome is the result of one step.
type Outcome struct {
	Step   Step
	RunID  string
	Result *sim.Result
	Err    error
}

// Runner executes plans.
type Runner struct {
	Registry *control.Registry
	Store    *storage.Store
	// Workers bounds the concurrent runs; see sim.NewBatch.
	Workers int
	Log     logrus.FieldLogger
}

func (r *Runner) resolve(plan *Plan, p string) string {
	if p == "" || filepath.IsAbs(p) || plan.dir == "" {
		return p
	}
	local := filepath.Join(plan.dir, p)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return p
}

// prepare builds the simulation of step i and opens its run directory.
func (r *Runner) prepare(plan *Plan, step Step) (sim.Config, *storage.Run, error) {
	period := step.Period
	if period == 0 {
		period = plan.Period
	}
	if period < 1 {
		period = config.DefaultPeriod
	}
	plantName := step.Plant
	if plantName == "" {
		plantName = plan.Plant
	}
	if plantName == "" {
		plantName = config.DefaultPlant
	}
	model := config.GetPreset(plantName)
	if model == nil {
		return sim.Config{}, nil, errors.Errorf("unknown plant preset %q", plantName)
	}

	expPath := r.resolve(plan, step.Experiment)
	table, warnings, err := experiment.Load(expPath, period)
	if err != nil {
		return sim.Config{}, nil, err
	}
	for _, w := range warnings {
		r.Log.WithField("experiment", expPath).Warn(w.Error())
	}
	desc, err := r.Registry.Resolve(r.resolve(plan, step.Controller))
	if err != nil {
		return sim.Config{}, nil, err
	}

	run, err := r.Store.Create(storage.RunMetadata{
		Experiment: expPath,
		Controller: desc.Name,
		Port:       "plan:" + plan.Name,
		Simulated:  true,
		PeriodMs:   period,
		Started:    time.Now(),
	}, storage.DefaultFlushInterval)
	if err != nil {
		return sim.Config{}, nil, err
	}
	return sim.Config{
		Table:      table,
		PeriodMs:   period,
		Controller: desc,
		Plant:      *model,
		Integrator: plan.Integrator,
		Sink:       run.Sink,
	}, run, nil
}

// Run executes every step of plan. Steps that cannot be prepared are
// reported in their Outcome and skipped; the others run concurrently.
func (r *Runner) Run(ctx context.Context, plan *Plan) []Outcome {
	if r.Log == nil {
		r.Log = logrus.StandardLogger()
	}
	if r.Registry == nil {
		r.Registry = control.NewRegistry()
	}
	outcomes := make([]Outcome, len(plan.Steps))
	var (
		cfgs  []sim.Config
		runs  []*storage.Run
		index []int
	)
	for i, step := range plan.Steps {
		outcomes[i].Step = step
		cfg, run, err := r.prepare(plan, step)
		if err != nil {
			outcomes[i].Err = errors.Wrapf(err, "step %d", i+1)
			continue
		}
		outcomes[i].RunID = run.Meta.ID
		cfgs = append(cfgs, cfg)
		runs = append(runs, run)
		index = append(index, i)
	}

	results, errs := sim.NewBatch(r.Workers).Run(ctx, cfgs)
	for j, i := range index {
		res, err := results[j], errs[j]
		var cycles int
		var stopped bool
		var values map[string]float64
		if res != nil {
			cycles, stopped, values = res.Stats.Cycles, res.Stats.Stopped, res.Metrics
		}
		if ferr := runs[j].Finish(cycles, stopped, values, err); ferr != nil && err == nil {
			err = ferr
		}
		outcomes[i].Result = res
		if err != nil {
			outcomes[i].Err = errors.Wrapf(err, "step %d", i+1)
		}
		r.Log.WithFields(logrus.Fields{
			"plan":   plan.Name,
			"step":   i + 1,
			"run":    runs[j].Meta.ID,
			"cycles": cycles,
		}).Info("plan step finished")
	}
	return outcomes
}
