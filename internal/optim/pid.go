package optim

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/lti"
	"github.com/san-kum/tecolab/internal/sim"
)

// Parameter names of a PID search.
const (
	ParamKp = "kp"
	ParamKi = "ki"
	ParamKd = "kd"
)

// PIDTuning scores PID gains, applied to both heaters, by a metric of a
// simulated run of base.
type PIDTuning struct {
	Base   sim.Config
	Metric string
	// Template supplies the gate, fan and relative settings of the tuned
	// controller.
	Template control.Description
}

// Describe returns the controller for params.
func (p PIDTuning) Describe(params map[string]float64) control.Description {
	d := p.Template
	d.Kind = control.KindPID
	gains := lti.PIDGains{
		Kp:   params[ParamKp],
		Ki:   params[ParamKi],
		Kd:   params[ParamKd],
		Pole: p.Template.Heater1.Pole,
	}
	d.Heater1, d.Heater2 = gains, gains
	d.Heater2.Pole = p.Template.Heater2.Pole
	d.Name = fmt.Sprintf("pid(kp=%g,ki=%g,kd=%g)", gains.Kp, gains.Ki, gains.Kd)
	return d
}

// Objective runs the simulation for each parameter set.
func (p PIDTuning) Objective() Objective {
	return func(ctx context.Context, params map[string]float64) (float64, error) {
		cfg := p.Base
		cfg.Controller = p.Describe(params)
		res, err := sim.Run(ctx, cfg)
		if err != nil {
			return 0, err
		}
		v, ok := res.Metrics[p.Metric]
		if !ok {
			return 0, errors.Errorf("optim: unknown metric %q", p.Metric)
		}
		return v, nil
	}
}
