package control

import (
	"github.com/pkg/errors"

	"github.com/san-kum/tecolab/internal/lti"
	"github.com/san-kum/tecolab/internal/thermal"
)

// PID drives each heater with its own PID loop on the tracking error and
// holds the fan at a constant duty cycle.
type PID struct {
	engine   *lti.Engine
	h1, h2   lti.Handle
	relative bool
	fan      float64
}

// PIDConfig parameterizes NewPID. Sample is the time between two law
// evaluations in seconds.
type PIDConfig struct {
	Heater1  lti.PIDGains
	Heater2  lti.PIDGains
	Fan      float64
	Relative bool
	Method   lti.Method
	Sample   float64
}

// NewPID registers both loops in engine.
func NewPID(engine *lti.Engine, cfg PIDConfig) (*PID, error) {
	h1, err := engine.RegisterPID(cfg.Heater1, cfg.Sample, cfg.Method)
	if err != nil {
		return nil, errors.Wrap(err, "heater1 PID")
	}
	h2, err := engine.RegisterPID(cfg.Heater2, cfg.Sample, cfg.Method)
	if err != nil {
		return nil, errors.Wrap(err, "heater2 PID")
	}
	return &PID{engine: engine, h1: h1, h2: h2, relative: cfg.Relative, fan: cfg.Fan}, nil
}

func (p *PID) Compute(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.PWM, error) {
	e1 := sp.Target(thermal.Heater1, p.relative, temps.Ambient) - temps.Heater1
	e2 := sp.Target(thermal.Heater2, p.relative, temps.Ambient) - temps.Heater2
	u1, err := p.engine.Step(p.h1, e1)
	if err != nil {
		return thermal.PWM{}, err
	}
	u2, err := p.engine.Step(p.h2, e2)
	if err != nil {
		return thermal.PWM{}, err
	}
	return thermal.PWM{u1, u2, p.fan}, nil
}
