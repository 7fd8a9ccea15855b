package control

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/san-kum/tecolab/internal/lti"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Signal selects the scalar a channel's system is driven by.
type Signal string

const (
	SignalError1  Signal = "error1"
	SignalError2  Signal = "error2"
	SignalTemp1   Signal = "temp1"
	SignalTemp2   Signal = "temp2"
	SignalAmbient Signal = "ambient"
	SignalNone    Signal = "none"
)

func (s Signal) value(sp thermal.Setpoints, temps thermal.Temperatures, relative bool) (float64, error) {
	switch s {
	case SignalError1:
		return sp.Target(thermal.Heater1, relative, temps.Ambient) - temps.Heater1, nil
	case SignalError2:
		return sp.Target(thermal.Heater2, relative, temps.Ambient) - temps.Heater2, nil
	case SignalTemp1:
		return temps.Heater1, nil
	case SignalTemp2:
		return temps.Heater2, nil
	case SignalAmbient:
		return temps.Ambient, nil
	case SignalNone, "":
		return 0, nil
	}
	return 0, fmt.Errorf("control: unknown signal %q", s)
}

// ChannelConfig is the system driving one actuator.
type ChannelConfig struct {
	Input Signal    `yaml:"input"`
	Num   []float64 `yaml:"num"`
	Den   []float64 `yaml:"den"`
	// Discrete marks Num and Den as coefficients in z sampled at the law's
	// sample time.
	Discrete bool    `yaml:"discrete"`
	Offset   float64 `yaml:"offset"`
}

// LTI drives every actuator through its own linear system.
type LTI struct {
	engine   *lti.Engine
	relative bool
	channels [thermal.NumChannels]ltiChannel
}

type ltiChannel struct {
	input  Signal
	offset float64
	handle lti.Handle
	active bool
}

// NewLTI registers one system per configured channel. Channels without a
// denominator output only their offset.
func NewLTI(engine *lti.Engine, channels [thermal.NumChannels]ChannelConfig, relative bool, method lti.Method, sample float64) (*LTI, error) {
	l := &LTI{engine: engine, relative: relative}
	for _, ch := range thermal.Channels() {
		cfg := channels[ch]
		c := ltiChannel{input: cfg.Input, offset: cfg.Offset}
		if _, err := cfg.Input.value(thermal.Setpoints{}, thermal.Temperatures{}, false); err != nil {
			return nil, errors.Wrap(err, ch.String())
		}
		if len(cfg.Den) > 0 {
			tf := lti.TransferFunction{Num: cfg.Num, Den: cfg.Den}
			var err error
			if cfg.Discrete {
				c.handle, err = engine.RegisterDiscreteTransferFunction(tf, sample)
			} else {
				c.handle, err = engine.RegisterTransferFunction(tf, sample, method)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "%s system %s", ch, tf)
			}
			c.active = true
		}
		l.channels[ch] = c
	}
	return l, nil
}

func (l *LTI) Compute(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.PWM, error) {
	var out thermal.PWM
	for _, ch := range thermal.Channels() {
		c := l.channels[ch]
		out[ch] = c.offset
		if !c.active {
			continue
		}
		in, err := c.input.value(sp, temps, l.relative)
		if err != nil {
			return thermal.PWM{}, err
		}
		y, err := l.engine.Step(c.handle, in)
		if err != nil {
			return thermal.PWM{}, errors.Wrap(err, ch.String())
		}
		out[ch] += y
	}
	return out, nil
}
