package control

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tecolab/internal/lti"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Kinds of control law a Description can build.
const (
	KindNull     = "null"
	KindConstant = "constant"
	KindPID      = "pid"
	KindLTI      = "lti"
)

// Description is the YAML form of a controller.
type Description struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// Every is the gate period: the law runs once every Every+1 loop
	// cycles, or every Every cycles when Corrected is set.
	Every     int  `yaml:"every"`
	Corrected bool `yaml:"corrected"`

	Relative bool   `yaml:"relative"`
	Method   string `yaml:"method"`

	PWM     []float64    `yaml:"pwm,omitempty"`
	Heater1 lti.PIDGains `yaml:"heater1"`
	Heater2 lti.PIDGains `yaml:"heater2"`
	Fan     float64      `yaml:"fan"`

	Channels map[string]ChannelConfig `yaml:"channels,omitempty"`
}

// LoadDescription reads a controller description from a YAML file.
func LoadDescription(path string) (Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Description{}, errors.Wrap(err, "read controller")
	}
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Description{}, errors.Wrapf(err, "parse controller %s", path)
	}
	return d, nil
}

// Gate returns the gate described by d.
func (d Description) Gate() *Gate {
	return NewGate(d.Every, d.Corrected)
}

// SampleTime returns the seconds between two law evaluations when the
// loop runs every periodMs.
func (d Description) SampleTime(periodMs int64) float64 {
	return float64(periodMs) / 1000 * float64(d.Gate().Interval())
}

// Build constructs the law described by d for a loop running every
// periodMs. LTI-based laws register their systems in engine.
func (d Description) Build(engine *lti.Engine, periodMs int64) (Law, error) {
	if periodMs <= 0 {
		return nil, thermal.ErrInvalidPeriod
	}
	method := lti.ZOH
	if d.Method != "" {
		m, err := lti.ParseMethod(d.Method)
		if err != nil {
			return nil, err
		}
		method = m
	}
	sample := d.SampleTime(periodMs)

	switch d.Kind {
	case KindNull, "":
		return Null{}, nil
	case KindConstant:
		var c Constant
		if len(d.PWM) > int(thermal.NumChannels) {
			return nil, fmt.Errorf("control: constant law takes %d duty cycles, got %d", thermal.NumChannels, len(d.PWM))
		}
		copy(c.PWM[:], d.PWM)
		return c, nil
	case KindPID:
		return NewPID(engine, PIDConfig{
			Heater1:  d.Heater1,
			Heater2:  d.Heater2,
			Fan:      d.Fan,
			Relative: d.Relative,
			Method:   method,
			Sample:   sample,
		})
	case KindLTI:
		var channels [thermal.NumChannels]ChannelConfig
		for name, cfg := range d.Channels {
			ch, ok := parseChannel(name)
			if !ok {
				return nil, fmt.Errorf("control: unknown channel %q", name)
			}
			channels[ch] = cfg
		}
		return NewLTI(engine, channels, d.Relative, method, sample)
	}
	return nil, fmt.Errorf("control: unknown controller kind %q", d.Kind)
}

func parseChannel(name string) (thermal.Channel, bool) {
	for _, ch := range thermal.Channels() {
		if ch.String() == name {
			return ch, true
		}
	}
	return 0, false
}
