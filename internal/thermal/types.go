package thermal

import (
	"fmt"
	"math"
	"time"
)

// Channel identifies one actuator of the board.
type Channel int

const (
	Heater1 Channel = iota
	Heater2
	Fan
	NumChannels
)

var channelNames = [NumChannels]string{"heater1", "heater2", "fan"}

func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// Channels lists every actuator in wire order.
func Channels() []Channel {
	return []Channel{Heater1, Heater2, Fan}
}

// PWM holds duty cycles in percent, indexed by Channel.
type PWM [NumChannels]float64

// IsValid reports whether no channel is NaN or infinite.
func (p PWM) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p PWM) String() string {
	return fmt.Sprintf("[h1=%.2f h2=%.2f fan=%.2f]", p[Heater1], p[Heater2], p[Fan])
}

// Uniform returns a PWM with every channel set to v.
func Uniform(v float64) PWM {
	return PWM{v, v, v}
}

// Temperatures is a single sensor sample in degrees Celsius.
type Temperatures struct {
	Heater1 float64
	Heater2 float64
	Ambient float64
}

func (t Temperatures) String() string {
	return fmt.Sprintf("[h1=%.2f h2=%.2f amb=%.2f]", t.Heater1, t.Heater2, t.Ambient)
}

// Setpoints are the targets of the active script row. Absolute setpoints
// are in degrees Celsius, relative ones are offsets from ambient.
type Setpoints struct {
	Abs1 float64
	Abs2 float64
	Rel1 float64
	Rel2 float64
}

// Target resolves the setpoint for heater 1 or 2, either absolute or
// relative to the measured ambient temperature.
func (s Setpoints) Target(c Channel, relative bool, ambient float64) float64 {
	switch c {
	case Heater1:
		if relative {
			return ambient + s.Rel1
		}
		return s.Abs1
	case Heater2:
		if relative {
			return ambient + s.Rel2
		}
		return s.Abs2
	}
	return math.NaN()
}

// Action is the output of one controller invocation.
type Action struct {
	PWM PWM
	// New is set when the control law ran on this cycle; otherwise PWM
	// repeats the previous decision.
	New bool
	// Duration is the time spent inside the control law.
	Duration time.Duration
}

// State is the state vector of a continuous-time model.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a continuous-time model dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u PWM, t float64) State
	StateDim() int
}

// Integrator advances a System by one time step.
type Integrator interface {
	Step(sys System, x State, u PWM, t, dt float64) State
}

// OverheatLimit is the heater temperature, in degrees Celsius, at which
// the firmware latches its safety shutdown.
const OverheatLimit = 100.0

// Clamp limits v to [lo, hi]. When lo > hi the result is hi.
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
