package board

import (
	"github.com/san-kum/tecolab/internal/thermal"
)

// Plant is a two-node lumped thermal model. Each heater node receives
// electrical power, loses heat to ambient through a conductance that grows
// with fan speed, and exchanges heat with the other node.
//
//	C dTi/dt = P·ui/100 - (G + Gf·fan/100)(Ti - Ta) - K(Ti - Tj)
type Plant struct {
	Ambient     float64 `yaml:"ambient"`
	Capacity    float64 `yaml:"capacity"`
	Power       float64 `yaml:"power"`
	Conductance float64 `yaml:"conductance"`
	FanGain     float64 `yaml:"fan_gain"`
	Coupling    float64 `yaml:"coupling"`
}

// DefaultPlant returns parameters close to the physical board: about
// 70 °C rise at full power and a time constant of a few minutes.
func DefaultPlant() Plant {
	return Plant{
		Ambient:     25,
		Capacity:    40,
		Power:       10,
		Conductance: 0.14,
		FanGain:     0.2,
		Coupling:    0.03,
	}
}

func (p Plant) StateDim() int { return 2 }

func (p Plant) Derive(x thermal.State, u thermal.PWM, t float64) thermal.State {
	loss := p.Conductance + p.FanGain*u[thermal.Fan]/100
	dx := make(thermal.State, 2)
	dx[0] = (p.Power*u[thermal.Heater1]/100 - loss*(x[0]-p.Ambient) - p.Coupling*(x[0]-x[1])) / p.Capacity
	dx[1] = (p.Power*u[thermal.Heater2]/100 - loss*(x[1]-p.Ambient) - p.Coupling*(x[1]-x[0])) / p.Capacity
	return dx
}

// Initial returns the state with both heaters at ambient.
func (p Plant) Initial() thermal.State {
	return thermal.State{p.Ambient, p.Ambient}
}
