// Package integrators advances continuous-time thermal models.
package integrators

import "github.com/san-kum/tecolab/internal/thermal"

// Euler is the explicit forward method.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys thermal.System, x thermal.State, u thermal.PWM, t, dt float64) thermal.State {
	dx := sys.Derive(x, u, t)
	result := make(thermal.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// New returns the integrator called name: "euler" or "rk4". Unknown
// names select RK4.
func New(name string) thermal.Integrator {
	if name == "euler" {
		return NewEuler()
	}
	return NewRK4()
}
