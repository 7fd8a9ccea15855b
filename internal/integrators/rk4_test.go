package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/tecolab/internal/thermal"
)

// cooling is dT/dt = (u - T)/tau driven by the first heater duty.
type cooling struct{ tau float64 }

func (c cooling) Derive(x thermal.State, u thermal.PWM, t float64) thermal.State {
	return thermal.State{(u[thermal.Heater1] - x[0]) / c.tau}
}

func (c cooling) StateDim() int { return 1 }

func integrate(integ thermal.Integrator, steps int, dt float64) float64 {
	sys := cooling{tau: 2}
	x := thermal.State{0}
	u := thermal.PWM{10}
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, u, float64(i)*dt, dt)
	}
	return x[0]
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.01
	steps := 100
	got := integrate(NewRK4(), steps, dt)
	want := 10 * (1 - math.Exp(-float64(steps)*dt/2))

	if math.Abs(got-want) > 1e-8 {
		t.Errorf("error too large: got %.10f, expected %.10f", got, want)
	}
}

func TestEulerConverges(t *testing.T) {
	want := 10 * (1 - math.Exp(-0.5))
	coarse := math.Abs(integrate(NewEuler(), 10, 0.1) - want)
	fine := math.Abs(integrate(NewEuler(), 100, 0.01) - want)

	if fine >= coarse {
		t.Errorf("euler did not converge: coarse error %.6f, fine error %.6f", coarse, fine)
	}
	if fine > 1e-2 {
		t.Errorf("fine error too large: %.6f", fine)
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("euler").(*Euler); !ok {
		t.Error("expected Euler")
	}
	if _, ok := New("rk4").(*RK4); !ok {
		t.Error("expected RK4")
	}
}
