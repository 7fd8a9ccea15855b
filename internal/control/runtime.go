package control

import (
	"time"

	"github.com/san-kum/tecolab/internal/thermal"
)

// Runtime evaluates a Law whenever its Gate fires and remembers the last
// action in between.
type Runtime struct {
	law  Law
	gate *Gate
	last thermal.PWM
	now  func() time.Time
}

// NewRuntime pairs law with gate. A nil gate evaluates the law on every
// cycle.
func NewRuntime(law Law, gate *Gate) *Runtime {
	if gate == nil {
		gate = NewGate(0, true)
	}
	return &Runtime{law: law, gate: gate, now: time.Now}
}

// Gate returns the gate of the runtime.
func (r *Runtime) Gate() *Gate { return r.gate }

// Last returns the last computed duty cycles.
func (r *Runtime) Last() thermal.PWM { return r.last }

// Invoke checks the gate and, when it fires, runs the law and times it.
// Otherwise it returns the previous action with New unset.
func (r *Runtime) Invoke(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.Action, error) {
	if !r.gate.Check() {
		return thermal.Action{PWM: r.last}, nil
	}
	start := r.now()
	pwm, err := r.law.Compute(sp, temps)
	elapsed := r.now().Sub(start)
	if err != nil {
		return thermal.Action{PWM: r.last}, err
	}
	r.last = pwm
	return thermal.Action{PWM: pwm, New: true, Duration: elapsed}, nil
}
