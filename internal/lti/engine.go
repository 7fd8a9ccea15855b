package lti

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Handle identifies a system registered in an Engine.
type Handle int

type entry struct {
	sys        StateSpace
	continuous *StateSpace
	x          *mat.VecDense
}

// Engine owns a set of discrete systems and their states. Each handle has
// its own state vector; no state is shared between systems.
type Engine struct {
	disc    Discretizer
	systems []entry
}

// NewEngine returns an empty engine. A nil Discretizer selects
// DefaultDiscretizer.
func NewEngine(d Discretizer) *Engine {
	if d == nil {
		d = DefaultDiscretizer{}
	}
	return &Engine{disc: d}
}

// Len returns the number of registered systems.
func (e *Engine) Len() int { return len(e.systems) }

// RegisterDiscrete stores a discrete system. A nil x0 starts from the zero
// state.
func (e *Engine) RegisterDiscrete(sys StateSpace, x0 []float64) (Handle, error) {
	if !sys.IsDiscrete() {
		return -1, ErrNotDiscrete
	}
	if err := sys.Validate(); err != nil {
		return -1, err
	}
	n := sys.Order()
	var x *mat.VecDense
	if n > 0 {
		if x0 != nil && len(x0) != n {
			return -1, fmt.Errorf("%w: initial state has %d entries, system has %d states", ErrDimension, len(x0), n)
		}
		x = mat.NewVecDense(n, nil)
		for i, v := range x0 {
			x.SetVec(i, v)
		}
	}
	e.systems = append(e.systems, entry{sys: sys, x: x})
	return Handle(len(e.systems) - 1), nil
}

// RegisterContinuous discretizes sys with the given period and method and
// registers the result.
func (e *Engine) RegisterContinuous(sys StateSpace, period float64, method Method) (Handle, error) {
	if period <= 0 {
		return -1, ErrPeriod
	}
	if sys.IsDiscrete() {
		return -1, ErrNotContinuous
	}
	d, err := e.disc.Discretize(sys, period, method)
	if err != nil {
		return -1, err
	}
	h, err := e.RegisterDiscrete(d, nil)
	if err != nil {
		return -1, err
	}
	cont := sys
	e.systems[h].continuous = &cont
	return h, nil
}

// RegisterTransferFunction realizes a continuous transfer function and
// registers it like RegisterContinuous.
func (e *Engine) RegisterTransferFunction(tf TransferFunction, period float64, method Method) (Handle, error) {
	sys, err := Realize(tf, 0)
	if err != nil {
		return -1, err
	}
	return e.RegisterContinuous(sys, period, method)
}

// RegisterDiscreteTransferFunction realizes a transfer function in z with
// sample period dt.
func (e *Engine) RegisterDiscreteTransferFunction(tf TransferFunction, dt float64) (Handle, error) {
	if dt <= 0 {
		return -1, ErrPeriod
	}
	sys, err := Realize(tf, dt)
	if err != nil {
		return -1, err
	}
	return e.RegisterDiscrete(sys, nil)
}

// RegisterPID builds the PID transfer function for g and registers its
// discretization.
func (e *Engine) RegisterPID(g PIDGains, period float64, method Method) (Handle, error) {
	return e.RegisterTransferFunction(PIDTransferFunction(g), period, method)
}

func (e *Engine) lookup(h Handle) (*entry, error) {
	if h < 0 || int(h) >= len(e.systems) {
		return nil, fmt.Errorf("%w: %d (registered %d)", ErrHandle, h, len(e.systems))
	}
	return &e.systems[h], nil
}

// Step advances system h by one sample with input u and returns its
// output.
func (e *Engine) Step(h Handle, u float64) (float64, error) {
	en, err := e.lookup(h)
	if err != nil {
		return 0, err
	}
	y, next := Simulate(en.sys, en.x, u)
	en.x = next
	return y, nil
}

// State returns a copy of the state of system h.
func (e *Engine) State(h Handle) ([]float64, error) {
	en, err := e.lookup(h)
	if err != nil {
		return nil, err
	}
	if en.x == nil {
		return []float64{}, nil
	}
	out := make([]float64, en.x.Len())
	for i := range out {
		out[i] = en.x.AtVec(i)
	}
	return out, nil
}

// System returns the discrete system stored under h and, when it was
// registered from continuous time, the original continuous system.
func (e *Engine) System(h Handle) (StateSpace, *StateSpace, error) {
	en, err := e.lookup(h)
	if err != nil {
		return StateSpace{}, nil, err
	}
	return en.sys, en.continuous, nil
}

// Reset zeroes the state of system h.
func (e *Engine) Reset(h Handle) error {
	en, err := e.lookup(h)
	if err != nil {
		return err
	}
	if en.x != nil {
		en.x.Zero()
	}
	return nil
}
