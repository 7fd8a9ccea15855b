package lti

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// StateSpace is a SISO system. A, B and C are nil for a static gain.
type StateSpace struct {
	A *mat.Dense    // n×n
	B *mat.VecDense // n
	C *mat.VecDense // n, used as a row
	D float64
	// Dt is the sample period in seconds; zero marks a continuous system.
	Dt float64
}

// Order returns the number of states.
func (s StateSpace) Order() int {
	if s.A == nil {
		return 0
	}
	r, _ := s.A.Dims()
	return r
}

// IsDiscrete reports whether the system has a sample period.
func (s StateSpace) IsDiscrete() bool { return s.Dt > 0 }

// Validate checks matrix sizes.
func (s StateSpace) Validate() error {
	n := s.Order()
	if n == 0 {
		if s.B != nil || s.C != nil {
			return fmt.Errorf("%w: B and C must be empty for a static gain", ErrDimension)
		}
		return nil
	}
	if r, c := s.A.Dims(); r != c {
		return fmt.Errorf("%w: A is %dx%d", ErrDimension, r, c)
	}
	if s.B == nil || s.B.Len() != n {
		return fmt.Errorf("%w: B must have %d rows", ErrDimension, n)
	}
	if s.C == nil || s.C.Len() != n {
		return fmt.Errorf("%w: C must have %d columns", ErrDimension, n)
	}
	return nil
}

// NewStateSpace builds a system from row-major slices. a has n*n entries,
// b and c have n entries each.
func NewStateSpace(a, b, c []float64, d, dt float64) (StateSpace, error) {
	n := len(b)
	if len(a) != n*n || len(c) != n {
		return StateSpace{}, fmt.Errorf("%w: got %d A entries, %d B entries and %d C entries", ErrDimension, len(a), len(b), len(c))
	}
	sys := StateSpace{D: d, Dt: dt}
	if n > 0 {
		sys.A = mat.NewDense(n, n, append([]float64(nil), a...))
		sys.B = mat.NewVecDense(n, append([]float64(nil), b...))
		sys.C = mat.NewVecDense(n, append([]float64(nil), c...))
	}
	return sys, nil
}

// Simulate advances the state by one sample and returns the output taken
// before the update together with the next state. x is not modified.
func Simulate(s StateSpace, x *mat.VecDense, u float64) (float64, *mat.VecDense) {
	n := s.Order()
	if n == 0 {
		return s.D * u, nil
	}
	y := mat.Dot(s.C, x) + s.D*u
	next := mat.NewVecDense(n, nil)
	next.MulVec(s.A, x)
	next.AddScaledVec(next, u, s.B)
	return y, next
}

// TransferFunction holds numerator and denominator coefficients in
// descending powers of s (or z for discrete systems).
type TransferFunction struct {
	Num []float64
	Den []float64
}

func (tf TransferFunction) String() string {
	return fmt.Sprintf("num=%v den=%v", tf.Num, tf.Den)
}

func trimLeadingZeros(p []float64) []float64 {
	for len(p) > 1 && p[0] == 0 {
		p = p[1:]
	}
	return p
}

// Realize returns the controllable canonical realization of tf with the
// given sample period.
func Realize(tf TransferFunction, dt float64) (StateSpace, error) {
	num := trimLeadingZeros(tf.Num)
	den := trimLeadingZeros(tf.Den)
	if len(num) == 0 || len(den) == 0 {
		return StateSpace{}, fmt.Errorf("%w: empty polynomial", ErrDimension)
	}
	if den[0] == 0 || math.IsNaN(den[0]) {
		return StateSpace{}, fmt.Errorf("%w: zero denominator", ErrDimension)
	}
	if len(num) > len(den) {
		return StateSpace{}, ErrImproper
	}

	n := len(den) - 1
	lead := den[0]
	a := make([]float64, n+1)
	for i, v := range den {
		a[i] = v / lead
	}
	b := make([]float64, n+1)
	off := n + 1 - len(num)
	for i, v := range num {
		b[off+i] = v / lead
	}

	d := b[0]
	if n == 0 {
		return StateSpace{D: d, Dt: dt}, nil
	}

	A := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		A.Set(0, j, -a[j+1])
	}
	for i := 1; i < n; i++ {
		A.Set(i, i-1, 1)
	}
	B := mat.NewVecDense(n, nil)
	B.SetVec(0, 1)
	C := mat.NewVecDense(n, nil)
	for j := 0; j < n; j++ {
		C.SetVec(j, b[j+1]-d*a[j+1])
	}
	return StateSpace{A: A, B: B, C: C, D: d, Dt: dt}, nil
}
