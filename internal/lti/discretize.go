package lti

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Method selects a continuous-to-discrete conversion.
type Method string

const (
	// ZOH assumes the input is held constant over each sample.
	ZOH Method = "zoh"
	// Tustin is the bilinear transform.
	Tustin Method = "tustin"
	// Euler is the forward difference.
	Euler Method = "euler"
	// BackwardDiff is the backward difference.
	BackwardDiff Method = "backward_diff"
)

// ParseMethod accepts the method names used in controller descriptions.
// An empty name selects ZOH.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zoh":
		return ZOH, nil
	case "tustin", "bilinear":
		return Tustin, nil
	case "euler", "forward_diff":
		return Euler, nil
	case "backward_diff":
		return BackwardDiff, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMethod, name)
}

// Discretizer converts a continuous system into a discrete one sampled
// every period seconds.
type Discretizer interface {
	Discretize(sys StateSpace, period float64, method Method) (StateSpace, error)
}

// DefaultDiscretizer implements ZOH through the matrix exponential and the
// difference methods through the generalized bilinear transform.
type DefaultDiscretizer struct{}

func (DefaultDiscretizer) Discretize(sys StateSpace, period float64, method Method) (StateSpace, error) {
	if period <= 0 {
		return StateSpace{}, ErrPeriod
	}
	if sys.IsDiscrete() {
		return StateSpace{}, ErrNotContinuous
	}
	if err := sys.Validate(); err != nil {
		return StateSpace{}, err
	}
	if sys.Order() == 0 {
		return StateSpace{D: sys.D, Dt: period}, nil
	}
	switch method {
	case ZOH, "":
		return zoh(sys, period), nil
	case Tustin:
		return gbt(sys, period, 0.5)
	case Euler:
		return gbt(sys, period, 0)
	case BackwardDiff:
		return gbt(sys, period, 1)
	}
	return StateSpace{}, fmt.Errorf("%w: %q", ErrMethod, method)
}

// zoh exponentiates the block matrix [[A B] [0 0]]·T; the top blocks of the
// result are Ad and Bd.
func zoh(sys StateSpace, period float64) StateSpace {
	n := sys.Order()
	m := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, sys.A.At(i, j)*period)
		}
		m.Set(i, n, sys.B.AtVec(i)*period)
	}
	var e mat.Dense
	e.Exp(m)

	ad := mat.DenseCopyOf(e.Slice(0, n, 0, n))
	bd := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		bd.SetVec(i, e.At(i, n))
	}
	return StateSpace{A: ad, B: bd, C: mat.VecDenseCopyOf(sys.C), D: sys.D, Dt: period}
}

// gbt applies the generalized bilinear transform with weight alpha.
func gbt(sys StateSpace, period, alpha float64) (StateSpace, error) {
	n := sys.Order()
	eye := mat.NewDiagDense(n, nil)
	for i := 0; i < n; i++ {
		eye.SetDiag(i, 1)
	}

	var ima mat.Dense
	ima.Scale(-alpha*period, sys.A)
	ima.Add(eye, &ima)

	var imaInv mat.Dense
	if err := imaInv.Inverse(&ima); err != nil {
		return StateSpace{}, fmt.Errorf("lti: bilinear transform: %w", err)
	}

	var ipa mat.Dense
	ipa.Scale((1-alpha)*period, sys.A)
	ipa.Add(eye, &ipa)

	ad := mat.NewDense(n, n, nil)
	ad.Mul(&imaInv, &ipa)

	bd := mat.NewVecDense(n, nil)
	bd.MulVec(&imaInv, sys.B)
	bd.ScaleVec(period, bd)

	// C·ima⁻¹ as a column: (ima⁻¹)ᵀ·Cᵀ.
	cd := mat.NewVecDense(n, nil)
	cd.MulVec(imaInv.T(), sys.C)

	dd := sys.D + alpha*mat.Dot(sys.C, bd)
	return StateSpace{A: ad, B: bd, C: cd, D: dd, Dt: period}, nil
}
