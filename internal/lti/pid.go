package lti

// DefaultDerivativePole is the pole of the first-order filter applied to
// the derivative term.
const DefaultDerivativePole = 100

// PIDGains parameterizes a PID controller in the form
// Kp·(1 + Ki/s + Kd·s) with a filtered derivative.
type PIDGains struct {
	Kp   float64 `yaml:"kp"`
	Ki   float64 `yaml:"ki"`
	Kd   float64 `yaml:"kd"`
	Pole float64 `yaml:"pole"`
}

func (g PIDGains) pole() float64 {
	if g.Pole == 0 {
		return DefaultDerivativePole
	}
	return g.Pole
}

// PIDTransferFunction returns the continuous transfer function of g.
//
//	Kp = 0   0 / 1
//	P        Kp / 1
//	PD       (Kp(1+Kd·p)s + p) / (s + p)
//	PI       (Kp·s + Kp·Ki) / s
//	PID      (Kp(1+Kd·p)s² + Kp(p+Ki)s + Kp·Ki·p) / (s² + p·s)
func PIDTransferFunction(g PIDGains) TransferFunction {
	p := g.pole()
	switch {
	case g.Kp == 0:
		return TransferFunction{Num: []float64{0}, Den: []float64{1}}
	case g.Ki == 0 && g.Kd == 0:
		return TransferFunction{Num: []float64{g.Kp}, Den: []float64{1}}
	case g.Ki == 0:
		return TransferFunction{Num: []float64{g.Kp * (1 + g.Kd*p), p}, Den: []float64{1, p}}
	case g.Kd == 0:
		return TransferFunction{Num: []float64{g.Kp, g.Kp * g.Ki}, Den: []float64{1, 0}}
	default:
		return TransferFunction{
			Num: []float64{g.Kp * (1 + g.Kd*p), g.Kp * (p + g.Ki), g.Kp * g.Ki * p},
			Den: []float64{1, p, 0},
		}
	}
}
