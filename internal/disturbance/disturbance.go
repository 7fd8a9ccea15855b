// Package disturbance perturbs computed control actions the way an
// experiment script asks for: NaN replacement, multiplicative and additive
// noise, rate saturation and absolute saturation.
package disturbance

import (
	"math"

	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Model keeps the per-channel history the rate limiter and NaN
// replacement depend on. The zero value starts from all-zero outputs.
type Model struct {
	computed  thermal.PWM
	disturbed thermal.PWM
}

// New returns a model starting from zero outputs.
func New() *Model {
	return &Model{}
}

// Apply returns the disturbed action for one cycle of periodMs.
//
// Per channel: a NaN input repeats the previous computed value, then
// v = c*mul + add, then v is kept within rate*period/1000 of the previous
// disturbed output, then clamped to [neg, pos].
func (m *Model) Apply(computed thermal.PWM, row experiment.Active, periodMs int64) thermal.PWM {
	dt := float64(periodMs) / 1000
	var out thermal.PWM
	for _, ch := range thermal.Channels() {
		c := computed[ch]
		if math.IsNaN(c) {
			c = m.computed[ch]
		}
		m.computed[ch] = c

		v := c*row.MulNoise[ch] + row.AddNoise[ch]

		step := row.RateSat[ch] * dt
		prev := m.disturbed[ch]
		v = thermal.Clamp(v, prev-step, prev+step)

		v = thermal.Clamp(v, row.NegSat[ch], row.PosSat[ch])
		m.disturbed[ch] = v
		out[ch] = v
	}
	return out
}

// Computed returns the last computed action after NaN replacement.
func (m *Model) Computed() thermal.PWM { return m.computed }

// Disturbed returns the last action produced by Apply.
func (m *Model) Disturbed() thermal.PWM { return m.disturbed }

// Reset forgets the history.
func (m *Model) Reset() {
	m.computed = thermal.PWM{}
	m.disturbed = thermal.PWM{}
}
