package disturbance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/thermal"
)

func defaults() experiment.Active {
	return experiment.Row{}.Resolve()
}

func TestApplyDefaultsClampToRange(t *testing.T) {
	m := New()
	out := m.Apply(thermal.PWM{150, -20, 50}, defaults(), 200)
	assert.Equal(t, thermal.PWM{100, 0, 50}, out)
	assert.Equal(t, out, m.Disturbed())
	assert.Equal(t, thermal.PWM{150, -20, 50}, m.Computed())
}

func TestApplyNoise(t *testing.T) {
	row := defaults()
	row.MulNoise = thermal.PWM{0.5, 2, 1}
	row.AddNoise = thermal.PWM{1, -3, 10}

	out := New().Apply(thermal.PWM{40, 20, 30}, row, 200)
	assert.Equal(t, thermal.PWM{21, 37, 40}, out)
}

func TestApplyReplacesNaN(t *testing.T) {
	m := New()
	m.Apply(thermal.PWM{30, 40, 50}, defaults(), 200)
	out := m.Apply(thermal.PWM{math.NaN(), 10, math.NaN()}, defaults(), 200)
	assert.Equal(t, thermal.PWM{30, 10, 50}, out)
}

func TestApplyRateLimit(t *testing.T) {
	row := defaults()
	row.RateSat = thermal.Uniform(10)

	m := New()
	periodMs := int64(500)
	maxStep := 10 * float64(periodMs) / 1000

	inputs := []thermal.PWM{{100, 0, 50}, {100, 0, 50}, {0, 100, 50}, {80, 20, 0}, {80, 20, 0}}
	prev := thermal.PWM{}
	for i, in := range inputs {
		out := m.Apply(in, row, periodMs)
		for _, ch := range thermal.Channels() {
			assert.LessOrEqual(t, math.Abs(out[ch]-prev[ch]), maxStep+1e-9, "cycle %d %s", i, ch)
			assert.GreaterOrEqual(t, out[ch], row.NegSat[ch])
			assert.LessOrEqual(t, out[ch], row.PosSat[ch])
		}
		prev = out
	}
	assert.InDelta(t, 15, m.Disturbed()[thermal.Heater1], 1e-9)
}

func TestApplySaturationWins(t *testing.T) {
	row := defaults()
	row.NegSat = thermal.PWM{20, 20, 20}
	row.PosSat = thermal.PWM{60, 60, 60}
	row.RateSat = thermal.Uniform(1)

	out := New().Apply(thermal.PWM{100, 0, 40}, row, 1000)
	assert.Equal(t, thermal.PWM{20, 20, 20}, out, "absolute clamp applies after the rate limit")
}

func TestReset(t *testing.T) {
	m := New()
	m.Apply(thermal.PWM{10, 20, 30}, defaults(), 200)
	m.Reset()
	assert.Equal(t, thermal.PWM{}, m.Computed())
	assert.Equal(t, thermal.PWM{}, m.Disturbed())
}
