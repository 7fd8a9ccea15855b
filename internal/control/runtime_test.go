package control

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tecolab/internal/thermal"
)

func TestRuntimeRepeatsLastAction(t *testing.T) {
	calls := 0
	law := LawFunc(func(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.PWM, error) {
		calls++
		return thermal.PWM{float64(calls), sp.Abs1, temps.Heater1}, nil
	})
	r := NewRuntime(law, NewGate(1, false))

	a, err := r.Invoke(thermal.Setpoints{Abs1: 40}, thermal.Temperatures{Heater1: 25})
	require.NoError(t, err)
	assert.False(t, a.New)
	assert.Equal(t, thermal.PWM{}, a.PWM)

	a, err = r.Invoke(thermal.Setpoints{Abs1: 40}, thermal.Temperatures{Heater1: 25})
	require.NoError(t, err)
	assert.True(t, a.New)
	assert.Equal(t, thermal.PWM{1, 40, 25}, a.PWM)

	a, err = r.Invoke(thermal.Setpoints{Abs1: 50}, thermal.Temperatures{Heater1: 30})
	require.NoError(t, err)
	assert.False(t, a.New)
	assert.Equal(t, thermal.PWM{1, 40, 25}, a.PWM)
	assert.Equal(t, 1, calls)
	assert.Equal(t, thermal.PWM{1, 40, 25}, r.Last())
}

func TestRuntimeMeasuresDuration(t *testing.T) {
	r := NewRuntime(Null{}, nil)
	base := time.Unix(0, 0)
	ticks := 0
	r.now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 3 * time.Millisecond)
	}
	a, err := r.Invoke(thermal.Setpoints{}, thermal.Temperatures{})
	require.NoError(t, err)
	assert.True(t, a.New)
	assert.Equal(t, 3*time.Millisecond, a.Duration)
}

func TestRuntimeLawError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRuntime(LawFunc(func(thermal.Setpoints, thermal.Temperatures) (thermal.PWM, error) {
		return thermal.PWM{}, boom
	}), nil)
	_, err := r.Invoke(thermal.Setpoints{}, thermal.Temperatures{})
	assert.ErrorIs(t, err, boom)
}

func TestConstantAndNull(t *testing.T) {
	pwm, err := Null{}.Compute(thermal.Setpoints{Abs1: 80}, thermal.Temperatures{})
	require.NoError(t, err)
	assert.Equal(t, thermal.PWM{}, pwm)

	pwm, err = Constant{PWM: thermal.PWM{1, 2, 3}}.Compute(thermal.Setpoints{}, thermal.Temperatures{})
	require.NoError(t, err)
	assert.Equal(t, thermal.PWM{1, 2, 3}, pwm)
}
