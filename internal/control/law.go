package control

import (
	"github.com/san-kum/tecolab/internal/thermal"
)

// Law computes duty cycles from the active setpoints and the latest
// temperatures. Laws may keep state between calls; a Runtime calls them
// from a single goroutine.
type Law interface {
	Compute(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.PWM, error)
}

// LawFunc adapts a function to the Law interface.
type LawFunc func(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.PWM, error)

func (f LawFunc) Compute(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.PWM, error) {
	return f(sp, temps)
}

// Null keeps every actuator off.
type Null struct{}

func (Null) Compute(thermal.Setpoints, thermal.Temperatures) (thermal.PWM, error) {
	return thermal.PWM{}, nil
}

// Constant outputs fixed duty cycles regardless of its inputs.
type Constant struct {
	PWM thermal.PWM
}

func (c Constant) Compute(thermal.Setpoints, thermal.Temperatures) (thermal.PWM, error) {
	return c.PWM, nil
}
