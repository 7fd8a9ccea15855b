// Package lti simulates single-input single-output linear time-invariant
// systems one sample at a time.
//
// Systems are stored in discrete state-space form
//
//	x[k+1] = A x[k] + B u[k]
//	y[k]   = C x[k] + D u[k]
//
// and addressed by the [Handle] returned at registration. Continuous
// systems and PID gains are converted through a [Discretizer] first.
//
// # Usage
//
//	eng := lti.NewEngine(nil)
//	h, _ := eng.RegisterPID(lti.PIDGains{Kp: 2, Ki: 0.1}, 0.2, lti.ZOH)
//	u, _ := eng.Step(h, setpoint-measured)
package lti
