// Package thermal provides the core value types shared by the TeCoLab
// control runtime.
//
// The board exposes two heaters and one fan, each driven by a PWM duty
// cycle given in percent, and three temperature sensors:
//
//   - [PWM]: actuator commands indexed by [Channel]
//   - [Temperatures]: one reading of the heater and ambient sensors
//   - [Setpoints]: absolute and relative targets of the active script row
//   - [Action]: a control decision together with its bookkeeping
//   - [System]: continuous-time dynamics dX/dt = f(X, u, t) used by the
//     virtual board
//
// # Thread Safety
//
// All types here are plain values. Components that own them are driven
// from a single control-loop goroutine.
package thermal
