// Package control runs control laws at a fixed cadence.
//
// A [Runtime] pairs a [Law] with a [Gate]. The gate decides on which loop
// cycles the law is evaluated; on the other cycles the runtime repeats the
// previous action. Laws are built from YAML descriptions:
//
//   - null: all actuators off
//   - constant: fixed duty cycles
//   - pid: one PID loop per heater, fan held constant
//   - lti: arbitrary transfer function per actuator
//
// PID and LTI laws are stepped by an [lti.Engine].
package control
