// Package experiment loads experiment scripts and replays them against the
// wall clock.
//
// A script is a CSV table whose rows are keyed by a TIME column in
// milliseconds. Each row carries setpoints and the disturbance parameters
// applied to the actuators from that instant on. The [Scheduler] tracks
// elapsed time, decides when a control cycle is due and exposes the
// [Active] row with every missing value resolved to its default.
package experiment
