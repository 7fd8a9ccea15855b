// Package viz renders experiments in the terminal.
//
// [Monitor] is a Bubble Tea model fed by a [Feed], which the control loop
// drives as an observer. [PlotRun] charts a stored run with asciigraph.
//
// # Key Bindings
//
//	q, Esc, Ctrl+C - stop the experiment, press again to leave
package viz
