// Package metrics summarizes logged control cycles into scalar figures
// stored with each run.
package metrics

import (
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Metric accumulates one figure over the records of a run.
type Metric interface {
	Name() string
	Observe(r storage.Record)
	Value() float64
	Reset()
}

// Set is a group of metrics fed from the same records.
type Set []Metric

// Default returns the metrics recorded for every run.
func Default() Set {
	return Set{
		NewControlEffort(),
		NewTrackingError(1),
		NewTrackingError(2),
		NewComputeTime(50),
		NewComputeTime(95),
		NewSaturation(),
		NewStability(thermal.OverheatLimit),
	}
}

func (s Set) Observe(r storage.Record) {
	for _, m := range s {
		m.Observe(r)
	}
}

// Values returns every metric by name.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Summarize feeds records through the default metrics.
func Summarize(records []storage.Record) map[string]float64 {
	s := Default()
	for _, r := range records {
		s.Observe(r)
	}
	return s.Values()
}
