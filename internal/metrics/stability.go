package metrics

import (
	"github.com/san-kum/tecolab/internal/storage"
)

// Stability is the fraction of cycles with both heaters below threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(r storage.Record) {
	s.samples++
	if r.Temps.Heater1 >= s.threshold || r.Temps.Heater2 >= s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Saturation is the fraction of cycles where the disturbance model changed
// at least one computed duty cycle.
type Saturation struct {
	name    string
	changed int
	samples int
}

func NewSaturation() *Saturation {
	return &Saturation{name: "disturbed_fraction"}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(r storage.Record) {
	s.samples++
	if r.Computed != r.Disturbed {
		s.changed++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.changed) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.changed = 0
	s.samples = 0
}
