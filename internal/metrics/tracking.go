package metrics

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
)

// TrackingError is the RMS distance between a heater and its absolute
// setpoint. Cycles with a zero setpoint are ignored.
type TrackingError struct {
	name   string
	heater thermal.Channel
	errs   stats.Float64Data
}

// NewTrackingError tracks heater 1 or 2.
func NewTrackingError(heater int) *TrackingError {
	return &TrackingError{
		name:   fmt.Sprintf("tracking_rms_h%d", heater),
		heater: thermal.Channel(heater - 1),
	}
}

func (m *TrackingError) Name() string { return m.name }

func (m *TrackingError) Observe(r storage.Record) {
	var sp, temp float64
	switch m.heater {
	case thermal.Heater1:
		sp, temp = r.Row.Setpoints.Abs1, r.Temps.Heater1
	case thermal.Heater2:
		sp, temp = r.Row.Setpoints.Abs2, r.Temps.Heater2
	default:
		return
	}
	if sp == 0 {
		return
	}
	m.errs = append(m.errs, sp-temp)
}

func (m *TrackingError) Value() float64 {
	if len(m.errs) == 0 {
		return 0
	}
	sq := make(stats.Float64Data, len(m.errs))
	for i, e := range m.errs {
		sq[i] = e * e
	}
	mean, err := stats.Mean(sq)
	if err != nil || math.IsNaN(mean) {
		return 0
	}
	return math.Sqrt(mean)
}

func (m *TrackingError) Reset() { m.errs = m.errs[:0] }
