package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Setpoint returns the target plotted for heater ch: the absolute setpoint
// when one is set, otherwise ambient plus the relative offset.
func Setpoint(r storage.Record, ch thermal.Channel) float64 {
	abs, rel := r.Row.Setpoints.Abs1, r.Row.Setpoints.Rel1
	if ch == thermal.Heater2 {
		abs, rel = r.Row.Setpoints.Abs2, r.Row.Setpoints.Rel2
	}
	if abs != 0 || rel == 0 {
		return abs
	}
	return r.Temps.Ambient + rel
}

// Series holds the plotted columns of a run.
type Series struct {
	H1, H2, Amb []float64
	SP1, SP2    []float64
	Duty        [thermal.NumChannels][]float64
}

// Append adds one record.
func (s *Series) Append(r storage.Record) {
	s.H1 = append(s.H1, r.Temps.Heater1)
	s.H2 = append(s.H2, r.Temps.Heater2)
	s.Amb = append(s.Amb, r.Temps.Ambient)
	s.SP1 = append(s.SP1, Setpoint(r, thermal.Heater1))
	s.SP2 = append(s.SP2, Setpoint(r, thermal.Heater2))
	for _, ch := range thermal.Channels() {
		s.Duty[ch] = append(s.Duty[ch], r.Disturbed[ch])
	}
}

// Trim keeps only the newest n samples.
func (s *Series) Trim(n int) {
	cut := func(v []float64) []float64 {
		if len(v) > n {
			return v[len(v)-n:]
		}
		return v
	}
	s.H1, s.H2, s.Amb = cut(s.H1), cut(s.H2), cut(s.Amb)
	s.SP1, s.SP2 = cut(s.SP1), cut(s.SP2)
	for ch := range s.Duty {
		s.Duty[ch] = cut(s.Duty[ch])
	}
}

// Len is the number of samples.
func (s *Series) Len() int { return len(s.H1) }

// Temperatures plots heater temperatures against their setpoints.
func (s *Series) Temperatures(width, height int) string {
	if s.Len() < 2 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{s.H1, s.H2, s.SP1, s.SP2},
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue, asciigraph.Yellow, asciigraph.Cyan),
		asciigraph.Caption("°C  red=H1 blue=H2 yellow=SP1 cyan=SP2"),
	)
}

// Duties plots the disturbed PWM sent to the board.
func (s *Series) Duties(width, height int) string {
	if s.Len() < 2 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{s.Duty[thermal.Heater1], s.Duty[thermal.Heater2], s.Duty[thermal.Fan]},
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(0),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue, asciigraph.Green),
		asciigraph.Caption("%  red=H1 blue=H2 green=fan"),
	)
}

// PlotRun renders a stored run as temperature and duty charts.
func PlotRun(records []storage.Record, width, height int) string {
	if len(records) < 2 {
		return Subtle.Render(fmt.Sprintf("%d samples, nothing to plot", len(records)))
	}
	var s Series
	for _, r := range records {
		s.Append(r)
	}
	var b strings.Builder
	b.WriteString(s.Temperatures(width, height))
	b.WriteString("\n\n")
	b.WriteString(s.Duties(width, max(height/2, 3)))
	b.WriteString("\n")
	return b.String()
}
