// Package export renders stored runs for use outside the terminal.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
	"github.com/san-kum/tecolab/internal/viz"
)

// Trace is one polyline of a chart.
type Trace struct {
	Label  string
	Color  string
	Dashed bool
	Values []float64
}

const margin = 40

// TracesSVG draws traces sharing the time axis times, in seconds.
func TracesSVG(times []float64, traces []Trace, width, height int, title string) string {
	if len(times) < 2 || len(traces) == 0 {
		return ""
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, tr := range traces {
		for _, v := range tr.Values {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	plotW, plotH := float64(width-2*margin), float64(height-2*margin)
	px := func(x float64) float64 { return margin + (x-minX)/rangeX*plotW }
	py := func(y float64) float64 { return margin + plotH - (y-minY)/rangeY*plotH }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace" font-size="11">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="%d" y="20" fill="#00ffff">%s</text>
<rect x="%d" y="%d" width="%.0f" height="%.0f" fill="none" stroke="#444466"/>
`, width, height, width, height, margin, escape(title), margin, margin, plotW, plotH))

	for i := 0; i <= 4; i++ {
		y := minY + rangeY*float64(i)/4
		sb.WriteString(fmt.Sprintf(`<text x="4" y="%.1f" fill="#888899">%.1f</text>
`, py(y)+4, y))
	}
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#888899">%.0f s</text>
<text x="%d" y="%d" fill="#888899" text-anchor="end">%.0f s</text>
`, margin, height-margin/2, minX, width-margin, height-margin/2, maxX))

	for i, tr := range traces {
		dash := ""
		if tr.Dashed {
			dash = ` stroke-dasharray="6,3"`
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, tr.Color, dash))
		n := min(len(tr.Values), len(times))
		for j := 0; j < n; j++ {
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", px(times[j]), py(tr.Values[j])))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px(times[j]), py(tr.Values[j])))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="%s">%s</text>
`, width-margin-90, margin+14*(i+1), tr.Color, escape(tr.Label)))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// RunSVG charts heater temperatures against their setpoints.
func RunSVG(records []storage.Record, width, height int, title string) string {
	var s viz.Series
	times := make([]float64, 0, len(records))
	for _, r := range records {
		s.Append(r)
		times = append(times, float64(r.Time)/1000)
	}
	return TracesSVG(times, []Trace{
		{Label: "H1", Color: "#ff4444", Values: s.H1},
		{Label: "H2", Color: "#4488ff", Values: s.H2},
		{Label: "SP1", Color: "#ffcc00", Dashed: true, Values: s.SP1},
		{Label: "SP2", Color: "#00ccff", Dashed: true, Values: s.SP2},
		{Label: "ambient", Color: "#888899", Dashed: true, Values: s.Amb},
	}, width, height, title)
}

// DutySVG charts the PWM written to the board.
func DutySVG(records []storage.Record, width, height int, title string) string {
	var s viz.Series
	times := make([]float64, 0, len(records))
	for _, r := range records {
		s.Append(r)
		times = append(times, float64(r.Time)/1000)
	}
	return TracesSVG(times, []Trace{
		{Label: "H1 %", Color: "#ff4444", Values: s.Duty[thermal.Heater1]},
		{Label: "H2 %", Color: "#4488ff", Values: s.Duty[thermal.Heater2]},
		{Label: "fan %", Color: "#00ff88", Values: s.Duty[thermal.Fan]},
	}, width, height, title)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
