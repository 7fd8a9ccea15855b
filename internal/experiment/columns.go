package experiment

import (
	"strings"

	"github.com/san-kum/tecolab/internal/thermal"
)

// Column is one field of an experiment row.
type Column int

const (
	ColTime Column = iota
	ColSP1Abs
	ColSP2Abs
	ColSP1Rel
	ColSP2Rel
	ColH1MulNoise
	ColH2MulNoise
	ColFMulNoise
	ColH1AddNoise
	ColH2AddNoise
	ColFAddNoise
	ColH1NegSat
	ColH2NegSat
	ColFNegSat
	ColH1PosSat
	ColH2PosSat
	ColFPosSat
	ColH1RateSat
	ColH2RateSat
	ColFRateSat
	NumColumns
)

var columnNames = [NumColumns]string{
	"TIME",
	"SP1_ABS", "SP2_ABS", "SP1_REL", "SP2_REL",
	"H1_MUL_NOISE", "H2_MUL_NOISE", "F_MUL_NOISE",
	"H1_ADD_NOISE", "H2_ADD_NOISE", "F_ADD_NOISE",
	"H1_NEG_SAT", "H2_NEG_SAT", "F_NEG_SAT",
	"H1_POS_SAT", "H2_POS_SAT", "F_POS_SAT",
	"H1_RATE_SAT", "H2_RATE_SAT", "F_RATE_SAT",
}

func (c Column) String() string {
	if c < 0 || c >= NumColumns {
		return "UNKNOWN"
	}
	return columnNames[c]
}

// Columns returns every column in schema order.
func Columns() []Column {
	cols := make([]Column, NumColumns)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}

// ParseColumn maps a header name to its column.
func ParseColumn(name string) (Column, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range columnNames {
		if n == name {
			return Column(i), true
		}
	}
	return 0, false
}

// Disturbance parameter groups, each with one column per actuator.
var (
	mulNoiseColumns = [thermal.NumChannels]Column{ColH1MulNoise, ColH2MulNoise, ColFMulNoise}
	addNoiseColumns = [thermal.NumChannels]Column{ColH1AddNoise, ColH2AddNoise, ColFAddNoise}
	negSatColumns   = [thermal.NumChannels]Column{ColH1NegSat, ColH2NegSat, ColFNegSat}
	posSatColumns   = [thermal.NumChannels]Column{ColH1PosSat, ColH2PosSat, ColFPosSat}
	rateSatColumns  = [thermal.NumChannels]Column{ColH1RateSat, ColH2RateSat, ColFRateSat}
)

// Defaults applied to missing disturbance values.
const (
	DefaultMulNoise = 1
	DefaultAddNoise = 0
	DefaultNegSat   = 0
	DefaultPosSat   = 100
	DefaultRateSat  = 1000
	// DefaultSetpoint is used for a missing setpoint cell.
	DefaultSetpoint = 0

	// MaxSetpoint is the highest absolute setpoint accepted, in °C.
	MaxSetpoint = 100
)

// DefaultFor returns the value a missing cell of column c resolves to.
func DefaultFor(c Column) float64 {
	switch c {
	case ColH1MulNoise, ColH2MulNoise, ColFMulNoise:
		return DefaultMulNoise
	case ColH1AddNoise, ColH2AddNoise, ColFAddNoise:
		return DefaultAddNoise
	case ColH1NegSat, ColH2NegSat, ColFNegSat:
		return DefaultNegSat
	case ColH1PosSat, ColH2PosSat, ColFPosSat:
		return DefaultPosSat
	case ColH1RateSat, ColH2RateSat, ColFRateSat:
		return DefaultRateSat
	}
	return DefaultSetpoint
}
