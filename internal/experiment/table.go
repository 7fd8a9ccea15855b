package experiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/san-kum/tecolab/internal/thermal"
)

// Optional is a table cell that may be left blank.
type Optional struct {
	Value float64
	Set   bool
}

// Some returns a present cell.
func Some(v float64) Optional { return Optional{Value: v, Set: true} }

// Or returns the cell value, or def when the cell is blank.
func (o Optional) Or(def float64) float64 {
	if !o.Set {
		return def
	}
	return o.Value
}

// Row is one scripted event. Cells are indexed by Column; the TIME column
// lives in Time.
type Row struct {
	Time  int64
	Cells [NumColumns]Optional
}

// Get returns the cell for column c.
func (r Row) Get(c Column) Optional {
	if c == ColTime {
		return Some(float64(r.Time))
	}
	return r.Cells[c]
}

// Set stores v in column c.
func (r *Row) Set(c Column, v float64) {
	if c == ColTime {
		r.Time = int64(v)
		return
	}
	r.Cells[c] = Some(v)
}

// Active is a row with every blank cell resolved to its default.
type Active struct {
	Time      int64
	Setpoints thermal.Setpoints
	MulNoise  thermal.PWM
	AddNoise  thermal.PWM
	NegSat    thermal.PWM
	PosSat    thermal.PWM
	RateSat   thermal.PWM
}

// Resolve applies the documented defaults to blank cells.
func (r Row) Resolve() Active {
	get := func(c Column) float64 { return r.Cells[c].Or(DefaultFor(c)) }
	a := Active{
		Time: r.Time,
		Setpoints: thermal.Setpoints{
			Abs1: get(ColSP1Abs),
			Abs2: get(ColSP2Abs),
			Rel1: get(ColSP1Rel),
			Rel2: get(ColSP2Rel),
		},
	}
	for _, ch := range thermal.Channels() {
		a.MulNoise[ch] = get(mulNoiseColumns[ch])
		a.AddNoise[ch] = get(addNoiseColumns[ch])
		a.NegSat[ch] = get(negSatColumns[ch])
		a.PosSat[ch] = get(posSatColumns[ch])
		a.RateSat[ch] = get(rateSatColumns[ch])
	}
	return a
}

// Value returns the resolved value of column c.
func (a Active) Value(c Column) float64 {
	for ch := thermal.Heater1; ch < thermal.NumChannels; ch++ {
		switch c {
		case mulNoiseColumns[ch]:
			return a.MulNoise[ch]
		case addNoiseColumns[ch]:
			return a.AddNoise[ch]
		case negSatColumns[ch]:
			return a.NegSat[ch]
		case posSatColumns[ch]:
			return a.PosSat[ch]
		case rateSatColumns[ch]:
			return a.RateSat[ch]
		}
	}
	switch c {
	case ColTime:
		return float64(a.Time)
	case ColSP1Abs:
		return a.Setpoints.Abs1
	case ColSP2Abs:
		return a.Setpoints.Abs2
	case ColSP1Rel:
		return a.Setpoints.Rel1
	case ColSP2Rel:
		return a.Setpoints.Rel2
	}
	return math.NaN()
}

// Table is an immutable, time-ordered experiment script.
type Table struct {
	rows []Row
}

// NewTable wraps rows without validating them.
func NewTable(rows []Row) *Table {
	return &Table{rows: append([]Row(nil), rows...)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns a copy of all rows.
func (t *Table) Rows() []Row { return append([]Row(nil), t.rows...) }

// Final returns the largest timestamp, which ends the experiment.
func (t *Table) Final() int64 {
	var final int64
	for _, r := range t.rows {
		if r.Time > final {
			final = r.Time
		}
	}
	return final
}

// At returns the index of the row with the greatest timestamp not after
// elapsed, or -1 when elapsed precedes the first row. Rows must be sorted.
func (t *Table) At(elapsed int64) int {
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Time > elapsed })
	return i - 1
}

// Load reads and validates the script at path. Warnings are returned
// alongside a nil error; any error-level problem yields a
// *ValidationError.
func Load(path string, periodMs int64) (*Table, []Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open experiment")
	}
	defer f.Close()
	return Parse(f, periodMs)
}

// Parse reads a script from r and validates it against periodMs.
func Parse(r io.Reader, periodMs int64) (*Table, []Warning, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, nil, err
	}
	t := &Table{rows: rows}
	warnings, err := Validate(t, periodMs)
	if err != nil {
		return nil, warnings, err
	}
	return t, warnings, nil
}

func readRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	index := make(map[int]Column, len(header))
	hasTime := false
	for i, name := range header {
		c, ok := ParseColumn(strings.TrimPrefix(name, "\ufeff"))
		if !ok {
			continue
		}
		index[i] = c
		hasTime = hasTime || c == ColTime
	}
	if !hasTime {
		return nil, ErrMissingTime
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read line %d", line)
		}
		row, err := parseRecord(record, index, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	return rows, nil
}

func parseRecord(record []string, index map[int]Column, line int) (Row, error) {
	var row Row
	timeSet := false
	for i, cell := range record {
		c, ok := index[i]
		if !ok {
			continue
		}
		cell = strings.TrimSpace(cell)
		if cell == "" || strings.EqualFold(cell, "nan") {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Row{}, &ParseError{Line: line, Column: c, Value: cell}
		}
		if c == ColTime {
			if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
				return Row{}, &ParseError{Line: line, Column: c, Value: cell}
			}
			timeSet = true
		}
		row.Set(c, v)
	}
	if !timeSet {
		return Row{}, &ParseError{Line: line, Column: ColTime, Value: ""}
	}
	return row, nil
}

// ParseError reports a cell that is not a number.
type ParseError struct {
	Line   int
	Column Column
	Value  string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("experiment: line %d: missing %s", e.Line, e.Column)
	}
	return fmt.Sprintf("experiment: line %d: invalid %s value %q", e.Line, e.Column, e.Value)
}
