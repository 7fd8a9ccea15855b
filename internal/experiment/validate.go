package experiment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/tecolab/internal/thermal"
)

var (
	ErrEmpty       = errors.New("experiment: table has no rows")
	ErrMissingTime = errors.New("experiment: table has no TIME column")

	ErrDuplicateTime   = errors.New("experiment table has duplicate values in time column")
	ErrTooDense        = errors.New("experiment table has time intervals smaller than the specified period")
	ErrNegativeTime    = errors.New("experiment table has negative values of time")
	ErrSetpointTooHigh = fmt.Errorf("experiment table has absolute setpoints exceeding %d°C", MaxSetpoint)
	ErrRateSaturation  = errors.New("experiment table has nonpositive values of rate saturation")

	ErrNegativeRelative = errors.New("experiment table has negative values of relative setpoint")
)

// Problem is one violated invariant.
type Problem struct {
	Kind   error
	Column Column
	Row    int
	Detail string
}

func (p Problem) Error() string {
	msg := p.Kind.Error()
	if p.Column != ColTime {
		msg += " (" + p.Column.String() + ")"
	}
	if p.Detail != "" {
		msg += ": " + p.Detail
	}
	return msg
}

func (p Problem) Unwrap() error { return p.Kind }

// Warning is a violated invariant that does not stop the experiment.
type Warning = Problem

// ValidationError collects every error-level problem of a table.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid experiment: " + strings.Join(msgs, "; ")
}

// Unwrap exposes each problem to errors.Is.
func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		errs[i] = p
	}
	return errs
}

// Validate checks t against the invariants of an experiment script run at
// periodMs. Rows must be in file order.
func Validate(t *Table, periodMs int64) ([]Warning, error) {
	if t.Len() == 0 {
		return nil, ErrEmpty
	}
	var problems []Problem
	var warnings []Warning
	report := func(kind error, c Column, row int, format string, args ...any) {
		problems = append(problems, Problem{Kind: kind, Column: c, Row: row, Detail: fmt.Sprintf(format, args...)})
	}

	seen := make(map[int64]int, t.Len())
	for i, r := range t.rows {
		if first, ok := seen[r.Time]; ok {
			report(ErrDuplicateTime, ColTime, i, "rows %d and %d share t=%d ms", first+1, i+1, r.Time)
		} else {
			seen[r.Time] = i
		}
		if r.Time < 0 {
			report(ErrNegativeTime, ColTime, i, "row %d has t=%d ms", i+1, r.Time)
		}
		if i > 0 {
			delta := r.Time - t.rows[i-1].Time
			if delta != 0 && delta < periodMs {
				report(ErrTooDense, ColTime, i, "rows %d and %d are %d ms apart, period is %d ms", i, i+1, delta, periodMs)
			}
		}
	}

	for _, c := range []Column{ColSP1Abs, ColSP2Abs} {
		for i, r := range t.rows {
			if v := r.Cells[c]; v.Set && v.Value > MaxSetpoint {
				report(ErrSetpointTooHigh, c, i, "row %d sets %.2f°C", i+1, v.Value)
				break
			}
		}
	}

	for _, c := range []Column{ColSP1Rel, ColSP2Rel} {
		for i, r := range t.rows {
			if v := r.Cells[c]; v.Set && v.Value < 0 {
				warnings = append(warnings, Warning{Kind: ErrNegativeRelative, Column: c, Row: i, Detail: fmt.Sprintf("row %d sets %.2f°C", i+1, v.Value)})
				break
			}
		}
	}

	for _, ch := range thermal.Channels() {
		c := rateSatColumns[ch]
		for i, r := range t.rows {
			if v := r.Cells[c]; v.Set && v.Value <= 0 {
				report(ErrRateSaturation, c, i, "row %d sets %g for %s", i+1, v.Value, ch)
				break
			}
		}
	}

	if len(problems) > 0 {
		return warnings, &ValidationError{Problems: problems}
	}
	return warnings, nil
}
