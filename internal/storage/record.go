package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Record is one logged control cycle.
type Record struct {
	// Time is the elapsed experiment time in milliseconds.
	Time      int64
	Temps     thermal.Temperatures
	Row       experiment.Active
	Computed  thermal.PWM
	Disturbed thermal.PWM
	New       bool
	Duration  time.Duration
}

// Log column names in file order.
var (
	timeColumns = []string{"TIME", "H1_TEMP", "H2_TEMP", "AMB_TEMP"}
	pwmColumns  = []string{"H1_C_PWM", "H2_C_PWM", "F_C_PWM", "H1_D_PWM", "H2_D_PWM", "F_D_PWM"}
	ctrlColumns = []string{"CTRL_ACTION", "CTRL_TIME"}
)

// Header returns the log column names.
func Header() []string {
	h := append([]string(nil), timeColumns...)
	for _, c := range experiment.Columns()[1:] {
		h = append(h, c.String())
	}
	h = append(h, pwmColumns...)
	return append(h, ctrlColumns...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Fields renders r in Header order. CTRL_TIME is in milliseconds.
func (r Record) Fields() []string {
	f := make([]string, 0, len(Header()))
	f = append(f,
		strconv.FormatInt(r.Time, 10),
		formatFloat(r.Temps.Heater1),
		formatFloat(r.Temps.Heater2),
		formatFloat(r.Temps.Ambient),
	)
	for _, c := range experiment.Columns()[1:] {
		f = append(f, formatFloat(r.Row.Value(c)))
	}
	for _, p := range []thermal.PWM{r.Computed, r.Disturbed} {
		for _, v := range p {
			f = append(f, formatFloat(v))
		}
	}
	action := "0"
	if r.New {
		action = "1"
	}
	return append(f, action, formatFloat(float64(r.Duration)/float64(time.Millisecond)))
}

// ParseRecord is the inverse of Fields. index maps column names to field
// positions; missing columns are left zero.
func ParseRecord(fields []string, index map[string]int) (Record, error) {
	get := func(name string) (float64, error) {
		i, ok := index[name]
		if !ok || i >= len(fields) || fields[i] == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, fmt.Errorf("storage: column %s: %w", name, err)
		}
		return v, nil
	}

	var r Record
	var err error
	vals := make(map[string]float64, len(index))
	for _, name := range Header() {
		if vals[name], err = get(name); err != nil {
			return Record{}, err
		}
	}

	r.Time = int64(vals["TIME"])
	r.Temps = thermal.Temperatures{Heater1: vals["H1_TEMP"], Heater2: vals["H2_TEMP"], Ambient: vals["AMB_TEMP"]}

	var row experiment.Row
	row.Time = r.Time
	for _, c := range experiment.Columns()[1:] {
		if _, ok := index[c.String()]; ok {
			row.Set(c, vals[c.String()])
		}
	}
	r.Row = row.Resolve()

	for i := range r.Computed {
		r.Computed[i] = vals[pwmColumns[i]]
		r.Disturbed[i] = vals[pwmColumns[i+int(thermal.NumChannels)]]
	}
	r.New = vals["CTRL_ACTION"] != 0
	r.Duration = time.Duration(vals["CTRL_TIME"] * float64(time.Millisecond))
	return r, nil
}
