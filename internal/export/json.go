package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Sample is one logged cycle in the JSON export.
type Sample struct {
	Time      int64       `json:"time_ms"`
	Temps     [3]float64  `json:"temps"`
	Setpoints [4]float64  `json:"setpoints"`
	Computed  thermal.PWM `json:"computed"`
	Disturbed thermal.PWM `json:"disturbed"`
	New       bool        `json:"new"`
	ComputeMs float64     `json:"compute_ms"`
}

type ExportData struct {
	storage.RunMetadata
	Samples []Sample `json:"samples"`
}

// JSON writes a run and its records as indented JSON.
func JSON(w io.Writer, meta storage.RunMetadata, records []storage.Record) error {
	data := ExportData{RunMetadata: meta, Samples: make([]Sample, len(records))}
	for i, r := range records {
		sp := r.Row.Setpoints
		data.Samples[i] = Sample{
			Time:      r.Time,
			Temps:     [3]float64{r.Temps.Heater1, r.Temps.Heater2, r.Temps.Ambient},
			Setpoints: [4]float64{sp.Abs1, sp.Abs2, sp.Rel1, sp.Rel2},
			Computed:  r.Computed,
			Disturbed: r.Disturbed,
			New:       r.New,
			ComputeMs: float64(r.Duration.Microseconds()) / 1000,
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
