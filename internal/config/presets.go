package config

import (
	"sort"

	"github.com/san-kum/tecolab/internal/board"
)

// Presets are plant parameter sets for the simulated board.
var Presets = map[string]board.Plant{
	"default": board.DefaultPlant(),
	"fast": {
		Ambient: 25, Capacity: 8, Power: 10, Conductance: 0.14, FanGain: 0.2, Coupling: 0.03,
	},
	"hot-room": {
		Ambient: 35, Capacity: 40, Power: 10, Conductance: 0.14, FanGain: 0.2, Coupling: 0.03,
	},
	"decoupled": {
		Ambient: 25, Capacity: 40, Power: 10, Conductance: 0.14, FanGain: 0.2, Coupling: 0,
	},
	"weak-fan": {
		Ambient: 25, Capacity: 40, Power: 10, Conductance: 0.14, FanGain: 0.05, Coupling: 0.03,
	},
}

func GetPreset(name string) *board.Plant {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
