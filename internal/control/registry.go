package control

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/san-kum/tecolab/internal/lti"
)

// Registry maps controller names to descriptions.
type Registry struct {
	controllers map[string]Description
}

// NewRegistry returns a registry holding the built-in controllers.
func NewRegistry() *Registry {
	r := &Registry{controllers: make(map[string]Description)}

	r.Register(Description{Name: "null", Kind: KindNull})
	r.Register(Description{Name: "full", Kind: KindConstant, PWM: []float64{100, 100, 0}})
	r.Register(Description{Name: "fan", Kind: KindConstant, PWM: []float64{0, 0, 100}})
	r.Register(Description{
		Name:    "pid",
		Kind:    KindPID,
		Heater1: lti.PIDGains{Kp: 8, Ki: 0.02},
		Heater2: lti.PIDGains{Kp: 8, Ki: 0.02},
	})
	r.Register(Description{
		Name:     "pid-relative",
		Kind:     KindPID,
		Relative: true,
		Heater1:  lti.PIDGains{Kp: 8, Ki: 0.02},
		Heater2:  lti.PIDGains{Kp: 8, Ki: 0.02},
	})

	return r
}

// Register adds or replaces a named description.
func (r *Registry) Register(d Description) {
	r.controllers[d.Name] = d
}

// Get returns the description registered under name.
func (r *Registry) Get(name string) (Description, error) {
	d, ok := r.controllers[name]
	if !ok {
		return Description{}, fmt.Errorf("unknown controller: %s", name)
	}
	return d, nil
}

// Resolve accepts a registered name or the path of a YAML description.
func (r *Registry) Resolve(arg string) (Description, error) {
	if d, ok := r.controllers[arg]; ok {
		return d, nil
	}
	ext := strings.ToLower(filepath.Ext(arg))
	if ext == ".yaml" || ext == ".yml" {
		d, err := LoadDescription(arg)
		if err != nil {
			return Description{}, err
		}
		if d.Name == "" {
			d.Name = strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		}
		return d, nil
	}
	if _, err := os.Stat(arg); err == nil {
		return LoadDescription(arg)
	}
	return r.Get(arg)
}

// Build resolves arg and constructs its law and gate.
func (r *Registry) Build(arg string, engine *lti.Engine, periodMs int64) (*Runtime, Description, error) {
	d, err := r.Resolve(arg)
	if err != nil {
		return nil, Description{}, err
	}
	law, err := d.Build(engine, periodMs)
	if err != nil {
		return nil, d, err
	}
	return NewRuntime(law, d.Gate()), d, nil
}

// List returns the registered names in order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
