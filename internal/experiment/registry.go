package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/integrators"
	"github.com/san-kum/orbsim/internal/setup"
)

// Registry maps scenario names to integrators and acceleration constructors.
type Registry struct {
	integrators  map[string]func() dynamo.Integrator
	constructors map[setup.AccelerationType]setup.Constructor
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators:  make(map[string]func() dynamo.Integrator),
		constructors: make(map[setup.AccelerationType]setup.Constructor),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) RegisterIntegrator(name string, fn func() dynamo.Integrator) {
	r.integrators[name] = fn
}

// RegisterAcceleration makes an extra acceleration type available to
// scenarios built with this registry.
func (r *Registry) RegisterAcceleration(t setup.AccelerationType, c setup.Constructor) {
	r.constructors[t] = c
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator: %s", dynamo.ErrConfiguration, name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
