// Package bodies is the arena of physical bodies a propagation acts on.
// Bodies are addressed by stable handles so that force models can hold
// references without owning them.
package bodies

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/ephemeris"
	"github.com/san-kum/orbsim/internal/forces"
	"github.com/san-kum/orbsim/internal/frames"
	"github.com/san-kum/orbsim/internal/gravity"
)

// Body is a named participant in the simulation. Its state is in the
// global frame and is written only by the environment update.
type Body struct {
	Name   string
	Mass   float64
	Radius float64

	Gravity      gravity.Field
	Ephemeris    ephemeris.Ephemeris
	Rotation     frames.RotationModel
	Atmosphere   aerodynamics.Atmosphere
	Coefficients *aerodynamics.CoefficientInterface
	Systems      *aerodynamics.VehicleSystems

	conditions *aerodynamics.FlightConditions
	state      dynamo.State
	toFixed    *mat.Dense
}

func (b *Body) State() dynamo.State { return b.state }

func (b *Body) Position() r3.Vec { return b.state.Position(0) }

func (b *Body) Velocity() r3.Vec { return b.state.Velocity(0) }

// GravitationalParameter returns the field's μ, or zero without a field.
func (b *Body) GravitationalParameter() float64 {
	if b.Gravity == nil {
		return 0
	}
	return b.Gravity.GravitationalParameter()
}

// FlightConditions is nil until an aerodynamic acceleration is built for
// the body.
func (b *Body) FlightConditions() *aerodynamics.FlightConditions { return b.conditions }

// ToBodyFixed is the rotation of the last environment update, or nil
// without a rotation model.
func (b *Body) ToBodyFixed() *mat.Dense { return b.toFixed }

// Handle is a stable index into a Registry.
type Handle int

// Registry owns the bodies of a simulation.
type Registry struct {
	bodies []*Body
	byName map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Handle)}
}

// Add registers a body. Names must be unique and non-empty.
func (r *Registry) Add(b *Body) (Handle, error) {
	if b.Name == "" {
		return 0, dynamo.Configf("body has no name")
	}
	if _, ok := r.byName[b.Name]; ok {
		return 0, dynamo.Configf("duplicate body %q", b.Name)
	}
	if b.state == nil {
		b.state = make(dynamo.State, dynamo.CartesianSize)
	}
	h := Handle(len(r.bodies))
	r.bodies = append(r.bodies, b)
	r.byName[b.Name] = h
	return h, nil
}

// MustAdd is Add for fixtures; it panics on error.
func (r *Registry) MustAdd(b *Body) Handle {
	h, err := r.Add(b)
	if err != nil {
		panic(err)
	}
	return h
}

func (r *Registry) Lookup(name string) (Handle, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// Get returns the body for a name or a configuration error.
func (r *Registry) Get(name string) (*Body, Handle, error) {
	h, ok := r.byName[name]
	if !ok {
		return nil, 0, dynamo.Configf("unknown body %q", name)
	}
	return r.bodies[h], h, nil
}

func (r *Registry) Body(h Handle) *Body { return r.bodies[h] }

func (r *Registry) Len() int { return len(r.bodies) }

// Names returns all body names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.bodies))
	for _, b := range r.bodies {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// PositionFunc reads the current position of a body.
func (r *Registry) PositionFunc(h Handle) forces.PositionFunc {
	return func() r3.Vec { return r.bodies[h].state.Position(0) }
}

// RotationFunc reads the current inertial to body-fixed rotation.
func (r *Registry) RotationFunc(h Handle) gravity.RotationFunc {
	if r.bodies[h].Rotation == nil {
		return nil
	}
	return func() *mat.Dense { return r.bodies[h].toFixed }
}

// MassFunc reads the current mass of a body.
func (r *Registry) MassFunc(h Handle) func() float64 {
	return func() float64 { return r.bodies[h].Mass }
}

// SetState overwrites the global-frame state of a body.
func (r *Registry) SetState(h Handle, s dynamo.State) error {
	if len(s) != dynamo.CartesianSize {
		return fmt.Errorf("%w: body %q state has %d components", dynamo.ErrDimensionMismatch, r.bodies[h].Name, len(s))
	}
	copy(r.bodies[h].state, s)
	return nil
}

// UpdateEphemerides sets the state of every body that has an ephemeris,
// except those in skip (propagated bodies).
func (r *Registry) UpdateEphemerides(t float64, skip map[Handle]bool) error {
	for h, b := range r.bodies {
		if b.Ephemeris == nil || skip[Handle(h)] {
			continue
		}
		s, err := b.Ephemeris.State(t)
		if err != nil {
			return fmt.Errorf("ephemeris of %q: %w", b.Name, err)
		}
		if err := r.SetState(Handle(h), s); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRotations evaluates every rotation model at t.
func (r *Registry) UpdateRotations(t float64) {
	for _, b := range r.bodies {
		if b.Rotation != nil {
			b.toFixed = b.Rotation.ToBodyFixed(t)
		}
	}
}

// FlightConditions returns the conditions of a vehicle flying through the
// atmosphere of central, creating them on first use.
func (r *Registry) FlightConditions(vehicle, central Handle) (*aerodynamics.FlightConditions, error) {
	v, c := r.bodies[vehicle], r.bodies[central]
	if v.conditions != nil {
		if v.conditions.Central != c.Name {
			return nil, dynamo.Configf("%q already flies through the atmosphere of %q, not %q", v.Name, v.conditions.Central, c.Name)
		}
		return v.conditions, nil
	}
	if v.Coefficients == nil {
		return nil, dynamo.Configf("body %q has no aerodynamic coefficient interface", v.Name)
	}
	if c.Atmosphere == nil {
		return nil, dynamo.Configf("body %q has no atmosphere", c.Name)
	}
	if v.Systems == nil {
		v.Systems = aerodynamics.NewVehicleSystems()
	}
	v.conditions = aerodynamics.NewFlightConditions(c.Name, c.Atmosphere, c.Radius, v.Coefficients, v.Systems)
	return v.conditions, nil
}

// Vehicles returns the handles of bodies with flight conditions.
func (r *Registry) Vehicles() []Handle {
	var out []Handle
	for h, b := range r.bodies {
		if b.conditions != nil {
			out = append(out, Handle(h))
		}
	}
	return out
}
