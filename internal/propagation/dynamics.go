package propagation

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/bodies"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/forces"
	"github.com/san-kum/orbsim/internal/setup"
)

// GuidanceFunc is called once per evaluation, after the environment and
// before any force, to set attitude angles and control-surface deflections.
type GuidanceFunc func(t float64) error

type modelEntry struct {
	body     int
	affected string
	exerting string
	model    forces.AccelerationModel
}

type vehicle struct {
	name       string
	handle     bodies.Handle
	central    bodies.Handle
	conditions *aerodynamics.FlightConditions
}

// Dynamics is the Cowell formulation of the translational equations of
// motion. The state holds one [r v] block per propagated body, relative to
// that body's integration origin.
type Dynamics struct {
	registry      *bodies.Registry
	accelerations forces.AccelerationMap
	propagated    []string
	handles       []bodies.Handle
	central       *CentralBodyData
	skip          map[bodies.Handle]bool
	guidance      GuidanceFunc
	globalOrigin  string

	models   []modelEntry
	vehicles []vehicle
	totals   []r3.Vec
	global   []dynamo.State

	evaluations int
}

type DynamicsOption func(*Dynamics)

// WithGuidance installs the guidance callback.
func WithGuidance(g GuidanceFunc) DynamicsOption {
	return func(d *Dynamics) { d.guidance = g }
}

func WithGlobalOrigin(name string) DynamicsOption {
	return func(d *Dynamics) { d.globalOrigin = name }
}

// NewDynamics checks that every affected body is propagated, that every
// origin exists and orders the models for evaluation: affected bodies and
// exerting bodies lexically, then settings order.
func NewDynamics(reg *bodies.Registry, accs forces.AccelerationMap, propagated []string, origins map[string]string, opts ...DynamicsOption) (*Dynamics, error) {
	d := &Dynamics{
		registry:      reg,
		accelerations: accs,
		propagated:    propagated,
		skip:          make(map[bodies.Handle]bool),
		globalOrigin:  setup.DefaultGlobalOrigin,
	}
	for _, opt := range opts {
		opt(d)
	}
	if len(propagated) == 0 {
		return nil, dynamo.Configf("no bodies to propagate")
	}

	index := make(map[string]int, len(propagated))
	originList := make([]string, len(propagated))
	for i, name := range propagated {
		_, h, err := reg.Get(name)
		if err != nil {
			return nil, fmt.Errorf("propagated body: %w", err)
		}
		origin, ok := origins[name]
		if !ok {
			return nil, dynamo.Configf("no integration origin for %q", name)
		}
		if origin != d.globalOrigin {
			if _, ok := reg.Lookup(origin); !ok {
				return nil, dynamo.Configf("unknown integration origin %q of %q", origin, name)
			}
		}
		d.handles = append(d.handles, h)
		d.skip[h] = true
		index[name] = i
		originList[i] = origin
		d.global = append(d.global, make(dynamo.State, dynamo.CartesianSize))
	}
	central, err := NewCentralBodyData(propagated, originList, d.globalOrigin)
	if err != nil {
		return nil, err
	}
	d.central = central
	d.totals = make([]r3.Vec, len(propagated))

	for _, affected := range accs.Affected() {
		i, ok := index[affected]
		if !ok {
			return nil, dynamo.Configf("accelerations act on %q but it is not propagated", affected)
		}
		for _, exerting := range accs.Exerting(affected) {
			for _, m := range accs[affected][exerting] {
				d.models = append(d.models, modelEntry{body: i, affected: affected, exerting: exerting, model: m})
			}
		}
	}

	for _, h := range reg.Vehicles() {
		b := reg.Body(h)
		fc := b.FlightConditions()
		ch, ok := reg.Lookup(fc.Central)
		if !ok {
			return nil, dynamo.Configf("unknown atmosphere body %q of %q", fc.Central, b.Name)
		}
		d.vehicles = append(d.vehicles, vehicle{name: b.Name, handle: h, central: ch, conditions: fc})
	}
	return d, nil
}

func (d *Dynamics) StateDim() int { return len(d.propagated) * dynamo.CartesianSize }

// Derive updates the environment to (x, t), evaluates every model and
// returns the state derivative.
func (d *Dynamics) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	if err := d.Evaluate(x, t); err != nil {
		return nil, err
	}
	dx := make(dynamo.State, len(x))
	for i := range d.propagated {
		dx.SetBlock(i, x.Velocity(i), d.totals[i])
	}
	return dx, nil
}

// Evaluate brings bodies, guidance, flight conditions and acceleration
// models up to date with (x, t) without forming a derivative.
func (d *Dynamics) Evaluate(x dynamo.State, t float64) error {
	if len(x) != d.StateDim() {
		return fmt.Errorf("%w: state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x), d.StateDim())
	}
	d.evaluations++
	if err := d.updateEnvironment(x, t); err != nil {
		return err
	}
	if d.guidance != nil {
		if err := d.guidance(t); err != nil {
			return fmt.Errorf("guidance: %w", err)
		}
	}
	for _, v := range d.vehicles {
		vs := d.registry.Body(v.handle).State()
		cs := d.registry.Body(v.central).State()
		if err := v.conditions.Update(t, vs, cs); err != nil {
			return annotate(err, v.name, v.conditions.Central, t)
		}
		if err := v.conditions.UpdateCoefficients(); err != nil {
			return fmt.Errorf("aerodynamic coefficients of %q: %w", v.name, err)
		}
	}

	for i := range d.totals {
		d.totals[i] = r3.Vec{}
	}
	for _, e := range d.models {
		if err := e.model.Update(t); err != nil {
			return annotate(err, e.affected, e.exerting, t)
		}
		d.totals[e.body] = r3.Add(d.totals[e.body], e.model.Acceleration())
	}
	return nil
}

func (d *Dynamics) updateEnvironment(x dynamo.State, t float64) error {
	if err := d.registry.UpdateEphemerides(t, d.skip); err != nil {
		return err
	}
	d.central.ToGlobal(x, d.global, func(name string) dynamo.State {
		h, _ := d.registry.Lookup(name)
		return d.registry.Body(h).State()
	})
	for i, h := range d.handles {
		if err := d.registry.SetState(h, d.global[i]); err != nil {
			return err
		}
	}
	d.registry.UpdateRotations(t)
	return nil
}

// TotalAcceleration is the summed acceleration of the i-th propagated body
// from the last evaluation.
func (d *Dynamics) TotalAcceleration(i int) r3.Vec { return d.totals[i] }

// Index returns the position of a body in the propagated list.
func (d *Dynamics) Index(name string) (int, bool) {
	for i, n := range d.propagated {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (d *Dynamics) Propagated() []string { return d.propagated }

func (d *Dynamics) Registry() *bodies.Registry { return d.registry }

func (d *Dynamics) Accelerations() forces.AccelerationMap { return d.accelerations }

// Evaluations counts calls to Evaluate.
func (d *Dynamics) Evaluations() int { return d.evaluations }

// InitialState assembles a relative state from the registry's current global
// states, e.g. after loading ephemerides at the start epoch.
func (d *Dynamics) InitialState(t float64) (dynamo.State, error) {
	if err := d.registry.UpdateEphemerides(t, nil); err != nil {
		return nil, err
	}
	x := make(dynamo.State, d.StateDim())
	for _, i := range d.central.UpdateOrder() {
		s := d.registry.Body(d.handles[i]).State().Clone()
		if origin := d.central.Origin(i); origin != d.globalOrigin {
			h, _ := d.registry.Lookup(origin)
			s = s.Sub(d.registry.Body(h).State())
		}
		copy(x[i*dynamo.CartesianSize:], s)
	}
	return x, nil
}

func annotate(err error, affected, exerting string, t float64) error {
	var ne *dynamo.NumericalError
	if errors.As(err, &ne) {
		filled := *ne
		if filled.Affected == "" {
			filled.Affected = affected
		}
		if filled.Exerting == "" {
			filled.Exerting = exerting
		}
		filled.Time = t
		return &filled
	}
	return fmt.Errorf("%s <- %s: %w", affected, exerting, err)
}
