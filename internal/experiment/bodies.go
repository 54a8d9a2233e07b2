package experiment

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/bodies"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/ephemeris"
	"github.com/san-kum/orbsim/internal/frames"
	"github.com/san-kum/orbsim/internal/gravity"
)

func buildBodies(cfg *config.Scenario, globalOrigin string, start float64) (*bodies.Registry, error) {
	reg := bodies.NewRegistry()
	for _, bc := range cfg.Bodies {
		b := &bodies.Body{Name: bc.Name, Mass: bc.Mass, Radius: bc.Radius}
		if g := bc.Gravity; g != nil {
			if g.Field != "" {
				f, err := gravity.Builtin(g.Field)
				if err != nil {
					return nil, err
				}
				b.Gravity = f
			} else {
				b.Gravity = gravity.PointMassField{Mu: g.Mu}
			}
		}
		if rc := bc.Rotation; rc != nil {
			b.Rotation = frames.UniformZ{Rate: rc.Rate, Angle0: rc.Angle0, Epoch: start}
		}
		if bc.Atmosphere != nil {
			b.Atmosphere = *bc.Atmosphere
		}
		if ac := bc.Aerodynamics; ac != nil {
			ci, err := coefficientInterface(ac)
			if err != nil {
				return nil, dynamo.Configf("aerodynamics of %q: %v", bc.Name, err)
			}
			b.Coefficients = ci
		}
		if _, err := reg.Add(b); err != nil {
			return nil, err
		}
	}

	// Ephemerides last: a center must exist before its dependents.
	r := &ephemerisResolver{cfg: cfg, reg: reg, globalOrigin: globalOrigin, start: start,
		done: make(map[string]ephemeris.Ephemeris), visiting: make(map[string]bool)}
	for _, bc := range cfg.Bodies {
		if bc.Ephemeris == nil {
			continue
		}
		eph, err := r.resolve(bc.Name)
		if err != nil {
			return nil, err
		}
		b, _, _ := reg.Get(bc.Name)
		b.Ephemeris = eph
	}
	return reg, nil
}

type ephemerisResolver struct {
	cfg          *config.Scenario
	reg          *bodies.Registry
	globalOrigin string
	start        float64
	done         map[string]ephemeris.Ephemeris
	visiting     map[string]bool
}

// resolve returns the ephemeris of a body; nil stands for the global origin.
func (r *ephemerisResolver) resolve(name string) (ephemeris.Ephemeris, error) {
	if name == "" || name == r.globalOrigin {
		return nil, nil
	}
	if eph, ok := r.done[name]; ok {
		return eph, nil
	}
	if r.visiting[name] {
		return nil, dynamo.Configf("ephemeris centers form a cycle through %q", name)
	}
	bc, ok := r.cfg.Body(name)
	if !ok {
		return nil, dynamo.Configf("unknown body %q", name)
	}
	if bc.Ephemeris == nil {
		return nil, dynamo.Configf("%q is used as an ephemeris center but has no ephemeris", name)
	}
	r.visiting[name] = true
	defer delete(r.visiting, name)

	ec := bc.Ephemeris
	center, err := r.resolve(ec.Center)
	if err != nil {
		return nil, err
	}

	var eph ephemeris.Ephemeris
	switch ec.Type {
	case config.EphemerisConstant:
		eph = ephemeris.Constant{Position: vec(ec.Position), Velocity: vec(ec.Velocity), Epoch: r.start}
	case config.EphemerisKepler:
		mu := r.mu(ec.Center) + r.mu(name)
		k, err := ephemeris.NewKepler(*ec.Elements, mu, r.start, center)
		if err != nil {
			return nil, err
		}
		eph = k
	case config.EphemerisTabulated:
		states := make([]dynamo.State, len(ec.States))
		for i, s := range ec.States {
			states[i] = dynamo.State(s)
		}
		tab, err := ephemeris.NewTabulated(ec.Times, states)
		if err != nil {
			return nil, err
		}
		eph = tab
	case config.EphemerisTLE:
		sgp4, err := ephemeris.NewSGP4(ec.TLE[0], ec.TLE[1], center)
		if err != nil {
			return nil, err
		}
		eph = sgp4
	default:
		return nil, dynamo.Configf("unknown ephemeris type %q", ec.Type)
	}
	r.done[name] = eph
	return eph, nil
}

func (r *ephemerisResolver) mu(name string) float64 {
	b, _, err := r.reg.Get(name)
	if err != nil {
		return 0
	}
	return b.GravitationalParameter()
}

func vec(v []float64) r3.Vec {
	if len(v) != 3 {
		return r3.Vec{}
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func coefficientInterface(ac *config.AerodynamicsConfig) (*aerodynamics.CoefficientInterface, error) {
	vars, err := parseVariables(ac.Variables)
	if err != nil {
		return nil, err
	}
	ci := aerodynamics.NewCoefficientInterface(affine(ac.Constant, ac.Gradients), ac.ReferenceArea, ac.ReferenceLength, vars...)
	for _, cs := range ac.ControlSurfaces {
		svars, err := parseVariables(cs.Variables)
		if err != nil {
			return nil, err
		}
		ci.SetControlSurface(cs.Name, aerodynamics.NewControlSurfaceIncrement(aerodynamics.LinearIncrement(cs.Gradients...), svars...))
	}
	return ci, nil
}

func parseVariables(names []string) ([]aerodynamics.IndependentVariable, error) {
	out := make([]aerodynamics.IndependentVariable, len(names))
	for i, name := range names {
		v, err := aerodynamics.ParseIndependentVariable(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// affine is constant + Σ gradients[i]·vars[i].
func affine(constant [6]float64, gradients [][6]float64) aerodynamics.CoefficientFunc {
	linear := aerodynamics.LinearIncrement(gradients...)
	return func(vars []float64) [6]float64 {
		out := linear(vars)
		for i := range out {
			out[i] += constant[i]
		}
		return out
	}
}
