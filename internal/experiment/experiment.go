// Package experiment assembles a scenario into bodies, an acceleration
// graph, guidance and a ready-to-run propagator.
package experiment

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/bodies"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/ephemeris"
	"github.com/san-kum/orbsim/internal/forces"
	"github.com/san-kum/orbsim/internal/guidance"
	"github.com/san-kum/orbsim/internal/metrics"
	"github.com/san-kum/orbsim/internal/propagation"
	"github.com/san-kum/orbsim/internal/setup"
)

type Experiment struct {
	Scenario      *config.Scenario
	Bodies        *bodies.Registry
	Accelerations forces.AccelerationMap
	Dynamics      *propagation.Dynamics
	Propagator    *propagation.Propagator
	Laws          []*guidance.Law

	Start        float64
	InitialState dynamo.State
	Termination  propagation.Termination

	globalOrigin string
	log          logrus.FieldLogger
}

type options struct {
	registry *Registry
	log      logrus.FieldLogger
}

type Option func(*options)

func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// Build validates the scenario and wires every component. Nothing is
// propagated yet.
func Build(cfg *config.Scenario, opts ...Option) (*Experiment, error) {
	o := options{registry: NewRegistry(), log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start, err := cfg.StartSeconds()
	if err != nil {
		return nil, err
	}
	integrator, err := o.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	globalOrigin := cfg.GlobalOrigin
	if globalOrigin == "" {
		globalOrigin = setup.DefaultGlobalOrigin
	}
	log := o.log.WithField("scenario", cfg.Name)

	e := &Experiment{Scenario: cfg, Start: start, globalOrigin: globalOrigin, log: log}

	if e.Bodies, err = buildBodies(cfg, globalOrigin, start); err != nil {
		return nil, err
	}

	selected, central := accelerationSettings(cfg)
	builder := setup.NewBuilder(e.Bodies,
		setup.WithGlobalOrigin(globalOrigin),
		setup.WithThirdBodyMutualAttraction(cfg.ThirdBodyMutualAttraction),
		setup.WithLogger(log))
	for t, c := range o.registry.constructors {
		builder.Register(t, c)
	}
	if e.Accelerations, err = builder.Build(selected, central); err != nil {
		return nil, err
	}

	if e.Laws, err = buildGuidance(cfg, e.Bodies, start); err != nil {
		return nil, err
	}

	names := make([]string, len(cfg.Propagated))
	for i, p := range cfg.Propagated {
		names[i] = p.Body
	}
	dynOpts := []propagation.DynamicsOption{propagation.WithGlobalOrigin(globalOrigin)}
	if len(e.Laws) > 0 {
		updates := make([]func(float64) error, len(e.Laws))
		for i, law := range e.Laws {
			updates[i] = law.Update
		}
		dynOpts = append(dynOpts, propagation.WithGuidance(guidance.Compose(updates...)))
	}
	if e.Dynamics, err = propagation.NewDynamics(e.Bodies, e.Accelerations, names, central, dynOpts...); err != nil {
		return nil, err
	}

	if e.InitialState, err = e.initialState(); err != nil {
		return nil, err
	}
	if e.Termination, err = e.termination(); err != nil {
		return nil, err
	}

	e.Propagator = propagation.New(e.Dynamics, integrator, propagation.WithLogger(log))
	for _, law := range e.Laws {
		e.Propagator.AddObserver(law)
	}
	e.addDefaultMetrics()

	models := 0
	for _, affected := range e.Accelerations.Affected() {
		models += e.Accelerations.Count(affected)
	}
	log.WithFields(logrus.Fields{
		"bodies":     e.Bodies.Len(),
		"propagated": names,
		"models":     models,
		"integrator": cfg.Integrator,
	}).Debug("scenario assembled")
	return e, nil
}

func accelerationSettings(cfg *config.Scenario) (setup.SelectedAccelerationMap, setup.CentralBodyMap) {
	selected := setup.SelectedAccelerationMap{}
	for _, a := range cfg.Accelerations {
		s := setup.AccelerationSettings{Type: setup.AccelerationType(a.Type)}
		if s.Type == setup.SphericalHarmonicsType {
			s = setup.SphericalHarmonics(a.Degree, a.Order)
		}
		if a.Mutual != nil {
			s = s.WithMutualAttraction(*a.Mutual)
		}
		selected.Add(a.Affected, a.Exerting, s)
	}
	central := setup.CentralBodyMap{}
	for _, p := range cfg.Propagated {
		central[p.Body] = p.Origin
	}
	return selected, central
}

func buildGuidance(cfg *config.Scenario, reg *bodies.Registry, start float64) ([]*guidance.Law, error) {
	var laws []*guidance.Law
	for _, gc := range cfg.Guidance {
		b, _, err := reg.Get(gc.Body)
		if err != nil {
			return nil, err
		}
		fc := b.FlightConditions()
		if fc == nil {
			return nil, dynamo.Configf("guidance for %q needs an aerodynamic acceleration on it", gc.Body)
		}
		law := &guidance.Law{}
		if law.Attack, err = schedule(gc.AngleOfAttack, fc, start); err != nil {
			return nil, fmt.Errorf("angle of attack of %q: %w", gc.Body, err)
		}
		if law.Sideslip, err = schedule(gc.Sideslip, fc, start); err != nil {
			return nil, fmt.Errorf("sideslip of %q: %w", gc.Body, err)
		}
		if law.Bank, err = schedule(gc.Bank, fc, start); err != nil {
			return nil, fmt.Errorf("bank angle of %q: %w", gc.Body, err)
		}
		if len(gc.Surfaces) > 0 {
			known := make(map[string]bool)
			for _, name := range b.Coefficients.ControlSurfaces() {
				known[name] = true
			}
			law.Surfaces = make(map[string]guidance.Schedule, len(gc.Surfaces))
			for name, sc := range gc.Surfaces {
				if !known[name] {
					return nil, dynamo.Configf("%q has no control surface %q", gc.Body, name)
				}
				s, err := schedule(&sc, fc, start)
				if err != nil {
					return nil, fmt.Errorf("surface %q of %q: %w", name, gc.Body, err)
				}
				law.Surfaces[name] = s
			}
		}
		law.Attach(fc, b.Systems)
		laws = append(laws, law)
	}
	return laws, nil
}

func schedule(sc *config.ScheduleConfig, fc *aerodynamics.FlightConditions, start float64) (guidance.Schedule, error) {
	if sc == nil {
		return nil, nil
	}
	switch sc.Type {
	case config.ScheduleConstant:
		return guidance.Constant(sc.Value), nil
	case config.ScheduleLinear:
		return guidance.Linear{Initial: sc.Value, Rate: sc.Rate, Epoch: start + sc.Epoch}, nil
	case config.ScheduleTable:
		times := make([]float64, len(sc.Times))
		for i, t := range sc.Times {
			times[i] = start + t
		}
		tab, err := guidance.NewTable(times, sc.Values)
		if err != nil {
			return nil, err
		}
		return tab, nil
	case config.SchedulePID:
		measure, err := measurement(sc.Measure, fc)
		if err != nil {
			return nil, err
		}
		return guidance.Feedback{
			PID:     guidance.NewPID(sc.Kp, sc.Ki, sc.Kd, sc.Target),
			Measure: measure,
			Min:     sc.Min,
			Max:     sc.Max,
		}, nil
	}
	return nil, dynamo.Configf("unknown schedule type %q", sc.Type)
}

func measurement(name string, fc *aerodynamics.FlightConditions) (func() float64, error) {
	switch name {
	case "altitude":
		return fc.Altitude, nil
	case "mach_number":
		return fc.MachNumber, nil
	case "airspeed":
		return fc.Airspeed, nil
	case "density":
		return fc.Density, nil
	case "dynamic_pressure":
		return fc.DynamicPressure, nil
	}
	return nil, dynamo.Configf("unknown feedback measurement %q", name)
}

func (e *Experiment) mu(name string) float64 {
	if name == e.globalOrigin {
		return 0
	}
	b, _, err := e.Bodies.Get(name)
	if err != nil {
		return 0
	}
	return b.GravitationalParameter()
}

// initialState assembles the relative state of every propagated body at
// the start epoch.
func (e *Experiment) initialState() (dynamo.State, error) {
	if err := e.Bodies.UpdateEphemerides(e.Start, nil); err != nil {
		return nil, err
	}
	x := make(dynamo.State, 0, e.Dynamics.StateDim())
	for _, p := range e.Scenario.Propagated {
		var s dynamo.State
		switch {
		case p.Cartesian != nil:
			s = append(dynamo.State(nil), p.Cartesian...)
		case p.Elements != nil:
			mu := e.mu(p.Origin) + e.mu(p.Body)
			if mu <= 0 {
				return nil, dynamo.Configf("elements of %q need a gravitational parameter on %q", p.Body, p.Origin)
			}
			var err error
			if s, err = ephemeris.ToCartesian(*p.Elements, mu); err != nil {
				return nil, fmt.Errorf("initial state of %q: %w", p.Body, err)
			}
		default:
			src, _, err := e.Bodies.Get(p.FromEphemeris)
			if err != nil {
				return nil, err
			}
			s = src.State().Clone()
			if p.Origin != e.globalOrigin {
				origin, _, err := e.Bodies.Get(p.Origin)
				if err != nil {
					return nil, err
				}
				if origin.Ephemeris == nil {
					return nil, dynamo.Configf("initial state of %q from %q needs an ephemeris on origin %q", p.Body, p.FromEphemeris, p.Origin)
				}
				s = s.Sub(origin.State())
			}
		}
		if p.Offset != nil {
			s = s.Add(dynamo.State(p.Offset))
		}
		x = append(x, s...)
	}
	return x, nil
}

func (e *Experiment) termination() (propagation.Termination, error) {
	term := propagation.Termination(propagation.TimeTermination{End: e.Start + e.Scenario.Duration})
	m := e.Scenario.Termination.MinAltitude
	if m == nil {
		return term, nil
	}
	i, ok := e.Dynamics.Index(m.Body)
	if !ok {
		return nil, dynamo.Configf("altitude limit on %q, which is not propagated", m.Body)
	}
	limit := m.Altitude
	if origin := e.Scenario.Propagated[i].Origin; origin != e.globalOrigin {
		b, _, err := e.Bodies.Get(origin)
		if err != nil {
			return nil, err
		}
		limit += b.Radius
	}
	below := propagation.FuncTermination(func(_ float64, x dynamo.State) bool {
		return r3.Norm(x.Position(i)) < limit
	})
	return propagation.AnyOf{term, below}, nil
}

func (e *Experiment) addDefaultMetrics() {
	p := e.Scenario.Propagated[0]
	if mu := e.mu(p.Origin) + e.mu(p.Body); mu > 0 {
		e.Propagator.AddMetric(metrics.NewEnergyDrift(0, mu))
	}
	e.Propagator.AddMetric(metrics.NewMinDistance(0))
	if p.Origin != e.globalOrigin {
		if b, _, err := e.Bodies.Get(p.Origin); err == nil && b.Radius > 0 {
			e.Propagator.AddMetric(metrics.NewStability(0, b.Radius, math.Inf(1)))
		}
	}
	for _, gc := range e.Scenario.Guidance {
		b, _, _ := e.Bodies.Get(gc.Body)
		names := make([]string, 0, len(gc.Surfaces))
		for name := range gc.Surfaces {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			read := func() float64 {
				d, _ := b.Systems.ControlSurfaceDeflection(name)
				return d
			}
			e.Propagator.AddMetric(metrics.NewControlEffort("effort_"+gc.Body+"_"+name, read))
		}
	}
}

// Config is the loop configuration of the scenario.
func (e *Experiment) Config() propagation.Config {
	return propagation.Config{
		Start:              e.Start,
		Dt:                 e.Scenario.Dt,
		Termination:        e.Termination,
		Tolerance:          e.Scenario.Tolerance,
		MaxSteps:           e.Scenario.MaxSteps,
		DependentVariables: e.Scenario.DependentVariables,
	}
}

func (e *Experiment) AddObserver(o propagation.Observer) {
	e.Propagator.AddObserver(o)
}

// Run propagates the scenario from its initial state.
func (e *Experiment) Run(ctx context.Context) (*propagation.Result, error) {
	for _, law := range e.Laws {
		law.Reset()
	}
	return e.Propagator.Run(ctx, e.InitialState, e.Config())
}
