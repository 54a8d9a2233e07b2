// Package propagation steps the translational state of one or more bodies
// through time and records their states and dependent variables.
package propagation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// LoopState is the lifecycle of a Propagator.
type LoopState int

// endSnap is the fraction of Dt below which an epoch counts as the end time.
const endSnap = 1e-9

const (
	Idle LoopState = iota
	Running
	Terminated
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("LoopState(%d)", int(s))
}

// Metric accumulates a scalar over the saved epochs of a run.
type Metric interface {
	Name() string
	Observe(t float64, x dynamo.State)
	Value() float64
	Reset()
}

// Observer is notified of every saved epoch.
type Observer interface {
	OnStep(step int, t float64, x dynamo.State, elapsed time.Duration)
}

type Config struct {
	Start float64
	// Dt is the (initial) step; negative for backward propagation.
	Dt          float64
	Termination Termination
	// Tolerance enables adaptive stepping for integrators that support it.
	Tolerance          float64
	MaxSteps           int
	DependentVariables []VariableSettings
}

type Result struct {
	Times              []float64
	States             []dynamo.State
	DependentVariables [][]float64
	Layout             []VariableLayout
	StepsTaken         int
	Evaluations        int
	Metrics            map[string]float64
}

// Variable returns the history of one saved variable by name.
func (r *Result) Variable(name string) ([][]float64, bool) {
	for _, l := range r.Layout {
		if l.Name != name {
			continue
		}
		out := make([][]float64, len(r.DependentVariables))
		for i, row := range r.DependentVariables {
			out[i] = row[l.Start : l.Start+l.Size]
		}
		return out, true
	}
	return nil, false
}

// Propagator runs the integration loop. It is not safe for concurrent use.
type Propagator struct {
	dyn        *Dynamics
	integrator dynamo.Integrator
	metrics    []Metric
	observers  []Observer
	log        logrus.FieldLogger
	state      LoopState
}

type Option func(*Propagator)

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Propagator) { p.log = log }
}

func New(dyn *Dynamics, integrator dynamo.Integrator, opts ...Option) *Propagator {
	p := &Propagator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Propagator) AddMetric(m Metric)     { p.metrics = append(p.metrics, m) }
func (p *Propagator) AddObserver(o Observer) { p.observers = append(p.observers, o) }

func (p *Propagator) State() LoopState { return p.state }

func (p *Propagator) Dynamics() *Dynamics { return p.dyn }

// Run propagates x0 from cfg.Start until the termination condition holds.
// On cancellation the partial result is returned with ctx.Err().
func (p *Propagator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := p.validateConfig(x0, cfg); err != nil {
		return nil, err
	}
	samplers, layout, err := p.dyn.samplers(cfg.DependentVariables)
	if err != nil {
		return nil, err
	}
	width := 0
	for _, l := range layout {
		width += l.Size
	}

	result := &Result{
		Times:   make([]float64, 0, 64),
		States:  make([]dynamo.State, 0, 64),
		Layout:  layout,
		Metrics: make(map[string]float64),
	}
	for _, m := range p.metrics {
		m.Reset()
	}

	forward := cfg.Dt > 0
	end, hasEnd := endTime(cfg.Termination)
	adaptive, canAdapt := p.integrator.(dynamo.AdaptiveIntegrator)
	useAdaptive := canAdapt && cfg.Tolerance > 0

	log := p.log.WithFields(logrus.Fields{
		"bodies":   p.dyn.Propagated(),
		"start":    cfg.Start,
		"dt":       cfg.Dt,
		"adaptive": useAdaptive,
	})
	log.Info("propagation started")
	startEvals := p.dyn.Evaluations()
	wall := time.Now()

	p.state = Running
	defer func() { p.state = Terminated }()

	x := x0.Clone()
	t := cfg.Start
	dt := cfg.Dt
	step := 0
	fixedSteps := 0

	record := func(stepStart time.Time) error {
		if err := p.dyn.Evaluate(x, t); err != nil {
			return err
		}
		row := make([]float64, width)
		for i, s := range samplers {
			l := layout[i]
			if err := s.sample(row[l.Start : l.Start+l.Size]); err != nil {
				return fmt.Errorf("dependent variable %s: %w", l.Name, err)
			}
		}
		result.Times = append(result.Times, t)
		result.States = append(result.States, x.Clone())
		if width > 0 {
			result.DependentVariables = append(result.DependentVariables, row)
		}
		for _, m := range p.metrics {
			m.Observe(t, x)
		}
		elapsed := time.Since(stepStart)
		for _, o := range p.observers {
			o.OnStep(step, t, x, elapsed)
		}
		return nil
	}

	finish := func() {
		result.StepsTaken = step
		result.Evaluations = p.dyn.Evaluations() - startEvals
		for _, m := range p.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}
	fail := func(err error) (*Result, error) {
		finish()
		log.WithError(err).WithField("step", step).Error("propagation failed")
		return result, &dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
	}

	if err := record(time.Now()); err != nil {
		return fail(err)
	}

	for !cfg.Termination.Reached(t, x, forward) {
		select {
		case <-ctx.Done():
			finish()
			log.WithField("step", step).Warn("propagation cancelled")
			return result, ctx.Err()
		default:
		}
		if cfg.MaxSteps > 0 && step >= cfg.MaxSteps {
			log.WithField("max_steps", cfg.MaxSteps).Warn("step limit reached")
			break
		}
		stepStart := time.Now()

		h := dt
		clamped := false
		if hasEnd {
			if remaining := end - t; math.Abs(remaining) <= endSnap*math.Abs(cfg.Dt) {
				break
			} else if (forward && h > remaining) || (!forward && h < remaining) {
				h, clamped = remaining, true
			}
		}

		var (
			next dynamo.State
			err  error
		)
		if useAdaptive {
			var taken, proposed float64
			next, taken, proposed, err = adaptive.StepAdaptive(p.dyn, x, t, h, cfg.Tolerance)
			if err == nil {
				if clamped && taken == h {
					t = end
				} else {
					t += taken
				}
				dt = proposed
			}
		} else {
			next, err = p.integrator.Step(p.dyn, x, t, h)
			if err == nil {
				fixedSteps++
				if clamped {
					t = end
				} else {
					t = cfg.Start + float64(fixedSteps)*cfg.Dt
				}
			}
		}
		if err != nil {
			return fail(err)
		}
		if hasEnd && math.Abs(end-t) <= endSnap*math.Abs(cfg.Dt) {
			t = end
		}
		if !next.IsValid() {
			return fail(dynamo.ErrInvalidState)
		}
		x = next
		step++

		if err := record(stepStart); err != nil {
			return fail(err)
		}
	}

	finish()
	log.WithFields(logrus.Fields{
		"steps":       step,
		"end":         t,
		"evaluations": result.Evaluations,
		"wall":        time.Since(wall).String(),
	}).Info("propagation finished")
	return result, nil
}

func (p *Propagator) validateConfig(x0 dynamo.State, cfg Config) error {
	if cfg.Dt == 0 || math.IsNaN(cfg.Dt) || math.IsInf(cfg.Dt, 0) {
		return dynamo.Configf("dt must be finite and non-zero, got %g", cfg.Dt)
	}
	if cfg.Termination == nil {
		return dynamo.Configf("no termination condition")
	}
	if end, ok := endTime(cfg.Termination); ok && (end-cfg.Start)*cfg.Dt <= 0 {
		return dynamo.Configf("end time %g is not ahead of start %g for dt %g", end, cfg.Start, cfg.Dt)
	}
	if cfg.Tolerance < 0 {
		return dynamo.Configf("tolerance must not be negative, got %g", cfg.Tolerance)
	}
	if len(x0) != p.dyn.StateDim() {
		return fmt.Errorf("%w: initial state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x0), p.dyn.StateDim())
	}
	if !x0.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}

// IsNumerical reports whether a run failed on a degenerate evaluation.
func IsNumerical(err error) bool {
	return errors.Is(err, dynamo.ErrNumerical)
}
