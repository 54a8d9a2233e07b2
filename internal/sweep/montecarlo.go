package sweep

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/propagation"
)

// Dispersion perturbs the initial state of the first propagated body with
// zero-mean normal errors of the given standard deviations (m, m/s).
type Dispersion struct {
	Trials   int
	Seed     int64
	Position float64
	Velocity float64
}

// Scenarios returns the perturbed copies of base. The same seed gives the
// same perturbations.
func (d Dispersion) Scenarios(base *config.Scenario) ([]*config.Scenario, error) {
	if d.Trials <= 0 {
		return nil, dynamo.Configf("monte carlo needs a positive number of trials, got %d", d.Trials)
	}
	if d.Position < 0 || d.Velocity < 0 {
		return nil, dynamo.Configf("dispersion standard deviations must not be negative")
	}
	if len(base.Propagated) == 0 {
		return nil, dynamo.Configf("no propagated bodies to disperse")
	}

	rng := rand.New(rand.NewSource(d.Seed))
	cfgs := make([]*config.Scenario, d.Trials)
	for i := range cfgs {
		cfg := base.Clone()
		p := &cfg.Propagated[0]
		offset := make([]float64, dynamo.CartesianSize)
		copy(offset, p.Offset)
		for j := range offset {
			sigma := d.Position
			if j >= 3 {
				sigma = d.Velocity
			}
			offset[j] += sigma * rng.NormFloat64()
		}
		p.Offset = offset
		cfgs[i] = cfg
	}
	return cfgs, nil
}

// MonteCarlo propagates every dispersed copy of base.
func MonteCarlo(ctx context.Context, base *config.Scenario, d Dispersion, workers int, opts ...experiment.Option) ([]Outcome, error) {
	cfgs, err := d.Scenarios(base)
	if err != nil {
		return nil, err
	}
	outcomes := Run(ctx, cfgs, workers, opts...)
	return outcomes, ctx.Err()
}

// Summary describes a metric over the successful runs of a batch.
type Summary struct {
	Runs      int
	Failed    int
	Numerical int
	Mean      float64
	StdDev    float64
	Min       float64
	Max       float64
}

// Summarize collects metric over outcomes. Failed counts runs that returned
// an error, Numerical those among them that broke down numerically.
func Summarize(outcomes []Outcome, metric string) Summary {
	s := Summary{Runs: len(outcomes)}
	values := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			s.Failed++
			if propagation.IsNumerical(o.Err) {
				s.Numerical++
			}
			continue
		}
		if v, ok := o.Metric(metric); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		s.Mean, s.StdDev, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		s.StdDev = 0
	}
	s.Min, s.Max = floats.Min(values), floats.Max(values)
	return s
}
