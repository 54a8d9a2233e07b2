// Package sweep runs batches of scenario variants: parameter grids and
// Monte Carlo dispersions of the initial state.
package sweep

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/propagation"
)

// Outcome is one propagated variant.
type Outcome struct {
	Params map[string]float64
	Result *propagation.Result
	Err    error
}

// Metric returns a metric of a successful run.
func (o Outcome) Metric(name string) (float64, bool) {
	if o.Err != nil || o.Result == nil {
		return 0, false
	}
	v, ok := o.Result.Metrics[name]
	return v, ok
}

// Run builds and propagates every scenario on at most workers goroutines
// (GOMAXPROCS when workers <= 0). Outcomes keep the order of cfgs.
func Run(ctx context.Context, cfgs []*config.Scenario, workers int, opts ...experiment.Option) []Outcome {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]Outcome, len(cfgs))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(idx int, cfg *config.Scenario) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				outcomes[idx].Err = err
				return
			}
			exp, err := experiment.Build(cfg, opts...)
			if err != nil {
				outcomes[idx].Err = err
				return
			}
			outcomes[idx].Result, outcomes[idx].Err = exp.Run(ctx)
		}(i, cfg)
	}
	wg.Wait()
	return outcomes
}

// Apply sets a named parameter on a scenario. The gain parameters address
// the first pid schedule among the guidance angle commands.
func Apply(cfg *config.Scenario, name string, value float64) error {
	switch name {
	case "dt":
		cfg.Dt = value
		return nil
	case "duration":
		cfg.Duration = value
		return nil
	case "tolerance":
		cfg.Tolerance = value
		return nil
	case "kp", "ki", "kd", "target":
		sc := firstFeedback(cfg)
		if sc == nil {
			return dynamo.Configf("parameter %q needs a pid guidance schedule", name)
		}
		switch name {
		case "kp":
			sc.Kp = value
		case "ki":
			sc.Ki = value
		case "kd":
			sc.Kd = value
		default:
			sc.Target = value
		}
		return nil
	}
	return dynamo.Configf("unknown sweep parameter %q", name)
}

func firstFeedback(cfg *config.Scenario) *config.ScheduleConfig {
	for _, g := range cfg.Guidance {
		for _, sc := range []*config.ScheduleConfig{g.AngleOfAttack, g.Sideslip, g.Bank} {
			if sc != nil && sc.Type == config.SchedulePID {
				return sc
			}
		}
	}
	return nil
}
