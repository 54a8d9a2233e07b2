package sweep

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/propagation"
)

func quiet() experiment.Option {
	log, _ := test.NewNullLogger()
	return experiment.WithLogger(log)
}

func shortOrbit() *config.Scenario {
	cfg := config.DefaultScenario()
	cfg.Duration = 600
	return cfg
}

func TestParseAxis(t *testing.T) {
	g := NewWithT(t)
	a, err := ParseAxis("dt=5, 10,20")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a).To(Equal(Axis{Name: "dt", Values: []float64{5, 10, 20}}))

	for _, bad := range []string{"dt", "=1", "dt=", "dt=1,x"} {
		_, err := ParseAxis(bad)
		g.Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue(), bad)
	}
}

func TestGridPoints(t *testing.T) {
	g := NewWithT(t)
	grid := Grid{Axes: []Axis{{Name: "dt", Values: []float64{1, 2}}, {Name: "kp", Values: []float64{3, 4, 5}}}}
	points := grid.Points()
	g.Expect(points).To(HaveLen(6))
	g.Expect(points[0]).To(Equal(map[string]float64{"dt": 1, "kp": 3}))
	g.Expect(points[1]).To(Equal(map[string]float64{"dt": 1, "kp": 4}))
	g.Expect(points[5]).To(Equal(map[string]float64{"dt": 2, "kp": 5}))

	g.Expect(Grid{}.Points()).To(HaveLen(1))
}

func TestApply(t *testing.T) {
	g := NewWithT(t)
	cfg := config.GetPreset("reentry", "bank_hold")
	g.Expect(Apply(cfg, "kp", 1e-4)).To(Succeed())
	g.Expect(Apply(cfg, "target", 80e3)).To(Succeed())
	g.Expect(Apply(cfg, "dt", 0.5)).To(Succeed())
	g.Expect(cfg.Guidance[0].Bank.Kp).To(Equal(1e-4))
	g.Expect(cfg.Guidance[0].Bank.Target).To(Equal(80e3))
	g.Expect(cfg.Dt).To(Equal(0.5))

	g.Expect(errors.Is(Apply(config.DefaultScenario(), "kd", 1), dynamo.ErrConfiguration)).To(BeTrue())
	g.Expect(errors.Is(Apply(cfg, "mass", 1), dynamo.ErrConfiguration)).To(BeTrue())
}

func TestGridSearchFindsSmallestDrift(t *testing.T) {
	g := NewWithT(t)
	grid := Grid{Axes: []Axis{{Name: "dt", Values: []float64{60, 10, 30}}}}

	best, all, err := grid.Search(context.Background(), shortOrbit(), "energy_drift", 2, quiet())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(all).To(HaveLen(3))
	g.Expect(best.Params).To(Equal(map[string]float64{"dt": 10}))
	for _, o := range all {
		g.Expect(o.Err).NotTo(HaveOccurred())
		v, _ := o.Metric("energy_drift")
		g.Expect(v).To(BeNumerically(">=", best.Result.Metrics["energy_drift"]))
	}

	_, _, err = grid.Search(context.Background(), shortOrbit(), "no_such_metric", 2, quiet())
	g.Expect(err).To(HaveOccurred())
}

func TestRunKeepsOrderAndReportsFailures(t *testing.T) {
	g := NewWithT(t)
	bad := shortOrbit()
	bad.Integrator = "leapfrog"
	cfgs := []*config.Scenario{shortOrbit(), bad, shortOrbit()}
	cfgs[2].Duration = 300

	outcomes := Run(context.Background(), cfgs, 0, quiet())
	g.Expect(outcomes).To(HaveLen(3))
	g.Expect(outcomes[0].Err).NotTo(HaveOccurred())
	g.Expect(outcomes[0].Result.Times).To(HaveLen(61))
	g.Expect(errors.Is(outcomes[1].Err, dynamo.ErrConfiguration)).To(BeTrue())
	g.Expect(outcomes[2].Result.Times).To(HaveLen(31))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, o := range Run(ctx, cfgs[:1], 1, quiet()) {
		g.Expect(errors.Is(o.Err, context.Canceled)).To(BeTrue())
	}
}

func TestDispersionIsReproducible(t *testing.T) {
	g := NewWithT(t)
	d := Dispersion{Trials: 4, Seed: 7, Position: 100, Velocity: 0.1}

	a, err := d.Scenarios(shortOrbit())
	g.Expect(err).NotTo(HaveOccurred())
	b, err := d.Scenarios(shortOrbit())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a).To(HaveLen(4))
	for i := range a {
		g.Expect(a[i].Propagated[0].Offset).To(Equal(b[i].Propagated[0].Offset))
		g.Expect(a[i].Propagated[0].Offset).To(HaveLen(6))
	}
	g.Expect(a[0].Propagated[0].Offset).NotTo(Equal(a[1].Propagated[0].Offset))

	_, err = Dispersion{Trials: 0}.Scenarios(shortOrbit())
	g.Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	_, err = Dispersion{Trials: 1, Position: -1}.Scenarios(shortOrbit())
	g.Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
}

func TestMonteCarloSummary(t *testing.T) {
	g := NewWithT(t)
	d := Dispersion{Trials: 8, Seed: 1, Position: 1000, Velocity: 1}

	outcomes, err := MonteCarlo(context.Background(), shortOrbit(), d, 4, quiet())
	g.Expect(err).NotTo(HaveOccurred())
	s := Summarize(outcomes, "min_distance")
	g.Expect(s.Runs).To(Equal(8))
	g.Expect(s.Failed).To(BeZero())
	g.Expect(s.Min).To(BeNumerically("<=", s.Mean))
	g.Expect(s.Mean).To(BeNumerically("<=", s.Max))
	g.Expect(s.StdDev).To(BeNumerically(">", 0))
	g.Expect(s.Mean).To(BeNumerically("~", 6878137.0, 50e3))
}

func TestSummarizeFailures(t *testing.T) {
	g := NewWithT(t)
	outcomes := []Outcome{
		{Err: &dynamo.SimulationError{Wrapped: dynamo.ErrNumerical}},
		{Err: dynamo.ErrConfiguration},
		{Result: &propagation.Result{Metrics: map[string]float64{"m": 2}}},
	}
	s := Summarize(outcomes, "m")
	g.Expect(s).To(Equal(Summary{Runs: 3, Failed: 2, Numerical: 1, Mean: 2, StdDev: 0, Min: 2, Max: 2}))

	empty := Summarize(outcomes[:2], "m")
	g.Expect(math.IsNaN(empty.Mean)).To(BeTrue())
}
