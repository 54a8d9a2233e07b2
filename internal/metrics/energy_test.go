package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

const muEarth = 3.986004418e14

func circular(r float64) dynamo.State {
	return dynamo.NewCartesian(r3.Vec{X: r}, r3.Vec{Y: math.Sqrt(muEarth / r)})
}

func TestEnergyOfCircularOrbit(t *testing.T) {
	r := 7e6
	m := NewEnergy(0, muEarth)

	m.Observe(0, circular(r))
	expected := -muEarth / (2 * r)

	if math.Abs(m.Value()-expected) > 1e-6 {
		t.Errorf("expected energy %f, got %f", expected, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyIgnoresShortStates(t *testing.T) {
	m := NewEnergy(1, muEarth)
	m.Observe(0, circular(7e6))
	if m.Value() != 0 {
		t.Errorf("expected no samples, got %f", m.Value())
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift(0, muEarth)
	m.Observe(0, circular(7e6))
	if m.Value() != 0 {
		t.Errorf("drift after one sample = %g", m.Value())
	}

	x := circular(7e6)
	x[4] *= 1.01
	m.Observe(10, x)
	e0 := -muEarth / 14e6
	v := math.Sqrt(muEarth/7e6) * 1.01
	want := math.Abs((0.5*v*v-muEarth/7e6)-e0) / math.Abs(e0)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("drift = %g, want %g", m.Value(), want)
	}

	m.Observe(20, circular(7e6))
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Error("drift should keep its maximum")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestMinDistance(t *testing.T) {
	m := NewMinDistance(0)
	if m.Value() != 0 {
		t.Error("expected zero before any sample")
	}
	for _, r := range []float64{7e6, 6.8e6, 7.2e6} {
		m.Observe(0, circular(r))
	}
	if m.Value() != 6.8e6 {
		t.Errorf("min distance = %g", m.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability(0, 6.5e6, 8e6)
	if s.Value() != 1 {
		t.Error("expected full stability before any sample")
	}
	s.Observe(0, circular(7e6))
	s.Observe(1, circular(6.4e6))
	s.Observe(2, circular(7e6))
	s.Observe(3, circular(9e6))
	if s.Value() != 0.5 {
		t.Errorf("stability = %g, want 0.5", s.Value())
	}
}

func TestControlEffort(t *testing.T) {
	deflection := -0.02
	c := NewControlEffort("effort", func() float64 { return deflection })
	c.Observe(0, nil)
	deflection = 0.04
	c.Observe(1, nil)
	if math.Abs(c.Value()-0.03) > 1e-15 {
		t.Errorf("effort = %g", c.Value())
	}
	if c.Name() != "effort" {
		t.Errorf("name = %q", c.Name())
	}
}
