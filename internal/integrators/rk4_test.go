package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/orbsim/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

var errBoom = errors.New("boom")

type failingSystem struct{ calls int }

func (f *failingSystem) StateDim() int { return 2 }

func (f *failingSystem) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	f.calls++
	if f.calls > 1 {
		return nil, errBoom
	}
	return dynamo.State{0, 0}, nil
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	dt := 0.01
	steps := 100

	x := dynamo.State{1.0, 0.0}
	for i := 0; i < steps; i++ {
		var err error
		x, err = integ.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestEulerFirstOrder(t *testing.T) {
	x, err := NewEuler().Step(&harmonicOscillator{}, dynamo.State{1, 0}, 0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if x[0] != 1.0 || math.Abs(x[1]+0.1) > 1e-15 {
		t.Errorf("unexpected euler step: %v", x)
	}
}

func TestStepPropagatesDerivativeErrors(t *testing.T) {
	integrators := map[string]dynamo.Integrator{
		"euler": NewEuler(),
		"rk4":   NewRK4(),
		"rk45":  NewRK45(),
	}
	for name, integ := range integrators {
		t.Run(name, func(t *testing.T) {
			sys := &failingSystem{calls: 1}
			_, err := integ.Step(sys, dynamo.State{1, 0}, 0, 0.1)
			if !errors.Is(err, errBoom) {
				t.Errorf("expected derivative error, got %v", err)
			}
		})
	}
}

func TestRK4ReusesScratchAcrossSizes(t *testing.T) {
	integ := NewRK4()
	if _, err := integ.Step(&harmonicOscillator{}, dynamo.State{1, 0}, 0, 0.1); err != nil {
		t.Fatal(err)
	}
	sys := &decay{}
	x, err := integ.Step(sys, dynamo.State{1, 1, 1}, 0, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(x) != 3 {
		t.Fatalf("expected 3 components, got %d", len(x))
	}
}

type decay struct{}

func (d *decay) StateDim() int { return 3 }

func (d *decay) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return x.Scale(-1), nil
}
