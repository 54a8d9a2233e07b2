package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/orbsim/internal/dynamo"
)

func TestRK45_Step(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}

	x := dynamo.State{1.0, 0.0}
	dt := 0.01

	for i := 0; i < 1000; i++ {
		var err error
		x, err = integrator.Step(dyn, x, float64(i)*dt, dt)
		if err != nil {
			t.Fatal(err)
		}
	}

	if !x.IsValid() {
		t.Error("RK45 produced invalid state")
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x, _ = integrator.Step(dyn, x, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, taken, next, err := integrator.StepAdaptive(dyn, x0, 0, 1.0, 1e-10)
	if err != nil {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if taken >= 1.0 {
		t.Errorf("expected step to be reduced below 1.0 for tight tolerance, took %f", taken)
	}
	if next <= 0 {
		t.Errorf("StepAdaptive proposed invalid dt: %f", next)
	}
	if math.Abs(x[0]-math.Cos(taken)) > 1e-8 {
		t.Errorf("accepted step inaccurate: got %f, want %f", x[0], math.Cos(taken))
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	rk4 := NewRK4()
	rk45 := NewRK45()
	dyn := &harmonicOscillator{}

	x4 := dynamo.State{1.0, 0.0}
	x45 := x4.Clone()
	dt := 0.1
	for i := 0; i < 100; i++ {
		x4, _ = rk4.Step(dyn, x4, float64(i)*dt, dt)
		x45, _ = rk45.Step(dyn, x45, float64(i)*dt, dt)
	}

	want := math.Cos(10.0)
	if math.Abs(x45[0]-want) > math.Abs(x4[0]-want) {
		t.Errorf("RK45 less accurate than RK4: %e vs %e", math.Abs(x45[0]-want), math.Abs(x4[0]-want))
	}
}
