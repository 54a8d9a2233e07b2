package guidance

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/dynamo"
)

func TestSchedules(t *testing.T) {
	tab, err := NewTable([]float64{0, 10, 20}, []float64{1, 3, -1})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		s    Schedule
		t    float64
		want float64
	}{
		{"constant", Constant(0.2), 123, 0.2},
		{"linear at epoch", Linear{Initial: 0.3, Rate: -3e-4, Epoch: 0}, 0, 0.3},
		{"linear", Linear{Initial: 0.3, Rate: -3e-4, Epoch: 0}, 500, 0.15},
		{"table before", tab, -5, 1},
		{"table knot", tab, 10, 3},
		{"table between", tab, 15, 1},
		{"table after", tab, 30, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Value(tt.t); math.Abs(got-tt.want) > 1e-15 {
				t.Errorf("Value(%g) = %g, want %g", tt.t, got, tt.want)
			}
		})
	}
}

func TestNewTableValidation(t *testing.T) {
	if _, err := NewTable([]float64{0, 0}, []float64{1, 2}); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("repeated time: %v", err)
	}
	if _, err := NewTable(nil, nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("empty: %v", err)
	}
}

func TestPID(t *testing.T) {
	pid := NewPID(10.0, 0.1, 5.0, 0.0)
	if u := pid.Command(1.0, 0.0); u != -10 {
		t.Errorf("first command %g, want proportional only", u)
	}
	pid.Commit(1.0, 0.0)

	// err = -1 over one second: integral -1, derivative 0.
	if u := pid.Command(1.0, 1.0); math.Abs(u+10.1) > 1e-12 {
		t.Errorf("command after one second %g", u)
	}
	pid.Commit(1.0, 1.0)
	// At the committed time the derivative drops out.
	if u := pid.Command(1.0, 1.0); math.Abs(u+10.1) > 1e-12 {
		t.Errorf("repeated time gave %g", u)
	}

	pid.Reset()
	if u := pid.Command(0.5, 2.0); u != -5 {
		t.Errorf("after reset got %g", u)
	}
}

func TestPIDCommandsLeaveNoState(t *testing.T) {
	pid := NewPID(1, 1, 1, 0)
	pid.Commit(2, 0)
	want := pid.Command(3, 1)

	// trial evaluations at other times and measurements, as a rejected
	// adaptive step would make
	for _, trial := range [][2]float64{{50, 4}, {-7, 0.5}, {3, 0.25}} {
		pid.Command(trial[0], trial[1])
	}
	if got := pid.Command(3, 1); got != want {
		t.Errorf("command changed from %g to %g after trial evaluations", want, got)
	}

	// Commits at or before the last sample are ignored.
	pid.Commit(100, 0)
	if got := pid.Command(3, 1); got != want {
		t.Errorf("stale commit changed the command to %g", got)
	}
}

func TestLawCommitsFeedbackOnAcceptedEpochs(t *testing.T) {
	measured := 0.0
	pid := NewPID(0, 1, 0, 10)
	law := &Law{Bank: Feedback{PID: pid, Measure: func() float64 { return measured }}}

	law.OnStep(0, 0, nil, 0)
	if err := law.Update(1); err != nil {
		t.Fatal(err)
	}
	law.OnStep(1, 1, nil, 0)
	// integral of err = 10 over [0, 1]
	if u := pid.Command(measured, 1); u != 10 {
		t.Errorf("integral command %g, want 10", u)
	}

	law.Reset()
	if u := pid.Command(measured, 5); u != 0 {
		t.Errorf("after reset got %g, want 0 with Kp = 0", u)
	}
}

func TestFeedbackClamp(t *testing.T) {
	f := Feedback{PID: NewPID(1, 0, 0, 100), Measure: func() float64 { return 0 }, Min: -0.5, Max: 0.5}
	if got := f.Value(0); got != 0.5 {
		t.Errorf("clamped value %g", got)
	}
}

func TestLawDrivesConditionsAndSystems(t *testing.T) {
	systems := aerodynamics.NewVehicleSystems()
	fc := aerodynamics.NewFlightConditions("Earth", aerodynamics.EarthExponential, 6378e3, nil, systems)
	law := &Law{
		Attack:   Linear{Initial: 0.3, Rate: -0.3 / 1000},
		Bank:     Constant(0.1),
		Surfaces: map[string]Schedule{"TestSurface": Linear{Initial: -0.02, Rate: 0.04 / 1000}},
	}
	law.Attach(fc, systems)

	if err := fc.Update(0, dynamo.NewCartesian(r3.Vec{X: 6500e3}, r3.Vec{Y: 7e3}), make(dynamo.State, 6)); err != nil {
		t.Fatal(err)
	}
	if err := law.Update(250); err != nil {
		t.Fatal(err)
	}
	if got := fc.AngleOfAttack(); math.Abs(got-0.3*(1-250.0/1000)) > 1e-15 {
		t.Errorf("angle of attack %g", got)
	}
	if fc.SideslipAngle() != 0 || fc.BankAngle() != 0.1 {
		t.Errorf("sideslip %g bank %g", fc.SideslipAngle(), fc.BankAngle())
	}
	d, err := systems.ControlSurfaceDeflection("TestSurface")
	if err != nil || math.Abs(d-(-0.02+0.04*250/1000)) > 1e-15 {
		t.Errorf("deflection %g, %v", d, err)
	}
}

func TestLawWithoutSystems(t *testing.T) {
	law := &Law{Surfaces: map[string]Schedule{"flap": Constant(1)}}
	if err := law.Update(0); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestCompose(t *testing.T) {
	var calls []string
	fn := Compose(
		func(float64) error { calls = append(calls, "a"); return nil },
		func(float64) error { calls = append(calls, "b"); return errors.New("stop") },
		func(float64) error { calls = append(calls, "c"); return nil },
	)
	if err := fn(0); err == nil {
		t.Error("expected error")
	}
	if len(calls) != 2 {
		t.Errorf("calls = %v", calls)
	}
}
