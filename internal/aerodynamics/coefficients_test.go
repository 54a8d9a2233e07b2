package aerodynamics

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// capsuleBase is a smooth stand-in for tabulated capsule coefficients over
// (mach, angle of attack, sideslip).
func capsuleBase(vars []float64) [6]float64 {
	mach, alpha, beta := vars[0], vars[1], vars[2]
	return [6]float64{
		1.2 + 0.01*mach - 0.3*alpha*alpha,
		0.05 * beta,
		-0.35*alpha + 0.002*mach,
		0.001 * beta,
		-0.08*alpha + 0.01,
		0.0005 * beta,
	}
}

func testIncrement(vars []float64) [6]float64 {
	out := [6]float64{1.0, -3.5, 2.1, 0.4, -0.75, 1.3}
	for i := range out {
		out[i] *= 0.01*vars[0] + float64(i)*0.005*vars[1]
	}
	return out
}

func newCapsule() *CoefficientInterface {
	return NewCoefficientInterface(capsuleBase, 4.0, 3.9, MachNumber, AngleOfAttack, AngleOfSideslip)
}

func TestControlSurfaceIncrementGrid(t *testing.T) {
	without := newCapsule()
	with := newCapsule()
	with.SetControlSurface("TestSurface", NewControlSurfaceIncrement(testIncrement, AngleOfAttack, ControlSurfaceDeflection))

	base := []float64{10.0, 0.1, -0.01}
	for alpha := -0.4; alpha < 0.4; alpha += 0.02 {
		for delta := -0.05; delta < 0.05; delta += 0.001 {
			base[1] = alpha
			surface := []float64{alpha, delta}
			if err := without.UpdateCurrentCoefficients(base); err != nil {
				t.Fatal(err)
			}
			if err := with.UpdateFullCurrentCoefficients(base, map[string][]float64{"TestSurface": surface}); err != nil {
				t.Fatal(err)
			}
			fw, _ := with.ForceCoefficients()
			fo, _ := without.ForceCoefficients()
			mw, _ := with.MomentCoefficients()
			mo, _ := without.MomentCoefficients()
			inc := testIncrement(surface)

			diffs := [6]float64{
				fw.X - fo.X - inc[0], fw.Y - fo.Y - inc[1], fw.Z - fo.Z - inc[2],
				mw.X - mo.X - inc[3], mw.Y - mo.Y - inc[4], mw.Z - mo.Z - inc[5],
			}
			for i, d := range diffs {
				if math.Abs(d) > 1e-14 {
					t.Fatalf("alpha=%g delta=%g component %d: residual %g", alpha, delta, i, d)
				}
			}
		}
	}
}

func TestCoefficientsBeforeUpdate(t *testing.T) {
	ci := newCapsule()
	if _, err := ci.ForceCoefficients(); !errors.Is(err, dynamo.ErrNotEvaluated) {
		t.Errorf("force: %v", err)
	}
	if _, err := ci.MomentCoefficients(); !errors.Is(err, dynamo.ErrNotEvaluated) {
		t.Errorf("moment: %v", err)
	}
}

func TestUpdateFullCurrentCoefficientsErrors(t *testing.T) {
	ci := newCapsule()
	ci.SetControlSurface("elevon", NewControlSurfaceIncrement(testIncrement, AngleOfAttack, ControlSurfaceDeflection))
	base := []float64{5, 0.1, 0}

	tests := []struct {
		name     string
		base     []float64
		surfaces map[string][]float64
	}{
		{"unknown surface", base, map[string][]float64{"rudder": {0, 0}}},
		{"base arity", []float64{5, 0.1}, nil},
		{"surface arity", base, map[string][]float64{"elevon": {0.1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ci.UpdateFullCurrentCoefficients(tt.base, tt.surfaces); !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestAbsentSurfaceContributesNothing(t *testing.T) {
	g := NewWithT(t)
	with := newCapsule()
	with.SetControlSurface("elevon", NewControlSurfaceIncrement(testIncrement, AngleOfAttack, ControlSurfaceDeflection))
	without := newCapsule()

	base := []float64{8, 0.2, 0.01}
	g.Expect(with.UpdateFullCurrentCoefficients(base, map[string][]float64{})).To(Succeed())
	g.Expect(without.UpdateCurrentCoefficients(base)).To(Succeed())

	fw, err := with.ForceCoefficients()
	g.Expect(err).NotTo(HaveOccurred())
	fo, _ := without.ForceCoefficients()
	g.Expect(fw).To(Equal(fo))
}

func TestFailedUpdateKeepsPreviousCoefficients(t *testing.T) {
	ci := newCapsule()
	if err := ci.UpdateCurrentCoefficients([]float64{1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	before, _ := ci.ForceCoefficients()
	_ = ci.UpdateFullCurrentCoefficients([]float64{1, 0, 0}, map[string][]float64{"missing": {1}})
	after, _ := ci.ForceCoefficients()
	if before != after {
		t.Errorf("coefficients changed after failed update: %v -> %v", before, after)
	}
}

func TestHelpers(t *testing.T) {
	g := NewWithT(t)
	c := ConstantCoefficients([6]float64{1, 2, 3, 4, 5, 6})
	g.Expect(c([]float64{9, 9})).To(Equal([6]float64{1, 2, 3, 4, 5, 6}))

	lin := LinearIncrement([6]float64{1, 0, 0, 0, 0, 0}, [6]float64{0, 0, 2, 0, 0, 0})
	g.Expect(lin([]float64{0.5, 0.25})).To(Equal([6]float64{0.5, 0, 0.5, 0, 0, 0}))
	g.Expect(lin([]float64{0.5, 0.25, 7})).To(Equal([6]float64{0.5, 0, 0.5, 0, 0, 0}))
}

func TestParseIndependentVariable(t *testing.T) {
	for v := MachNumber; v <= ControlSurfaceDeflection; v++ {
		got, err := ParseIndependentVariable(v.String())
		if err != nil || got != v {
			t.Errorf("round trip of %v: %v, %v", v, got, err)
		}
	}
	if _, err := ParseIndependentVariable("dynamic_pressure"); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
