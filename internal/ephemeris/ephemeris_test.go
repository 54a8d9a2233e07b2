package ephemeris

import (
	"errors"
	"math"
	"testing"

	satellite "github.com/joshuaferrara/go-satellite"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

const muEarth = 3.986004418e14

func TestConstantMovesUniformly(t *testing.T) {
	c := Constant{Position: r3.Vec{X: 1}, Velocity: r3.Vec{Y: 2}, Epoch: 10}
	s, err := c.State(15)
	if err != nil {
		t.Fatal(err)
	}
	if s.Position(0) != (r3.Vec{X: 1, Y: 10}) || s.Velocity(0) != (r3.Vec{Y: 2}) {
		t.Errorf("state = %v", s)
	}
}

func TestTabulatedInterpolation(t *testing.T) {
	g := NewWithT(t)
	tab, err := NewTabulated(
		[]float64{10, 0},
		[]dynamo.State{{10, 0, 0, 1, 0, 0}, {0, 0, 0, 1, 0, 0}},
	)
	g.Expect(err).NotTo(HaveOccurred())

	s, err := tab.State(2.5)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s[0]).To(BeNumerically("~", 2.5, 1e-15))
	g.Expect(s[3]).To(BeNumerically("~", 1, 1e-15))

	s, err = tab.State(10)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s[0]).To(Equal(10.0))

	_, err = tab.State(11)
	g.Expect(errors.Is(err, ErrOutOfRange)).To(BeTrue())
}

func TestTabulatedValidation(t *testing.T) {
	tests := []struct {
		name   string
		times  []float64
		states []dynamo.State
	}{
		{"length mismatch", []float64{0, 1}, []dynamo.State{{0, 0, 0, 0, 0, 0}}},
		{"single sample", []float64{0}, []dynamo.State{{0, 0, 0, 0, 0, 0}}},
		{"duplicate epoch", []float64{1, 1}, []dynamo.State{{0, 0, 0, 0, 0, 0}, {1, 0, 0, 0, 0, 0}}},
		{"short state", []float64{0, 1}, []dynamo.State{{0, 0, 0}, {1, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTabulated(tt.times, tt.states); !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestKeplerCircularOrbit(t *testing.T) {
	g := NewWithT(t)
	a := 7000e3
	k, err := NewKepler(Elements{SemiMajorAxis: a, Inclination: 0.3}, muEarth, 0, nil)
	g.Expect(err).NotTo(HaveOccurred())

	period := 2 * math.Pi * math.Sqrt(a*a*a/muEarth)
	s0, err := k.State(0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(r3.Norm(s0.Position(0))).To(BeNumerically("~", a, 1e-6))
	g.Expect(r3.Norm(s0.Velocity(0))).To(BeNumerically("~", math.Sqrt(muEarth/a), 1e-9))

	s1, err := k.State(period)
	g.Expect(err).NotTo(HaveOccurred())
	for i := 0; i < 3; i++ {
		g.Expect(s1[i]).To(BeNumerically("~", s0[i], 1e-5))
	}
}

func TestKeplerEnergyAndMomentum(t *testing.T) {
	g := NewWithT(t)
	el := Elements{SemiMajorAxis: 26600e3, Eccentricity: 0.74, Inclination: 1.1, RAAN: 0.4, ArgPeriapsis: 4.7, TrueAnomaly: 2.0}
	k, err := NewKepler(el, muEarth, 0, nil)
	g.Expect(err).NotTo(HaveOccurred())

	wantEnergy := -muEarth / (2 * el.SemiMajorAxis)
	wantH := math.Sqrt(muEarth * el.SemiMajorAxis * (1 - el.Eccentricity*el.Eccentricity))
	for _, tt := range []float64{0, 1234, 20000, -5000} {
		s, err := k.State(tt)
		g.Expect(err).NotTo(HaveOccurred())
		r, v := s.Position(0), s.Velocity(0)
		energy := r3.Dot(v, v)/2 - muEarth/r3.Norm(r)
		g.Expect(energy).To(BeNumerically("~", wantEnergy, 1e-6*math.Abs(wantEnergy)))
		h := r3.Cross(r, v)
		g.Expect(r3.Norm(h)).To(BeNumerically("~", wantH, 1e-9*wantH))
		g.Expect(math.Acos(h.Z / r3.Norm(h))).To(BeNumerically("~", el.Inclination, 1e-9))
	}
}

func TestKeplerCenterOffset(t *testing.T) {
	center := Constant{Position: r3.Vec{X: 1e11}}
	k, err := NewKepler(Elements{SemiMajorAxis: 7000e3}, muEarth, 0, center)
	if err != nil {
		t.Fatal(err)
	}
	s, err := k.State(0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s[0]-(1e11+7000e3)) > 1e-3 {
		t.Errorf("x = %g", s[0])
	}
}

func TestKeplerRejectsOpenOrbits(t *testing.T) {
	if _, err := NewKepler(Elements{SemiMajorAxis: 7e6, Eccentricity: 1.2}, muEarth, 0, nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestSolveKepler(t *testing.T) {
	for _, e := range []float64{0, 0.1, 0.5, 0.9, 0.99} {
		for _, M := range []float64{-3, -1, 0, 0.5, 2, 3.1} {
			E, err := SolveKepler(M, e)
			if err != nil {
				t.Fatalf("e=%g M=%g: %v", e, M, err)
			}
			if got := E - e*math.Sin(E); math.Abs(got-M) > 1e-12 {
				t.Errorf("e=%g M=%g: residual %g", e, M, got-M)
			}
		}
	}
}

const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func TestSGP4Magnitude(t *testing.T) {
	g := NewWithT(t)
	e, err := NewSGP4(issLine1, issLine2, nil)
	g.Expect(err).NotTo(HaveOccurred())

	// 2024-04-09 12:00 UTC, the element set epoch.
	tEpoch := (2460410.0 - J2000JD) * 86400
	s, err := e.State(tEpoch)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(r3.Norm(s.Position(0))).To(BeNumerically("~", 6.78e6, 0.1e6))
	g.Expect(r3.Norm(s.Velocity(0))).To(BeNumerically("~", 7.66e3, 0.1e3))
}

func TestSGP4BetweenWholeSeconds(t *testing.T) {
	g := NewWithT(t)
	e, err := NewSGP4(issLine1, issLine2, nil)
	g.Expect(err).NotTo(HaveOccurred())

	t0 := (2460410.0-J2000JD)*86400 + 100
	// 2024-04-09 12:01:40 UTC
	pos, vel := satellite.Propagate(e.sat, 2024, 4, 9, 12, 1, 40)
	s0, err := e.State(t0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s0.Position(0)).To(Equal(r3.Scale(1e3, r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z})))
	g.Expect(s0.Velocity(0)).To(Equal(r3.Scale(1e3, r3.Vec{X: vel.X, Y: vel.Y, Z: vel.Z})))

	s1, err := e.State(t0 + 1)
	g.Expect(err).NotTo(HaveOccurred())
	step := r3.Norm(r3.Sub(s1.Position(0), s0.Position(0)))
	g.Expect(step).To(BeNumerically("~", 7.66e3, 0.1e3))

	half, err := e.State(t0 + 0.5)
	g.Expect(err).NotTo(HaveOccurred())
	d0 := r3.Norm(r3.Sub(half.Position(0), s0.Position(0)))
	d1 := r3.Norm(r3.Sub(s1.Position(0), half.Position(0)))
	g.Expect(d0).To(BeNumerically("~", step/2, 1))
	g.Expect(d1).To(BeNumerically("~", step/2, 1))
	g.Expect(r3.Norm(half.Velocity(0))).To(BeNumerically("~", r3.Norm(s0.Velocity(0)), 1))

	late, err := e.State(t0 + 0.999)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(r3.Norm(r3.Sub(late.Position(0), s1.Position(0)))).To(BeNumerically("<", 10))
}

func TestSGP4RejectsMalformedTLE(t *testing.T) {
	if _, err := NewSGP4("1 bad", issLine2, nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
