package ephemeris

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Elements are classical orbital elements. Angles are in radians.
type Elements struct {
	SemiMajorAxis float64 `yaml:"semi_major_axis"`
	Eccentricity  float64 `yaml:"eccentricity"`
	Inclination   float64 `yaml:"inclination"`
	RAAN          float64 `yaml:"raan"`
	ArgPeriapsis  float64 `yaml:"arg_periapsis"`
	TrueAnomaly   float64 `yaml:"true_anomaly"`
}

// Kepler is an unperturbed elliptic orbit about a center whose own motion
// is given by another ephemeris (nil for the global origin).
type Kepler struct {
	Elements Elements
	Mu       float64
	Epoch    float64
	Center   Ephemeris

	meanAnomaly0 float64
	meanMotion   float64
	perifocal    *mat.Dense
}

func NewKepler(el Elements, mu, epoch float64, center Ephemeris) (*Kepler, error) {
	if mu <= 0 {
		return nil, dynamo.Configf("kepler ephemeris: non-positive mu %g", mu)
	}
	if el.SemiMajorAxis <= 0 || el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return nil, dynamo.Configf("kepler ephemeris: only elliptic orbits are supported (a=%g, e=%g)", el.SemiMajorAxis, el.Eccentricity)
	}
	k := &Kepler{Elements: el, Mu: mu, Epoch: epoch, Center: center}
	k.meanMotion = math.Sqrt(mu / (el.SemiMajorAxis * el.SemiMajorAxis * el.SemiMajorAxis))
	k.meanAnomaly0 = TrueToMean(el.TrueAnomaly, el.Eccentricity)
	k.perifocal = perifocalToInertial(el.Inclination, el.RAAN, el.ArgPeriapsis)
	return k, nil
}

func (k *Kepler) State(t float64) (dynamo.State, error) {
	el := k.Elements
	M := k.meanAnomaly0 + k.meanMotion*(t-k.Epoch)
	E, err := SolveKepler(M, el.Eccentricity)
	if err != nil {
		return nil, err
	}
	sinE, cosE := math.Sincos(E)
	e := el.Eccentricity
	a := el.SemiMajorAxis
	b := a * math.Sqrt(1-e*e)
	r := a * (1 - e*cosE)
	Edot := k.meanMotion * a / r

	pos := r3.Vec{X: a * (cosE - e), Y: b * sinE}
	vel := r3.Vec{X: -a * sinE * Edot, Y: b * cosE * Edot}
	state := dynamo.NewCartesian(rotate(k.perifocal, pos), rotate(k.perifocal, vel))

	if k.Center != nil {
		c, err := k.Center.State(t)
		if err != nil {
			return nil, fmt.Errorf("kepler center: %w", err)
		}
		state = state.Add(c)
	}
	return state, nil
}

// ToCartesian converts elements to a state relative to the focus.
func ToCartesian(el Elements, mu float64) (dynamo.State, error) {
	k, err := NewKepler(el, mu, 0, nil)
	if err != nil {
		return nil, err
	}
	return k.State(0)
}

// SolveKepler returns the eccentric anomaly for mean anomaly M.
func SolveKepler(M, e float64) (float64, error) {
	M = math.Remainder(M, 2*math.Pi)
	E := M
	if e > 0.8 {
		E = math.Pi
		if M < 0 {
			E = -math.Pi
		}
	}
	for i := 0; i < 50; i++ {
		f := E - e*math.Sin(E) - M
		dE := f / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-14 {
			return E, nil
		}
	}
	return 0, fmt.Errorf("%w: kepler equation did not converge (M=%g, e=%g)", dynamo.ErrNumerical, M, e)
}

// TrueToMean converts true anomaly to mean anomaly for an ellipse.
func TrueToMean(nu, e float64) float64 {
	E := 2 * math.Atan2(math.Sqrt(1-e)*math.Sin(nu/2), math.Sqrt(1+e)*math.Cos(nu/2))
	return E - e*math.Sin(E)
}

// perifocalToInertial is R3(-Ω) R1(-i) R3(-ω).
func perifocalToInertial(inc, raan, argp float64) *mat.Dense {
	sO, cO := math.Sincos(raan)
	si, ci := math.Sincos(inc)
	sw, cw := math.Sincos(argp)
	return mat.NewDense(3, 3, []float64{
		cO*cw - sO*sw*ci, -cO*sw - sO*cw*ci, sO * si,
		sO*cw + cO*sw*ci, -sO*sw + cO*cw*ci, -cO * si,
		sw * si, cw * si, ci,
	})
}

func rotate(m *mat.Dense, v r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
