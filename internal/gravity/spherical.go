package gravity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/forces"
)

// RotationFunc returns the current inertial to body-fixed rotation matrix.
type RotationFunc func() *mat.Dense

// SphericalHarmonics evaluates the gradient of a fully normalised
// geopotential truncated at (degree, order).
type SphericalHarmonics struct {
	affected forces.PositionFunc
	exerting forces.PositionFunc
	rotation RotationFunc

	mu     float64
	radius float64
	degree int
	order  int
	cosine [][]float64
	sine   [][]float64

	legendre [][]float64
	acc      r3.Vec
}

// SphericalHarmonicsOption customises a SphericalHarmonics model.
type SphericalHarmonicsOption func(*SphericalHarmonics)

// WithGravitationalParameter overrides the field's μ, e.g. to fold in the
// affected body's own parameter for mutual attraction.
func WithGravitationalParameter(mu float64) SphericalHarmonicsOption {
	return func(s *SphericalHarmonics) { s.mu = mu }
}

// NewSphericalHarmonics builds a model for the field truncated at the given
// degree and order. A nil rotation means the field is expressed in the
// inertial frame.
func NewSphericalHarmonics(affected forces.PositionFunc, field *SphericalHarmonicsField, degree, order int,
	exerting forces.PositionFunc, rotation RotationFunc, opts ...SphericalHarmonicsOption) (*SphericalHarmonics, error) {
	if field == nil {
		return nil, dynamo.Configf("spherical harmonics model needs a spherical harmonics field")
	}
	cosine, sine, err := field.Truncate(degree, order)
	if err != nil {
		return nil, err
	}
	legendre := make([][]float64, degree+1)
	for n := range legendre {
		legendre[n] = make([]float64, n+2)
	}
	s := &SphericalHarmonics{
		affected: affected,
		exerting: exerting,
		rotation: rotation,
		mu:       field.Mu,
		radius:   field.ReferenceRadius,
		degree:   degree,
		order:    order,
		cosine:   cosine,
		sine:     sine,
		legendre: legendre,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SphericalHarmonics) Update(t float64) error {
	rel := r3.Sub(s.affected(), s.exerting())

	var rot *mat.Dense
	if s.rotation != nil {
		rot = s.rotation()
	}
	bodyFixed := rel
	if rot != nil {
		bodyFixed = rotate(rot, rel, false)
	}

	acc, err := s.gradient(bodyFixed)
	if err != nil {
		return &dynamo.NumericalError{Time: t, Detail: err.Error()}
	}
	if rot != nil {
		acc = rotate(rot, acc, true)
	}
	if !finite(acc) {
		return &dynamo.NumericalError{Time: t, Detail: fmt.Sprintf("non-finite acceleration %v", acc)}
	}
	s.acc = acc
	return nil
}

func (s *SphericalHarmonics) Acceleration() r3.Vec { return s.acc }

func (s *SphericalHarmonics) Kind() forces.Kind { return forces.SphericalHarmonics }

func (s *SphericalHarmonics) GravitationalParameter() float64 { return s.mu }

// DegreeOrder reports the truncation of the model.
func (s *SphericalHarmonics) DegreeOrder() (int, int) { return s.degree, s.order }

// gradient returns the body-fixed acceleration at p.
func (s *SphericalHarmonics) gradient(p r3.Vec) (r3.Vec, error) {
	r := r3.Norm(p)
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return r3.Vec{}, fmt.Errorf("separation distance %g", r)
	}
	rho2 := p.X*p.X + p.Y*p.Y
	rho := math.Sqrt(rho2)
	if rho == 0 && s.degree > 0 {
		return r3.Vec{}, fmt.Errorf("position on the rotation axis with degree %d", s.degree)
	}

	sinPhi := p.Z / r
	cosPhi := rho / r
	lambda := math.Atan2(p.Y, p.X)
	fillLegendre(s.legendre, sinPhi, cosPhi)

	var dUdr, dUdphi, dUdlambda float64
	ratio := 1.0
	for n := 0; n <= s.degree; n++ {
		P := s.legendre[n]
		for m := 0; m < len(s.cosine[n]); m++ {
			sm, cm := math.Sincos(float64(m) * lambda)
			c, sn := s.cosine[n][m], s.sine[n][m]
			common := c*cm + sn*sm

			dP := legendreStep(n, m) * P[m+1]
			if m > 0 {
				dP -= float64(m) * (sinPhi / cosPhi) * P[m]
			}

			dUdr += float64(n+1) * ratio * P[m] * common
			dUdphi += ratio * dP * common
			dUdlambda += ratio * float64(m) * P[m] * (sn*cm - c*sm)
		}
		ratio *= s.radius / r
	}
	dUdr *= -s.mu / (r * r)
	dUdphi *= s.mu / r
	dUdlambda *= s.mu / r

	radial := dUdr / r
	if rho == 0 {
		return r3.Scale(radial, p), nil
	}
	lat := p.Z * dUdphi / (r * r * rho)
	lon := dUdlambda / rho2
	return r3.Vec{
		X: (radial-lat)*p.X - lon*p.Y,
		Y: (radial-lat)*p.Y + lon*p.X,
		Z: radial*p.Z + rho*dUdphi/(r*r),
	}, nil
}

// legendreStep is the factor multiplying P̄(n,m+1) in dP̄(n,m)/dφ.
func legendreStep(n, m int) float64 {
	k := float64((n - m) * (n + m + 1))
	if m == 0 {
		k /= 2
	}
	return math.Sqrt(k)
}

// fillLegendre writes fully normalised associated Legendre functions of
// sin(φ) into P[n][m]; P[n][n+1] is left zero.
func fillLegendre(P [][]float64, sinPhi, cosPhi float64) {
	P[0][0] = 1
	if len(P) == 1 {
		return
	}
	P[1][0] = math.Sqrt(3) * sinPhi
	P[1][1] = math.Sqrt(3) * cosPhi
	for n := 2; n < len(P); n++ {
		fn := float64(n)
		P[n][n] = math.Sqrt((2*fn+1)/(2*fn)) * cosPhi * P[n-1][n-1]
		P[n][n-1] = math.Sqrt(2*fn+1) * sinPhi * P[n-1][n-1]
		for m := 0; m < n-1; m++ {
			fm := float64(m)
			a := math.Sqrt((2*fn - 1) * (2*fn + 1) / ((fn - fm) * (fn + fm)))
			b := math.Sqrt((2*fn + 1) * (fn + fm - 1) * (fn - fm - 1) / ((fn - fm) * (fn + fm) * (2*fn - 3)))
			P[n][m] = a*sinPhi*P[n-1][m] - b*P[n-2][m]
		}
	}
}

// rotate multiplies v by rot, or by its transpose.
func rotate(rot *mat.Dense, v r3.Vec, transpose bool) r3.Vec {
	var m mat.Matrix = rot
	if transpose {
		m = rot.T()
	}
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
