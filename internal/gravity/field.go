package gravity

import (
	"github.com/san-kum/orbsim/internal/dynamo"
)

// Field is the gravity field model attached to a body.
type Field interface {
	GravitationalParameter() float64
}

// PointMassField is a spherically symmetric field.
type PointMassField struct {
	Mu float64
}

func (f PointMassField) GravitationalParameter() float64 { return f.Mu }

// SphericalHarmonicsField holds fully normalised cosine and sine
// coefficients indexed [degree][order]. Rows may be triangular; missing
// entries are zero.
type SphericalHarmonicsField struct {
	Mu              float64
	ReferenceRadius float64
	Cosine          [][]float64
	Sine            [][]float64
}

// NewSphericalHarmonicsField validates the coefficient tables.
func NewSphericalHarmonicsField(mu, radius float64, cosine, sine [][]float64) (*SphericalHarmonicsField, error) {
	if mu <= 0 {
		return nil, dynamo.Configf("gravitational parameter must be positive, got %g", mu)
	}
	if radius <= 0 {
		return nil, dynamo.Configf("reference radius must be positive, got %g", radius)
	}
	if len(cosine) == 0 {
		return nil, dynamo.Configf("spherical harmonics field needs at least the degree 0 coefficient")
	}
	if len(sine) != len(cosine) {
		return nil, dynamo.Configf("cosine and sine tables differ in degree: %d vs %d", len(cosine)-1, len(sine)-1)
	}
	for n := range cosine {
		if len(cosine[n]) > n+1 && !trailingZeros(cosine[n][n+1:]) {
			return nil, dynamo.Configf("cosine coefficient row %d has order above its degree", n)
		}
		if len(sine[n]) > n+1 && !trailingZeros(sine[n][n+1:]) {
			return nil, dynamo.Configf("sine coefficient row %d has order above its degree", n)
		}
	}
	return &SphericalHarmonicsField{Mu: mu, ReferenceRadius: radius, Cosine: cosine, Sine: sine}, nil
}

func trailingZeros(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func (f *SphericalHarmonicsField) GravitationalParameter() float64 { return f.Mu }

// MaxDegree is the highest degree present in the tables.
func (f *SphericalHarmonicsField) MaxDegree() int { return len(f.Cosine) - 1 }

// C returns the cosine coefficient of degree n and order m, zero if absent.
func (f *SphericalHarmonicsField) C(n, m int) float64 { return coefficient(f.Cosine, n, m) }

// S returns the sine coefficient of degree n and order m, zero if absent.
func (f *SphericalHarmonicsField) S(n, m int) float64 { return coefficient(f.Sine, n, m) }

func coefficient(table [][]float64, n, m int) float64 {
	if n < len(table) && m < len(table[n]) {
		return table[n][m]
	}
	return 0
}

// Truncate returns lower-triangular copies of the tables limited to the
// given degree and order.
func (f *SphericalHarmonicsField) Truncate(degree, order int) (cosine, sine [][]float64, err error) {
	if degree < 0 || order < 0 {
		return nil, nil, dynamo.Configf("negative degree/order (%d, %d)", degree, order)
	}
	if order > degree {
		return nil, nil, dynamo.Configf("order %d exceeds degree %d", order, degree)
	}
	if degree > f.MaxDegree() {
		return nil, nil, dynamo.Configf("degree %d exceeds field maximum %d", degree, f.MaxDegree())
	}
	cosine = make([][]float64, degree+1)
	sine = make([][]float64, degree+1)
	for n := 0; n <= degree; n++ {
		width := min(n, order) + 1
		cosine[n] = make([]float64, width)
		sine[n] = make([]float64, width)
		for m := 0; m < width; m++ {
			cosine[n][m] = f.C(n, m)
			sine[n][m] = f.S(n, m)
		}
	}
	return cosine, sine, nil
}
