package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// MinDistance tracks the closest approach of a body to its integration
// origin.
type MinDistance struct {
	name string
	body int
	min  float64
}

func NewMinDistance(body int) *MinDistance {
	return &MinDistance{
		name: "min_distance",
		body: body,
		min:  math.Inf(1),
	}
}

func (m *MinDistance) Name() string { return m.name }

func (m *MinDistance) Observe(_ float64, x dynamo.State) {
	if len(x) < (m.body+1)*dynamo.CartesianSize {
		return
	}
	m.min = math.Min(m.min, r3.Norm(x.Position(m.body)))
}

func (m *MinDistance) Value() float64 {
	if math.IsInf(m.min, 1) {
		return 0
	}
	return m.min
}

func (m *MinDistance) Reset() {
	m.min = math.Inf(1)
}

// Stability is the fraction of epochs at which a body stays inside the
// shell [inner, outer] around its origin. A decaying or escaping orbit
// drives it below one.
type Stability struct {
	name         string
	body         int
	inner, outer float64
	violations   int
	samples      int
}

func NewStability(body int, inner, outer float64) *Stability {
	return &Stability{
		name:  "stability",
		body:  body,
		inner: inner,
		outer: outer,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ float64, x dynamo.State) {
	if len(x) < (s.body+1)*dynamo.CartesianSize {
		return
	}
	s.samples++
	if r := r3.Norm(x.Position(s.body)); r < s.inner || r > s.outer {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
