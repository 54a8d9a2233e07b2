package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Euler is the explicit first-order method. Useful only for debugging
// force models; its energy error grows linearly with time.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	dx, err := sys.Derive(x, t)
	if err != nil {
		return nil, err
	}
	result := x.Clone()
	floats.AddScaled(result, dt, dx)
	return result, nil
}
