// Package gravity implements the gravitational acceleration models: point
// mass, spherical harmonics and the third-body correction used when the
// integration origin is itself accelerated by the perturbing body.
package gravity

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/forces"
)

// DirectModel is a gravity evaluator that does not depend on the
// integration origin. Two of them sharing an exerting body make up a
// ThirdBody correction.
type DirectModel interface {
	forces.AccelerationModel
	GravitationalParameter() float64
}

// CentralGravity is the point-mass acceleration of the affected body
// towards the exerting body.
type CentralGravity struct {
	affected forces.PositionFunc
	exerting forces.PositionFunc
	mu       float64
	acc      r3.Vec
}

func NewCentralGravity(affected forces.PositionFunc, mu float64, exerting forces.PositionFunc) *CentralGravity {
	return &CentralGravity{affected: affected, exerting: exerting, mu: mu}
}

func (c *CentralGravity) Update(t float64) error {
	acc, err := pointMass(r3.Sub(c.affected(), c.exerting()), c.mu)
	if err != nil {
		return &dynamo.NumericalError{Time: t, Detail: err.Error()}
	}
	c.acc = acc
	return nil
}

func (c *CentralGravity) Acceleration() r3.Vec { return c.acc }

func (c *CentralGravity) Kind() forces.Kind { return forces.CentralGravity }

func (c *CentralGravity) GravitationalParameter() float64 { return c.mu }

// pointMass evaluates -mu*r/|r|^3. The expression is shared with the
// degree-zero harmonic term so both agree bit for bit.
func pointMass(rel r3.Vec, mu float64) (r3.Vec, error) {
	r := r3.Norm(rel)
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return r3.Vec{}, fmt.Errorf("separation distance %g", r)
	}
	radial := -mu / (r * r) / r
	acc := r3.Scale(radial, rel)
	if !finite(acc) {
		return r3.Vec{}, fmt.Errorf("non-finite acceleration %v", acc)
	}
	return acc, nil
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
