// Package frames supplies the inertial to body-fixed rotations consumed by
// the gravity and aerodynamic models.
package frames

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// RotationModel gives the orientation of a body-fixed frame.
type RotationModel interface {
	// ToBodyFixed returns the inertial to body-fixed rotation at t.
	ToBodyFixed(t float64) *mat.Dense
	// AngularVelocity returns the body rotation vector in the inertial frame.
	AngularVelocity(t float64) r3.Vec
}

// Identity keeps the body-fixed frame aligned with the inertial one.
type Identity struct{}

func (Identity) ToBodyFixed(float64) *mat.Dense { return eye() }

func (Identity) AngularVelocity(float64) r3.Vec { return r3.Vec{} }

// UniformZ rotates at a constant rate about the inertial z axis.
type UniformZ struct {
	// Rate in rad/s.
	Rate float64
	// Angle at Epoch in rad.
	Angle0 float64
	Epoch  float64
}

func (u UniformZ) ToBodyFixed(t float64) *mat.Dense {
	return RotZ(u.Angle(t))
}

func (u UniformZ) AngularVelocity(float64) r3.Vec {
	return r3.Vec{Z: u.Rate}
}

// Angle is the rotation angle at t, wrapped to [0, 2π).
func (u UniformZ) Angle(t float64) float64 {
	theta := math.Mod(u.Angle0+u.Rate*(t-u.Epoch), 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta
}

// RotZ is the passive rotation by theta about z.
func RotZ(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}

// RotX is the passive rotation by theta about x.
func RotX(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, s,
		0, -s, c,
	})
}

func eye() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// Apply multiplies v by m.
func Apply(m mat.Matrix, v r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, []float64{v.X, v.Y, v.Z}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}
