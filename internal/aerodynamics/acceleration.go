package aerodynamics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/forces"
)

// Acceleration is the drag, side and lift acceleration acting on a vehicle.
// Flight conditions and coefficients must be current when Update runs.
type Acceleration struct {
	conditions *FlightConditions
	mass       func() float64
	acc        r3.Vec
}

func NewAcceleration(conditions *FlightConditions, mass func() float64) *Acceleration {
	return &Acceleration{conditions: conditions, mass: mass}
}

func (a *Acceleration) Update(t float64) error {
	fc := a.conditions
	coeff, err := fc.coefficients.ForceCoefficients()
	if err != nil {
		return err
	}
	m := a.mass()
	if m <= 0 {
		return &dynamo.NumericalError{Time: t, Exerting: fc.Central, Detail: fmt.Sprintf("vehicle mass %g", m)}
	}

	speed := fc.Airspeed()
	if speed == 0 {
		a.acc = r3.Vec{}
		return nil
	}
	drag := r3.Scale(1/speed, fc.AirspeedVector())

	up := r3.Unit(fc.RelativePosition())
	lift0 := r3.Sub(up, r3.Scale(r3.Dot(up, drag), drag))
	var lift, side r3.Vec
	if n := r3.Norm(lift0); n > 0 {
		lift0 = r3.Scale(1/n, lift0)
		side0 := r3.Cross(drag, lift0)
		sb, cb := math.Sincos(fc.BankAngle())
		lift = r3.Add(r3.Scale(cb, lift0), r3.Scale(sb, side0))
		side = r3.Sub(r3.Scale(cb, side0), r3.Scale(sb, lift0))
	} else if coeff.Y != 0 || coeff.Z != 0 {
		return &dynamo.NumericalError{Time: t, Exerting: fc.Central, Detail: "lift direction undefined for radial airspeed"}
	}

	k := fc.DynamicPressure() * fc.coefficients.ReferenceArea / m
	acc := r3.Scale(-coeff.X, drag)
	acc = r3.Add(acc, r3.Scale(-coeff.Y, side))
	acc = r3.Add(acc, r3.Scale(coeff.Z, lift))
	acc = r3.Scale(k, acc)
	if !finite(acc) {
		return &dynamo.NumericalError{Time: t, Exerting: fc.Central, Detail: "non-finite aerodynamic acceleration"}
	}
	a.acc = acc
	return nil
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func (a *Acceleration) Acceleration() r3.Vec { return a.acc }

func (a *Acceleration) Kind() forces.Kind { return forces.Aerodynamic }

func (a *Acceleration) Conditions() *FlightConditions { return a.conditions }
