package setup

import (
	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/bodies"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/forces"
	"github.com/san-kum/orbsim/internal/gravity"
)

// Constructor builds the model of one settings type acting on target from
// exerting. mutual asks for the target's own μ to be folded in.
type Constructor struct {
	// Gravitational models get a third-body correction when the
	// integration origin is accelerated by the exerting body. New must then
	// return a gravity.DirectModel.
	Gravitational bool
	// MutualDefault applies when the settings leave MutualAttraction unset.
	MutualDefault bool
	New           func(reg *bodies.Registry, target, exerting bodies.Handle, s AccelerationSettings, mutual bool) (forces.AccelerationModel, error)
}

// DefaultConstructors returns a fresh table of the built-in types.
func DefaultConstructors() map[AccelerationType]Constructor {
	return map[AccelerationType]Constructor{
		CentralGravityType:     {Gravitational: true, MutualDefault: true, New: newCentralGravity},
		SphericalHarmonicsType: {Gravitational: true, MutualDefault: false, New: newSphericalHarmonics},
		AerodynamicType:        {New: newAerodynamic},
	}
}

func combinedMu(reg *bodies.Registry, target, exerting bodies.Handle, mutual bool) (float64, error) {
	e := reg.Body(exerting)
	if e.Gravity == nil {
		return 0, dynamo.Configf("body %q has no gravity field", e.Name)
	}
	mu := e.Gravity.GravitationalParameter()
	if mutual {
		mu += reg.Body(target).GravitationalParameter()
	}
	return mu, nil
}

func newCentralGravity(reg *bodies.Registry, target, exerting bodies.Handle, _ AccelerationSettings, mutual bool) (forces.AccelerationModel, error) {
	mu, err := combinedMu(reg, target, exerting, mutual)
	if err != nil {
		return nil, err
	}
	return gravity.NewCentralGravity(reg.PositionFunc(target), mu, reg.PositionFunc(exerting)), nil
}

func newSphericalHarmonics(reg *bodies.Registry, target, exerting bodies.Handle, s AccelerationSettings, mutual bool) (forces.AccelerationModel, error) {
	e := reg.Body(exerting)
	if e.Gravity == nil {
		return nil, dynamo.Configf("body %q has no gravity field", e.Name)
	}
	field, ok := e.Gravity.(*gravity.SphericalHarmonicsField)
	if !ok {
		return nil, dynamo.Configf("spherical harmonics requested but %q has a %T", e.Name, e.Gravity)
	}
	mu, err := combinedMu(reg, target, exerting, mutual)
	if err != nil {
		return nil, err
	}
	return gravity.NewSphericalHarmonics(reg.PositionFunc(target), field, s.MaximumDegree, s.MaximumOrder,
		reg.PositionFunc(exerting), reg.RotationFunc(exerting), gravity.WithGravitationalParameter(mu))
}

func newAerodynamic(reg *bodies.Registry, target, exerting bodies.Handle, _ AccelerationSettings, _ bool) (forces.AccelerationModel, error) {
	v := reg.Body(target)
	if v.Mass <= 0 {
		return nil, dynamo.Configf("aerodynamic acceleration on %q needs a positive mass", v.Name)
	}
	fc, err := reg.FlightConditions(target, exerting)
	if err != nil {
		return nil, err
	}
	return aerodynamics.NewAcceleration(fc, reg.MassFunc(target)), nil
}
