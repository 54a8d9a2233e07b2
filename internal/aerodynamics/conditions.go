package aerodynamics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// AngleFunc supplies an aerodynamic angle in radians.
type AngleFunc func() float64

// FlightConditions tracks a vehicle's state relative to the body whose
// atmosphere it flies through. The atmosphere is assumed not to co-rotate.
type FlightConditions struct {
	Central string

	atmosphere   Atmosphere
	radius       float64
	coefficients *CoefficientInterface
	systems      *VehicleSystems

	attack, sideslip, bank AngleFunc

	position r3.Vec
	airspeed r3.Vec
	altitude float64
	density  float64
	mach     float64
	time     float64
	updated  bool
}

func NewFlightConditions(central string, atmosphere Atmosphere, radius float64, coefficients *CoefficientInterface, systems *VehicleSystems) *FlightConditions {
	return &FlightConditions{
		Central:      central,
		atmosphere:   atmosphere,
		radius:       radius,
		coefficients: coefficients,
		systems:      systems,
	}
}

// SetAngleFunctions installs the attitude sources. A nil function reads as
// zero.
func (fc *FlightConditions) SetAngleFunctions(attack, sideslip, bank AngleFunc) {
	fc.attack, fc.sideslip, fc.bank = attack, sideslip, bank
}

// Update recomputes the conditions from the vehicle and central body
// states (both in the global frame).
func (fc *FlightConditions) Update(t float64, vehicle, central dynamo.State) error {
	if len(vehicle) < dynamo.CartesianSize || len(central) < dynamo.CartesianSize {
		return dynamo.ErrDimensionMismatch
	}
	fc.time = t
	fc.position = r3.Sub(vehicle.Position(0), central.Position(0))
	fc.airspeed = r3.Sub(vehicle.Velocity(0), central.Velocity(0))
	fc.altitude = r3.Norm(fc.position) - fc.radius
	fc.density = fc.atmosphere.Density(fc.altitude)
	sound := fc.atmosphere.SpeedOfSound(fc.altitude)
	if sound <= 0 {
		return &dynamo.NumericalError{Time: t, Exerting: fc.Central, Detail: fmt.Sprintf("speed of sound %g", sound)}
	}
	fc.mach = r3.Norm(fc.airspeed) / sound
	fc.updated = true
	return nil
}

// UpdateCoefficients evaluates the coefficient interface with the current
// conditions and control-surface deflections.
func (fc *FlightConditions) UpdateCoefficients() error {
	if fc.coefficients == nil {
		return nil
	}
	if !fc.updated {
		return dynamo.ErrNotEvaluated
	}
	base, err := fc.values(fc.coefficients.Variables(), "")
	if err != nil {
		return err
	}
	surfaces := fc.coefficients.ControlSurfaces()
	if len(surfaces) == 0 {
		return fc.coefficients.UpdateCurrentCoefficients(base)
	}
	inputs := make(map[string][]float64, len(surfaces))
	for _, name := range surfaces {
		vars, _ := fc.coefficients.ControlSurfaceVariables(name)
		v, err := fc.values(vars, name)
		if err != nil {
			return err
		}
		inputs[name] = v
	}
	return fc.coefficients.UpdateFullCurrentCoefficients(base, inputs)
}

func (fc *FlightConditions) values(vars []IndependentVariable, surface string) ([]float64, error) {
	out := make([]float64, len(vars))
	for i, v := range vars {
		switch v {
		case MachNumber:
			out[i] = fc.mach
		case AngleOfAttack:
			out[i] = fc.AngleOfAttack()
		case AngleOfSideslip:
			out[i] = fc.SideslipAngle()
		case Altitude:
			out[i] = fc.altitude
		case ControlSurfaceDeflection:
			if surface == "" {
				return nil, dynamo.Configf("control surface deflection is not a base coefficient input")
			}
			if fc.systems == nil {
				return nil, dynamo.Configf("surface %q needs vehicle systems", surface)
			}
			d, err := fc.systems.ControlSurfaceDeflection(surface)
			if err != nil {
				return nil, err
			}
			out[i] = d
		default:
			return nil, dynamo.Configf("unsupported independent variable %v", v)
		}
	}
	return out, nil
}

func (fc *FlightConditions) Altitude() float64 { return fc.altitude }

func (fc *FlightConditions) Density() float64 { return fc.density }

func (fc *FlightConditions) MachNumber() float64 { return fc.mach }

// Airspeed is the speed relative to the central body.
func (fc *FlightConditions) Airspeed() float64 { return r3.Norm(fc.airspeed) }

func (fc *FlightConditions) AirspeedVector() r3.Vec { return fc.airspeed }

func (fc *FlightConditions) RelativePosition() r3.Vec { return fc.position }

// DynamicPressure is ½ρV².
func (fc *FlightConditions) DynamicPressure() float64 {
	return 0.5 * fc.density * r3.Dot(fc.airspeed, fc.airspeed)
}

func (fc *FlightConditions) AngleOfAttack() float64 { return angle(fc.attack) }

func (fc *FlightConditions) SideslipAngle() float64 { return angle(fc.sideslip) }

func (fc *FlightConditions) BankAngle() float64 { return angle(fc.bank) }

func (fc *FlightConditions) Coefficients() *CoefficientInterface { return fc.coefficients }

func (fc *FlightConditions) Systems() *VehicleSystems { return fc.systems }

func angle(f AngleFunc) float64 {
	if f == nil {
		return 0
	}
	return f()
}
