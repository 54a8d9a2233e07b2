package propagation

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/bodies"
	"github.com/san-kum/orbsim/internal/dynamo"
)

// VariableKind names a dependent variable.
type VariableKind string

const (
	MachNumber                    VariableKind = "mach_number"
	Altitude                      VariableKind = "altitude"
	Airspeed                      VariableKind = "airspeed"
	Density                       VariableKind = "density"
	AngleOfAttack                 VariableKind = "angle_of_attack"
	SideslipAngle                 VariableKind = "sideslip_angle"
	BankAngle                     VariableKind = "bank_angle"
	ControlSurfaceDeflection      VariableKind = "control_surface_deflection"
	AerodynamicForceCoefficients  VariableKind = "aerodynamic_force_coefficients"
	AerodynamicMomentCoefficients VariableKind = "aerodynamic_moment_coefficients"
	TotalAcceleration             VariableKind = "total_acceleration"
	SingleAcceleration            VariableKind = "single_acceleration"
	RelativePosition              VariableKind = "relative_position"
	RelativeVelocity              VariableKind = "relative_velocity"
	RelativeDistance              VariableKind = "relative_distance"
)

// VariableSettings selects one dependent variable. Secondary is the control
// surface, exerting body or other body depending on Kind.
type VariableSettings struct {
	Kind      VariableKind `yaml:"kind" json:"kind"`
	Body      string       `yaml:"body" json:"body"`
	Secondary string       `yaml:"secondary,omitempty" json:"secondary,omitempty"`
}

func (v VariableSettings) String() string {
	if v.Secondary != "" {
		return fmt.Sprintf("%s(%s,%s)", v.Kind, v.Body, v.Secondary)
	}
	return fmt.Sprintf("%s(%s)", v.Kind, v.Body)
}

// VariableLayout locates one saved variable in the per-step vector.
type VariableLayout struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	Size  int    `json:"size"`
}

type sampler struct {
	size   int
	sample func(dst []float64) error
}

func vec(dst []float64, v r3.Vec) {
	dst[0], dst[1], dst[2] = v.X, v.Y, v.Z
}

// samplers resolves settings eagerly so that unknown kinds and missing
// collaborators fail before the first step.
func (d *Dynamics) samplers(settings []VariableSettings) ([]sampler, []VariableLayout, error) {
	var out []sampler
	var layout []VariableLayout
	offset := 0
	for _, vs := range settings {
		s, err := d.sampler(vs)
		if err != nil {
			return nil, nil, fmt.Errorf("dependent variable %s: %w", vs, err)
		}
		out = append(out, s)
		layout = append(layout, VariableLayout{Name: vs.String(), Start: offset, Size: s.size})
		offset += s.size
	}
	return out, layout, nil
}

func (d *Dynamics) sampler(vs VariableSettings) (sampler, error) {
	body, handle, err := d.registry.Get(vs.Body)
	if err != nil {
		return sampler{}, err
	}

	flight := func(get func(dst []float64)) (sampler, error) {
		if body.FlightConditions() == nil {
			return sampler{}, dynamo.Configf("%q has no flight conditions", vs.Body)
		}
		return sampler{size: 1, sample: func(dst []float64) error { get(dst); return nil }}, nil
	}
	other := func() (bodies.Handle, error) {
		_, h, err := d.registry.Get(vs.Secondary)
		return h, err
	}

	switch vs.Kind {
	case MachNumber:
		return flight(func(dst []float64) { dst[0] = body.FlightConditions().MachNumber() })
	case Altitude:
		return flight(func(dst []float64) { dst[0] = body.FlightConditions().Altitude() })
	case Airspeed:
		return flight(func(dst []float64) { dst[0] = body.FlightConditions().Airspeed() })
	case Density:
		return flight(func(dst []float64) { dst[0] = body.FlightConditions().Density() })
	case AngleOfAttack:
		return flight(func(dst []float64) { dst[0] = body.FlightConditions().AngleOfAttack() })
	case SideslipAngle:
		return flight(func(dst []float64) { dst[0] = body.FlightConditions().SideslipAngle() })
	case BankAngle:
		return flight(func(dst []float64) { dst[0] = body.FlightConditions().BankAngle() })

	case ControlSurfaceDeflection:
		if body.Systems == nil {
			return sampler{}, dynamo.Configf("%q has no vehicle systems", vs.Body)
		}
		if vs.Secondary == "" {
			return sampler{}, dynamo.Configf("control surface name missing")
		}
		return sampler{size: 1, sample: func(dst []float64) error {
			v, err := body.Systems.ControlSurfaceDeflection(vs.Secondary)
			dst[0] = v
			return err
		}}, nil

	case AerodynamicForceCoefficients, AerodynamicMomentCoefficients:
		if body.Coefficients == nil {
			return sampler{}, dynamo.Configf("%q has no aerodynamic coefficient interface", vs.Body)
		}
		moment := vs.Kind == AerodynamicMomentCoefficients
		return sampler{size: 3, sample: func(dst []float64) error {
			get := body.Coefficients.ForceCoefficients
			if moment {
				get = body.Coefficients.MomentCoefficients
			}
			c, err := get()
			if err != nil {
				return err
			}
			vec(dst, c)
			return nil
		}}, nil

	case TotalAcceleration:
		i, ok := d.Index(vs.Body)
		if !ok {
			return sampler{}, dynamo.Configf("%q is not propagated", vs.Body)
		}
		return sampler{size: 3, sample: func(dst []float64) error {
			vec(dst, d.totals[i])
			return nil
		}}, nil

	case SingleAcceleration:
		models := d.accelerations[vs.Body][vs.Secondary]
		if len(models) == 0 {
			return sampler{}, dynamo.Configf("no acceleration on %q from %q", vs.Body, vs.Secondary)
		}
		return sampler{size: 3, sample: func(dst []float64) error {
			var sum r3.Vec
			for _, m := range models {
				sum = r3.Add(sum, m.Acceleration())
			}
			vec(dst, sum)
			return nil
		}}, nil

	case RelativePosition, RelativeVelocity, RelativeDistance:
		oh, err := other()
		if err != nil {
			return sampler{}, err
		}
		size := 3
		if vs.Kind == RelativeDistance {
			size = 1
		}
		return sampler{size: size, sample: func(dst []float64) error {
			a, b := d.registry.Body(handle), d.registry.Body(oh)
			switch vs.Kind {
			case RelativePosition:
				vec(dst, r3.Sub(a.Position(), b.Position()))
			case RelativeVelocity:
				vec(dst, r3.Sub(a.Velocity(), b.Velocity()))
			default:
				dst[0] = r3.Norm(r3.Sub(a.Position(), b.Position()))
			}
			return nil
		}}, nil
	}
	return sampler{}, dynamo.Configf("unknown dependent variable kind %q", vs.Kind)
}
