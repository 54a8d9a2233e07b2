package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/ephemeris"
	"github.com/san-kum/orbsim/internal/propagation"
)

const (
	DefaultDt           = 10.0
	DefaultDuration     = 5400.0
	DefaultIntegrator   = "rk4"
	DefaultGlobalOrigin = "SSB"
)

// Scenario is a complete propagation setup as stored in YAML.
type Scenario struct {
	Name string `yaml:"name"`
	// Epoch is an RFC3339 UTC time. When empty, Start is used directly.
	Epoch string  `yaml:"epoch,omitempty"`
	Start float64 `yaml:"start,omitempty"`

	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Integrator string  `yaml:"integrator"`
	Tolerance  float64 `yaml:"tolerance,omitempty"`
	MaxSteps   int     `yaml:"max_steps,omitempty"`

	GlobalOrigin              string `yaml:"global_origin,omitempty"`
	ThirdBodyMutualAttraction bool   `yaml:"third_body_mutual_attraction,omitempty"`

	Bodies             []BodyConfig                   `yaml:"bodies"`
	Propagated         []PropagatedConfig             `yaml:"propagated"`
	Accelerations      []AccelerationConfig           `yaml:"accelerations"`
	DependentVariables []propagation.VariableSettings `yaml:"dependent_variables,omitempty"`
	Guidance           []GuidanceConfig               `yaml:"guidance,omitempty"`
	Termination        TerminationConfig              `yaml:"termination,omitempty"`
}

type BodyConfig struct {
	Name         string                    `yaml:"name"`
	Mass         float64                   `yaml:"mass,omitempty"`
	Radius       float64                   `yaml:"radius,omitempty"`
	Gravity      *GravityConfig            `yaml:"gravity,omitempty"`
	Ephemeris    *EphemerisConfig          `yaml:"ephemeris,omitempty"`
	Rotation     *RotationConfig           `yaml:"rotation,omitempty"`
	Atmosphere   *aerodynamics.Exponential `yaml:"atmosphere,omitempty"`
	Aerodynamics *AerodynamicsConfig       `yaml:"aerodynamics,omitempty"`
}

// GravityConfig is either a point mass Mu or a built-in Field.
type GravityConfig struct {
	Mu    float64 `yaml:"mu,omitempty"`
	Field string  `yaml:"field,omitempty"`
}

const (
	EphemerisConstant  = "constant"
	EphemerisKepler    = "kepler"
	EphemerisTabulated = "tabulated"
	EphemerisTLE       = "tle"
)

type EphemerisConfig struct {
	Type     string              `yaml:"type"`
	Position []float64           `yaml:"position,omitempty"`
	Velocity []float64           `yaml:"velocity,omitempty"`
	Elements *ephemeris.Elements `yaml:"elements,omitempty"`
	// Center is the body the Keplerian or TLE motion is relative to.
	Center string      `yaml:"center,omitempty"`
	Times  []float64   `yaml:"times,omitempty"`
	States [][]float64 `yaml:"states,omitempty"`
	TLE    []string    `yaml:"tle,omitempty"`
}

type RotationConfig struct {
	Rate   float64 `yaml:"rate"`
	Angle0 float64 `yaml:"angle0,omitempty"`
}

// AerodynamicsConfig describes coefficients that are affine in their
// independent variables: C = Constant + Σ Gradients[i]·var_i.
type AerodynamicsConfig struct {
	ReferenceArea   float64                `yaml:"reference_area"`
	ReferenceLength float64                `yaml:"reference_length"`
	Constant        [6]float64             `yaml:"constant"`
	Variables       []string               `yaml:"variables,omitempty"`
	Gradients       [][6]float64           `yaml:"gradients,omitempty"`
	ControlSurfaces []ControlSurfaceConfig `yaml:"control_surfaces,omitempty"`
}

type ControlSurfaceConfig struct {
	Name      string       `yaml:"name"`
	Variables []string     `yaml:"variables"`
	Gradients [][6]float64 `yaml:"gradients"`
}

// PropagatedConfig sets the integration origin and initial state of one
// propagated body. Exactly one of Cartesian, Elements or FromEphemeris (the
// name of a body whose ephemeris supplies the state) is used. Offset is
// added to the resulting state.
type PropagatedConfig struct {
	Body          string              `yaml:"body"`
	Origin        string              `yaml:"origin"`
	Cartesian     []float64           `yaml:"cartesian,omitempty"`
	Elements      *ephemeris.Elements `yaml:"elements,omitempty"`
	FromEphemeris string              `yaml:"from_ephemeris,omitempty"`
	Offset        []float64           `yaml:"offset,omitempty"`
}

type AccelerationConfig struct {
	Affected string `yaml:"affected"`
	Exerting string `yaml:"exerting"`
	Type     string `yaml:"type"`
	Degree   int    `yaml:"degree,omitempty"`
	Order    int    `yaml:"order,omitempty"`
	Mutual   *bool  `yaml:"mutual_attraction,omitempty"`
}

// GuidanceConfig schedules the attitude angles and surfaces of a vehicle.
type GuidanceConfig struct {
	Body          string                    `yaml:"body"`
	AngleOfAttack *ScheduleConfig           `yaml:"angle_of_attack,omitempty"`
	Sideslip      *ScheduleConfig           `yaml:"sideslip,omitempty"`
	Bank          *ScheduleConfig           `yaml:"bank,omitempty"`
	Surfaces      map[string]ScheduleConfig `yaml:"surfaces,omitempty"`
}

const (
	ScheduleConstant = "constant"
	ScheduleLinear   = "linear"
	ScheduleTable    = "table"
	SchedulePID      = "pid"
)

type ScheduleConfig struct {
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value,omitempty"`
	Rate  float64 `yaml:"rate,omitempty"`
	// Epoch is relative to the scenario start.
	Epoch  float64   `yaml:"epoch,omitempty"`
	Times  []float64 `yaml:"times,omitempty"`
	Values []float64 `yaml:"values,omitempty"`

	Kp      float64 `yaml:"kp,omitempty"`
	Ki      float64 `yaml:"ki,omitempty"`
	Kd      float64 `yaml:"kd,omitempty"`
	Target  float64 `yaml:"target,omitempty"`
	Measure string  `yaml:"measure,omitempty"`
	Min     float64 `yaml:"min,omitempty"`
	Max     float64 `yaml:"max,omitempty"`
}

// TerminationConfig adds conditions besides the scenario duration.
type TerminationConfig struct {
	// MinAltitude stops when Body descends below this height above the
	// radius of its integration origin.
	MinAltitude *AltitudeLimit `yaml:"min_altitude,omitempty"`
}

type AltitudeLimit struct {
	Body     string  `yaml:"body"`
	Altitude float64 `yaml:"altitude"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:         "two_body",
		Integrator:   DefaultIntegrator,
		Dt:           DefaultDt,
		Duration:     DefaultDuration,
		GlobalOrigin: DefaultGlobalOrigin,
		Bodies: []BodyConfig{
			{Name: "Earth", Radius: 6378137.0, Gravity: &GravityConfig{Field: "earth_point_mass"}, Ephemeris: &EphemerisConfig{Type: EphemerisConstant}},
			{Name: "Sat", Mass: 500},
		},
		Propagated: []PropagatedConfig{
			{Body: "Sat", Origin: "Earth", Cartesian: []float64{6878137.0, 0, 0, 0, 7612.608, 0}},
		},
		Accelerations: []AccelerationConfig{
			{Affected: "Sat", Exerting: "Earth", Type: "central_gravity"},
		},
	}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a scenario, filling unset top-level fields from the defaults.
func Parse(data []byte) (*Scenario, error) {
	cfg := &Scenario{
		Integrator:   DefaultIntegrator,
		Dt:           DefaultDt,
		Duration:     DefaultDuration,
		GlobalOrigin: DefaultGlobalOrigin,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Scenario) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StartSeconds is the start epoch in seconds past J2000.
func (s *Scenario) StartSeconds() (float64, error) {
	if s.Epoch == "" {
		return s.Start, nil
	}
	t, err := time.Parse(time.RFC3339, s.Epoch)
	if err != nil {
		return 0, dynamo.Configf("epoch %q: %v", s.Epoch, err)
	}
	return EpochToSeconds(t), nil
}

// EpochToSeconds converts a UTC time to seconds past J2000.
func EpochToSeconds(t time.Time) float64 {
	return (julian.TimeToJD(t.UTC()) - ephemeris.J2000JD) * 86400
}

// Body returns the configuration of a named body.
func (s *Scenario) Body(name string) (*BodyConfig, bool) {
	for i := range s.Bodies {
		if s.Bodies[i].Name == name {
			return &s.Bodies[i], true
		}
	}
	return nil, false
}

// Validate reports every structural problem it finds. Semantic checks that
// need the built bodies (gravity fields, cycles) happen when the scenario is
// assembled.
func (s *Scenario) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, dynamo.Configf(format, args...))
	}

	if s.Dt == 0 {
		add("dt must be non-zero")
	}
	if s.Duration == 0 || s.Duration*s.Dt < 0 {
		add("duration %g must be non-zero and have the sign of dt %g", s.Duration, s.Dt)
	}
	if s.Tolerance < 0 {
		add("tolerance must not be negative")
	}
	if _, err := s.StartSeconds(); err != nil {
		errs = append(errs, err)
	}

	names := make(map[string]bool, len(s.Bodies))
	for _, b := range s.Bodies {
		if b.Name == "" {
			add("body without a name")
			continue
		}
		if b.Name == s.GlobalOrigin {
			add("body %q shadows the global origin", b.Name)
		}
		if names[b.Name] {
			add("duplicate body %q", b.Name)
		}
		names[b.Name] = true
	}
	known := func(name string) bool { return names[name] || name == s.GlobalOrigin }

	for _, b := range s.Bodies {
		if b.Gravity != nil && (b.Gravity.Mu == 0) == (b.Gravity.Field == "") {
			add("gravity of %q needs exactly one of mu or field", b.Name)
		}
		if e := b.Ephemeris; e != nil {
			if e.Center != "" && !known(e.Center) {
				add("ephemeris of %q: unknown center %q", b.Name, e.Center)
			}
			switch e.Type {
			case EphemerisConstant:
				if !vec3(e.Position) || !vec3(e.Velocity) {
					add("constant ephemeris of %q needs 3-component position and velocity when set", b.Name)
				}
			case EphemerisKepler:
				if e.Elements == nil || e.Center == "" {
					add("kepler ephemeris of %q needs elements and a center", b.Name)
				}
			case EphemerisTabulated:
				if len(e.Times) != len(e.States) {
					add("tabulated ephemeris of %q has %d times and %d states", b.Name, len(e.Times), len(e.States))
				}
			case EphemerisTLE:
				if len(e.TLE) != 2 {
					add("tle ephemeris of %q needs two lines", b.Name)
				}
			default:
				add("ephemeris of %q: unknown type %q", b.Name, e.Type)
			}
		}
		if a := b.Aerodynamics; a != nil {
			if len(a.Gradients) != len(a.Variables) {
				add("aerodynamics of %q: %d gradients for %d variables", b.Name, len(a.Gradients), len(a.Variables))
			}
			for _, cs := range a.ControlSurfaces {
				if len(cs.Gradients) != len(cs.Variables) {
					add("control surface %q of %q: %d gradients for %d variables", cs.Name, b.Name, len(cs.Gradients), len(cs.Variables))
				}
			}
		}
	}

	if len(s.Propagated) == 0 {
		add("no propagated bodies")
	}
	for _, p := range s.Propagated {
		if !names[p.Body] {
			add("propagated body %q is not defined", p.Body)
		}
		if !known(p.Origin) {
			add("origin %q of %q is not defined", p.Origin, p.Body)
		}
		n := 0
		if p.Cartesian != nil {
			n++
			if len(p.Cartesian) != dynamo.CartesianSize {
				add("initial state of %q has %d components", p.Body, len(p.Cartesian))
			}
		}
		if p.Elements != nil {
			n++
		}
		if p.FromEphemeris != "" {
			n++
			if b, ok := s.Body(p.FromEphemeris); !ok || b.Ephemeris == nil {
				add("initial state of %q: %q has no ephemeris", p.Body, p.FromEphemeris)
			}
		}
		if n != 1 {
			add("%q needs exactly one of cartesian, elements or from_ephemeris", p.Body)
		}
		if p.Offset != nil && len(p.Offset) != dynamo.CartesianSize {
			add("offset of %q has %d components", p.Body, len(p.Offset))
		}
	}

	for _, a := range s.Accelerations {
		if !names[a.Affected] || !names[a.Exerting] {
			add("acceleration %s on %q from %q references an undefined body", a.Type, a.Affected, a.Exerting)
		}
		if a.Type == "" {
			add("acceleration on %q from %q has no type", a.Affected, a.Exerting)
		}
	}

	for _, g := range s.Guidance {
		if !names[g.Body] {
			add("guidance for undefined body %q", g.Body)
		}
	}
	if m := s.Termination.MinAltitude; m != nil && !names[m.Body] {
		add("altitude limit on undefined body %q", m.Body)
	}

	return errors.Join(errs...)
}

func vec3(v []float64) bool { return v == nil || len(v) == 3 }

// Clone returns a deep copy.
func (s *Scenario) Clone() *Scenario {
	data, err := yaml.Marshal(s)
	if err != nil {
		panic(err)
	}
	out := &Scenario{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(err)
	}
	return out
}
