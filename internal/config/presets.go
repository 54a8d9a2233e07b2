package config

import (
	"math"
	"sort"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/ephemeris"
	"github.com/san-kum/orbsim/internal/propagation"
)

const deg = math.Pi / 180

var earth = BodyConfig{
	Name:      "Earth",
	Radius:    6378137.0,
	Gravity:   &GravityConfig{Field: "earth_point_mass"},
	Ephemeris: &EphemerisConfig{Type: EphemerisConstant},
}

func boolPtr(b bool) *bool { return &b }

var Presets = map[string]map[string]*Scenario{
	"leo": {
		"two_body": DefaultScenario(),
		"j2": {
			Name: "leo_j2", Epoch: "2024-04-09T12:00:00Z", Integrator: "rk45", Dt: 60, Duration: 86400, Tolerance: 1e-10,
			GlobalOrigin: DefaultGlobalOrigin,
			Bodies: []BodyConfig{
				{Name: "Earth", Radius: 6378137.0, Gravity: &GravityConfig{Field: "earth"},
					Ephemeris: &EphemerisConfig{Type: EphemerisConstant},
					Rotation:  &RotationConfig{Rate: 7.2921150e-5}},
				{Name: "Sat", Mass: 500},
			},
			Propagated: []PropagatedConfig{{Body: "Sat", Origin: "Earth", Elements: &ephemeris.Elements{
				SemiMajorAxis: 6378137.0 + 420e3, Eccentricity: 0.0005, Inclination: 51.6 * deg,
			}}},
			Accelerations: []AccelerationConfig{
				{Affected: "Sat", Exerting: "Earth", Type: "spherical_harmonic_gravity", Degree: 4, Order: 4, Mutual: boolPtr(false)},
			},
			DependentVariables: []propagation.VariableSettings{
				{Kind: propagation.RelativeDistance, Body: "Sat", Secondary: "Earth"},
				{Kind: propagation.TotalAcceleration, Body: "Sat"},
			},
		},
	},
	"reentry": {
		"apollo": {
			Name: "apollo_reentry", Integrator: "rk4", Dt: 1, Duration: 1000,
			GlobalOrigin: DefaultGlobalOrigin,
			Bodies: []BodyConfig{
				{Name: "Earth", Radius: 6378137.0, Gravity: &GravityConfig{Field: "earth_point_mass"},
					Ephemeris:  &EphemerisConfig{Type: EphemerisConstant},
					Atmosphere: &aerodynamics.EarthExponential},
				{Name: "Moon", Gravity: &GravityConfig{Field: "moon"},
					Ephemeris: &EphemerisConfig{Type: EphemerisConstant, Position: []float64{-3.844e8, 0, 0}}},
				{Name: "Apollo", Mass: 5000, Aerodynamics: &AerodynamicsConfig{
					ReferenceArea: 4.0, ReferenceLength: 3.9,
					Constant:  [6]float64{1.2, 0, 0, 0, 0.01, 0},
					Variables: []string{"mach_number", "angle_of_attack", "angle_of_sideslip"},
					Gradients: [][6]float64{
						{0.01, 0, 0.002, 0, 0, 0},
						{0, 0, -0.35, 0, -0.08, 0},
						{0, 0.05, 0, 0.001, 0, 0.0005},
					},
					ControlSurfaces: []ControlSurfaceConfig{{
						Name:      "TestSurface",
						Variables: []string{"angle_of_attack", "control_surface_deflection"},
						Gradients: [][6]float64{
							{0.01, -0.035, 0.021, 0.004, -0.0075, 0.013},
							{0, -0.0175, 0.021, 0.006, -0.015, 0.0325},
						},
					}},
				}},
			},
			Propagated: []PropagatedConfig{{Body: "Apollo", Origin: "Earth", Elements: &ephemeris.Elements{
				SemiMajorAxis: 6378137.0 + 120e3, Eccentricity: 0.005, Inclination: 85.3 * deg,
				ArgPeriapsis: 235.7 * deg, RAAN: 23.4 * deg, TrueAnomaly: 139.87 * deg,
			}}},
			Accelerations: []AccelerationConfig{
				{Affected: "Apollo", Exerting: "Earth", Type: "central_gravity"},
				{Affected: "Apollo", Exerting: "Earth", Type: "aerodynamic"},
				{Affected: "Apollo", Exerting: "Moon", Type: "central_gravity"},
			},
			Guidance: []GuidanceConfig{{
				Body:          "Apollo",
				AngleOfAttack: &ScheduleConfig{Type: ScheduleLinear, Value: 0.3, Rate: -0.3 / 1000},
				Surfaces: map[string]ScheduleConfig{
					"TestSurface": {Type: ScheduleLinear, Value: -0.02, Rate: 0.04 / 1000},
				},
			}},
			DependentVariables: []propagation.VariableSettings{
				{Kind: propagation.MachNumber, Body: "Apollo"},
				{Kind: propagation.Altitude, Body: "Apollo"},
				{Kind: propagation.AngleOfAttack, Body: "Apollo"},
				{Kind: propagation.ControlSurfaceDeflection, Body: "Apollo", Secondary: "TestSurface"},
				{Kind: propagation.AerodynamicForceCoefficients, Body: "Apollo"},
			},
			Termination: TerminationConfig{MinAltitude: &AltitudeLimit{Body: "Apollo", Altitude: 25e3}},
		},
		"bank_hold": {
			Name: "bank_hold", Integrator: "rk4", Dt: 1, Duration: 600,
			GlobalOrigin: DefaultGlobalOrigin,
			Bodies: []BodyConfig{
				{Name: "Earth", Radius: 6378137.0, Gravity: &GravityConfig{Field: "earth_point_mass"},
					Ephemeris:  &EphemerisConfig{Type: EphemerisConstant},
					Atmosphere: &aerodynamics.EarthExponential},
				{Name: "Capsule", Mass: 5000, Aerodynamics: &AerodynamicsConfig{
					ReferenceArea: 4.0, ReferenceLength: 3.9,
					Constant: [6]float64{1.25, 0, 0.3, 0, 0, 0},
				}},
			},
			Propagated: []PropagatedConfig{{Body: "Capsule", Origin: "Earth", Elements: &ephemeris.Elements{
				SemiMajorAxis: 6378137.0 + 110e3, Eccentricity: 0.002, Inclination: 30 * deg,
			}}},
			Accelerations: []AccelerationConfig{
				{Affected: "Capsule", Exerting: "Earth", Type: "central_gravity"},
				{Affected: "Capsule", Exerting: "Earth", Type: "aerodynamic"},
			},
			Guidance: []GuidanceConfig{{
				Body: "Capsule",
				Bank: &ScheduleConfig{Type: SchedulePID, Kp: 2e-5, Ki: 1e-8, Target: 90e3, Measure: "altitude", Min: -math.Pi / 2, Max: math.Pi / 2},
			}},
			DependentVariables: []propagation.VariableSettings{
				{Kind: propagation.Altitude, Body: "Capsule"},
				{Kind: propagation.BankAngle, Body: "Capsule"},
			},
			Termination: TerminationConfig{MinAltitude: &AltitudeLimit{Body: "Capsule", Altitude: 20e3}},
		},
	},
	"lunar": {
		"low_orbit": {
			Name: "lunar_low_orbit", Integrator: "rk45", Dt: 30, Duration: 7 * 3600, Tolerance: 1e-11,
			GlobalOrigin: DefaultGlobalOrigin,
			Bodies: []BodyConfig{
				earth,
				{Name: "Moon", Radius: 1737400.0, Gravity: &GravityConfig{Field: "moon"}},
				{Name: "Orbiter", Mass: 1000},
			},
			Propagated: []PropagatedConfig{
				{Body: "Moon", Origin: "Earth", Elements: &ephemeris.Elements{
					SemiMajorAxis: 3.844e8, Eccentricity: 0.0549, Inclination: 5.145 * deg,
				}},
				{Body: "Orbiter", Origin: "Moon", Elements: &ephemeris.Elements{
					SemiMajorAxis: 1737400.0 + 100e3, Eccentricity: 0.001, Inclination: 90 * deg,
				}},
			},
			Accelerations: []AccelerationConfig{
				{Affected: "Moon", Exerting: "Earth", Type: "central_gravity"},
				{Affected: "Orbiter", Exerting: "Moon", Type: "central_gravity"},
				{Affected: "Orbiter", Exerting: "Earth", Type: "central_gravity"},
			},
			DependentVariables: []propagation.VariableSettings{
				{Kind: propagation.RelativeDistance, Body: "Orbiter", Secondary: "Moon"},
				{Kind: propagation.SingleAcceleration, Body: "Orbiter", Secondary: "Earth"},
			},
		},
	},
	"iss": {
		"chase": {
			Name: "iss_chase", Epoch: "2024-04-09T12:00:00Z", Integrator: "rk4", Dt: 10, Duration: 5400,
			GlobalOrigin: DefaultGlobalOrigin,
			Bodies: []BodyConfig{
				earth,
				{Name: "ISS", Mass: 420000, Ephemeris: &EphemerisConfig{Type: EphemerisTLE, Center: "Earth", TLE: []string{
					"1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005",
					"2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09",
				}}},
				{Name: "Chaser", Mass: 8000},
			},
			Propagated: []PropagatedConfig{
				{Body: "Chaser", Origin: "Earth", FromEphemeris: "ISS", Offset: []float64{0, 0, -2000, 0, 0, 0}},
			},
			Accelerations: []AccelerationConfig{
				{Affected: "Chaser", Exerting: "Earth", Type: "central_gravity"},
			},
			DependentVariables: []propagation.VariableSettings{
				{Kind: propagation.RelativeDistance, Body: "Chaser", Secondary: "ISS"},
				{Kind: propagation.RelativePosition, Body: "Chaser", Secondary: "ISS"},
			},
		},
	},
}

// GetPreset returns a copy of a preset, or nil when it does not exist.
func GetPreset(category, preset string) *Scenario {
	categoryPresets, ok := Presets[category]
	if !ok {
		return nil
	}
	cfg, ok := categoryPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(category string) []string {
	categoryPresets, ok := Presets[category]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(categoryPresets))
	for name := range categoryPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Categories() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
