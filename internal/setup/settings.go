// Package setup turns declarative acceleration settings into an evaluable
// acceleration graph.
package setup

import "sort"

// AccelerationType tags a kind of acceleration settings.
type AccelerationType string

const (
	CentralGravityType     AccelerationType = "central_gravity"
	SphericalHarmonicsType AccelerationType = "spherical_harmonic_gravity"
	AerodynamicType        AccelerationType = "aerodynamic"
)

// AccelerationSettings describes one acceleration exerted on a body.
type AccelerationSettings struct {
	Type          AccelerationType `yaml:"type"`
	MaximumDegree int              `yaml:"maximum_degree,omitempty"`
	MaximumOrder  int              `yaml:"maximum_order,omitempty"`
	// MutualAttraction overrides whether the affected body's own
	// gravitational parameter is folded in when the exerting body is the
	// integration origin.
	MutualAttraction *bool `yaml:"mutual_attraction,omitempty"`
}

func CentralGravity() AccelerationSettings {
	return AccelerationSettings{Type: CentralGravityType}
}

func SphericalHarmonics(degree, order int) AccelerationSettings {
	return AccelerationSettings{Type: SphericalHarmonicsType, MaximumDegree: degree, MaximumOrder: order}
}

func Aerodynamic() AccelerationSettings {
	return AccelerationSettings{Type: AerodynamicType}
}

// WithMutualAttraction returns a copy of s with the override set.
func (s AccelerationSettings) WithMutualAttraction(on bool) AccelerationSettings {
	s.MutualAttraction = &on
	return s
}

// SelectedAccelerationMap lists settings per affected and exerting body.
type SelectedAccelerationMap map[string]map[string][]AccelerationSettings

// Add appends settings for an (affected, exerting) pair.
func (m SelectedAccelerationMap) Add(affected, exerting string, s ...AccelerationSettings) {
	if m[affected] == nil {
		m[affected] = make(map[string][]AccelerationSettings)
	}
	m[affected][exerting] = append(m[affected][exerting], s...)
}

// CentralBodyMap gives the integration origin of each propagated body.
type CentralBodyMap map[string]string

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
