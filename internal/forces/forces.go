// Package forces defines the acceleration-model capability shared by the
// gravity and aerodynamic evaluators, and the per-body acceleration map the
// propagation loop consumes.
package forces

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind tags the closed set of acceleration model variants.
type Kind int

const (
	CentralGravity Kind = iota
	SphericalHarmonics
	ThirdBody
	Aerodynamic
)

func (k Kind) String() string {
	switch k {
	case CentralGravity:
		return "central_gravity"
	case SphericalHarmonics:
		return "spherical_harmonics"
	case ThirdBody:
		return "third_body"
	case Aerodynamic:
		return "aerodynamic"
	default:
		return "unknown"
	}
}

// PositionFunc returns the current global position of a body. Providers are
// non-owning: they read the body registry, they never hold the body.
type PositionFunc func() r3.Vec

// AccelerationModel splits recomputation from retrieval so every model of a
// step can be updated before any of them is read.
//
// Acceleration returns the value cached by the last Update; it is only
// meaningful for the time passed to that call.
type AccelerationModel interface {
	Update(t float64) error
	Acceleration() r3.Vec
	Kind() Kind
}

// AccelerationMap is keyed by affected body, then exerting body. The order
// of each model list is the order of the settings it was built from.
type AccelerationMap map[string]map[string][]AccelerationModel

// Exerting returns the exerting bodies acting on affected, in evaluation order.
func (m AccelerationMap) Exerting(affected string) []string {
	names := make([]string, 0, len(m[affected]))
	for name := range m[affected] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Affected returns the affected bodies in evaluation order.
func (m AccelerationMap) Affected() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of models acting on affected.
func (m AccelerationMap) Count(affected string) int {
	n := 0
	for _, models := range m[affected] {
		n += len(models)
	}
	return n
}

// UpdateAndGet is a convenience for tests and one-off evaluations.
func UpdateAndGet(model AccelerationModel, t float64) (r3.Vec, error) {
	if err := model.Update(t); err != nil {
		return r3.Vec{}, err
	}
	return model.Acceleration(), nil
}
