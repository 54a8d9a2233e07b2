package aerodynamics

import (
	"sort"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// VehicleSystems stores the commanded state of a vehicle's hardware.
type VehicleSystems struct {
	deflections map[string]float64
}

func NewVehicleSystems() *VehicleSystems {
	return &VehicleSystems{deflections: make(map[string]float64)}
}

func (v *VehicleSystems) SetControlSurfaceDeflection(name string, value float64) {
	v.deflections[name] = value
}

// ControlSurfaceDeflection returns the last deflection set for a surface.
func (v *VehicleSystems) ControlSurfaceDeflection(name string) (float64, error) {
	d, ok := v.deflections[name]
	if !ok {
		return 0, dynamo.Configf("control surface %q has no deflection set", name)
	}
	return d, nil
}

// ControlSurfaces lists the surfaces with a deflection, sorted.
func (v *VehicleSystems) ControlSurfaces() []string {
	names := make([]string, 0, len(v.deflections))
	for name := range v.deflections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
