// Package aerodynamics holds the vehicle side of atmospheric flight:
// coefficient interfaces with control-surface increments, flight
// conditions, vehicle systems and the aerodynamic acceleration.
package aerodynamics

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// IndependentVariable names an input of a coefficient function.
type IndependentVariable int

const (
	MachNumber IndependentVariable = iota
	AngleOfAttack
	AngleOfSideslip
	Altitude
	ControlSurfaceDeflection
)

var variableNames = map[IndependentVariable]string{
	MachNumber:               "mach_number",
	AngleOfAttack:            "angle_of_attack",
	AngleOfSideslip:          "angle_of_sideslip",
	Altitude:                 "altitude",
	ControlSurfaceDeflection: "control_surface_deflection",
}

func (v IndependentVariable) String() string {
	if name, ok := variableNames[v]; ok {
		return name
	}
	return fmt.Sprintf("IndependentVariable(%d)", int(v))
}

// ParseIndependentVariable is the inverse of String.
func ParseIndependentVariable(s string) (IndependentVariable, error) {
	for v, name := range variableNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return v, nil
		}
	}
	return 0, dynamo.Configf("unknown aerodynamic independent variable %q", s)
}

// CoefficientFunc maps independent variable values to force (0..2) and
// moment (3..5) coefficients.
type CoefficientFunc func(vars []float64) [6]float64

// ControlSurfaceIncrement is the coefficient contribution of one control
// surface.
type ControlSurfaceIncrement struct {
	fn        CoefficientFunc
	variables []IndependentVariable
	current   [6]float64
}

func NewControlSurfaceIncrement(fn CoefficientFunc, variables ...IndependentVariable) *ControlSurfaceIncrement {
	return &ControlSurfaceIncrement{fn: fn, variables: variables}
}

// Update evaluates the increment. vars must match Variables() in length.
func (c *ControlSurfaceIncrement) Update(vars []float64) error {
	if len(vars) != len(c.variables) {
		return dynamo.Configf("control surface increment expects %d variables, got %d", len(c.variables), len(vars))
	}
	c.current = c.fn(vars)
	return nil
}

func (c *ControlSurfaceIncrement) Increment() [6]float64 { return c.current }

func (c *ControlSurfaceIncrement) Variables() []IndependentVariable { return c.variables }

// CoefficientInterface evaluates the aerodynamic coefficients of a vehicle
// as base(vars) plus the increment of every control surface.
type CoefficientInterface struct {
	ReferenceArea   float64
	ReferenceLength float64

	base      CoefficientFunc
	variables []IndependentVariable
	surfaces  map[string]*ControlSurfaceIncrement

	current   [6]float64
	evaluated bool
}

func NewCoefficientInterface(base CoefficientFunc, referenceArea, referenceLength float64, variables ...IndependentVariable) *CoefficientInterface {
	return &CoefficientInterface{
		ReferenceArea:   referenceArea,
		ReferenceLength: referenceLength,
		base:            base,
		variables:       variables,
		surfaces:        make(map[string]*ControlSurfaceIncrement),
	}
}

// SetControlSurface registers or replaces the increment of a named surface.
func (ci *CoefficientInterface) SetControlSurface(name string, inc *ControlSurfaceIncrement) {
	ci.surfaces[name] = inc
}

func (ci *CoefficientInterface) Variables() []IndependentVariable { return ci.variables }

// ControlSurfaces returns the registered surface names in lexical order.
func (ci *CoefficientInterface) ControlSurfaces() []string {
	names := make([]string, 0, len(ci.surfaces))
	for name := range ci.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ControlSurfaceVariables returns the inputs of a registered surface.
func (ci *CoefficientInterface) ControlSurfaceVariables(name string) ([]IndependentVariable, error) {
	inc, ok := ci.surfaces[name]
	if !ok {
		return nil, dynamo.Configf("unknown control surface %q", name)
	}
	return inc.Variables(), nil
}

// UpdateCurrentCoefficients evaluates the base function only.
func (ci *CoefficientInterface) UpdateCurrentCoefficients(base []float64) error {
	if len(base) != len(ci.variables) {
		return dynamo.Configf("coefficient interface expects %d variables, got %d", len(ci.variables), len(base))
	}
	ci.current = ci.base(base)
	ci.evaluated = true
	return nil
}

// UpdateFullCurrentCoefficients evaluates the base function and adds the
// increment of every registered surface present in surfaces. Registered
// surfaces without an entry contribute nothing.
func (ci *CoefficientInterface) UpdateFullCurrentCoefficients(base []float64, surfaces map[string][]float64) error {
	for name := range surfaces {
		if _, ok := ci.surfaces[name]; !ok {
			return dynamo.Configf("unknown control surface %q", name)
		}
	}
	if len(base) != len(ci.variables) {
		return dynamo.Configf("coefficient interface expects %d variables, got %d", len(ci.variables), len(base))
	}
	total := ci.base(base)
	for _, name := range ci.ControlSurfaces() {
		vars, ok := surfaces[name]
		if !ok {
			continue
		}
		inc := ci.surfaces[name]
		if err := inc.Update(vars); err != nil {
			return fmt.Errorf("surface %q: %w", name, err)
		}
		d := inc.Increment()
		for i := range total {
			total[i] += d[i]
		}
	}
	ci.current = total
	ci.evaluated = true
	return nil
}

// ForceCoefficients returns the coefficients of the last update.
func (ci *CoefficientInterface) ForceCoefficients() (r3.Vec, error) {
	if !ci.evaluated {
		return r3.Vec{}, dynamo.ErrNotEvaluated
	}
	return r3.Vec{X: ci.current[0], Y: ci.current[1], Z: ci.current[2]}, nil
}

// MomentCoefficients returns the coefficients of the last update.
func (ci *CoefficientInterface) MomentCoefficients() (r3.Vec, error) {
	if !ci.evaluated {
		return r3.Vec{}, dynamo.ErrNotEvaluated
	}
	return r3.Vec{X: ci.current[3], Y: ci.current[4], Z: ci.current[5]}, nil
}

// ConstantCoefficients ignores its inputs.
func ConstantCoefficients(c [6]float64) CoefficientFunc {
	return func([]float64) [6]float64 { return c }
}

// LinearIncrement returns Σ vars[i]*gradients[i]. Missing gradients are
// treated as zero.
func LinearIncrement(gradients ...[6]float64) CoefficientFunc {
	return func(vars []float64) [6]float64 {
		var out [6]float64
		for i, v := range vars {
			if i >= len(gradients) {
				break
			}
			for k := range out {
				out[k] += v * gradients[i][k]
			}
		}
		return out
	}
}
