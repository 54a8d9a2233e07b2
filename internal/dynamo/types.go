package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// CartesianSize is the number of components of one body's translational state.
const CartesianSize = 6

// State holds the concatenated [x y z vx vy vz] blocks of the propagated bodies.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	return floats.Norm(s, 2)
}

func (s State) Add(other State) State {
	result := s.Clone()
	n := min(len(s), len(other))
	floats.Add(result[:n], other[:n])
	return result
}

func (s State) AddScaled(factor float64, other State) State {
	result := s.Clone()
	n := min(len(s), len(other))
	floats.AddScaled(result[:n], factor, other[:n])
	return result
}

func (s State) Scale(factor float64) State {
	result := s.Clone()
	floats.Scale(factor, result)
	return result
}

func (s State) Sub(other State) State {
	result := s.Clone()
	n := min(len(s), len(other))
	floats.Sub(result[:n], other[:n])
	return result
}

// Position returns the position of the i-th body block.
func (s State) Position(i int) r3.Vec {
	o := i * CartesianSize
	return r3.Vec{X: s[o], Y: s[o+1], Z: s[o+2]}
}

// Velocity returns the velocity of the i-th body block.
func (s State) Velocity(i int) r3.Vec {
	o := i*CartesianSize + 3
	return r3.Vec{X: s[o], Y: s[o+1], Z: s[o+2]}
}

// SetBlock writes position and velocity into the i-th body block.
func (s State) SetBlock(i int, pos, vel r3.Vec) {
	o := i * CartesianSize
	s[o], s[o+1], s[o+2] = pos.X, pos.Y, pos.Z
	s[o+3], s[o+4], s[o+5] = vel.X, vel.Y, vel.Z
}

// NewCartesian builds a single-body state from position and velocity.
func NewCartesian(pos, vel r3.Vec) State {
	s := make(State, CartesianSize)
	s.SetBlock(0, pos, vel)
	return s
}

// System is a set of first-order equations of motion.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// Integrator is the replaceable stepping primitive of the propagation loop.
type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// AdaptiveIntegrator controls its local error. StepAdaptive returns the new
// state, the step size actually taken and a proposal for the next step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, float64, error)
}
