package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// SpecificEnergy is the two-body energy per unit mass of a state block
// relative to a central body of parameter mu.
func SpecificEnergy(x dynamo.State, body int, mu float64) float64 {
	r := r3.Norm(x.Position(body))
	v := r3.Norm(x.Velocity(body))
	return 0.5*v*v - mu/r
}

// Energy averages the specific energy of one body over the run.
type Energy struct {
	name        string
	body        int
	mu          float64
	samples     int
	totalEnergy float64
}

func NewEnergy(body int, mu float64) *Energy {
	return &Energy{
		name: "energy",
		body: body,
		mu:   mu,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(_ float64, x dynamo.State) {
	if len(x) < (e.body+1)*dynamo.CartesianSize {
		return
	}
	e.totalEnergy += SpecificEnergy(x, e.body, e.mu)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change of the two-body energy from
// its first observed value. It is only meaningful for unperturbed or weakly
// perturbed motion about the integration origin.
type EnergyDrift struct {
	name          string
	body          int
	mu            float64
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(body int, mu float64) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		body: body,
		mu:   mu,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ float64, x dynamo.State) {
	if len(x) < (e.body+1)*dynamo.CartesianSize {
		return
	}
	energy := SpecificEnergy(x, e.body, e.mu)

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
