// Package ephemeris provides the state providers of bodies whose motion is
// prescribed rather than propagated.
package ephemeris

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// ErrOutOfRange is returned when an ephemeris is queried outside its validity.
var ErrOutOfRange = errors.New("ephemeris: epoch outside validity range")

// Ephemeris returns the Cartesian state of a body relative to the global
// origin at t (seconds past J2000).
type Ephemeris interface {
	State(t float64) (dynamo.State, error)
}

// Constant is a body at rest, or moving uniformly from Epoch.
type Constant struct {
	Position r3.Vec
	Velocity r3.Vec
	Epoch    float64
}

func (c Constant) State(t float64) (dynamo.State, error) {
	return dynamo.NewCartesian(r3.Add(c.Position, r3.Scale(t-c.Epoch, c.Velocity)), c.Velocity), nil
}

// Tabulated interpolates linearly between sampled states.
type Tabulated struct {
	times  []float64
	states []dynamo.State
}

// NewTabulated sorts the samples by epoch. At least two distinct epochs
// are required.
func NewTabulated(times []float64, states []dynamo.State) (*Tabulated, error) {
	if len(times) != len(states) {
		return nil, dynamo.Configf("tabulated ephemeris: %d epochs for %d states", len(times), len(states))
	}
	if len(times) < 2 {
		return nil, dynamo.Configf("tabulated ephemeris needs at least two samples")
	}
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return times[idx[a]] < times[idx[b]] })

	tab := &Tabulated{times: make([]float64, len(times)), states: make([]dynamo.State, len(times))}
	for i, j := range idx {
		if len(states[j]) != dynamo.CartesianSize {
			return nil, dynamo.Configf("tabulated ephemeris: state %d has %d components", j, len(states[j]))
		}
		tab.times[i] = times[j]
		tab.states[i] = states[j].Clone()
		if i > 0 && tab.times[i] == tab.times[i-1] {
			return nil, dynamo.Configf("tabulated ephemeris: duplicate epoch %g", times[j])
		}
	}
	return tab, nil
}

func (e *Tabulated) State(t float64) (dynamo.State, error) {
	first, last := e.times[0], e.times[len(e.times)-1]
	if t < first || t > last {
		return nil, fmt.Errorf("%w: %g not in [%g, %g]", ErrOutOfRange, t, first, last)
	}
	i := sort.SearchFloat64s(e.times, t)
	if e.times[i] == t {
		return e.states[i].Clone(), nil
	}
	t0, t1 := e.times[i-1], e.times[i]
	w := (t - t0) / (t1 - t0)
	return e.states[i-1].Scale(1 - w).AddScaled(w, e.states[i]), nil
}
