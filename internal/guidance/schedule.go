package guidance

import (
	"sort"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Schedule gives a commanded value as a function of time.
type Schedule interface {
	Value(t float64) float64
}

type Constant float64

func (c Constant) Value(float64) float64 { return float64(c) }

// Linear is Initial + Rate*(t - Epoch).
type Linear struct {
	Initial float64
	Rate    float64
	Epoch   float64
}

func (l Linear) Value(t float64) float64 { return l.Initial + l.Rate*(t-l.Epoch) }

// Table interpolates linearly between knots and holds the end values
// outside them.
type Table struct {
	times  []float64
	values []float64
}

func NewTable(times, values []float64) (*Table, error) {
	if len(times) != len(values) || len(times) == 0 {
		return nil, dynamo.Configf("guidance table needs matching, non-empty knots (%d times, %d values)", len(times), len(values))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, dynamo.Configf("guidance table times must increase (%g after %g)", times[i], times[i-1])
		}
	}
	return &Table{times: append([]float64(nil), times...), values: append([]float64(nil), values...)}, nil
}

func (tb *Table) Value(t float64) float64 {
	n := len(tb.times)
	if t <= tb.times[0] {
		return tb.values[0]
	}
	if t >= tb.times[n-1] {
		return tb.values[n-1]
	}
	i := sort.SearchFloat64s(tb.times, t)
	if tb.times[i] == t {
		return tb.values[i]
	}
	t0, t1 := tb.times[i-1], tb.times[i]
	w := (t - t0) / (t1 - t0)
	return tb.values[i-1] + w*(tb.values[i]-tb.values[i-1])
}
