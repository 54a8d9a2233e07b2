package propagation

import "github.com/san-kum/orbsim/internal/dynamo"

// Termination decides when the loop stops. forward is the direction of
// propagation.
type Termination interface {
	Reached(t float64, x dynamo.State, forward bool) bool
}

// TimeTermination stops once End is reached or passed.
type TimeTermination struct {
	End float64
}

func (tt TimeTermination) Reached(t float64, _ dynamo.State, forward bool) bool {
	if forward {
		return t >= tt.End
	}
	return t <= tt.End
}

// FuncTermination adapts a predicate.
type FuncTermination func(t float64, x dynamo.State) bool

func (f FuncTermination) Reached(t float64, x dynamo.State, _ bool) bool { return f(t, x) }

// AnyOf stops when any of its conditions holds.
type AnyOf []Termination

func (a AnyOf) Reached(t float64, x dynamo.State, forward bool) bool {
	for _, c := range a {
		if c.Reached(t, x, forward) {
			return true
		}
	}
	return false
}

// endTime finds a time limit among the conditions.
func endTime(term Termination) (float64, bool) {
	switch tt := term.(type) {
	case TimeTermination:
		return tt.End, true
	case *TimeTermination:
		return tt.End, true
	case AnyOf:
		for _, c := range tt {
			if end, ok := endTime(c); ok {
				return end, true
			}
		}
	}
	return 0, false
}
