package guidance

import (
	"sort"
	"time"

	"github.com/san-kum/orbsim/internal/aerodynamics"
	"github.com/san-kum/orbsim/internal/dynamo"
)

// Law commands the attitude angles and control surfaces of one vehicle.
// Nil schedules leave the corresponding angle at zero.
type Law struct {
	Attack   Schedule
	Sideslip Schedule
	Bank     Schedule
	Surfaces map[string]Schedule

	systems                *aerodynamics.VehicleSystems
	attack, sideslip, bank float64
}

// Attach makes the flight conditions read this law's angles and the
// vehicle systems receive its deflections.
func (l *Law) Attach(fc *aerodynamics.FlightConditions, systems *aerodynamics.VehicleSystems) {
	fc.SetAngleFunctions(
		func() float64 { return l.attack },
		func() float64 { return l.sideslip },
		func() float64 { return l.bank },
	)
	l.systems = systems
}

// Update evaluates every schedule at t.
func (l *Law) Update(t float64) error {
	l.attack = value(l.Attack, t)
	l.sideslip = value(l.Sideslip, t)
	l.bank = value(l.Bank, t)
	if len(l.Surfaces) == 0 {
		return nil
	}
	if l.systems == nil {
		return dynamo.Configf("guidance commands control surfaces but is not attached to vehicle systems")
	}
	names := make([]string, 0, len(l.Surfaces))
	for name := range l.Surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l.systems.SetControlSurfaceDeflection(name, l.Surfaces[name].Value(t))
	}
	return nil
}

// stateful schedules carry controller state between accepted epochs.
type stateful interface {
	Commit(t float64)
	Reset()
}

func (l *Law) schedules() []Schedule {
	all := []Schedule{l.Attack, l.Sideslip, l.Bank}
	names := make([]string, 0, len(l.Surfaces))
	for name := range l.Surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		all = append(all, l.Surfaces[name])
	}
	return all
}

// OnStep commits the accepted epoch to feedback schedules. The dynamics
// have been evaluated at the accepted state when observers run, so the
// measurements are current.
func (l *Law) OnStep(_ int, t float64, _ dynamo.State, _ time.Duration) {
	for _, s := range l.schedules() {
		if st, ok := s.(stateful); ok {
			st.Commit(t)
		}
	}
}

// Reset clears the state of feedback schedules before a new run.
func (l *Law) Reset() {
	for _, s := range l.schedules() {
		if st, ok := s.(stateful); ok {
			st.Reset()
		}
	}
}

func value(s Schedule, t float64) float64 {
	if s == nil {
		return 0
	}
	return s.Value(t)
}

// Compose runs several guidance functions in order.
func Compose(fns ...func(t float64) error) func(t float64) error {
	return func(t float64) error {
		for _, fn := range fns {
			if err := fn(t); err != nil {
				return err
			}
		}
		return nil
	}
}
