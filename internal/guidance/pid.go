package guidance

import "math"

// PID drives a measured quantity towards Target.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

// Command returns the command for measurement y at time t without
// changing the controller state, so integrator stages and rejected trial
// steps leave no trace. The integral and derivative run from the last
// committed sample.
func (p *PID) Command(y, t float64) float64 {
	err := p.Target - y
	if p.first {
		return p.Kp * err
	}
	dt := t - p.prevT
	if dt <= 0 {
		return p.Kp*err + p.Ki*p.integral
	}
	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt
	return p.Kp*err + p.Ki*integral + p.Kd*derivative
}

// Commit advances the controller to an accepted sample. Samples not after
// the last one are ignored.
func (p *PID) Commit(y, t float64) {
	err := p.Target - y
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return
	}
	dt := t - p.prevT
	if dt <= 0 {
		return
	}
	p.integral += err * dt
	p.prevErr = err
	p.prevT = t
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

// Feedback turns a PID loop on a measurement into a Schedule. The output is
// clamped to [Min, Max] when Max > Min.
type Feedback struct {
	PID     *PID
	Measure func() float64
	Min     float64
	Max     float64
}

func (f Feedback) Value(t float64) float64 {
	u := f.PID.Command(f.Measure(), t)
	if f.Max > f.Min {
		u = math.Max(f.Min, math.Min(f.Max, u))
	}
	return u
}

// Commit feeds the measurement at an accepted epoch to the controller.
func (f Feedback) Commit(t float64) { f.PID.Commit(f.Measure(), t) }

func (f Feedback) Reset() { f.PID.Reset() }
