package integrators

import (
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
	minStep  float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		minStep:  1e-8,
	}
}

// Step takes a single fifth-order step of size dt and discards the
// suggested step size.
func (r *RK45) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	newX, _, _, err := r.attempt(sys, x, t, dt, 1e-6)
	return newX, err
}

// StepAdaptive retries with smaller steps until the local error estimate is
// within tol. It returns the new state, the step actually taken and the
// proposed next step.
func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	for {
		xNew, dtNew, errRatio, err := r.attempt(sys, x, t, dt, tol)
		if err != nil {
			return nil, dt, dt, err
		}
		if errRatio <= 1 {
			return xNew, dt, dtNew, nil
		}
		if math.Abs(dtNew) < r.minStep {
			return nil, dt, dtNew, dynamo.ErrStepTooSmall
		}
		dt = dtNew
	}
}

func (r *RK45) attempt(sys dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	n := len(x)
	stage := func(weights ...float64) func(ks ...dynamo.State) dynamo.State {
		return func(ks ...dynamo.State) dynamo.State {
			xs := x.Clone()
			for j, k := range ks {
				for i := 0; i < n; i++ {
					xs[i] += dt * weights[j] * k[i]
				}
			}
			return xs
		}
	}

	k1, err := sys.Derive(x, t)
	if err != nil {
		return nil, dt, 0, err
	}
	k2, err := sys.Derive(stage(b21)(k1), t+a2*dt)
	if err != nil {
		return nil, dt, 0, err
	}
	k3, err := sys.Derive(stage(b31, b32)(k1, k2), t+a3*dt)
	if err != nil {
		return nil, dt, 0, err
	}
	k4, err := sys.Derive(stage(b41, b42, b43)(k1, k2, k3), t+a4*dt)
	if err != nil {
		return nil, dt, 0, err
	}
	k5, err := sys.Derive(stage(b51, b52, b53, b54)(k1, k2, k3, k4), t+a5*dt)
	if err != nil {
		return nil, dt, 0, err
	}
	k6, err := sys.Derive(stage(b61, b62, b63, b64, b65)(k1, k2, k3, k4, k5), t+dt)
	if err != nil {
		return nil, dt, 0, err
	}

	xNew := stage(c1, 0, c3, c4, c5, c6)(k1, k2, k3, k4, k5, k6)

	k7, err := sys.Derive(xNew, t+dt)
	if err != nil {
		return nil, dt, 0, err
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(x[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	errRatio := errMax / tol

	var dtNew float64
	if errRatio > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		dtNew = dt * scale
	} else {
		if errRatio > 0 {
			scale := math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			dtNew = dt * scale
		} else {
			dtNew = dt * r.maxScale
		}
	}

	return xNew, dtNew, errRatio, nil
}
