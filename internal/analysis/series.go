package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/orbsim/internal/dynamo"
)

var ErrTooShort = errors.New("series too short")

// Radius returns the distance of body from its origin at every epoch.
func Radius(states []dynamo.State, body int) ([]float64, error) {
	out := make([]float64, len(states))
	for i, x := range states {
		if len(x) < (body+1)*dynamo.CartesianSize {
			return nil, fmt.Errorf("state %d holds no body %d", i, body)
		}
		out[i] = r3.Norm(x.Position(body))
	}
	return out, nil
}

// Separation returns the distance between the positions of body in two
// histories, over their common length.
func Separation(a, b []dynamo.State, body int) ([]float64, error) {
	n := min(len(a), len(b))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if len(a[i]) < (body+1)*dynamo.CartesianSize || len(b[i]) < (body+1)*dynamo.CartesianSize {
			return nil, fmt.Errorf("state %d holds no body %d", i, body)
		}
		out[i] = r3.Norm(r3.Sub(a[i].Position(body), b[i].Position(body)))
	}
	return out, nil
}

// Stats summarizes a series.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Describe ignores NaN values. An empty series gives NaN fields.
func Describe(values []float64) Stats {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	s := Stats{N: len(finite)}
	if s.N == 0 {
		s.Mean, s.StdDev, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	if s.N == 1 {
		s.StdDev = 0
	}
	s.Min, s.Max = floats.Min(finite), floats.Max(finite)
	return s
}

// DominantPeriod returns the period of the strongest non-constant Fourier
// component of values sampled at times. Irregular samples are resampled
// linearly onto a uniform grid first.
func DominantPeriod(times, values []float64) (float64, error) {
	if len(times) != len(values) {
		return 0, fmt.Errorf("%d times for %d values", len(times), len(values))
	}
	if len(values) < 4 {
		return 0, ErrTooShort
	}
	span := times[len(times)-1] - times[0]
	if !(span > 0) {
		return 0, fmt.Errorf("times must increase, span is %g", span)
	}

	n := len(values)
	dt := span / float64(n-1)
	seq := resample(times, values, n, dt)
	mean := stat.Mean(seq, nil)
	floats.AddConst(-mean, seq)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, seq)
	best, power := 0, 0.0
	for k := 1; k < len(coeffs); k++ {
		re, im := real(coeffs[k]), imag(coeffs[k])
		if p := re*re + im*im; p > power {
			best, power = k, p
		}
	}
	if best == 0 || power < 1e-300 {
		return 0, errors.New("series has no oscillating component")
	}
	return dt / fft.Freq(best), nil
}

func resample(times, values []float64, n int, dt float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := times[0] + float64(i)*dt
		j := sort.SearchFloat64s(times, t)
		switch {
		case j == 0:
			out[i] = values[0]
		case j >= len(times):
			out[i] = values[len(values)-1]
		default:
			t0, t1 := times[j-1], times[j]
			w := (t - t0) / (t1 - t0)
			out[i] = values[j-1] + w*(values[j]-values[j-1])
		}
	}
	return out
}

// DivergenceRate fits log(separation) against time and returns the slope,
// in 1/s. Epochs where the two trajectories coincide are skipped.
func DivergenceRate(times, separation []float64) (float64, error) {
	if len(times) != len(separation) {
		return 0, fmt.Errorf("%d times for %d separations", len(times), len(separation))
	}
	var xs, ys []float64
	for i, d := range separation {
		if d > 0 && !math.IsInf(d, 0) {
			xs = append(xs, times[i])
			ys = append(ys, math.Log(d))
		}
	}
	if len(xs) < 2 {
		return 0, ErrTooShort
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta, nil
}
