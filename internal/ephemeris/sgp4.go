package ephemeris

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/soniakeys/meeus/v3/julian"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// J2000JD is the Julian date of the J2000 epoch.
const J2000JD = 2451545.0

// SGP4 follows a TLE with the SGP4/SDP4 model. States are TEME, treated as
// the inertial frame, relative to Center (nil for the global origin).
type SGP4 struct {
	sat    satellite.Satellite
	Center Ephemeris
}

// NewSGP4 parses a two-line element set. The lines are checked before
// parsing since go-satellite exits the process on malformed input.
func NewSGP4(line1, line2 string, center Ephemeris) (*SGP4, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if err := validateTLE(line1, line2); err != nil {
		return nil, dynamo.Configf("invalid TLE: %v", err)
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, dynamo.Configf("sgp4 init failed: code=%d %s", sat.Error, sat.ErrorStr)
	}
	return &SGP4{sat: sat, Center: center}, nil
}

func validateTLE(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// State evaluates SGP4 at the whole seconds around t and joins them with a
// cubic Hermite segment, since go-satellite only propagates to whole
// seconds.
func (s *SGP4) State(t float64) (dynamo.State, error) {
	whole := math.Floor(t)
	frac := t - whole
	// JD arithmetic leaves integer epochs a few tens of microseconds short.
	date := julian.JDToTime(J2000JD + whole/86400).Round(time.Millisecond).Truncate(time.Second)

	p0, v0, err := s.propagate(date, t)
	if err != nil {
		return nil, err
	}
	pos, vel := p0, v0
	if frac > 0 {
		p1, v1, err := s.propagate(date.Add(time.Second), t)
		if err != nil {
			return nil, err
		}
		pos, vel = hermite(p0, v0, p1, v1, frac)
	}

	state := dynamo.NewCartesian(pos, vel)
	if s.Center != nil {
		c, err := s.Center.State(t)
		if err != nil {
			return nil, fmt.Errorf("sgp4 center: %w", err)
		}
		state = state.Add(c)
	}
	return state, nil
}

// propagate returns position and velocity in m and m/s.
func (s *SGP4) propagate(date time.Time, t float64) (r3.Vec, r3.Vec, error) {
	pos, vel := satellite.Propagate(s.sat,
		date.Year(), int(date.Month()), date.Day(), date.Hour(), date.Minute(), date.Second())
	for _, v := range [...]float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return r3.Vec{}, r3.Vec{}, fmt.Errorf("%w: sgp4 output is NaN/Inf at t=%g", dynamo.ErrNumerical, t)
		}
	}
	return r3.Scale(1e3, r3.Vec{X: pos.X, Y: pos.Y, Z: pos.Z}),
		r3.Scale(1e3, r3.Vec{X: vel.X, Y: vel.Y, Z: vel.Z}), nil
}

// hermite interpolates a one-second segment at fraction u in [0, 1).
func hermite(p0, v0, p1, v1 r3.Vec, u float64) (r3.Vec, r3.Vec) {
	u2, u3 := u*u, u*u*u
	h00, h10 := 2*u3-3*u2+1, u3-2*u2+u
	h01, h11 := -2*u3+3*u2, u3-u2
	pos := r3.Add(r3.Add(r3.Scale(h00, p0), r3.Scale(h10, v0)), r3.Add(r3.Scale(h01, p1), r3.Scale(h11, v1)))

	d00, d10 := 6*u2-6*u, 3*u2-4*u+1
	d01, d11 := -6*u2+6*u, 3*u2-2*u
	vel := r3.Add(r3.Add(r3.Scale(d00, p0), r3.Scale(d10, v0)), r3.Add(r3.Scale(d01, p1), r3.Scale(d11, v1)))
	return pos, vel
}
