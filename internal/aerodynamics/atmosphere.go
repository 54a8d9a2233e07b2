package aerodynamics

import "math"

// Atmosphere gives the local air properties at an altitude.
type Atmosphere interface {
	Density(altitude float64) float64
	SpeedOfSound(altitude float64) float64
}

// Exponential is an isothermal atmosphere, ρ = ρ0 exp(-h/H).
type Exponential struct {
	SurfaceDensity float64 `yaml:"surface_density"`
	ScaleHeight    float64 `yaml:"scale_height"`
	Sound          float64 `yaml:"speed_of_sound"`
}

func (e Exponential) Density(h float64) float64 {
	return e.SurfaceDensity * math.Exp(-h/e.ScaleHeight)
}

func (e Exponential) SpeedOfSound(float64) float64 {
	return e.Sound
}

// EarthExponential is a rough fit of the lower thermosphere.
var EarthExponential = Exponential{SurfaceDensity: 1.225, ScaleHeight: 7200, Sound: 300}
