package gravity

import (
	"sort"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Gravitational parameters and reference radii used by the built-in fields.
const (
	EarthMu     = 3.986004418e14
	EarthRadius = 6378137.0
	MoonMu      = 4.9028e12
	MoonRadius  = 1737400.0
	SunMu       = 1.32712440018e20
	MarsMu      = 4.282837e13
	JupiterMu   = 1.26686534e17
)

// Earth's fully normalised coefficients up to degree and order 5.
var (
	earthCosine = [][]float64{
		{1.0},
		{0.0, 0.0},
		{-4.841651437908150e-4, -2.066155090741760e-10, 2.439383573283130e-6},
		{9.571612070934730e-7, 2.030462010478640e-6, 9.047878948095281e-7, 7.213217571215680e-7},
		{5.399658666389910e-7, -5.361573893888670e-7, 3.505016239626490e-7, 9.908567666723210e-7, -1.885196330230330e-7},
		{6.867029137366810e-8, -6.292119230425290e-8, 6.520780431761640e-7, -4.518471523288430e-7, -2.953287611756290e-7, 1.748117954960020e-7},
	}
	earthSine = [][]float64{
		{0.0},
		{0.0, 0.0},
		{0.0, 1.384413891379790e-9, -1.400273703859340e-6},
		{0.0, 2.482004158568720e-7, -6.190054751776180e-7, 1.414349261929410e-6},
		{0.0, -4.735673465180860e-7, 6.624800262758290e-7, -2.009567235674520e-7, 3.088038821491940e-7},
		{0.0, -9.436980733957690e-8, -3.233531925405220e-7, -2.149554083060460e-7, 4.980705501023510e-8, -6.693799351801650e-7},
	}
)

var catalogue = map[string]func() Field{
	"earth": func() Field {
		return &SphericalHarmonicsField{Mu: EarthMu, ReferenceRadius: EarthRadius, Cosine: copyTable(earthCosine), Sine: copyTable(earthSine)}
	},
	"earth_point_mass": func() Field { return PointMassField{Mu: EarthMu} },
	"moon":             func() Field { return PointMassField{Mu: MoonMu} },
	"sun":              func() Field { return PointMassField{Mu: SunMu} },
	"mars":             func() Field { return PointMassField{Mu: MarsMu} },
	"jupiter":          func() Field { return PointMassField{Mu: JupiterMu} },
}

// Builtin returns a fresh copy of a named field.
func Builtin(name string) (Field, error) {
	f, ok := catalogue[name]
	if !ok {
		return nil, dynamo.Configf("unknown built-in gravity field %q (have %v)", name, BuiltinNames())
	}
	return f(), nil
}

func BuiltinNames() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyTable(t [][]float64) [][]float64 {
	out := make([][]float64, len(t))
	for i, row := range t {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
