package sweep

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/experiment"
)

// Axis is one swept parameter and its values.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=v1,v2,...".
func ParseAxis(spec string) (Axis, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok || name == "" || list == "" {
		return Axis{}, dynamo.Configf("parameter %q: expected name=v1,v2,...", spec)
	}
	a := Axis{Name: strings.TrimSpace(name)}
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Axis{}, dynamo.Configf("parameter %q: %v", spec, err)
		}
		a.Values = append(a.Values, v)
	}
	return a, nil
}

// Grid is the cartesian product of its axes.
type Grid struct {
	Axes []Axis
}

// Points enumerates the grid with the last axis varying fastest.
func (g Grid) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for _, axis := range g.Axes {
		next := make([]map[string]float64, 0, len(points)*len(axis.Values))
		for _, p := range points {
			for _, v := range axis.Values {
				q := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					q[k] = pv
				}
				q[axis.Name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Search propagates every grid point of base and returns the outcome that
// minimizes metric, along with all outcomes in grid order. Failed runs are
// skipped; it is an error when none succeeds.
func (g Grid) Search(ctx context.Context, base *config.Scenario, metric string, workers int, opts ...experiment.Option) (Outcome, []Outcome, error) {
	points := g.Points()
	cfgs := make([]*config.Scenario, len(points))
	for i, p := range points {
		cfg := base.Clone()
		for _, axis := range g.Axes {
			if err := Apply(cfg, axis.Name, p[axis.Name]); err != nil {
				return Outcome{}, nil, err
			}
		}
		cfgs[i] = cfg
	}

	outcomes := Run(ctx, cfgs, workers, opts...)
	bestIdx, best := -1, math.Inf(1)
	for i := range outcomes {
		outcomes[i].Params = points[i]
		if v, ok := outcomes[i].Metric(metric); ok && v < best {
			bestIdx, best = i, v
		}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, outcomes, err
	}
	if bestIdx < 0 {
		return Outcome{}, outcomes, fmt.Errorf("no grid point produced metric %q", metric)
	}
	return outcomes[bestIdx], outcomes, nil
}
