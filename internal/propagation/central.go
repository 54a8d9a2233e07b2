package propagation

import (
	"github.com/san-kum/orbsim/internal/dynamo"
)

type originKind int

const (
	originInertial originKind = iota
	originPropagated
	originEphemeris
)

// CentralBodyData knows the integration origin of each propagated body and
// the order in which relative states must be converted to the global frame:
// a propagated origin is always converted before the bodies that use it.
type CentralBodyData struct {
	bodies  []string
	origins []string
	kinds   []originKind
	parent  []int
	order   []int
}

func NewCentralBodyData(propagated, origins []string, globalOrigin string) (*CentralBodyData, error) {
	if len(propagated) != len(origins) {
		return nil, dynamo.Configf("%d propagated bodies but %d origins", len(propagated), len(origins))
	}
	index := make(map[string]int, len(propagated))
	for i, name := range propagated {
		if _, dup := index[name]; dup {
			return nil, dynamo.Configf("body %q is propagated twice", name)
		}
		index[name] = i
	}

	c := &CentralBodyData{
		bodies:  propagated,
		origins: origins,
		kinds:   make([]originKind, len(propagated)),
		parent:  make([]int, len(propagated)),
	}
	for i, origin := range origins {
		c.parent[i] = -1
		switch j, ok := index[origin]; {
		case origin == propagated[i]:
			return nil, dynamo.Configf("%q cannot be its own integration origin", origin)
		case origin == globalOrigin:
			c.kinds[i] = originInertial
		case ok:
			c.kinds[i] = originPropagated
			c.parent[i] = j
		default:
			c.kinds[i] = originEphemeris
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	mark := make([]int, len(propagated))
	var visit func(i int) error
	visit = func(i int) error {
		switch mark[i] {
		case done:
			return nil
		case visiting:
			return dynamo.Configf("integration origins form a cycle through %q", propagated[i])
		}
		mark[i] = visiting
		if p := c.parent[i]; p >= 0 {
			if err := visit(p); err != nil {
				return err
			}
		}
		mark[i] = done
		c.order = append(c.order, i)
		return nil
	}
	for i := range propagated {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// UpdateOrder lists indices into the propagated bodies, origins first.
func (c *CentralBodyData) UpdateOrder() []int { return c.order }

func (c *CentralBodyData) Origin(i int) string { return c.origins[i] }

// ToGlobal converts the relative state x into per-body global states.
// ephemerisState supplies the global state of origins that are not
// propagated.
func (c *CentralBodyData) ToGlobal(x dynamo.State, global []dynamo.State, ephemerisState func(name string) dynamo.State) {
	for _, i := range c.order {
		rel := x[i*dynamo.CartesianSize : (i+1)*dynamo.CartesianSize]
		g := global[i]
		copy(g, rel)
		var offset dynamo.State
		switch c.kinds[i] {
		case originPropagated:
			offset = global[c.parent[i]]
		case originEphemeris:
			offset = ephemerisState(c.origins[i])
		}
		for k := range offset {
			g[k] += offset[k]
		}
	}
}
