package propagation

import (
	"errors"
	"testing"

	"github.com/san-kum/orbsim/internal/dynamo"
)

func TestCentralBodyDataUpdateOrder(t *testing.T) {
	bodies := []string{"Moon", "Satellite1", "Phobos", "Earth", "Sun", "Satellite2", "Mars", "Deimos"}
	origins := []string{"Earth", "Moon", "Mars", "Sun", "SSB", "Deimos", "Sun", "Mars"}

	c, err := NewCentralBodyData(bodies, origins, "SSB")
	if err != nil {
		t.Fatal(err)
	}
	order := c.UpdateOrder()
	if len(order) != len(bodies) {
		t.Fatalf("order has %d entries", len(order))
	}
	pos := make(map[string]int)
	for rank, i := range order {
		pos[bodies[i]] = rank
	}
	before := [][2]string{
		{"Earth", "Moon"},
		{"Moon", "Satellite1"},
		{"Mars", "Phobos"},
		{"Mars", "Deimos"},
		{"Deimos", "Satellite2"},
		{"Sun", "Earth"},
		{"Sun", "Mars"},
	}
	for _, pair := range before {
		if pos[pair[0]] >= pos[pair[1]] {
			t.Errorf("%s must be updated before %s (order %v)", pair[0], pair[1], order)
		}
	}
}

func TestCentralBodyDataErrors(t *testing.T) {
	tests := []struct {
		name    string
		bodies  []string
		origins []string
	}{
		{"cycle", []string{"A", "B"}, []string{"B", "A"}},
		{"self", []string{"A"}, []string{"A"}},
		{"length", []string{"A", "B"}, []string{"SSB"}},
		{"duplicate", []string{"A", "A"}, []string{"SSB", "SSB"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCentralBodyData(tt.bodies, tt.origins, "SSB"); !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestCentralBodyDataToGlobal(t *testing.T) {
	c, err := NewCentralBodyData([]string{"Moon", "Earth", "Probe"}, []string{"Earth", "Sun", "SSB"}, "SSB")
	if err != nil {
		t.Fatal(err)
	}
	x := dynamo.State{
		1, 0, 0, 0, 1, 0,
		10, 0, 0, 0, 10, 0,
		0, 0, 5, 0, 0, 0,
	}
	global := []dynamo.State{make(dynamo.State, 6), make(dynamo.State, 6), make(dynamo.State, 6)}
	sun := dynamo.State{100, 0, 0, 0, 0, 1}
	c.ToGlobal(x, global, func(name string) dynamo.State {
		if name != "Sun" {
			t.Fatalf("unexpected ephemeris lookup %q", name)
		}
		return sun
	})

	want := []dynamo.State{
		{111, 0, 0, 0, 11, 1},
		{110, 0, 0, 0, 10, 1},
		{0, 0, 5, 0, 0, 0},
	}
	for i := range want {
		for k := range want[i] {
			if global[i][k] != want[i][k] {
				t.Errorf("body %d: got %v, want %v", i, global[i], want[i])
				break
			}
		}
	}
}
