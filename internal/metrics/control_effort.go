package metrics

import (
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// ControlEffort averages the magnitude of a commanded quantity, such as a
// control-surface deflection, over the saved epochs.
type ControlEffort struct {
	name    string
	read    func() float64
	sum     float64
	samples int
}

func NewControlEffort(name string, read func() float64) *ControlEffort {
	return &ControlEffort{
		name: name,
		read: read,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(_ float64, _ dynamo.State) {
	c.sum += math.Abs(c.read())
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
