package gravity

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/forces"
)

// ThirdBody expresses a perturber's pull relative to a non-inertial
// integration origin: direct(affected) - direct(origin).
type ThirdBody struct {
	direct  DirectModel
	central DirectModel
	acc     r3.Vec
}

// NewThirdBody combines two direct models sharing the same exerting body,
// one targeting the affected body and one targeting the integration origin.
func NewThirdBody(direct, central DirectModel) *ThirdBody {
	return &ThirdBody{direct: direct, central: central}
}

func (tb *ThirdBody) Update(t float64) error {
	if err := tb.direct.Update(t); err != nil {
		return err
	}
	if err := tb.central.Update(t); err != nil {
		return err
	}
	tb.acc = r3.Sub(tb.direct.Acceleration(), tb.central.Acceleration())
	return nil
}

func (tb *ThirdBody) Acceleration() r3.Vec { return tb.acc }

func (tb *ThirdBody) Kind() forces.Kind { return forces.ThirdBody }

// Direct is the model acting on the affected body.
func (tb *ThirdBody) Direct() DirectModel { return tb.direct }

// Central is the model acting on the integration origin.
func (tb *ThirdBody) Central() DirectModel { return tb.central }
