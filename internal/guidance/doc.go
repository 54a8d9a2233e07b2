// Package guidance provides time-scheduled and feedback laws that command a
// vehicle's aerodynamic angles and control-surface deflections.
//
// A [Law] is attached to a vehicle's flight conditions and is updated once
// per force evaluation through its Update method:
//
//	law := &guidance.Law{
//		Attack:   guidance.Linear{Initial: 0.3, Rate: -0.3 / 1000},
//		Surfaces: map[string]guidance.Schedule{"elevon": guidance.Constant(0.02)},
//	}
//	law.Attach(body.FlightConditions(), body.Systems)
//	dyn, _ := propagation.NewDynamics(reg, accs, bodies, origins, propagation.WithGuidance(law.Update))
package guidance
