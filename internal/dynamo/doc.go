// Package dynamo provides the core primitives shared by the orbit
// propagation packages.
//
// The package defines the state vector and the integration contract:
//
//   - [State]: concatenated Cartesian states of the propagated bodies
//   - [System]: interface for translational dynamics (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical stepping primitive
//   - [AdaptiveIntegrator]: stepping primitive with error control
//
// It also owns the error kinds used across the module. Configuration
// problems wrap [ErrConfiguration] and are reported before propagation
// starts wherever they can be detected statically; degenerate physics wraps
// [ErrNumerical] and aborts the step in which it occurs.
//
// # Thread Safety
//
// Nothing in this package is shared between goroutines. A propagation runs
// strictly sequentially.
package dynamo
