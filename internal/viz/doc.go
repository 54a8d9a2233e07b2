// Package viz renders a running propagation in the terminal.
//
// [ProgressModel] is a Bubble Tea model fed by a [Feed], which is attached to
// the propagator as an observer. It shows progress towards the end epoch,
// the distance of the first propagated body from its origin and a top-down
// braille plot of the trajectory drawn on a [Canvas].
//
// [TrajectorySVG] draws stored histories for export.
//
// # Key Bindings
//
//	Q, Ctrl+C - Stop the propagation (the partial run is kept)
//	T         - Cycle color themes
package viz
