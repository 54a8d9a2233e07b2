// Package analysis post-processes stored propagation histories.
//
//   - [Radius] and [Separation]: distance series from state histories
//   - [Describe]: summary statistics of a series
//   - [DominantPeriod]: strongest oscillation of a series, via FFT
//   - [DivergenceRate]: exponential growth rate of the separation of two
//     neighbouring trajectories
//
// # Divergence
//
// Two runs that start from slightly different states separate roughly as
// exp(lambda*t). A positive rate means the perturbation grows:
//
//	sep, err := analysis.Separation(a, b, 0)
//	lambda, err := analysis.DivergenceRate(times, sep)
package analysis
