// Package lmm provides the linear mixed-model fitting engine behind the
// random coefficient regression API.
//
// The package exposes two layers:
//
//   - The Engine and Handle interfaces: the contract every fitting backend
//     must satisfy. A Handle is an opaque, immutable view of one fitted
//     model — fixed effects and their covariance, the random-effect
//     covariance, per-group BLUPs, residual variance, log-likelihood and
//     information criteria, and a prediction operation.
//   - A default Engine implementation that estimates the model by
//     restricted maximum likelihood (REML, default) or maximum likelihood
//     (ML), minimizing the profiled deviance over the relative covariance
//     factor with Nelder-Mead.
//
// # Model
//
// For subject i with design rows X_i (fixed) and Z_i (random):
//
//	y_i = X_i β + Z_i b_i + ε_i,   b_i ~ N(0, σ²ΛΛᵀ),   ε_i ~ N(0, σ²I)
//
// Λ is the lower-triangular relative covariance factor; its entries θ are
// the only parameters the optimizer searches over. For fixed θ the fixed
// effects β and the scale σ² have closed-form profiled estimates, so the
// search space stays at one parameter for a single random term and three
// for a correlated intercept-and-slope pair.
//
// # Usage
//
//	engine := lmm.NewEngine()
//	handle, err := engine.Fit(spec)
//	if err != nil {
//	    // engine failure: non-convergence or a numerical error
//	}
//	beta := handle.FixedEffects()
//	icc0 := handle.RandomCovariance().At(0, 0)
//
// Handles are immutable after Fit returns and safe for concurrent reads.
// Convergence problems that still yield usable estimates (iteration limit,
// boundary fits with a variance at zero) are reported through
// Handle.Warnings rather than errors, so callers see them unmodified.
package lmm
