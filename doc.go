// Package randcoef fits random coefficient regression models to
// longitudinal data: repeated measurements per subject with a fixed-effects
// trend and subject-level random intercepts and/or slopes.
//
// The caller supplies a plain fixed-effects formula, the subject and time
// column names, and one of three random structures; the package derives the
// combined mixed-model formula, builds the design matrices and fits the
// model by REML or ML through the lmm engine:
//
//	data := dataset.New()
//	data.AddLabels("id", ids)
//	data.AddFloats("week", weeks)
//	data.AddFloats("score", scores)
//
//	m, err := randcoef.Fit("score ~ week", data, "id", "week", formula.RandomInterceptSlope)
//	if err != nil {
//		...
//	}
//	sum, _ := m.Summary()
//
// A fitted model answers the common longitudinal questions directly:
//
//   - Summary: coefficient table with Wald intervals, variance components,
//     fit statistics.
//   - ICC: intraclass correlation, including its time dependence for models
//     with random slopes.
//   - R2: Nakagawa-Schielzeth marginal and conditional R².
//   - Predict: subject-level (BLUP) or population-level predictions, with
//     confidence or prediction intervals at population level.
//   - Compare: AIC-ranked comparison across candidate random structures.
//   - Snapshot: compact binary serialization of the fitted state.
//
// Fitted models are immutable and safe for concurrent use.
package randcoef
