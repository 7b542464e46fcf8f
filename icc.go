package randcoef

import (
	"math"

	"github.com/statmix/randcoef/formula"
)

// ICC describes how outcome variance splits between subjects and residual
// noise, with structure-dependent content:
//
//   - intercept: Intercept is the single ICC, constant over time.
//   - slope: no single fraction exists (total variance grows with time and
//     has no between-subject share at t=0), so Intercept is NaN and the raw
//     SlopeVariance/Residual pair is reported instead.
//   - intercept_slope: Intercept is the ICC at time zero; SlopeVariance and
//     InterceptSlopeCov allow reconstructing the fraction at any time via At.
//
// Variance components are used exactly as the engine returns them; a
// degenerate fit with zero total variance yields NaN, never a silent zero.
type ICC struct {
	Structure formula.RandomStructure

	// Intercept is σ²_b0/(σ²_b0+σ²), NaN when undefined.
	Intercept float64

	// InterceptVariance is σ²_b0 (zero for the slope structure).
	InterceptVariance float64
	// SlopeVariance is σ²_b1 (zero for the intercept structure).
	SlopeVariance float64
	// InterceptSlopeCov is cov(b0,b1) (nonzero only for intercept_slope).
	InterceptSlopeCov float64
	// Residual is σ².
	Residual float64
}

// At returns the fraction of total variance attributable to between-subject
// differences at time t:
//
//	(σ²_b0 + 2t·cov + t²σ²_b1) / (σ²_b0 + 2t·cov + t²σ²_b1 + σ²)
//
// For the intercept structure this is constant in t; for slope and
// intercept_slope structures it varies with t. A zero denominator yields
// NaN.
func (icc ICC) At(t float64) float64 {
	between := icc.InterceptVariance + 2*t*icc.InterceptSlopeCov + t*t*icc.SlopeVariance
	total := between + icc.Residual

	return ratio(between, total)
}

// ICC computes the intraclass correlation decomposition of the fitted
// model. Component lookups are structural (matrix positions of the random
// covariance), never name matching, so variable names cannot collide with
// component labels.
func (m *FittedModel) ICC() ICC {
	g := m.handle.RandomCovariance()
	icc := ICC{
		Structure: m.structure,
		Residual:  m.handle.ResidualVariance(),
	}

	switch m.structure {
	case formula.RandomIntercept:
		icc.InterceptVariance = g.At(0, 0)
	case formula.RandomSlope:
		icc.SlopeVariance = g.At(0, 0)
	case formula.RandomInterceptSlope:
		icc.InterceptVariance = g.At(0, 0)
		icc.SlopeVariance = g.At(1, 1)
		icc.InterceptSlopeCov = g.At(0, 1)
	}

	if m.structure == formula.RandomSlope {
		icc.Intercept = math.NaN()
	} else {
		icc.Intercept = ratio(icc.InterceptVariance, icc.InterceptVariance+icc.Residual)
	}

	return icc
}

// ratio divides, mapping a zero or non-finite denominator to NaN.
func ratio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return math.NaN()
	}

	return num / den
}
