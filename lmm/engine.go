package lmm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/statmix/randcoef/errs"
)

// Method selects the estimation criterion.
type Method uint8

const (
	// REML estimates variance components by restricted maximum likelihood,
	// correcting for the degrees of freedom spent on fixed effects.
	REML Method = iota + 1
	// ML estimates by unrestricted maximum likelihood. Use ML when
	// comparing models that differ in their fixed effects.
	ML
)

func (m Method) String() string {
	switch m {
	case REML:
		return "REML"
	case ML:
		return "ML"
	default:
		return "unknown"
	}
}

// GroupRows identifies one group: its label and the indices of its rows in
// the design matrices.
type GroupRows struct {
	Label string
	Rows  []int
}

// Spec is a fully prepared fitting problem: numeric design matrices plus
// the group partition. The adapter layer builds it from a formula and a
// table; the engine never parses formula syntax.
type Spec struct {
	// Y is the response vector, length n.
	Y []float64
	// X is the n×p fixed-effects design matrix.
	X *mat.Dense
	// XNames are the p fixed-effect column names.
	XNames []string
	// Z is the n×q random-effects design matrix (q = 1 or 2 for the
	// supported structures; the engine accepts any q ≥ 1).
	Z *mat.Dense
	// ZNames are the q random-effect term names.
	ZNames []string
	// GroupName is the name of the grouping factor, used to label variance
	// components. Defaults to "group" when empty.
	GroupName string
	// Groups partitions the n rows by grouping level, in first-appearance
	// order. Every row must belong to exactly one group.
	Groups []GroupRows
	// Method selects REML (zero value defaults to REML) or ML.
	Method Method
}

func (s *Spec) validate() error {
	n := len(s.Y)
	if n == 0 {
		return fmt.Errorf("%w: empty response vector", errs.ErrInvalidArgument)
	}
	if s.X == nil || s.Z == nil {
		return fmt.Errorf("%w: missing design matrix", errs.ErrInvalidArgument)
	}

	xr, p := s.X.Dims()
	zr, q := s.Z.Dims()
	if xr != n || zr != n {
		return fmt.Errorf("%w: design matrices have %d and %d rows, response has %d",
			errs.ErrInvalidArgument, xr, zr, n)
	}
	if p == 0 || q == 0 {
		return fmt.Errorf("%w: design matrices must have at least one column", errs.ErrInvalidArgument)
	}
	if len(s.XNames) != p {
		return fmt.Errorf("%w: %d fixed-effect names for %d columns", errs.ErrInvalidArgument, len(s.XNames), p)
	}
	if len(s.ZNames) != q {
		return fmt.Errorf("%w: %d random-effect names for %d columns", errs.ErrInvalidArgument, len(s.ZNames), q)
	}
	if n <= p {
		return fmt.Errorf("%w: %d observations cannot identify %d fixed effects", errs.ErrInvalidArgument, n, p)
	}
	if len(s.Groups) == 0 {
		return fmt.Errorf("%w: no groups", errs.ErrInvalidArgument)
	}

	seen := make([]bool, n)
	total := 0
	for _, g := range s.Groups {
		if len(g.Rows) == 0 {
			return fmt.Errorf("%w: group %q has no rows", errs.ErrInvalidArgument, g.Label)
		}
		for _, r := range g.Rows {
			if r < 0 || r >= n {
				return fmt.Errorf("%w: group %q references row %d outside [0,%d)", errs.ErrInvalidArgument, g.Label, r, n)
			}
			if seen[r] {
				return fmt.Errorf("%w: row %d assigned to more than one group", errs.ErrInvalidArgument, r)
			}
			seen[r] = true
		}
		total += len(g.Rows)
	}
	if total != n {
		return fmt.Errorf("%w: groups cover %d of %d rows", errs.ErrInvalidArgument, total, n)
	}

	switch s.Method {
	case 0, REML, ML:
	default:
		return fmt.Errorf("%w: unknown estimation method %d", errs.ErrInvalidArgument, s.Method)
	}

	return nil
}

func (s *Spec) method() Method {
	if s.Method == 0 {
		return REML
	}

	return s.Method
}

// ResidualGrouping is the grouping label of the residual variance row in
// VarianceComponents output.
const ResidualGrouping = "Residual"

// VarComp is one variance or covariance component. Term2 is empty for a
// variance row and names the second term for a covariance row. Exactly one
// row per fit has Grouping == ResidualGrouping and carries σ².
type VarComp struct {
	Grouping string
	Term1    string
	Term2    string
	Value    float64
}

// Engine fits prepared specs into opaque handles.
type Engine interface {
	Fit(spec Spec) (Handle, error)
}

// Handle is an immutable view of one fitted mixed model.
type Handle interface {
	// FixedEffects returns the estimated fixed-effect coefficients, in
	// Spec.XNames order.
	FixedEffects() []float64
	// FixedEffectNames returns the coefficient names.
	FixedEffectNames() []string
	// FixedEffectsCovariance returns the p×p covariance matrix of the
	// fixed-effect estimates.
	FixedEffectsCovariance() *mat.SymDense
	// RandomCovariance returns the q×q covariance matrix of the random
	// effects, indexed in Spec.ZNames order. Consumers locate components
	// by index, never by name matching.
	RandomCovariance() *mat.SymDense
	// RandomEffectNames returns the random-effect term names.
	RandomEffectNames() []string
	// RandomEffects returns the BLUPs per group label, each of length q.
	RandomEffects() map[string][]float64
	// VarianceComponents returns the variance/covariance rows plus the
	// residual row.
	VarianceComponents() []VarComp
	// ResidualVariance returns σ².
	ResidualVariance() float64
	// LogLikelihood returns the maximized criterion as a log-likelihood
	// (restricted log-likelihood under REML).
	LogLikelihood() float64
	// AIC returns the Akaike information criterion of the fitted criterion.
	AIC() float64
	// BIC returns the Bayesian information criterion.
	BIC() float64
	// NumObs returns the number of observations.
	NumObs() int
	// NumGroups returns the number of grouping levels.
	NumGroups() int
	// NumParams returns the number of estimated parameters: fixed effects
	// plus variance parameters including σ².
	NumParams() int
	// Method returns the estimation method used.
	Method() Method
	// Warnings returns engine diagnostics (convergence, boundary fits),
	// empty for a clean fit.
	Warnings() []string
	// Predict evaluates the model over new design rows. x must have p
	// columns. With includeRandom, z (same row count, q columns) and the
	// per-row group labels are required; unknown labels get zero random
	// effects.
	Predict(x mat.Matrix, z mat.Matrix, groups []string, includeRandom bool) ([]float64, error)
}
