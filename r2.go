package randcoef

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/statmix/randcoef/errs"
)

// R2 is the Nakagawa-Schielzeth variance-explained pair.
type R2 struct {
	// Marginal is the fraction of total variance explained by the fixed
	// effects alone.
	Marginal float64
	// Conditional is the fraction explained by fixed plus random effects.
	Conditional float64
}

// R2 computes marginal and conditional R² from the fitted model:
//
//	varFixed    = Var(fixed-effects-only predictions over the fitted data)
//	varRandom   = sum of random-effect variances (covariances excluded)
//	varResidual = σ²
//	marginal    = varFixed / (varFixed + varRandom + varResidual)
//	conditional = (varFixed + varRandom) / (varFixed + varRandom + varResidual)
//
// A zero total variance makes the decomposition undefined and returns
// errs.ErrDegenerateResult instead of a spurious ratio.
func (m *FittedModel) R2() (R2, error) {
	x, err := m.fixed.DesignMatrix(m.data)
	if err != nil {
		return R2{}, err
	}

	fit, err := m.handle.Predict(x, nil, nil, false)
	if err != nil {
		return R2{}, err
	}

	varFixed := 0.0
	if len(fit) > 1 {
		varFixed = stat.Variance(fit, nil)
	}

	varRandom := 0.0
	g := m.handle.RandomCovariance()
	for k := range m.handle.RandomEffectNames() {
		varRandom += g.At(k, k)
	}

	varResidual := m.handle.ResidualVariance()
	varTotal := varFixed + varRandom + varResidual
	if varTotal == 0 {
		return R2{}, fmt.Errorf("%w: total variance is zero, R² is undefined", errs.ErrDegenerateResult)
	}

	return R2{
		Marginal:    varFixed / varTotal,
		Conditional: (varFixed + varRandom) / varTotal,
	}, nil
}
