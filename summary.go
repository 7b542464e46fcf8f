package randcoef

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/formula"
	"github.com/statmix/randcoef/internal/options"
	"github.com/statmix/randcoef/lmm"
)

// Coefficient is a single fixed-effect estimate with its Wald statistics.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	TValue   float64
	Lower    float64
	Upper    float64
}

// Summary is a complete one-shot report of a fitted model. Each call to
// (*FittedModel).Summary builds a fresh value, so callers may mutate it
// freely.
type Summary struct {
	FixedFormula  string
	RandomFormula string
	Formula       string
	Structure     formula.RandomStructure
	Method        lmm.Method

	Coefficients       []Coefficient
	Confidence         float64
	VarianceComponents []lmm.VarComp
	ResidualVariance   float64

	ICC ICC
	R2  R2

	LogLikelihood float64
	AIC           float64
	BIC           float64

	NumObs    int
	NumGroups int
	NumParams int

	Warnings []string
}

type summaryConfig struct {
	Confidence float64
}

// SummaryOption is a functional option for Summary.
type SummaryOption = options.Option[*summaryConfig]

// WithSummaryConfidence sets the coverage of the coefficient intervals
// (default 0.95).
func WithSummaryConfidence(cl float64) SummaryOption {
	return options.New(func(cfg *summaryConfig) error {
		if !(cl > 0 && cl < 1) {
			return fmt.Errorf("%w: confidence level must be in (0,1), got %g", errs.ErrInvalidArgument, cl)
		}
		cfg.Confidence = cl

		return nil
	})
}

// Summary assembles estimates, Wald intervals, variance components, ICC,
// R² and fit statistics into one report. A degenerate R² decomposition is
// reported as NaN fields rather than failing the whole summary.
func (m *FittedModel) Summary(opts ...SummaryOption) (*Summary, error) {
	cfg := summaryConfig{Confidence: 0.95}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	beta := m.handle.FixedEffects()
	names := m.handle.FixedEffectNames()
	vcov := m.handle.FixedEffectsCovariance()
	z := distuv.UnitNormal.Quantile(0.5 + cfg.Confidence/2)

	coefs := make([]Coefficient, len(beta))
	for i, est := range beta {
		se := math.Sqrt(vcov.At(i, i))
		coefs[i] = Coefficient{
			Name:     names[i],
			Estimate: est,
			StdErr:   se,
			TValue:   ratio(est, se),
			Lower:    est - z*se,
			Upper:    est + z*se,
		}
	}

	r2, err := m.R2()
	if err != nil {
		r2 = R2{Marginal: math.NaN(), Conditional: math.NaN()}
	}

	return &Summary{
		FixedFormula:       m.FixedFormula(),
		RandomFormula:      m.RandomFormula(),
		Formula:            m.Formula(),
		Structure:          m.structure,
		Method:             m.handle.Method(),
		Coefficients:       coefs,
		Confidence:         cfg.Confidence,
		VarianceComponents: m.handle.VarianceComponents(),
		ResidualVariance:   m.handle.ResidualVariance(),
		ICC:                m.ICC(),
		R2:                 r2,
		LogLikelihood:      m.handle.LogLikelihood(),
		AIC:                m.handle.AIC(),
		BIC:                m.handle.BIC(),
		NumObs:             m.handle.NumObs(),
		NumGroups:          m.handle.NumGroups(),
		NumParams:          m.handle.NumParams(),
		Warnings:           m.handle.Warnings(),
	}, nil
}
