package randcoef

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/statmix/randcoef/dataset"
	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/internal/options"
)

// Level selects whose effects enter a prediction.
type Level uint8

const (
	// LevelSubject includes the BLUPs of subjects known to the model;
	// unknown subjects degrade to the population prediction. This is the
	// default, matching the engine's own prediction convention.
	LevelSubject Level = iota + 1
	// LevelPopulation uses the fixed effects only, for known and unknown
	// subjects alike.
	LevelPopulation
)

func (l Level) String() string {
	switch l {
	case LevelSubject:
		return "subject"
	case LevelPopulation:
		return "population"
	default:
		return "unknown"
	}
}

// Interval selects the kind of bounds attached to population predictions.
type Interval uint8

const (
	// IntervalNone attaches no bounds.
	IntervalNone Interval = iota
	// IntervalConfidence bounds the mean estimate: fit ± z·se.
	IntervalConfidence
	// IntervalPrediction bounds an individual observation, additionally
	// accounting for residual variance: fit ± z·√(se²+σ²).
	IntervalPrediction
)

func (iv Interval) String() string {
	switch iv {
	case IntervalNone:
		return "none"
	case IntervalConfidence:
		return "confidence"
	case IntervalPrediction:
		return "prediction"
	default:
		return "unknown"
	}
}

type predictConfig struct {
	Level      Level
	SE         bool
	Interval   Interval
	Confidence float64
}

// PredictOption is a functional option for Predict.
type PredictOption = options.Option[*predictConfig]

// WithLevel selects subject- or population-level predictions.
func WithLevel(l Level) PredictOption {
	return options.New(func(cfg *predictConfig) error {
		if l != LevelSubject && l != LevelPopulation {
			return fmt.Errorf("%w: unknown prediction level %d", errs.ErrInvalidArgument, l)
		}
		cfg.Level = l

		return nil
	})
}

// WithSE requests per-row standard errors (population level only; at
// subject level the request degrades to point predictions with a warning).
func WithSE() PredictOption {
	return options.NoError(func(cfg *predictConfig) {
		cfg.SE = true
	})
}

// WithInterval requests confidence or prediction bounds.
func WithInterval(iv Interval) PredictOption {
	return options.New(func(cfg *predictConfig) error {
		switch iv {
		case IntervalNone, IntervalConfidence, IntervalPrediction:
			cfg.Interval = iv
			return nil
		default:
			return fmt.Errorf("%w: unknown interval kind %d", errs.ErrInvalidArgument, iv)
		}
	})
}

// WithConfidenceLevel sets the two-sided coverage of the bounds
// (default 0.95). The level must lie strictly between 0 and 1.
func WithConfidenceLevel(cl float64) PredictOption {
	return options.New(func(cfg *predictConfig) error {
		if !(cl > 0 && cl < 1) {
			return fmt.Errorf("%w: confidence level must be in (0,1), got %g", errs.ErrInvalidArgument, cl)
		}
		cfg.Confidence = cl

		return nil
	})
}

// Prediction holds per-row predictions with optional standard errors and
// bounds. SE, Lower and Upper are nil when not requested or not available
// at the chosen level.
type Prediction struct {
	Fit   []float64
	SE    []float64
	Lower []float64
	Upper []float64

	Level      Level
	Interval   Interval
	Confidence float64

	// Warnings reports degraded requests, such as standard errors asked
	// for at subject level.
	Warnings []string
}

// Predict evaluates the model over newData, or over the fitted dataset when
// newData is nil.
//
// newData must always contain the time column, and additionally the
// grouping column at subject level; all fixed-effect predictor columns are
// required at either level. Intervals are only defined at population level.
func (m *FittedModel) Predict(newData *dataset.Table, opts ...PredictOption) (*Prediction, error) {
	cfg := predictConfig{Level: LevelSubject, Confidence: 0.95}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.Interval != IntervalNone && cfg.Level != LevelPopulation {
		return nil, fmt.Errorf("%w: %s intervals require population-level predictions",
			errs.ErrInvalidArgument, cfg.Interval)
	}

	data := newData
	if data == nil {
		data = m.data
	}

	var missing []string
	if !data.HasColumn(m.timeVar) {
		missing = append(missing, m.timeVar)
	}
	if cfg.Level == LevelSubject && !data.HasColumn(m.grouping) {
		missing = append(missing, m.grouping)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: prediction data is missing column(s): %s",
			errs.ErrInvalidArgument, strings.Join(missing, ", "))
	}

	x, err := m.fixed.DesignMatrix(data)
	if err != nil {
		return nil, err
	}

	pred := &Prediction{
		Level:      cfg.Level,
		Interval:   cfg.Interval,
		Confidence: cfg.Confidence,
	}

	if cfg.Level == LevelSubject {
		z, _, err := randomDesign(data, m.structure, m.timeVar)
		if err != nil {
			return nil, err
		}
		labels, err := data.Labels(m.grouping)
		if err != nil {
			return nil, err
		}

		pred.Fit, err = m.handle.Predict(x, z, labels, true)
		if err != nil {
			return nil, err
		}
		if cfg.SE {
			pred.Warnings = append(pred.Warnings,
				"standard errors are not available for subject-level predictions; returning point predictions")
		}

		return pred, nil
	}

	pred.Fit, err = m.handle.Predict(x, nil, nil, false)
	if err != nil {
		return nil, err
	}

	if !cfg.SE && cfg.Interval == IntervalNone {
		return pred, nil
	}

	pred.SE = populationSE(x, m.handle.FixedEffectsCovariance())

	if cfg.Interval != IntervalNone {
		z := distuv.UnitNormal.Quantile(0.5 + cfg.Confidence/2)
		sigma2 := m.handle.ResidualVariance()

		pred.Lower = make([]float64, len(pred.Fit))
		pred.Upper = make([]float64, len(pred.Fit))
		for i, fit := range pred.Fit {
			spread := pred.SE[i]
			if cfg.Interval == IntervalPrediction {
				spread = math.Sqrt(spread*spread + sigma2)
			}
			pred.Lower[i] = fit - z*spread
			pred.Upper[i] = fit + z*spread
		}
	}

	return pred, nil
}

// populationSE computes per-row delta-method standard errors √(xᵀVx) from
// the fixed-effects covariance, ignoring uncertainty in the variance
// components.
func populationSE(x *mat.Dense, vcov *mat.SymDense) []float64 {
	n, p := x.Dims()
	se := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				s += x.At(i, a) * vcov.At(a, b) * x.At(i, b)
			}
		}
		se[i] = math.Sqrt(s)
	}

	return se
}
