package randcoef

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/statmix/randcoef/dataset"
	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/formula"
	"github.com/statmix/randcoef/internal/options"
	"github.com/statmix/randcoef/lmm"
)

// fitConfig holds configuration for a Fit call.
type fitConfig struct {
	Method lmm.Method
	Engine lmm.Engine
}

// FitOption is a functional option for Fit.
type FitOption = options.Option[*fitConfig]

// WithMethod selects the estimation method (REML by default). Use lmm.ML
// when comparing models with different fixed effects.
func WithMethod(m lmm.Method) FitOption {
	return options.New(func(cfg *fitConfig) error {
		if m != lmm.REML && m != lmm.ML {
			return fmt.Errorf("%w: unknown estimation method %d", errs.ErrInvalidArgument, m)
		}
		cfg.Method = m

		return nil
	})
}

// WithEngine substitutes the fitting engine. Anything satisfying lmm.Engine
// works; the default is the built-in REML/ML engine.
func WithEngine(e lmm.Engine) FitOption {
	return options.New(func(cfg *fitConfig) error {
		if e == nil {
			return fmt.Errorf("%w: engine must not be nil", errs.ErrInvalidArgument)
		}
		cfg.Engine = e

		return nil
	})
}

// FittedModel is the result of fitting a random coefficient regression.
//
// A FittedModel is created exactly once by Fit and never mutated afterwards;
// every downstream operation (Summary, ICC, R2, Predict, Compare, Snapshot)
// only reads from it, so concurrent use is safe.
type FittedModel struct {
	fixed     *formula.Fixed
	random    string
	combined  string
	grouping  string
	timeVar   string
	structure formula.RandomStructure
	handle    lmm.Handle
	data      *dataset.Table
}

// Fit builds the combined mixed-model formula from the fixed-effects
// formula, the id/time column names and the random structure, validates the
// inputs, and fits the model through the engine.
//
// Example:
//
//	m, err := randcoef.Fit("score ~ week", data, "id", "week", formula.RandomInterceptSlope)
//
// All validation happens before the engine is invoked, so argument errors
// are cheap and side-effect free. Engine convergence warnings are surfaced
// unmodified through (*FittedModel).Warnings.
func Fit(fixed string, data *dataset.Table, id, timeVar string, structure formula.RandomStructure, opts ...FitOption) (*FittedModel, error) {
	cfg := fitConfig{Method: lmm.REML}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if data == nil {
		return nil, fmt.Errorf("%w: data must not be nil", errs.ErrInvalidArgument)
	}
	if !structure.Valid() {
		return nil, fmt.Errorf("%w: unrecognized random structure %d", errs.ErrInvalidArgument, structure)
	}
	if !data.HasColumn(id) {
		return nil, fmt.Errorf("%w: grouping column %q not found in data", errs.ErrInvalidArgument, id)
	}
	if !data.HasColumn(timeVar) {
		return nil, fmt.Errorf("%w: time column %q not found in data", errs.ErrInvalidArgument, timeVar)
	}
	if !data.IsNumeric(timeVar) {
		return nil, fmt.Errorf("%w: time column %q must be numeric", errs.ErrInvalidArgument, timeVar)
	}

	f, err := formula.ParseFixed(fixed)
	if err != nil {
		return nil, err
	}

	randomTerm, err := formula.RandomTerm(structure, id, timeVar)
	if err != nil {
		return nil, err
	}

	y, err := f.ResponseVector(data)
	if err != nil {
		return nil, err
	}
	x, err := f.DesignMatrix(data)
	if err != nil {
		return nil, err
	}
	z, znames, err := randomDesign(data, structure, timeVar)
	if err != nil {
		return nil, err
	}

	index, err := data.GroupBy(id)
	if err != nil {
		return nil, err
	}
	groups := make([]lmm.GroupRows, index.NumGroups())
	for i, g := range index.Groups {
		groups[i] = lmm.GroupRows{Label: g.Label, Rows: g.Rows}
	}

	engine := cfg.Engine
	if engine == nil {
		engine = lmm.MustEngine()
	}

	handle, err := engine.Fit(lmm.Spec{
		Y:         y,
		X:         x,
		XNames:    f.DesignNames(),
		Z:         z,
		ZNames:    znames,
		GroupName: id,
		Groups:    groups,
		Method:    cfg.Method,
	})
	if err != nil {
		return nil, err
	}

	return &FittedModel{
		fixed:     f,
		random:    randomTerm,
		combined:  formula.Combine(f.String(), randomTerm),
		grouping:  id,
		timeVar:   timeVar,
		structure: structure,
		handle:    handle,
		data:      data,
	}, nil
}

// randomDesign builds the per-row random-effects design for a structure:
// a ones column for the intercept and/or the time column for the slope.
func randomDesign(data *dataset.Table, structure formula.RandomStructure, timeVar string) (*mat.Dense, []string, error) {
	times, err := data.Floats(timeVar)
	if err != nil {
		return nil, nil, err
	}
	n := data.NumRows()

	switch structure {
	case formula.RandomIntercept:
		z := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			z.Set(i, 0, 1)
		}

		return z, []string{formula.InterceptName}, nil
	case formula.RandomSlope:
		z := mat.NewDense(n, 1, nil)
		z.SetCol(0, times)

		return z, []string{timeVar}, nil
	case formula.RandomInterceptSlope:
		z := mat.NewDense(n, 2, nil)
		for i := 0; i < n; i++ {
			z.Set(i, 0, 1)
		}
		z.SetCol(1, times)

		return z, []string{formula.InterceptName, timeVar}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unrecognized random structure %d", errs.ErrInvalidArgument, structure)
	}
}

// FixedFormula returns the fixed-effects formula as supplied by the caller.
func (m *FittedModel) FixedFormula() string { return m.fixed.String() }

// RandomFormula returns the derived random-effects term.
func (m *FittedModel) RandomFormula() string { return m.random }

// Formula returns the combined mixed-model formula handed to the engine.
func (m *FittedModel) Formula() string { return m.combined }

// Grouping returns the subject/cluster identifier column name.
func (m *FittedModel) Grouping() string { return m.grouping }

// TimeVariable returns the time column name.
func (m *FittedModel) TimeVariable() string { return m.timeVar }

// Structure returns the random structure of the model.
func (m *FittedModel) Structure() formula.RandomStructure { return m.structure }

// Data returns the dataset the model was fitted on.
func (m *FittedModel) Data() *dataset.Table { return m.data }

// Handle returns the underlying engine handle for direct access to the
// fitted-model primitives.
func (m *FittedModel) Handle() lmm.Handle { return m.handle }

// Warnings returns the engine's fitting diagnostics, empty for a clean fit.
func (m *FittedModel) Warnings() []string { return m.handle.Warnings() }
