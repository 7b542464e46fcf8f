package randcoef

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/formula"
)

// LabeledModel pairs a fitted model with a display label for comparison
// tables. An empty label is replaced with a positional default.
type LabeledModel struct {
	Label string
	Model *FittedModel
}

// ComparisonRow is one model's fit statistics in a comparison table.
type ComparisonRow struct {
	Label     string
	Structure formula.RandomStructure
	AIC       float64
	BIC       float64
	LogLik    float64
	NumParams int
	NumObs    int
}

// ComparisonTable ranks candidate models by AIC, best first. Ties keep
// input order.
type ComparisonTable struct {
	Rows []ComparisonRow
}

// Best returns the label of the lowest-AIC model.
func (t *ComparisonTable) Best() string {
	return t.Rows[0].Label
}

// Compare builds a comparison table over two or more fitted models. Models
// fitted with REML but differing in fixed effects are not statistically
// comparable; the caller is responsible for refitting with ML in that case.
func Compare(models ...LabeledModel) (*ComparisonTable, error) {
	if len(models) < 2 {
		return nil, fmt.Errorf("%w: comparison requires at least two models, got %d",
			errs.ErrInvalidArgument, len(models))
	}

	rows := make([]ComparisonRow, len(models))
	for i, lm := range models {
		if lm.Model == nil {
			return nil, fmt.Errorf("%w: model %d is nil", errs.ErrInvalidArgument, i)
		}
		label := lm.Label
		if label == "" {
			label = "model" + strconv.Itoa(i+1)
		}
		h := lm.Model.Handle()
		rows[i] = ComparisonRow{
			Label:     label,
			Structure: lm.Model.Structure(),
			AIC:       h.AIC(),
			BIC:       h.BIC(),
			LogLik:    h.LogLikelihood(),
			NumParams: h.NumParams(),
			NumObs:    h.NumObs(),
		}
	}

	slices.SortStableFunc(rows, func(a, b ComparisonRow) int {
		switch {
		case a.AIC < b.AIC:
			return -1
		case a.AIC > b.AIC:
			return 1
		default:
			return 0
		}
	})

	return &ComparisonTable{Rows: rows}, nil
}
