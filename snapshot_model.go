package randcoef

import (
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/statmix/randcoef/snapshot"
)

// Snapshot captures the fitted model's state for serialization through the
// snapshot package. The training data is not included.
func (m *FittedModel) Snapshot() *snapshot.Snapshot {
	h := m.handle

	blups := h.RandomEffects()
	groups := make([]snapshot.GroupEffects, 0, len(blups))
	for label, effects := range blups {
		groups = append(groups, snapshot.GroupEffects{Label: label, Effects: effects})
	}
	slices.SortFunc(groups, func(a, b snapshot.GroupEffects) int {
		return strings.Compare(a.Label, b.Label)
	})

	return &snapshot.Snapshot{
		FixedFormula:     m.FixedFormula(),
		RandomFormula:    m.RandomFormula(),
		Formula:          m.Formula(),
		Grouping:         m.grouping,
		TimeVariable:     m.timeVar,
		Structure:        uint8(m.structure),
		Method:           uint8(h.Method()),
		FixedNames:       h.FixedEffectNames(),
		FixedEffects:     h.FixedEffects(),
		FixedCovariance:  symRowMajor(h.FixedEffectsCovariance()),
		RandomNames:      h.RandomEffectNames(),
		RandomCovariance: symRowMajor(h.RandomCovariance()),
		ResidualVariance: h.ResidualVariance(),
		LogLikelihood:    h.LogLikelihood(),
		AIC:              h.AIC(),
		BIC:              h.BIC(),
		NumObs:           h.NumObs(),
		NumGroups:        h.NumGroups(),
		NumParams:        h.NumParams(),
		Groups:           groups,
	}
}

// symRowMajor flattens a symmetric matrix to a row-major slice.
func symRowMajor(s *mat.SymDense) []float64 {
	n, _ := s.Dims()
	out := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, s.At(i, j))
		}
	}

	return out
}
