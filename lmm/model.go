package lmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/statmix/randcoef/errs"
)

// model is the Handle produced by the default engine. All fields are set in
// newModel and never mutated afterwards.
type model struct {
	method  Method
	xnames  []string
	znames  []string
	beta    []float64
	vcov    *mat.SymDense
	randCov *mat.SymDense
	blups   map[string][]float64
	varcomp []VarComp
	sigma2  float64
	loglik  float64
	aic     float64
	bic     float64
	nobs    int
	ngroups int
	nparams int
	warns   []string
}

var _ Handle = (*model)(nil)

func newModel(spec *Spec, pr *problem, st *devState, nTheta int, warnings []string) (*model, error) {
	p, q := pr.p, pr.q

	beta := make([]float64, p)
	for j := 0; j < p; j++ {
		beta[j] = st.beta.AtVec(j)
	}

	// vcov(β̂) = σ̂² (Σ X_iᵀ V_i⁻¹ X_i)⁻¹
	var aInv mat.SymDense
	if err := st.cholA.InverseTo(&aInv); err != nil {
		return nil, fmt.Errorf("%w: fixed-effects covariance is not invertible: %w", errs.ErrEngineFailure, err)
	}
	vcov := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			vcov.SetSym(i, j, st.sigma2*aInv.At(i, j))
		}
	}

	randCov := mat.NewSymDense(q, nil)
	for i := 0; i < q; i++ {
		for j := i; j < q; j++ {
			randCov.SetSym(i, j, st.sigma2*st.g.At(i, j))
		}
	}

	// BLUPs: b̂_i = ΛΛᵀ Z_iᵀ V_i⁻¹ (y_i − X_i β̂)
	blups := make(map[string][]float64, len(pr.groups))
	for gi := range pr.groups {
		grp := &pr.groups[gi]
		ni, _ := grp.x.Dims()

		resid := mat.NewVecDense(ni, nil)
		var xb mat.VecDense
		xb.MulVec(grp.x, st.beta)
		resid.SubVec(grp.y, &xb)

		vr := mat.NewVecDense(ni, nil)
		if err := st.cholV[gi].SolveVecTo(vr, resid); err != nil {
			return nil, fmt.Errorf("%w: BLUP back-solve failed for group %q: %w", errs.ErrEngineFailure, grp.label, err)
		}

		var ztvr, b mat.VecDense
		ztvr.MulVec(grp.z.T(), vr)
		b.MulVec(st.g, &ztvr)

		bi := make([]float64, q)
		for k := 0; k < q; k++ {
			bi[k] = b.AtVec(k)
		}
		blups[grp.label] = bi
	}

	grouping := spec.GroupName
	if grouping == "" {
		grouping = "group"
	}
	varcomp := make([]VarComp, 0, q*(q+1)/2+1)
	for k := 0; k < q; k++ {
		varcomp = append(varcomp, VarComp{Grouping: grouping, Term1: spec.ZNames[k], Value: randCov.At(k, k)})
	}
	for i := 0; i < q; i++ {
		for j := i + 1; j < q; j++ {
			varcomp = append(varcomp, VarComp{
				Grouping: grouping,
				Term1:    spec.ZNames[i],
				Term2:    spec.ZNames[j],
				Value:    randCov.At(i, j),
			})
		}
	}
	varcomp = append(varcomp, VarComp{Grouping: ResidualGrouping, Value: st.sigma2})

	k := p + nTheta + 1
	m := &model{
		method:  pr.method,
		xnames:  append([]string(nil), spec.XNames...),
		znames:  append([]string(nil), spec.ZNames...),
		beta:    beta,
		vcov:    vcov,
		randCov: randCov,
		blups:   blups,
		varcomp: varcomp,
		sigma2:  st.sigma2,
		loglik:  -st.dev / 2,
		aic:     st.dev + 2*float64(k),
		bic:     st.dev + float64(k)*math.Log(float64(pr.n)),
		nobs:    pr.n,
		ngroups: len(pr.groups),
		nparams: k,
		warns:   warnings,
	}

	return m, nil
}

func (m *model) FixedEffects() []float64 {
	return append([]float64(nil), m.beta...)
}

func (m *model) FixedEffectNames() []string {
	return append([]string(nil), m.xnames...)
}

func (m *model) FixedEffectsCovariance() *mat.SymDense {
	out := mat.NewSymDense(len(m.beta), nil)
	out.CopySym(m.vcov)

	return out
}

func (m *model) RandomCovariance() *mat.SymDense {
	out := mat.NewSymDense(len(m.znames), nil)
	out.CopySym(m.randCov)

	return out
}

func (m *model) RandomEffectNames() []string {
	return append([]string(nil), m.znames...)
}

func (m *model) RandomEffects() map[string][]float64 {
	out := make(map[string][]float64, len(m.blups))
	for label, b := range m.blups {
		out[label] = append([]float64(nil), b...)
	}

	return out
}

func (m *model) VarianceComponents() []VarComp {
	return append([]VarComp(nil), m.varcomp...)
}

func (m *model) ResidualVariance() float64 { return m.sigma2 }
func (m *model) LogLikelihood() float64    { return m.loglik }
func (m *model) AIC() float64              { return m.aic }
func (m *model) BIC() float64              { return m.bic }
func (m *model) NumObs() int               { return m.nobs }
func (m *model) NumGroups() int            { return m.ngroups }
func (m *model) NumParams() int            { return m.nparams }
func (m *model) Method() Method            { return m.method }

func (m *model) Warnings() []string {
	return append([]string(nil), m.warns...)
}

// Predict evaluates fitted values over new design rows. Rows whose group
// label is unknown to the fit receive zero random effects, which makes the
// subject-level prediction coincide with the population-level one.
func (m *model) Predict(x mat.Matrix, z mat.Matrix, groups []string, includeRandom bool) ([]float64, error) {
	n, px := x.Dims()
	p := len(m.beta)
	q := len(m.znames)
	if px != p {
		return nil, fmt.Errorf("%w: design matrix has %d columns, model has %d fixed effects", errs.ErrInvalidArgument, px, p)
	}

	if includeRandom {
		if z == nil || groups == nil {
			return nil, fmt.Errorf("%w: random-effect design and group labels are required for subject-level prediction", errs.ErrInvalidArgument)
		}
		zn, zq := z.Dims()
		if zn != n || zq != q {
			return nil, fmt.Errorf("%w: random-effect design is %dx%d, want %dx%d", errs.ErrInvalidArgument, zn, zq, n, q)
		}
		if len(groups) != n {
			return nil, fmt.Errorf("%w: %d group labels for %d rows", errs.ErrInvalidArgument, len(groups), n)
		}
	}

	fit := make([]float64, n)
	for i := 0; i < n; i++ {
		v := 0.0
		for j := 0; j < p; j++ {
			v += x.At(i, j) * m.beta[j]
		}
		if includeRandom {
			if b, known := m.blups[groups[i]]; known {
				for k := 0; k < q; k++ {
					v += z.At(i, k) * b[k]
				}
			}
		}
		fit[i] = v
	}

	return fit, nil
}
