package lmm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/internal/options"
)

// engineConfig holds tuning knobs for the default engine.
type engineConfig struct {
	MaxIterations int
	Tolerance     float64
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		MaxIterations: 1000,
		Tolerance:     1e-10,
	}
}

// EngineOption is a functional option for the default engine.
type EngineOption = options.Option[*engineConfig]

// WithMaxIterations caps the number of optimizer iterations.
func WithMaxIterations(n int) EngineOption {
	return options.New(func(cfg *engineConfig) error {
		if n <= 0 {
			return fmt.Errorf("%w: max iterations must be positive, got %d", errs.ErrInvalidArgument, n)
		}
		cfg.MaxIterations = n

		return nil
	})
}

// WithTolerance sets the absolute deviance convergence tolerance.
func WithTolerance(tol float64) EngineOption {
	return options.New(func(cfg *engineConfig) error {
		if tol <= 0 || math.IsNaN(tol) {
			return fmt.Errorf("%w: tolerance must be positive, got %g", errs.ErrInvalidArgument, tol)
		}
		cfg.Tolerance = tol

		return nil
	})
}

type remlEngine struct {
	cfg engineConfig
}

// NewEngine creates the default REML/ML engine.
func NewEngine(opts ...EngineOption) (Engine, error) {
	cfg := defaultEngineConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &remlEngine{cfg: cfg}, nil
}

// MustEngine creates the default engine with default settings. It exists for
// call sites that cannot fail (no options are applied).
func MustEngine() Engine {
	engine, err := NewEngine()
	if err != nil {
		panic(err)
	}

	return engine
}

// groupData holds one group's slice of the design, copied out once so the
// optimizer's inner loop touches contiguous matrices.
type groupData struct {
	label string
	x     *mat.Dense
	z     *mat.Dense
	y     *mat.VecDense
}

// problem is the prepared optimization state shared by all deviance
// evaluations of one fit.
type problem struct {
	groups  []groupData
	n, p, q int
	method  Method
}

func newProblem(spec *Spec) *problem {
	n := len(spec.Y)
	_, p := spec.X.Dims()
	_, q := spec.Z.Dims()

	pr := &problem{
		n:      n,
		p:      p,
		q:      q,
		method: spec.method(),
		groups: make([]groupData, len(spec.Groups)),
	}

	for gi, g := range spec.Groups {
		ni := len(g.Rows)
		gd := groupData{
			label: g.Label,
			x:     mat.NewDense(ni, p, nil),
			z:     mat.NewDense(ni, q, nil),
			y:     mat.NewVecDense(ni, nil),
		}
		for i, row := range g.Rows {
			for j := 0; j < p; j++ {
				gd.x.Set(i, j, spec.X.At(row, j))
			}
			for k := 0; k < q; k++ {
				gd.z.Set(i, k, spec.Z.At(row, k))
			}
			gd.y.SetVec(i, spec.Y[row])
		}
		pr.groups[gi] = gd
	}

	return pr
}

// devState carries everything a single deviance evaluation produces, so the
// final evaluation at the optimum can be reused for estimates and BLUPs.
type devState struct {
	dev     float64
	sigma2  float64
	beta    *mat.VecDense
	g       *mat.Dense // relative covariance ΛΛᵀ, q×q
	cholA   *mat.Cholesky
	cholV   []*mat.Cholesky // per group, for BLUP back-solves
	logdetV float64
}

// lambdaFromTheta builds the lower-triangular relative covariance factor
// from its packed row-major parameters.
func lambdaFromTheta(theta []float64, q int) *mat.Dense {
	l := mat.NewDense(q, q, nil)
	idx := 0
	for i := 0; i < q; i++ {
		for j := 0; j <= i; j++ {
			l.Set(i, j, theta[idx])
			idx++
		}
	}

	return l
}

// eval computes the profiled deviance at theta. The deviance depends on Λ
// only through ΛΛᵀ, which is sign-symmetric in the theta entries, so no
// bound constraints are needed during the search.
func (pr *problem) eval(theta []float64) (*devState, bool) {
	for _, t := range theta {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, false
		}
	}

	lambda := lambdaFromTheta(theta, pr.q)
	g := mat.NewDense(pr.q, pr.q, nil)
	g.Mul(lambda, lambda.T())

	a := mat.NewDense(pr.p, pr.p, nil)
	u := mat.NewVecDense(pr.p, nil)
	yVy := 0.0
	logdetV := 0.0
	cholV := make([]*mat.Cholesky, len(pr.groups))

	for gi := range pr.groups {
		grp := &pr.groups[gi]
		ni, _ := grp.x.Dims()

		// V_i = Z_i ΛΛᵀ Z_iᵀ + I, the per-group marginal covariance in
		// units of σ².
		v := mat.NewSymDense(ni, nil)
		for r := 0; r < ni; r++ {
			for s := r; s < ni; s++ {
				val := 0.0
				for k := 0; k < pr.q; k++ {
					for l := 0; l < pr.q; l++ {
						val += grp.z.At(r, k) * g.At(k, l) * grp.z.At(s, l)
					}
				}
				if r == s {
					val++
				}
				v.SetSym(r, s, val)
			}
		}

		ch := &mat.Cholesky{}
		if !ch.Factorize(v) {
			return nil, false
		}
		logdetV += ch.LogDet()

		w := mat.NewDense(ni, pr.p, nil)
		if err := ch.SolveTo(w, grp.x); err != nil {
			return nil, false
		}
		vy := mat.NewVecDense(ni, nil)
		if err := ch.SolveVecTo(vy, grp.y); err != nil {
			return nil, false
		}

		var xtw mat.Dense
		xtw.Mul(grp.x.T(), w)
		a.Add(a, &xtw)

		var xty mat.VecDense
		xty.MulVec(grp.x.T(), vy)
		u.AddVec(u, &xty)

		yVy += mat.Dot(grp.y, vy)
		cholV[gi] = ch
	}

	aSym := mat.NewSymDense(pr.p, nil)
	for i := 0; i < pr.p; i++ {
		for j := i; j < pr.p; j++ {
			aSym.SetSym(i, j, a.At(i, j))
		}
	}
	cholA := &mat.Cholesky{}
	if !cholA.Factorize(aSym) {
		return nil, false
	}

	beta := mat.NewVecDense(pr.p, nil)
	if err := cholA.SolveVecTo(beta, u); err != nil {
		return nil, false
	}

	qform := yVy - mat.Dot(beta, u)
	if qform <= 0 || math.IsNaN(qform) || math.IsInf(qform, 0) {
		return nil, false
	}

	st := &devState{
		beta:    beta,
		g:       g,
		cholA:   cholA,
		cholV:   cholV,
		logdetV: logdetV,
	}

	if pr.method == ML {
		nn := float64(pr.n)
		st.sigma2 = qform / nn
		st.dev = logdetV + nn*(math.Log(2*math.Pi*st.sigma2)+1)
	} else {
		nu := float64(pr.n - pr.p)
		st.sigma2 = qform / nu
		st.dev = logdetV + cholA.LogDet() + nu*(math.Log(2*math.Pi*st.sigma2)+1)
	}

	if math.IsNaN(st.dev) || math.IsInf(st.dev, 0) {
		return nil, false
	}

	return st, true
}

// singularThreshold is the relative variance (in units of σ²) below which a
// random term is reported as a boundary fit.
const singularThreshold = 1e-8

// Fit estimates the model by minimizing the profiled REML or ML deviance
// over the relative covariance parameters with Nelder-Mead.
func (e *remlEngine) Fit(spec Spec) (Handle, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	pr := newProblem(&spec)
	nTheta := pr.q * (pr.q + 1) / 2

	objective := func(theta []float64) float64 {
		st, ok := pr.eval(theta)
		if !ok {
			return math.Inf(1)
		}

		return st.dev
	}

	// Unit relative variances, zero covariances.
	start := make([]float64, nTheta)
	idx := 0
	for i := 0; i < pr.q; i++ {
		for j := 0; j <= i; j++ {
			if i == j {
				start[idx] = 1
			}
			idx++
		}
	}

	settings := &optimize.Settings{
		MajorIterations: e.cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   e.cfg.Tolerance,
			Iterations: 100,
		},
	}

	result, err := optimize.Minimize(optimize.Problem{Func: objective}, start, settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, fmt.Errorf("%w: optimizer failed: %w", errs.ErrEngineFailure, err)
	}

	var warnings []string
	switch result.Status {
	case optimize.Success, optimize.FunctionThreshold, optimize.FunctionConvergence,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
	default:
		warnings = append(warnings,
			fmt.Sprintf("optimizer stopped with status %v after %d iterations; estimates may not be fully converged",
				result.Status, result.MajorIterations))
	}

	st, ok := pr.eval(result.X)
	if !ok {
		return nil, fmt.Errorf("%w: variance parameters did not yield a positive definite covariance", errs.ErrEngineFailure)
	}

	for k := 0; k < pr.q; k++ {
		if st.g.At(k, k) < singularThreshold {
			warnings = append(warnings,
				fmt.Sprintf("boundary (singular) fit: variance of random term %q is effectively zero", spec.ZNames[k]))
		}
	}

	return newModel(&spec, pr, st, nTheta, warnings)
}
