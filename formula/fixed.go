// Package formula builds and parses the model formulas of the simplified
// random coefficient interface.
//
// The fixed-effects side uses the familiar response ~ predictors grammar
// restricted to additive column terms:
//
//	score ~ week + treatment
//	score ~ 1                  (intercept-only)
//	score ~ 0 + week           (no intercept)
//
// The random-effects side is never written by the caller; it is derived from
// a RandomStructure keyword plus the grouping and time column names, and
// appended to the fixed formula with +.
package formula

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/statmix/randcoef/dataset"
	"github.com/statmix/randcoef/errs"
)

// InterceptName is the display name of the intercept column in design
// matrices and coefficient tables.
const InterceptName = "(Intercept)"

// Fixed is a parsed fixed-effects formula.
type Fixed struct {
	// Response is the name of the outcome column.
	Response string
	// Terms are the predictor column names, in formula order.
	Terms []string
	// Intercept reports whether the design includes an intercept column.
	Intercept bool

	raw string
}

// String returns the formula as supplied by the caller.
func (f *Fixed) String() string {
	return f.raw
}

// ParseFixed parses a fixed-effects formula of the form
// "response ~ term1 + term2". RHS tokens may be column names, "1" for an
// explicit intercept, or "0"/"-1" to suppress the intercept. Interaction
// syntax (*, :) is not supported.
func ParseFixed(s string) (*Fixed, error) {
	parts := strings.Split(s, "~")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: formula %q must contain exactly one ~", errs.ErrInvalidArgument, s)
	}

	response := strings.TrimSpace(parts[0])
	if response == "" {
		return nil, fmt.Errorf("%w: formula %q has no response", errs.ErrInvalidArgument, s)
	}
	if err := checkIdentifier(response); err != nil {
		return nil, err
	}

	rhs := strings.TrimSpace(parts[1])
	if rhs == "" {
		return nil, fmt.Errorf("%w: formula %q has no right-hand side", errs.ErrInvalidArgument, s)
	}
	if strings.ContainsAny(rhs, "*:|") {
		return nil, fmt.Errorf("%w: formula %q: only additive terms are supported", errs.ErrInvalidArgument, s)
	}

	f := &Fixed{Response: response, Intercept: true, raw: strings.TrimSpace(s)}

	for _, tok := range strings.Split(rhs, "+") {
		tok = strings.TrimSpace(tok)
		switch tok {
		case "":
			return nil, fmt.Errorf("%w: formula %q has an empty term", errs.ErrInvalidArgument, s)
		case "1":
			f.Intercept = true
		case "0", "-1":
			f.Intercept = false
		default:
			if err := checkIdentifier(tok); err != nil {
				return nil, err
			}
			f.Terms = append(f.Terms, tok)
		}
	}

	if !f.Intercept && len(f.Terms) == 0 {
		return nil, fmt.Errorf("%w: formula %q has no predictors and no intercept", errs.ErrInvalidArgument, s)
	}

	return f, nil
}

func checkIdentifier(name string) error {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '.':
		case r >= '0' && r <= '9':
			if i == 0 {
				return fmt.Errorf("%w: term %q must not start with a digit", errs.ErrInvalidArgument, name)
			}
		default:
			return fmt.Errorf("%w: term %q contains unsupported character %q", errs.ErrInvalidArgument, name, r)
		}
	}

	return nil
}

// DesignNames returns the design-matrix column names, intercept first when
// present.
func (f *Fixed) DesignNames() []string {
	names := make([]string, 0, len(f.Terms)+1)
	if f.Intercept {
		names = append(names, InterceptName)
	}

	return append(names, f.Terms...)
}

// DesignMatrix builds the fixed-effects design matrix over the table. Every
// term must exist as a numeric column.
func (f *Fixed) DesignMatrix(t *dataset.Table) (*mat.Dense, error) {
	n := t.NumRows()
	p := len(f.Terms)
	if f.Intercept {
		p++
	}

	x := mat.NewDense(n, p, nil)
	col := 0
	if f.Intercept {
		for i := 0; i < n; i++ {
			x.Set(i, col, 1)
		}
		col++
	}

	for _, term := range f.Terms {
		values, err := t.Floats(term)
		if err != nil {
			return nil, err
		}
		x.SetCol(col, values)
		col++
	}

	return x, nil
}

// ResponseVector returns the response column values.
func (f *Fixed) ResponseVector(t *dataset.Table) ([]float64, error) {
	return t.Floats(f.Response)
}
