// Package errs defines the sentinel errors shared across the randcoef packages.
//
// All validation and computation failures wrap one of these sentinels, so
// callers can classify failures with errors.Is without string matching:
//
//	_, err := randcoef.Fit("y ~ x", data, "id", "week", formula.RandomIntercept)
//	if errors.Is(err, errs.ErrInvalidArgument) {
//	    // caller supplied a bad formula, column name, or option
//	}
package errs

import "errors"

var (
	// ErrInvalidArgument indicates a caller-side problem: a missing or
	// misnamed column, a non-numeric time column, an unrecognized random
	// structure keyword, an out-of-range confidence level, or an interval
	// request at a prediction level that does not support intervals.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEngineFailure indicates the mixed-model engine reported a
	// non-convergence or numerical failure. The engine's original
	// diagnostic is preserved in the wrapped error chain and the failure
	// is never retried.
	ErrEngineFailure = errors.New("engine failure")

	// ErrDegenerateResult indicates a variance decomposition produced a
	// zero or undefined denominator (for example zero total variance), so
	// the requested ratio is undefined rather than zero.
	ErrDegenerateResult = errors.New("degenerate result")

	// ErrHashCollision indicates two distinct group labels hashed to the
	// same 64-bit group ID in a dataset group index.
	ErrHashCollision = errors.New("group label hash collision")

	// ErrColumnExists indicates an attempt to add a column with a name
	// already present in the table.
	ErrColumnExists = errors.New("column already exists")

	// ErrColumnLength indicates a column whose length does not match the
	// number of rows already in the table.
	ErrColumnLength = errors.New("column length mismatch")
)
