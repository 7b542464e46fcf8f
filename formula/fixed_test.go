package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statmix/randcoef/dataset"
	"github.com/statmix/randcoef/errs"
)

func TestParseFixed(t *testing.T) {
	f, err := ParseFixed("score ~ week + dose")
	require.NoError(t, err)
	assert.Equal(t, "score", f.Response)
	assert.Equal(t, []string{"week", "dose"}, f.Terms)
	assert.True(t, f.Intercept)
	assert.Equal(t, "score ~ week + dose", f.String())
	assert.Equal(t, []string{InterceptName, "week", "dose"}, f.DesignNames())
}

func TestParseFixedInterceptOnly(t *testing.T) {
	f, err := ParseFixed("y ~ 1")
	require.NoError(t, err)
	assert.Empty(t, f.Terms)
	assert.True(t, f.Intercept)
	assert.Equal(t, []string{InterceptName}, f.DesignNames())
}

func TestParseFixedNoIntercept(t *testing.T) {
	for _, raw := range []string{"y ~ 0 + x", "y ~ -1 + x", "y ~ x + 0"} {
		f, err := ParseFixed(raw)
		require.NoError(t, err, "formula %q", raw)
		assert.False(t, f.Intercept)
		assert.Equal(t, []string{"x"}, f.DesignNames())
	}
}

func TestParseFixedErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no tilde", "score week"},
		{"two tildes", "a ~ b ~ c"},
		{"empty response", " ~ x"},
		{"empty rhs", "y ~ "},
		{"empty term", "y ~ x + + z"},
		{"interaction star", "y ~ a*b"},
		{"interaction colon", "y ~ a:b"},
		{"random bar", "y ~ x + (1 | id)"},
		{"leading digit", "y ~ 2x"},
		{"bad character", "y ~ x-1"},
		{"no predictors no intercept", "y ~ 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixed(tt.raw)
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestDesignMatrix(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddFloats("y", []float64{1, 2, 3}))
	require.NoError(t, tbl.AddFloats("x", []float64{0.5, 1.5, 2.5}))

	f, err := ParseFixed("y ~ x")
	require.NoError(t, err)

	x, err := f.DesignMatrix(tbl)
	require.NoError(t, err)

	rows, cols := x.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, x.At(i, 0))
	}
	assert.Equal(t, 1.5, x.At(1, 1))

	y, err := f.ResponseVector(tbl)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, y)
}

func TestDesignMatrixMissingTerm(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddFloats("y", []float64{1, 2, 3}))

	f, err := ParseFixed("y ~ x")
	require.NoError(t, err)

	_, err = f.DesignMatrix(tbl)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}
