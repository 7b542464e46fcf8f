package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statmix/randcoef/errs"
)

func TestRandomTerm(t *testing.T) {
	tests := []struct {
		name      string
		structure RandomStructure
		group     string
		time      string
		want      string
	}{
		{"intercept", RandomIntercept, "id", "t", "(1 | id)"},
		{"slope", RandomSlope, "id", "t", "(0 + t | id)"},
		{"intercept_slope", RandomInterceptSlope, "id", "t", "(1 + t | id)"},
		{"other names", RandomIntercept, "subject", "week", "(1 | subject)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, err := RandomTerm(tt.structure, tt.group, tt.time)
			require.NoError(t, err)
			assert.Equal(t, tt.want, term)
		})
	}
}

func TestRandomTermUnknownStructure(t *testing.T) {
	_, err := RandomTerm(RandomStructure(99), "id", "t")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestCombine(t *testing.T) {
	term, err := RandomTerm(RandomInterceptSlope, "id", "week")
	require.NoError(t, err)
	assert.Equal(t, "score ~ week + (1 + week | id)", Combine("score ~ week", term))
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		keyword string
		want    RandomStructure
	}{
		{"intercept", RandomIntercept},
		{"slope", RandomSlope},
		{"intercept_slope", RandomInterceptSlope},
		{" Intercept ", RandomIntercept},
		{"INTERCEPT_SLOPE", RandomInterceptSlope},
	}
	for _, tt := range tests {
		s, err := ParseStructure(tt.keyword)
		require.NoError(t, err, "keyword %q", tt.keyword)
		assert.Equal(t, tt.want, s)
	}

	_, err := ParseStructure("quadratic")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestStructureProperties(t *testing.T) {
	assert.Equal(t, "intercept", RandomIntercept.String())
	assert.Equal(t, "slope", RandomSlope.String())
	assert.Equal(t, "intercept_slope", RandomInterceptSlope.String())
	assert.Equal(t, "unknown", RandomStructure(0).String())

	assert.True(t, RandomIntercept.Valid())
	assert.False(t, RandomStructure(7).Valid())

	assert.Equal(t, 1, RandomIntercept.NumEffects())
	assert.Equal(t, 1, RandomSlope.NumEffects())
	assert.Equal(t, 2, RandomInterceptSlope.NumEffects())
}
