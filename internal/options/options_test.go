package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fitConfig struct {
	MaxIter int
	Method  string
	Verbose bool
}

func withMaxIter(n int) Option[*fitConfig] {
	return New(func(cfg *fitConfig) error {
		if n <= 0 {
			return errors.New("max iterations must be positive")
		}
		cfg.MaxIter = n

		return nil
	})
}

func withMethod(m string) Option[*fitConfig] {
	return NoError(func(cfg *fitConfig) {
		cfg.Method = m
	})
}

func TestApply(t *testing.T) {
	cfg := &fitConfig{}
	err := Apply(cfg, withMaxIter(200), withMethod("ml"))
	require.NoError(t, err)
	require.Equal(t, 200, cfg.MaxIter)
	require.Equal(t, "ml", cfg.Method)
}

func TestApplyStopsOnError(t *testing.T) {
	cfg := &fitConfig{}
	err := Apply(cfg, withMaxIter(-1), withMethod("ml"))
	require.Error(t, err)
	require.Empty(t, cfg.Method, "options after a failing one must not run")
}

func TestApplyNoOptions(t *testing.T) {
	cfg := &fitConfig{}
	require.NoError(t, Apply(cfg))
	require.Equal(t, fitConfig{}, *cfg)
}

func TestNoErrorOption(t *testing.T) {
	cfg := &fitConfig{}
	opt := NoError(func(c *fitConfig) { c.Verbose = true })
	require.NoError(t, Apply(cfg, opt))
	require.True(t, cfg.Verbose)
}
