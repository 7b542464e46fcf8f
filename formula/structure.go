package formula

import (
	"fmt"
	"strings"

	"github.com/statmix/randcoef/errs"
)

// RandomStructure selects which subject-level random effects the model
// carries.
type RandomStructure uint8

const (
	// RandomIntercept models a subject-specific intercept: (1 | group).
	RandomIntercept RandomStructure = iota + 1
	// RandomSlope models a subject-specific slope on time with no random
	// intercept: (0 + time | group).
	RandomSlope
	// RandomInterceptSlope models correlated subject-specific intercept and
	// slope: (1 + time | group).
	RandomInterceptSlope
)

var structureNames = map[RandomStructure]string{
	RandomIntercept:      "intercept",
	RandomSlope:          "slope",
	RandomInterceptSlope: "intercept_slope",
}

// String returns the keyword form of the structure.
func (s RandomStructure) String() string {
	if name, exists := structureNames[s]; exists {
		return name
	}

	return "unknown"
}

// Valid reports whether s is one of the three recognized structures.
func (s RandomStructure) Valid() bool {
	_, exists := structureNames[s]

	return exists
}

// NumEffects returns the number of random effects per group (1 or 2).
func (s RandomStructure) NumEffects() int {
	if s == RandomInterceptSlope {
		return 2
	}

	return 1
}

// ParseStructure returns the RandomStructure for a keyword.
// Recognized keywords (case-insensitive): intercept, slope, intercept_slope.
func ParseStructure(keyword string) (RandomStructure, error) {
	k := strings.ToLower(strings.TrimSpace(keyword))
	for s, name := range structureNames {
		if name == k {
			return s, nil
		}
	}

	return 0, fmt.Errorf("%w: unrecognized random structure %q (want intercept, slope or intercept_slope)",
		errs.ErrInvalidArgument, keyword)
}

// RandomTerm produces the random-effects term for the given structure:
//
//	intercept       -> (1 | group)
//	slope           -> (0 + time | group)
//	intercept_slope -> (1 + time | group)
//
// The intercept_slope term models intercept and slope as correlated; that is
// what the 1 + time | group grammar implies. An uncorrelated variant would
// need a different term syntax and is not offered as a structure keyword.
func RandomTerm(s RandomStructure, group, time string) (string, error) {
	switch s {
	case RandomIntercept:
		return fmt.Sprintf("(1 | %s)", group), nil
	case RandomSlope:
		return fmt.Sprintf("(0 + %s | %s)", time, group), nil
	case RandomInterceptSlope:
		return fmt.Sprintf("(1 + %s | %s)", time, group), nil
	default:
		return "", fmt.Errorf("%w: unrecognized random structure %d", errs.ErrInvalidArgument, s)
	}
}

// Combine concatenates a fixed-effects formula and a random-effects term.
func Combine(fixed, randomTerm string) string {
	return fixed + " + " + randomTerm
}
