package checkpoint

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/randalmurphal/stepstore/pkg/stepstore/natsort"
)

// Step identifies a checkpoint's position in a series.
// It is either an integer or a float; the subtype decides how the step is
// rendered in file names ("3" vs "3.0"). The zero Step is integer 0.
type Step struct {
	i       int64
	f       float64
	isFloat bool
}

// IntStep returns an integer step.
func IntStep(n int64) Step {
	return Step{i: n}
}

// FloatStep returns a float step.
func FloatStep(f float64) Step {
	return Step{f: f, isFloat: true}
}

// ParseStep parses the textual form of a step as found in checkpoint names.
// Text containing a decimal point or exponent yields a float step.
func ParseStep(s string) (Step, error) {
	if !natsort.IsNumber(s) {
		return Step{}, fmt.Errorf("%w: %q", ErrInvalidStep, s)
	}
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntStep(n), nil
		}
		// Out of int64 range; keep the magnitude as a float.
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Step{}, fmt.Errorf("%w: %q: %w", ErrInvalidStep, s, err)
	}
	return FloatStep(f), nil
}

// IsFloat reports whether the step is a float step.
func (s Step) IsFloat() bool {
	return s.isFloat
}

// Float64 returns the numeric value of the step.
func (s Step) Float64() float64 {
	if s.isFloat {
		return s.f
	}
	return float64(s.i)
}

// Validate rejects steps that cannot be written as a checkpoint name.
func (s Step) Validate() error {
	if s.isFloat && (math.IsNaN(s.f) || math.IsInf(s.f, 0)) {
		return fmt.Errorf("%w: %v", ErrInvalidStep, s.f)
	}
	return nil
}

// String renders the step as it appears in checkpoint names.
// Integers have no decimal point. Floats use the shortest representation
// that round-trips, always with a decimal point or exponent: 0.0, -1.0,
// 0.001, 1e-05, 1e+16.
func (s Step) String() string {
	if !s.isFloat {
		return strconv.FormatInt(s.i, 10)
	}
	return formatFloat(s.f)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}

	plain := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(plain, ".") {
		plain += ".0"
	}
	return plain
}
