package partition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SumTolerance is how far normalized weights may drift from 1.
const SumTolerance = 1e-6

// WeightSpec is either a bin count or an explicit list of weights.
type WeightSpec struct {
	Count   int
	Weights []float64
}

// Equal returns a spec for n equal bins.
func Equal(n int) WeightSpec {
	return WeightSpec{Count: n}
}

// Explicit returns a spec for the given weights.
func Explicit(weights ...float64) WeightSpec {
	return WeightSpec{Weights: weights}
}

// ParseWeightSpec reads a command-line weight argument.
//
// A bare integer ("3") means that many equal bins. Anything else is read as a
// comma-separated list of weights, each a fraction ("0.3"), a number out of
// 100 ("30") or a percentage ("30%"). Integer parsing is only attempted on
// inputs without a comma; a failed list parse is reported, not retried.
func ParseWeightSpec(s string) (WeightSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WeightSpec{}, &InvalidWeightError{Msg: "empty weight specification"}
	}

	if !strings.Contains(s, ",") {
		if n, err := strconv.Atoi(s); err == nil {
			if n <= 0 {
				return WeightSpec{}, &InvalidWeightError{Input: s, Msg: "bin count must be positive"}
			}
			return Equal(n), nil
		}
	}

	parts := strings.Split(s, ",")
	weights := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		scale := 1.0
		if strings.HasSuffix(part, "%") {
			part = strings.TrimSpace(strings.TrimSuffix(part, "%"))
			scale = 100
		}
		w, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return WeightSpec{}, &InvalidWeightError{Input: s, Msg: fmt.Sprintf("weight %q is not a number", part)}
		}
		weights = append(weights, w/scale)
	}
	return Explicit(weights...), nil
}

// NormalizeWeights turns a spec into fractions that sum to 1.
// A list that sums to 100 is read as percentages.
func NormalizeWeights(spec WeightSpec) ([]float64, error) {
	if spec.Count < 0 {
		return nil, &InvalidWeightError{Msg: fmt.Sprintf("bin count %d must be positive", spec.Count)}
	}
	if spec.Count > 0 {
		weights := make([]float64, spec.Count)
		for i := range weights {
			weights[i] = 1 / float64(spec.Count)
		}
		return weights, nil
	}
	if len(spec.Weights) == 0 {
		return nil, &InvalidWeightError{Msg: "no weights given"}
	}

	sum := 0.0
	for _, w := range spec.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, &InvalidWeightError{Msg: fmt.Sprintf("weight %g is not a non-negative number", w)}
		}
		sum += w
	}

	scale := 1.0
	if math.Abs(sum-100) <= SumTolerance*100 {
		scale = 100
	}
	if math.Abs(sum/scale-1) > SumTolerance {
		return nil, &InvalidWeightError{Msg: fmt.Sprintf("weights sum to %g, want 1", sum)}
	}

	weights := make([]float64, len(spec.Weights))
	for i, w := range spec.Weights {
		weights[i] = w / scale
	}
	return weights, nil
}
