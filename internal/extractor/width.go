package extractor

import (
	"fmt"

	svinverr "svinv/internal/errors"
	"svinv/internal/syntax"
)

// EvalWidth reduces a packed dimension to a concrete bit width. Only
// zero-based literal ranges are supported: [msb:0] with a non-negative
// literal msb yields msb+1, and a missing dimension yields 1. Everything
// else (symbolic bounds, arithmetic, non-zero lower bound) is rejected;
// callers attach module and port attribution.
func EvalWidth(rng *syntax.RangeExpr) (int, error) {
	if rng == nil {
		return 1, nil
	}
	if !rng.MSB.IsLit || !rng.LSB.IsLit {
		return 0, unsupportedRange(rng)
	}
	if rng.LSB.Value != 0 || rng.MSB.Value < 0 {
		return 0, unsupportedRange(rng)
	}
	return rng.MSB.Value + 1, nil
}

func unsupportedRange(rng *syntax.RangeExpr) error {
	return svinverr.New(svinverr.UnsupportedRange,
		fmt.Sprintf("packed dimension %s is not a zero-based literal range", rng.String())).
		At(rng.Line, 1)
}
