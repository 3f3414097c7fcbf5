package guard

import (
	"errors"
	"fmt"
	"math"
)

// ErrImplausible marks a value outside the configured plausibility bounds.
var ErrImplausible = errors.New("implausible value")

// Limits holds the plausibility bounds of one indicator.
// A zero value for any field means that bound is disabled.
type Limits struct {
	MinValue float64
	MaxValue float64
}

// Check returns nil if v is plausible. The lower bound is exclusive:
// a value must exceed MinValue.
func (l Limits) Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrImplausible, v)
	}
	if l.MinValue != 0 && v <= l.MinValue {
		return fmt.Errorf("%w: %.2f not above minimum %.2f", ErrImplausible, v, l.MinValue)
	}
	if l.MaxValue != 0 && v > l.MaxValue {
		return fmt.Errorf("%w: %.2f exceeds maximum %.2f", ErrImplausible, v, l.MaxValue)
	}
	return nil
}
