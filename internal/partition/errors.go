package partition

import (
	"errors"
	"fmt"
)

// ErrInvalidWeight indicates a weight specification that cannot produce bins.
var ErrInvalidWeight = errors.New("invalid weight")

// InvalidWeightError describes why a weight specification was rejected.
type InvalidWeightError struct {
	Input string
	Msg   string
}

func (e *InvalidWeightError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%s %q: %s", ErrInvalidWeight, e.Input, e.Msg)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidWeight, e.Msg)
}

func (e *InvalidWeightError) Unwrap() error { return ErrInvalidWeight }
