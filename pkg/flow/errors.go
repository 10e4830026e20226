package flow

import (
	"errors"
	"fmt"
)

// Flow package errors.
var (
	// ErrUnknownFlow is returned when a trigger input does not name one of
	// the defined flows.
	ErrUnknownFlow = errors.New("unknown flow")

	// ErrChainTooShort is returned when the environment chain has nothing to
	// promote into.
	ErrChainTooShort = errors.New("environment chain needs at least two environments")

	// ErrMissingInput is returned when a flow requires an input the caller
	// did not supply.
	ErrMissingInput = errors.New("missing required input for flow")
)

// WrapUnknownFlow wraps ErrUnknownFlow with the offending trigger input.
func WrapUnknownFlow(input string) error {
	return fmt.Errorf("%w: %q (expected A, B or C)", ErrUnknownFlow, input)
}

// WrapMissingInput wraps ErrMissingInput with the flow and the missing input
// name for context.
func WrapMissingInput(f Flow, what string) error {
	return fmt.Errorf("%w %s: %s", ErrMissingInput, f, what)
}
