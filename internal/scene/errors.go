package scene

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedValue indicates a shape or color text outside the closed
// enumerations.
var ErrUnrecognizedValue = errors.New("scene: unrecognized attribute value")

// UnrecognizedValueError names the attribute and the text that failed.
type UnrecognizedValueError struct {
	// Kind is "shape" or "color".
	Kind  string
	Value string
}

func (e *UnrecognizedValueError) Error() string {
	return fmt.Sprintf("scene: unrecognized %s %q", e.Kind, e.Value)
}

// Is makes errors.Is(err, ErrUnrecognizedValue) hold.
func (e *UnrecognizedValueError) Is(target error) bool {
	return target == ErrUnrecognizedValue
}
