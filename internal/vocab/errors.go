package vocab

import (
	"errors"
	"fmt"
)

// ErrUnknownRelation indicates a relation name outside the fixed vocabulary.
var ErrUnknownRelation = errors.New("vocab: unknown relation")

// UnknownRelationError carries the offending relation name.
type UnknownRelationError struct {
	Name string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("vocab: unknown relation %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownRelation) hold.
func (e *UnknownRelationError) Is(target error) bool {
	return target == ErrUnknownRelation
}
