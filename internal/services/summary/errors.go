package summary

import (
	"errors"
	"strings"
)

var ErrMissingPosteriorVariable = errors.New("missing posterior variable")

// MissingVariableError lists the parameters that had no draws.
type MissingVariableError struct {
	Names []string
}

func (e *MissingVariableError) Error() string {
	return "posterior variables not found: " + strings.Join(e.Names, ", ")
}

func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingPosteriorVariable
}
