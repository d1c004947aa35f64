package reactive

import (
	"errors"
	"fmt"
)

var (
	ErrMissingMethod    = errors.New("method missing")
	ErrMissingFormatter = errors.New("formatter missing")
	ErrNotAssignable    = errors.New("keypath not assignable")
	ErrNotANode         = errors.New("value is not a node")
	ErrDetached         = errors.New("element has no parent")
)

// BindError reports a directive which could not be set up. It only concerns
// the binding it names: the rest of the context is bound normally.
type BindError struct {
	Directive string
	Value     string
	Err       error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("reactive: bind [%s=%q]: %v", e.Directive, e.Value, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }
