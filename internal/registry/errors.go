package registry

import "fmt"

// DuplicateTargetError reports a second registration under an existing name.
type DuplicateTargetError struct {
	Name string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("target %q is already registered", e.Name)
}

// InvalidTargetError reports a malformed target declaration.
type InvalidTargetError struct {
	Name   string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Name, e.Reason)
}

// UnknownTargetError reports a reference to a name that was never registered.
type UnknownTargetError struct {
	Name string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q", e.Name)
}
