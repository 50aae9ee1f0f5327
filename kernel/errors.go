// File: kernel/errors.go
package kernel

import (
	"errors"
	"fmt"

	"github.com/lguibr/dflow/value"
)

// ErrNoHost is returned by actor instructions run on a machine without a host.
var ErrNoHost = errors.New("instruction requires an actor host")

// UndefinedIdentError reports an identifier missing from the environment.
type UndefinedIdentError struct {
	Ident Ident
}

func (e *UndefinedIdentError) Error() string {
	return fmt.Sprintf("undefined identifier %s", e.Ident.Name)
}

// InvalidArgCountError reports a procedure or actor constructor applied to the
// wrong number of arguments.
type InvalidArgCountError struct {
	Proc     string
	Expected int
	Actual   int
}

func (e *InvalidArgCountError) Error() string {
	return fmt.Sprintf("%s expects %d arguments, got %d", e.Proc, e.Expected, e.Actual)
}

// UncaughtThrowError ends a computation whose thrown value found no catch frame.
type UncaughtThrowError struct {
	Value value.Value
}

func (e *UncaughtThrowError) Error() string {
	return fmt.Sprintf("uncaught throw: %s", value.Format(e.Value))
}

// TypeMismatchError reports an operand of the wrong kind.
type TypeMismatchError struct {
	Instr    string
	Expected string
	Actual   value.Value
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s %s",
		e.Instr, e.Expected, value.TypeName(e.Actual), value.Format(e.Actual))
}

// NoSuchFeatureError reports a selection of a feature the record lacks.
type NoSuchFeatureError struct {
	Rec     value.Value
	Feature value.Feature
}

func (e *NoSuchFeatureError) Error() string {
	return fmt.Sprintf("record %s has no feature %s", value.Format(e.Rec), e.Feature)
}

// UnmatchedJumpError reports a jump with no enclosing catch for its label.
type UnmatchedJumpError struct {
	Label string
}

func (e *UnmatchedJumpError) Error() string {
	return fmt.Sprintf("jump %q has no enclosing target", e.Label)
}

// IsBarrier reports whether err is a blocking barrier and returns it.
func IsBarrier(err error) (*value.WaitError, bool) {
	var we *value.WaitError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}
