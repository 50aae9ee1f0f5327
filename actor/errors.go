// File: actor/errors.go
package actor

import (
	"errors"
	"fmt"

	"github.com/lguibr/dflow/kernel"
	"github.com/lguibr/dflow/value"
)

var (
	// ErrAskTimeout is returned by Ask when no response arrived in time.
	ErrAskTimeout = errors.New("ask timed out")
	// ErrEngineStopped is returned when spawning or asking on a stopping engine.
	ErrEngineStopped = errors.New("engine is stopping")
)

// UnrecognizedMessageError reports a request or notify the actor has no
// handler for.
type UnrecognizedMessageError struct {
	Actor   value.Address
	Message value.Complete
}

func (e *UnrecognizedMessageError) Error() string {
	return fmt.Sprintf("%s: unrecognized message %s", e.Actor, value.Format(e.Message))
}

// FailedError carries a failure value received from another actor through Go
// error returns, so the next failure can name it as its cause.
type FailedError struct {
	Value *value.FailedValue
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("failed: %s", e.Value.Message)
}

// HostFault wraps a panic recovered while an actor handled a message.
type HostFault struct {
	Recovered any
	Stack     string
}

func (e *HostFault) Error() string {
	return fmt.Sprintf("panic: %v", e.Recovered)
}

// Failure converts err into a failure value owned by owner. A failure value
// received from elsewhere, thrown and not caught, becomes the cause.
func Failure(owner value.Address, err error) *value.FailedValue {
	f := &value.FailedValue{Owner: owner, Message: err.Error(), Details: errorKind(err)}
	var fe *FailedError
	var ut *kernel.UncaughtThrowError
	switch {
	case errors.As(err, &fe):
		f.Cause = fe.Value
	case errors.As(err, &ut):
		if cause, ok := ut.Value.(*value.FailedValue); ok {
			f.Cause = cause
			f.Message = "uncaught failure from " + cause.Owner.String()
		}
	}
	return f
}

func errorKind(err error) string {
	var (
		ab  *value.AlreadyBoundError
		ue  *value.UnificationError
		tc  *value.TypeConflictError
		ia  *kernel.InvalidArgCountError
		um  *UnrecognizedMessageError
		utx *kernel.UncaughtThrowError
	)
	switch {
	case errors.As(err, &ab):
		return "BindingConflict"
	case errors.As(err, &ue), errors.As(err, &tc):
		return "UnificationConflict"
	case errors.As(err, &ia):
		return "ArityError"
	case errors.As(err, &um):
		return "UnrecognizedMessageError"
	case errors.As(err, &utx):
		return "UncaughtThrow"
	}
	return "HostFault"
}
