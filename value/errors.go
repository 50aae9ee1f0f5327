// File: value/errors.go
package value

import "fmt"

// WaitError is the blocking barrier: a computation needed the value of Barrier
// while it was still unbound. It is a suspension signal, not a fault.
type WaitError struct {
	Barrier *Var
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("waiting on unbound variable %s", e.Barrier)
}

// AlreadyBoundError reports an attempt to bind a variable that already holds a
// different value.
type AlreadyBoundError struct {
	Var       *Var
	Current   Value
	Attempted Value
}

func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("variable %s already bound to %s, cannot bind to %s",
		e.Var.Name(), Format(e.Current), Format(e.Attempted))
}

// UnificationError reports a structural mismatch between two values of the
// same kind: a scalar disagreement, or records with different labels, arities
// or features. Feature is set when the mismatch is a missing or unequal field.
type UnificationError struct {
	A, B    Value
	Feature Feature
	Reason  string
}

func (e *UnificationError) Error() string {
	if e.Feature != nil {
		return fmt.Sprintf("cannot unify %s with %s at feature %s: %s",
			Format(e.A), Format(e.B), e.Feature, e.Reason)
	}
	return fmt.Sprintf("cannot unify %s with %s: %s", Format(e.A), Format(e.B), e.Reason)
}

// TypeConflictError reports unification or arithmetic across incompatible kinds.
type TypeConflictError struct {
	A, B Value
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("type conflict: %s (%s) and %s (%s)",
		Format(e.A), TypeName(e.A), Format(e.B), TypeName(e.B))
}

// NotCompleteError reports a value that can never become complete, such as a
// mutable cell.
type NotCompleteError struct {
	Value Value
}

func (e *NotCompleteError) Error() string {
	return fmt.Sprintf("%s value cannot be made complete", TypeName(e.Value))
}

// TypeName returns a short kind name used in diagnostics.
func TypeName(v ValueOrVar) string {
	switch v.(type) {
	case nil:
		return "nil"
	case *Var:
		return "Var"
	case Bool:
		return "Bool"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case BigInt:
		return "BigInt"
	case Dec128:
		return "Dec128"
	case Flt32:
		return "Flt32"
	case Flt64:
		return "Flt64"
	case Str:
		return "Str"
	case Char:
		return "Char"
	case Eof:
		return "Eof"
	case Null:
		return "Null"
	case *Token:
		return "Token"
	case *CompleteRec:
		return "Rec"
	case *PartialRec:
		return "PartialRec"
	case *Cell:
		return "Cell"
	case *FailedValue:
		return "FailedValue"
	case Address:
		return "Address"
	default:
		return fmt.Sprintf("%T", v)
	}
}
