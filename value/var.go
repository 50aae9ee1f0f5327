// File: value/var.go
package value

import (
	"fmt"
	"sync/atomic"
)

var varCounter atomic.Uint64

// Var is a single-assignment dataflow variable.
//
// Free variables that have been unified form an equivalence class, kept as a
// union-find forest: every member points (possibly transitively) at a root,
// and only the root holds the bound value. Binding any member therefore binds
// the whole class. A Var is owned by one actor; it must only be bound from
// that actor's machine.
type Var struct {
	id     uint64
	parent *Var  // nil for a class root
	size   int   // class size, meaningful at the root only
	value  Value // bound value, meaningful at the root only
}

// NewVar returns a free variable.
func NewVar() *Var {
	return &Var{id: varCounter.Add(1), size: 1}
}

// NewBoundVar returns a variable already bound to v.
func NewBoundVar(v Value) *Var {
	x := NewVar()
	x.value = v
	return x
}

// root returns the class representative, compressing the path on the way.
func (x *Var) root() *Var {
	r := x
	for r.parent != nil {
		r = r.parent
	}
	for x != r {
		next := x.parent
		x.parent = r
		x = next
	}
	return r
}

// ResolveValue returns the bound value or a *WaitError naming x.
func (x *Var) ResolveValue() (Value, error) {
	r := x.root()
	if r.value == nil {
		return nil, &WaitError{Barrier: x}
	}
	return r.value, nil
}

// ResolveValueOrVar returns the bound value or the class root.
func (x *Var) ResolveValueOrVar() ValueOrVar {
	r := x.root()
	if r.value == nil {
		return r
	}
	return r.value
}

// IsBound reports whether the class of x holds a value.
func (x *Var) IsBound() bool {
	return x.root().value != nil
}

// SameClass reports whether x and y have been unified.
func (x *Var) SameClass(y *Var) bool {
	return x.root() == y.root()
}

// BindToValue binds the class of x to v. Rebinding to an equal value is a
// no-op; rebinding to anything else fails with *AlreadyBoundError.
func (x *Var) BindToValue(v Value) error {
	if v == nil {
		return fmt.Errorf("cannot bind %s to nil", x.Name())
	}
	r := x.root()
	if r.value != nil {
		if Equal(r.value, v) {
			return nil
		}
		return &AlreadyBoundError{Var: x, Current: r.value, Attempted: v}
	}
	r.value = v
	return nil
}

// BindToVar merges the classes of x and y. Both may be free; if either is
// bound the other side is unified with its value.
func (x *Var) BindToVar(y *Var) error {
	return Unify(x, y)
}

// union links two free roots, smaller class under larger.
func union(a, b *Var) {
	if a == b {
		return
	}
	if a.size < b.size {
		a, b = b, a
	}
	b.parent = a
	a.size += b.size
}

// Name returns a stable diagnostic name for the variable.
func (x *Var) Name() string {
	return fmt.Sprintf("_%d", x.id)
}

func (x *Var) String() string {
	r := x.root()
	if r.value == nil {
		return x.Name()
	}
	return Format(r.value)
}
