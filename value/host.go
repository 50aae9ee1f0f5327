// File: value/host.go
package value

import (
	"fmt"
	"strings"
)

// Address identifies an actor (or an external requester) inside one engine.
type Address struct {
	ID string
}

func (a Address) ResolveValue() (Value, error)     { return a, nil }
func (a Address) ResolveValueOrVar() ValueOrVar    { return a }
func (a Address) CheckComplete() (Complete, error) { return a, nil }
func (a Address) String() string                   { return "@" + a.ID }
func (Address) complete()                          {}

// Addressable is a complete value naming an actor, such as an actor handle.
type Addressable interface {
	Complete
	Address() Address
}

// FailedValue is returned in place of a normal response when the processing
// actor hit a fault. Cause links to the failure that triggered this one, if the
// fault was a failed sub-request.
type FailedValue struct {
	Owner   Address
	Message string
	Details string
	Cause   *FailedValue
}

func (f *FailedValue) ResolveValue() (Value, error)     { return f, nil }
func (f *FailedValue) ResolveValueOrVar() ValueOrVar    { return f }
func (f *FailedValue) CheckComplete() (Complete, error) { return f, nil }
func (*FailedValue) complete()                          {}

func (f *FailedValue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed{owner: %s, message: %q", f.Owner, f.Message)
	if f.Details != "" {
		fmt.Fprintf(&b, ", details: %q", f.Details)
	}
	if f.Cause != nil {
		fmt.Fprintf(&b, ", cause: %s", f.Cause)
	}
	b.WriteByte('}')
	return b.String()
}

// Root returns the innermost cause.
func (f *FailedValue) Root() *FailedValue {
	for f.Cause != nil {
		f = f.Cause
	}
	return f
}

// Cell is a mutable, actor-local box. Cells are values but never complete, so
// they cannot leave the actor that created them.
type Cell struct {
	v ValueOrVar
}

// NewCell returns a cell holding init.
func NewCell(init ValueOrVar) *Cell {
	return &Cell{v: init}
}

func (c *Cell) Get() ValueOrVar  { return c.v }
func (c *Cell) Set(v ValueOrVar) { c.v = v }

func (c *Cell) ResolveValue() (Value, error)  { return c, nil }
func (c *Cell) ResolveValueOrVar() ValueOrVar { return c }
func (c *Cell) String() string                { return "<cell>" }

func (c *Cell) CheckComplete() (Complete, error) {
	return nil, &NotCompleteError{Value: c}
}
