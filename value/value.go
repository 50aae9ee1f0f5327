// File: value/value.go
package value

// ValueOrVar is anything that may sit in a variable slot: a Value, or a *Var
// that may or may not be bound yet.
type ValueOrVar interface {
	// ResolveValue returns the bound value, or a *WaitError naming the
	// unbound variable that blocks resolution.
	ResolveValue() (Value, error)
	// ResolveValueOrVar returns the bound value if there is one, otherwise the
	// representative variable of the equivalence class.
	ResolveValueOrVar() ValueOrVar
}

// Value is an immutable runtime datum. A Value is either complete (it contains
// no unbound variables) or partial.
type Value interface {
	ValueOrVar
	// CheckComplete returns the complete form of the value, or a *WaitError if
	// a nested variable is still unbound.
	CheckComplete() (Complete, error)
	String() string
}

// Complete is a fully resolved Value. Complete values can be compared, shared
// between actors, and sent in envelopes.
type Complete interface {
	Value
	complete()
}

// Literal is a complete scalar.
type Literal interface {
	Complete
	literal()
}

// Feature is a literal that can name a record field.
type Feature interface {
	Literal
	feature()
}

// HostObj is embedded by runtime types defined outside this package that
// travel through the kernel as complete values (closures, actor references,
// actor images). The embedding type must implement the remaining Value methods.
type HostObj struct{}

func (HostObj) complete() {}
