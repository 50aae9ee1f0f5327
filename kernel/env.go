// File: kernel/env.go
package kernel

import (
	"strings"

	"github.com/lguibr/dflow/value"
)

// Ident names an environment slot.
type Ident struct {
	Name string
}

func (x Ident) String() string { return x.Name }
func (Ident) operand()         {}

// Operand is an instruction input: an identifier resolved through the
// environment, or an immediate complete value.
type Operand interface {
	operand()
}

// Imm is an immediate operand.
type Imm struct {
	Value value.Complete
}

func (Imm) operand() {}

// Convenience identifiers used by compiled procedures.
var (
	// ReturnIdent is the implicit result parameter of functions.
	ReturnIdent = Ident{Name: "$r"}
)

// EnvEntry binds one identifier to a variable.
type EnvEntry struct {
	Ident Ident
	Var   *value.Var
}

// Env is an immutable lookup frame. Lookups walk parent frames; a child entry
// shadows an ancestor's entry for the same identifier.
type Env struct {
	parent  *Env
	entries []EnvEntry
}

// NewEnv returns a frame over parent (which may be nil).
func NewEnv(parent *Env, entries ...EnvEntry) *Env {
	return &Env{parent: parent, entries: entries}
}

// Get returns the variable bound to x, or nil.
func (e *Env) Get(x Ident) *value.Var {
	for f := e; f != nil; f = f.parent {
		for i := len(f.entries) - 1; i >= 0; i-- {
			if f.entries[i].Ident == x {
				return f.entries[i].Var
			}
		}
	}
	return nil
}

// Extend returns a child frame holding a fresh variable for every identifier.
func (e *Env) Extend(xs ...Ident) *Env {
	entries := make([]EnvEntry, len(xs))
	for i, x := range xs {
		entries[i] = EnvEntry{Ident: x, Var: value.NewVar()}
	}
	return NewEnv(e, entries...)
}

// Parent returns the enclosing frame.
func (e *Env) Parent() *Env { return e.parent }

func (e *Env) String() string {
	var b strings.Builder
	depth := 0
	for f := e; f != nil; f = f.parent {
		if depth > 0 {
			b.WriteString(" -> ")
		}
		b.WriteByte('{')
		for i, en := range f.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(en.Ident.Name)
			b.WriteString(": ")
			b.WriteString(value.Format(en.Var))
		}
		b.WriteByte('}')
		depth++
	}
	return b.String()
}

// resolve returns the variable or immediate value named by op.
func resolve(env *Env, op Operand) (value.ValueOrVar, error) {
	switch t := op.(type) {
	case Ident:
		v := env.Get(t)
		if v == nil {
			return nil, &UndefinedIdentError{Ident: t}
		}
		return v, nil
	case Imm:
		return t.Value, nil
	}
	return nil, &UndefinedIdentError{Ident: Ident{Name: "<nil operand>"}}
}

// resolveValue returns the bound value of op, or a barrier.
func resolveValue(env *Env, op Operand) (value.Value, error) {
	v, err := resolve(env, op)
	if err != nil {
		return nil, err
	}
	return v.ResolveValue()
}

// resolveComplete returns the complete value of op, or a barrier.
func resolveComplete(env *Env, op Operand) (value.Complete, error) {
	v, err := resolveValue(env, op)
	if err != nil {
		return nil, err
	}
	return v.CheckComplete()
}

// bindIdent unifies the variable named x with v.
func bindIdent(env *Env, x Ident, v value.ValueOrVar) error {
	target := env.Get(x)
	if target == nil {
		return &UndefinedIdentError{Ident: x}
	}
	return value.Unify(target, v)
}
