// File: kernel/proc.go
package kernel

import (
	"fmt"
	"sync/atomic"

	"github.com/lguibr/dflow/value"
)

// ProcDef is a procedure definition. Its free identifiers are computed once,
// when the definition is built.
type ProcDef struct {
	Name   string
	Params []Ident
	Body   Instr
	free   []Ident
}

// NewProcDef builds a procedure definition and runs the free-identifier pass
// over its body.
func NewProcDef(name string, params []Ident, body Instr) *ProcDef {
	return &ProcDef{Name: name, Params: params, Body: body, free: freeIdents(params, body)}
}

// NewFuncDef builds a function: a procedure whose last parameter, ReturnIdent,
// receives the result.
func NewFuncDef(name string, params []Ident, body Instr) *ProcDef {
	ps := make([]Ident, 0, len(params)+1)
	ps = append(ps, params...)
	ps = append(ps, ReturnIdent)
	return NewProcDef(name, ps, body)
}

// Arity is the number of parameters, including a function's result.
func (d *ProcDef) Arity() int { return len(d.Params) }

// FreeIdents returns the identifiers a closure over d captures.
func (d *ProcDef) FreeIdents() []Ident { return d.free }

// Closure is a procedure bound to a snapshot of the variables it references.
// Until it is complete a closure belongs to the machine that created it.
type Closure struct {
	value.HostObj
	Def *ProcDef
	Env *Env

	state atomic.Int32
}

const (
	closureUnchecked int32 = iota
	closureChecking
	closureComplete
)

func (c *Closure) ResolveValue() (value.Value, error)  { return c, nil }
func (c *Closure) ResolveValueOrVar() value.ValueOrVar { return c }

// CheckComplete requires every captured variable to be bound to a complete
// value, and returns a *value.WaitError naming the first one that is not.
// A closure reached again while it is being checked, as a recursive
// procedure reaches itself, counts as complete. Success is cached.
func (c *Closure) CheckComplete() (value.Complete, error) {
	if c.state.Load() != closureUnchecked {
		return c, nil
	}
	c.state.Store(closureChecking)
	for f := c.Env; f != nil; f = f.parent {
		for _, e := range f.entries {
			v, err := e.Var.ResolveValue()
			if err == nil {
				_, err = v.CheckComplete()
			}
			if err != nil {
				c.state.Store(closureUnchecked)
				return nil, err
			}
		}
	}
	c.state.Store(closureComplete)
	return c, nil
}

func (c *Closure) String() string {
	return fmt.Sprintf("<proc %s/%d>", c.Def.Name, c.Def.Arity())
}

// NativeProc is a procedure implemented in Go. Fn may return a
// *value.WaitError to suspend; it is then called again from scratch.
type NativeProc struct {
	value.HostObj
	Name  string
	Arity int
	Fn    func(m *Machine, args []*value.Var) error
}

func (p *NativeProc) ResolveValue() (value.Value, error)     { return p, nil }
func (p *NativeProc) ResolveValueOrVar() value.ValueOrVar    { return p }
func (p *NativeProc) CheckComplete() (value.Complete, error) { return p, nil }
func (p *NativeProc) String() string                         { return fmt.Sprintf("<native %s/%d>", p.Name, p.Arity) }

// NativeFunc wraps fn as a function of arity inputs plus a result.
func NativeFunc(name string, arity int, fn func(args []value.Value) (value.Value, error)) *NativeProc {
	return &NativeProc{
		Name:  name,
		Arity: arity + 1,
		Fn: func(_ *Machine, args []*value.Var) error {
			in := make([]value.Value, arity)
			for i := 0; i < arity; i++ {
				v, err := args[i].ResolveValue()
				if err != nil {
					return err
				}
				in[i] = v
			}
			out, err := fn(in)
			if err != nil {
				return err
			}
			return value.Unify(args[arity], out)
		},
	}
}

// CreateProcInstr binds Target to a closure over Def capturing Def's free
// identifiers from the current environment.
type CreateProcInstr struct {
	Target Ident
	Def    *ProcDef
}

func (p *CreateProcInstr) Compute(_ *Machine, env *Env) error {
	entries := make([]EnvEntry, len(p.Def.free))
	for i, x := range p.Def.free {
		v := env.Get(x)
		if v == nil {
			return &UndefinedIdentError{Ident: x}
		}
		entries[i] = EnvEntry{Ident: x, Var: v}
	}
	c := &Closure{Def: p.Def, Env: NewEnv(nil, entries...)}
	return bindIdent(env, p.Target, c)
}

func (p *CreateProcInstr) captureIdents(c *capture) {
	c.use(p.Target)
	for _, x := range p.Def.free {
		c.use(x)
	}
}

// ApplyInstr calls a closure or native procedure. Identifier arguments are
// passed by variable, immediates in a fresh bound variable.
type ApplyInstr struct {
	Proc Operand
	Args []Operand
}

func (a *ApplyInstr) Compute(m *Machine, env *Env) error {
	p, err := resolveValue(env, a.Proc)
	if err != nil {
		return err
	}
	args := make([]*value.Var, len(a.Args))
	for i, op := range a.Args {
		switch t := op.(type) {
		case Ident:
			v := env.Get(t)
			if v == nil {
				return &UndefinedIdentError{Ident: t}
			}
			args[i] = v
		case Imm:
			args[i] = value.NewBoundVar(t.Value)
		}
	}
	return m.Apply(p, args)
}

func (a *ApplyInstr) captureIdents(c *capture) {
	c.use(a.Proc)
	c.use(a.Args...)
}

// Apply pushes the body of proc applied to args.
func (m *Machine) Apply(proc value.Value, args []*value.Var) error {
	switch p := proc.(type) {
	case *Closure:
		if len(args) != p.Def.Arity() {
			return &InvalidArgCountError{Proc: p.Def.Name, Expected: p.Def.Arity(), Actual: len(args)}
		}
		entries := make([]EnvEntry, len(args))
		for i, v := range args {
			entries[i] = EnvEntry{Ident: p.Def.Params[i], Var: v}
		}
		m.Push(p.Def.Body, NewEnv(p.Env, entries...))
		return nil
	case *NativeProc:
		if len(args) != p.Arity {
			return &InvalidArgCountError{Proc: p.Name, Expected: p.Arity, Actual: len(args)}
		}
		return p.Fn(m, args)
	}
	return &TypeMismatchError{Instr: "apply", Expected: "procedure", Actual: proc}
}
