// File: kernel/control.go
package kernel

import "github.com/lguibr/dflow/value"

// IfInstr runs Then or Else depending on a Bool condition. Else may be nil.
type IfInstr struct {
	Cond Operand
	Then Instr
	Else Instr
}

func (i *IfInstr) Compute(m *Machine, env *Env) error {
	v, err := resolveValue(env, i.Cond)
	if err != nil {
		return err
	}
	b, ok := v.(value.Bool)
	if !ok {
		return &TypeMismatchError{Instr: "if", Expected: "Bool", Actual: v}
	}
	switch {
	case bool(b):
		m.Push(i.Then, env)
	case i.Else != nil:
		m.Push(i.Else, env)
	}
	return nil
}

func (i *IfInstr) captureIdents(c *capture) {
	c.use(i.Cond)
	i.Then.captureIdents(c)
	if i.Else != nil {
		i.Else.captureIdents(c)
	}
}

// TryInstr runs Body; a value thrown out of it is bound to CatchIdent and
// Handler runs instead.
type TryInstr struct {
	Body       Instr
	CatchIdent Ident
	Handler    Instr
}

func (t *TryInstr) Compute(m *Machine, env *Env) error {
	m.Push(&catchFrame{ident: t.CatchIdent, handler: t.Handler}, env)
	m.Push(t.Body, env)
	return nil
}

func (t *TryInstr) captureIdents(c *capture) {
	t.Body.captureIdents(c)
	c.enter()
	c.declare(t.CatchIdent)
	t.Handler.captureIdents(c)
	c.leave()
}

// catchFrame marks the end of a try body. Reached normally it does nothing.
type catchFrame struct {
	ident   Ident
	handler Instr
}

func (*catchFrame) Compute(*Machine, *Env) error { return nil }
func (*catchFrame) captureIdents(*capture)       {}

// ThrowInstr throws the value of Value.
type ThrowInstr struct {
	Value Operand
}

func (t *ThrowInstr) Compute(m *Machine, env *Env) error {
	v, err := resolveValue(env, t.Value)
	if err != nil {
		return err
	}
	return m.throw(v)
}

func (t *ThrowInstr) captureIdents(c *capture) { c.use(t.Value) }

// throwFrame throws a value injected by the host (see Machine.PushThrow).
type throwFrame struct {
	v value.Value
}

func (t *throwFrame) Compute(m *Machine, _ *Env) error { return m.throw(t.v) }
func (*throwFrame) captureIdents(*capture)            {}

// throw unwinds to the nearest catch frame. Jump targets on the way are
// discarded.
func (m *Machine) throw(v value.Value) error {
	for s := m.stack; s != nil; s = s.next {
		cf, ok := s.instr.(*catchFrame)
		if !ok {
			continue
		}
		env := NewEnv(s.env, EnvEntry{Ident: cf.ident, Var: value.NewBoundVar(v)})
		m.stack = s.next.Push(cf.handler, env)
		return nil
	}
	m.stack = nil
	return &UncaughtThrowError{Value: v}
}

// JumpCatchInstr runs Body; a JumpThrowInstr with the same Label inside it
// continues after this instruction. Loops compile break, continue and return
// to such labeled exits.
type JumpCatchInstr struct {
	Label string
	Body  Instr
}

func (j *JumpCatchInstr) Compute(m *Machine, env *Env) error {
	m.Push(&jumpFrame{label: j.Label}, env)
	m.Push(j.Body, env)
	return nil
}

func (j *JumpCatchInstr) captureIdents(c *capture) { j.Body.captureIdents(c) }

type jumpFrame struct {
	label string
}

func (*jumpFrame) Compute(*Machine, *Env) error { return nil }
func (*jumpFrame) captureIdents(*capture)       {}

// JumpThrowInstr exits to the innermost enclosing JumpCatchInstr with Label.
// Catch frames on the way are discarded.
type JumpThrowInstr struct {
	Label string
}

func (j *JumpThrowInstr) Compute(m *Machine, _ *Env) error {
	for s := m.stack; s != nil; s = s.next {
		if jf, ok := s.instr.(*jumpFrame); ok && jf.label == j.Label {
			m.stack = s.next
			return nil
		}
	}
	return &UnmatchedJumpError{Label: j.Label}
}

func (*JumpThrowInstr) captureIdents(*capture) {}
