// File: kernel/instr.go
package kernel

import "github.com/lguibr/dflow/value"

// Instr is one kernel instruction. Compute applies it against env, pushing any
// nested continuation onto the machine. Returning a *value.WaitError suspends
// the machine; the instruction is retried from scratch on re-entry, so an
// instruction must not bind anything before it can no longer block.
type Instr interface {
	Compute(m *Machine, env *Env) error
	captureIdents(c *capture)
}

// Id is shorthand for Ident{Name: name}.
func Id(name string) Ident { return Ident{Name: name} }

// SeqInstr runs its instructions in order.
type SeqInstr struct {
	Instrs []Instr
}

// Seq builds a sequence.
func Seq(instrs ...Instr) *SeqInstr { return &SeqInstr{Instrs: instrs} }

func (s *SeqInstr) Compute(m *Machine, env *Env) error {
	for i := len(s.Instrs) - 1; i >= 0; i-- {
		m.Push(s.Instrs[i], env)
	}
	return nil
}

func (s *SeqInstr) captureIdents(c *capture) {
	for _, in := range s.Instrs {
		in.captureIdents(c)
	}
}

// SkipInstr does nothing. It is the unit of work in scheduling tests.
type SkipInstr struct{}

func (SkipInstr) Compute(*Machine, *Env) error { return nil }
func (SkipInstr) captureIdents(*capture)       {}

// LocalInstr introduces fresh unbound variables for Idents around Body.
type LocalInstr struct {
	Idents []Ident
	Body   Instr
}

func (l *LocalInstr) Compute(m *Machine, env *Env) error {
	m.Push(l.Body, env.Extend(l.Idents...))
	return nil
}

func (l *LocalInstr) captureIdents(c *capture) {
	c.enter()
	for _, x := range l.Idents {
		c.declare(x)
	}
	l.Body.captureIdents(c)
	c.leave()
}

// BindInstr unifies two operands.
type BindInstr struct {
	A, B Operand
}

func (b *BindInstr) Compute(_ *Machine, env *Env) error {
	x, err := resolve(env, b.A)
	if err != nil {
		return err
	}
	y, err := resolve(env, b.B)
	if err != nil {
		return err
	}
	return value.Unify(x, y)
}

func (b *BindInstr) captureIdents(c *capture) { c.use(b.A, b.B) }

// ArithInstr binds Target to A op B.
type ArithInstr struct {
	Op     value.ArithOp
	A, B   Operand
	Target Ident
}

func (a *ArithInstr) Compute(_ *Machine, env *Env) error {
	x, err := resolveValue(env, a.A)
	if err != nil {
		return err
	}
	y, err := resolveValue(env, a.B)
	if err != nil {
		return err
	}
	r, err := value.Arith(a.Op, x, y)
	if err != nil {
		return err
	}
	return bindIdent(env, a.Target, r)
}

func (a *ArithInstr) captureIdents(c *capture) { c.use(a.A, a.B, a.Target) }

// NegateInstr binds Target to -A.
type NegateInstr struct {
	A      Operand
	Target Ident
}

func (n *NegateInstr) Compute(_ *Machine, env *Env) error {
	x, err := resolveValue(env, n.A)
	if err != nil {
		return err
	}
	r, err := value.Negate(x)
	if err != nil {
		return err
	}
	return bindIdent(env, n.Target, r)
}

func (n *NegateInstr) captureIdents(c *capture) { c.use(n.A, n.Target) }

// RelOp is a relational operator.
type RelOp int

const (
	RelEq RelOp = iota
	RelNe
	RelLt
	RelLe
	RelGt
	RelGe
)

func (op RelOp) String() string {
	return [...]string{"==", "!=", "<", "<=", ">", ">="}[op]
}

// RelInstr binds Target to the Bool result of A op B. Equality waits until both
// sides are complete; orderings apply to numbers, strings and chars.
type RelInstr struct {
	Op     RelOp
	A, B   Operand
	Target Ident
}

func (r *RelInstr) Compute(_ *Machine, env *Env) error {
	x, err := resolveComparable(env, r.A)
	if err != nil {
		return err
	}
	y, err := resolveComparable(env, r.B)
	if err != nil {
		return err
	}
	var result bool
	switch r.Op {
	case RelEq:
		result = value.Equal(x, y)
	case RelNe:
		result = !value.Equal(x, y)
	default:
		c, err := value.Compare(x, y)
		if err != nil {
			return err
		}
		switch r.Op {
		case RelLt:
			result = c < 0
		case RelLe:
			result = c <= 0
		case RelGt:
			result = c > 0
		case RelGe:
			result = c >= 0
		}
	}
	return bindIdent(env, r.Target, value.Bool(result))
}

func (r *RelInstr) captureIdents(c *capture) { c.use(r.A, r.B, r.Target) }

// resolveComparable resolves op to a value with no unbound variables inside. Values
// that can never be complete (cells) compare by identity.
func resolveComparable(env *Env, op Operand) (value.Value, error) {
	v, err := resolveValue(env, op)
	if err != nil {
		return nil, err
	}
	c, err := v.CheckComplete()
	if _, ok := IsBarrier(err); ok {
		return nil, err
	}
	if err != nil {
		return v, nil
	}
	return c, nil
}

// NotInstr binds Target to the negation of a Bool.
type NotInstr struct {
	A      Operand
	Target Ident
}

func (n *NotInstr) Compute(_ *Machine, env *Env) error {
	x, err := resolveValue(env, n.A)
	if err != nil {
		return err
	}
	b, ok := x.(value.Bool)
	if !ok {
		return &TypeMismatchError{Instr: "not", Expected: "Bool", Actual: x}
	}
	return bindIdent(env, n.Target, !b)
}

func (n *NotInstr) captureIdents(c *capture) { c.use(n.A, n.Target) }

// SelectInstr binds Target to Rec.Feature. On a partial record the field's
// variable itself is unified with Target, so selection does not wait for the
// field to bind.
type SelectInstr struct {
	Rec     Operand
	Feature value.Feature
	Target  Ident
}

func (s *SelectInstr) Compute(_ *Machine, env *Env) error {
	v, err := resolveValue(env, s.Rec)
	if err != nil {
		return err
	}
	rec, ok := v.(value.Rec)
	if !ok {
		return &TypeMismatchError{Instr: "select", Expected: "Rec", Actual: v}
	}
	f, ok := rec.Select(s.Feature)
	if !ok {
		return &NoSuchFeatureError{Rec: v, Feature: s.Feature}
	}
	return bindIdent(env, s.Target, f)
}

func (s *SelectInstr) captureIdents(c *capture) { c.use(s.Rec, s.Target) }
