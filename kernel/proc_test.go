package kernel

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/dflow/value"
)

func TestClosure_CapturesOnlyFreeIdents(t *testing.T) {
	def := NewFuncDef("addX", []Ident{Id("a")}, &LocalInstr{
		Idents: []Ident{Id("tmp")},
		Body: Seq(
			&ArithInstr{Op: value.OpAdd, A: Id("a"), B: Id("x"), Target: Id("tmp")},
			&BindInstr{A: ReturnIdent, B: Id("tmp")},
		),
	})
	assert.Equal(t, []Ident{Id("x")}, def.FreeIdents())
	assert.Equal(t, 2, def.Arity())

	env := runToEnd(t, Seq(
		&BindInstr{A: Id("x"), B: lit(value.Int64(10))},
		&CreateProcInstr{Target: Id("f"), Def: def},
		&ApplyInstr{Proc: Id("f"), Args: []Operand{lit(value.Int64(5)), Id("r")}},
	), Id("x"), Id("f"), Id("unrelated"), Id("r"))
	assert.Equal(t, value.Int64(15), valueOf(t, env, "r"))

	c := valueOf(t, env, "f").(*Closure)
	assert.NotNil(t, c.Env.Get(Id("x")))
	assert.Nil(t, c.Env.Get(Id("unrelated")), "closure must not capture unused identifiers")
}

func TestClosure_NestedProcPropagatesFreeIdents(t *testing.T) {
	inner := NewProcDef("inner", nil, &BindInstr{A: Id("out"), B: Id("y")})
	outer := NewProcDef("outer", nil, Seq(
		&LocalInstr{Idents: []Ident{Id("g")}, Body: Seq(
			&CreateProcInstr{Target: Id("g"), Def: inner},
			&ApplyInstr{Proc: Id("g")},
		)},
	))
	assert.ElementsMatch(t, []Ident{Id("out"), Id("y")}, outer.FreeIdents())
}

func TestApply_InvalidArgCount(t *testing.T) {
	def := NewProcDef("two", []Ident{Id("a"), Id("b")}, SkipInstr{})
	env := NewEnv(nil).Extend(Id("p"))
	m := NewMachine(nil)
	m.Push(Seq(
		&CreateProcInstr{Target: Id("p"), Def: def},
		&ApplyInstr{Proc: Id("p"), Args: []Operand{lit(value.Int64(1))}},
	), env)
	_, err := m.Compute(0)
	var iae *InvalidArgCountError
	require.True(t, errors.As(err, &iae))
	assert.Equal(t, 2, iae.Expected)
	assert.Equal(t, 1, iae.Actual)
}

func TestApply_UndefinedFreeIdent(t *testing.T) {
	def := NewProcDef("p", nil, &BindInstr{A: Id("missing"), B: lit(value.Null{})})
	m := NewMachine(nil)
	m.Push(&CreateProcInstr{Target: Id("p"), Def: def}, NewEnv(nil).Extend(Id("p")))
	_, err := m.Compute(0)
	var ue *UndefinedIdentError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "missing", ue.Ident.Name)
}

func factorialProgram() (Instr, []Ident) {
	n := Id("n")
	body := &LocalInstr{Idents: []Ident{Id("z")}, Body: Seq(
		&RelInstr{Op: RelEq, A: n, B: lit(value.Int64(0)), Target: Id("z")},
		&IfInstr{
			Cond: Id("z"),
			Then: &BindInstr{A: ReturnIdent, B: lit(value.Int64(1))},
			Else: &LocalInstr{Idents: []Ident{Id("m"), Id("s")}, Body: Seq(
				&ArithInstr{Op: value.OpSub, A: n, B: lit(value.Int64(1)), Target: Id("m")},
				&ApplyInstr{Proc: Id("fact"), Args: []Operand{Id("m"), Id("s")}},
				&ArithInstr{Op: value.OpMul, A: n, B: Id("s"), Target: ReturnIdent},
			)},
		},
	)}
	def := NewFuncDef("fact", []Ident{n}, body)
	return Seq(
		&CreateProcInstr{Target: Id("fact"), Def: def},
		&ApplyInstr{Proc: Id("fact"), Args: []Operand{lit(value.Int64(10)), Id("out")}},
	), []Ident{Id("fact"), Id("out")}
}

func TestRecursiveClosure(t *testing.T) {
	prog, idents := factorialProgram()
	env := runToEnd(t, prog, idents...)
	assert.Equal(t, value.Int64(3628800), valueOf(t, env, "out"))
}

func TestRecursiveClosure_SameResultUnderPreemption(t *testing.T) {
	prog, idents := factorialProgram()
	env := NewEnv(nil).Extend(idents...)
	m := NewMachine(nil)
	m.Push(prog, env)
	preempts := 0
	for {
		out, err := m.Compute(7)
		require.NoError(t, err)
		if out.Kind == End {
			break
		}
		preempts++
	}
	assert.Greater(t, preempts, 0)
	assert.Equal(t, value.Int64(3628800), valueOf(t, env, "out"))
}

func TestNativeFunc(t *testing.T) {
	toStr := NativeFunc("Int.toStr", 1, func(args []value.Value) (value.Value, error) {
		i, ok := args[0].(value.Int64)
		if !ok {
			return nil, &TypeMismatchError{Instr: "Int.toStr", Expected: "Int64", Actual: args[0]}
		}
		return value.Str(strconv.FormatInt(int64(i), 10)), nil
	})
	env := NewEnv(nil).Extend(Id("n"), Id("s"))
	env = NewEnv(env, EnvEntry{Ident: Id("toStr"), Var: value.NewBoundVar(toStr)})
	m := NewMachine(nil)
	m.Push(&ApplyInstr{Proc: Id("toStr"), Args: []Operand{Id("n"), Id("s")}}, env)

	out, err := m.Compute(0)
	require.NoError(t, err)
	require.Equal(t, Suspend, out.Kind, "native waits for its input")

	require.NoError(t, env.Get(Id("n")).BindToValue(value.Int64(42)))
	out, err = m.Compute(0)
	require.NoError(t, err)
	assert.Equal(t, End, out.Kind)
	assert.Equal(t, value.Str("42"), valueOf(t, env, "s"))
}
