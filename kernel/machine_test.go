package kernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/dflow/value"
)

func lit(v value.Complete) Imm { return Imm{Value: v} }

// runToEnd runs body in a fresh frame declaring idents and returns the frame.
func runToEnd(t *testing.T, body Instr, idents ...Ident) *Env {
	t.Helper()
	env := NewEnv(nil).Extend(idents...)
	m := NewMachine(nil)
	m.Push(body, env)
	out, err := m.Compute(0)
	require.NoError(t, err)
	require.Equal(t, End, out.Kind)
	return env
}

func valueOf(t *testing.T, env *Env, name string) value.Value {
	t.Helper()
	v, err := env.Get(Id(name)).ResolveValue()
	require.NoError(t, err)
	return v
}

func TestCompute_PreemptionFairness(t *testing.T) {
	testCases := []struct{ n, k int }{
		{10, 3}, {10, 5}, {10, 9}, {7, 1}, {100, 7},
	}
	for _, tc := range testCases {
		m := NewMachine(nil)
		for i := 0; i < tc.n; i++ {
			m.Push(SkipInstr{}, nil)
		}
		preempts := 0
		for {
			out, err := m.Compute(tc.k)
			require.NoError(t, err)
			if out.Kind == End {
				break
			}
			require.Equal(t, Preempt, out.Kind)
			preempts++
		}
		want := (tc.n+tc.k-1)/tc.k - 1
		assert.Equal(t, want, preempts, "n=%d k=%d", tc.n, tc.k)
		assert.Equal(t, tc.n, m.Steps(), "n=%d k=%d", tc.n, tc.k)
	}
}

func TestCompute_SuspendRetriesInstruction(t *testing.T) {
	env := NewEnv(nil).Extend(Id("x"), Id("y"))
	m := NewMachine(nil)
	m.Push(Seq(
		&ArithInstr{Op: value.OpAdd, A: Id("x"), B: lit(value.Int64(1)), Target: Id("y")},
		SkipInstr{},
	), env)

	out, err := m.Compute(0)
	require.NoError(t, err)
	require.Equal(t, Suspend, out.Kind)
	assert.Same(t, env.Get(Id("x")), out.Barrier)
	assert.Equal(t, 1, m.Steps(), "only the sequence itself completed")

	// Re-entering before the barrier binds suspends again without progress.
	out, err = m.Compute(0)
	require.NoError(t, err)
	require.Equal(t, Suspend, out.Kind)

	require.NoError(t, env.Get(Id("x")).BindToValue(value.Int64(41)))
	out, err = m.Compute(0)
	require.NoError(t, err)
	assert.Equal(t, End, out.Kind)
	assert.Equal(t, value.Int64(42), valueOf(t, env, "y"))
	assert.Equal(t, 3, m.Steps())
}

func TestCompute_Fault(t *testing.T) {
	m := NewMachine(nil)
	env := NewEnv(nil).Extend(Id("x"))
	m.Push(Seq(
		&BindInstr{A: Id("x"), B: lit(value.Int64(1))},
		&BindInstr{A: Id("x"), B: lit(value.Int64(2))},
	), env)
	_, err := m.Compute(0)
	var ue *value.UnificationError
	assert.True(t, errors.As(err, &ue))
}

func TestTryCatch(t *testing.T) {
	env := runToEnd(t, Seq(
		&TryInstr{
			Body: Seq(
				&ThrowInstr{Value: lit(value.Str("boom"))},
				&BindInstr{A: Id("r"), B: lit(value.Str("not reached"))},
			),
			CatchIdent: Id("e"),
			Handler:    &BindInstr{A: Id("r"), B: Id("e")},
		},
		&BindInstr{A: Id("after"), B: lit(value.True)},
	), Id("r"), Id("after"))
	assert.Equal(t, value.Str("boom"), valueOf(t, env, "r"))
	assert.Equal(t, value.True, valueOf(t, env, "after"))

	// No throw: the handler never runs.
	env = runToEnd(t, &TryInstr{
		Body:       &BindInstr{A: Id("r"), B: lit(value.Int64(1))},
		CatchIdent: Id("e"),
		Handler:    &BindInstr{A: Id("r"), B: lit(value.Int64(2))},
	}, Id("r"))
	assert.Equal(t, value.Int64(1), valueOf(t, env, "r"))
}

func TestThrow_Uncaught(t *testing.T) {
	m := NewMachine(nil)
	m.Push(&ThrowInstr{Value: lit(value.Int64(7))}, nil)
	_, err := m.Compute(0)
	var ute *UncaughtThrowError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, value.Int64(7), ute.Value)
	assert.True(t, m.Idle())
}

func TestPushThrow_CaughtByPendingTry(t *testing.T) {
	env := NewEnv(nil).Extend(Id("r"), Id("wait"))
	m := NewMachine(nil)
	m.Push(&TryInstr{
		Body:       &BindInstr{A: Id("r"), B: Id("wait")},
		CatchIdent: Id("e"),
		Handler:    &BindInstr{A: Id("r"), B: Id("e")},
	}, env)
	// Run only the try so its catch frame is on the stack.
	out, err := m.Compute(1)
	require.NoError(t, err)
	require.Equal(t, Preempt, out.Kind)

	m.PushThrow(value.Str("injected"))
	out, err = m.Compute(0)
	require.NoError(t, err)
	assert.Equal(t, End, out.Kind)
	assert.Equal(t, value.Str("injected"), valueOf(t, env, "r"))
}

func TestJumps(t *testing.T) {
	env := runToEnd(t, Seq(
		&JumpCatchInstr{Label: "break", Body: Seq(
			&BindInstr{A: Id("r"), B: lit(value.Int64(1))},
			&TryInstr{
				Body:       &JumpThrowInstr{Label: "break"},
				CatchIdent: Id("e"),
				Handler:    &BindInstr{A: Id("r"), B: lit(value.Int64(3))},
			},
			&BindInstr{A: Id("r"), B: lit(value.Int64(2))},
		)},
		&BindInstr{A: Id("after"), B: lit(value.True)},
	), Id("r"), Id("after"))
	assert.Equal(t, value.Int64(1), valueOf(t, env, "r"))
	assert.Equal(t, value.True, valueOf(t, env, "after"))

	m := NewMachine(nil)
	m.Push(&JumpThrowInstr{Label: "continue"}, nil)
	_, err := m.Compute(0)
	var uje *UnmatchedJumpError
	assert.True(t, errors.As(err, &uje))
}

func TestIf(t *testing.T) {
	env := runToEnd(t, Seq(
		&RelInstr{Op: RelLt, A: lit(value.Int64(1)), B: lit(value.Int32(2)), Target: Id("c")},
		&IfInstr{
			Cond: Id("c"),
			Then: &BindInstr{A: Id("r"), B: lit(value.Str("then"))},
			Else: &BindInstr{A: Id("r"), B: lit(value.Str("else"))},
		},
	), Id("c"), Id("r"))
	assert.Equal(t, value.Str("then"), valueOf(t, env, "r"))

	m := NewMachine(nil)
	m.Push(&IfInstr{Cond: lit(value.Int64(1)), Then: SkipInstr{}}, nil)
	_, err := m.Compute(0)
	var tme *TypeMismatchError
	assert.True(t, errors.As(err, &tme))
}

func TestCells(t *testing.T) {
	env := runToEnd(t, Seq(
		&NewCellInstr{Init: lit(value.Int64(0)), Target: Id("c")},
		&SetCellInstr{Cell: Id("c"), Value: lit(value.Int64(5))},
		&GetCellInstr{Cell: Id("c"), Target: Id("r")},
		&RelInstr{Op: RelEq, A: Id("c"), B: Id("c"), Target: Id("same")},
	), Id("c"), Id("r"), Id("same"))
	assert.Equal(t, value.Int64(5), valueOf(t, env, "r"))
	assert.Equal(t, value.True, valueOf(t, env, "same"))
}
