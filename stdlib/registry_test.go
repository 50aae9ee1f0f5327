package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/dflow/kernel"
	"github.com/lguibr/dflow/value"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"Actors", "Int", "Str"}, r.Modules())

	v, err := r.Lookup("Str.concat")
	require.NoError(t, err)
	assert.IsType(t, &kernel.NativeProc{}, v)

	_, err = r.Lookup("Str")
	assert.Error(t, err)
	_, err = r.Lookup("List.map")
	assert.Error(t, err)
	_, err = r.Lookup("Str.reverse")
	var nsf *kernel.NoSuchFeatureError
	assert.ErrorAs(t, err, &nsf)

	_, err = r.Image("Int.toStr")
	assert.Error(t, err)
	img, err := r.Image("Actors.Number")
	require.NoError(t, err)
	assert.Equal(t, 1, img.Arity())
}

func TestRegistry_NativesFromKernelCode(t *testing.T) {
	r := NewRegistry()
	env := r.Env().Extend(id("toStr"), id("concat"), id("s"), id("out"))
	body := kernel.Seq(
		&kernel.SelectInstr{Rec: id("Int"), Feature: value.Str("toStr"), Target: id("toStr")},
		&kernel.SelectInstr{Rec: id("Str"), Feature: value.Str("concat"), Target: id("concat")},
		&kernel.ApplyInstr{Proc: id("toStr"), Args: []kernel.Operand{imm(value.Int64(42)), id("s")}},
		&kernel.ApplyInstr{Proc: id("concat"), Args: []kernel.Operand{imm(value.Str("n=")), id("s"), id("out")}},
	)
	m := kernel.NewMachine(nil)
	m.Push(body, env)
	out, err := m.Compute(0)
	require.NoError(t, err)
	assert.Equal(t, kernel.End, out.Kind)

	got, err := env.Get(id("out")).ResolveValue()
	require.NoError(t, err)
	assert.Equal(t, value.Str("n=42"), got)
}

func TestRegistry_NativeTypeErrors(t *testing.T) {
	_, err := strConcat([]value.Value{value.Str("a"), value.Int64(1)})
	var tm *kernel.TypeMismatchError
	assert.ErrorAs(t, err, &tm)

	got, err := strSize([]value.Value{value.Str("héllo")})
	require.NoError(t, err)
	assert.Equal(t, value.Int64(5), got)
}
