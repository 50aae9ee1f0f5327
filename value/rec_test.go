package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialRec_ConvergesWhenLastFieldBinds(t *testing.T) {
	x := NewVar()
	inner, err := NewPartialRec(Str("inner"), []PartialField{{Feature: Str("v"), Value: x}})
	require.NoError(t, err)
	// Two outer structures reference the same partial record directly.
	outerA := NewPartialTuple(nil, inner, Int64(1))
	outerB := NewPartialTuple(Str("b"), inner)

	_, err = outerA.CheckComplete()
	var we *WaitError
	require.True(t, errors.As(err, &we))
	assert.Same(t, x, we.Barrier)

	require.NoError(t, x.BindToValue(Str("done")))

	literalInner, err := NewCompleteRec(Str("inner"), []CompleteField{{Feature: Str("v"), Value: Str("done")}})
	require.NoError(t, err)
	literalA := NewCompleteTuple(nil, literalInner, Int64(1))

	ca, err := outerA.CheckComplete()
	require.NoError(t, err)
	assert.True(t, Equal(ca, literalA))
	assert.True(t, Equal(outerA, literalA), "partial record compares equal once bound")

	cb, err := outerB.CheckComplete()
	require.NoError(t, err)
	assert.True(t, Equal(cb, NewCompleteTuple(Str("b"), literalInner)))

	// Completion is cached, not recomputed.
	again, err := outerA.CheckComplete()
	require.NoError(t, err)
	assert.Same(t, ca, again)
}

func TestPartialRec_SelfReference(t *testing.T) {
	x := NewVar()
	r, err := NewPartialRec(Str("node"), []PartialField{
		{Feature: Str("next"), Value: x},
		{Feature: Str("v"), Value: Int64(7)},
	})
	require.NoError(t, err)
	require.NoError(t, x.BindToValue(r))

	assert.Equal(t, "node{next: <<cycle>>, v: 7}", Format(r))
	assert.True(t, Equal(r, r))

	c, err := r.CheckComplete()
	require.NoError(t, err)
	cr := c.(*CompleteRec)
	next, ok := cr.Select(Str("next"))
	require.True(t, ok)
	assert.Same(t, cr, next, "completion of a cyclic record is itself cyclic")
	assert.Equal(t, "node{next: <<cycle>>, v: 7}", cr.String())
	assert.True(t, Equal(cr, r))
}

func TestPartialRec_MutualReference(t *testing.T) {
	x, y := NewVar(), NewVar()
	a, _ := NewPartialRec(Str("a"), []PartialField{{Feature: Str("peer"), Value: y}})
	b, _ := NewPartialRec(Str("b"), []PartialField{{Feature: Str("peer"), Value: x}})
	require.NoError(t, x.BindToValue(a))
	require.NoError(t, y.BindToValue(b))

	assert.Equal(t, "a{peer: b{peer: <<cycle>>}}", Format(a))

	// Two separately built but isomorphic cycles are equal and unify.
	x2, y2 := NewVar(), NewVar()
	a2, _ := NewPartialRec(Str("a"), []PartialField{{Feature: Str("peer"), Value: y2}})
	b2, _ := NewPartialRec(Str("b"), []PartialField{{Feature: Str("peer"), Value: x2}})
	require.NoError(t, x2.BindToValue(a2))
	require.NoError(t, y2.BindToValue(b2))
	assert.True(t, Equal(a, a2))
	assert.NoError(t, Unify(a, a2))
}

func TestRec_FieldsSortedAndDuplicatesRejected(t *testing.T) {
	r, err := NewCompleteRec(nil, []CompleteField{
		{Feature: Str("b"), Value: Int64(2)},
		{Feature: Int64(0), Value: Int64(0)},
		{Feature: Str("a"), Value: Int64(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, Int64(0), r.FeatureAt(0))
	assert.Equal(t, Str("a"), r.FeatureAt(1))
	assert.Equal(t, Str("b"), r.FeatureAt(2))

	_, err = NewCompleteRec(nil, []CompleteField{
		{Feature: Str("a"), Value: Int64(1)},
		{Feature: Str("a"), Value: Int64(2)},
	})
	assert.Error(t, err)
}

func TestNewRec_PicksCompleteOrPartial(t *testing.T) {
	r, err := NewRec(nil, []PartialField{{Feature: Str("a"), Value: Int64(1)}})
	require.NoError(t, err)
	assert.IsType(t, &CompleteRec{}, r)

	r, err = NewRec(nil, []PartialField{{Feature: Str("a"), Value: NewVar()}})
	require.NoError(t, err)
	assert.IsType(t, &PartialRec{}, r)
}

func TestFormat(t *testing.T) {
	tup := NewCompleteTuple(nil, Int64(1), Str("two"), Bool(true))
	assert.Equal(t, `[1, "two", true]`, Format(tup))

	rec, _ := NewCompleteRec(Str("get"), []CompleteField{{Feature: Str("key"), Value: Str("k")}})
	assert.Equal(t, `get{key: "k"}`, Format(rec))

	x := NewVar()
	assert.Equal(t, x.Name(), Format(x))
}

func TestCell_NeverComplete(t *testing.T) {
	c := NewCell(Int64(0))
	_, err := c.CheckComplete()
	var nce *NotCompleteError
	assert.True(t, errors.As(err, &nce))

	r := NewPartialTuple(nil, c)
	_, err = r.CheckComplete()
	assert.True(t, errors.As(err, &nce))
}
