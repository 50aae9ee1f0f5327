package value

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArith(t *testing.T) {
	dec := func(s string) Dec128 {
		d, err := NewDec128(s)
		require.NoError(t, err)
		return d
	}
	testCases := []struct {
		name string
		op   ArithOp
		a, b Value
		want Value
	}{
		{"int64 add", OpAdd, Int64(1), Int64(2), Int64(3)},
		{"int32 stays narrow", OpMul, Int32(6), Int32(7), Int32(42)},
		{"int32 widens on overflow", OpMul, Int32(math.MaxInt32), Int32(2), Int64(2 * math.MaxInt32)},
		{"mixed ints widen", OpSub, Int32(5), Int64(7), Int64(-2)},
		{"int64 overflow to bigint", OpAdd, Int64(math.MaxInt64), Int64(1),
			NewBigInt(new(big.Int).Add(big.NewInt(math.MaxInt64), big.NewInt(1)))},
		{"integer division truncates", OpDiv, Int64(7), Int64(2), Int64(3)},
		{"modulo", OpMod, Int64(7), Int64(4), Int64(3)},
		{"float", OpDiv, Flt64(1), Int64(4), Flt64(0.25)},
		{"decimal", OpAdd, dec("0.1"), dec("0.2"), dec("0.3")},
		{"decimal with int", OpMul, dec("1.5"), Int64(2), dec("3.0")},
		{"string concat", OpAdd, Str("ab"), Str("cd"), Str("abcd")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Arith(tc.op, tc.a, tc.b)
			require.NoError(t, err)
			assert.True(t, Equal(tc.want, got), "got %s want %s", got, tc.want)
		})
	}
}

func TestArith_BigIntNarrowsBack(t *testing.T) {
	big20 := new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil)
	a := NewBigInt(big20)
	b := NewBigInt(new(big.Int).Sub(big20, big.NewInt(1)))

	got, err := Arith(OpSub, a, b)
	require.NoError(t, err)
	assert.Equal(t, Int64(1), got)
	assert.True(t, Equal(Int64(1), got))
	assert.NoError(t, Unify(Int64(1), got))

	got, err = Arith(OpDiv, a, NewBigInt(big20))
	require.NoError(t, err)
	assert.Equal(t, Int64(1), got)

	n, err := Negate(NewBigInt(new(big.Int).Neg(new(big.Int).SetUint64(1 << 63))))
	require.NoError(t, err)
	_, isBig := n.(BigInt)
	assert.True(t, isBig, "2^63 does not fit in Int64")
}

func TestArith_Errors(t *testing.T) {
	_, err := Arith(OpDiv, Int64(1), Int64(0))
	assert.True(t, errors.Is(err, ErrDivisionByZero))

	d, _ := NewDec128("1")
	_, err = Arith(OpAdd, d, Flt64(1))
	var te *TypeConflictError
	assert.True(t, errors.As(err, &te))

	_, err = Arith(OpSub, Str("a"), Str("b"))
	assert.True(t, errors.As(err, &te))
}

func TestCompareAndNegate(t *testing.T) {
	c, err := Compare(Int32(1), Int64(2))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = Compare(Str("b"), Str("a"))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = Compare(Flt64(2.5), Int64(2))
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	_, err = Compare(Bool(true), Int64(1))
	assert.Error(t, err)

	n, err := Negate(Int64(5))
	require.NoError(t, err)
	assert.Equal(t, Int64(-5), n)

	n, err = Negate(Int32(math.MinInt32))
	require.NoError(t, err)
	assert.Equal(t, Int64(-math.MinInt32), n)
}
