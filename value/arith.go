// File: value/arith.go
package value

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// ArithOp names a binary arithmetic operation.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	}
	return fmt.Sprintf("ArithOp(%d)", int(op))
}

// ErrDivisionByZero is returned by integer and decimal division by zero.
var ErrDivisionByZero = errors.New("division by zero")

var decimalContext = apd.BaseContext.WithPrecision(34)

type numKind int

const (
	kindNone numKind = iota
	kindInt32
	kindInt64
	kindBigInt
	kindDec
	kindFlt32
	kindFlt64
)

func kindOf(v Value) numKind {
	switch v.(type) {
	case Int32:
		return kindInt32
	case Int64:
		return kindInt64
	case BigInt:
		return kindBigInt
	case Dec128:
		return kindDec
	case Flt32:
		return kindFlt32
	case Flt64:
		return kindFlt64
	}
	return kindNone
}

func isIntKind(k numKind) bool { return k >= kindInt32 && k <= kindBigInt }
func isFltKind(k numKind) bool { return k == kindFlt32 || k == kindFlt64 }

// Arith applies op to two resolved values. Integers widen Int32 → Int64 →
// BigInt as needed to hold the exact result; integers mixed with floats yield
// floats, integers mixed with decimals yield decimals. Decimals never mix
// with floats. Str supports + as concatenation.
func Arith(op ArithOp, a, b Value) (Value, error) {
	ka, kb := kindOf(a), kindOf(b)
	switch {
	case ka == kindNone || kb == kindNone:
		if sa, ok := a.(Str); ok && op == OpAdd {
			if sb, ok := b.(Str); ok {
				return sa + sb, nil
			}
		}
		return nil, &TypeConflictError{A: a, B: b}
	case isIntKind(ka) && isIntKind(kb):
		return intArith(op, max(ka, kb), toBig(a), toBig(b))
	case (ka == kindDec || isIntKind(ka)) && (kb == kindDec || isIntKind(kb)):
		return decArith(op, toDec(a), toDec(b))
	case (isFltKind(ka) || isIntKind(ka)) && (isFltKind(kb) || isIntKind(kb)):
		r, err := fltArith(op, toFloat(a), toFloat(b))
		if err != nil {
			return nil, err
		}
		if ka != kindFlt64 && kb != kindFlt64 {
			return Flt32(r), nil
		}
		return Flt64(r), nil
	}
	return nil, &TypeConflictError{A: a, B: b}
}

// Negate returns -a.
func Negate(a Value) (Value, error) {
	switch t := a.(type) {
	case Int32:
		if t == math.MinInt32 {
			return Int64(-int64(t)), nil
		}
		return -t, nil
	case Int64:
		if t == math.MinInt64 {
			return BigInt{v: new(big.Int).Neg(big.NewInt(int64(t)))}, nil
		}
		return -t, nil
	case BigInt:
		return normalizeInt(kindBigInt, new(big.Int).Neg(t.v)), nil
	case Dec128:
		d := new(apd.Decimal)
		d.Neg(t.v)
		return Dec128{v: d}, nil
	case Flt32:
		return -t, nil
	case Flt64:
		return -t, nil
	}
	return nil, fmt.Errorf("cannot negate %s value %s", TypeName(a), Format(a))
}

// Compare orders two resolved values: numbers (with the same widening as
// Arith), strings, and chars.
func Compare(a, b Value) (int, error) {
	ka, kb := kindOf(a), kindOf(b)
	switch {
	case ka == kindNone || kb == kindNone:
		switch x := a.(type) {
		case Str:
			if y, ok := b.(Str); ok {
				return cmpOrdered(x, y), nil
			}
		case Char:
			if y, ok := b.(Char); ok {
				return cmpOrdered(x, y), nil
			}
		}
		return 0, &TypeConflictError{A: a, B: b}
	case isIntKind(ka) && isIntKind(kb):
		return toBig(a).Cmp(toBig(b)), nil
	case (ka == kindDec || isIntKind(ka)) && (kb == kindDec || isIntKind(kb)):
		return toDec(a).Cmp(toDec(b)), nil
	case (isFltKind(ka) || isIntKind(ka)) && (isFltKind(kb) || isIntKind(kb)):
		x, y := toFloat(a), toFloat(b)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	return 0, &TypeConflictError{A: a, B: b}
}

func intArith(op ArithOp, k numKind, x, y *big.Int) (Value, error) {
	r := new(big.Int)
	switch op {
	case OpAdd:
		r.Add(x, y)
	case OpSub:
		r.Sub(x, y)
	case OpMul:
		r.Mul(x, y)
	case OpDiv:
		if y.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		r.Quo(x, y)
	case OpMod:
		if y.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		r.Rem(x, y)
	default:
		return nil, fmt.Errorf("unknown arithmetic operation %s", op)
	}
	return normalizeInt(k, r), nil
}

// normalizeInt returns r as Int32 when both operands were Int32 and it fits,
// as Int64 when it fits in 64 bits, and as BigInt otherwise. A BigInt is
// therefore always outside the Int64 range.
func normalizeInt(k numKind, r *big.Int) Value {
	if r.IsInt64() {
		n := r.Int64()
		if k == kindInt32 && n >= math.MinInt32 && n <= math.MaxInt32 {
			return Int32(n)
		}
		return Int64(n)
	}
	return BigInt{v: r}
}

func decArith(op ArithOp, x, y *apd.Decimal) (Value, error) {
	d := new(apd.Decimal)
	var err error
	switch op {
	case OpAdd:
		_, err = decimalContext.Add(d, x, y)
	case OpSub:
		_, err = decimalContext.Sub(d, x, y)
	case OpMul:
		_, err = decimalContext.Mul(d, x, y)
	case OpDiv:
		if y.IsZero() {
			return nil, ErrDivisionByZero
		}
		_, err = decimalContext.Quo(d, x, y)
	case OpMod:
		if y.IsZero() {
			return nil, ErrDivisionByZero
		}
		_, err = decimalContext.Rem(d, x, y)
	default:
		return nil, fmt.Errorf("unknown arithmetic operation %s", op)
	}
	if err != nil {
		return nil, fmt.Errorf("decimal %s: %w", op, err)
	}
	return Dec128{v: d}, nil
}

func fltArith(op ArithOp, x, y float64) (float64, error) {
	switch op {
	case OpAdd:
		return x + y, nil
	case OpSub:
		return x - y, nil
	case OpMul:
		return x * y, nil
	case OpDiv:
		return x / y, nil
	case OpMod:
		return math.Mod(x, y), nil
	}
	return 0, fmt.Errorf("unknown arithmetic operation %s", op)
}

func toBig(v Value) *big.Int {
	switch t := v.(type) {
	case Int32:
		return big.NewInt(int64(t))
	case Int64:
		return big.NewInt(int64(t))
	case BigInt:
		return t.v
	}
	return nil
}

func toDec(v Value) *apd.Decimal {
	switch t := v.(type) {
	case Dec128:
		return t.v
	case Int32:
		return apd.New(int64(t), 0)
	case Int64:
		return apd.New(int64(t), 0)
	case BigInt:
		return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(t.v), 0)
	}
	return nil
}

func toFloat(v Value) float64 {
	switch t := v.(type) {
	case Int32:
		return float64(t)
	case Int64:
		return float64(t)
	case BigInt:
		f, _ := new(big.Float).SetInt(t.v).Float64()
		return f
	case Flt32:
		return float64(t)
	case Flt64:
		return float64(t)
	}
	return math.NaN()
}
