// File: value/scalar.go
package value

import (
	"fmt"
	"math/big"
	"strconv"
	"sync/atomic"

	"github.com/cockroachdb/apd/v3"
)

// --- Scalar Types ---

type Bool bool
type Int32 int32
type Int64 int64
type Flt32 float32
type Flt64 float64
type Str string
type Char rune

// BigInt is an arbitrary-width integer. The wrapped *big.Int is never mutated.
type BigInt struct {
	v *big.Int
}

// Dec128 is a decimal with 34 significant digits. The wrapped decimal is never mutated.
type Dec128 struct {
	v *apd.Decimal
}

// Eof marks the end of a stream.
type Eof struct{}

// Null is the absent value.
type Null struct{}

// Token is an unforgeable value: two tokens are equal only if they are the same token.
type Token struct {
	id uint64
}

var tokenCounter atomic.Uint64

const (
	True  = Bool(true)
	False = Bool(false)
)

// NewToken returns a fresh token.
func NewToken() *Token {
	return &Token{id: tokenCounter.Add(1)}
}

// NewBigInt copies i into a BigInt.
func NewBigInt(i *big.Int) BigInt {
	return BigInt{v: new(big.Int).Set(i)}
}

// Big returns a copy of the wrapped integer.
func (v BigInt) Big() *big.Int { return new(big.Int).Set(v.v) }

// NewDec128 parses a decimal literal.
func NewDec128(s string) (Dec128, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Dec128{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return Dec128{v: d}, nil
}

// Decimal returns a copy of the wrapped decimal.
func (v Dec128) Decimal() *apd.Decimal { return new(apd.Decimal).Set(v.v) }

// --- ValueOrVar / Value / Complete plumbing ---

func (v Bool) ResolveValue() (Value, error)      { return v, nil }
func (v Bool) ResolveValueOrVar() ValueOrVar     { return v }
func (v Bool) CheckComplete() (Complete, error)  { return v, nil }
func (v Bool) String() string                    { return strconv.FormatBool(bool(v)) }
func (Bool) complete()                           {}
func (Bool) literal()                            {}
func (Bool) feature()                            {}
func (v Int32) ResolveValue() (Value, error)     { return v, nil }
func (v Int32) ResolveValueOrVar() ValueOrVar    { return v }
func (v Int32) CheckComplete() (Complete, error) { return v, nil }
func (v Int32) String() string                   { return strconv.FormatInt(int64(v), 10) + "i32" }
func (Int32) complete()                          {}
func (Int32) literal()                           {}
func (v Int64) ResolveValue() (Value, error)     { return v, nil }
func (v Int64) ResolveValueOrVar() ValueOrVar    { return v }
func (v Int64) CheckComplete() (Complete, error) { return v, nil }
func (v Int64) String() string                   { return strconv.FormatInt(int64(v), 10) }
func (Int64) complete()                          {}
func (Int64) literal()                           {}
func (Int64) feature()                           {}

func (v BigInt) ResolveValue() (Value, error)     { return v, nil }
func (v BigInt) ResolveValueOrVar() ValueOrVar    { return v }
func (v BigInt) CheckComplete() (Complete, error) { return v, nil }
func (v BigInt) String() string                   { return v.v.String() + "n" }
func (BigInt) complete()                          {}
func (BigInt) literal()                           {}

func (v Dec128) ResolveValue() (Value, error)     { return v, nil }
func (v Dec128) ResolveValueOrVar() ValueOrVar    { return v }
func (v Dec128) CheckComplete() (Complete, error) { return v, nil }
func (v Dec128) String() string                   { return v.v.String() + "m" }
func (Dec128) complete()                          {}
func (Dec128) literal()                           {}

func (v Flt32) ResolveValue() (Value, error)     { return v, nil }
func (v Flt32) ResolveValueOrVar() ValueOrVar    { return v }
func (v Flt32) CheckComplete() (Complete, error) { return v, nil }
func (v Flt32) String() string                   { return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f32" }
func (Flt32) complete()                          {}
func (Flt32) literal()                           {}
func (v Flt64) ResolveValue() (Value, error)     { return v, nil }
func (v Flt64) ResolveValueOrVar() ValueOrVar    { return v }
func (v Flt64) CheckComplete() (Complete, error) { return v, nil }
func (v Flt64) String() string                   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (Flt64) complete()                          {}
func (Flt64) literal()                           {}

func (v Str) ResolveValue() (Value, error)      { return v, nil }
func (v Str) ResolveValueOrVar() ValueOrVar     { return v }
func (v Str) CheckComplete() (Complete, error)  { return v, nil }
func (v Str) String() string                    { return strconv.Quote(string(v)) }
func (Str) complete()                           {}
func (Str) literal()                            {}
func (Str) feature()                            {}
func (v Char) ResolveValue() (Value, error)     { return v, nil }
func (v Char) ResolveValueOrVar() ValueOrVar    { return v }
func (v Char) CheckComplete() (Complete, error) { return v, nil }
func (v Char) String() string                   { return strconv.QuoteRune(rune(v)) }
func (Char) complete()                          {}
func (Char) literal()                           {}
func (Char) feature()                           {}

func (v Eof) ResolveValue() (Value, error)      { return v, nil }
func (v Eof) ResolveValueOrVar() ValueOrVar     { return v }
func (v Eof) CheckComplete() (Complete, error)  { return v, nil }
func (Eof) String() string                      { return "eof" }
func (Eof) complete()                           {}
func (Eof) literal()                            {}
func (v Null) ResolveValue() (Value, error)     { return v, nil }
func (v Null) ResolveValueOrVar() ValueOrVar    { return v }
func (v Null) CheckComplete() (Complete, error) { return v, nil }
func (Null) String() string                     { return "null" }
func (Null) complete()                          {}
func (Null) literal()                           {}

func (v *Token) ResolveValue() (Value, error)     { return v, nil }
func (v *Token) ResolveValueOrVar() ValueOrVar    { return v }
func (v *Token) CheckComplete() (Complete, error) { return v, nil }
func (v *Token) String() string                   { return fmt.Sprintf("<token %d>", v.id) }
func (*Token) complete()                          {}
