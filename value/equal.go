// File: value/equal.go
package value

// Equal reports whether a and b denote the same value. Variables are resolved
// first; two unbound variables are equal only when they share a class. Record
// comparison tracks the pairs under comparison, so cyclic records terminate
// (a pair revisited while still being compared is assumed equal).
func Equal(a, b ValueOrVar) bool {
	e := equaler{seen: make(map[[2]Rec]bool)}
	return e.equal(a, b)
}

type equaler struct {
	seen map[[2]Rec]bool
}

func (e *equaler) equal(a, b ValueOrVar) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	a, b = a.ResolveValueOrVar(), b.ResolveValueOrVar()
	if av, ok := a.(*Var); ok {
		bv, ok := b.(*Var)
		return ok && av == bv
	}
	if _, ok := b.(*Var); ok {
		return false
	}
	switch x := a.(type) {
	case Rec:
		y, ok := b.(Rec)
		if !ok {
			return false
		}
		return e.rec(x, y)
	case BigInt:
		y, ok := b.(BigInt)
		return ok && x.v.Cmp(y.v) == 0
	case Dec128:
		y, ok := b.(Dec128)
		return ok && x.v.Cmp(y.v) == 0
	case *FailedValue:
		y, ok := b.(*FailedValue)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		if x.Owner != y.Owner || x.Message != y.Message || x.Details != y.Details {
			return false
		}
		if x.Cause == nil || y.Cause == nil {
			return x.Cause == nil && y.Cause == nil
		}
		return e.equal(x.Cause, y.Cause)
	default:
		return a == b
	}
}

func (e *equaler) rec(x, y Rec) bool {
	if x == y {
		return true
	}
	key := [2]Rec{x, y}
	if e.seen[key] {
		return true
	}
	e.seen[key] = true
	if !e.label(x.Label(), y.Label()) || x.FieldCount() != y.FieldCount() {
		return false
	}
	for i := 0; i < x.FieldCount(); i++ {
		if CompareFeatures(x.FeatureAt(i), y.FeatureAt(i)) != 0 {
			return false
		}
		if !e.equal(x.ValueAt(i), y.ValueAt(i)) {
			return false
		}
	}
	return true
}

func (e *equaler) label(a, b Literal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return e.equal(a, b)
}
