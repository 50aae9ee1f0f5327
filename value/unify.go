// File: value/unify.go
package value

// Unify makes a and b denote the same value.
//
//   - same class or equal values: nothing to do
//   - two free variables: their classes are merged
//   - a free variable and a value: the whole class is bound to the value
//   - two records: label, arity and features must match, then fields are
//     unified pairwise
//
// A record pair already being unified is skipped, so cyclic structures
// terminate. Unify is not transactional: bindings made before a failure are
// kept, as in any single-assignment store.
func Unify(a, b ValueOrVar) error {
	u := unifier{seen: make(map[[2]Rec]bool)}
	return u.unify(a, b)
}

type unifier struct {
	seen map[[2]Rec]bool
}

func (u *unifier) unify(a, b ValueOrVar) error {
	a, b = a.ResolveValueOrVar(), b.ResolveValueOrVar()
	av, aIsVar := a.(*Var)
	bv, bIsVar := b.(*Var)
	switch {
	case aIsVar && bIsVar:
		union(av, bv)
		return nil
	case aIsVar:
		av.value = b.(Value)
		return nil
	case bIsVar:
		bv.value = a.(Value)
		return nil
	}
	return u.values(a.(Value), b.(Value))
}

func (u *unifier) values(a, b Value) error {
	ar, aIsRec := a.(Rec)
	br, bIsRec := b.(Rec)
	if aIsRec && bIsRec {
		return u.recs(ar, br)
	}
	if aIsRec || bIsRec {
		return &TypeConflictError{A: a, B: b}
	}
	if Equal(a, b) {
		return nil
	}
	if TypeName(a) != TypeName(b) {
		return &TypeConflictError{A: a, B: b}
	}
	return &UnificationError{A: a, B: b, Reason: "values differ"}
}

func (u *unifier) recs(a, b Rec) error {
	if a == b {
		return nil
	}
	key := [2]Rec{a, b}
	if u.seen[key] {
		return nil
	}
	u.seen[key] = true
	if !labelsEqual(a.Label(), b.Label()) {
		return &UnificationError{A: a, B: b, Reason: "labels differ"}
	}
	if a.FieldCount() != b.FieldCount() {
		return &UnificationError{A: a, B: b, Reason: "arities differ"}
	}
	for i := 0; i < a.FieldCount(); i++ {
		fa, fb := a.FeatureAt(i), b.FeatureAt(i)
		if CompareFeatures(fa, fb) != 0 {
			missing := fa
			if CompareFeatures(fb, fa) < 0 {
				missing = fb
			}
			return &UnificationError{A: a, B: b, Feature: missing, Reason: "feature missing on one side"}
		}
		if err := u.unify(a.ValueAt(i), b.ValueAt(i)); err != nil {
			if ue, ok := err.(*UnificationError); ok && ue.Feature == nil {
				return &UnificationError{A: a, B: b, Feature: fa, Reason: ue.Error()}
			}
			if _, ok := err.(*TypeConflictError); ok {
				return &UnificationError{A: a, B: b, Feature: fa, Reason: err.Error()}
			}
			return err
		}
	}
	return nil
}

func labelsEqual(a, b Literal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Equal(a, b)
}
