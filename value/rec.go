// File: value/rec.go
package value

import (
	"fmt"
	"sort"
)

// Rec is the read interface shared by complete and partial records. Tuples are
// records whose features are the integers 0..n-1.
type Rec interface {
	Value
	Label() Literal
	FieldCount() int
	FeatureAt(i int) Feature
	ValueAt(i int) ValueOrVar
	Select(f Feature) (ValueOrVar, bool)
	IsTuple() bool
}

// CompleteField is a field of a complete record.
type CompleteField struct {
	Feature Feature
	Value   Complete
}

// PartialField is a field whose value may still be an unbound variable or a
// partial record.
type PartialField struct {
	Feature Feature
	Value   ValueOrVar
}

// CompleteRec is a record whose fields are all complete. Complete records may
// be cyclic when produced by completing a cyclic partial record.
type CompleteRec struct {
	label  Literal
	fields []CompleteField
}

// PartialRec is a record holding at least one field that was unresolved when
// it was built. Fields reference variables and nested records directly, so a
// later binding is observed by every record that reaches it. Once the record
// is found complete the result is cached and reused.
type PartialRec struct {
	label     Literal
	fields    []PartialField
	completed *CompleteRec
}

// --- Construction ---

// NewCompleteRec sorts fields by feature. Duplicate features are an error.
func NewCompleteRec(label Literal, fields []CompleteField) (*CompleteRec, error) {
	fs := make([]CompleteField, len(fields))
	copy(fs, fields)
	sort.SliceStable(fs, func(i, j int) bool { return CompareFeatures(fs[i].Feature, fs[j].Feature) < 0 })
	for i := 1; i < len(fs); i++ {
		if CompareFeatures(fs[i-1].Feature, fs[i].Feature) == 0 {
			return nil, fmt.Errorf("duplicate feature %s", fs[i].Feature)
		}
	}
	return &CompleteRec{label: label, fields: fs}, nil
}

// NewCompleteTuple builds a tuple with implicit features 0..n-1.
func NewCompleteTuple(label Literal, values ...Complete) *CompleteRec {
	fs := make([]CompleteField, len(values))
	for i, v := range values {
		fs[i] = CompleteField{Feature: Int64(i), Value: v}
	}
	return &CompleteRec{label: label, fields: fs}
}

// NewPartialRec sorts fields by feature. Duplicate features are an error.
func NewPartialRec(label Literal, fields []PartialField) (*PartialRec, error) {
	fs := make([]PartialField, len(fields))
	copy(fs, fields)
	sort.SliceStable(fs, func(i, j int) bool { return CompareFeatures(fs[i].Feature, fs[j].Feature) < 0 })
	for i := 1; i < len(fs); i++ {
		if CompareFeatures(fs[i-1].Feature, fs[i].Feature) == 0 {
			return nil, fmt.Errorf("duplicate feature %s", fs[i].Feature)
		}
	}
	return &PartialRec{label: label, fields: fs}, nil
}

// NewPartialTuple builds a partial tuple with implicit features 0..n-1.
func NewPartialTuple(label Literal, values ...ValueOrVar) *PartialRec {
	fs := make([]PartialField, len(values))
	for i, v := range values {
		fs[i] = PartialField{Feature: Int64(i), Value: v}
	}
	return &PartialRec{label: label, fields: fs}
}

// NewRec returns a *CompleteRec when every field value is already complete,
// and a *PartialRec otherwise.
func NewRec(label Literal, fields []PartialField) (Rec, error) {
	cfs := make([]CompleteField, 0, len(fields))
	for _, f := range fields {
		c, ok := f.Value.(Complete)
		if !ok {
			return NewPartialRec(label, fields)
		}
		cfs = append(cfs, CompleteField{Feature: f.Feature, Value: c})
	}
	return NewCompleteRec(label, cfs)
}

// CompareFeatures orders features: booleans, chars, integers, then strings.
func CompareFeatures(a, b Feature) int {
	ra, rb := featureRank(a), featureRank(b)
	if ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case Bool:
		y := b.(Bool)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		}
		return 1
	case Char:
		return cmpOrdered(x, b.(Char))
	case Int64:
		return cmpOrdered(x, b.(Int64))
	case Str:
		return cmpOrdered(x, b.(Str))
	}
	return 0
}

func featureRank(f Feature) int {
	switch f.(type) {
	case Bool:
		return 0
	case Char:
		return 1
	case Int64:
		return 2
	default:
		return 3
	}
}

func cmpOrdered[T ~int32 | ~int64 | ~string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// --- CompleteRec ---

func (r *CompleteRec) ResolveValue() (Value, error)     { return r, nil }
func (r *CompleteRec) ResolveValueOrVar() ValueOrVar    { return r }
func (r *CompleteRec) CheckComplete() (Complete, error) { return r, nil }
func (r *CompleteRec) String() string                   { return Format(r) }
func (*CompleteRec) complete()                          {}

func (r *CompleteRec) Label() Literal            { return r.label }
func (r *CompleteRec) FieldCount() int           { return len(r.fields) }
func (r *CompleteRec) FeatureAt(i int) Feature   { return r.fields[i].Feature }
func (r *CompleteRec) ValueAt(i int) ValueOrVar  { return r.fields[i].Value }
func (r *CompleteRec) IsTuple() bool             { return isTuple(r) }
func (r *CompleteRec) Fields() []CompleteField   { return r.fields }
func (r *CompleteRec) CompleteAt(i int) Complete { return r.fields[i].Value }

// Select returns the value stored under f.
func (r *CompleteRec) Select(f Feature) (ValueOrVar, bool) {
	i := sort.Search(len(r.fields), func(i int) bool { return CompareFeatures(r.fields[i].Feature, f) >= 0 })
	if i < len(r.fields) && CompareFeatures(r.fields[i].Feature, f) == 0 {
		return r.fields[i].Value, true
	}
	return nil, false
}

// --- PartialRec ---

func (r *PartialRec) ResolveValue() (Value, error)  { return r, nil }
func (r *PartialRec) ResolveValueOrVar() ValueOrVar { return r }
func (r *PartialRec) String() string                { return Format(r) }

func (r *PartialRec) Label() Literal           { return r.label }
func (r *PartialRec) FieldCount() int          { return len(r.fields) }
func (r *PartialRec) FeatureAt(i int) Feature  { return r.fields[i].Feature }
func (r *PartialRec) ValueAt(i int) ValueOrVar { return r.fields[i].Value }
func (r *PartialRec) IsTuple() bool            { return isTuple(r) }

// Select returns the value or variable stored under f.
func (r *PartialRec) Select(f Feature) (ValueOrVar, bool) {
	i := sort.Search(len(r.fields), func(i int) bool { return CompareFeatures(r.fields[i].Feature, f) >= 0 })
	if i < len(r.fields) && CompareFeatures(r.fields[i].Feature, f) == 0 {
		return r.fields[i].Value, true
	}
	return nil, false
}

// CheckComplete walks the record graph. If every reachable variable is bound
// it returns the complete record (cyclic if the graph is cyclic) and caches it
// on every partial record that was visited; otherwise it returns a *WaitError
// naming the first unbound variable found.
func (r *PartialRec) CheckComplete() (Complete, error) {
	if r.completed != nil {
		return r.completed, nil
	}
	c := completer{memo: make(map[*PartialRec]*CompleteRec)}
	res, err := c.rec(r)
	if err != nil {
		return nil, err
	}
	for p, done := range c.memo {
		p.completed = done
	}
	return res, nil
}

type completer struct {
	memo map[*PartialRec]*CompleteRec
}

func (c *completer) rec(r *PartialRec) (*CompleteRec, error) {
	if r.completed != nil {
		return r.completed, nil
	}
	if done, ok := c.memo[r]; ok {
		return done, nil
	}
	out := &CompleteRec{label: r.label, fields: make([]CompleteField, len(r.fields))}
	c.memo[r] = out
	for i, f := range r.fields {
		v, err := f.Value.ResolveValue()
		if err != nil {
			return nil, err
		}
		cv, err := c.value(v)
		if err != nil {
			return nil, err
		}
		out.fields[i] = CompleteField{Feature: f.Feature, Value: cv}
	}
	return out, nil
}

func (c *completer) value(v Value) (Complete, error) {
	switch t := v.(type) {
	case Complete:
		return t, nil
	case *PartialRec:
		return c.rec(t)
	default:
		return v.CheckComplete()
	}
}

func isTuple(r Rec) bool {
	for i := 0; i < r.FieldCount(); i++ {
		if n, ok := r.FeatureAt(i).(Int64); !ok || int(n) != i {
			return false
		}
	}
	return true
}
