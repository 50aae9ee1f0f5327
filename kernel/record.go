// File: kernel/record.go
package kernel

import "github.com/lguibr/dflow/value"

// FieldValue is the value expression of a record field: an identifier, an
// immediate, or a nested *RecDef.
type FieldValue interface {
	fieldValue()
}

func (Ident) fieldValue()   {}
func (Imm) fieldValue()     {}
func (*RecDef) fieldValue() {}

// FieldDef is one field of a record definition.
type FieldDef struct {
	Feature value.Feature
	Value   FieldValue
}

// RecDef describes a record to build. Tuples are records with features 0..n-1.
type RecDef struct {
	Label  value.Literal
	Fields []FieldDef
}

// TupleDef builds the definition of a tuple.
func TupleDef(label value.Literal, values ...FieldValue) *RecDef {
	fields := make([]FieldDef, len(values))
	for i, v := range values {
		fields[i] = FieldDef{Feature: value.Int64(i), Value: v}
	}
	return &RecDef{Label: label, Fields: fields}
}

// build constructs the record. Nested definitions are built first and
// embedded by direct reference, and bound identifiers contribute their
// value rather than their variable, so every structure that shares a nested
// record observes its later bindings and cycles are detected by identity.
func (d *RecDef) build(env *Env) (value.Rec, error) {
	fields := make([]value.PartialField, len(d.Fields))
	for i, f := range d.Fields {
		var v value.ValueOrVar
		switch t := f.Value.(type) {
		case Ident:
			x := env.Get(t)
			if x == nil {
				return nil, &UndefinedIdentError{Ident: t}
			}
			v = x.ResolveValueOrVar()
		case Imm:
			v = t.Value
		case *RecDef:
			nested, err := t.build(env)
			if err != nil {
				return nil, err
			}
			v = nested
		}
		fields[i] = value.PartialField{Feature: f.Feature, Value: v}
	}
	return value.NewRec(d.Label, fields)
}

func (d *RecDef) captureIdents(c *capture) {
	for _, f := range d.Fields {
		switch t := f.Value.(type) {
		case Ident:
			c.use(t)
		case *RecDef:
			t.captureIdents(c)
		}
	}
}

// CreateRecInstr builds Def and unifies the result with Target.
type CreateRecInstr struct {
	Target Ident
	Def    *RecDef
}

func (r *CreateRecInstr) Compute(_ *Machine, env *Env) error {
	rec, err := r.Def.build(env)
	if err != nil {
		return err
	}
	return bindIdent(env, r.Target, rec)
}

func (r *CreateRecInstr) captureIdents(c *capture) {
	c.use(r.Target)
	r.Def.captureIdents(c)
}
