// File: value/json.go
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// JSON mapping used by the front door and the sqlite store:
//
//	Bool ↔ bool, Int64/BigInt ↔ integer, Flt64 ↔ number with a fraction or
//	exponent, Str ↔ string, Null ↔ null, unlabelled tuple ↔ array,
//	record with string features ↔ object, record label ↔ "$label",
//	Address ↔ {"$actor": id},
//	FailedValue ↔ {"$failed": {"owner", "message", "details", "cause"}}.
//
// Values the plain mapping would lose are tagged:
//
//	Int32 ↔ {"$int32": n}, Dec128 ↔ {"$dec": "text"}, Flt32 ↔ {"$flt32": n},
//	Char ↔ {"$char": "c"}, labelled tuple ↔ {"$label": l, "$tuple": [...]},
//	any other record ↔ {"$label": l, "$fields": [[feature, value], ...]}.
//
// Records whose string features start with "$" use the "$fields" form.
// Cyclic records cannot be encoded.

const (
	jsonLabelKey  = "$label"
	jsonActorKey  = "$actor"
	jsonFailedKey = "$failed"
	jsonInt32Key  = "$int32"
	jsonDecKey    = "$dec"
	jsonFlt32Key  = "$flt32"
	jsonCharKey   = "$char"
	jsonTupleKey  = "$tuple"
	jsonFieldsKey = "$fields"
)

// ToJSON converts a complete value into plain Go data suitable for encoding/json.
func ToJSON(v Complete) (any, error) {
	return toJSON(v, make(map[*CompleteRec]bool))
}

func toJSON(v Complete, visiting map[*CompleteRec]bool) (any, error) {
	switch t := v.(type) {
	case Bool:
		return bool(t), nil
	case Int32:
		return map[string]any{jsonInt32Key: int64(t)}, nil
	case Int64:
		return int64(t), nil
	case BigInt:
		return json.Number(t.v.String()), nil
	case Dec128:
		return map[string]any{jsonDecKey: t.v.Text('f')}, nil
	case Flt32:
		return map[string]any{jsonFlt32Key: float64(t)}, nil
	case Flt64:
		return floatNumber(float64(t))
	case Str:
		return string(t), nil
	case Char:
		return map[string]any{jsonCharKey: string(rune(t))}, nil
	case Null:
		return nil, nil
	case Address:
		return map[string]any{jsonActorKey: t.ID}, nil
	case Addressable:
		return map[string]any{jsonActorKey: t.Address().ID}, nil
	case *FailedValue:
		return map[string]any{jsonFailedKey: failedToJSON(t)}, nil
	case *CompleteRec:
		if visiting[t] {
			return nil, fmt.Errorf("cannot encode cyclic record as JSON")
		}
		visiting[t] = true
		defer delete(visiting, t)
		return recToJSON(t, visiting)
	}
	return nil, fmt.Errorf("%s value has no JSON form", TypeName(v))
}

func recToJSON(r *CompleteRec, visiting map[*CompleteRec]bool) (any, error) {
	values := func() ([]any, error) {
		out := make([]any, len(r.fields))
		for i, f := range r.fields {
			x, err := toJSON(f.Value, visiting)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	}
	if r.IsTuple() && r.label == nil {
		return values()
	}
	out := make(map[string]any, len(r.fields)+1)
	if r.label != nil {
		l, err := toJSON(r.label, visiting)
		if err != nil {
			return nil, err
		}
		out[jsonLabelKey] = l
	}
	switch {
	case r.IsTuple() && len(r.fields) > 0:
		vs, err := values()
		if err != nil {
			return nil, err
		}
		out[jsonTupleKey] = vs
	case hasPlainKeys(r):
		for _, f := range r.fields {
			x, err := toJSON(f.Value, visiting)
			if err != nil {
				return nil, err
			}
			out[string(f.Feature.(Str))] = x
		}
	default:
		pairs := make([]any, len(r.fields))
		for i, f := range r.fields {
			k, err := toJSON(f.Feature, visiting)
			if err != nil {
				return nil, err
			}
			x, err := toJSON(f.Value, visiting)
			if err != nil {
				return nil, err
			}
			pairs[i] = []any{k, x}
		}
		out[jsonFieldsKey] = pairs
	}
	return out, nil
}

// hasPlainKeys reports whether every feature of r is a string that cannot be
// mistaken for a tag.
func hasPlainKeys(r *CompleteRec) bool {
	for _, f := range r.fields {
		s, ok := f.Feature.(Str)
		if !ok || strings.HasPrefix(string(s), "$") {
			return false
		}
	}
	return true
}

// floatNumber renders f so that it decodes back as a float, never as an
// integer.
func floatNumber(f float64) (any, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("cannot encode %v as JSON", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s), nil
}

func failedToJSON(f *FailedValue) map[string]any {
	out := map[string]any{
		"owner":   f.Owner.ID,
		"message": f.Message,
		"details": f.Details,
	}
	if f.Cause != nil {
		out["cause"] = failedToJSON(f.Cause)
	}
	return out
}

// MarshalJSON encodes a complete value as JSON text.
func MarshalJSON(v Complete) ([]byte, error) {
	x, err := ToJSON(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(x)
}

// UnmarshalJSON decodes JSON text into a complete value.
func UnmarshalJSON(data []byte) (Complete, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, err
	}
	return FromJSON(x)
}

// FromJSON converts data produced by encoding/json (decoded with UseNumber or
// not) into a complete value.
func FromJSON(x any) (Complete, error) {
	switch t := x.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case float64:
		return Flt64(t), nil
	case int:
		return Int64(t), nil
	case int64:
		return Int64(t), nil
	case json.Number:
		return numberFromJSON(t)
	case []any:
		vs := make([]Complete, len(t))
		for i, e := range t {
			v, err := FromJSON(e)
			if err != nil {
				return nil, err
			}
			vs[i] = v
		}
		return NewCompleteTuple(nil, vs...), nil
	case map[string]any:
		return objectFromJSON(t)
	}
	return nil, fmt.Errorf("unsupported JSON value of type %T", x)
}

func numberFromJSON(n json.Number) (Complete, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Int64(i), nil
		}
		b, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return BigInt{v: b}, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return Flt64(f), nil
}

func objectFromJSON(m map[string]any) (Complete, error) {
	if len(m) == 1 {
		for k, x := range m {
			if v, ok, err := taggedFromJSON(k, x); ok || err != nil {
				return v, err
			}
		}
	}
	var label Literal
	if x, ok := m[jsonLabelKey]; ok {
		l, err := FromJSON(x)
		if err != nil {
			return nil, err
		}
		if label, ok = l.(Literal); !ok {
			return nil, fmt.Errorf("record label must be a scalar, got %s", TypeName(l))
		}
	}
	if x, ok := m[jsonTupleKey]; ok && len(m) <= 2 {
		return tupleFromJSON(label, x)
	}
	if x, ok := m[jsonFieldsKey]; ok && len(m) <= 2 {
		return fieldsFromJSON(label, x)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != jsonLabelKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]CompleteField, 0, len(keys))
	for _, k := range keys {
		v, err := FromJSON(m[k])
		if err != nil {
			return nil, err
		}
		fields = append(fields, CompleteField{Feature: Str(k), Value: v})
	}
	return NewCompleteRec(label, fields)
}

// taggedFromJSON decodes a single-key object whose key is a scalar tag.
func taggedFromJSON(key string, x any) (Complete, bool, error) {
	switch key {
	case jsonActorKey:
		id, ok := x.(string)
		return Address{ID: id}, ok, nil
	case jsonFailedKey:
		f, ok := x.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		return failedFromJSON(f), true, nil
	case jsonCharKey:
		s, ok := x.(string)
		if !ok || utf8.RuneCountInString(s) != 1 {
			return nil, true, fmt.Errorf("%s must hold one character", jsonCharKey)
		}
		r, _ := utf8.DecodeRuneInString(s)
		return Char(r), true, nil
	case jsonInt32Key:
		n, err := FromJSON(x)
		if err != nil {
			return nil, true, err
		}
		i, ok := n.(Int64)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, true, fmt.Errorf("%s out of range: %v", jsonInt32Key, x)
		}
		return Int32(i), true, nil
	case jsonDecKey:
		s, ok := x.(string)
		if !ok {
			return nil, true, fmt.Errorf("%s must hold a string", jsonDecKey)
		}
		d, err := NewDec128(s)
		return d, true, err
	case jsonFlt32Key:
		n, err := FromJSON(x)
		if err != nil {
			return nil, true, err
		}
		switch f := n.(type) {
		case Flt64:
			return Flt32(f), true, nil
		case Int64:
			return Flt32(f), true, nil
		}
		return nil, true, fmt.Errorf("%s must hold a number", jsonFlt32Key)
	}
	return nil, false, nil
}

func tupleFromJSON(label Literal, x any) (Complete, error) {
	xs, ok := x.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must hold an array", jsonTupleKey)
	}
	vs := make([]Complete, len(xs))
	for i, e := range xs {
		v, err := FromJSON(e)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return NewCompleteTuple(label, vs...), nil
}

func fieldsFromJSON(label Literal, x any) (Complete, error) {
	pairs, ok := x.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must hold an array", jsonFieldsKey)
	}
	fields := make([]CompleteField, len(pairs))
	for i, p := range pairs {
		kv, ok := p.([]any)
		if !ok || len(kv) != 2 {
			return nil, fmt.Errorf("%s entry %d is not a [feature, value] pair", jsonFieldsKey, i)
		}
		k, err := FromJSON(kv[0])
		if err != nil {
			return nil, err
		}
		f, ok := k.(Feature)
		if !ok {
			return nil, fmt.Errorf("%s is not a valid feature", TypeName(k))
		}
		v, err := FromJSON(kv[1])
		if err != nil {
			return nil, err
		}
		fields[i] = CompleteField{Feature: f, Value: v}
	}
	return NewCompleteRec(label, fields)
}

func failedFromJSON(m map[string]any) *FailedValue {
	f := &FailedValue{}
	f.Owner.ID, _ = m["owner"].(string)
	f.Message, _ = m["message"].(string)
	f.Details, _ = m["details"].(string)
	if c, ok := m["cause"].(map[string]any); ok {
		f.Cause = failedFromJSON(c)
	}
	return f
}
