// File: value/format.go
package value

import (
	"strings"
	"unicode"
)

// Format renders a value or variable. Unbound variables print as their name.
// A record reached again while it is still being printed renders as <<cycle>>.
func Format(v ValueOrVar) string {
	f := formatter{visiting: make(map[Rec]bool)}
	f.write(v)
	return f.b.String()
}

type formatter struct {
	b        strings.Builder
	visiting map[Rec]bool
}

func (f *formatter) write(v ValueOrVar) {
	if v == nil {
		f.b.WriteString("<nil>")
		return
	}
	v = v.ResolveValueOrVar()
	switch t := v.(type) {
	case *Var:
		f.b.WriteString(t.Name())
	case Rec:
		f.rec(t)
	case Value:
		f.b.WriteString(t.String())
	}
}

func (f *formatter) rec(r Rec) {
	if f.visiting[r] {
		f.b.WriteString("<<cycle>>")
		return
	}
	f.visiting[r] = true
	defer delete(f.visiting, r)

	if l := r.Label(); l != nil {
		f.literal(l)
	}
	if r.IsTuple() {
		f.b.WriteByte('[')
		for i := 0; i < r.FieldCount(); i++ {
			if i > 0 {
				f.b.WriteString(", ")
			}
			f.write(r.ValueAt(i))
		}
		f.b.WriteByte(']')
		return
	}
	f.b.WriteByte('{')
	for i := 0; i < r.FieldCount(); i++ {
		if i > 0 {
			f.b.WriteString(", ")
		}
		f.literal(r.FeatureAt(i))
		f.b.WriteString(": ")
		f.write(r.ValueAt(i))
	}
	f.b.WriteByte('}')
}

// literal prints identifier-like strings bare, everything else as usual.
func (f *formatter) literal(l Literal) {
	if s, ok := l.(Str); ok && isIdentLike(string(s)) {
		f.b.WriteString(string(s))
		return
	}
	f.b.WriteString(l.String())
}

func isIdentLike(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
