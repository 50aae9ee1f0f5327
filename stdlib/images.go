// File: stdlib/images.go
package stdlib

import (
	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/kernel"
	"github.com/lguibr/dflow/value"
)

var (
	id = kernel.Id

	msgGet       = value.Str("get")
	msgIncr      = value.Str("incr")
	msgCalculate = value.Str("calculate")
)

func imm(v value.Complete) kernel.Imm { return kernel.Imm{Value: v} }

// imageDef assembles an actor image: a constructor that runs setup, then
// binds its result to the handler record {ask: ..., tell: ...}.
type imageDef struct {
	name    string
	params  []kernel.Ident
	locals  []kernel.Ident
	setup   []kernel.Instr
	ask     *kernel.ProcDef
	tell    *kernel.ProcDef
	globals []kernel.EnvEntry
}

func (s imageDef) build() *actor.Image {
	locals := append([]kernel.Ident{}, s.locals...)
	body := append([]kernel.Instr{}, s.setup...)
	var fields []kernel.FieldDef
	if s.ask != nil {
		locals = append(locals, id("ask"))
		body = append(body, &kernel.CreateProcInstr{Target: id("ask"), Def: s.ask})
		fields = append(fields, kernel.FieldDef{Feature: value.Str("ask"), Value: id("ask")})
	}
	if s.tell != nil {
		locals = append(locals, id("tell"))
		body = append(body, &kernel.CreateProcInstr{Target: id("tell"), Def: s.tell})
		fields = append(fields, kernel.FieldDef{Feature: value.Str("tell"), Value: id("tell")})
	}
	body = append(body, &kernel.CreateRecInstr{
		Target: kernel.ReturnIdent,
		Def:    &kernel.RecDef{Label: value.Str("handlers"), Fields: fields},
	})
	ctor := kernel.NewFuncDef(s.name, s.params, &kernel.LocalInstr{Idents: locals, Body: kernel.Seq(body...)})
	return actor.NewImage(s.name, &kernel.Closure{Def: ctor, Env: kernel.NewEnv(nil, s.globals...)})
}

// when runs then if msg equals want, and throws msg otherwise.
func when(msg kernel.Ident, want value.Complete, then kernel.Instr) kernel.Instr {
	return &kernel.LocalInstr{Idents: []kernel.Ident{id("match")}, Body: kernel.Seq(
		&kernel.RelInstr{Op: kernel.RelEq, A: msg, B: imm(want), Target: id("match")},
		&kernel.IfInstr{Cond: id("match"), Then: then, Else: &kernel.ThrowInstr{Value: msg}},
	)}
}

// NumberImage builds Number(n): an actor answering 'get' with n.
func NumberImage() *actor.Image {
	return imageDef{
		name:   "Number",
		params: []kernel.Ident{id("n")},
		ask: kernel.NewProcDef("Number.ask", []kernel.Ident{id("msg"), id("r")},
			when(id("msg"), msgGet, &kernel.BindInstr{A: id("r"), B: id("n")})),
	}.build()
}

// CellImage builds Cell(): an actor over a mutable cell starting at 0. It is
// told 'incr' and asked 'get'.
func CellImage() *actor.Image {
	incr := &kernel.LocalInstr{Idents: []kernel.Ident{id("old"), id("new")}, Body: kernel.Seq(
		&kernel.GetCellInstr{Cell: id("c"), Target: id("old")},
		&kernel.ArithInstr{Op: value.OpAdd, A: id("old"), B: imm(value.Int64(1)), Target: id("new")},
		&kernel.SetCellInstr{Cell: id("c"), Value: id("new")},
	)}
	return imageDef{
		name:   "Cell",
		locals: []kernel.Ident{id("c")},
		setup:  []kernel.Instr{&kernel.NewCellInstr{Init: imm(value.Int64(0)), Target: id("c")}},
		ask: kernel.NewProcDef("Cell.ask", []kernel.Ident{id("msg"), id("r")},
			when(id("msg"), msgGet, &kernel.GetCellInstr{Cell: id("c"), Target: id("r")})),
		tell: kernel.NewProcDef("Cell.tell", []kernel.Ident{id("msg")},
			when(id("msg"), msgIncr, incr)),
	}.build()
}

// CalculatorImage builds Calculator(): an actor that spawns Number(1),
// Number(2) and Number(3) and answers 'calculate' with
// n1.get + n2.get * n3.get, asking all three concurrently.
func CalculatorImage(number *actor.Image) *actor.Image {
	spawn := func(target string, n int64) kernel.Instr {
		return &kernel.SpawnInstr{Image: id("Number"), Args: []kernel.Operand{imm(value.Int64(n))}, Target: id(target)}
	}
	ask := func(target, reply string) kernel.Instr {
		return &kernel.SendInstr{Target: id(target), Message: imm(msgGet), Response: &kernel.Ident{Name: reply}}
	}
	calculate := &kernel.LocalInstr{Idents: []kernel.Ident{id("a"), id("b"), id("c"), id("bc")}, Body: kernel.Seq(
		ask("n1", "a"),
		ask("n2", "b"),
		ask("n3", "c"),
		&kernel.ArithInstr{Op: value.OpMul, A: id("b"), B: id("c"), Target: id("bc")},
		&kernel.ArithInstr{Op: value.OpAdd, A: id("a"), B: id("bc"), Target: id("r")},
	)}
	return imageDef{
		name:   "Calculator",
		locals: []kernel.Ident{id("n1"), id("n2"), id("n3")},
		setup:  []kernel.Instr{spawn("n1", 1), spawn("n2", 2), spawn("n3", 3)},
		ask: kernel.NewProcDef("Calculator.ask", []kernel.Ident{id("msg"), id("r")},
			when(id("msg"), msgCalculate, calculate)),
		globals: []kernel.EnvEntry{{Ident: id("Number"), Var: value.NewBoundVar(number)}},
	}.build()
}
