// File: kernel/cell.go
package kernel

import "github.com/lguibr/dflow/value"

// NewCellInstr binds Target to a new cell holding Init.
type NewCellInstr struct {
	Init   Operand
	Target Ident
}

func (n *NewCellInstr) Compute(_ *Machine, env *Env) error {
	init, err := resolve(env, n.Init)
	if err != nil {
		return err
	}
	return bindIdent(env, n.Target, value.NewCell(init))
}

func (n *NewCellInstr) captureIdents(c *capture) { c.use(n.Init, n.Target) }

// GetCellInstr unifies Target with the cell's current content.
type GetCellInstr struct {
	Cell   Operand
	Target Ident
}

func (g *GetCellInstr) Compute(_ *Machine, env *Env) error {
	cell, err := resolveCell(env, g.Cell, "get")
	if err != nil {
		return err
	}
	return bindIdent(env, g.Target, cell.Get())
}

func (g *GetCellInstr) captureIdents(c *capture) { c.use(g.Cell, g.Target) }

// SetCellInstr replaces the cell's content.
type SetCellInstr struct {
	Cell  Operand
	Value Operand
}

func (s *SetCellInstr) Compute(_ *Machine, env *Env) error {
	cell, err := resolveCell(env, s.Cell, "set")
	if err != nil {
		return err
	}
	v, err := resolve(env, s.Value)
	if err != nil {
		return err
	}
	cell.Set(v)
	return nil
}

func (s *SetCellInstr) captureIdents(c *capture) { c.use(s.Cell, s.Value) }

func resolveCell(env *Env, op Operand, instr string) (*value.Cell, error) {
	v, err := resolveValue(env, op)
	if err != nil {
		return nil, err
	}
	cell, ok := v.(*value.Cell)
	if !ok {
		return nil, &TypeMismatchError{Instr: instr, Expected: "Cell", Actual: v}
	}
	return cell, nil
}
