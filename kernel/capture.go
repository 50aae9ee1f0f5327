// File: kernel/capture.go
package kernel

// capture is the bound/free pass run over a procedure body. Identifiers used
// but not declared by an enclosing scope inside the body are free; the closure
// captures exactly those.
type capture struct {
	scopes []map[Ident]bool
	free   []Ident
	seen   map[Ident]bool
}

func newCapture() *capture {
	return &capture{seen: make(map[Ident]bool)}
}

func (c *capture) enter() { c.scopes = append(c.scopes, make(map[Ident]bool)) }
func (c *capture) leave() { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *capture) declare(x Ident) {
	c.scopes[len(c.scopes)-1][x] = true
}

func (c *capture) isBound(x Ident) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i][x] {
			return true
		}
	}
	return false
}

func (c *capture) use(ops ...Operand) {
	for _, op := range ops {
		x, ok := op.(Ident)
		if !ok || c.isBound(x) || c.seen[x] {
			continue
		}
		c.seen[x] = true
		c.free = append(c.free, x)
	}
}

// freeIdents computes the identifiers body uses that params do not bind.
func freeIdents(params []Ident, body Instr) []Ident {
	c := newCapture()
	c.enter()
	for _, p := range params {
		c.declare(p)
	}
	body.captureIdents(c)
	c.leave()
	return c.free
}
