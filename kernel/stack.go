// File: kernel/stack.go
package kernel

// Stack is the continuation: an immutable singly linked list of
// (instruction, environment) frames. Push allocates one frame and shares the
// rest, so a saved *Stack stays valid however the machine continues.
type Stack struct {
	instr Instr
	env   *Env
	next  *Stack
}

// Push returns a new stack with (instr, env) on top of s.
func (s *Stack) Push(instr Instr, env *Env) *Stack {
	return &Stack{instr: instr, env: env, next: s}
}

// IsEmpty reports whether no frames remain. A nil *Stack is empty.
func (s *Stack) IsEmpty() bool { return s == nil }

// Top returns the top frame.
func (s *Stack) Top() (Instr, *Env) { return s.instr, s.env }

// Next returns the stack below the top frame.
func (s *Stack) Next() *Stack { return s.next }

// Depth counts frames.
func (s *Stack) Depth() int {
	n := 0
	for ; s != nil; s = s.next {
		n++
	}
	return n
}
