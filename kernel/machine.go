// File: kernel/machine.go
package kernel

import "github.com/lguibr/dflow/value"

// OutcomeKind is the result of one Compute call.
type OutcomeKind int

const (
	// End means the continuation is empty.
	End OutcomeKind = iota
	// Preempt means the time slice ran out with work remaining.
	Preempt
	// Suspend means an instruction is waiting on Outcome.Barrier.
	Suspend
)

func (k OutcomeKind) String() string {
	switch k {
	case End:
		return "End"
	case Preempt:
		return "Preempt"
	case Suspend:
		return "Suspend"
	}
	return "Unknown"
}

// Outcome reports how Compute returned.
type Outcome struct {
	Kind    OutcomeKind
	Barrier *value.Var
}

// Machine executes a continuation. A machine is owned by one goroutine at a
// time; the host serializes all calls.
type Machine struct {
	stack *Stack
	host  Host
	steps int
}

// NewMachine returns an idle machine. host may be nil for machines that never
// touch actor instructions.
func NewMachine(host Host) *Machine {
	return &Machine{host: host}
}

// Push places instr on top of the continuation.
func (m *Machine) Push(instr Instr, env *Env) {
	m.stack = m.stack.Push(instr, env)
}

// PushThrow arranges for v to be thrown when the machine next runs.
func (m *Machine) PushThrow(v value.Value) {
	m.stack = m.stack.Push(&throwFrame{v: v}, nil)
}

// Host returns the machine's host, or nil.
func (m *Machine) Host() Host { return m.host }

// Stack returns the current continuation.
func (m *Machine) Stack() *Stack { return m.stack }

// Idle reports whether there is nothing left to run.
func (m *Machine) Idle() bool { return m.stack.IsEmpty() }

// Steps returns the number of instructions completed so far. A retried
// instruction counts once, when it completes.
func (m *Machine) Steps() int { return m.steps }

// Reset drops the continuation.
func (m *Machine) Reset() { m.stack = nil }

// Compute runs at most timeSlice instructions (no limit when timeSlice <= 0).
//
// On a blocking barrier the failing instruction is put back, so calling
// Compute again after the barrier binds retries it from scratch. Any other
// error is a fault: the continuation is left as it was after the faulting
// instruction was popped.
func (m *Machine) Compute(timeSlice int) (Outcome, error) {
	n := 0
	for !m.stack.IsEmpty() {
		if timeSlice > 0 && n >= timeSlice {
			return Outcome{Kind: Preempt}, nil
		}
		saved := m.stack
		instr, env := saved.Top()
		m.stack = saved.Next()
		if err := instr.Compute(m, env); err != nil {
			if we, ok := IsBarrier(err); ok {
				m.stack = saved
				return Outcome{Kind: Suspend, Barrier: we.Barrier}, nil
			}
			return Outcome{Kind: End}, err
		}
		n++
		m.steps++
	}
	return Outcome{Kind: End}, nil
}
