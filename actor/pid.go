// File: actor/pid.go
package actor

import "github.com/lguibr/dflow/value"

// Ref is anything envelopes can be delivered to: an actor, or the reply slot
// of an external Ask.
type Ref interface {
	Address() value.Address
	Deliver(env Envelope)
}

// PID (Process ID) is the handle of a spawned actor. A PID is a complete
// value, so actors can pass handles to each other in payloads.
type PID struct {
	value.HostObj
	ID   string
	proc *process
}

// Address returns the actor's address.
func (pid *PID) Address() value.Address { return value.Address{ID: pid.ID} }

// Deliver enqueues env in the actor's mailbox. It never blocks.
func (pid *PID) Deliver(env Envelope) { pid.proc.enqueue(env) }

func (pid *PID) ResolveValue() (value.Value, error)     { return pid, nil }
func (pid *PID) ResolveValueOrVar() value.ValueOrVar    { return pid }
func (pid *PID) CheckComplete() (value.Complete, error) { return pid, nil }

// String returns the string representation of the PID.
func (pid *PID) String() string {
	return pid.ID
}
