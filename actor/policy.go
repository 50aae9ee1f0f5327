// File: actor/policy.go
package actor

// Policy is an actor's admission rule. IsExecutable inspects the mailbox
// without removing anything; SelectNext removes the batch to process and is
// only called after IsExecutable returned true. waiting is set while the actor
// is suspended on a pending reply.
type Policy interface {
	IsExecutable(mb *Mailbox, waiting bool) bool
	SelectNext(mb *Mailbox, waiting bool) []Envelope
}

// DefaultPolicy always admits responses, folding every pending response into
// one batch, and admits one request or notify at a time while not waiting.
// See Mailbox for what this means for ordering.
type DefaultPolicy struct{}

func (DefaultPolicy) IsExecutable(mb *Mailbox, waiting bool) bool {
	if mb.PendingResponses() > 0 {
		return true
	}
	_, ok := mb.PeekMessage()
	return ok && !waiting
}

func (DefaultPolicy) SelectNext(mb *Mailbox, waiting bool) []Envelope {
	if mb.PendingResponses() > 0 {
		return mb.PopResponses()
	}
	if waiting {
		return nil
	}
	if env, ok := mb.PopMessage(); ok {
		return []Envelope{env}
	}
	return nil
}
