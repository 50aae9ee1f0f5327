// File: actor/mailbox.go
package actor

// Mailbox holds an actor's pending envelopes in two lanes. Responses have
// their own lane so a suspended actor can be resumed by a reply while
// requests queue behind it. The owning process guards the mailbox.
//
// Each lane is FIFO, so per-sender order holds within a lane only. Arrival
// order across lanes is not kept: PopResponses takes every pending response,
// adjacent or not, ahead of requests and notifies that arrived earlier. A
// reply can therefore overtake a request its own sender queued before it.
type Mailbox struct {
	responses []Envelope
	messages  []Envelope
}

func (mb *Mailbox) push(env Envelope) {
	if env.Kind == Response {
		mb.responses = append(mb.responses, env)
		return
	}
	mb.messages = append(mb.messages, env)
}

// Len is the total number of pending envelopes.
func (mb *Mailbox) Len() int { return len(mb.responses) + len(mb.messages) }

// PendingResponses is the length of the response lane.
func (mb *Mailbox) PendingResponses() int { return len(mb.responses) }

// PeekMessage returns the head of the request/notify lane without removing it.
func (mb *Mailbox) PeekMessage() (Envelope, bool) {
	if len(mb.messages) == 0 {
		return Envelope{}, false
	}
	return mb.messages[0], true
}

// PopMessage removes the head of the request/notify lane.
func (mb *Mailbox) PopMessage() (Envelope, bool) {
	env, ok := mb.PeekMessage()
	if ok {
		mb.messages[0] = Envelope{}
		mb.messages = mb.messages[1:]
	}
	return env, ok
}

// PopResponses removes and returns every pending response, oldest first.
func (mb *Mailbox) PopResponses() []Envelope {
	batch := mb.responses
	mb.responses = nil
	return batch
}

// drain empties both lanes and returns what they held.
func (mb *Mailbox) drain() []Envelope {
	all := append(mb.PopResponses(), mb.messages...)
	mb.messages = nil
	return all
}
