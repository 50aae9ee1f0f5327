// File: actor/messages.go
package actor

import "github.com/lguibr/dflow/value"

// --- System Messages ---

// Started is delivered to a native actor before any envelope.
type Started struct{}

// Stopping is delivered to a native actor when it is being stopped. No
// envelope is delivered after it.
type Stopping struct{}

// --- Envelopes ---

// Kind distinguishes envelope roles.
type Kind int

const (
	// Notify expects no reply.
	Notify Kind = iota
	// Request expects exactly one Response sent to ReplyTo.
	Request
	// Response answers a Request and carries its RequestID back.
	Response
)

func (k Kind) String() string {
	switch k {
	case Notify:
		return "notify"
	case Request:
		return "request"
	case Response:
		return "response"
	}
	return "unknown"
}

// Envelope wraps a payload travelling between actors. Payloads are always
// complete values. RequestID is opaque to the runtime: the requester chooses
// it and gets it back on the response.
type Envelope struct {
	Kind      Kind
	Payload   value.Complete
	Sender    value.Address
	ReplyTo   Ref
	RequestID any
}
