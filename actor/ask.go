// File: actor/ask.go
package actor

import (
	"github.com/google/uuid"

	"github.com/lguibr/dflow/value"
)

// future is the reply slot of one external Ask. It accepts a single response;
// anything after that is dropped.
type future struct {
	addr value.Address
	ch   chan Envelope
}

func newFuture() *future {
	return &future{
		addr: value.Address{ID: "ask-" + uuid.NewString()},
		ch:   make(chan Envelope, 1),
	}
}

func (f *future) Address() value.Address { return f.addr }

func (f *future) Deliver(env Envelope) {
	if env.Kind != Response {
		return
	}
	select {
	case f.ch <- env:
	default:
	}
}
