// File: actor/props.go
package actor

// Actor is a native actor implemented in Go. Receive is called with one
// message at a time: a system message (Started, Stopping) or an envelope
// payload. A returned error or a panic is converted into a failure value and
// sent back to the requester; the actor keeps serving its mailbox.
//
// An Actor that also implements Policy uses it for admission.
type Actor interface {
	Receive(ctx *Context) error
}

// Producer is a function that creates a new instance of an Actor.
type Producer func() Actor

// Props is a configuration object used to create actors.
type Props struct {
	newBehavior func(e *Engine) behavior
}

// NewProps creates a new Props object with the given actor producer.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("actor: producer cannot be nil")
	}
	return &Props{
		newBehavior: func(*Engine) behavior {
			return &nativeBehavior{producer: producer}
		},
	}
}
