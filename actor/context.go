// File: actor/context.go
package actor

import (
	"go.uber.org/zap"

	"github.com/lguibr/dflow/value"
)

// Context provides information and capabilities to an actor while it handles
// a message.
type Context struct {
	engine   *Engine
	self     *PID
	logger   *zap.Logger
	message  any
	envelope Envelope
}

// Engine returns the engine managing this actor.
func (c *Context) Engine() *Engine { return c.engine }

// Self returns the PID of the actor processing the message.
func (c *Context) Self() *PID { return c.self }

// Logger returns the actor's logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Message returns the message being processed: a system message or the
// envelope payload.
func (c *Context) Message() any { return c.message }

// Envelope returns the envelope being processed. It is the zero Envelope
// while a system message is handled.
func (c *Context) Envelope() Envelope { return c.envelope }

// IsRequest reports whether the current envelope expects a response.
func (c *Context) IsRequest() bool { return c.envelope.Kind == Request && c.envelope.ReplyTo != nil }

// Tell sends payload to target without expecting a reply.
func (c *Context) Tell(target Ref, payload value.Complete) {
	target.Deliver(Envelope{Kind: Notify, Payload: payload, Sender: c.self.Address()})
}

// Request sends payload to target; the response comes back to this actor
// carrying requestID.
func (c *Context) Request(target Ref, payload value.Complete, requestID any) {
	target.Deliver(Envelope{
		Kind:      Request,
		Payload:   payload,
		Sender:    c.self.Address(),
		ReplyTo:   c.self,
		RequestID: requestID,
	})
}

// Respond answers the current request.
func (c *Context) Respond(payload value.Complete) {
	c.RespondTo(c.envelope, payload)
}

// RespondTo answers req, which need not be the current envelope. Envelopes
// that are not requests are ignored.
func (c *Context) RespondTo(req Envelope, payload value.Complete) {
	if req.Kind != Request || req.ReplyTo == nil {
		c.logger.Debug("response to non-request dropped", zap.Stringer("payload", payload))
		return
	}
	req.ReplyTo.Deliver(Envelope{
		Kind:      Response,
		Payload:   payload,
		Sender:    c.self.Address(),
		RequestID: req.RequestID,
	})
}

// Fail converts err into a failure value owned by this actor, answers req
// with it when req is a request, and returns it.
func (c *Context) Fail(req Envelope, err error) *value.FailedValue {
	failed := Failure(c.self.Address(), err)
	c.logger.Warn("message failed",
		zap.Stringer("kind", req.Kind),
		zap.String("sender", req.Sender.ID),
		zap.Error(err))
	c.RespondTo(req, failed)
	return failed
}
