// File: actor/behavior.go
package actor

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Status is what a behavior reports after one execution pass.
type Status int

const (
	// Ready means the actor can take the next admissible envelope.
	Ready Status = iota
	// Preempted means the actor's time slice ran out mid-computation.
	Preempted
	// Waiting means the actor is suspended until a response arrives.
	Waiting
	// Finished means the actor completed and will not run again.
	Finished
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Preempted:
		return "preempted"
	case Waiting:
		return "waiting"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// behavior is what a process runs: a native Go actor or a kernel image.
type behavior interface {
	policy() Policy
	start(ctx *Context) Status
	receive(ctx *Context, batch []Envelope) Status
	resume(ctx *Context) Status
	stop(ctx *Context)
}

// nativeBehavior adapts an Actor.
type nativeBehavior struct {
	producer Producer
	actor    Actor
	pol      Policy
}

func (b *nativeBehavior) policy() Policy {
	if b.pol != nil {
		return b.pol
	}
	return DefaultPolicy{}
}

func (b *nativeBehavior) start(ctx *Context) Status {
	b.actor = b.producer()
	if b.actor == nil {
		ctx.logger.Error("producer returned nil actor")
		return Finished
	}
	if p, ok := b.actor.(Policy); ok {
		b.pol = p
	}
	ctx.message, ctx.envelope = Started{}, Envelope{}
	if err := b.invoke(ctx); err != nil {
		ctx.logger.Error("actor failed to start", zap.Error(err))
		return Finished
	}
	return Ready
}

func (b *nativeBehavior) receive(ctx *Context, batch []Envelope) Status {
	for _, env := range batch {
		ctx.message, ctx.envelope = env.Payload, env
		if err := b.invoke(ctx); err != nil {
			ctx.Fail(env, err)
		}
	}
	return Ready
}

func (b *nativeBehavior) resume(*Context) Status { return Ready }

func (b *nativeBehavior) stop(ctx *Context) {
	if b.actor == nil {
		return
	}
	ctx.message, ctx.envelope = Stopping{}, Envelope{}
	if err := b.invoke(ctx); err != nil {
		ctx.logger.Warn("error while stopping", zap.Error(err))
	}
}

// invoke calls the actor's Receive method, recovering from panics within it.
func (b *nativeBehavior) invoke(ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			ctx.logger.Error("actor panicked", zap.Any("recovered", r), zap.String("stack", stack))
			err = &HostFault{Recovered: r, Stack: stack}
		}
	}()
	return b.actor.Receive(ctx)
}
