// File: actor/process.go
package actor

import (
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/lguibr/dflow/value"
)

type procState int

const (
	stateIdle procState = iota
	stateScheduled
	stateExecuting
	stateStopped
)

// process is the running instance of an actor. At most one worker executes a
// process at a time: only the worker that moved it from scheduled to
// executing runs its behavior, so the behavior and its policy need no locking.
type process struct {
	engine   *Engine
	pid      *PID
	behavior behavior
	ctx      *Context
	logger   *zap.Logger

	mu            sync.Mutex // guards everything below
	mailbox       Mailbox
	state         procState
	status        Status
	started       bool
	stopRequested bool
}

func newProcess(engine *Engine, pid *PID, b behavior) *process {
	logger := engine.logger.With(zap.String("actor", pid.ID))
	p := &process{
		engine:   engine,
		pid:      pid,
		behavior: b,
		logger:   logger,
		state:    stateScheduled,
	}
	p.ctx = &Context{engine: engine, self: pid, logger: logger}
	return p
}

// enqueue adds env to the mailbox and schedules the process if it was idle.
func (p *process) enqueue(env Envelope) {
	p.mu.Lock()
	if p.state == stateStopped || p.stopRequested {
		p.mu.Unlock()
		p.reject(env, "actor stopped")
		return
	}
	// Responses bypass the limit; a waiting actor admits nothing else.
	if limit := p.engine.opts.MailboxSize; limit > 0 && env.Kind != Response && p.mailbox.Len() >= limit {
		p.mu.Unlock()
		p.logger.Warn("mailbox full, dropping envelope", zap.Stringer("kind", env.Kind))
		p.reject(env, "mailbox full")
		return
	}
	p.mailbox.push(env)
	schedule := p.state == stateIdle
	if schedule {
		p.state = stateScheduled
	}
	p.mu.Unlock()
	if schedule {
		p.engine.queue.push(p)
	}
}

// reject answers a request that will never be processed.
func (p *process) reject(env Envelope, reason string) {
	if env.Kind != Request || env.ReplyTo == nil {
		return
	}
	env.ReplyTo.Deliver(Envelope{
		Kind:      Response,
		Payload:   &value.FailedValue{Owner: p.pid.Address(), Message: reason, Details: "HostFault"},
		Sender:    p.pid.Address(),
		RequestID: env.RequestID,
	})
}

// stop requests termination. The process finalizes on a worker.
func (p *process) stop() {
	p.mu.Lock()
	if p.state == stateStopped || p.stopRequested {
		p.mu.Unlock()
		return
	}
	p.stopRequested = true
	schedule := p.state == stateIdle
	if schedule {
		p.state = stateScheduled
	}
	p.mu.Unlock()
	if schedule {
		p.engine.queue.push(p)
	}
}

// runnableLocked reports whether there is work the process may do now.
func (p *process) runnableLocked() bool {
	switch {
	case p.stopRequested, !p.started, p.status == Preempted:
		return true
	case p.status == Finished:
		return false
	}
	return p.behavior.policy().IsExecutable(&p.mailbox, p.status == Waiting)
}

// execute runs one pass of the behavior: start, resume a preempted
// computation, or process the batch the policy admits.
func (p *process) execute() {
	p.mu.Lock()
	if p.state != stateScheduled {
		p.mu.Unlock()
		return
	}
	if p.stopRequested {
		p.state = stateExecuting
		p.mu.Unlock()
		p.finalize()
		return
	}

	var run func() Status
	switch {
	case !p.started:
		p.started = true
		run = func() Status { return p.behavior.start(p.ctx) }
	case p.status == Preempted:
		run = func() Status { return p.behavior.resume(p.ctx) }
	case p.status != Finished:
		pol, waiting := p.behavior.policy(), p.status == Waiting
		if pol.IsExecutable(&p.mailbox, waiting) {
			batch := pol.SelectNext(&p.mailbox, waiting)
			run = func() Status { return p.behavior.receive(p.ctx, batch) }
		}
	}
	if run == nil {
		p.state = stateIdle
		p.mu.Unlock()
		return
	}
	p.state = stateExecuting
	p.mu.Unlock()

	status := p.safeRun(run)

	p.mu.Lock()
	p.status = status
	if status == Finished {
		p.stopRequested = true
	}
	if p.runnableLocked() {
		p.state = stateScheduled
		p.mu.Unlock()
		p.engine.queue.push(p)
		return
	}
	p.state = stateIdle
	p.mu.Unlock()
}

// safeRun guards the worker against a panic escaping a behavior.
func (p *process) safeRun(run func() Status) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("behavior panicked",
				zap.String("recovered", fmt.Sprint(r)),
				zap.String("stack", string(debug.Stack())))
			status = Ready
		}
	}()
	return run()
}

// finalize stops the behavior, fails every pending request and removes the
// process from the engine.
func (p *process) finalize() {
	if p.started {
		p.safeRun(func() Status {
			p.behavior.stop(p.ctx)
			return Finished
		})
	}
	p.mu.Lock()
	p.state = stateStopped
	pending := p.mailbox.drain()
	p.mu.Unlock()
	for _, env := range pending {
		p.reject(env, "actor stopped")
	}
	p.engine.remove(p.pid)
	p.logger.Debug("actor stopped", zap.Int("rejected", len(pending)))
}
