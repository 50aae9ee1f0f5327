// File: actor/engine.go
package actor

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lguibr/dflow/kernel"
	"github.com/lguibr/dflow/value"
)

// Options configures an Engine.
type Options struct {
	// Workers is the size of the worker pool; 0 means runtime.NumCPU().
	Workers int
	// TimeSlice bounds the kernel instructions an actor runs per pass; 0 means
	// no bound.
	TimeSlice int
	// MailboxSize is the soft limit on pending requests and notifies per
	// actor; responses are always accepted. 0 means unbounded.
	MailboxSize int
	Logger      *zap.Logger
}

// Engine manages the lifecycle and message dispatching for actors. Actors are
// executed by a fixed pool of workers; an actor with admissible work is
// queued, and a worker runs it for one pass before it is queued again.
type Engine struct {
	opts       Options
	logger     *zap.Logger
	pidCounter atomic.Uint64
	actors     map[string]*process
	mu         sync.RWMutex // Protects the actors map
	stopping   atomic.Bool  // Indicates if the engine is shutting down

	queue  *runQueue
	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewEngine creates a new actor engine and starts its workers.
func NewEngine(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	e := &Engine{
		opts:   opts,
		logger: opts.Logger,
		actors: make(map[string]*process),
		queue:  newRunQueue(),
		group:  group,
		cancel: cancel,
	}
	for i := 0; i < opts.Workers; i++ {
		group.Go(func() error {
			e.work(gctx)
			return nil
		})
	}
	e.logger.Debug("engine started", zap.Int("workers", opts.Workers), zap.Int("timeSlice", opts.TimeSlice))
	return e
}

func (e *Engine) work(ctx context.Context) {
	for {
		p, ok := e.queue.pop(ctx)
		if !ok {
			return
		}
		p.execute()
	}
}

// nextPID generates a unique process ID.
func (e *Engine) nextPID() *PID {
	id := e.pidCounter.Add(1)
	return &PID{ID: fmt.Sprintf("actor-%d", id)}
}

// Spawn creates and starts a new actor based on the provided Props.
func (e *Engine) Spawn(props *Props) (*PID, error) {
	if e.stopping.Load() {
		return nil, ErrEngineStopped
	}
	pid := e.nextPID()
	proc := newProcess(e, pid, props.newBehavior(e))
	pid.proc = proc

	e.mu.Lock()
	e.actors[pid.ID] = proc
	e.mu.Unlock()

	e.queue.push(proc)
	return pid, nil
}

// SpawnImage starts an actor running img's constructor with args.
func (e *Engine) SpawnImage(img *Image, args ...value.Complete) (*PID, error) {
	if len(args) != img.Arity() {
		return nil, &kernel.InvalidArgCountError{Proc: img.Name, Expected: img.Arity(), Actual: len(args)}
	}
	return e.Spawn(&Props{newBehavior: func(e *Engine) behavior {
		return &imageBehavior{image: img, args: args, timeSlice: e.opts.TimeSlice}
	}})
}

// Send delivers env to target. It never blocks.
func (e *Engine) Send(target Ref, env Envelope) {
	target.Deliver(env)
}

// Tell sends payload to target as a notify from outside the engine.
func (e *Engine) Tell(target Ref, payload value.Complete) {
	target.Deliver(Envelope{Kind: Notify, Payload: payload})
}

// Ask sends payload to target as a request and waits for the response. A
// failure value is returned as an ordinary result; ErrAskTimeout means no
// response arrived in time. A late response is dropped.
func (e *Engine) Ask(target Ref, payload value.Complete, timeout time.Duration) (value.Complete, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.AskContext(ctx, target, payload)
}

// AskContext is Ask bounded by ctx instead of a timeout.
func (e *Engine) AskContext(ctx context.Context, target Ref, payload value.Complete) (value.Complete, error) {
	if e.stopping.Load() {
		return nil, ErrEngineStopped
	}
	f := newFuture()
	target.Deliver(Envelope{
		Kind:      Request,
		Payload:   payload,
		Sender:    f.Address(),
		ReplyTo:   f,
		RequestID: f.Address().ID,
	})
	select {
	case env := <-f.ch:
		return env.Payload, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrAskTimeout
		}
		return nil, ctx.Err()
	}
}

// Stop requests an actor to stop. Requests still in its mailbox are answered
// with failure values.
func (e *Engine) Stop(pid *PID) {
	pid.proc.stop()
}

// Lookup finds a live actor by address.
func (e *Engine) Lookup(addr value.Address) (*PID, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	proc, ok := e.actors[addr.ID]
	if !ok {
		return nil, false
	}
	return proc.pid, true
}

// Actors lists live actors ordered by spawn.
func (e *Engine) Actors() []*PID {
	e.mu.RLock()
	pids := make([]*PID, 0, len(e.actors))
	for _, proc := range e.actors {
		pids = append(pids, proc.pid)
	}
	e.mu.RUnlock()
	sort.Slice(pids, func(i, j int) bool {
		if len(pids[i].ID) != len(pids[j].ID) {
			return len(pids[i].ID) < len(pids[j].ID)
		}
		return pids[i].ID < pids[j].ID
	})
	return pids
}

// resolveRef turns an actor handle or address found in kernel data into a Ref.
func (e *Engine) resolveRef(v value.Complete) (Ref, error) {
	switch t := v.(type) {
	case *PID:
		return t, nil
	case value.Address:
		if pid, ok := e.Lookup(t); ok {
			return pid, nil
		}
		return nil, fmt.Errorf("no actor at %s", t)
	}
	return nil, &kernel.TypeMismatchError{Instr: "send", Expected: "actor", Actual: v}
}

// remove removes an actor process from the engine's tracking.
func (e *Engine) remove(pid *PID) {
	e.mu.Lock()
	delete(e.actors, pid.ID)
	e.mu.Unlock()
}

// Shutdown stops all actors, waits up to timeout for them to finish, then
// stops the workers.
func (e *Engine) Shutdown(timeout time.Duration) error {
	if !e.stopping.CompareAndSwap(false, true) {
		return nil
	}
	e.logger.Info("engine shutdown initiated")

	for _, pid := range e.Actors() {
		e.Stop(pid)
	}

	deadline := time.Now().Add(timeout)
	remaining := 0
	for {
		e.mu.RLock()
		remaining = len(e.actors)
		e.mu.RUnlock()
		if remaining == 0 || !time.Now().Before(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	e.cancel()
	_ = e.group.Wait()

	if remaining > 0 {
		e.mu.Lock()
		e.actors = make(map[string]*process)
		e.mu.Unlock()
		e.logger.Warn("engine shutdown timeout", zap.Int("remaining", remaining))
		return fmt.Errorf("engine shutdown: %d actors did not stop", remaining)
	}
	e.logger.Info("engine shutdown complete")
	return nil
}
