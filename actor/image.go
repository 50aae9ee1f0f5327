// File: actor/image.go
package actor

import (
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/lguibr/dflow/kernel"
	"github.com/lguibr/dflow/value"
)

// Image is an actor constructor compiled to kernel code. Ctor takes the
// constructor arguments followed by one result parameter, which it must bind
// to a handler record:
//
//	{ask: proc(message, result), tell: proc(message)}
//
// Either handler may be omitted. An image can be spawned any number of times;
// each spawn gets fresh variables.
type Image struct {
	value.HostObj
	Name string
	Ctor *kernel.Closure
}

// NewImage builds an image from a constructor closure.
func NewImage(name string, ctor *kernel.Closure) *Image {
	return &Image{Name: name, Ctor: ctor}
}

// Arity is the number of constructor arguments.
func (img *Image) Arity() int { return img.Ctor.Def.Arity() - 1 }

func (img *Image) ResolveValue() (value.Value, error)     { return img, nil }
func (img *Image) ResolveValueOrVar() value.ValueOrVar    { return img }
func (img *Image) CheckComplete() (value.Complete, error) { return img, nil }
func (img *Image) String() string                         { return fmt.Sprintf("<image %s/%d>", img.Name, img.Arity()) }

// Handler record features.
var (
	askFeature  = value.Str("ask")
	tellFeature = value.Str("tell")
)

// imageBehavior runs a kernel machine for one spawned image. It serves one
// request or notify at a time: the next is admitted only once the current
// computation has ended and its result is complete.
type imageBehavior struct {
	image     *Image
	args      []value.Complete
	timeSlice int

	machine      *kernel.Machine
	handlers     *value.Var
	constructing bool
	current      *Envelope
	result       *value.Var
	epoch        uint64                // bumped for every admitted message
	pending      map[*value.Var]uint64 // reply variable -> epoch that sent it
}

func (b *imageBehavior) policy() Policy { return DefaultPolicy{} }

func (b *imageBehavior) start(ctx *Context) Status {
	b.machine = kernel.NewMachine(&imageHost{ctx: ctx, b: b})
	b.handlers = value.NewVar()
	b.pending = make(map[*value.Var]uint64)
	args := make([]*value.Var, 0, len(b.args)+1)
	for _, a := range b.args {
		args = append(args, value.NewBoundVar(a))
	}
	args = append(args, b.handlers)
	b.constructing = true
	if err := b.machine.Apply(b.image.Ctor, args); err != nil {
		ctx.logger.Error("constructor rejected arguments", zap.Error(err))
		return Finished
	}
	return b.run(ctx)
}

func (b *imageBehavior) receive(ctx *Context, batch []Envelope) Status {
	for _, env := range batch {
		switch env.Kind {
		case Response:
			x, ok := env.RequestID.(*value.Var)
			if !ok {
				ctx.logger.Debug("foreign response dropped", zap.Stringer("payload", env.Payload))
				continue
			}
			epoch, ok := b.pending[x]
			if !ok {
				ctx.logger.Debug("stale response dropped", zap.Stringer("payload", env.Payload))
				continue
			}
			delete(b.pending, x)
			if !b.live(epoch) {
				b.settle(ctx, x, env.Payload)
				continue
			}
			if failed, ok := env.Payload.(*value.FailedValue); ok {
				b.machine.PushThrow(failed)
				continue
			}
			if err := x.BindToValue(env.Payload); err != nil {
				return b.fault(ctx, err)
			}
		default:
			if err := b.begin(ctx, env); err != nil {
				b.current = &env
				return b.fault(ctx, err)
			}
		}
	}
	return b.run(ctx)
}

func (b *imageBehavior) resume(ctx *Context) Status { return b.run(ctx) }

func (b *imageBehavior) stop(ctx *Context) {
	if b.current != nil {
		ctx.RespondTo(*b.current, Failure(ctx.self.Address(), fmt.Errorf("actor stopped")))
	}
	b.machine.Reset()
}

// begin applies the handler for env.
func (b *imageBehavior) begin(ctx *Context, env Envelope) error {
	b.epoch++
	hv, err := b.handlers.ResolveValue()
	if err != nil {
		return fmt.Errorf("%s has no handlers: %w", b.image.Name, err)
	}
	rec, ok := hv.(value.Rec)
	if !ok {
		return &kernel.TypeMismatchError{Instr: "handlers", Expected: "Rec", Actual: hv}
	}
	feature := tellFeature
	if env.Kind == Request {
		feature = askFeature
	}
	h, ok := rec.Select(feature)
	if !ok {
		return &UnrecognizedMessageError{Actor: ctx.self.Address(), Message: env.Payload}
	}
	proc, err := h.ResolveValue()
	if err != nil {
		return err
	}
	args := []*value.Var{value.NewBoundVar(env.Payload)}
	b.result = nil
	if env.Kind == Request {
		b.result = value.NewVar()
		args = append(args, b.result)
	}
	b.current = &env
	return b.machine.Apply(proc, args)
}

// live reports whether a reply sent during epoch belongs to the computation
// that is still running.
func (b *imageBehavior) live(epoch uint64) bool {
	return epoch == b.epoch && (b.current != nil || b.constructing)
}

// settle handles a reply whose computation has already ended. Values still
// bind, since later handlers may read the variable; failures are dropped.
func (b *imageBehavior) settle(ctx *Context, x *value.Var, payload value.Complete) {
	if failed, ok := payload.(*value.FailedValue); ok {
		ctx.logger.Debug("failure for a finished computation dropped", zap.Stringer("failure", failed))
		return
	}
	if err := x.BindToValue(payload); err != nil {
		ctx.logger.Warn("late reply conflicts with its variable", zap.Error(err))
	}
}

// run computes until the slice ends, the machine suspends, or the current
// message is answered.
func (b *imageBehavior) run(ctx *Context) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			ctx.logger.Error("kernel panicked", zap.Any("recovered", r), zap.String("stack", stack))
			status = b.fault(ctx, &HostFault{Recovered: r, Stack: stack})
		}
	}()
	out, err := b.machine.Compute(b.timeSlice)
	if err != nil {
		return b.fault(ctx, err)
	}
	switch out.Kind {
	case kernel.Preempt:
		return Preempted
	case kernel.Suspend:
		if len(b.pending) == 0 {
			return b.fault(ctx, fmt.Errorf("%s: blocked on %s with no reply pending", b.image.Name, out.Barrier.Name()))
		}
		return Waiting
	}
	if b.constructing {
		b.constructing = false
		return Ready
	}
	if b.current == nil {
		return Ready
	}
	if b.result != nil {
		v, err := b.result.ResolveValue()
		var c value.Complete
		if err == nil {
			c, err = v.CheckComplete()
		}
		if _, waiting := kernel.IsBarrier(err); waiting {
			if len(b.pending) > 0 {
				return Waiting
			}
			return b.fault(ctx, fmt.Errorf("%s: result never bound: %w", b.image.Name, err))
		}
		if err != nil {
			return b.fault(ctx, err)
		}
		ctx.RespondTo(*b.current, c)
	}
	b.current, b.result = nil, nil
	return Ready
}

// fault answers the current message with a failure value and returns the
// actor to service. A fault during construction finishes the actor.
func (b *imageBehavior) fault(ctx *Context, err error) Status {
	b.machine.Reset()
	if b.constructing {
		ctx.logger.Error("constructor failed", zap.Error(err))
		return Finished
	}
	if b.current != nil {
		ctx.Fail(*b.current, err)
	} else {
		ctx.logger.Warn("fault outside a message", zap.Error(err))
	}
	b.current, b.result = nil, nil
	return Ready
}

// imageHost connects a machine to the engine.
type imageHost struct {
	ctx *Context
	b   *imageBehavior
}

func (h *imageHost) Self() value.Complete { return h.ctx.self }

func (h *imageHost) Send(target, msg value.Complete, response *value.Var) error {
	ref, err := h.ctx.engine.resolveRef(target)
	if err != nil {
		return err
	}
	if response == nil {
		h.ctx.Tell(ref, msg)
		return nil
	}
	h.b.pending[response] = h.b.epoch
	h.ctx.Request(ref, msg, response)
	return nil
}

func (h *imageHost) Spawn(image value.Complete, args []value.Complete) (value.Complete, error) {
	img, ok := image.(*Image)
	if !ok {
		return nil, &kernel.TypeMismatchError{Instr: "spawn", Expected: "Image", Actual: image}
	}
	pid, err := h.ctx.engine.SpawnImage(img, args...)
	if err != nil {
		return nil, err
	}
	return pid, nil
}
