// File: stdlib/kv.go
package stdlib

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/store"
	"github.com/lguibr/dflow/value"
)

// Key/value protocol:
//
//	get{key: K}           -> the stored value, or null
//	put{key: K, value: V} -> ok
var (
	labelGet   = value.Str("get")
	labelPut   = value.Str("put")
	featKey    = value.Str("key")
	featValue  = value.Str("value")
	replyOK    = value.Str("ok")
	storeLimit = 5 * time.Second
)

// GetRequest builds get{key: key}.
func GetRequest(key string) value.Complete {
	rec, _ := value.NewCompleteRec(labelGet, []value.CompleteField{{Feature: featKey, Value: value.Str(key)}})
	return rec
}

// PutRequest builds put{key: key, value: v}.
func PutRequest(key string, v value.Complete) value.Complete {
	rec, _ := value.NewCompleteRec(labelPut, []value.CompleteField{
		{Feature: featKey, Value: value.Str(key)},
		{Feature: featValue, Value: v},
	})
	return rec
}

// parseKV returns the label and key of a get or put request.
func parseKV(self value.Address, msg any) (label value.Str, key string, rec *value.CompleteRec, err error) {
	rec, ok := msg.(*value.CompleteRec)
	if !ok {
		return "", "", nil, &actor.UnrecognizedMessageError{Actor: self, Message: asComplete(msg)}
	}
	label, _ = rec.Label().(value.Str)
	k, ok := rec.Select(featKey)
	if !ok {
		return "", "", nil, &actor.UnrecognizedMessageError{Actor: self, Message: rec}
	}
	ks, ok := k.(value.Str)
	if !ok {
		return "", "", nil, fmt.Errorf("key must be a string, got %s", value.TypeName(k))
	}
	return label, string(ks), rec, nil
}

func asComplete(msg any) value.Complete {
	if c, ok := msg.(value.Complete); ok {
		return c
	}
	return value.Null{}
}

// Reader serves get requests from a store.
type Reader struct {
	Store store.Store
}

func (a *Reader) Receive(ctx *actor.Context) error {
	switch msg := ctx.Message().(type) {
	case actor.Started, actor.Stopping:
		return nil
	default:
		label, key, _, err := parseKV(ctx.Self().Address(), msg)
		if err != nil {
			return err
		}
		if label != labelGet {
			return &actor.UnrecognizedMessageError{Actor: ctx.Self().Address(), Message: asComplete(msg)}
		}
		sctx, cancel := context.WithTimeout(context.Background(), storeLimit)
		defer cancel()
		v, ok, err := a.Store.Get(sctx, key)
		if err != nil {
			return err
		}
		if !ok {
			v = value.Null{}
		}
		ctx.Respond(v)
		return nil
	}
}

// Writer serves put requests against a store.
type Writer struct {
	Store store.Store
}

func (a *Writer) Receive(ctx *actor.Context) error {
	switch msg := ctx.Message().(type) {
	case actor.Started, actor.Stopping:
		return nil
	default:
		label, key, rec, err := parseKV(ctx.Self().Address(), msg)
		if err != nil {
			return err
		}
		v, ok := rec.Select(featValue)
		if label != labelPut || !ok {
			return &actor.UnrecognizedMessageError{Actor: ctx.Self().Address(), Message: rec}
		}
		sctx, cancel := context.WithTimeout(context.Background(), storeLimit)
		defer cancel()
		if err := a.Store.Put(sctx, key, v.(value.Complete)); err != nil {
			return err
		}
		ctx.Respond(replyOK)
		return nil
	}
}

// Router fans get requests round-robin over a pool of readers and sends every
// put to the single writer. It is a single-writer/multi-reader coordinator:
// no put is admitted while a get is outstanding, and no get while a put is.
// Replies, including failure values, go back to the original requester
// unchanged.
type Router struct {
	Readers []*actor.PID
	Writer  *actor.PID

	next     int
	seq      uint64
	readsOut int
	writeOut bool
	pending  map[uint64]actor.Envelope
}

// NewRouter returns a router over readers and writer.
func NewRouter(readers []*actor.PID, writer *actor.PID) *Router {
	return &Router{Readers: readers, Writer: writer, pending: make(map[uint64]actor.Envelope)}
}

// IsExecutable admits responses always, and a request only when it does not
// conflict with what is in flight.
func (a *Router) IsExecutable(mb *actor.Mailbox, _ bool) bool {
	if mb.PendingResponses() > 0 {
		return true
	}
	env, ok := mb.PeekMessage()
	if !ok {
		return false
	}
	return a.admits(env)
}

func (a *Router) SelectNext(mb *actor.Mailbox, _ bool) []actor.Envelope {
	if mb.PendingResponses() > 0 {
		return mb.PopResponses()
	}
	env, ok := mb.PopMessage()
	if !ok {
		return nil
	}
	return []actor.Envelope{env}
}

func (a *Router) admits(env actor.Envelope) bool {
	rec, ok := env.Payload.(*value.CompleteRec)
	if !ok {
		return true
	}
	switch rec.Label() {
	case labelGet:
		return !a.writeOut
	case labelPut:
		return !a.writeOut && a.readsOut == 0
	}
	return true
}

func (a *Router) Receive(ctx *actor.Context) error {
	switch msg := ctx.Message().(type) {
	case actor.Started:
		if a.pending == nil {
			a.pending = make(map[uint64]actor.Envelope)
		}
		ctx.Logger().Debug("router started", zap.Int("readers", len(a.Readers)))
		return nil
	case actor.Stopping:
		for _, env := range a.pending {
			ctx.RespondTo(env, &value.FailedValue{Owner: ctx.Self().Address(), Message: "router stopped"})
		}
		return nil
	default:
		env := ctx.Envelope()
		if env.Kind == actor.Response {
			return a.complete(ctx, env)
		}
		// Keys are checked by the delegate, which then owns any failure.
		rec, ok := msg.(*value.CompleteRec)
		if !ok {
			return &actor.UnrecognizedMessageError{Actor: ctx.Self().Address(), Message: asComplete(msg)}
		}
		switch rec.Label() {
		case labelGet:
			if len(a.Readers) == 0 {
				return fmt.Errorf("router has no readers")
			}
			reader := a.Readers[a.next%len(a.Readers)]
			a.next++
			a.readsOut++
			a.forward(ctx, reader, env)
		case labelPut:
			a.writeOut = true
			a.forward(ctx, a.Writer, env)
		default:
			return &actor.UnrecognizedMessageError{Actor: ctx.Self().Address(), Message: env.Payload}
		}
		return nil
	}
}

func (a *Router) forward(ctx *actor.Context, to *actor.PID, env actor.Envelope) {
	a.seq++
	a.pending[a.seq] = env
	ctx.Request(to, env.Payload, a.seq)
}

func (a *Router) complete(ctx *actor.Context, resp actor.Envelope) error {
	id, ok := resp.RequestID.(uint64)
	if !ok {
		return fmt.Errorf("response with foreign request id %v", resp.RequestID)
	}
	orig, ok := a.pending[id]
	if !ok {
		return fmt.Errorf("response for unknown request %d", id)
	}
	delete(a.pending, id)
	if resp.Sender == a.Writer.Address() {
		a.writeOut = false
	} else {
		a.readsOut--
	}
	ctx.RespondTo(orig, resp.Payload)
	return nil
}

// SpawnKV starts readers reader actors and one writer over s, and returns the
// router in front of them.
func SpawnKV(e *actor.Engine, s store.Store, readers int) (*actor.PID, error) {
	pool := make([]*actor.PID, 0, readers)
	for i := 0; i < readers; i++ {
		pid, err := e.Spawn(actor.NewProps(func() actor.Actor { return &Reader{Store: s} }))
		if err != nil {
			return nil, err
		}
		pool = append(pool, pid)
	}
	writer, err := e.Spawn(actor.NewProps(func() actor.Actor { return &Writer{Store: s} }))
	if err != nil {
		return nil, err
	}
	return e.Spawn(actor.NewProps(func() actor.Actor { return NewRouter(pool, writer) }))
}
