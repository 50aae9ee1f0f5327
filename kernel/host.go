// File: kernel/host.go
package kernel

import "github.com/lguibr/dflow/value"

// Host is the actor a machine runs inside. Payloads and actor handles cross
// the host boundary only as complete values.
type Host interface {
	// Self returns the handle of the running actor.
	Self() value.Complete
	// Send delivers msg to target. With a non-nil response the message is a
	// request and response is bound when the reply arrives; otherwise it is a
	// notify.
	Send(target, msg value.Complete, response *value.Var) error
	// Spawn starts a new actor from image.
	Spawn(image value.Complete, args []value.Complete) (value.Complete, error)
}

// SendInstr sends Message to Target. When Response is set the send is a
// request and the reply is bound to Response.
type SendInstr struct {
	Target   Operand
	Message  Operand
	Response *Ident
}

func (s *SendInstr) Compute(m *Machine, env *Env) error {
	if m.host == nil {
		return ErrNoHost
	}
	target, err := resolveComplete(env, s.Target)
	if err != nil {
		return err
	}
	msg, err := resolveComplete(env, s.Message)
	if err != nil {
		return err
	}
	var response *value.Var
	if s.Response != nil {
		if response = env.Get(*s.Response); response == nil {
			return &UndefinedIdentError{Ident: *s.Response}
		}
	}
	return m.host.Send(target, msg, response)
}

func (s *SendInstr) captureIdents(c *capture) {
	c.use(s.Target, s.Message)
	if s.Response != nil {
		c.use(*s.Response)
	}
}

// SpawnInstr starts an actor from Image with constructor Args and binds its
// handle to Target.
type SpawnInstr struct {
	Image  Operand
	Args   []Operand
	Target Ident
}

func (s *SpawnInstr) Compute(m *Machine, env *Env) error {
	if m.host == nil {
		return ErrNoHost
	}
	image, err := resolveComplete(env, s.Image)
	if err != nil {
		return err
	}
	args := make([]value.Complete, len(s.Args))
	for i, op := range s.Args {
		if args[i], err = resolveComplete(env, op); err != nil {
			return err
		}
	}
	ref, err := m.host.Spawn(image, args)
	if err != nil {
		return err
	}
	return bindIdent(env, s.Target, ref)
}

func (s *SpawnInstr) captureIdents(c *capture) {
	c.use(s.Image, s.Target)
	c.use(s.Args...)
}

// SelfInstr binds Target to the running actor's handle.
type SelfInstr struct {
	Target Ident
}

func (s *SelfInstr) Compute(m *Machine, env *Env) error {
	if m.host == nil {
		return ErrNoHost
	}
	return bindIdent(env, s.Target, m.host.Self())
}

func (s *SelfInstr) captureIdents(c *capture) { c.use(s.Target) }
