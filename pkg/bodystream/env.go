package bodystream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/stealthrocket/httpwire/pkg/httpmsg"
)

// Env is an execution context. It brackets exactly one call into a producer
// and records the exception that the producer may raise during the call.
type Env struct {
	ctx       context.Context
	exception error
}

// NewEnv constructs an execution context carrying ctx. Hosts call NewEnv from
// their AttachEnv method.
func NewEnv(ctx context.Context) *Env {
	return &Env{ctx: ctx}
}

// Context returns the context that producer calls run with.
func (env *Env) Context() context.Context {
	return env.ctx
}

// Throw raises an exception in the execution context. Producers call Throw
// to signal a failure that the caller must observe regardless of the value
// they return. Only the first exception is retained until it is cleared.
func (env *Env) Throw(err error) {
	if env.exception == nil {
		env.exception = err
	}
}

// ExceptionCheck returns the pending exception and clears it.
func (env *Env) ExceptionCheck() error {
	err := env.exception
	env.exception = nil
	return err
}

// Host is the runtime that producers live in.
//
// AttachEnv fails with an error wrapping httpmsg.ErrContextUnavailable when
// the host is shutting down. Callers never hold an execution context across
// more than one producer call.
type Host interface {
	AttachEnv() (*Env, error)
	DetachEnv(env *Env)

	// NewGlobalRef takes a persistent reference on p, keeping it alive until
	// the matching call to DeleteGlobalRef.
	NewGlobalRef(env *Env, p Producer) error
	DeleteGlobalRef(env *Env, p Producer)
}

// LocalHost is a Host for producers implemented in Go and running in the same
// process. The host shuts down when the context it was created with is
// canceled, or when Shutdown is called.
type LocalHost struct {
	ctx    context.Context
	cancel context.CancelFunc
	refs   atomic.Int64
}

func NewLocalHost(ctx context.Context) *LocalHost {
	h := new(LocalHost)
	h.ctx, h.cancel = context.WithCancel(ctx)
	return h
}

func (h *LocalHost) AttachEnv() (*Env, error) {
	if err := h.ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: local host is shut down: %s", httpmsg.ErrContextUnavailable, err)
	}
	return NewEnv(h.ctx), nil
}

func (h *LocalHost) DetachEnv(*Env) {}

func (h *LocalHost) NewGlobalRef(*Env, Producer) error {
	h.refs.Add(1)
	return nil
}

func (h *LocalHost) DeleteGlobalRef(*Env, Producer) {
	h.refs.Add(-1)
}

// Refs returns the number of live references held on producers.
func (h *LocalHost) Refs() int {
	return int(h.refs.Load())
}

// Shutdown makes every subsequent attempt to attach an execution context fail.
func (h *LocalHost) Shutdown() {
	h.cancel()
}
