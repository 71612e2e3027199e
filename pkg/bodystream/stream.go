// Package bodystream adapts a callback-driven body producer living in a
// foreign runtime to the pull-based httpmsg.InputStream contract read by the
// HTTP engine.
//
// Every call into the producer is bracketed by attaching an execution context
// from the producer's Host and detaching it right after. Attaching fails when
// the host is shutting down, which the stream reports as an ordinary I/O
// error. Exceptions raised by the producer, or panics, never escape the
// stream: they are cleared and reported as httpmsg.ErrCallbackFailure.
//
// A Stream is not safe for concurrent use. The engine serializes access to
// the body of a request.
package bodystream

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/stealthrocket/httpwire/pkg/httpmsg"
)

// state is the product of the two sticky conditions of a stream. A zero state
// means that the stream is valid and the producer may have more data.
type state uint8

const (
	bodyDone state = 1 << iota
	invalid
)

func (s state) has(flag state) bool { return s&flag != 0 }

// Stream is an httpmsg.InputStream reading from a Producer.
type Stream struct {
	host     Host
	producer Producer
	state    state
	refs     atomic.Int32
	logger   *zerolog.Logger
}

// Option configures a Stream.
type Option func(*Stream)

// WithLogger sets the logger that the stream reports failures to.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Stream) { s.logger = logger }
}

var nopLogger = zerolog.Nop()

// New constructs a stream reading from producer, with a reference count of
// one. The stream takes a persistent reference on the producer, released when
// the stream is destroyed.
//
// The producer may be nil, in which case the stream represents an empty body
// and is at the end of the stream from the start. The host may only be nil if
// the producer is.
func New(host Host, producer Producer, opts ...Option) (*Stream, error) {
	s := &Stream{host: host, logger: &nopLogger}
	for _, opt := range opts {
		opt(s)
	}
	s.refs.Store(1)

	if producer == nil {
		s.state = bodyDone
		return s, nil
	}
	if host == nil {
		return nil, fmt.Errorf("%w: body producer without a host", httpmsg.ErrInvalidArgument)
	}

	env, err := s.attach("create")
	if err != nil {
		return nil, err
	}
	defer host.DetachEnv(env)

	if err := host.NewGlobalRef(env, producer); err != nil {
		return nil, fmt.Errorf("bodystream: taking reference on body producer: %w", err)
	}
	s.producer = producer
	return s, nil
}

// Read appends the next chunk produced by the producer to dst. Once the
// producer has reported the final chunk, Read returns dst unchanged without
// calling the producer, until a successful Seek.
//
// When the producer raises an exception, the bytes it may have written are
// discarded and the error wraps httpmsg.ErrCallbackFailure.
func (s *Stream) Read(dst []byte) ([]byte, error) {
	if s.state.has(invalid) {
		return dst, s.invalidError("read")
	}
	if s.producer == nil {
		s.state |= bodyDone
		return dst, nil
	}
	if s.state.has(bodyDone) {
		return dst, nil
	}

	env, err := s.attach("read")
	if err != nil {
		return dst, err
	}
	defer s.host.DetachEnv(env)

	region := NewRegion(dst[len(dst):cap(dst)])
	done, err := call(s, env, "send outgoing body", func() bool {
		return s.producer.SendOutgoingBody(env, region)
	})
	if err != nil {
		return dst, err
	}
	if done {
		s.state |= bodyDone
	}
	return dst[:len(dst)+region.Position()], nil
}

// Seek rewinds the stream. The only supported position is offset zero from
// the start; anything else fails without calling the producer. Streams without
// a producer accept any position.
func (s *Stream) Seek(offset int64, basis httpmsg.SeekBasis) error {
	if s.state.has(invalid) {
		return s.invalidError("seek")
	}

	if s.producer != nil {
		if basis != httpmsg.SeekStart || offset != 0 {
			return fmt.Errorf("%w: seek to offset %d from %s of body stream", httpmsg.ErrUnsupported, offset, basis)
		}

		env, err := s.attach("seek")
		if err != nil {
			return err
		}
		defer s.host.DetachEnv(env)

		ok, err := call(s, env, "reset position", func() bool {
			return s.producer.ResetPosition(env)
		})
		if err != nil {
			return err
		}
		if !ok {
			s.logger.Debug().Msg("body producer failed to reset its position")
			return fmt.Errorf("%w: body producer failed to reset its position", httpmsg.ErrCallbackFailure)
		}
	}

	s.state &^= bodyDone
	return nil
}

// Status reports whether the end of the stream was reached and whether the
// stream is still valid.
func (s *Stream) Status() httpmsg.StreamStatus {
	return httpmsg.StreamStatus{
		EndOfStream: s.state.has(bodyDone),
		Valid:       !s.state.has(invalid),
	}
}

// Length returns the length declared by the producer. Streams without a
// producer have no length.
func (s *Stream) Length() (int64, error) {
	if s.state.has(invalid) {
		return 0, s.invalidError("get length")
	}
	if s.producer == nil {
		return 0, fmt.Errorf("%w: length of a body stream without producer", httpmsg.ErrUnsupported)
	}

	env, err := s.attach("get length")
	if err != nil {
		return 0, err
	}
	defer s.host.DetachEnv(env)

	return call(s, env, "get length", func() int64 {
		return s.producer.Length(env)
	})
}

// Retain adds a reference to the stream.
func (s *Stream) Retain() {
	s.refs.Add(1)
}

// Release drops a reference to the stream. Dropping the last reference
// releases the reference held on the producer.
func (s *Stream) Release() {
	switch refs := s.refs.Add(-1); {
	case refs == 0:
		s.destroy()
	case refs < 0:
		panic("bodystream: reference count dropped below zero")
	}
}

// destroy gives up the producer reference. If the host is shutting down the
// reference is leaked rather than touching a runtime that is going away.
func (s *Stream) destroy() {
	if s.producer == nil {
		return
	}
	producer := s.producer
	s.producer = nil

	env, err := s.host.AttachEnv()
	if err != nil {
		s.logger.Warn().Err(err).Msg("skipping release of body producer reference")
		return
	}
	defer s.host.DetachEnv(env)
	s.host.DeleteGlobalRef(env, producer)
}

func (s *Stream) invalidate() {
	s.state |= invalid
}

func (s *Stream) invalidError(op string) error {
	return fmt.Errorf("%w: cannot %s", httpmsg.ErrInvalidBodyStream, op)
}

func (s *Stream) attach(op string) (*Env, error) {
	env, err := s.host.AttachEnv()
	if err != nil {
		s.logger.Debug().Err(err).Str("op", op).Msg("execution context unavailable")
		return nil, fmt.Errorf("bodystream: %s: %w", op, err)
	}
	return env, nil
}

// call invokes fn and converts any exception raised in env, or panic, to an
// error. The exception is always cleared before returning.
func call[T any](s *Stream, env *Env, op string, fn func() T) (result T, err error) {
	defer func() {
		if v := recover(); v != nil {
			env.Throw(fmt.Errorf("panic: %v", v))
		}
		if exception := env.ExceptionCheck(); exception != nil {
			var zero T
			result = zero
			err = fmt.Errorf("%w: %s: %w", httpmsg.ErrCallbackFailure, op, exception)
			s.logger.Debug().Err(exception).Str("op", op).Msg("body producer raised an exception")
		}
	}()
	return fn(), nil
}

var _ httpmsg.InputStream = (*Stream)(nil)
