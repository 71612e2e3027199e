// Package wasmbody runs request body producers as WebAssembly guest modules.
//
// A guest producer exports the following functions:
//
//	body_send(cap: i32) -> i32   write up to cap bytes, return 1 after the last chunk
//	body_reset() -> i32          rewind to the beginning, return 0 on failure
//	body_length() -> i64         declared length of the body
//
// and fills the region of body_send by calling the write function imported
// from the http_body module, which returns the number of bytes written.
//
// The guest module is the producer's runtime: once it is closed, execution
// contexts can no longer be attached. Traps raised by the guest are reported
// as exceptions.
package wasmbody

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/stealthrocket/httpwire/pkg/bodystream"
	"github.com/stealthrocket/httpwire/pkg/httpmsg"
	"github.com/stealthrocket/wazergo"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Runtime loads guest producers in a wazero runtime.
type Runtime struct {
	runtime wazero.Runtime
	host    *wazergo.ModuleInstance[*Module]
}

// NewRuntime instantiates the http_body host module in runtime. The runtime
// remains owned by the caller.
func NewRuntime(ctx context.Context, runtime wazero.Runtime) (*Runtime, error) {
	host, err := wazergo.Instantiate(ctx, runtime, hostModule)
	if err != nil {
		return nil, fmt.Errorf("wasmbody: instantiating %s host module: %w", HostModuleName, err)
	}
	return &Runtime{runtime: runtime, host: host}, nil
}

// Close closes the host module. Producers loaded by r must be closed first.
func (r *Runtime) Close(ctx context.Context) error {
	return r.host.Close(ctx)
}

// Load compiles and instantiates a guest producer. Each producer runs in its
// own module instance.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Producer, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling body producer: %s", httpmsg.ErrInvalidArgument, err)
	}
	defer compiled.Close(ctx)

	ctx = wazergo.WithModuleInstance(ctx, r.host)
	name := "body-" + uuid.NewString()

	module, err := r.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions(),
	)
	if err != nil {
		return nil, fmt.Errorf("wasmbody: instantiating body producer: %w", err)
	}

	p := &Producer{ctx: ctx, name: name, module: module}
	for _, export := range []struct {
		name string
		fn   *api.Function
	}{
		{"body_send", &p.send},
		{"body_reset", &p.reset},
		{"body_length", &p.length},
	} {
		if *export.fn = module.ExportedFunction(export.name); *export.fn == nil {
			module.Close(ctx)
			return nil, fmt.Errorf("%w: body producer does not export %s", httpmsg.ErrInvalidArgument, export.name)
		}
	}
	return p, nil
}

// Producer is a guest producer. It also acts as its own bodystream.Host.
type Producer struct {
	ctx    context.Context
	name   string
	module api.Module
	send   api.Function
	reset  api.Function
	length api.Function
	refs   atomic.Int64
}

// Name returns the name of the guest module instance.
func (p *Producer) Name() string {
	return p.name
}

// Refs returns the number of references held on the producer by body streams.
func (p *Producer) Refs() int {
	return int(p.refs.Load())
}

// Close closes the guest module. Body streams still reading from the producer
// fail with httpmsg.ErrContextUnavailable afterwards.
func (p *Producer) Close(ctx context.Context) error {
	return p.module.Close(ctx)
}

func (p *Producer) AttachEnv() (*bodystream.Env, error) {
	if p.module.IsClosed() {
		return nil, fmt.Errorf("%w: guest module %s is closed", httpmsg.ErrContextUnavailable, p.name)
	}
	return bodystream.NewEnv(p.ctx), nil
}

func (p *Producer) DetachEnv(*bodystream.Env) {}

func (p *Producer) NewGlobalRef(*bodystream.Env, bodystream.Producer) error {
	p.refs.Add(1)
	return nil
}

func (p *Producer) DeleteGlobalRef(*bodystream.Env, bodystream.Producer) {
	p.refs.Add(-1)
}

func (p *Producer) ResetPosition(env *bodystream.Env) bool {
	ret, ok := p.call(env.Context(), env, "body_reset", p.reset)
	return ok && ret != 0
}

func (p *Producer) SendOutgoingBody(env *bodystream.Env, region *bodystream.Region) bool {
	size := region.Remaining()
	if size > math.MaxInt32 {
		size = math.MaxInt32
	}
	ret, ok := p.call(withRegion(env.Context(), region), env, "body_send", p.send, uint64(size))
	return ok && ret != 0
}

func (p *Producer) Length(env *bodystream.Env) int64 {
	ret, _ := p.call(env.Context(), env, "body_length", p.length)
	return int64(ret)
}

func (p *Producer) call(ctx context.Context, env *bodystream.Env, name string, fn api.Function, params ...uint64) (uint64, bool) {
	results, err := fn.Call(ctx, params...)
	if err != nil {
		env.Throw(fmt.Errorf("%s: %w", name, err))
		return 0, false
	}
	if len(results) != 1 {
		env.Throw(fmt.Errorf("%s: expected one result, got %d", name, len(results)))
		return 0, false
	}
	return results[0], true
}

var (
	_ bodystream.Host     = (*Producer)(nil)
	_ bodystream.Producer = (*Producer)(nil)
)
