package wasmbody

import (
	"context"

	"github.com/stealthrocket/httpwire/pkg/bodystream"
	"github.com/stealthrocket/wazergo"
	. "github.com/stealthrocket/wazergo/types"
)

// HostModuleName is the name of the module that guest producers import the
// write function from.
const HostModuleName = "http_body"

var hostModule wazergo.HostModule[*Module] = functions{
	"write": wazergo.F1((*Module).write),
}

type functions wazergo.Functions[*Module]

func (f functions) Name() string {
	return HostModuleName
}

func (f functions) Functions() wazergo.Functions[*Module] {
	return (wazergo.Functions[*Module])(f)
}

func (f functions) Instantiate(ctx context.Context, opts ...Option) (*Module, error) {
	mod := &Module{}
	wazergo.Configure(mod, opts...)
	return mod, nil
}

type Option = wazergo.Option[*Module]

// Module is the host side of http_body.
type Module struct{}

func (m *Module) Close(context.Context) error {
	return nil
}

// write copies data to the region that the current body_send call fills, and
// returns the number of bytes copied. Outside of body_send nothing is copied.
func (m *Module) write(ctx context.Context, data Bytes) Int32 {
	region, _ := ctx.Value(regionKey{}).(*bodystream.Region)
	if region == nil {
		return 0
	}
	n, _ := region.Write(data)
	return Int32(n)
}

type regionKey struct{}

func withRegion(ctx context.Context, region *bodystream.Region) context.Context {
	return context.WithValue(ctx, regionKey{}, region)
}
