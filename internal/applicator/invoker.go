package applicator

import (
	"context"

	schema "github.com/h2atecnologia/mongoose-lean-virtuals/internal/schema"
)

// Invoker executes a virtual's getter chain against a document.
//
// General contract
//   - Run feeds each getter the value produced by the previous one;
//     initial is the field's raw stored value and seeds the first getter.
//   - doc is the nearest enclosing document, passed unchanged to every
//     getter in the chain. Implementations must not mutate doc themselves;
//     getters may read it, including values written by virtuals evaluated
//     earlier at the same level.
//   - The first getter error aborts the chain and is returned as-is; the
//     engine wraps it with the virtual's path and propagates it to the
//     Apply caller. No retries.
//   - Implementations should be stateless; the engine may share one
//     Invoker across concurrent Apply calls on disjoint documents.
//
// The default implementation only sequences calls. Hosts with their own
// chain-execution machinery (memoization, instrumentation) substitute it
// via WithInvoker.
type Invoker interface {
	Run(ctx context.Context, chain []schema.Getter, initial any, doc map[string]any) (any, error)
}

type chainInvoker struct{}

// NewChainInvoker returns the default Invoker, which calls each getter
// in order and returns the last value.
func NewChainInvoker() Invoker { return chainInvoker{} }

func (chainInvoker) Run(ctx context.Context, chain []schema.Getter, initial any, doc map[string]any) (any, error) {
	value := initial
	for _, get := range chain {
		var err error
		value, err = get(ctx, value, doc)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}
