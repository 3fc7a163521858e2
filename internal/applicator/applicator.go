package applicator

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	schema "github.com/h2atecnologia/mongoose-lean-virtuals/internal/schema"
)

// Applicator writes virtual field values into plain documents. It holds
// no per-call state, so one Applicator may serve concurrent Apply calls
// as long as each call operates on its own document graph.
type Applicator struct {
	invoker Invoker
	tracer  trace.Tracer
}

type Option func(*Applicator)

// WithInvoker substitutes the getter-chain execution mechanism.
func WithInvoker(inv Invoker) Option {
	return func(a *Applicator) { a.invoker = inv }
}

// WithTracer records one span per Apply call.
func WithTracer(tr trace.Tracer) Option {
	return func(a *Applicator) { a.tracer = tr }
}

func New(opts ...Option) *Applicator {
	a := &Applicator{invoker: NewChainInvoker()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply mutates target in place, adding the values of the virtuals
// selected by filter. target may be a single document (map[string]any),
// a slice of documents, or nil; nil and non-document values are a no-op.
//
// Per document, virtuals declared directly on sch are evaluated in
// declaration order and written as doc[name] = value; the engine then
// recurses into embedded child paths with the filter projected onto each
// child's field name. Existing non-virtual fields are never touched.
//
// A getter error aborts the call and propagates wrapped with the failing
// virtual's path; values written before the failure stay written.
func (a *Applicator) Apply(ctx context.Context, sch *schema.Schema, target any, filter Filter) error {
	if a.tracer != nil {
		var span trace.Span
		ctx, span = a.tracer.Start(ctx, "leanvirtuals.apply")
		span.SetAttributes(
			attribute.String("schema.name", sch.Name),
			attribute.Bool("filter.all", filter.IsAll()),
			attribute.Int("document.count", documentCount(target)),
		)
		defer span.End()
		err := a.applyAny(ctx, sch, target, filter, nil)
		if err != nil {
			span.RecordError(err)
		}
		return err
	}
	return a.applyAny(ctx, sch, target, filter, nil)
}

// applyAny normalizes target: fan out over slices element by element,
// skip nullish and non-document values silently.
func (a *Applicator) applyAny(ctx context.Context, sch *schema.Schema, target any, filter Filter, path Path) error {
	if isNullish(target) {
		return nil
	}
	switch t := target.(type) {
	case map[string]any:
		return a.applyDoc(ctx, sch, t, filter, path)
	case []map[string]any:
		for _, doc := range t {
			if err := a.applyAny(ctx, sch, doc, filter, path); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for _, elem := range t {
			if err := a.applyAny(ctx, sch, elem, filter, path); err != nil {
				return err
			}
		}
		return nil
	}
	// Other slice kinds still fan out; scalars are not documents.
	rv := reflect.ValueOf(target)
	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if err := a.applyAny(ctx, sch, rv.Index(i).Interface(), filter, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Applicator) applyDoc(ctx context.Context, sch *schema.Schema, doc map[string]any, filter Filter, path Path) error {
	for _, v := range sch.Virtuals() {
		if !filter.Matches(v.Name) {
			continue
		}
		value, err := a.invoker.Run(ctx, v.Getters, doc[v.Name], doc)
		if err != nil {
			return fmt.Errorf("virtual %q: %w", appendPath(path, v.Name).String(), err)
		}
		doc[v.Name] = value
	}

	for _, c := range sch.Children() {
		childFilter := filter.Project(c.Name)
		if childFilter.Empty() {
			continue
		}
		// Reading after the virtual pass lets a child path share a
		// virtual's name and recurse into the value it just wrote.
		child, ok := doc[c.Name]
		if !ok {
			continue
		}
		if err := a.applyAny(ctx, c.Schema, child, childFilter, appendPath(path, c.Name)); err != nil {
			return err
		}
	}
	return nil
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr).
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

func documentCount(target any) int {
	switch t := target.(type) {
	case nil:
		return 0
	case []map[string]any:
		return len(t)
	case []any:
		return len(t)
	default:
		return 1
	}
}
