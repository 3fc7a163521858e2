// Package transform holds named, reusable getter functions so schemas
// loaded from declarative sources can bind getter chains by name.
package transform

import (
	"context"
	"fmt"
	"strings"

	schema "github.com/h2atecnologia/mongoose-lean-virtuals/internal/schema"
)

// Registry maps transform names to getters.
type Registry struct {
	getters map[string]schema.Getter
}

// NewRegistry returns a registry preloaded with the built-in transforms.
func NewRegistry() *Registry {
	r := &Registry{getters: make(map[string]schema.Getter)}
	for name, g := range builtins {
		r.getters[name] = g
	}
	return r
}

// Register adds or replaces a named transform.
func (r *Registry) Register(name string, g schema.Getter) *Registry {
	r.getters[name] = g
	return r
}

// Lookup returns the named transform.
func (r *Registry) Lookup(name string) (schema.Getter, error) {
	g, ok := r.getters[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform %q", name)
	}
	return g, nil
}

// Field returns a getter that ignores the previous value and reads the
// named field off the enclosing document. Used to seed a chain from a
// source field other than the virtual's own name.
func Field(name string) schema.Getter {
	return func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		return doc[name], nil
	}
}

// Const returns a getter producing a fixed value.
func Const(value any) schema.Getter {
	return func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		return value, nil
	}
}

var builtins = map[string]schema.Getter{
	"uppercase": stringTransform(strings.ToUpper),
	"lowercase": stringTransform(strings.ToLower),
	"trim":      stringTransform(strings.TrimSpace),
	"title":     stringTransform(titleCase),
	"length": func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		s, ok := prev.(string)
		if !ok {
			return nil, nil
		}
		return len(s), nil
	},
}

// stringTransform lifts a string function into a getter that passes
// non-string previous values through as nil.
func stringTransform(fn func(string) string) schema.Getter {
	return func(ctx context.Context, prev any, doc map[string]any) (any, error) {
		s, ok := prev.(string)
		if !ok {
			return nil, nil
		}
		return fn(s), nil
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
