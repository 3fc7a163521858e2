// Package leanvirtuals adds virtual (computed) field values to plain
// documents produced by a lean query path, in place, driven by a schema
// description of virtuals and embedded sub-documents.
//
// Typical use from a query pipeline:
//
//	sch := leanvirtuals.NewSchema("Person").
//		AddVirtual("uppercase", upperName).
//		AddChild("childs", childSchema, leanvirtuals.CardinalityList)
//
//	// doc is a map[string]any (or a slice of them) fresh off the wire.
//	err := leanvirtuals.Apply(ctx, sch, doc, leanvirtuals.Pick("uppercase", "childs.uppercaseOther"))
//
// The package is a thin facade over internal/schema and
// internal/applicator; see internal/applicator for the engine contract.
package leanvirtuals

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/h2atecnologia/mongoose-lean-virtuals/internal/applicator"
	"github.com/h2atecnologia/mongoose-lean-virtuals/internal/schema"
)

type (
	// Schema describes one document level: its virtuals and embedded children.
	Schema = schema.Schema
	// Virtual is a named computed field with its getter chain.
	Virtual = schema.Virtual
	// Getter is one step of a virtual's getter chain.
	Getter = schema.Getter
	// Cardinality distinguishes single embedded documents from embedded arrays.
	Cardinality = schema.Cardinality
	// Filter selects which virtuals get applied.
	Filter = applicator.Filter
	// Invoker executes a virtual's getter chain; substitutable via WithInvoker.
	Invoker = applicator.Invoker
	// Applicator is the reusable engine behind Apply.
	Applicator = applicator.Applicator
	// Option configures an Applicator.
	Option = applicator.Option
)

const (
	CardinalitySingle = schema.CardinalitySingle
	CardinalityList   = schema.CardinalityList
)

// NewSchema creates an empty schema description.
func NewSchema(name string) *Schema { return schema.NewSchema(name) }

// All selects every virtual reachable at every level.
func All() Filter { return applicator.All() }

// Pick selects an explicit set of dot-delimited virtual paths.
func Pick(paths ...string) Filter { return applicator.Pick(paths...) }

// New builds a reusable Applicator; see WithInvoker and WithTracer.
func New(opts ...Option) *Applicator { return applicator.New(opts...) }

// WithInvoker substitutes the getter-chain execution mechanism.
func WithInvoker(inv Invoker) Option { return applicator.WithInvoker(inv) }

// WithTracer records one span per Apply call.
func WithTracer(tr trace.Tracer) Option { return applicator.WithTracer(tr) }

var defaultApplicator = applicator.New()

// Apply mutates target in place with the default Applicator. target may
// be a map[string]any document, a slice of documents, or nil (no-op).
func Apply(ctx context.Context, sch *Schema, target any, filter Filter) error {
	return defaultApplicator.Apply(ctx, sch, target, filter)
}
