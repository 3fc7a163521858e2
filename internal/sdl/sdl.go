// Package sdl loads a schema tree from GraphQL SDL.
//
// Object types become schemas and object-typed fields become embedded
// child paths (list types give list cardinality). A field annotated with
//
//	@virtual(apply: ["trim", "uppercase"], from: "name")
//
// becomes a virtual whose getter chain is the named transforms resolved
// against a registry; the optional from argument seeds the chain from
// another field's value instead of the virtual's own stored value.
package sdl

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	schema "github.com/h2atecnologia/mongoose-lean-virtuals/internal/schema"
	transform "github.com/h2atecnologia/mongoose-lean-virtuals/internal/transform"
)

const directiveName = "virtual"

// Load parses source and builds the schema tree rooted at the named
// object type. Cyclic type references are allowed; the resulting tree
// shares one Schema per type.
func Load(source, root string, reg *transform.Registry) (*schema.Schema, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: root, Input: source})
	if err != nil {
		return nil, err
	}

	objects := make(map[string]*ast.Definition)
	for _, def := range doc.Definitions {
		if def.Kind == ast.Object {
			objects[def.Name] = def
		}
	}
	if _, ok := objects[root]; !ok {
		return nil, fmt.Errorf("root type %q not found", root)
	}

	b := &builder{objects: objects, registry: reg, built: make(map[string]*schema.Schema)}
	return b.build(root)
}

type builder struct {
	objects  map[string]*ast.Definition
	registry *transform.Registry
	built    map[string]*schema.Schema
}

func (b *builder) build(name string) (*schema.Schema, error) {
	if s, ok := b.built[name]; ok {
		return s, nil
	}
	def := b.objects[name]
	s := schema.NewSchema(name)
	// Registered before walking fields so cyclic references resolve.
	b.built[name] = s

	for _, field := range def.Fields {
		if dir := field.Directives.ForName(directiveName); dir != nil {
			getters, err := b.buildChain(dir)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, field.Name, err)
			}
			s.AddVirtual(field.Name, getters...)
		}
		// An object-typed field is a child path even when it is also a
		// virtual: the engine then recurses into the computed value.
		childName := namedType(field.Type)
		if _, ok := b.objects[childName]; !ok {
			continue
		}
		child, err := b.build(childName)
		if err != nil {
			return nil, err
		}
		card := schema.CardinalitySingle
		if isList(field.Type) {
			card = schema.CardinalityList
		}
		s.AddChild(field.Name, child, card)
	}
	return s, nil
}

func (b *builder) buildChain(dir *ast.Directive) ([]schema.Getter, error) {
	var getters []schema.Getter
	if from := dir.Arguments.ForName("from"); from != nil && from.Value != nil {
		getters = append(getters, transform.Field(from.Value.Raw))
	}
	apply := dir.Arguments.ForName("apply")
	if apply == nil || apply.Value == nil {
		return nil, fmt.Errorf("@%s requires an apply argument", directiveName)
	}
	for _, name := range stringList(apply.Value) {
		g, err := b.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		getters = append(getters, g)
	}
	if len(getters) == 0 {
		return nil, fmt.Errorf("@%s has an empty getter chain", directiveName)
	}
	return getters, nil
}

func stringList(v *ast.Value) []string {
	if v.Kind != ast.ListValue {
		return []string{v.Raw}
	}
	out := make([]string, 0, len(v.Children))
	for _, child := range v.Children {
		out = append(out, child.Value.Raw)
	}
	return out
}

// namedType unwraps list and non-null wrappers down to the named type.
func namedType(t *ast.Type) string {
	for t.Elem != nil {
		t = t.Elem
	}
	return t.NamedType
}

func isList(t *ast.Type) bool { return t.Elem != nil }
