package schema

import "context"

// Schema describes the shape of a document level: the virtual fields
// declared directly on it and the embedded child documents beneath it.
// Schemas are built once by the caller and only read by the engine.
type Schema struct {
	Name string

	virtuals []*Virtual
	children []*Child

	virtualIndex map[string]int
	childIndex   map[string]int
}

// Virtual is a computed field: a name unique within its schema level and
// the ordered getter chain that produces its value.
type Virtual struct {
	Name    string
	Getters []Getter
	Options map[string]any // carried through untouched, not read by the engine
}

// Getter transforms one step of a virtual's value. prev is the value
// produced by the previous getter (the field's raw stored value for the
// first getter in a chain) and doc is the nearest enclosing document.
type Getter func(ctx context.Context, prev any, doc map[string]any) (any, error)

// Cardinality distinguishes single embedded documents from embedded arrays.
type Cardinality string

const (
	CardinalitySingle Cardinality = "SINGLE"
	CardinalityList   Cardinality = "LIST"
)

// Child is an embedded sub-document path: the field name it lives under,
// its own schema, and whether the field holds one document or a list.
type Child struct {
	Name   string
	Schema *Schema
	Card   Cardinality
}

// NewSchema creates an empty schema. Name is informational only.
func NewSchema(name string) *Schema {
	return &Schema{
		Name:         name,
		virtualIndex: make(map[string]int),
		childIndex:   make(map[string]int),
	}
}

// AddVirtual declares a virtual field. Declaration order is preserved and
// is the order the engine evaluates virtuals in. Re-declaring a name
// replaces its chain in place without changing its position.
func (s *Schema) AddVirtual(name string, getters ...Getter) *Schema {
	v := &Virtual{Name: name, Getters: getters}
	if idx, ok := s.virtualIndex[name]; ok {
		s.virtuals[idx] = v
		return s
	}
	s.virtualIndex[name] = len(s.virtuals)
	s.virtuals = append(s.virtuals, v)
	return s
}

// AddChild declares an embedded sub-document path. A child may share its
// name with a virtual; the engine then recurses into the value the
// virtual wrote.
func (s *Schema) AddChild(name string, child *Schema, card Cardinality) *Schema {
	c := &Child{Name: name, Schema: child, Card: card}
	if idx, ok := s.childIndex[name]; ok {
		s.children[idx] = c
		return s
	}
	s.childIndex[name] = len(s.children)
	s.children = append(s.children, c)
	return s
}

// Virtuals returns the virtuals declared directly on this schema, in
// declaration order. The returned slice must not be mutated.
func (s *Schema) Virtuals() []*Virtual { return s.virtuals }

// Children returns the embedded child paths in declaration order.
func (s *Schema) Children() []*Child { return s.children }

// Virtual returns the named virtual, or nil.
func (s *Schema) Virtual(name string) *Virtual {
	if idx, ok := s.virtualIndex[name]; ok {
		return s.virtuals[idx]
	}
	return nil
}

// Child returns the named child path, or nil.
func (s *Schema) Child(name string) *Child {
	if idx, ok := s.childIndex[name]; ok {
		return s.children[idx]
	}
	return nil
}
