package schema

import "strings"

// Render produces a deterministic text form of the schema tree:
// declaration order for virtuals and children, one node per line.
// Cyclic references are rendered once and marked at each revisit.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	seen := make(map[*Schema]bool)
	renderSchema(&b, s, 0, seen)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderSchema(b *strings.Builder, s *Schema, depth int, seen map[*Schema]bool) {
	indent := strings.Repeat("  ", depth)
	name := s.Name
	if name == "" {
		name = "(anonymous)"
	}
	if seen[s] {
		b.WriteString(indent)
		b.WriteString("schema ")
		b.WriteString(name)
		b.WriteString(" (cycle)\n")
		return
	}
	seen[s] = true

	b.WriteString(indent)
	b.WriteString("schema ")
	b.WriteString(name)
	b.WriteString("\n")

	for _, v := range s.Virtuals() {
		b.WriteString(indent)
		b.WriteString("  virtual ")
		b.WriteString(v.Name)
		b.WriteString("\n")
	}
	for _, c := range s.Children() {
		b.WriteString(indent)
		b.WriteString("  child ")
		b.WriteString(c.Name)
		if c.Card == CardinalityList {
			b.WriteString(" []")
		}
		b.WriteString("\n")
		renderSchema(b, c.Schema, depth+2, seen)
	}
	delete(seen, s)
}
