package applicator

import "strings"

// Path is a parsed virtual path: the dot-delimited segments leading
// through embedded child fields to a virtual name.
type Path []string

// ParsePath splits a dot-delimited virtual path into its segments.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, "."))
}

func (p Path) String() string { return strings.Join(p, ".") }

// appendPath copies before appending so sibling recursions never share
// a backing array.
func appendPath(p Path, seg string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// Filter selects which virtuals get applied. The zero value selects
// nothing; use All for the apply-everything sentinel or Pick for an
// explicit set of paths.
type Filter struct {
	all   bool
	paths []Path
}

// All returns the sentinel filter that applies every virtual reachable
// at every level.
func All() Filter { return Filter{all: true} }

// Pick returns an explicit filter from dot-delimited virtual paths,
// e.g. Pick("uppercase", "childs.uppercaseOther"). Order is preserved.
// Entries that match nothing in the schema tree are silently ignored.
func Pick(paths ...string) Filter {
	f := Filter{paths: make([]Path, 0, len(paths))}
	for _, p := range paths {
		if parsed := ParsePath(p); len(parsed) > 0 {
			f.paths = append(f.paths, parsed)
		}
	}
	return f
}

// IsAll reports whether the filter is the apply-everything sentinel.
func (f Filter) IsAll() bool { return f.all }

// Matches reports whether a virtual with the given name is selected at
// the current level. Only entries that are exactly one segment long at
// this level count; deeper entries belong to child projections.
func (f Filter) Matches(name string) bool {
	if f.all {
		return true
	}
	for _, p := range f.paths {
		if len(p) == 1 && p[0] == name {
			return true
		}
	}
	return false
}

// Project derives the filter passed down into the child path field.
// All passes through unchanged. An explicit filter keeps only entries
// whose first segment is field, with that segment consumed; no matching
// entries yields an empty explicit filter, never a fallback to All.
func (f Filter) Project(field string) Filter {
	if f.all {
		return f
	}
	var out Filter
	for _, p := range f.paths {
		if len(p) > 1 && p[0] == field {
			out.paths = append(out.paths, p[1:])
		}
	}
	return out
}

// Empty reports whether the filter can select no virtual at any depth.
func (f Filter) Empty() bool { return !f.all && len(f.paths) == 0 }

// Select returns the subset of names selected at the current level, in
// the given order.
func (f Filter) Select(names []string) []string {
	if f.all {
		return names
	}
	var out []string
	for _, name := range names {
		if f.Matches(name) {
			out = append(out, name)
		}
	}
	return out
}
