package ast

import "strings"

// Symbol is an identifier in the source program or a name synthesized by
// a lowering pass.
type Symbol string

// Location is the globally unique qualified name of a top-level item:
// the owning program plus an ordered sequence of path segments. It is
// immutable once constructed, comparable (usable as a map key), and
// totally ordered via Less.
type Location struct {
	Program Symbol
	// path holds the segments joined by '/' so the struct stays comparable.
	path string
}

// NewLocation creates a location for the item named by segments inside
// program.
func NewLocation(program Symbol, segments ...Symbol) Location {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = string(s)
	}
	return Location{Program: program, path: strings.Join(parts, "/")}
}

// Segments returns the ordered path segments.
func (l Location) Segments() []Symbol {
	if l.path == "" {
		return nil
	}
	parts := strings.Split(l.path, "/")
	segs := make([]Symbol, len(parts))
	for i, p := range parts {
		segs[i] = Symbol(p)
	}
	return segs
}

// Name returns the final path segment.
func (l Location) Name() Symbol {
	if i := strings.LastIndexByte(l.path, '/'); i >= 0 {
		return Symbol(l.path[i+1:])
	}
	return Symbol(l.path)
}

// WithName returns a copy of l with the final segment replaced.
// Used by storage lowering to redirect a storage variable to its
// backing mapping without mutating the original location.
func (l Location) WithName(name Symbol) Location {
	if i := strings.LastIndexByte(l.path, '/'); i >= 0 {
		return Location{Program: l.Program, path: l.path[:i+1] + string(name)}
	}
	return Location{Program: l.Program, path: string(name)}
}

// String returns "program/segment/.../name".
func (l Location) String() string {
	if l.path == "" {
		return string(l.Program)
	}
	return string(l.Program) + "/" + l.path
}

// Less defines a total order over locations (program first, then path).
func (l Location) Less(other Location) bool {
	if l.Program != other.Program {
		return l.Program < other.Program
	}
	return l.path < other.path
}
