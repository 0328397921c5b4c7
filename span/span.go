// Package span provides source positions and spans shared between the
// external parser and the lowering pipeline.
package span

import "fmt"

// Position represents a position in source code.
type Position struct {
	// Filename is the name of the source file (optional).
	Filename string
	// Line number (1-indexed).
	Line int
	// Column is the byte offset on the line (1-indexed).
	Column int
}

// String returns a string representation of the position.
// Format: "filename:line:column" or "line:column" if filename is empty.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before returns true if p is before other in the source.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// Span represents a range in source code from Start to End.
type Span struct {
	Start Position
	End   Position
}

// New creates a span covering start to end.
func New(start, end Position) Span {
	return Span{Start: start, End: end}
}

// String returns a string representation of the span.
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s-%d", s.Start.String(), s.End.Column)
	}
	return fmt.Sprintf("%s-%s", s.Start.String(), s.End.String())
}

// IsValid returns true if the span's start position is valid.
func (s Span) IsValid() bool {
	return s.Start.IsValid()
}

// Join returns the smallest span covering both s and other.
// Synthesized nodes inherit the joined span of the nodes they replace.
func (s Span) Join(other Span) Span {
	out := s
	if other.Start.IsValid() && (!s.Start.IsValid() || other.Start.Before(s.Start)) {
		out.Start = other.Start
	}
	if other.End.IsValid() && (!s.End.IsValid() || s.End.Before(other.End)) {
		out.End = other.End
	}
	return out
}

// NoSpan is a zero Span used when a node has no source counterpart.
var NoSpan = Span{}
