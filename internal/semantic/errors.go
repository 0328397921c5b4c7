// Package semantic provides the symbol/type context and the two semantic
// passes of the lowering pipeline:
//   - Global item collection: registering every top-level item into the
//     global symbol table
//   - Path resolution: binding every name reference to a local variable
//     or a global location
//
// The same Context is threaded through every later pass; it owns the
// symbol table, the type table, the node-id generator, and the
// diagnostic sink for the whole compilation.
package semantic

import (
	"fmt"
	"strings"

	"github.com/lumenlang/lumen/span"
)

// Diagnostic is a user-facing problem with a source location. Recording
// a diagnostic never halts a traversal; the pass degrades gracefully so
// one compilation can surface several independent diagnostics.
type Diagnostic struct {
	Span    span.Span
	Message string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Span.IsValid() {
		return fmt.Sprintf("%s: %s", d.Span.Start, d.Message)
	}
	return d.Message
}

// Diagnostics is the side-channel collection of user-facing problems.
type Diagnostics []*Diagnostic

// Addf appends a diagnostic to the list.
func (ds *Diagnostics) Addf(sp span.Span, format string, args ...any) {
	*ds = append(*ds, &Diagnostic{
		Span:    sp,
		Message: fmt.Sprintf(format, args...),
	})
}

// Err returns an error if the list is non-empty, nil otherwise.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return ds
}

// Error implements the error interface for Diagnostics.
func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no errors"
	case 1:
		return ds[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString(ds[0].Error())
		for _, d := range ds[1:] {
			sb.WriteByte('\n')
			sb.WriteString(d.Error())
		}
		return sb.String()
	}
}

// Defect is an internal invariant violation: a bug in an earlier pass or
// a mis-ordered pipeline, never a user error. Defects abort the
// compilation immediately via panic and are deliberately not recovered
// into language diagnostics.
type Defect struct {
	Message string
}

// Error implements the error interface.
func (d *Defect) Error() string {
	return "internal defect: " + d.Message
}

// Defectf creates a Defect. Callers panic with the result:
//
//	panic(semantic.Defectf("assignment survived into codegen: %s", name))
func Defectf(format string, args ...any) *Defect {
	return &Defect{Message: fmt.Sprintf(format, args...)}
}

// Common diagnostic messages as constants for consistency.
const (
	ErrUnknownSymbol   = "unknown symbol %q"
	ErrDuplicateStruct = "struct %q is already defined in this scope"
	ErrDuplicateItem   = "%q is already defined in this scope"
)
