package lumen

import (
	"fmt"
	"strings"

	"github.com/lumenlang/lumen/internal/semantic"
	"github.com/lumenlang/lumen/span"
)

// Diagnostic is one user-facing problem found during lowering.
type Diagnostic struct {
	Span    span.Span // source range, may be invalid for synthesized items
	Message string    // problem description
}

func (d Diagnostic) String() string {
	if d.Span.IsValid() {
		return fmt.Sprintf("%s: %s", d.Span.Start, d.Message)
	}
	return d.Message
}

// CompileError reports the user-facing diagnostics of a failed run. The
// pipeline degrades gracefully on each diagnostic, so one error can
// carry several independent problems.
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "compile error"
	case 1:
		return "compile error: " + e.Diagnostics[0].String()
	default:
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d compile errors:", len(e.Diagnostics))
		for _, d := range e.Diagnostics {
			sb.WriteString("\n\t")
			sb.WriteString(d.String())
		}
		return sb.String()
	}
}

// compileError converts the pipeline's diagnostic sink into the public
// error type.
func compileError(diags semantic.Diagnostics) *CompileError {
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = Diagnostic{Span: d.Span, Message: d.Message}
	}
	return &CompileError{Diagnostics: out}
}
