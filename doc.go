// Package lumen provides the lowering-and-codegen pipeline of the lumen
// compiler: the middle-end that takes a resolved, type-checked program
// tree and emits the flat, register-addressed assembly text of the
// target constraint virtual machine.
//
// The pipeline is a fixed sequence of semantics-preserving rewrites:
//   - Global item collection and path resolution (symbol binding)
//   - Destructuring (tuple elimination)
//   - Option lowering (optional types to tagged structs)
//   - Storage lowering (storage variables to backing mappings)
//   - Common-subexpression elimination
//   - Flag insertion (partial operators to flagged variants)
//   - Code generation (assembly text, one artifact per program)
//
// # Quick Start
//
// For one-off lowering of a parsed tree:
//
//	artifact, err := lumen.Lower(prog, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(artifact.Units[0].Text)
//
// # Workspaces
//
// Tooling that lowers the same tree repeatedly (editors, the
// interpreter, ABI readers) should hold a [Workspace], which caches
// emitted artifacts keyed by a fingerprint of the input tree:
//
//	ws, err := lumen.NewWorkspace(nil)
//	artifact, err := ws.Lower(prog)
//
// # Error Handling
//
// User-level problems (unknown symbols, duplicate definitions) are
// returned as a [*CompileError] carrying every diagnostic of the run.
// Internal invariant violations panic: they indicate a bug in a pass or
// a mis-ordered pipeline, never a user error, and are deliberately not
// converted into compile errors.
//
// # Thread Safety
//
// Lowering mutates the input tree in place; a tree must not be lowered
// concurrently or reused afterwards. A [Workspace] is safe for
// sequential reuse but not for concurrent calls.
package lumen
