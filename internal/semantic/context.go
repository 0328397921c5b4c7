package semantic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
)

// TypeTable maps node identity to resolved type. It is populated by the
// upstream type checker and extended, never overwritten, by every
// lowering pass that synthesizes new nodes.
type TypeTable struct {
	types map[ast.NodeID]ast.Type
}

// NewTypeTable creates an empty type table.
func NewTypeTable() *TypeTable {
	return &TypeTable{types: make(map[ast.NodeID]ast.Type)}
}

// Get returns the type recorded for the node, if any.
func (tt *TypeTable) Get(id ast.NodeID) (ast.Type, bool) {
	t, ok := tt.types[id]
	return t, ok
}

// TypeOf returns the type recorded for the node, or nil.
func (tt *TypeTable) TypeOf(n ast.Node) ast.Type {
	return tt.types[n.ID()]
}

// Set records the type of a node. Re-recording the same type is a no-op;
// changing an existing entry to a different type is a defect, since node
// ids must never be reused for structurally different nodes.
func (tt *TypeTable) Set(id ast.NodeID, t ast.Type) {
	if prev, ok := tt.types[id]; ok {
		if !ast.TypesEqual(prev, t) {
			panic(Defectf("type table entry for node %d rewritten from %s to %s", id, prev, t))
		}
		return
	}
	tt.types[id] = t
}

// Len returns the number of recorded entries.
func (tt *TypeTable) Len() int {
	return len(tt.types)
}

// Context is the per-compilation symbol/type state threaded through
// every pass. It is exclusively owned by the pipeline for the duration
// of one compilation and never accessed concurrently.
type Context struct {
	Table *SymbolTable
	Types *TypeTable
	IDs   *ast.IDGen
	Diags *Diagnostics
	Log   *zap.Logger

	names uint64
}

// NewContext creates a fresh compilation context. A nil logger defaults
// to a no-op logger.
func NewContext(log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		Table: NewSymbolTable(),
		Types: NewTypeTable(),
		IDs:   &ast.IDGen{},
		Diags: &Diagnostics{},
		Log:   log,
	}
}

// NewID mints a fresh node id.
func (c *Context) NewID() ast.NodeID {
	return c.IDs.New()
}

// FreshName returns a name guaranteed not to collide with any user
// identifier or previously synthesized name within this compilation.
// The double-underscore prefix is reserved by the language.
func (c *Context) FreshName(base string) ast.Symbol {
	c.names++
	return ast.Symbol(fmt.Sprintf("__%s_%d", base, c.names))
}

// InScope runs fn inside a freshly pushed local frame, guaranteeing the
// pop even on early return or panic.
func (c *Context) InScope(fn func()) {
	c.Table.PushScope()
	defer c.Table.PopScope()
	fn()
}
