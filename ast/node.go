// Package ast defines the program tree exchanged between the external
// parser, the lowering pipeline, and the adjacent tooling (interpreter,
// ABI generator).
//
// The tree is designed for:
//   - Exhaustive matching: each syntactic category (expression, statement,
//     type) is a closed set of variants behind a marker interface.
//   - Node-identity side tables: every node carries a NodeID minted by an
//     [IDGen]; the type table is keyed by that identity, so passes that
//     synthesize nodes mint a fresh id and record its type before the node
//     becomes reachable from the output tree.
//   - Source location tracking for diagnostics.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expression (interface)
//	│   ├── Literal, Path - atoms
//	│   ├── Binary, Unary, Ternary, Cast - operations
//	│   ├── TupleExpr, ArrayLit, Repeat, StructInit - aggregates
//	│   ├── Index, Member - projections
//	│   ├── Call, MappingOp, VectorOp - calls
//	│   └── OptionSome, OptionNone, Unit - special
//	├── Statement (interface)
//	│   ├── Define, Assign, Return - bindings and flow
//	│   ├── Conditional, Iteration, Block - structure
//	│   └── Assert, ExprStmt - other
//	└── Binding - a name introduced by a definition or input
package ast

import "github.com/lumenlang/lumen/span"

// NodeID uniquely identifies a tree node within one compilation.
// It is the key of the type table and must never be reused for a
// structurally different node.
type NodeID uint64

// IDGen mints monotonically increasing node ids. Every pass that
// synthesizes new nodes draws from the same generator, owned by the
// compilation context.
type IDGen struct {
	next NodeID
}

// New returns a fresh, never-before-issued node id.
func (g *IDGen) New() NodeID {
	g.next++
	return g.next
}

// Seed advances the generator past id. A pipeline receiving a tree built
// by another generator seeds past its highest id so synthesized nodes
// never collide with existing ones.
func (g *IDGen) Seed(id NodeID) {
	if id > g.next {
		g.next = id
	}
}

// Node is the interface implemented by all tree nodes.
type Node interface {
	// ID returns the node's identity, the key into the type table.
	ID() NodeID

	// Span returns the source range the node covers. Synthesized nodes
	// carry the span of the construct they were derived from.
	Span() span.Span
}

// Expression is the interface for all expression nodes.
type Expression interface {
	Node
	exprNode() // marker method to prevent external implementations
}

// Statement is the interface for all statement nodes.
type Statement interface {
	Node
	stmtNode() // marker method to prevent external implementations
}

// BaseExpr provides identity and position for expression nodes.
// Embedded in every concrete expression type.
type BaseExpr struct {
	id NodeID
	sp span.Span
}

func (b *BaseExpr) ID() NodeID      { return b.id }
func (b *BaseExpr) Span() span.Span { return b.sp }
func (b *BaseExpr) exprNode()       {}

// BaseStmt provides identity and position for statement nodes.
type BaseStmt struct {
	id NodeID
	sp span.Span
}

func (b *BaseStmt) ID() NodeID      { return b.id }
func (b *BaseStmt) Span() span.Span { return b.sp }
func (b *BaseStmt) stmtNode()       {}

// MakeBaseExpr creates a BaseExpr with the given identity and span.
func MakeBaseExpr(id NodeID, sp span.Span) BaseExpr {
	return BaseExpr{id: id, sp: sp}
}

// MakeBaseStmt creates a BaseStmt with the given identity and span.
func MakeBaseStmt(id NodeID, sp span.Span) BaseStmt {
	return BaseStmt{id: id, sp: sp}
}

// Binding is a name introduced by a definition place, a function input,
// or an iteration index. It is a Node so the type table can record the
// bound variable's type against its identity.
type Binding struct {
	id   NodeID
	sp   span.Span
	Name Symbol
}

// NewBinding creates a binding for name.
func NewBinding(id NodeID, sp span.Span, name Symbol) *Binding {
	return &Binding{id: id, sp: sp, Name: name}
}

func (b *Binding) ID() NodeID      { return b.id }
func (b *Binding) Span() span.Span { return b.sp }
