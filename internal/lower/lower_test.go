package lower

import (
	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
	"github.com/lumenlang/lumen/span"
)

// harness builds small already-resolved trees for pass tests, the state
// the real pipeline reaches after path resolution.
type harness struct {
	ctx *semantic.Context
	b   builder
}

func newHarness() *harness {
	ctx := semantic.NewContext(nil)
	return &harness{ctx: ctx, b: builder{ctx: ctx}}
}

func (h *harness) u32() ast.Type { return ast.Integer{Kind: ast.U32} }

func (h *harness) lit(text string, t ast.Type) *ast.Literal {
	lit := &ast.Literal{
		BaseExpr: ast.MakeBaseExpr(h.ctx.NewID(), span.NoSpan),
		Kind:     ast.LitInteger,
		Text:     text,
	}
	if _, ok := t.(ast.Boolean); ok {
		lit.Kind = ast.LitBoolean
	}
	h.b.typed(lit, t)
	return lit
}

func (h *harness) local(name ast.Symbol, t ast.Type) *ast.Path {
	return h.b.localRef(span.NoSpan, name, t)
}

func (h *harness) let(name ast.Symbol, t ast.Type, value ast.Expression) *ast.Define {
	return h.b.define(span.NoSpan, h.b.binding(span.NoSpan, name, t), t, value)
}

func (h *harness) letMulti(names []ast.Symbol, value ast.Expression) *ast.Define {
	places := make([]*ast.Binding, len(names))
	for i, name := range names {
		places[i] = h.b.binding(span.NoSpan, name, nil)
	}
	return h.b.defineMulti(span.NoSpan, places, nil, value)
}

func (h *harness) tuple(t ast.Tuple, elems ...ast.Expression) *ast.TupleExpr {
	tup := &ast.TupleExpr{
		BaseExpr: ast.MakeBaseExpr(h.ctx.NewID(), span.NoSpan),
		Elems:    elems,
	}
	h.b.typed(tup, t)
	return tup
}

func (h *harness) binary(op ast.BinaryOp, left, right ast.Expression, t ast.Type) *ast.Binary {
	return h.b.binary(span.NoSpan, op, left, right, t)
}

func (h *harness) ret(value ast.Expression) *ast.Return {
	return &ast.Return{BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan), Value: value}
}

// function wraps statements into a transition body inside a one-scope
// program named "demo".
func (h *harness) function(stmts ...ast.Statement) (*ast.Program, *ast.FunctionDecl) {
	fn := &ast.FunctionDecl{
		Variant: ast.VariantTransition,
		Name:    "main",
		Body: &ast.Block{
			BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan),
			Stmts:    stmts,
		},
	}
	prog := &ast.Program{Scopes: []*ast.ProgramScope{{
		Name:      "demo",
		Functions: []*ast.FunctionDecl{fn},
	}}}
	return prog, fn
}

// storageProgram builds a program declaring one storage variable and a
// finalize body, collected into the harness's symbol table.
func (h *harness) storageProgram(decl *ast.StorageDecl, stmts ...ast.Statement) (*ast.Program, *ast.FunctionDecl) {
	fn := &ast.FunctionDecl{
		Variant: ast.VariantFinalize,
		Name:    "apply",
		Body: &ast.Block{
			BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan),
			Stmts:    stmts,
		},
	}
	prog := &ast.Program{Scopes: []*ast.ProgramScope{{
		Name:      "demo",
		Storage:   []*ast.StorageDecl{decl},
		Functions: []*ast.FunctionDecl{fn},
	}}}
	semantic.CollectGlobals(h.ctx, prog)
	return prog, fn
}

// storageRef builds a resolved reference to a storage variable.
func (h *harness) storageRef(name ast.Symbol) *ast.Path {
	loc := ast.NewLocation("demo", name)
	sym, ok := h.ctx.Table.Global(loc)
	if !ok {
		panic("storageRef before storageProgram")
	}
	return h.b.globalRef(span.NoSpan, loc, sym.Type)
}
