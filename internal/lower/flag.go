package lower

import (
	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
	"github.com/lumenlang/lumen/span"
)

// InsertFlags rewrites the partial arithmetic operators, division and
// multiplicative inverse, into their flagged counterparts: variants
// that return a success indicator alongside the value instead of
// trapping. Each rewritten occurrence becomes a preceding auxiliary
// definition
//
//	let (__div_N, __flag_M) = a div.flagged b;
//
// and the original expression node is replaced, in its parent, by a
// reference to the result name. Whether and how the flag is consulted
// is a policy decision outside this pass.
//
// After the pass no plain division or inverse node remains anywhere in
// the tree.
func InsertFlags(ctx *semantic.Context, prog *ast.Program) {
	f := &flagger{ctx: ctx, b: builder{ctx: ctx}}
	for _, scope := range prog.Scopes {
		if scope.IsStub {
			continue
		}
		eachFunction(scope, func(fn *ast.FunctionDecl) {
			if fn.Body != nil {
				f.rewriteBlock(fn.Body)
			}
		})
	}
	ctx.Log.Debug("flag insertion complete", zap.Int("flagged", f.flagged))
}

// toDefine is a pending auxiliary binding: the names to bind, the
// flagged replacement expression, and the type bookkeeping needed to
// materialize it as a statement.
type toDefine struct {
	name     ast.Symbol
	flagName ast.Symbol
	expr     ast.Expression
	typ      ast.Type
	sp       span.Span
}

type flagger struct {
	ctx     *semantic.Context
	b       builder
	pending []toDefine
	flagged int
}

func (f *flagger) rewriteBlock(block *ast.Block) {
	out := make([]ast.Statement, 0, len(block.Stmts))
	for _, stmt := range block.Stmts {
		// Each statement collects into its own list. A nested block
		// rewritten inside rewriteStmt swaps lists the same way, so an
		// auxiliary recorded for an enclosing condition survives the
		// recursion and materializes here, exactly once.
		saved := f.pending
		f.pending = nil
		stmt = f.rewriteStmt(stmt)
		pending := f.pending
		f.pending = saved
		for _, td := range pending {
			out = append(out, f.materialize(td))
		}
		out = append(out, stmt)
	}
	block.Stmts = out
}

func (f *flagger) rewriteStmt(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.Define:
		s.Value = f.rewriteExpr(s.Value)
	case *ast.Assign:
		s.Target = f.rewriteExpr(s.Target)
		s.Value = f.rewriteExpr(s.Value)
	case *ast.Return:
		s.Value = f.rewriteExpr(s.Value)
	case *ast.Block:
		f.rewriteBlock(s)
	case *ast.Conditional:
		s.Cond = f.rewriteExpr(s.Cond)
		f.rewriteBlock(s.Then)
		if s.Otherwise != nil {
			f.rewriteBlock(s.Otherwise)
		}
	case *ast.Iteration:
		s.Start = f.rewriteExpr(s.Start)
		s.Stop = f.rewriteExpr(s.Stop)
		f.rewriteBlock(s.Body)
	case *ast.Assert:
		s.Left = f.rewriteExpr(s.Left)
		s.Right = f.rewriteExpr(s.Right)
	case *ast.ExprStmt:
		s.Expr = f.rewriteExpr(s.Expr)
	}
	return stmt
}

// rewriteExpr lowers operands bottom-up, then replaces the node itself
// when it is a partial operator.
func (f *flagger) rewriteExpr(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case nil:
		return nil

	case *ast.Binary:
		n.Left = f.rewriteExpr(n.Left)
		n.Right = f.rewriteExpr(n.Right)
		if n.Op == ast.OpDiv {
			// A fresh node: the flagged form has a different result
			// arity, so the original id must not be reused.
			flagged := &ast.Binary{
				BaseExpr: ast.MakeBaseExpr(f.ctx.NewID(), n.Span()),
				Op:       ast.OpDivFlagged,
				Left:     n.Left,
				Right:    n.Right,
			}
			return f.extract(flagged, f.ctx.Types.TypeOf(n), "div")
		}

	case *ast.Unary:
		n.Operand = f.rewriteExpr(n.Operand)
		if n.Op == ast.OpInv {
			flagged := &ast.Unary{
				BaseExpr: ast.MakeBaseExpr(f.ctx.NewID(), n.Span()),
				Op:       ast.OpInvFlagged,
				Operand:  n.Operand,
			}
			return f.extract(flagged, f.ctx.Types.TypeOf(n), "inv")
		}

	case *ast.Ternary:
		n.Cond = f.rewriteExpr(n.Cond)
		n.Then = f.rewriteExpr(n.Then)
		n.Otherwise = f.rewriteExpr(n.Otherwise)
	case *ast.Cast:
		n.Value = f.rewriteExpr(n.Value)
	case *ast.TupleExpr:
		for i := range n.Elems {
			n.Elems[i] = f.rewriteExpr(n.Elems[i])
		}
	case *ast.ArrayLit:
		for i := range n.Elems {
			n.Elems[i] = f.rewriteExpr(n.Elems[i])
		}
	case *ast.Repeat:
		n.Value = f.rewriteExpr(n.Value)
	case *ast.Index:
		n.Array = f.rewriteExpr(n.Array)
		n.Key = f.rewriteExpr(n.Key)
	case *ast.Member:
		n.Target = f.rewriteExpr(n.Target)
	case *ast.StructInit:
		for i := range n.Fields {
			n.Fields[i].Value = f.rewriteExpr(n.Fields[i].Value)
		}
	case *ast.Call:
		for i := range n.Args {
			n.Args[i] = f.rewriteExpr(n.Args[i])
		}
	case *ast.MappingOp:
		for i := range n.Args {
			n.Args[i] = f.rewriteExpr(n.Args[i])
		}
	case *ast.VectorOp:
		for i := range n.Args {
			n.Args[i] = f.rewriteExpr(n.Args[i])
		}
	}
	return e
}

// extract records the flagged expression as a pending definition and
// returns the reference that takes its place in the parent. typ is the
// original node's type-table entry, which becomes the result binding's
// type.
func (f *flagger) extract(flaggedExpr ast.Expression, typ ast.Type, base string) ast.Expression {
	f.flagged++
	td := toDefine{
		name:     f.ctx.FreshName(base),
		flagName: f.ctx.FreshName("flag"),
		expr:     flaggedExpr,
		typ:      typ,
		sp:       flaggedExpr.Span(),
	}
	f.pending = append(f.pending, td)
	return f.b.localRef(td.sp, td.name, td.typ)
}

// materialize turns one pending binding into its auxiliary statement.
func (f *flagger) materialize(td toDefine) ast.Statement {
	places := []*ast.Binding{
		f.b.binding(td.sp, td.name, td.typ),
		f.b.binding(td.sp, td.flagName, ast.Boolean{}),
	}
	def := f.b.defineMulti(td.sp, places, nil, td.expr)
	if td.typ != nil {
		f.ctx.Types.Set(td.expr.ID(), ast.Tuple{Elems: []ast.Type{td.typ, ast.Boolean{}}})
	}
	return def
}
