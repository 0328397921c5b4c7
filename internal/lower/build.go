// Package lower implements the tree-rewriting passes between path
// resolution and code generation:
//
//   - Destructure: eliminates tuple-typed intermediate bindings
//   - LowerOptions: rewrites optional types into {is_some, val} structs
//   - LowerStorage: rewrites storage variables onto backing mappings
//   - EliminateCommonSubexpressions: scoped value numbering
//   - InsertFlags: rewrites partial division/inverse into flagged forms
//
// Every pass consumes and re-emits the same tree shape; synthesized
// nodes mint fresh ids and record their types before they become
// reachable from the output.
package lower

import (
	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
	"github.com/lumenlang/lumen/span"
)

// builder synthesizes typed tree nodes. Every node it produces has a
// fresh id with its type already recorded, so a pass can splice the
// result into the output tree directly.
type builder struct {
	ctx *semantic.Context
}

func (b builder) typed(e ast.Expression, t ast.Type) ast.Expression {
	if t != nil {
		b.ctx.Types.Set(e.ID(), t)
	}
	return e
}

// localRef builds a path resolved to a local variable.
func (b builder) localRef(sp span.Span, name ast.Symbol, t ast.Type) *ast.Path {
	p := &ast.Path{
		BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Name:     name,
		Target:   ast.Target{Kind: ast.TargetLocal, Local: name},
	}
	b.typed(p, t)
	return p
}

// globalRef builds a path resolved to a top-level item.
func (b builder) globalRef(sp span.Span, loc ast.Location, t ast.Type) *ast.Path {
	segs := loc.Segments()
	p := &ast.Path{
		BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Program:  loc.Program,
		Segments: segs[:len(segs)-1],
		Name:     loc.Name(),
		Target:   ast.Target{Kind: ast.TargetGlobal, Global: loc},
	}
	b.typed(p, t)
	return p
}

// binding builds a definition place for name.
func (b builder) binding(sp span.Span, name ast.Symbol, t ast.Type) *ast.Binding {
	bind := ast.NewBinding(b.ctx.NewID(), sp, name)
	if t != nil {
		b.ctx.Types.Set(bind.ID(), t)
	}
	return bind
}

// define builds a single-place let binding.
func (b builder) define(sp span.Span, place *ast.Binding, t ast.Type, value ast.Expression) *ast.Define {
	return &ast.Define{
		BaseStmt: ast.MakeBaseStmt(b.ctx.NewID(), sp),
		Places:   []*ast.Binding{place},
		Type:     t,
		Value:    value,
	}
}

// defineMulti builds a multi-place let binding over a tuple-valued RHS.
func (b builder) defineMulti(sp span.Span, places []*ast.Binding, t ast.Type, value ast.Expression) *ast.Define {
	return &ast.Define{
		BaseStmt: ast.MakeBaseStmt(b.ctx.NewID(), sp),
		Places:   places,
		Type:     t,
		Value:    value,
	}
}

// exprStmt builds an effect-only statement.
func (b builder) exprStmt(sp span.Span, e ast.Expression) *ast.ExprStmt {
	return &ast.ExprStmt{
		BaseStmt: ast.MakeBaseStmt(b.ctx.NewID(), sp),
		Expr:     e,
	}
}

// boolLit builds a boolean literal.
func (b builder) boolLit(sp span.Span, v bool) *ast.Literal {
	text := "false"
	if v {
		text = "true"
	}
	lit := &ast.Literal{
		BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Kind:     ast.LitBoolean,
		Text:     text,
	}
	b.typed(lit, ast.Boolean{})
	return lit
}

// intLit builds an integer literal of the given kind. Text carries the
// type suffix, matching the operand form the code generator emits.
func (b builder) intLit(sp span.Span, text string, kind ast.IntKind) *ast.Literal {
	lit := &ast.Literal{
		BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Kind:     ast.LitInteger,
		Text:     text + kind.String(),
	}
	b.typed(lit, ast.Integer{Kind: kind})
	return lit
}

// binary builds a typed binary operation.
func (b builder) binary(sp span.Span, op ast.BinaryOp, left, right ast.Expression, t ast.Type) *ast.Binary {
	bin := &ast.Binary{
		BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Op:       op,
		Left:     left,
		Right:    right,
	}
	b.typed(bin, t)
	return bin
}

// ternary builds a typed conditional expression.
func (b builder) ternary(sp span.Span, cond, then, otherwise ast.Expression, t ast.Type) *ast.Ternary {
	ter := &ast.Ternary{
		BaseExpr:  ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Cond:      cond,
		Then:      then,
		Otherwise: otherwise,
	}
	b.typed(ter, t)
	return ter
}

// mappingOp builds a typed mapping operation against loc.
func (b builder) mappingOp(sp span.Span, op ast.MapOp, loc ast.Location, t ast.Type, args ...ast.Expression) *ast.MappingOp {
	m := &ast.MappingOp{
		BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Op:       op,
		Mapping:  b.globalRef(sp, loc, nil),
		Args:     args,
	}
	b.typed(m, t)
	return m
}

// eachFunction visits every declared function of the scope, including
// functions nested in modules, in declaration order.
func eachFunction(scope *ast.ProgramScope, visit func(*ast.FunctionDecl)) {
	for _, fn := range scope.Functions {
		visit(fn)
	}
	var walkModule func(*ast.Module)
	walkModule = func(mod *ast.Module) {
		for _, fn := range mod.Functions {
			visit(fn)
		}
		for _, sub := range mod.Modules {
			walkModule(sub)
		}
	}
	for _, mod := range scope.Modules {
		walkModule(mod)
	}
}
