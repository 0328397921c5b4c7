package codegen

import (
	"fmt"
	"strings"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
)

// expr emits the instructions computing e and returns the operand
// holding its value. Atoms produce no instructions: their operand form
// is a register, a literal, or a register projection.
func (g *generator) expr(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Text

	case *ast.Path:
		return g.pathOperand(n)

	case *ast.Member:
		return fmt.Sprintf("%s.%s", g.expr(n.Target), g.ident(n.Name))

	case *ast.Index:
		return fmt.Sprintf("%s[%s]", g.expr(n.Array), g.expr(n.Key))

	case *ast.Binary:
		return g.binary(n)

	case *ast.Unary:
		return g.unary(n)

	case *ast.Ternary:
		cond, then, otherwise := g.expr(n.Cond), g.expr(n.Then), g.expr(n.Otherwise)
		dst := g.newReg()
		g.emit("ternary %s %s %s into %s;", cond, then, otherwise, dst)
		return dst

	case *ast.Cast:
		value := g.expr(n.Value)
		dst := g.newReg()
		g.emit("cast %s into %s as %s;", value, dst, g.typeOperand(n.To))
		return dst

	case *ast.StructInit:
		return g.structInit(n)

	case *ast.ArrayLit:
		operands := make([]string, len(n.Elems))
		for i, el := range n.Elems {
			operands[i] = g.expr(el)
		}
		return g.aggregate(operands, g.ctx.Types.TypeOf(n))

	case *ast.Repeat:
		operand := g.expr(n.Value)
		operands := make([]string, n.Count)
		for i := range operands {
			operands[i] = operand
		}
		return g.aggregate(operands, g.ctx.Types.TypeOf(n))

	case *ast.Call:
		dests := g.call(n, g.calleeOutputs(n))
		if len(dests) != 1 {
			panic(semantic.Defectf("%d-output call in single-value position", len(dests)))
		}
		return dests[0]

	case *ast.MappingOp:
		return g.mappingOp(n)

	case *ast.TupleExpr:
		panic(semantic.Defectf("tuple survived destructuring into code generation"))

	case *ast.VectorOp:
		panic(semantic.Defectf("vector operation survived storage lowering"))

	case *ast.OptionSome, *ast.OptionNone:
		panic(semantic.Defectf("optional value survived option lowering"))

	case *ast.Unit:
		panic(semantic.Defectf("unit value in operand position"))

	default:
		panic(semantic.Defectf("codegen: unexpected expression %T", e))
	}
}

func (g *generator) pathOperand(p *ast.Path) string {
	switch p.Target.Kind {
	case ast.TargetLocal:
		operand, ok := g.regs[p.Name]
		if !ok {
			panic(semantic.Defectf("reference to unbound variable %q in %q", p.Name, g.fn.Name))
		}
		return operand

	case ast.TargetGlobal:
		sym, ok := g.ctx.Table.Global(p.Target.Global)
		if !ok {
			panic(semantic.Defectf("reference to unregistered item %s", p.Target.Global))
		}
		if sym.Kind != semantic.KindConst || sym.Const == nil {
			panic(semantic.Defectf("%s item %s in operand position", sym.Kind, sym.Loc))
		}
		// Constants are inlined at every use site.
		return g.expr(sym.Const.Value)

	default:
		panic(semantic.Defectf("unresolved path %q survived into code generation", p.Name))
	}
}

func (g *generator) binary(n *ast.Binary) string {
	switch n.Op {
	case ast.OpDiv:
		panic(semantic.Defectf("unflagged division survived flag insertion"))
	case ast.OpDivFlagged:
		panic(semantic.Defectf("flagged division outside a multi-place definition"))
	}
	left, right := g.expr(n.Left), g.expr(n.Right)
	dst := g.newReg()
	g.emit("%s %s %s into %s;", n.Op.Mnemonic(), left, right, dst)
	return dst
}

func (g *generator) unary(n *ast.Unary) string {
	switch n.Op {
	case ast.OpInv:
		panic(semantic.Defectf("unflagged inverse survived flag insertion"))
	case ast.OpInvFlagged:
		panic(semantic.Defectf("flagged inverse outside a multi-place definition"))
	}
	operand := g.expr(n.Operand)
	dst := g.newReg()
	g.emit("%s %s into %s;", n.Op.Mnemonic(), operand, dst)
	return dst
}

// structInit constructs a composite by casting its member operands in
// declared field order.
func (g *generator) structInit(n *ast.StructInit) string {
	if n.Name.Target.Kind != ast.TargetGlobal {
		panic(semantic.Defectf("unresolved composite %q in construction", n.Name.Name))
	}
	sym, ok := g.ctx.Table.Global(n.Name.Target.Global)
	if !ok || sym.Struct == nil {
		panic(semantic.Defectf("construction of unknown composite %s", n.Name.Target.Global))
	}

	operands := make([]string, len(sym.Struct.Fields))
	for i, field := range sym.Struct.Fields {
		init, found := fieldValue(n, field.Name)
		if !found {
			panic(semantic.Defectf("construction of %s misses member %q", sym.Loc, field.Name))
		}
		operands[i] = g.expr(init)
	}

	dst := g.newReg()
	g.emit("cast %s into %s as %s;", strings.Join(operands, " "), dst, g.ident(sym.Struct.Name))
	return dst
}

func fieldValue(n *ast.StructInit, name ast.Symbol) (ast.Expression, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// aggregate casts element operands into an array register.
func (g *generator) aggregate(operands []string, t ast.Type) string {
	if t == nil {
		panic(semantic.Defectf("untyped aggregate in code generation"))
	}
	dst := g.newReg()
	g.emit("cast %s into %s as %s;", strings.Join(operands, " "), dst, g.typeOperand(t))
	return dst
}

// call emits a call (or an async invocation of a finalize) with nOuts
// destination registers and returns them.
func (g *generator) call(n *ast.Call, nOuts int) []string {
	if n.Callee.Target.Kind != ast.TargetGlobal {
		panic(semantic.Defectf("call to unresolved path %q", n.Callee.Name))
	}
	loc := n.Callee.Target.Global
	sym, ok := g.ctx.Table.Global(loc)
	if !ok || sym.Func == nil {
		panic(semantic.Defectf("call to non-function item %s", loc))
	}

	mnemonic := "call"
	callee := g.ident(loc.Name())
	switch {
	case sym.Func.Variant == ast.VariantFinalize:
		// Invoking a companion finalize defers its effects as a future.
		if g.fn.Variant != ast.VariantAsyncTransition {
			panic(semantic.Defectf("async invocation outside an async transition in %q", g.fn.Name))
		}
		mnemonic = "async"
	case loc.Program != g.scope.Name:
		callee = fmt.Sprintf("%s.%s", g.ident(loc.Program), g.ident(loc.Name()))
	}

	operands := make([]string, len(n.Args))
	for i, arg := range n.Args {
		operands[i] = g.expr(arg)
	}
	dests := make([]string, nOuts)
	for i := range dests {
		dests[i] = g.newReg()
	}

	parts := append([]string{mnemonic, callee}, operands...)
	if len(dests) > 0 {
		parts = append(parts, "into")
		parts = append(parts, dests...)
	}
	g.emit("%s;", strings.Join(parts, " "))
	return dests
}

func (g *generator) calleeOutputs(n *ast.Call) int {
	if n.Callee.Target.Kind != ast.TargetGlobal {
		panic(semantic.Defectf("call to unresolved path %q", n.Callee.Name))
	}
	sym, ok := g.ctx.Table.Global(n.Callee.Target.Global)
	if !ok || sym.Func == nil {
		panic(semantic.Defectf("call to non-function item %s", n.Callee.Target.Global))
	}
	if sym.Func.Variant == ast.VariantFinalize {
		// An async invocation always produces one future.
		return 1
	}
	return len(sym.Func.Outputs)
}

// mappingOp emits the value-producing mapping operations. Writes and
// removals are statements, handled by effect.
func (g *generator) mappingOp(n *ast.MappingOp) string {
	if g.fn.Variant != ast.VariantFinalize {
		panic(semantic.Defectf("mapping operation outside a finalize body in %q", g.fn.Name))
	}
	name := g.mappingName(n)

	switch n.Op {
	case ast.MapGet:
		dst := g.newReg()
		g.emit("get %s[%s] into %s;", name, g.expr(n.Args[0]), dst)
		return dst

	case ast.MapGetOrUse:
		key, fallback := g.expr(n.Args[0]), g.expr(n.Args[1])
		dst := g.newReg()
		g.emit("get.or_use %s[%s] %s into %s;", name, key, fallback, dst)
		return dst

	case ast.MapContains:
		dst := g.newReg()
		g.emit("contains %s[%s] into %s;", name, g.expr(n.Args[0]), dst)
		return dst

	default:
		panic(semantic.Defectf("mapping %s in operand position", n.Op.Mnemonic()))
	}
}

func (g *generator) mappingName(n *ast.MappingOp) string {
	if n.Mapping.Target.Kind != ast.TargetGlobal {
		panic(semantic.Defectf("mapping operation on unresolved path %q", n.Mapping.Name))
	}
	sym, ok := g.ctx.Table.Global(n.Mapping.Target.Global)
	if !ok || sym.Kind != semantic.KindMapping {
		panic(semantic.Defectf("mapping operation on non-mapping item %s", n.Mapping.Target.Global))
	}
	return g.ident(sym.Loc.Name())
}

// typeOperand renders a type the way instruction text spells it.
// Aggregates with no target representation reaching this point mean an
// earlier pass failed to lower them.
func (g *generator) typeOperand(t ast.Type) string {
	switch tt := t.(type) {
	case ast.Composite:
		if tt.Target != nil {
			return g.ident(tt.Target.Name())
		}
		return g.ident(tt.Name)
	case ast.Array:
		return fmt.Sprintf("[%s; %d]", g.typeOperand(tt.Elem), tt.Len)
	case ast.Future:
		return tt.String()
	case ast.Tuple, ast.Optional, ast.Vector, ast.Mapping, ast.UnitType, nil:
		panic(semantic.Defectf("type %v has no instruction-text form", t))
	default:
		return t.String()
	}
}
