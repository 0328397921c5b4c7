// Package codegen is the terminal pass of the pipeline: it walks the
// flattened, SSA-shaped program and emits the target virtual machine's
// assembly text, one artifact per program scope.
//
// By the time this pass runs, every guarantee of the earlier passes is
// assumed and fatal-checked: paths are resolved, tuples destructured,
// optionals and storage lowered, partial operators flagged, and plain
// function bodies flattened. Violations are internal defects, never
// user-facing diagnostics.
package codegen

import (
	"fmt"
	"strings"

	"github.com/coregx/coregex"
	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
)

// identPattern is the lexical form of every identifier and label the
// generator writes. Emitting a name outside it means a lowering pass
// synthesized garbage, which is fatal.
var identPattern = mustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func mustCompile(pattern string) *coregex.Regexp {
	re, err := coregex.Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Generate emits the assembly text of one program scope.
func Generate(ctx *semantic.Context, scope *ast.ProgramScope) string {
	g := &generator{ctx: ctx, scope: scope}
	g.program()
	ctx.Log.Debug("code generation complete",
		zap.String("program", string(scope.Name)),
		zap.Int("instructions", g.instructions))
	return g.sb.String()
}

type generator struct {
	ctx   *semantic.Context
	scope *ast.ProgramScope
	sb    strings.Builder

	// Per-function emission state. regs maps a variable name to the
	// operand holding its value; nextReg and labels are monotonic and
	// reset per function; depth tracks conditional nesting so nested
	// labels never collide.
	fn      *ast.FunctionDecl
	regs    map[ast.Symbol]string
	nextReg int
	labels  int
	depth   int

	instructions int
}

func (g *generator) program() {
	fmt.Fprintf(&g.sb, "program %s;\n", g.ident(g.scope.Name))

	for _, decl := range g.scope.Structs {
		g.structBlock(decl)
	}
	for _, decl := range g.scope.Mappings {
		g.mappingBlock(decl)
	}
	g.functions(g.scope.Functions)
	for _, mod := range g.scope.Modules {
		g.moduleFunctions(mod)
	}
}

func (g *generator) moduleFunctions(mod *ast.Module) {
	g.functions(mod.Functions)
	for _, sub := range mod.Modules {
		g.moduleFunctions(sub)
	}
}

func (g *generator) functions(fns []*ast.FunctionDecl) {
	for _, fn := range fns {
		if fn.Body != nil {
			g.function(fn)
		}
	}
}

func (g *generator) structBlock(decl *ast.StructDecl) {
	keyword := "struct"
	if decl.IsRecord {
		keyword = "record"
	}
	fmt.Fprintf(&g.sb, "\n%s %s:\n", keyword, g.ident(decl.Name))
	for _, f := range decl.Fields {
		fmt.Fprintf(&g.sb, "    %s as %s;\n", g.ident(f.Name), g.typeOperand(f.Type))
	}
}

func (g *generator) mappingBlock(decl *ast.MappingDecl) {
	fmt.Fprintf(&g.sb, "\nmapping %s:\n", g.ident(decl.Name))
	fmt.Fprintf(&g.sb, "    key as %s.public;\n", g.typeOperand(decl.Key))
	fmt.Fprintf(&g.sb, "    value as %s.public;\n", g.typeOperand(decl.Value))
}

func (g *generator) function(fn *ast.FunctionDecl) {
	g.fn = fn
	g.regs = make(map[ast.Symbol]string)
	g.nextReg = 0
	g.labels = 0
	g.depth = 0

	fmt.Fprintf(&g.sb, "\n%s %s:\n", fn.Variant, g.ident(fn.Name))

	for _, param := range fn.Params {
		reg := g.newReg()
		g.regs[param.Binding.Name] = reg
		g.emit("input %s as %s%s;", reg, g.typeOperand(param.Type), g.inputVisibility(param.Mode))
	}
	for _, stmt := range fn.Body.Stmts {
		g.stmt(stmt)
	}
}

// inputVisibility resolves an unspecified input mode by variant:
// transitions default to private, finalize inputs are public, closure
// inputs carry no visibility.
func (g *generator) inputVisibility(mode ast.Mode) string {
	if mode != ast.ModeNone {
		return mode.Suffix()
	}
	switch {
	case g.fn.Variant.IsTransition():
		return ast.ModePrivate.Suffix()
	case g.fn.Variant == ast.VariantFinalize:
		return ast.ModePublic.Suffix()
	default:
		return ""
	}
}

func (g *generator) stmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Define:
		g.define(s)

	case *ast.Return:
		g.returnStmt(s)

	case *ast.Conditional:
		g.conditional(s)

	case *ast.Assert:
		g.assert(s)

	case *ast.ExprStmt:
		g.effect(s.Expr)

	case *ast.Block:
		for _, inner := range s.Stmts {
			g.stmt(inner)
		}

	case *ast.Assign:
		panic(semantic.Defectf("assignment survived into code generation"))

	case *ast.Iteration:
		panic(semantic.Defectf("iteration survived into code generation"))

	default:
		panic(semantic.Defectf("codegen: unexpected statement %T", stmt))
	}
}

func (g *generator) define(s *ast.Define) {
	if len(s.Places) == 1 {
		g.regs[s.Places[0].Name] = g.expr(s.Value)
		return
	}

	// Multi-place definitions are only legal paired with a call or a
	// flagged operator.
	switch rhs := s.Value.(type) {
	case *ast.Call:
		dests := g.call(rhs, len(s.Places))
		for i, place := range s.Places {
			g.regs[place.Name] = dests[i]
		}

	case *ast.Binary:
		if rhs.Op != ast.OpDivFlagged {
			panic(semantic.Defectf("multi-place definition with unflagged binary operator"))
		}
		left, right := g.expr(rhs.Left), g.expr(rhs.Right)
		value, flag := g.newReg(), g.newReg()
		g.emit("%s %s %s into %s %s;", rhs.Op.Mnemonic(), left, right, value, flag)
		g.regs[s.Places[0].Name] = value
		g.regs[s.Places[1].Name] = flag

	case *ast.Unary:
		if rhs.Op != ast.OpInvFlagged {
			panic(semantic.Defectf("multi-place definition with unflagged unary operator"))
		}
		operand := g.expr(rhs.Operand)
		value, flag := g.newReg(), g.newReg()
		g.emit("%s %s into %s %s;", rhs.Op.Mnemonic(), operand, value, flag)
		g.regs[s.Places[0].Name] = value
		g.regs[s.Places[1].Name] = flag

	default:
		panic(semantic.Defectf("multi-place definition with %T right-hand side", s.Value))
	}
}

// conditional emits branch/label control flow. Conditionals are legal
// only inside finalize bodies; everywhere else the earlier phases must
// have flattened them.
func (g *generator) conditional(s *ast.Conditional) {
	if g.fn.Variant != ast.VariantFinalize {
		panic(semantic.Defectf("conditional outside a finalize body in %q", g.fn.Name))
	}

	g.depth++
	defer func() { g.depth-- }()

	cond := g.expr(s.Cond)
	endThen := g.label("end_then")
	g.emit("branch.eq %s false to %s;", cond, endThen)

	for _, stmt := range s.Then.Stmts {
		g.stmt(stmt)
	}

	if s.Otherwise == nil {
		g.emit("position %s;", endThen)
		return
	}

	endOtherwise := g.label("end_otherwise")
	g.emit("branch.eq true true to %s;", endOtherwise)
	g.emit("position %s;", endThen)
	for _, stmt := range s.Otherwise.Stmts {
		g.stmt(stmt)
	}
	g.emit("position %s;", endOtherwise)
}

// label allocates a branch label. The counter advances once per label
// and never resets within a function, so no label string repeats even
// across sibling conditionals at the same depth.
func (g *generator) label(base string) string {
	l := fmt.Sprintf("%s_%d_%d", base, g.depth, g.labels)
	g.labels++
	return g.ident(ast.Symbol(l))
}

func (g *generator) returnStmt(s *ast.Return) {
	switch value := s.Value.(type) {
	case nil:
		return
	case *ast.Unit:
		return
	case *ast.TupleExpr:
		if len(value.Elems) != len(g.fn.Outputs) {
			panic(semantic.Defectf("returning %d values from %q, which declares %d outputs",
				len(value.Elems), g.fn.Name, len(g.fn.Outputs)))
		}
		for i, el := range value.Elems {
			g.output(g.expr(el), g.fn.Outputs[i])
		}
	default:
		if len(g.fn.Outputs) != 1 {
			panic(semantic.Defectf("returning one value from %q, which declares %d outputs",
				g.fn.Name, len(g.fn.Outputs)))
		}
		g.output(g.expr(value), g.fn.Outputs[0])
	}
}

// output declares one function output. An unspecified mode is promoted
// to private exactly when the enclosing function is an externally
// callable transition; a future-typed output references its
// program/function instead of a plaintext visibility.
func (g *generator) output(operand string, out *ast.Output) {
	if fut, ok := out.Type.(ast.Future); ok {
		g.emit("output %s as %s;", operand, fut)
		return
	}
	mode := out.Mode
	if mode == ast.ModeNone && g.fn.Variant.IsTransition() {
		mode = ast.ModePrivate
	}
	g.emit("output %s as %s%s;", operand, g.typeOperand(out.Type), mode.Suffix())
}

func (g *generator) assert(s *ast.Assert) {
	left := g.expr(s.Left)
	if s.Kind == ast.AssertTrue {
		g.emit("%s %s;", s.Kind.Mnemonic(), left)
		return
	}
	g.emit("%s %s %s;", s.Kind.Mnemonic(), left, g.expr(s.Right))
}

// effect emits an expression evaluated for its side effect: a mapping
// write, a removal, or a call whose results are discarded.
func (g *generator) effect(e ast.Expression) {
	switch n := e.(type) {
	case *ast.MappingOp:
		if g.fn.Variant != ast.VariantFinalize {
			panic(semantic.Defectf("mapping operation outside a finalize body in %q", g.fn.Name))
		}
		switch n.Op {
		case ast.MapSet:
			g.emit("set %s into %s[%s];", g.expr(n.Args[1]), g.mappingName(n), g.expr(n.Args[0]))
			return
		case ast.MapRemove:
			g.emit("remove %s[%s];", g.mappingName(n), g.expr(n.Args[0]))
			return
		}
		g.expr(n)

	case *ast.Call:
		g.call(n, g.calleeOutputs(n))

	default:
		g.expr(e)
	}
}

func (g *generator) emit(format string, args ...any) {
	g.sb.WriteString("    ")
	fmt.Fprintf(&g.sb, format, args...)
	g.sb.WriteByte('\n')
	g.instructions++
}

func (g *generator) newReg() string {
	r := fmt.Sprintf("r%d", g.nextReg)
	g.nextReg++
	return r
}

// ident validates a name against the target's lexical form before it is
// written into the artifact.
func (g *generator) ident(name ast.Symbol) string {
	if !identPattern.MatchString(string(name)) {
		panic(semantic.Defectf("malformed identifier %q reached code generation", name))
	}
	return string(name)
}
