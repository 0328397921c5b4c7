package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/span"
)

// noPartialOps asserts the pass's whole-tree guarantee: every division
// and inverse carries a flag afterwards.
func noPartialOps(t *testing.T, fn *ast.FunctionDecl) {
	t.Helper()
	ast.WalkFunction(fn, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.Binary:
			require.NotEqual(t, ast.OpDiv, e.Op, "plain division survived")
		case *ast.Unary:
			require.NotEqual(t, ast.OpInv, e.Op, "plain inverse survived")
		}
		return true
	})
}

func TestInsertFlagsDivision(t *testing.T) {
	h := newHarness()
	u := h.u32()
	prog, fn := h.function(
		h.let("q", u, h.binary(ast.OpDiv, h.local("a", u), h.local("b", u), u)),
	)

	InsertFlags(h.ctx, prog)
	noPartialOps(t, fn)

	stmts := fn.Body.Stmts
	require.Len(t, stmts, 2)

	// The auxiliary binding precedes the use and binds both results.
	aux := stmts[0].(*ast.Define)
	require.Len(t, aux.Places, 2)
	require.Contains(t, string(aux.Places[0].Name), "__div_")
	require.Contains(t, string(aux.Places[1].Name), "__flag_")

	flagged := aux.Value.(*ast.Binary)
	require.Equal(t, ast.OpDivFlagged, flagged.Op)
	require.Equal(t,
		ast.Tuple{Elems: []ast.Type{u, ast.Boolean{}}},
		h.ctx.Types.TypeOf(flagged))

	// The original definition now references the extracted result.
	def := stmts[1].(*ast.Define)
	ref, ok := def.Value.(*ast.Path)
	require.True(t, ok)
	require.Equal(t, aux.Places[0].Name, ref.Name)
	require.Equal(t, u, h.ctx.Types.TypeOf(ref))
}

func TestInsertFlagsInverseInsideExpression(t *testing.T) {
	h := newHarness()
	f := ast.Field{}
	inv := &ast.Unary{
		BaseExpr: ast.MakeBaseExpr(h.ctx.NewID(), h.local("a", f).Span()),
		Op:       ast.OpInv,
		Operand:  h.local("a", f),
	}
	h.b.typed(inv, f)

	prog, fn := h.function(
		h.let("r", f, h.binary(ast.OpMul, h.local("b", f), inv, f)),
	)

	InsertFlags(h.ctx, prog)
	noPartialOps(t, fn)

	stmts := fn.Body.Stmts
	require.Len(t, stmts, 2)

	aux := stmts[0].(*ast.Define)
	require.Contains(t, string(aux.Places[0].Name), "__inv_")
	flagged := aux.Value.(*ast.Unary)
	require.Equal(t, ast.OpInvFlagged, flagged.Op)

	// The product's right operand became a reference to the extraction.
	mul := stmts[1].(*ast.Define).Value.(*ast.Binary)
	require.Equal(t, ast.OpMul, mul.Op)
	ref, ok := mul.Right.(*ast.Path)
	require.True(t, ok)
	require.Equal(t, aux.Places[0].Name, ref.Name)
}

func TestInsertFlagsNestedDivisions(t *testing.T) {
	h := newHarness()
	u := h.u32()

	// (a div b) div c extracts twice, inner first.
	inner := h.binary(ast.OpDiv, h.local("a", u), h.local("b", u), u)
	outer := h.binary(ast.OpDiv, inner, h.local("c", u), u)
	prog, fn := h.function(h.let("q", u, outer))

	InsertFlags(h.ctx, prog)
	noPartialOps(t, fn)

	stmts := fn.Body.Stmts
	require.Len(t, stmts, 3)

	first := stmts[0].(*ast.Define)
	second := stmts[1].(*ast.Define)
	require.Equal(t, ast.OpDivFlagged, first.Value.(*ast.Binary).Op)
	require.Equal(t, ast.OpDivFlagged, second.Value.(*ast.Binary).Op)

	// The outer flagged division consumes the inner extraction.
	left, ok := second.Value.(*ast.Binary).Left.(*ast.Path)
	require.True(t, ok)
	require.Equal(t, first.Places[0].Name, left.Name)
}

func TestInsertFlagsDivisionInBranchCondition(t *testing.T) {
	h := newHarness()
	u := h.u32()
	div := h.binary(ast.OpDiv, h.local("a", u), h.local("b", u), u)
	cond := &ast.Conditional{
		BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan),
		Cond:     h.binary(ast.OpEq, div, h.local("c", u), ast.Boolean{}),
		Then: &ast.Block{
			BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan),
			Stmts:    []ast.Statement{h.let("x", u, h.local("d", u))},
		},
	}
	prog, fn := h.function(cond)

	InsertFlags(h.ctx, prog)
	noPartialOps(t, fn)

	// The auxiliary lands before the conditional, not inside it, and the
	// condition references it.
	stmts := fn.Body.Stmts
	require.Len(t, stmts, 2)
	aux := stmts[0].(*ast.Define)
	require.Contains(t, string(aux.Places[0].Name), "__div_")

	eq := stmts[1].(*ast.Conditional).Cond.(*ast.Binary)
	ref, ok := eq.Left.(*ast.Path)
	require.True(t, ok)
	require.Equal(t, aux.Places[0].Name, ref.Name)

	// The branch body is untouched by the condition's extraction.
	require.Len(t, stmts[1].(*ast.Conditional).Then.Stmts, 1)
	require.Equal(t, 1, countAuxDefines(fn, "__div_"))
}

func TestInsertFlagsDivisionInsideBranchBody(t *testing.T) {
	h := newHarness()
	u := h.u32()
	div := h.binary(ast.OpDiv, h.local("a", u), h.local("b", u), u)
	cond := &ast.Conditional{
		BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan),
		Cond:     h.local("c", ast.Boolean{}),
		Then: &ast.Block{
			BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan),
			Stmts:    []ast.Statement{h.let("x", u, div)},
		},
	}
	prog, fn := h.function(cond)

	InsertFlags(h.ctx, prog)
	noPartialOps(t, fn)

	// The auxiliary stays inside the branch and does not reappear in the
	// enclosing block.
	require.Len(t, fn.Body.Stmts, 1)
	then := fn.Body.Stmts[0].(*ast.Conditional).Then.Stmts
	require.Len(t, then, 2)

	aux := then[0].(*ast.Define)
	require.Contains(t, string(aux.Places[0].Name), "__div_")
	ref, ok := then[1].(*ast.Define).Value.(*ast.Path)
	require.True(t, ok)
	require.Equal(t, aux.Places[0].Name, ref.Name)
	require.Equal(t, 1, countAuxDefines(fn, "__div_"))
}

// countAuxDefines counts definitions whose first place carries the
// given auxiliary name fragment, anywhere in the function.
func countAuxDefines(fn *ast.FunctionDecl, fragment string) int {
	n := 0
	ast.WalkFunction(fn, func(node ast.Node) bool {
		if def, ok := node.(*ast.Define); ok && len(def.Places) > 0 {
			if strings.Contains(string(def.Places[0].Name), fragment) {
				n++
			}
		}
		return true
	})
	return n
}

func TestInsertFlagsLeavesTotalOpsAlone(t *testing.T) {
	h := newHarness()
	u := h.u32()
	def := h.let("s", u, h.binary(ast.OpAdd, h.local("a", u), h.local("b", u), u))
	prog, fn := h.function(def)

	InsertFlags(h.ctx, prog)

	require.Len(t, fn.Body.Stmts, 1)
	require.Same(t, def, fn.Body.Stmts[0])
}
