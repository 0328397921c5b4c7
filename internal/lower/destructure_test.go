package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/span"
)

// The round trip of the pass:
//
//	let t = (1u32, 2u32); let (a, b) = t; return (a, b);
//
// lowers to `a = 1u32; b = 2u32;` and a literal-tuple return, with no
// tuple-typed binding left.
func TestDestructureRoundTrip(t *testing.T) {
	h := newHarness()
	pair := ast.Tuple{Elems: []ast.Type{h.u32(), h.u32()}}

	prog, fn := h.function(
		h.let("t", pair, h.tuple(pair, h.lit("1u32", h.u32()), h.lit("2u32", h.u32()))),
		h.letMulti([]ast.Symbol{"a", "b"}, h.local("t", pair)),
		h.ret(h.local("t", pair)),
	)

	Destructure(h.ctx, prog)

	stmts := fn.Body.Stmts
	require.Len(t, stmts, 3)

	defA, ok := stmts[0].(*ast.Define)
	require.True(t, ok)
	require.Equal(t, ast.Symbol("a"), defA.Places[0].Name)
	require.Equal(t, "1u32", defA.Value.(*ast.Literal).Text)

	defB, ok := stmts[1].(*ast.Define)
	require.True(t, ok)
	require.Equal(t, ast.Symbol("b"), defB.Places[0].Name)
	require.Equal(t, "2u32", defB.Value.(*ast.Literal).Text)

	// The returned alias was replaced by the literal tuple.
	ret, ok := stmts[2].(*ast.Return)
	require.True(t, ok)
	tup, ok := ret.Value.(*ast.TupleExpr)
	require.True(t, ok)
	require.Len(t, tup.Elems, 2)

	// No tuple-typed single binding survived.
	for _, stmt := range stmts {
		if def, ok := stmt.(*ast.Define); ok && len(def.Places) == 1 {
			require.False(t, ast.IsTuple(h.ctx.Types.TypeOf(def.Places[0])),
				"binding %q is still tuple-typed", def.Places[0].Name)
		}
	}
}

func TestDestructureTupleCall(t *testing.T) {
	h := newHarness()
	pair := ast.Tuple{Elems: []ast.Type{h.u32(), ast.Boolean{}}}

	call := &ast.Call{
		BaseExpr: ast.MakeBaseExpr(h.ctx.NewID(), span.NoSpan),
		Callee:   h.b.globalRef(span.NoSpan, ast.NewLocation("demo", "split"), nil),
	}
	h.b.typed(call, pair)

	prog, fn := h.function(
		h.let("pair", pair, call),
		h.ret(h.local("pair", pair)),
	)

	Destructure(h.ctx, prog)

	stmts := fn.Body.Stmts
	require.Len(t, stmts, 2)

	// The single-name binding became a multi-name binding of the call
	// over fresh component names.
	def, ok := stmts[0].(*ast.Define)
	require.True(t, ok)
	require.Len(t, def.Places, 2)
	require.Same(t, call, def.Value)
	for _, place := range def.Places {
		require.Contains(t, string(place.Name), "__pair_")
	}

	// The returned alias expands to the synthesized component tuple.
	ret := stmts[1].(*ast.Return)
	tup, ok := ret.Value.(*ast.TupleExpr)
	require.True(t, ok)
	require.Len(t, tup.Elems, 2)
	first, ok := tup.Elems[0].(*ast.Path)
	require.True(t, ok)
	require.Equal(t, def.Places[0].Name, first.Name)
}

func TestDestructureMultiPlaceCallPassesThrough(t *testing.T) {
	h := newHarness()
	pair := ast.Tuple{Elems: []ast.Type{h.u32(), h.u32()}}

	call := &ast.Call{
		BaseExpr: ast.MakeBaseExpr(h.ctx.NewID(), span.NoSpan),
		Callee:   h.b.globalRef(span.NoSpan, ast.NewLocation("demo", "split"), nil),
	}
	h.b.typed(call, pair)
	def := h.letMulti([]ast.Symbol{"a", "b"}, call)

	prog, fn := h.function(def)
	Destructure(h.ctx, prog)

	require.Len(t, fn.Body.Stmts, 1)
	require.Same(t, def, fn.Body.Stmts[0])
}

func TestDestructureBadShapeIsFatal(t *testing.T) {
	h := newHarness()
	pair := ast.Tuple{Elems: []ast.Type{h.u32(), h.u32()}}

	// A tuple-typed definition over a ternary has no legal rule.
	bad := h.b.ternary(span.NoSpan,
		h.lit("true", ast.Boolean{}),
		h.lit("1u32", h.u32()),
		h.lit("2u32", h.u32()),
		pair)
	prog, _ := h.function(h.let("t", pair, bad))

	require.PanicsWithError(t,
		"internal defect: tuple-typed definition with *ast.Ternary right-hand side",
		func() { Destructure(h.ctx, prog) })
}
