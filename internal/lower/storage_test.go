package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/span"
)

func TestLowerStorageScalarRead(t *testing.T) {
	h := newHarness()
	decl := &ast.StorageDecl{Name: "total", Type: ast.Integer{Kind: ast.U64}}
	prog, fn := h.storageProgram(decl)
	fn.Body.Stmts = []ast.Statement{
		h.let("x", nil, h.storageRef("total")),
	}

	opts := LowerOptions(h.ctx, prog)
	LowerStorage(h.ctx, prog, opts)

	// The backing mapping was declared and recorded on the symbol.
	scope := prog.Scopes[0]
	require.Len(t, scope.Mappings, 1)
	require.Equal(t, ast.Symbol("total__"), scope.Mappings[0].Name)
	require.Equal(t, "bool", scope.Mappings[0].Key.String())
	require.Equal(t, "u64", scope.Mappings[0].Value.String())

	sym, ok := h.ctx.Table.Global(ast.NewLocation("demo", "total"))
	require.True(t, ok)
	require.NotNil(t, sym.Backing)
	require.Equal(t, "demo/total__", sym.Backing.String())
	require.Nil(t, sym.Length)

	// The read became contains ? {true, get_or_use} : {false, zero}.
	def := fn.Body.Stmts[0].(*ast.Define)
	ter, ok := def.Value.(*ast.Ternary)
	require.True(t, ok, "storage read did not become a ternary")

	contains := ter.Cond.(*ast.MappingOp)
	require.Equal(t, ast.MapContains, contains.Op)
	require.Equal(t, ast.Symbol("total__"), contains.Mapping.Name)

	some := ter.Then.(*ast.StructInit)
	require.Equal(t, "true", some.Fields[0].Value.(*ast.Literal).Text)
	get := some.Fields[1].Value.(*ast.MappingOp)
	require.Equal(t, ast.MapGetOrUse, get.Op)
	require.Equal(t, "0u64", get.Args[1].(*ast.Literal).Text)

	none := ter.Otherwise.(*ast.StructInit)
	require.Equal(t, "false", none.Fields[0].Value.(*ast.Literal).Text)
	require.Equal(t, "0u64", none.Fields[1].Value.(*ast.Literal).Text)

	// The wrapper struct synthesized while lowering the read made it into
	// the scope's item list.
	require.Len(t, scope.Structs, 1)
	require.Equal(t, ast.Symbol("option_u64"), scope.Structs[0].Name)
}

func TestLowerStorageScalarWrite(t *testing.T) {
	h := newHarness()
	decl := &ast.StorageDecl{Name: "total", Type: ast.Integer{Kind: ast.U64}}
	prog, fn := h.storageProgram(decl)
	fn.Body.Stmts = []ast.Statement{&ast.Assign{
		BaseStmt: ast.MakeBaseStmt(h.ctx.NewID(), span.NoSpan),
		Target:   h.storageRef("total"),
		Value:    h.lit("5u64", ast.Integer{Kind: ast.U64}),
	}}

	opts := LowerOptions(h.ctx, prog)
	LowerStorage(h.ctx, prog, opts)

	stmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	set := stmt.Expr.(*ast.MappingOp)
	require.Equal(t, ast.MapSet, set.Op)
	require.Equal(t, ast.Symbol("total__"), set.Mapping.Name)
	require.Equal(t, "false", set.Args[0].(*ast.Literal).Text)
	require.Equal(t, "5u64", set.Args[1].(*ast.Literal).Text)
}

func TestLowerStorageVectorEncoding(t *testing.T) {
	h := newHarness()
	decl := &ast.StorageDecl{Name: "v", Type: ast.Vector{Elem: ast.Field{}}}
	prog, fn := h.storageProgram(decl)

	vecOp := func(op ast.VecOp, args ...ast.Expression) *ast.VectorOp {
		return &ast.VectorOp{
			BaseExpr: ast.MakeBaseExpr(h.ctx.NewID(), span.NoSpan),
			Op:       op,
			Vector:   h.storageRef("v"),
			Args:     args,
		}
	}
	lenStmt := h.let("n", h.u32(), vecOp(ast.VecLen))
	getStmt := h.let("e", ast.Field{}, vecOp(ast.VecGet, h.lit("0u32", h.u32())))
	pushStmt := h.b.exprStmt(span.NoSpan, vecOp(ast.VecPush, h.lit("1field", ast.Field{})))
	fn.Body.Stmts = []ast.Statement{lenStmt, getStmt, pushStmt}

	opts := LowerOptions(h.ctx, prog)
	LowerStorage(h.ctx, prog, opts)

	// Exactly two mappings back the vector.
	scope := prog.Scopes[0]
	require.Len(t, scope.Mappings, 2)
	require.Equal(t, ast.Symbol("v__"), scope.Mappings[0].Name)
	require.Equal(t, "u32", scope.Mappings[0].Key.String())
	require.Equal(t, "field", scope.Mappings[0].Value.String())
	require.Equal(t, ast.Symbol("v__len__"), scope.Mappings[1].Name)
	require.Equal(t, "u32", scope.Mappings[1].Value.String())

	// len reads default to 0u32 via get_or_use on the length mapping.
	lenGet := lenStmt.Value.(*ast.MappingOp)
	require.Equal(t, ast.MapGetOrUse, lenGet.Op)
	require.Equal(t, ast.Symbol("v__len__"), lenGet.Mapping.Name)
	require.Equal(t, "0u32", lenGet.Args[1].(*ast.Literal).Text)

	// get goes against the element mapping.
	elemGet := getStmt.Value.(*ast.MappingOp)
	require.Equal(t, ast.MapGet, elemGet.Op)
	require.Equal(t, ast.Symbol("v__"), elemGet.Mapping.Name)

	// push expanded into read-length, store, bump.
	stmts := fn.Body.Stmts
	require.Len(t, stmts, 5)

	lenDef := stmts[2].(*ast.Define)
	require.Contains(t, string(lenDef.Places[0].Name), "__len_")
	lenRead := lenDef.Value.(*ast.MappingOp)
	require.Equal(t, ast.MapGetOrUse, lenRead.Op)
	require.Equal(t, ast.Symbol("v__len__"), lenRead.Mapping.Name)

	store := stmts[3].(*ast.ExprStmt).Expr.(*ast.MappingOp)
	require.Equal(t, ast.MapSet, store.Op)
	require.Equal(t, ast.Symbol("v__"), store.Mapping.Name)
	require.Equal(t, lenDef.Places[0].Name, store.Args[0].(*ast.Path).Name)

	bump := stmts[4].(*ast.ExprStmt).Expr.(*ast.MappingOp)
	require.Equal(t, ast.MapSet, bump.Op)
	require.Equal(t, ast.Symbol("v__len__"), bump.Mapping.Name)
	sum := bump.Args[1].(*ast.Binary)
	require.Equal(t, ast.OpAdd, sum.Op)
	require.Equal(t, "1u32", sum.Right.(*ast.Literal).Text)
}

func TestLowerStorageVectorScalarReadIsFatal(t *testing.T) {
	h := newHarness()
	decl := &ast.StorageDecl{Name: "v", Type: ast.Vector{Elem: ast.Field{}}}
	prog, fn := h.storageProgram(decl)
	fn.Body.Stmts = []ast.Statement{
		h.let("x", nil, h.storageRef("v")),
	}

	opts := LowerOptions(h.ctx, prog)
	require.Panics(t, func() { LowerStorage(h.ctx, prog, opts) })
}

func TestLowerStorageMappingPassesThrough(t *testing.T) {
	h := newHarness()
	decl := &ast.StorageDecl{
		Name: "balances",
		Type: ast.Mapping{Program: "demo", Key: ast.Address{}, Value: ast.Integer{Kind: ast.U64}},
	}
	prog, _ := h.storageProgram(decl)

	opts := LowerOptions(h.ctx, prog)
	LowerStorage(h.ctx, prog, opts)

	require.Empty(t, prog.Scopes[0].Mappings, "mapping-typed storage must not synthesize backings")
	sym, _ := h.ctx.Table.Global(ast.NewLocation("demo", "balances"))
	require.Nil(t, sym.Backing)
}
