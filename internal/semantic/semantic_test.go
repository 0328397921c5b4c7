package semantic

import (
	"testing"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/span"
)

// testTree builds nodes with ids drawn from the context's generator.
type testTree struct {
	ctx *Context
}

func (tt *testTree) path(name ast.Symbol) *ast.Path {
	return &ast.Path{
		BaseExpr: ast.MakeBaseExpr(tt.ctx.NewID(), span.NoSpan),
		Name:     name,
	}
}

func (tt *testTree) qualified(program ast.Symbol, name ast.Symbol) *ast.Path {
	p := tt.path(name)
	p.Program = program
	return p
}

func (tt *testTree) bind(name ast.Symbol) *ast.Binding {
	return ast.NewBinding(tt.ctx.NewID(), span.NoSpan, name)
}

func (tt *testTree) let(name ast.Symbol, typ ast.Type, value ast.Expression) *ast.Define {
	return &ast.Define{
		BaseStmt: ast.MakeBaseStmt(tt.ctx.NewID(), span.NoSpan),
		Places:   []*ast.Binding{tt.bind(name)},
		Type:     typ,
		Value:    value,
	}
}

func (tt *testTree) ret(value ast.Expression) *ast.Return {
	return &ast.Return{BaseStmt: ast.MakeBaseStmt(tt.ctx.NewID(), span.NoSpan), Value: value}
}

func (tt *testTree) block(stmts ...ast.Statement) *ast.Block {
	return &ast.Block{BaseStmt: ast.MakeBaseStmt(tt.ctx.NewID(), span.NoSpan), Stmts: stmts}
}

func (tt *testTree) transition(name ast.Symbol, body *ast.Block, outputs ...*ast.Output) *ast.FunctionDecl {
	return &ast.FunctionDecl{
		Variant: ast.VariantTransition,
		Name:    name,
		Outputs: outputs,
		Body:    body,
	}
}

func newTestTree() *testTree {
	return &testTree{ctx: NewContext(nil)}
}

func TestCollectGlobalsRegistersItems(t *testing.T) {
	tt := newTestTree()
	prog := &ast.Program{Scopes: []*ast.ProgramScope{{
		Name: "demo",
		Consts: []*ast.ConstDecl{
			{Name: "limit", Type: ast.Integer{Kind: ast.U64}},
		},
		Structs: []*ast.StructDecl{
			{Name: "token", Fields: []ast.StructField{{Name: "amount", Type: ast.Integer{Kind: ast.U64}}}},
		},
		Mappings: []*ast.MappingDecl{
			{Name: "balances", Key: ast.Address{}, Value: ast.Integer{Kind: ast.U64}},
		},
		Storage: []*ast.StorageDecl{
			{Name: "total", Type: ast.Integer{Kind: ast.U64}},
			{Name: "holders", Type: ast.Vector{Elem: ast.Address{}}},
		},
		Functions: []*ast.FunctionDecl{
			tt.transition("mint", tt.block()),
		},
	}}}

	CollectGlobals(tt.ctx, prog)
	if len(*tt.ctx.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", tt.ctx.Diags)
	}

	// Non-vector storage is implicitly optional.
	sym, ok := tt.ctx.Table.Global(ast.NewLocation("demo", "total"))
	if !ok {
		t.Fatal("storage variable not registered")
	}
	if sym.Kind != KindStorage {
		t.Errorf("kind = %s, want storage", sym.Kind)
	}
	if got := sym.Type.String(); got != "optional<u64>" {
		t.Errorf("storage type = %q, want optional<u64>", got)
	}

	// Vector storage keeps its declared type.
	sym, ok = tt.ctx.Table.Global(ast.NewLocation("demo", "holders"))
	if !ok {
		t.Fatal("vector storage not registered")
	}
	if got := sym.Type.String(); got != "vector<address>" {
		t.Errorf("vector storage type = %q, want vector<address>", got)
	}

	for _, name := range []ast.Symbol{"limit", "token", "balances", "mint"} {
		if _, ok := tt.ctx.Table.Global(ast.NewLocation("demo", name)); !ok {
			t.Errorf("item %q not registered", name)
		}
	}
}

func TestCollectGlobalsAsyncCompanion(t *testing.T) {
	tt := newTestTree()
	prog := &ast.Program{Scopes: []*ast.ProgramScope{
		{
			Name: "demo",
			Functions: []*ast.FunctionDecl{
				{Variant: ast.VariantAsyncTransition, Name: "update", Body: tt.block()},
				{Variant: ast.VariantFinalize, Name: "update", Body: tt.block()},
			},
		},
		{
			Name:   "remote",
			IsStub: true,
			Functions: []*ast.FunctionDecl{
				{Variant: ast.VariantAsyncTransition, Name: "settle"},
			},
		},
	}}

	CollectGlobals(tt.ctx, prog)
	if len(*tt.ctx.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", tt.ctx.Diags)
	}

	sym, ok := tt.ctx.Table.Global(ast.NewLocation("demo", "update"))
	if !ok || sym.Func == nil {
		t.Fatal("async transition not registered")
	}
	if sym.Func.FinalizeLoc == nil {
		t.Fatal("async transition has no companion location")
	}
	if got := sym.Func.FinalizeLoc.String(); got != "demo/finalize/update" {
		t.Errorf("companion location = %q, want demo/finalize/update", got)
	}
	if _, ok := tt.ctx.Table.Global(*sym.Func.FinalizeLoc); !ok {
		t.Error("declared finalize not registered at companion location")
	}

	// A stub async transition synthesizes its companion.
	stub, ok := tt.ctx.Table.Global(ast.NewLocation("remote", "finalize", "settle"))
	if !ok {
		t.Fatal("stub companion finalize not synthesized")
	}
	if !stub.FromStub {
		t.Error("synthesized companion not marked as stub")
	}
}

func TestCollectGlobalsDuplicates(t *testing.T) {
	tt := newTestTree()
	prog := &ast.Program{Scopes: []*ast.ProgramScope{{
		Name: "demo",
		Structs: []*ast.StructDecl{
			{Name: "token"},
			{Name: "token"},
		},
	}}}

	CollectGlobals(tt.ctx, prog)
	if len(*tt.ctx.Diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(*tt.ctx.Diags))
	}
}

func TestCollectGlobalsStubRedefinition(t *testing.T) {
	tt := newTestTree()
	local := &ast.StructDecl{Name: "token", Fields: []ast.StructField{{Name: "amount", Type: ast.Integer{Kind: ast.U64}}}}
	prog := &ast.Program{Scopes: []*ast.ProgramScope{
		{Name: "demo", IsStub: true, Structs: []*ast.StructDecl{{Name: "token"}}},
		{Name: "demo", Structs: []*ast.StructDecl{local}},
	}}

	CollectGlobals(tt.ctx, prog)
	if len(*tt.ctx.Diags) != 0 {
		t.Fatalf("stub redefinition reported as error: %v", tt.ctx.Diags)
	}
	sym, _ := tt.ctx.Table.Global(ast.NewLocation("demo", "token"))
	if sym.Struct != local {
		t.Error("local definition did not replace the stub registration")
	}
}

func TestResolvePathsLocalAndGlobal(t *testing.T) {
	tt := newTestTree()
	localRef := tt.path("x")
	globalRef := tt.path("limit")
	body := tt.block(
		tt.let("x", ast.Integer{Kind: ast.U32}, tt.path("unknown_thing")),
		tt.ret(localRef),
		tt.ret(globalRef),
	)
	prog := &ast.Program{Scopes: []*ast.ProgramScope{{
		Name: "demo",
		Consts: []*ast.ConstDecl{
			{Name: "limit", Type: ast.Integer{Kind: ast.U64}, Value: &ast.Literal{
				BaseExpr: ast.MakeBaseExpr(tt.ctx.NewID(), span.NoSpan),
				Kind:     ast.LitInteger, Text: "9u64",
			}},
		},
		Functions: []*ast.FunctionDecl{tt.transition("main", body)},
	}}}

	CollectGlobals(tt.ctx, prog)
	ResolvePaths(tt.ctx, prog)

	if localRef.Target.Kind != ast.TargetLocal {
		t.Errorf("local reference resolved to %v", localRef.Target.Kind)
	}
	if globalRef.Target.Kind != ast.TargetGlobal {
		t.Errorf("global reference resolved to %v", globalRef.Target.Kind)
	}
	if got := globalRef.Target.Global.String(); got != "demo/limit" {
		t.Errorf("global target = %q, want demo/limit", got)
	}

	// The unknown reference produced a diagnostic and stayed intact.
	if len(*tt.ctx.Diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(*tt.ctx.Diags))
	}

	// The local's type flows from its definition to the reference.
	if got := tt.ctx.Types.TypeOf(localRef); got == nil || got.String() != "u32" {
		t.Errorf("reference type = %v, want u32", got)
	}
}

func TestResolvePathsLocalShadowsGlobal(t *testing.T) {
	tt := newTestTree()
	ref := tt.path("limit")
	lit := &ast.Literal{BaseExpr: ast.MakeBaseExpr(tt.ctx.NewID(), span.NoSpan), Kind: ast.LitInteger, Text: "1u32"}
	tt.ctx.Types.Set(lit.ID(), ast.Integer{Kind: ast.U32})
	body := tt.block(
		tt.let("limit", ast.Integer{Kind: ast.U32}, lit),
		tt.ret(ref),
	)
	prog := &ast.Program{Scopes: []*ast.ProgramScope{{
		Name: "demo",
		Consts: []*ast.ConstDecl{
			{Name: "limit", Type: ast.Integer{Kind: ast.U64}, Value: &ast.Literal{
				BaseExpr: ast.MakeBaseExpr(tt.ctx.NewID(), span.NoSpan),
				Kind:     ast.LitInteger, Text: "9u64",
			}},
		},
		Functions: []*ast.FunctionDecl{tt.transition("main", body)},
	}}}

	CollectGlobals(tt.ctx, prog)
	ResolvePaths(tt.ctx, prog)

	if ref.Target.Kind != ast.TargetLocal {
		t.Errorf("shadowed reference resolved to %v, want local", ref.Target.Kind)
	}

	// A program-qualified reference skips the local check entirely.
	tt2 := newTestTree()
	qref := tt2.qualified("demo", "limit")
	body2 := tt2.block(
		tt2.let("limit", ast.Integer{Kind: ast.U32}, &ast.Literal{
			BaseExpr: ast.MakeBaseExpr(tt2.ctx.NewID(), span.NoSpan), Kind: ast.LitInteger, Text: "1u32",
		}),
		tt2.ret(qref),
	)
	prog2 := &ast.Program{Scopes: []*ast.ProgramScope{{
		Name: "demo",
		Consts: []*ast.ConstDecl{
			{Name: "limit", Type: ast.Integer{Kind: ast.U64}, Value: &ast.Literal{
				BaseExpr: ast.MakeBaseExpr(tt2.ctx.NewID(), span.NoSpan), Kind: ast.LitInteger, Text: "9u64",
			}},
		},
		Functions: []*ast.FunctionDecl{tt2.transition("main", body2)},
	}}}
	CollectGlobals(tt2.ctx, prog2)
	ResolvePaths(tt2.ctx, prog2)
	if qref.Target.Kind != ast.TargetGlobal {
		t.Errorf("qualified reference resolved to %v, want global", qref.Target.Kind)
	}
}

func TestSymbolTableScopes(t *testing.T) {
	st := NewSymbolTable()
	st.PushScope()
	if !st.DefineVar(&VarSymbol{Name: "x", Kind: VarLet}) {
		t.Error("first definition reported as redefinition")
	}
	if st.DefineVar(&VarSymbol{Name: "x", Kind: VarLet}) {
		t.Error("same-frame redefinition reported as new")
	}

	st.PushScope()
	if st.ScopeDepth() != 2 {
		t.Errorf("depth after two pushes = %d, want 2", st.ScopeDepth())
	}
	st.DefineVar(&VarSymbol{Name: "x", Kind: VarConst})
	sym, ok := st.LookupVar("x")
	if !ok || sym.Kind != VarConst {
		t.Error("inner frame does not shadow outer")
	}
	st.PopScope()

	sym, ok = st.LookupVar("x")
	if !ok || sym.Kind != VarLet {
		t.Error("outer binding lost after pop")
	}
	st.PopScope()
	if st.ScopeDepth() != 0 {
		t.Errorf("depth after matching pops = %d, want 0", st.ScopeDepth())
	}

	defer func() {
		if recover() == nil {
			t.Error("popping an empty stack did not panic")
		}
	}()
	st.PopScope()
}

func TestSymbolTableGlobalsOrder(t *testing.T) {
	st := NewSymbolTable()
	for _, name := range []ast.Symbol{"gamma", "alpha", "beta"} {
		st.DefineGlobal(&GlobalSymbol{
			Loc:  ast.NewLocation("demo", name),
			Kind: KindConst,
		})
	}

	locs := st.Globals()
	if len(locs) != 3 {
		t.Fatalf("got %d locations, want 3", len(locs))
	}
	for i, want := range []ast.Symbol{"alpha", "beta", "gamma"} {
		if locs[i] != ast.NewLocation("demo", want) {
			t.Errorf("locs[%d] = %s, want demo/%s", i, locs[i], want)
		}
	}
}

func TestTypeTableConflict(t *testing.T) {
	types := NewTypeTable()
	types.Set(1, ast.Integer{Kind: ast.U32})
	types.Set(1, ast.Integer{Kind: ast.U32}) // idempotent re-record is fine

	defer func() {
		if _, ok := recover().(*Defect); !ok {
			t.Error("conflicting overwrite did not panic with a defect")
		}
	}()
	types.Set(1, ast.Boolean{})
}

func TestFreshNames(t *testing.T) {
	ctx := NewContext(nil)
	a := ctx.FreshName("tmp")
	b := ctx.FreshName("tmp")
	if a == b {
		t.Error("fresh names collide")
	}
	if a[:2] != "__" {
		t.Errorf("fresh name %q does not use the reserved prefix", a)
	}
}

func TestDiagnosticsError(t *testing.T) {
	var ds Diagnostics
	if ds.Err() != nil {
		t.Error("empty list reports an error")
	}
	ds.Addf(span.NoSpan, ErrUnknownSymbol, "ghost")
	ds.Addf(span.NoSpan, ErrDuplicateItem, "twice")
	if ds.Err() == nil {
		t.Error("non-empty list reports no error")
	}
	if len(ds) != 2 {
		t.Errorf("len = %d, want 2", len(ds))
	}
}
