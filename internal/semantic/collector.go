package semantic

import (
	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
)

// FinalizePrefix is the path segment under which the companion finalize
// function of an async transition is registered: finalize/<name>.
const FinalizePrefix ast.Symbol = "finalize"

// CollectGlobals walks the program tree once and registers every
// top-level item into the global symbol table, attaching types where
// statically known. Duplicate definitions are reported as diagnostics
// and skipped; the traversal never aborts.
func CollectGlobals(ctx *Context, prog *ast.Program) {
	c := &collector{ctx: ctx}
	for _, scope := range prog.Scopes {
		c.collectScope(scope)
	}
	ctx.Log.Debug("global item collection complete",
		zap.Int("items", c.items),
		zap.Int("diagnostics", len(*ctx.Diags)))
}

type collector struct {
	ctx   *Context
	items int
}

func (c *collector) collectScope(scope *ast.ProgramScope) {
	for _, decl := range scope.Consts {
		c.defineConst(scope, nil, decl)
	}
	for _, decl := range scope.Structs {
		c.defineStruct(scope, nil, decl)
	}
	for _, decl := range scope.Mappings {
		c.define(&GlobalSymbol{
			Kind:     KindMapping,
			Loc:      ast.NewLocation(scope.Name, decl.Name),
			Span:     decl.Sp,
			Type:     ast.Mapping{Program: scope.Name, Key: decl.Key, Value: decl.Value},
			FromStub: scope.IsStub,
		})
	}
	for _, decl := range scope.Storage {
		c.defineStorage(scope, decl)
	}
	for _, decl := range scope.Functions {
		c.defineFunction(scope, nil, decl)
	}
	for _, mod := range scope.Modules {
		c.collectModule(scope, []ast.Symbol{mod.Name}, mod)
	}
}

func (c *collector) collectModule(scope *ast.ProgramScope, prefix []ast.Symbol, mod *ast.Module) {
	for _, decl := range mod.Consts {
		c.defineConst(scope, prefix, decl)
	}
	for _, decl := range mod.Structs {
		c.defineStruct(scope, prefix, decl)
	}
	for _, decl := range mod.Functions {
		c.defineFunction(scope, prefix, decl)
	}
	for _, sub := range mod.Modules {
		c.collectModule(scope, append(prefix[:len(prefix):len(prefix)], sub.Name), sub)
	}
}

func (c *collector) defineConst(scope *ast.ProgramScope, prefix []ast.Symbol, decl *ast.ConstDecl) {
	c.define(&GlobalSymbol{
		Kind:     KindConst,
		Loc:      ast.NewLocation(scope.Name, append(prefix[:len(prefix):len(prefix)], decl.Name)...),
		Span:     decl.Sp,
		Type:     decl.Type,
		Const:    decl,
		FromStub: scope.IsStub,
	})
}

func (c *collector) defineStruct(scope *ast.ProgramScope, prefix []ast.Symbol, decl *ast.StructDecl) {
	kind := KindStruct
	if decl.IsRecord {
		kind = KindRecord
	}
	sym := &GlobalSymbol{
		Kind:     kind,
		Loc:      ast.NewLocation(scope.Name, append(prefix[:len(prefix):len(prefix)], decl.Name)...),
		Span:     decl.Sp,
		Struct:   decl,
		FromStub: scope.IsStub,
	}
	if c.ctx.Table.DefineGlobal(sym) {
		c.items++
		return
	}
	// A composite declared in an imported program's stub may be redefined
	// locally at most once; the local definition wins.
	existing, _ := c.ctx.Table.Global(sym.Loc)
	if existing.FromStub && !scope.IsStub {
		c.ctx.Table.ReplaceGlobal(sym)
		c.items++
		return
	}
	c.ctx.Diags.Addf(decl.Sp, ErrDuplicateStruct, decl.Name)
}

func (c *collector) defineStorage(scope *ast.ProgramScope, decl *ast.StorageDecl) {
	typ := decl.Type
	if _, ok := typ.(ast.Vector); !ok {
		// Non-vector storage reads may find nothing there, so the value
		// type is implicitly optional.
		typ = ast.Optional{Inner: decl.Type}
	}
	c.define(&GlobalSymbol{
		Kind:     KindStorage,
		Loc:      ast.NewLocation(scope.Name, decl.Name),
		Span:     decl.Sp,
		Type:     typ,
		FromStub: scope.IsStub,
	})
}

func (c *collector) defineFunction(scope *ast.ProgramScope, prefix []ast.Symbol, decl *ast.FunctionDecl) {
	segs := append(prefix[:len(prefix):len(prefix)], decl.Name)
	if decl.Variant == ast.VariantFinalize {
		segs = append([]ast.Symbol{FinalizePrefix}, segs...)
	}
	loc := ast.NewLocation(scope.Name, segs...)

	fn := &FuncSymbol{
		Variant: decl.Variant,
		Params:  decl.Params,
		Outputs: decl.Outputs,
	}
	if decl.Variant == ast.VariantAsyncTransition {
		finalize := ast.NewLocation(scope.Name, append(append([]ast.Symbol{FinalizePrefix}, prefix...), decl.Name)...)
		fn.FinalizeLoc = &finalize
	}
	c.define(&GlobalSymbol{
		Kind:     KindFunction,
		Loc:      loc,
		Span:     decl.Sp,
		Func:     fn,
		FromStub: scope.IsStub,
	})

	// An async-transition stub has no declared finalize body, so the
	// companion location is synthesized here to keep external calls
	// resolvable.
	if decl.Variant == ast.VariantAsyncTransition && scope.IsStub && fn.FinalizeLoc != nil {
		c.define(&GlobalSymbol{
			Kind:     KindFunction,
			Loc:      *fn.FinalizeLoc,
			Span:     decl.Sp,
			Func:     &FuncSymbol{Variant: ast.VariantFinalize},
			FromStub: true,
		})
	}
}

func (c *collector) define(sym *GlobalSymbol) {
	if !c.ctx.Table.DefineGlobal(sym) {
		c.ctx.Diags.Addf(sym.Span, ErrDuplicateItem, sym.Loc.Name())
		return
	}
	c.items++
}
