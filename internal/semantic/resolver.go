package semantic

import (
	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/span"
)

// ResolvePaths rewrites every name reference and composite-type
// reference into a resolved target: a local lexical binding or a global
// location. Requires the global table to already be populated by
// CollectGlobals.
//
// Unresolved references are reported as diagnostics and left
// syntactically intact; downstream passes treat them as opaque.
func ResolvePaths(ctx *Context, prog *ast.Program) {
	r := &resolver{ctx: ctx}
	for _, scope := range prog.Scopes {
		r.scope = scope
		r.modulePath = nil
		r.resolveScope(scope)
	}
	ctx.Log.Debug("path resolution complete",
		zap.Int("resolved", r.resolved),
		zap.Int("diagnostics", len(*ctx.Diags)))
}

type resolver struct {
	ctx        *Context
	scope      *ast.ProgramScope
	modulePath []ast.Symbol
	resolved   int
}

func (r *resolver) resolveScope(scope *ast.ProgramScope) {
	for _, decl := range scope.Consts {
		decl.Type = r.resolveType(decl.Type, decl.Sp)
		// Global consts are resolved without a local scope and are not
		// inserted as locals.
		r.resolveExpr(decl.Value)
	}
	for _, decl := range scope.Structs {
		r.resolveStructDecl(decl)
	}
	for _, decl := range scope.Mappings {
		decl.Key = r.resolveType(decl.Key, decl.Sp)
		decl.Value = r.resolveType(decl.Value, decl.Sp)
	}
	for _, decl := range scope.Storage {
		decl.Type = r.resolveType(decl.Type, decl.Sp)
	}
	for _, decl := range scope.Functions {
		r.resolveFunction(decl)
	}
	for _, mod := range scope.Modules {
		r.resolveModule([]ast.Symbol{mod.Name}, mod)
	}
}

func (r *resolver) resolveModule(prefix []ast.Symbol, mod *ast.Module) {
	saved := r.modulePath
	r.modulePath = prefix
	defer func() { r.modulePath = saved }()

	for _, decl := range mod.Consts {
		decl.Type = r.resolveType(decl.Type, decl.Sp)
		r.resolveExpr(decl.Value)
	}
	for _, decl := range mod.Structs {
		r.resolveStructDecl(decl)
	}
	for _, decl := range mod.Functions {
		r.resolveFunction(decl)
	}
	for _, sub := range mod.Modules {
		r.resolveModule(append(prefix[:len(prefix):len(prefix)], sub.Name), sub)
	}
}

func (r *resolver) resolveStructDecl(decl *ast.StructDecl) {
	for i := range decl.Fields {
		decl.Fields[i].Type = r.resolveType(decl.Fields[i].Type, decl.Sp)
	}
}

func (r *resolver) resolveFunction(fn *ast.FunctionDecl) {
	for _, param := range fn.Params {
		param.Type = r.resolveType(param.Type, fn.Sp)
	}
	for _, out := range fn.Outputs {
		out.Type = r.resolveType(out.Type, fn.Sp)
	}
	if fn.Body == nil {
		return
	}
	r.ctx.InScope(func() {
		for _, param := range fn.Params {
			r.defineVar(&VarSymbol{
				Name: param.Binding.Name,
				Kind: VarInput,
				Type: param.Type,
				Span: param.Binding.Span(),
			})
			r.ctx.Types.Set(param.Binding.ID(), param.Type)
		}
		for _, stmt := range fn.Body.Stmts {
			r.resolveStmt(stmt)
		}
	})
}

func (r *resolver) resolveStmt(stmt ast.Statement) {
	if stmt == nil {
		return
	}

	switch s := stmt.(type) {
	case *ast.Define:
		r.resolveExpr(s.Value)
		if s.Type != nil {
			s.Type = r.resolveType(s.Type, s.Span())
		}
		r.definePlaces(s)

	case *ast.Assign:
		r.resolveExpr(s.Target)
		r.resolveExpr(s.Value)

	case *ast.Return:
		r.resolveExpr(s.Value)

	case *ast.Block:
		r.resolveBlock(s)

	case *ast.Conditional:
		r.resolveExpr(s.Cond)
		r.resolveBlock(s.Then)
		if s.Otherwise != nil {
			r.resolveBlock(s.Otherwise)
		}

	case *ast.Iteration:
		r.resolveExpr(s.Start)
		r.resolveExpr(s.Stop)
		s.IndexType = r.resolveType(s.IndexType, s.Span())
		r.ctx.InScope(func() {
			r.defineVar(&VarSymbol{
				Name: s.Index.Name,
				Kind: VarIteration,
				Type: s.IndexType,
				Span: s.Index.Span(),
			})
			r.ctx.Types.Set(s.Index.ID(), s.IndexType)
			r.resolveBlock(s.Body)
		})

	case *ast.Assert:
		r.resolveExpr(s.Left)
		r.resolveExpr(s.Right)

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	default:
		panic(Defectf("resolver: unexpected statement %T", stmt))
	}
}

func (r *resolver) resolveBlock(block *ast.Block) {
	if block == nil {
		return
	}
	r.ctx.InScope(func() {
		for _, stmt := range block.Stmts {
			r.resolveStmt(stmt)
		}
	})
}

// placeTypes computes the per-binding types a definition introduces,
// from the declared type or the inferred type of the right-hand side.
func (r *resolver) placeTypes(s *ast.Define) []ast.Type {
	var declared ast.Type
	if s.Type != nil {
		declared = s.Type
	} else if t := r.ctx.Types.TypeOf(s.Value); t != nil {
		declared = t
	}
	if declared == nil {
		return make([]ast.Type, len(s.Places))
	}
	if len(s.Places) == 1 {
		return []ast.Type{declared}
	}
	if tup, ok := declared.(ast.Tuple); ok && len(tup.Elems) == len(s.Places) {
		return tup.Elems
	}
	return make([]ast.Type, len(s.Places))
}

// definePlaces inserts the bindings a definition introduces, attaching
// component types where statically known.
func (r *resolver) definePlaces(s *ast.Define) {
	kind := VarLet
	if s.Const {
		kind = VarConst
	}
	types := r.placeTypes(s)
	for i, place := range s.Places {
		r.defineVar(&VarSymbol{
			Name: place.Name,
			Kind: kind,
			Type: types[i],
			Span: place.Span(),
		})
		if types[i] != nil {
			r.ctx.Types.Set(place.ID(), types[i])
		}
	}
}

// defineVar inserts a binding, ignoring same-frame redefinition: the
// upstream checker has already validated shadowing legality.
func (r *resolver) defineVar(sym *VarSymbol) {
	_ = r.ctx.Table.DefineVar(sym)
}

func (r *resolver) resolveExpr(e ast.Expression) {
	if e == nil {
		return
	}

	switch n := e.(type) {
	case *ast.Literal, *ast.Unit:
		// Literals need no resolution.

	case *ast.Path:
		r.resolvePath(n)

	case *ast.Binary:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)

	case *ast.Unary:
		r.resolveExpr(n.Operand)

	case *ast.Ternary:
		r.resolveExpr(n.Cond)
		r.resolveExpr(n.Then)
		r.resolveExpr(n.Otherwise)

	case *ast.Cast:
		r.resolveExpr(n.Value)
		n.To = r.resolveType(n.To, n.Span())
		r.ctx.Types.Set(n.ID(), n.To)

	case *ast.TupleExpr:
		for _, el := range n.Elems {
			r.resolveExpr(el)
		}

	case *ast.ArrayLit:
		for _, el := range n.Elems {
			r.resolveExpr(el)
		}

	case *ast.Repeat:
		r.resolveExpr(n.Value)

	case *ast.Index:
		r.resolveExpr(n.Array)
		r.resolveExpr(n.Key)

	case *ast.Member:
		r.resolveExpr(n.Target)

	case *ast.StructInit:
		r.resolvePath(n.Name)
		for _, f := range n.Fields {
			r.resolveExpr(f.Value)
		}

	case *ast.Call:
		r.resolvePath(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
		// A resolved callee tells us the call's result type, which the
		// destructurer needs for tuple-returning calls.
		if n.Callee.Target.Kind == ast.TargetGlobal {
			if sym, ok := r.ctx.Table.Global(n.Callee.Target.Global); ok && sym.Func != nil {
				r.ctx.Types.Set(n.ID(), sym.Func.OutputTuple())
			}
		}

	case *ast.MappingOp:
		r.resolvePath(n.Mapping)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}

	case *ast.VectorOp:
		r.resolvePath(n.Vector)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}

	case *ast.OptionSome:
		r.resolveExpr(n.Value)
		if t := r.ctx.Types.TypeOf(n.Value); t != nil {
			r.ctx.Types.Set(n.ID(), ast.Optional{Inner: t})
		}

	case *ast.OptionNone:
		n.Of = r.resolveType(n.Of, n.Span())
		r.ctx.Types.Set(n.ID(), ast.Optional{Inner: n.Of})

	default:
		panic(Defectf("resolver: unexpected expression %T", e))
	}
}

// resolvePath transitions a path's target from unresolved to local or
// global, exactly once.
func (r *resolver) resolvePath(p *ast.Path) {
	if p.IsResolved() {
		panic(Defectf("path %q resolved twice", p.Name))
	}

	// An explicit program qualifier always resolves globally; local
	// scope is never consulted.
	if p.Program != "" {
		loc := ast.NewLocation(p.Program, append(p.Segments[:len(p.Segments):len(p.Segments)], p.Name)...)
		r.bindGlobal(p, loc)
		return
	}

	// Plain names: a lexical binding shadows a same-named global.
	if len(p.Segments) == 0 {
		if sym, ok := r.ctx.Table.LookupVar(p.Name); ok {
			p.Target = ast.Target{Kind: ast.TargetLocal, Local: p.Name}
			if sym.Type != nil {
				r.ctx.Types.Set(p.ID(), sym.Type)
			}
			r.resolved++
			return
		}
	}

	// Absolute, module-qualified global form.
	segs := append(r.modulePath[:len(r.modulePath):len(r.modulePath)], p.Segments...)
	loc := ast.NewLocation(r.scope.Name, append(segs, p.Name)...)
	if _, ok := r.ctx.Table.Global(loc); ok {
		r.bindGlobal(p, loc)
		return
	}
	// Items of the enclosing program may also be referenced from inside
	// a module without the module prefix.
	if len(r.modulePath) > 0 {
		root := ast.NewLocation(r.scope.Name, append(p.Segments[:len(p.Segments):len(p.Segments)], p.Name)...)
		if _, ok := r.ctx.Table.Global(root); ok {
			r.bindGlobal(p, root)
			return
		}
	}

	r.ctx.Diags.Addf(p.Span(), ErrUnknownSymbol, p.Name)
}

func (r *resolver) bindGlobal(p *ast.Path, loc ast.Location) {
	sym, ok := r.ctx.Table.Global(loc)
	if !ok {
		r.ctx.Diags.Addf(p.Span(), ErrUnknownSymbol, loc.String())
		return
	}
	p.Target = ast.Target{Kind: ast.TargetGlobal, Global: loc}
	if sym.Type != nil {
		r.ctx.Types.Set(p.ID(), sym.Type)
	}
	r.resolved++
}

// resolveType rewrites composite-type references bottom-up.
func (r *resolver) resolveType(t ast.Type, sp span.Span) ast.Type {
	switch tt := t.(type) {
	case nil:
		return nil
	case ast.Array:
		tt.Elem = r.resolveType(tt.Elem, sp)
		return tt
	case ast.Tuple:
		for i := range tt.Elems {
			tt.Elems[i] = r.resolveType(tt.Elems[i], sp)
		}
		return tt
	case ast.Optional:
		tt.Inner = r.resolveType(tt.Inner, sp)
		return tt
	case ast.Vector:
		tt.Elem = r.resolveType(tt.Elem, sp)
		return tt
	case ast.Mapping:
		tt.Key = r.resolveType(tt.Key, sp)
		tt.Value = r.resolveType(tt.Value, sp)
		return tt
	case ast.Composite:
		if tt.Target != nil {
			return tt
		}
		program := tt.Program
		var loc ast.Location
		if program != "" {
			loc = ast.NewLocation(program, tt.Name)
		} else {
			loc = ast.NewLocation(r.scope.Name, append(r.modulePath[:len(r.modulePath):len(r.modulePath)], tt.Name)...)
			if _, ok := r.ctx.Table.Global(loc); !ok && len(r.modulePath) > 0 {
				loc = ast.NewLocation(r.scope.Name, tt.Name)
			}
		}
		sym, ok := r.ctx.Table.Global(loc)
		if !ok || (sym.Kind != KindStruct && sym.Kind != KindRecord) {
			r.ctx.Diags.Addf(sp, ErrUnknownSymbol, tt.Name)
			return tt
		}
		tt.Target = &loc
		return tt
	default:
		return t
	}
}
