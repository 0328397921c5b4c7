package lower

import (
	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
	"github.com/lumenlang/lumen/span"
)

// Backing-mapping name suffixes. The double underscore keeps synthesized
// mappings out of the user namespace.
const (
	backingSuffix = "__"
	lengthSuffix  = "__len__"
)

// LowerStorage rewrites references to persistent storage variables into
// explicit backing-mapping operations. Runs after option lowering and
// reuses its struct registry: a scalar storage read materializes the
// already-lowered {is_some, val} struct of the variable's value type.
//
// Scalar storage becomes one mapping from a boolean sentinel key to the
// value type. Vector storage becomes two mappings, elements keyed by
// u32 index plus a length entry under the sentinel key, because the
// target machine has no native vector storage. Mapping-typed storage
// passes through unchanged.
func LowerStorage(ctx *semantic.Context, prog *ast.Program, opts *OptionLowerer) {
	l := &storageLowerer{
		ctx:  ctx,
		b:    builder{ctx: ctx},
		opts: opts,
	}
	for _, scope := range prog.Scopes {
		if scope.IsStub {
			continue
		}
		l.lowerScope(scope)
	}
	ctx.Log.Debug("storage lowering complete",
		zap.Int("rewrites", l.rewrites),
		zap.Int("mappings", l.mappings))
}

type storageLowerer struct {
	ctx  *semantic.Context
	b    builder
	opts *OptionLowerer

	rewrites int
	mappings int
}

func (l *storageLowerer) lowerScope(scope *ast.ProgramScope) {
	l.opts.program = scope.Name
	mark := len(l.opts.created)

	for _, decl := range scope.Storage {
		l.declareBackings(scope, decl)
	}
	eachFunction(scope, func(fn *ast.FunctionDecl) {
		if fn.Body != nil {
			l.lowerBlock(fn.Body)
		}
	})

	// Wrapping a storage read can synthesize an option struct the option
	// pass never needed; those definitions belong to this scope's item
	// list too.
	for _, s := range l.opts.created[mark:] {
		scope.Structs = append(scope.Structs, s.decl)
	}
}

// declareBackings synthesizes the backing mapping(s) of one storage
// variable and records the redirection on its global symbol.
func (l *storageLowerer) declareBackings(scope *ast.ProgramScope, decl *ast.StorageDecl) {
	loc := ast.NewLocation(scope.Name, decl.Name)
	sym, ok := l.ctx.Table.Global(loc)
	if !ok || sym.Kind != semantic.KindStorage {
		panic(semantic.Defectf("storage variable %s missing from the global table", loc))
	}

	switch t := decl.Type.(type) {
	case ast.Mapping:
		// Already a native primitive.
		return

	case ast.Vector:
		elems := l.defineMapping(scope, loc.WithName(decl.Name+backingSuffix), decl.Sp,
			ast.Integer{Kind: ast.U32}, t.Elem)
		length := l.defineMapping(scope, loc.WithName(decl.Name+lengthSuffix), decl.Sp,
			ast.Boolean{}, ast.Integer{Kind: ast.U32})
		sym.Backing = &elems
		sym.Length = &length

	default:
		backing := l.defineMapping(scope, loc.WithName(decl.Name+backingSuffix), decl.Sp,
			ast.Boolean{}, decl.Type)
		sym.Backing = &backing
	}
}

func (l *storageLowerer) defineMapping(scope *ast.ProgramScope, loc ast.Location, sp span.Span, key, value ast.Type) ast.Location {
	decl := &ast.MappingDecl{Name: loc.Name(), Key: key, Value: value, Sp: sp}
	scope.Mappings = append(scope.Mappings, decl)
	if !l.ctx.Table.DefineGlobal(&semantic.GlobalSymbol{
		Kind: semantic.KindMapping,
		Loc:  loc,
		Span: sp,
		Type: ast.Mapping{Program: loc.Program, Key: key, Value: value},
	}) {
		panic(semantic.Defectf("backing mapping %s collides with an existing item", loc))
	}
	l.mappings++
	return loc
}

func (l *storageLowerer) lowerBlock(block *ast.Block) {
	out := make([]ast.Statement, 0, len(block.Stmts))
	for _, stmt := range block.Stmts {
		out = append(out, l.lowerStmt(stmt)...)
	}
	block.Stmts = out
}

func (l *storageLowerer) lowerStmt(stmt ast.Statement) []ast.Statement {
	switch s := stmt.(type) {
	case *ast.Define:
		s.Value = l.lowerExpr(s.Value)

	case *ast.Assign:
		if set, ok := l.lowerStorageWrite(s); ok {
			return []ast.Statement{set}
		}
		s.Target = l.lowerExpr(s.Target)
		s.Value = l.lowerExpr(s.Value)

	case *ast.Return:
		s.Value = l.lowerExpr(s.Value)

	case *ast.Block:
		l.lowerBlock(s)

	case *ast.Conditional:
		s.Cond = l.lowerExpr(s.Cond)
		l.lowerBlock(s.Then)
		if s.Otherwise != nil {
			l.lowerBlock(s.Otherwise)
		}

	case *ast.Iteration:
		s.Start = l.lowerExpr(s.Start)
		s.Stop = l.lowerExpr(s.Stop)
		l.lowerBlock(s.Body)

	case *ast.Assert:
		s.Left = l.lowerExpr(s.Left)
		s.Right = l.lowerExpr(s.Right)

	case *ast.ExprStmt:
		if push, ok := s.Expr.(*ast.VectorOp); ok && push.Op == ast.VecPush {
			return l.lowerPush(push)
		}
		s.Expr = l.lowerExpr(s.Expr)
	}
	return []ast.Statement{stmt}
}

func (l *storageLowerer) lowerExpr(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case nil:
		return nil

	case *ast.Path:
		if sym, ok := l.storageSym(n); ok {
			return l.lowerRead(n, sym)
		}

	case *ast.VectorOp:
		return l.lowerVectorOp(n)

	case *ast.Binary:
		n.Left = l.lowerExpr(n.Left)
		n.Right = l.lowerExpr(n.Right)
	case *ast.Unary:
		n.Operand = l.lowerExpr(n.Operand)
	case *ast.Ternary:
		n.Cond = l.lowerExpr(n.Cond)
		n.Then = l.lowerExpr(n.Then)
		n.Otherwise = l.lowerExpr(n.Otherwise)
	case *ast.Cast:
		n.Value = l.lowerExpr(n.Value)
	case *ast.TupleExpr:
		for i := range n.Elems {
			n.Elems[i] = l.lowerExpr(n.Elems[i])
		}
	case *ast.ArrayLit:
		for i := range n.Elems {
			n.Elems[i] = l.lowerExpr(n.Elems[i])
		}
	case *ast.Repeat:
		n.Value = l.lowerExpr(n.Value)
	case *ast.Index:
		n.Array = l.lowerExpr(n.Array)
		n.Key = l.lowerExpr(n.Key)
	case *ast.Member:
		n.Target = l.lowerExpr(n.Target)
	case *ast.StructInit:
		for i := range n.Fields {
			n.Fields[i].Value = l.lowerExpr(n.Fields[i].Value)
		}
	case *ast.Call:
		for i := range n.Args {
			n.Args[i] = l.lowerExpr(n.Args[i])
		}
	case *ast.MappingOp:
		for i := range n.Args {
			n.Args[i] = l.lowerExpr(n.Args[i])
		}
	}
	return e
}

// storageSym returns the global symbol of a path that references a
// scalar (mapping-backed) storage variable.
func (l *storageLowerer) storageSym(p *ast.Path) (*semantic.GlobalSymbol, bool) {
	if p.Target.Kind != ast.TargetGlobal {
		return nil, false
	}
	sym, ok := l.ctx.Table.Global(p.Target.Global)
	if !ok || sym.Kind != semantic.KindStorage || sym.Backing == nil {
		return nil, false
	}
	return sym, true
}

// lowerRead rewrites a scalar storage read into
//
//	contains(name__, false)
//	    ? {is_some: true, val: get_or_use(name__, false, zero(T))}
//	    : {is_some: false, val: zero(T)}
//
// so absence surfaces as the lowered none value rather than a trap.
func (l *storageLowerer) lowerRead(p *ast.Path, sym *semantic.GlobalSymbol) ast.Expression {
	if sym.Length != nil {
		panic(semantic.Defectf("vector storage %s read as a scalar", sym.Loc))
	}
	l.rewrites++
	sp := p.Span()
	valueType := l.valueType(sym)

	contains := l.b.mappingOp(sp, ast.MapContains, *sym.Backing, ast.Boolean{},
		l.b.boolLit(sp, false))
	get := l.b.mappingOp(sp, ast.MapGetOrUse, *sym.Backing, valueType,
		l.b.boolLit(sp, false),
		zeroValue(l.b, sp, valueType, l.opts.Structs()))

	some := l.opts.WrapValue(sp, get, valueType)
	none := l.opts.WrapNone(sp, valueType)
	return l.b.ternary(sp, contains, some, none, l.ctx.Types.TypeOf(some))
}

// lowerStorageWrite rewrites an assignment to a scalar storage variable
// into a set against the backing mapping.
func (l *storageLowerer) lowerStorageWrite(s *ast.Assign) (ast.Statement, bool) {
	p, ok := s.Target.(*ast.Path)
	if !ok {
		return nil, false
	}
	sym, ok := l.storageSym(p)
	if !ok {
		return nil, false
	}
	if sym.Length != nil {
		panic(semantic.Defectf("vector storage %s written as a scalar", sym.Loc))
	}
	l.rewrites++
	sp := s.Span()
	set := l.b.mappingOp(sp, ast.MapSet, *sym.Backing, ast.UnitType{},
		l.b.boolLit(sp, false),
		l.lowerExpr(s.Value))
	return l.b.exprStmt(sp, set), true
}

// lowerVectorOp rewrites a value-producing vector operation onto the
// vector's backing mappings. Pushes are handled at statement level.
func (l *storageLowerer) lowerVectorOp(v *ast.VectorOp) ast.Expression {
	sym := l.vectorSym(v)
	sp := v.Span()
	l.rewrites++

	switch v.Op {
	case ast.VecLen:
		return l.lengthRead(sp, sym)

	case ast.VecGet:
		return l.b.mappingOp(sp, ast.MapGet, *sym.Backing, l.elemType(sym),
			l.lowerExpr(v.Args[0]))

	case ast.VecSet:
		return l.b.mappingOp(sp, ast.MapSet, *sym.Backing, ast.UnitType{},
			l.lowerExpr(v.Args[0]),
			l.lowerExpr(v.Args[1]))

	case ast.VecPush:
		panic(semantic.Defectf("vector push on %s in expression position", sym.Loc))

	default:
		panic(semantic.Defectf("unexpected vector operation %d", v.Op))
	}
}

// lowerPush expands a statement-level push into three statements:
//
//	let __len_N = get_or_use(v__len__, false, 0u32);
//	set(v__, __len_N, value);
//	set(v__len__, false, __len_N + 1u32);
func (l *storageLowerer) lowerPush(v *ast.VectorOp) []ast.Statement {
	sym := l.vectorSym(v)
	sp := v.Span()
	l.rewrites++

	u32 := ast.Integer{Kind: ast.U32}
	lenName := l.ctx.FreshName("len")
	lenDef := l.b.define(sp, l.b.binding(sp, lenName, u32), u32, l.lengthRead(sp, sym))

	store := l.b.mappingOp(sp, ast.MapSet, *sym.Backing, ast.UnitType{},
		l.b.localRef(sp, lenName, u32),
		l.lowerExpr(v.Args[0]))

	bump := l.b.mappingOp(sp, ast.MapSet, *sym.Length, ast.UnitType{},
		l.b.boolLit(sp, false),
		l.b.binary(sp, ast.OpAdd,
			l.b.localRef(sp, lenName, u32),
			l.b.intLit(sp, "1", ast.U32),
			u32))

	return []ast.Statement{
		lenDef,
		l.b.exprStmt(sp, store),
		l.b.exprStmt(sp, bump),
	}
}

// lengthRead builds get_or_use(v__len__, false, 0u32): the length of a
// vector nothing was ever pushed to is zero.
func (l *storageLowerer) lengthRead(sp span.Span, sym *semantic.GlobalSymbol) ast.Expression {
	u32 := ast.Integer{Kind: ast.U32}
	return l.b.mappingOp(sp, ast.MapGetOrUse, *sym.Length, u32,
		l.b.boolLit(sp, false),
		l.b.intLit(sp, "0", ast.U32))
}

func (l *storageLowerer) vectorSym(v *ast.VectorOp) *semantic.GlobalSymbol {
	if v.Vector.Target.Kind != ast.TargetGlobal {
		panic(semantic.Defectf("vector operation on unresolved path %q", v.Vector.Name))
	}
	sym, ok := l.ctx.Table.Global(v.Vector.Target.Global)
	if !ok || sym.Kind != semantic.KindStorage || sym.Length == nil {
		panic(semantic.Defectf("vector operation on non-vector item %q", v.Vector.Name))
	}
	return sym
}

// valueType is the storage variable's declared value type, unwrapped
// from the optional the collector recorded.
func (l *storageLowerer) valueType(sym *semantic.GlobalSymbol) ast.Type {
	if opt, ok := sym.Type.(ast.Optional); ok {
		return l.opts.LowerType(opt.Inner)
	}
	return l.opts.LowerType(sym.Type)
}

func (l *storageLowerer) elemType(sym *semantic.GlobalSymbol) ast.Type {
	if vec, ok := sym.Type.(ast.Vector); ok {
		return l.opts.LowerType(vec.Elem)
	}
	panic(semantic.Defectf("storage %s is not vector-typed", sym.Loc))
}
