package lower

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
	"github.com/lumenlang/lumen/span"
)

// Option-struct member names. The tag comes first so every lowered
// struct shares a layout prefix.
const (
	optionTagField = "is_some"
	optionValField = "val"
)

// OptionLowerer rewrites every occurrence of an optional type into a
// concrete tagged struct {is_some: bool, val: T}, synthesizing one
// struct definition per distinct lowered T. The lowerer survives the
// pass so storage lowering can wrap storage reads with the same structs
// and the same zero-value synthesizer.
type OptionLowerer struct {
	ctx *semantic.Context
	b   builder

	// program is the scope currently being lowered; synthesized structs
	// are registered under it.
	program ast.Symbol

	// structs memoizes the synthesized definition per inner-type key,
	// and created keeps them in synthesis order for insertion into the
	// program's item list.
	structs map[string]*optionStruct
	created []*optionStruct

	rewrites int
}

type optionStruct struct {
	loc   ast.Location
	decl  *ast.StructDecl
	inner ast.Type
}

// LowerOptions runs option lowering over every non-stub scope and
// returns the lowerer for use by storage lowering.
func LowerOptions(ctx *semantic.Context, prog *ast.Program) *OptionLowerer {
	l := &OptionLowerer{
		ctx:     ctx,
		b:       builder{ctx: ctx},
		structs: make(map[string]*optionStruct),
	}
	for _, scope := range prog.Scopes {
		if scope.IsStub {
			continue
		}
		l.lowerScope(scope)
	}
	ctx.Log.Debug("option lowering complete",
		zap.Int("rewrites", l.rewrites),
		zap.Int("structs", len(l.created)))
	return l
}

func (l *OptionLowerer) lowerScope(scope *ast.ProgramScope) {
	l.program = scope.Name
	mark := len(l.created)

	for _, decl := range scope.Structs {
		for i := range decl.Fields {
			decl.Fields[i].Type = l.LowerType(decl.Fields[i].Type)
		}
	}
	for _, decl := range scope.Mappings {
		decl.Key = l.LowerType(decl.Key)
		decl.Value = l.LowerType(decl.Value)
	}
	for _, decl := range scope.Storage {
		decl.Type = l.LowerType(decl.Type)
	}
	eachFunction(scope, l.lowerFunction)

	// Insert every struct synthesized while lowering this scope into its
	// top-level item list.
	for _, s := range l.created[mark:] {
		scope.Structs = append(scope.Structs, s.decl)
	}
}

func (l *OptionLowerer) lowerFunction(fn *ast.FunctionDecl) {
	for _, param := range fn.Params {
		param.Type = l.LowerType(param.Type)
	}
	for _, out := range fn.Outputs {
		out.Type = l.LowerType(out.Type)
	}
	if fn.Body != nil {
		l.lowerBlock(fn.Body)
	}
}

func (l *OptionLowerer) lowerBlock(block *ast.Block) {
	for i, stmt := range block.Stmts {
		block.Stmts[i] = l.lowerStmt(stmt)
	}
}

func (l *OptionLowerer) lowerStmt(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.Define:
		if s.Type != nil {
			s.Type = l.LowerType(s.Type)
		}
		s.Value = l.lowerExpr(s.Value)
	case *ast.Assign:
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
		s.Expr = l.lowerExpr(s.Expr)
	}
	return stmt
}

func (l *OptionLowerer) lowerExpr(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case nil:
		return nil

	case *ast.OptionSome:
		inner := l.ctx.Types.TypeOf(n.Value)
		if inner == nil {
			panic(semantic.Defectf("optional wrap of untyped expression"))
		}
		return l.WrapValue(n.Span(), l.lowerExpr(n.Value), inner)

	case *ast.OptionNone:
		return l.WrapNone(n.Span(), n.Of)

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
		n.To = l.LowerType(n.To)
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
	case *ast.VectorOp:
		for i := range n.Args {
			n.Args[i] = l.lowerExpr(n.Args[i])
		}
	}
	return e
}

// LowerType rewrites optionals inside t into their struct encodings,
// bottom-up.
func (l *OptionLowerer) LowerType(t ast.Type) ast.Type {
	switch tt := t.(type) {
	case nil:
		return nil
	case ast.Optional:
		s := l.structFor(l.LowerType(tt.Inner))
		return ast.Composite{Name: s.loc.Name(), Target: &s.loc}
	case ast.Array:
		tt.Elem = l.LowerType(tt.Elem)
		return tt
	case ast.Tuple:
		for i := range tt.Elems {
			tt.Elems[i] = l.LowerType(tt.Elems[i])
		}
		return tt
	case ast.Vector:
		tt.Elem = l.LowerType(tt.Elem)
		return tt
	case ast.Mapping:
		tt.Key = l.LowerType(tt.Key)
		tt.Value = l.LowerType(tt.Value)
		return tt
	default:
		return t
	}
}

// WrapValue builds the struct instance {is_some: true, val: value} for
// an already-lowered value of type inner.
func (l *OptionLowerer) WrapValue(sp span.Span, value ast.Expression, inner ast.Type) ast.Expression {
	l.rewrites++
	return l.instance(sp, l.structFor(l.LowerType(inner)), l.b.boolLit(sp, true), value)
}

// WrapNone builds the struct instance {is_some: false, val: zero(T)}.
func (l *OptionLowerer) WrapNone(sp span.Span, inner ast.Type) ast.Expression {
	l.rewrites++
	s := l.structFor(l.LowerType(inner))
	return l.instance(sp, s, l.b.boolLit(sp, false), zeroValue(l.b, sp, s.inner, l.Structs()))
}

// InnerOf reports the payload type a lowered optional struct carries,
// and whether t is such a struct.
func (l *OptionLowerer) InnerOf(t ast.Type) (ast.Type, bool) {
	comp, ok := t.(ast.Composite)
	if !ok || comp.Target == nil {
		return nil, false
	}
	for _, s := range l.created {
		if s.loc == *comp.Target {
			return s.inner, true
		}
	}
	return nil, false
}

// Structs returns a lookup that consults the pass's own synthesized
// structs before the global table. Both must be consulted because the
// pass rewrites existing struct definitions and invents new ones.
func (l *OptionLowerer) Structs() structLookup {
	table := tableLookup(l.ctx)
	return func(loc ast.Location) (*ast.StructDecl, bool) {
		for _, s := range l.created {
			if s.loc == loc {
				return s.decl, true
			}
		}
		return table(loc)
	}
}

func (l *OptionLowerer) instance(sp span.Span, s *optionStruct, tag *ast.Literal, value ast.Expression) ast.Expression {
	init := &ast.StructInit{
		BaseExpr: ast.MakeBaseExpr(l.ctx.NewID(), sp),
		Name:     l.b.globalRef(sp, s.loc, nil),
		Fields: []ast.FieldInit{
			{Name: optionTagField, Value: tag},
			{Name: optionValField, Value: value},
		},
	}
	l.b.typed(init, ast.Composite{Name: s.loc.Name(), Target: &s.loc})
	return init
}

// structFor returns the memoized struct for the (already lowered) inner
// type, synthesizing and registering it on first use.
func (l *OptionLowerer) structFor(inner ast.Type) *optionStruct {
	key := inner.String()
	if s, ok := l.structs[key]; ok {
		return s
	}

	name := ast.Symbol("option_" + mangleType(key))
	loc := ast.NewLocation(l.program, name)
	decl := &ast.StructDecl{
		Name: name,
		Fields: []ast.StructField{
			{Name: optionTagField, Type: ast.Boolean{}},
			{Name: optionValField, Type: inner},
		},
	}
	s := &optionStruct{loc: loc, decl: decl, inner: inner}
	l.structs[key] = s
	l.created = append(l.created, s)

	if !l.ctx.Table.DefineGlobal(&semantic.GlobalSymbol{
		Kind:   semantic.KindStruct,
		Loc:    loc,
		Struct: decl,
	}) {
		panic(semantic.Defectf("synthesized struct %s collides with an existing item", loc))
	}
	return s
}

// mangleType derives a deterministic identifier fragment from a
// canonical type rendering: alphanumerics pass through, every other run
// of characters collapses to a single underscore.
func mangleType(key string) string {
	var sb strings.Builder
	pendingSep := false
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return sb.String()
}
