package lower

import (
	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
)

// Destructure eliminates tuple-typed intermediate bindings. After this
// pass, the only tuple-valued right-hand sides left are calls bound by
// multi-place definitions, and no name is bound to a tuple.
//
// The pass keeps a flat name to tuple-expression alias table. There is
// no lexical scoping: a redefinition refreshes the alias, matching the
// single-assignment discipline of the surrounding pipeline.
func Destructure(ctx *semantic.Context, prog *ast.Program) {
	d := &destructurer{
		ctx:     ctx,
		b:       builder{ctx: ctx},
		aliases: make(map[ast.Symbol]*ast.TupleExpr),
	}
	for _, scope := range prog.Scopes {
		if scope.IsStub {
			continue
		}
		eachFunction(scope, func(fn *ast.FunctionDecl) {
			if fn.Body == nil {
				return
			}
			clear(d.aliases)
			fn.Body.Stmts = d.rewriteStmts(fn.Body.Stmts)
		})
	}
	ctx.Log.Debug("destructuring complete", zap.Int("rewrites", d.rewrites))
}

type destructurer struct {
	ctx      *semantic.Context
	b        builder
	aliases  map[ast.Symbol]*ast.TupleExpr
	rewrites int
}

func (d *destructurer) rewriteStmts(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		out = append(out, d.rewriteStmt(stmt)...)
	}
	return out
}

func (d *destructurer) rewriteStmt(stmt ast.Statement) []ast.Statement {
	switch s := stmt.(type) {
	case *ast.Define:
		return d.rewriteDefine(s)

	case *ast.Return:
		s.Value = d.resolveAlias(s.Value)
		return []ast.Statement{s}

	case *ast.Block:
		s.Stmts = d.rewriteStmts(s.Stmts)
		return []ast.Statement{s}

	case *ast.Conditional:
		s.Then.Stmts = d.rewriteStmts(s.Then.Stmts)
		if s.Otherwise != nil {
			s.Otherwise.Stmts = d.rewriteStmts(s.Otherwise.Stmts)
		}
		return []ast.Statement{s}

	case *ast.Iteration:
		s.Body.Stmts = d.rewriteStmts(s.Body.Stmts)
		return []ast.Statement{s}

	default:
		return []ast.Statement{stmt}
	}
}

// rewriteDefine dispatches on (binding shape, right-hand-side shape).
// Any tuple-typed combination outside the four legal rows is a bug in an
// earlier pass.
func (d *destructurer) rewriteDefine(s *ast.Define) []ast.Statement {
	if !d.isTupleTyped(s) {
		return []ast.Statement{s}
	}

	single := len(s.Places) == 1

	switch rhs := s.Value.(type) {
	case *ast.TupleExpr:
		if single {
			// Record the literal tuple and drop the statement.
			d.alias(s.Places[0].Name, rhs)
			return nil
		}
		return d.explode(s, rhs)

	case *ast.Path:
		tup, ok := d.aliases[rhs.Name]
		if !ok || rhs.Target.Kind != ast.TargetLocal {
			panic(semantic.Defectf("tuple-typed name %q has no recorded alias", rhs.Name))
		}
		if single {
			d.alias(s.Places[0].Name, tup)
			return nil
		}
		return d.explode(s, tup)

	case *ast.Call:
		if !single {
			// Already minimal.
			return []ast.Statement{s}
		}
		return d.splitCall(s, rhs)

	default:
		panic(semantic.Defectf("tuple-typed definition with %T right-hand side", s.Value))
	}
}

// explode emits one single-place definition per tuple component.
func (d *destructurer) explode(s *ast.Define, tup *ast.TupleExpr) []ast.Statement {
	if len(s.Places) != len(tup.Elems) {
		panic(semantic.Defectf("destructuring %d places from a %d-tuple", len(s.Places), len(tup.Elems)))
	}
	d.rewrites++
	out := make([]ast.Statement, len(s.Places))
	for i, place := range s.Places {
		elem := tup.Elems[i]
		out[i] = d.b.define(s.Span(), place, nil, elem)
		if t := d.ctx.Types.TypeOf(elem); t != nil {
			d.ctx.Types.Set(place.ID(), t)
		}
	}
	return out
}

// splitCall turns a single-place binding of a tuple-returning call into
// a multi-place binding over fresh component names, recording the
// synthesized tuple as the alias of the original name.
func (d *destructurer) splitCall(s *ast.Define, call *ast.Call) []ast.Statement {
	t := d.typeOf(s)
	tup, ok := t.(ast.Tuple)
	if !ok {
		panic(semantic.Defectf("call bound to %q is not tuple-typed", s.Places[0].Name))
	}
	d.rewrites++

	places := make([]*ast.Binding, len(tup.Elems))
	refs := make([]ast.Expression, len(tup.Elems))
	for i, elemType := range tup.Elems {
		name := d.ctx.FreshName(string(s.Places[0].Name))
		places[i] = d.b.binding(s.Places[0].Span(), name, elemType)
		refs[i] = d.b.localRef(s.Places[0].Span(), name, elemType)
	}

	synth := &ast.TupleExpr{
		BaseExpr: ast.MakeBaseExpr(d.ctx.NewID(), s.Span()),
		Elems:    refs,
	}
	d.b.typed(synth, tup)
	d.alias(s.Places[0].Name, synth)

	return []ast.Statement{d.b.defineMulti(s.Span(), places, nil, call)}
}

// resolveAlias rewrites a returned tuple-typed name into the literal
// tuple it aliases, so later passes never chase aliases themselves.
func (d *destructurer) resolveAlias(e ast.Expression) ast.Expression {
	path, ok := e.(*ast.Path)
	if !ok || path.Target.Kind != ast.TargetLocal {
		return e
	}
	if tup, ok := d.aliases[path.Name]; ok {
		d.rewrites++
		return tup
	}
	return e
}

func (d *destructurer) alias(name ast.Symbol, tup *ast.TupleExpr) {
	d.aliases[name] = tup
	d.rewrites++
}

func (d *destructurer) isTupleTyped(s *ast.Define) bool {
	if len(s.Places) > 1 {
		return true
	}
	if ast.IsTuple(d.typeOf(s)) {
		return true
	}
	if path, ok := s.Value.(*ast.Path); ok {
		_, aliased := d.aliases[path.Name]
		return aliased
	}
	_, lit := s.Value.(*ast.TupleExpr)
	return lit
}

func (d *destructurer) typeOf(s *ast.Define) ast.Type {
	if s.Type != nil {
		return s.Type
	}
	return d.ctx.Types.TypeOf(s.Value)
}
