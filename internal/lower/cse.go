package lower

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
)

// EliminateCommonSubexpressions performs scoped value numbering over
// atomic expressions (literals, resolved names) and a restricted set of
// pure compound shapes. A definition whose right-hand side was already
// computed in an enclosing scope is dropped, and every later reference
// to its place is redirected to the first-computed binding.
//
// Calls, casts, member access, composite construction, and tuples are
// never memoized, but their atomic operands are still canonicalized.
// The pass is idempotent: re-running it finds nothing new to eliminate.
func EliminateCommonSubexpressions(ctx *semantic.Context, prog *ast.Program) {
	e := &eliminator{
		ctx:     ctx,
		b:       builder{ctx: ctx},
		aliases: make(map[ast.Symbol]cseBinding),
	}
	for _, scope := range prog.Scopes {
		if scope.IsStub {
			continue
		}
		eachFunction(scope, func(fn *ast.FunctionDecl) {
			if fn.Body == nil {
				return
			}
			clear(e.aliases)
			e.frames = e.frames[:0]
			e.inScope(func() {
				fn.Body.Stmts = e.rewriteStmts(fn.Body.Stmts)
			})
		})
	}
	ctx.Log.Debug("common-subexpression elimination complete",
		zap.Int("eliminated", e.eliminated))
}

// cseBinding is the name an expression key was first bound to, with the
// recorded type the replacement reference should carry.
type cseBinding struct {
	name ast.Symbol
	typ  ast.Type
}

type eliminator struct {
	ctx *semantic.Context
	b   builder

	// frames is one expression-key table per lexical nesting level;
	// lookup walks innermost to outermost.
	frames []map[string]cseBinding

	// aliases redirects the places of dropped definitions to their
	// surviving binding. Flat, like the destructurer's alias table.
	aliases map[ast.Symbol]cseBinding

	eliminated int
}

func (e *eliminator) inScope(fn func()) {
	e.frames = append(e.frames, make(map[string]cseBinding))
	defer func() { e.frames = e.frames[:len(e.frames)-1] }()
	fn()
}

func (e *eliminator) lookup(key string) (cseBinding, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if bind, ok := e.frames[i][key]; ok {
			return bind, true
		}
	}
	return cseBinding{}, false
}

func (e *eliminator) register(key string, bind cseBinding) {
	e.frames[len(e.frames)-1][key] = bind
}

func (e *eliminator) rewriteStmts(stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		if kept := e.rewriteStmt(stmt); kept != nil {
			out = append(out, kept)
		}
	}
	return out
}

// rewriteStmt canonicalizes a statement's expressions and returns nil
// when the statement is a definition made unnecessary by a prior
// binding.
func (e *eliminator) rewriteStmt(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.Define:
		s.Value = e.canon(s.Value)
		if len(s.Places) != 1 {
			// Multi-place definitions bind calls or flagged operators;
			// neither is pure, so they are never memoized.
			return s
		}
		key, ok := e.exprKey(s.Value)
		if !ok {
			return s
		}
		if prior, hit := e.lookup(key); hit {
			e.aliases[s.Places[0].Name] = prior
			e.eliminated++
			return nil
		}
		e.register(key, cseBinding{
			name: s.Places[0].Name,
			typ:  e.ctx.Types.TypeOf(s.Places[0]),
		})
		return s

	case *ast.Assign:
		s.Target = e.canon(s.Target)
		s.Value = e.canon(s.Value)
		return s

	case *ast.Return:
		s.Value = e.canon(s.Value)
		return s

	case *ast.Block:
		e.inScope(func() {
			s.Stmts = e.rewriteStmts(s.Stmts)
		})
		return s

	case *ast.Conditional:
		s.Cond = e.canon(s.Cond)
		e.inScope(func() {
			s.Then.Stmts = e.rewriteStmts(s.Then.Stmts)
		})
		if s.Otherwise != nil {
			e.inScope(func() {
				s.Otherwise.Stmts = e.rewriteStmts(s.Otherwise.Stmts)
			})
		}
		return s

	case *ast.Iteration:
		s.Start = e.canon(s.Start)
		s.Stop = e.canon(s.Stop)
		e.inScope(func() {
			s.Body.Stmts = e.rewriteStmts(s.Body.Stmts)
		})
		return s

	case *ast.Assert:
		s.Left = e.canon(s.Left)
		s.Right = e.canon(s.Right)
		return s

	case *ast.ExprStmt:
		// Bare expressions produce no reusable name, so they are
		// canonicalized but never registered.
		s.Expr = e.canon(s.Expr)
		return s

	default:
		return stmt
	}
}

// canon rewrites every atomic operand of e that maps to a prior binding
// into a reference to that binding, recursing structurally through the
// shapes that are themselves never memoized.
func (e *eliminator) canon(expr ast.Expression) ast.Expression {
	switch n := expr.(type) {
	case nil:
		return nil

	case *ast.Literal, *ast.Unit:
		return expr

	case *ast.Path:
		return e.canonPath(n)

	case *ast.Binary:
		n.Left = e.canon(n.Left)
		n.Right = e.canon(n.Right)
	case *ast.Unary:
		n.Operand = e.canon(n.Operand)
	case *ast.Ternary:
		n.Cond = e.canon(n.Cond)
		n.Then = e.canon(n.Then)
		n.Otherwise = e.canon(n.Otherwise)
	case *ast.Cast:
		n.Value = e.canon(n.Value)
	case *ast.TupleExpr:
		for i := range n.Elems {
			n.Elems[i] = e.canon(n.Elems[i])
		}
	case *ast.ArrayLit:
		for i := range n.Elems {
			n.Elems[i] = e.canon(n.Elems[i])
		}
	case *ast.Repeat:
		n.Value = e.canon(n.Value)
	case *ast.Index:
		n.Array = e.canon(n.Array)
		n.Key = e.canon(n.Key)
	case *ast.Member:
		n.Target = e.canon(n.Target)
	case *ast.StructInit:
		for i := range n.Fields {
			n.Fields[i].Value = e.canon(n.Fields[i].Value)
		}
	case *ast.Call:
		for i := range n.Args {
			n.Args[i] = e.canon(n.Args[i])
		}
	case *ast.MappingOp:
		for i := range n.Args {
			n.Args[i] = e.canon(n.Args[i])
		}
	case *ast.VectorOp:
		for i := range n.Args {
			n.Args[i] = e.canon(n.Args[i])
		}
	}
	return expr
}

// canonPath redirects a local reference that aliases a dropped
// definition, or whose atom key maps to a prior binding, to that
// binding. The replacement is a fresh node carrying the binding's
// recorded type.
func (e *eliminator) canonPath(p *ast.Path) ast.Expression {
	if p.Target.Kind == ast.TargetLocal {
		if bind, ok := e.aliases[p.Name]; ok {
			return e.b.localRef(p.Span(), bind.name, bind.typ)
		}
	}
	key, ok := e.atomKey(p)
	if !ok {
		return p
	}
	if bind, hit := e.lookup(key); hit && bind.name != p.Name {
		return e.b.localRef(p.Span(), bind.name, bind.typ)
	}
	return p
}

// atomKey encodes a literal or resolved path as a position- and
// identity-independent key. Unresolved paths are opaque.
func (e *eliminator) atomKey(expr ast.Expression) (string, bool) {
	switch n := expr.(type) {
	case *ast.Literal:
		return fmt.Sprintf("lit:%d:%s", n.Kind, n.Text), true
	case *ast.Path:
		switch n.Target.Kind {
		case ast.TargetLocal:
			return "var:" + string(n.Name), true
		case ast.TargetGlobal:
			return "loc:" + n.Target.Global.String(), true
		}
	}
	return "", false
}

// exprKey encodes a memoizable expression: an atom, or a pure compound
// shape whose operands all reduce to atoms. Commutative operands are
// canonically ordered so a+b and b+a share a key.
func (e *eliminator) exprKey(expr ast.Expression) (string, bool) {
	if key, ok := e.atomKey(expr); ok {
		return key, true
	}

	switch n := expr.(type) {
	case *ast.Binary:
		left, lok := e.atomKey(n.Left)
		right, rok := e.atomKey(n.Right)
		if !lok || !rok {
			return "", false
		}
		if n.Op.IsCommutative() && right < left {
			left, right = right, left
		}
		return fmt.Sprintf("bin:%d:%s:%s", n.Op, left, right), true

	case *ast.Unary:
		operand, ok := e.atomKey(n.Operand)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("un:%d:%s", n.Op, operand), true

	case *ast.Ternary:
		cond, cok := e.atomKey(n.Cond)
		then, tok := e.atomKey(n.Then)
		otherwise, ook := e.atomKey(n.Otherwise)
		if !cok || !tok || !ook {
			return "", false
		}
		return fmt.Sprintf("ter:%s:%s:%s", cond, then, otherwise), true

	case *ast.ArrayLit:
		parts := make([]string, len(n.Elems))
		for i, el := range n.Elems {
			key, ok := e.atomKey(el)
			if !ok {
				return "", false
			}
			parts[i] = key
		}
		return "arr:" + strings.Join(parts, ","), true

	case *ast.Repeat:
		value, ok := e.atomKey(n.Value)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("rep:%s:%d", value, n.Count), true

	case *ast.Index:
		array, aok := e.atomKey(n.Array)
		key, kok := e.atomKey(n.Key)
		if !aok || !kok {
			return "", false
		}
		return fmt.Sprintf("idx:%s:%s", array, key), true
	}

	return "", false
}
