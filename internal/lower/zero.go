package lower

import (
	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/semantic"
	"github.com/lumenlang/lumen/span"
)

// structLookup resolves a composite location to its declaration. Option
// lowering supplies one that consults its own synthesized structs before
// the global table, since lowering rewrites existing definitions and
// invents new ones in the same pass.
type structLookup func(loc ast.Location) (*ast.StructDecl, bool)

// tableLookup is the default structLookup, backed by the global symbol
// table alone.
func tableLookup(ctx *semantic.Context) structLookup {
	return func(loc ast.Location) (*ast.StructDecl, bool) {
		sym, ok := ctx.Table.Global(loc)
		if !ok || sym.Struct == nil {
			return nil, false
		}
		return sym.Struct, true
	}
}

// zeroValue synthesizes the type-directed zero value of t: literal
// 0/false for scalars, a repeat expression for arrays, recursively
// zero-initialized members for composites. The result is structurally
// identical on every call for the same t, which both storage lowering
// and option lowering rely on.
//
// Types with no meaningful zero (addresses, futures, mappings, vectors)
// indicate a bug in an earlier pass and are fatal.
func zeroValue(b builder, sp span.Span, t ast.Type, structs structLookup) ast.Expression {
	switch tt := t.(type) {
	case ast.Boolean:
		return b.boolLit(sp, false)

	case ast.Integer:
		return b.intLit(sp, "0", tt.Kind)

	case ast.Field:
		return zeroLit(b, sp, ast.LitField, "0field", tt)

	case ast.Group:
		return zeroLit(b, sp, ast.LitGroup, "0group", tt)

	case ast.Scalar:
		return zeroLit(b, sp, ast.LitScalar, "0scalar", tt)

	case ast.Array:
		rep := &ast.Repeat{
			BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
			Value:    zeroValue(b, sp, tt.Elem, structs),
			Count:    tt.Len,
		}
		b.typed(rep, tt)
		return rep

	case ast.Tuple:
		elems := make([]ast.Expression, len(tt.Elems))
		for i, el := range tt.Elems {
			elems[i] = zeroValue(b, sp, el, structs)
		}
		tup := &ast.TupleExpr{
			BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
			Elems:    elems,
		}
		b.typed(tup, tt)
		return tup

	case ast.Composite:
		if tt.Target == nil {
			panic(semantic.Defectf("zero value of unresolved composite %q", tt.Name))
		}
		decl, ok := structs(*tt.Target)
		if !ok {
			panic(semantic.Defectf("zero value of unknown composite %s", tt.Target))
		}
		fields := make([]ast.FieldInit, len(decl.Fields))
		for i, f := range decl.Fields {
			fields[i] = ast.FieldInit{
				Name:  f.Name,
				Value: zeroValue(b, sp, f.Type, structs),
			}
		}
		init := &ast.StructInit{
			BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
			Name:     b.globalRef(sp, *tt.Target, nil),
			Fields:   fields,
		}
		b.typed(init, tt)
		return init

	default:
		panic(semantic.Defectf("no zero value for type %s", t))
	}
}

func zeroLit(b builder, sp span.Span, kind ast.LitKind, text string, t ast.Type) *ast.Literal {
	lit := &ast.Literal{
		BaseExpr: ast.MakeBaseExpr(b.ctx.NewID(), sp),
		Kind:     kind,
		Text:     text,
	}
	b.typed(lit, t)
	return lit
}
