package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders a tree in a deterministic, source-like form. The
// output is suitable for debugging and is the input of the workspace's
// tree fingerprint, so it must be stable across runs for a structurally
// identical tree.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes a rendering of the node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

// PrintProgram writes a rendering of the whole compilation unit.
func (p *Printer) PrintProgram(prog *Program) error {
	for _, scope := range prog.Scopes {
		p.printScope(scope)
	}
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	for i := 0; i < p.indent; i++ {
		_, p.err = io.WriteString(p.w, "    ")
	}
}

func (p *Printer) printNode(node Node) {
	switch n := node.(type) {
	case Expression:
		p.printExpr(n)
	case Statement:
		p.printStmt(n)
	case *Binding:
		p.printf("%s", n.Name)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printScope(s *ProgramScope) {
	if s.IsStub {
		p.printf("stub %s {\n", s.Name)
	} else {
		p.printf("program %s {\n", s.Name)
	}
	p.indent++
	for _, c := range s.Consts {
		p.printConst(c)
	}
	for _, st := range s.Structs {
		p.printStruct(st)
	}
	for _, m := range s.Mappings {
		p.writeIndent()
		p.printf("mapping %s: %s => %s;\n", m.Name, m.Key, m.Value)
	}
	for _, v := range s.Storage {
		p.writeIndent()
		p.printf("storage %s: %s;\n", v.Name, v.Type)
	}
	for _, mod := range s.Modules {
		p.printModule(mod)
	}
	for _, f := range s.Functions {
		p.printFunction(f)
	}
	p.indent--
	p.printf("}\n")
}

func (p *Printer) printModule(m *Module) {
	p.writeIndent()
	p.printf("module %s {\n", m.Name)
	p.indent++
	for _, c := range m.Consts {
		p.printConst(c)
	}
	for _, st := range m.Structs {
		p.printStruct(st)
	}
	for _, mod := range m.Modules {
		p.printModule(mod)
	}
	for _, f := range m.Functions {
		p.printFunction(f)
	}
	p.indent--
	p.writeIndent()
	p.printf("}\n")
}

func (p *Printer) printConst(c *ConstDecl) {
	p.writeIndent()
	p.printf("const %s: %s = ", c.Name, c.Type)
	p.printExpr(c.Value)
	p.printf(";\n")
}

func (p *Printer) printStruct(s *StructDecl) {
	p.writeIndent()
	if s.IsRecord {
		p.printf("record %s {", s.Name)
	} else {
		p.printf("struct %s {", s.Name)
	}
	for i, f := range s.Fields {
		if i > 0 {
			p.printf(",")
		}
		p.printf(" %s: %s", f.Name, f.Type)
	}
	p.printf(" }\n")
}

func (p *Printer) printFunction(f *FunctionDecl) {
	p.writeIndent()
	switch f.Variant {
	case VariantFunction:
		p.printf("function")
	case VariantTransition:
		p.printf("transition")
	case VariantAsyncTransition:
		p.printf("async transition")
	case VariantFinalize:
		p.printf("finalize")
	}
	p.printf(" %s(", f.Name)
	for i, param := range f.Params {
		if i > 0 {
			p.printf(", ")
		}
		if param.Mode != ModeNone {
			p.printf("%s ", strings.TrimPrefix(param.Mode.Suffix(), "."))
		}
		p.printf("%s: %s", param.Binding.Name, param.Type)
	}
	p.printf(")")
	if len(f.Outputs) > 0 {
		p.printf(" -> ")
		for i, out := range f.Outputs {
			if i > 0 {
				p.printf(", ")
			}
			p.printf("%s%s", out.Type, out.Mode.Suffix())
		}
	}
	if f.Body == nil {
		p.printf(";\n")
		return
	}
	p.printf(" ")
	p.printStmt(f.Body)
	p.printf("\n")
}

func (p *Printer) printExpr(e Expression) {
	if e == nil {
		p.printf("<nil>")
		return
	}

	switch n := e.(type) {
	case *Literal:
		p.printf("%s", n.Text)

	case *Path:
		p.printPath(n)

	case *Binary:
		p.printf("(")
		p.printExpr(n.Left)
		p.printf(" %s ", n.Op.Mnemonic())
		p.printExpr(n.Right)
		p.printf(")")

	case *Unary:
		p.printf("%s(", n.Op.Mnemonic())
		p.printExpr(n.Operand)
		p.printf(")")

	case *Ternary:
		p.printExpr(n.Cond)
		p.printf(" ? ")
		p.printExpr(n.Then)
		p.printf(" : ")
		p.printExpr(n.Otherwise)

	case *Cast:
		p.printf("(")
		p.printExpr(n.Value)
		p.printf(" as %s)", n.To)

	case *TupleExpr:
		p.printf("(")
		p.printArgs(n.Elems)
		p.printf(")")

	case *ArrayLit:
		p.printf("[")
		p.printArgs(n.Elems)
		p.printf("]")

	case *Repeat:
		p.printf("[")
		p.printExpr(n.Value)
		p.printf("; %d]", n.Count)

	case *Index:
		p.printExpr(n.Array)
		p.printf("[")
		p.printExpr(n.Key)
		p.printf("]")

	case *Member:
		p.printExpr(n.Target)
		p.printf(".%s", n.Name)

	case *StructInit:
		p.printPath(n.Name)
		p.printf(" {")
		for i, f := range n.Fields {
			if i > 0 {
				p.printf(",")
			}
			p.printf(" %s: ", f.Name)
			p.printExpr(f.Value)
		}
		p.printf(" }")

	case *Call:
		p.printPath(n.Callee)
		p.printf("(")
		p.printArgs(n.Args)
		p.printf(")")

	case *MappingOp:
		p.printf("%s(", n.Op.Mnemonic())
		p.printPath(n.Mapping)
		for _, a := range n.Args {
			p.printf(", ")
			p.printExpr(a)
		}
		p.printf(")")

	case *VectorOp:
		p.printPath(n.Vector)
		switch n.Op {
		case VecGet:
			p.printf(".get(")
		case VecSet:
			p.printf(".set(")
		case VecPush:
			p.printf(".push(")
		case VecLen:
			p.printf(".len(")
		}
		p.printArgs(n.Args)
		p.printf(")")

	case *OptionSome:
		p.printf("some(")
		p.printExpr(n.Value)
		p.printf(")")

	case *OptionNone:
		p.printf("none<%s>", n.Of)

	case *Unit:
		p.printf("()")

	default:
		p.printf("<%T>", e)
	}
}

func (p *Printer) printPath(path *Path) {
	if path.Program != "" {
		p.printf("%s::", path.Program)
	}
	for _, seg := range path.Segments {
		p.printf("%s/", seg)
	}
	p.printf("%s", path.Name)
}

func (p *Printer) printArgs(args []Expression) {
	for i, arg := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(arg)
	}
}

func (p *Printer) printStmt(s Statement) {
	if s == nil {
		p.printf("<nil>")
		return
	}

	switch n := s.(type) {
	case *Define:
		if n.Const {
			p.printf("const ")
		} else {
			p.printf("let ")
		}
		if len(n.Places) == 1 {
			p.printf("%s", n.Places[0].Name)
		} else {
			p.printf("(")
			for i, place := range n.Places {
				if i > 0 {
					p.printf(", ")
				}
				p.printf("%s", place.Name)
			}
			p.printf(")")
		}
		if n.Type != nil {
			p.printf(": %s", n.Type)
		}
		p.printf(" = ")
		p.printExpr(n.Value)
		p.printf(";")

	case *Assign:
		p.printExpr(n.Target)
		p.printf(" = ")
		p.printExpr(n.Value)
		p.printf(";")

	case *Return:
		p.printf("return")
		if n.Value != nil {
			p.printf(" ")
			p.printExpr(n.Value)
		}
		p.printf(";")

	case *Block:
		p.printf("{\n")
		p.indent++
		for _, stmt := range n.Stmts {
			p.writeIndent()
			p.printStmt(stmt)
			p.printf("\n")
		}
		p.indent--
		p.writeIndent()
		p.printf("}")

	case *Conditional:
		p.printf("if ")
		p.printExpr(n.Cond)
		p.printf(" ")
		p.printStmt(n.Then)
		if n.Otherwise != nil {
			p.printf(" otherwise ")
			p.printStmt(n.Otherwise)
		}

	case *Iteration:
		p.printf("for %s: %s in ", n.Index.Name, n.IndexType)
		p.printExpr(n.Start)
		p.printf("..")
		p.printExpr(n.Stop)
		p.printf(" ")
		p.printStmt(n.Body)

	case *Assert:
		p.printf("%s(", n.Kind.Mnemonic())
		p.printExpr(n.Left)
		if n.Right != nil {
			p.printf(", ")
			p.printExpr(n.Right)
		}
		p.printf(");")

	case *ExprStmt:
		p.printExpr(n.Expr)
		p.printf(";")

	default:
		p.printf("<%T>", s)
	}
}

// String returns a string representation of the node.
func String(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.Print(node) //nolint:errcheck // strings.Builder cannot fail
	return sb.String()
}

// ProgramString returns a string representation of the compilation unit.
func ProgramString(prog *Program) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.PrintProgram(prog) //nolint:errcheck // strings.Builder cannot fail
	return sb.String()
}
