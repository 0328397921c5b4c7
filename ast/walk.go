package ast

// Walk traverses an expression or statement tree in depth-first order.
// For each node, it calls fn(node). If fn returns false, the children of
// that node are not visited.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	// Expressions - atoms (no children)
	case *Literal, *Path, *OptionNone, *Unit:
		// no children

	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *Unary:
		Walk(n.Operand, fn)

	case *Ternary:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Otherwise, fn)

	case *Cast:
		Walk(n.Value, fn)

	case *TupleExpr:
		for _, e := range n.Elems {
			Walk(e, fn)
		}

	case *ArrayLit:
		for _, e := range n.Elems {
			Walk(e, fn)
		}

	case *Repeat:
		Walk(n.Value, fn)

	case *Index:
		Walk(n.Array, fn)
		Walk(n.Key, fn)

	case *Member:
		Walk(n.Target, fn)

	case *StructInit:
		Walk(n.Name, fn)
		for _, f := range n.Fields {
			Walk(f.Value, fn)
		}

	case *Call:
		Walk(n.Callee, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}

	case *MappingOp:
		Walk(n.Mapping, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}

	case *VectorOp:
		Walk(n.Vector, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}

	case *OptionSome:
		Walk(n.Value, fn)

	// Statements
	case *Define:
		for _, p := range n.Places {
			Walk(p, fn)
		}
		Walk(n.Value, fn)

	case *Assign:
		Walk(n.Target, fn)
		Walk(n.Value, fn)

	case *Return:
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *Block:
		for _, s := range n.Stmts {
			Walk(s, fn)
		}

	case *Conditional:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		if n.Otherwise != nil {
			Walk(n.Otherwise, fn)
		}

	case *Iteration:
		Walk(n.Index, fn)
		Walk(n.Start, fn)
		Walk(n.Stop, fn)
		Walk(n.Body, fn)

	case *Assert:
		Walk(n.Left, fn)
		if n.Right != nil {
			Walk(n.Right, fn)
		}

	case *ExprStmt:
		Walk(n.Expr, fn)

	case *Binding:
		// no children
	}
}

// WalkFunction traverses every node of a function body.
func WalkFunction(fn *FunctionDecl, visit func(Node) bool) {
	for _, p := range fn.Params {
		Walk(p.Binding, visit)
	}
	if fn.Body != nil {
		Walk(fn.Body, visit)
	}
}
