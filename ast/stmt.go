package ast

// -----------------------------------------------------------------------------
// Bindings and flow
// -----------------------------------------------------------------------------

// Define represents a let or const binding. Multiple places destructure a
// tuple-typed value; after the destructurer has run, multi-place defines
// are only ever paired with calls or flagged operators.
type Define struct {
	BaseStmt
	Places []*Binding
	Type   Type // declared type, nil if inferred
	Value  Expression
	Const  bool
}

// Assign represents reassignment of an existing variable or storage
// location. Assignments must not survive into code generation (the
// program is SSA-shaped by then).
type Assign struct {
	BaseStmt
	Target Expression // Path, Index, or Member
	Value  Expression
}

// Return represents a return statement. Value is nil for unit returns
// and a TupleExpr when the function returns multiple values.
type Return struct {
	BaseStmt
	Value Expression
}

// -----------------------------------------------------------------------------
// Structure
// -----------------------------------------------------------------------------

// Block represents a sequence of statements in its own lexical scope.
type Block struct {
	BaseStmt
	Stmts []Statement
}

// Conditional represents an if/otherwise statement. Conditionals are
// legal in code generation only inside finalize bodies; plain function
// bodies must have been flattened by earlier phases.
type Conditional struct {
	BaseStmt
	Cond      Expression
	Then      *Block
	Otherwise *Block // nil if absent
}

// Iteration represents a bounded for loop over [Start, Stop). The index
// binding is scoped to the body. Loops are unrolled by an earlier,
// out-of-pipeline phase and must not reach code generation.
type Iteration struct {
	BaseStmt
	Index     *Binding
	IndexType Type
	Start     Expression
	Stop      Expression
	Body      *Block
}

// -----------------------------------------------------------------------------
// Other statements
// -----------------------------------------------------------------------------

// AssertKind selects the assertion flavor.
type AssertKind int

const (
	AssertTrue AssertKind = iota // assert(expr)
	AssertEq                     // assert_eq(a, b)
	AssertNeq                    // assert_neq(a, b)
)

// Mnemonic returns the instruction mnemonic for the assertion.
func (k AssertKind) Mnemonic() string {
	switch k {
	case AssertTrue:
		return "assert"
	case AssertEq:
		return "assert.eq"
	case AssertNeq:
		return "assert.neq"
	default:
		return "?"
	}
}

// Assert represents an assertion statement. Right is nil for AssertTrue.
type Assert struct {
	BaseStmt
	Kind  AssertKind
	Left  Expression
	Right Expression
}

// ExprStmt represents an expression evaluated for its effect, such as a
// mapping set or a vector push.
type ExprStmt struct {
	BaseStmt
	Expr Expression
}

// -----------------------------------------------------------------------------
// Compile-time checks
// -----------------------------------------------------------------------------

// Ensure all statement types implement Statement.
var (
	_ Statement = (*Define)(nil)
	_ Statement = (*Assign)(nil)
	_ Statement = (*Return)(nil)
	_ Statement = (*Block)(nil)
	_ Statement = (*Conditional)(nil)
	_ Statement = (*Iteration)(nil)
	_ Statement = (*Assert)(nil)
	_ Statement = (*ExprStmt)(nil)
)
