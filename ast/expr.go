package ast

// -----------------------------------------------------------------------------
// Atoms
// -----------------------------------------------------------------------------

// LitKind categorizes literal values.
type LitKind int

const (
	LitBoolean LitKind = iota
	LitInteger
	LitField
	LitGroup
	LitScalar
	LitAddress
	LitString
)

// Literal represents a literal value. Text is the full source rendering
// including any type suffix ("42u32", "true", "0field"), which is also
// the operand form the code generator emits.
type Literal struct {
	BaseExpr
	Kind LitKind
	Text string
}

// TargetKind is the resolution state of a Path.
type TargetKind int

const (
	// TargetUnresolved is the state every path is created in by the parser.
	TargetUnresolved TargetKind = iota
	// TargetLocal binds the path to a lexical-scope variable.
	TargetLocal
	// TargetGlobal binds the path to a top-level item's location.
	TargetGlobal
)

// Target records what a Path resolved to. The path resolver transitions
// it exactly once, from unresolved to local or global; later passes that
// need to redirect a path construct a new Path instead of mutating the
// target again.
type Target struct {
	Kind   TargetKind
	Local  Symbol   // valid when Kind == TargetLocal
	Global Location // valid when Kind == TargetGlobal
}

// Path represents a name reference: an optional explicit program
// qualifier, qualifying module segments, and a final identifier.
// Examples: x, math/util/clamp, token_program/mint
type Path struct {
	BaseExpr
	Program  Symbol   // explicit program qualifier, empty if none
	Segments []Symbol // qualifying module segments, may be empty
	Name     Symbol   // final identifier
	Target   Target
}

// IsResolved reports whether the path has been bound by the resolver.
func (p *Path) IsResolved() bool {
	return p.Target.Kind != TargetUnresolved
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpDivFlagged // flagged counterpart of OpDiv: returns (value, ok)
	OpMod
	OpPow
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpXor
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpShl
	OpShr
)

// Mnemonic returns the target machine's instruction mnemonic for the
// operator.
func (op BinaryOp) Mnemonic() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpDivFlagged:
		return "div.flagged"
	case OpMod:
		return "mod"
	case OpPow:
		return "pow"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpBitAnd:
		return "and"
	case OpBitOr:
		return "or"
	case OpXor:
		return "xor"
	case OpEq:
		return "is.eq"
	case OpNeq:
		return "is.neq"
	case OpLt:
		return "lt"
	case OpLe:
		return "lte"
	case OpGt:
		return "gt"
	case OpGe:
		return "gte"
	case OpShl:
		return "shl"
	case OpShr:
		return "shr"
	default:
		return "?"
	}
}

// IsCommutative reports whether operand order does not affect the result.
// The common-subexpression eliminator canonically orders the operands of
// these operators before memoization.
func (op BinaryOp) IsCommutative() bool {
	switch op {
	case OpAdd, OpMul, OpBitAnd, OpBitOr, OpAnd, OpOr, OpEq, OpNeq:
		return true
	default:
		return false
	}
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpInv        // multiplicative inverse, partial
	OpInvFlagged // flagged counterpart of OpInv: returns (value, ok)
	OpAbs
	OpSquare
)

// Mnemonic returns the instruction mnemonic for the operator.
func (op UnaryOp) Mnemonic() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpNot:
		return "not"
	case OpInv:
		return "inv"
	case OpInvFlagged:
		return "inv.flagged"
	case OpAbs:
		return "abs"
	case OpSquare:
		return "square"
	default:
		return "?"
	}
}

// Binary represents a binary operation.
type Binary struct {
	BaseExpr
	Op    BinaryOp
	Left  Expression
	Right Expression
}

// Unary represents a unary operation.
type Unary struct {
	BaseExpr
	Op      UnaryOp
	Operand Expression
}

// Ternary represents a conditional expression: cond ? then : otherwise.
type Ternary struct {
	BaseExpr
	Cond      Expression
	Then      Expression
	Otherwise Expression
}

// Cast represents an explicit type conversion.
type Cast struct {
	BaseExpr
	Value Expression
	To    Type
}

// -----------------------------------------------------------------------------
// Aggregates and projections
// -----------------------------------------------------------------------------

// TupleExpr represents a tuple literal. Tuples never survive into code
// generation; the destructurer eliminates them.
type TupleExpr struct {
	BaseExpr
	Elems []Expression
}

// ArrayLit represents an array literal.
type ArrayLit struct {
	BaseExpr
	Elems []Expression
}

// Repeat represents an array built by repeating one element Count times.
// The zero-value synthesizer produces these for array types.
type Repeat struct {
	BaseExpr
	Value Expression
	Count int
}

// Index represents an array element access.
type Index struct {
	BaseExpr
	Array Expression
	Key   Expression
}

// Member represents a struct or record member access.
type Member struct {
	BaseExpr
	Target Expression
	Name   Symbol
}

// FieldInit is one member initializer of a StructInit.
type FieldInit struct {
	Name  Symbol
	Value Expression
}

// StructInit represents composite construction: Name { a: 1, b: x }.
type StructInit struct {
	BaseExpr
	Name   *Path
	Fields []FieldInit
}

// -----------------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------------

// Call represents a function call. The callee is a path that resolves to
// a function location; external calls carry the program qualifier.
type Call struct {
	BaseExpr
	Callee *Path
	Args   []Expression
}

// MapOp enumerates the mapping operations of the target machine.
type MapOp int

const (
	MapGet MapOp = iota
	MapGetOrUse
	MapSet
	MapContains
	MapRemove
)

// Mnemonic returns the instruction mnemonic for the operation.
func (op MapOp) Mnemonic() string {
	switch op {
	case MapGet:
		return "get"
	case MapGetOrUse:
		return "get.or_use"
	case MapSet:
		return "set"
	case MapContains:
		return "contains"
	case MapRemove:
		return "remove"
	default:
		return "?"
	}
}

// MappingOp represents a mapping operation. Args are, per operation:
// get/contains/remove: [key]; get.or_use: [key, default]; set: [key, value].
type MappingOp struct {
	BaseExpr
	Op      MapOp
	Mapping *Path
	Args    []Expression
}

// VecOp enumerates source-level operations on vector-backed storage.
// None of them exist in the target machine; storage lowering rewrites
// each into mapping operations over the vector's two backing mappings.
type VecOp int

const (
	VecGet VecOp = iota
	VecSet
	VecPush
	VecLen
)

// VectorOp represents a vector storage operation. Args are, per
// operation: get: [index]; set: [index, value]; push: [value]; len: [].
type VectorOp struct {
	BaseExpr
	Op     VecOp
	Vector *Path
	Args   []Expression
}

// -----------------------------------------------------------------------------
// Special expressions
// -----------------------------------------------------------------------------

// OptionSome wraps a value into the optional type.
type OptionSome struct {
	BaseExpr
	Value Expression
}

// OptionNone is the absent optional value. Of is the element type, which
// option lowering needs to synthesize the zero-valued payload.
type OptionNone struct {
	BaseExpr
	Of Type
}

// Unit is the unit expression, the value of an empty return.
type Unit struct {
	BaseExpr
}

// -----------------------------------------------------------------------------
// Compile-time checks
// -----------------------------------------------------------------------------

// Ensure all expression types implement Expression.
var (
	_ Expression = (*Literal)(nil)
	_ Expression = (*Path)(nil)
	_ Expression = (*Binary)(nil)
	_ Expression = (*Unary)(nil)
	_ Expression = (*Ternary)(nil)
	_ Expression = (*Cast)(nil)
	_ Expression = (*TupleExpr)(nil)
	_ Expression = (*ArrayLit)(nil)
	_ Expression = (*Repeat)(nil)
	_ Expression = (*Index)(nil)
	_ Expression = (*Member)(nil)
	_ Expression = (*StructInit)(nil)
	_ Expression = (*Call)(nil)
	_ Expression = (*MappingOp)(nil)
	_ Expression = (*VectorOp)(nil)
	_ Expression = (*OptionSome)(nil)
	_ Expression = (*OptionNone)(nil)
	_ Expression = (*Unit)(nil)
)
