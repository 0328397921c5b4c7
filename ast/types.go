package ast

import (
	"fmt"
	"strings"
)

// Type is the interface for all resolved types. Two types are considered
// equal when their String forms are equal; every variant renders a
// canonical form, which is also what the type-directed synthesizers key
// their memo tables on.
type Type interface {
	typeNode() // marker method to prevent external implementations

	// String returns the canonical rendering of the type, matching the
	// target machine's type syntax where one exists.
	String() string
}

// IntKind enumerates the sized integer types.
type IntKind int

const (
	U8 IntKind = iota
	U16
	U32
	U64
	U128
	I8
	I16
	I32
	I64
	I128
)

// String returns the type suffix for the kind ("u32", "i64", ...).
func (k IntKind) String() string {
	switch k {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case U128:
		return "u128"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case I128:
		return "i128"
	default:
		return "int?"
	}
}

// Boolean is the bool type.
type Boolean struct{}

// Integer is a sized integer type.
type Integer struct {
	Kind IntKind
}

// Field is the native field element type of the target machine.
type Field struct{}

// Group is the group element type.
type Group struct{}

// Scalar is the scalar element type.
type Scalar struct{}

// Address is an account address.
type Address struct{}

// Signature is a signature value.
type Signature struct{}

// Array is a fixed-length homogeneous array.
type Array struct {
	Elem Type
	Len  int
}

// Tuple is an ordered heterogeneous aggregate. Tuples have no native
// representation in the target instruction set; the destructurer
// eliminates all tuple-typed intermediate bindings.
type Tuple struct {
	Elems []Type
}

// Optional is the source-level optional type. Option lowering rewrites
// every occurrence into a concrete {is_some, val} struct.
type Optional struct {
	Inner Type
}

// Vector is an unbounded-length vector, legal only as a storage variable
// type. Storage lowering encodes it as two mappings.
type Vector struct {
	Elem Type
}

// Mapping is the persistent key/value store primitive, owned by a program.
type Mapping struct {
	Program Symbol
	Key     Type
	Value   Type
}

// Composite is a reference to a struct or record by name. The path
// resolver fills Target exactly once.
type Composite struct {
	Program Symbol // explicit qualifier, empty if unqualified
	Name    Symbol
	Target  *Location // nil until resolved
}

// Future is the deferred on-chain effect produced by an async call,
// identified by the program and function it settles.
type Future struct {
	Program  Symbol
	Function Symbol
}

// UnitType is the type of functions with no outputs and of the unit
// expression.
type UnitType struct{}

func (Boolean) typeNode()   {}
func (Integer) typeNode()   {}
func (Field) typeNode()     {}
func (Group) typeNode()     {}
func (Scalar) typeNode()    {}
func (Address) typeNode()   {}
func (Signature) typeNode() {}
func (Array) typeNode()     {}
func (Tuple) typeNode()     {}
func (Optional) typeNode()  {}
func (Vector) typeNode()    {}
func (Mapping) typeNode()   {}
func (Composite) typeNode() {}
func (Future) typeNode()    {}
func (UnitType) typeNode()  {}

func (Boolean) String() string   { return "bool" }
func (t Integer) String() string { return t.Kind.String() }
func (Field) String() string     { return "field" }
func (Group) String() string     { return "group" }
func (Scalar) String() string    { return "scalar" }
func (Address) String() string   { return "address" }
func (Signature) String() string { return "signature" }

func (t Array) String() string {
	return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t Optional) String() string {
	return fmt.Sprintf("optional<%s>", t.Inner)
}

func (t Vector) String() string {
	return fmt.Sprintf("vector<%s>", t.Elem)
}

func (t Mapping) String() string {
	return fmt.Sprintf("mapping<%s, %s>", t.Key, t.Value)
}

func (t Composite) String() string {
	if t.Target != nil {
		return t.Target.String()
	}
	if t.Program != "" {
		return string(t.Program) + "/" + string(t.Name)
	}
	return string(t.Name)
}

func (t Future) String() string {
	return fmt.Sprintf("%s/%s.future", t.Program, t.Function)
}

func (UnitType) String() string { return "()" }

// TypesEqual reports whether a and b are the same type. Both sides must
// be non-nil.
func TypesEqual(a, b Type) bool {
	return a.String() == b.String()
}

// IsTuple reports whether t is a tuple type.
func IsTuple(t Type) bool {
	_, ok := t.(Tuple)
	return ok
}

// Ensure all type variants implement Type.
var (
	_ Type = Boolean{}
	_ Type = Integer{}
	_ Type = Field{}
	_ Type = Group{}
	_ Type = Scalar{}
	_ Type = Address{}
	_ Type = Signature{}
	_ Type = Array{}
	_ Type = Tuple{}
	_ Type = Optional{}
	_ Type = Vector{}
	_ Type = Mapping{}
	_ Type = Composite{}
	_ Type = Future{}
	_ Type = UnitType{}
)
