package ast

import "github.com/lumenlang/lumen/span"

// Program is a whole compilation unit: the main program scope plus the
// stub scopes of every imported program.
type Program struct {
	Scopes []*ProgramScope
}

// Scope returns the program scope with the given name.
func (p *Program) Scope(name Symbol) (*ProgramScope, bool) {
	for _, s := range p.Scopes {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ProgramScope holds the top-level items of one program. A stub scope
// declares the signatures of an imported program: its functions carry no
// bodies and are never code-generated.
type ProgramScope struct {
	Name      Symbol
	IsStub    bool
	Sp        span.Span
	Consts    []*ConstDecl
	Structs   []*StructDecl
	Mappings  []*MappingDecl
	Storage   []*StorageDecl
	Functions []*FunctionDecl
	Modules   []*Module
}

// Module is a nested namespace inside a program scope. Items in a module
// are addressed by module-qualified locations.
type Module struct {
	Name      Symbol
	Sp        span.Span
	Consts    []*ConstDecl
	Structs   []*StructDecl
	Functions []*FunctionDecl
	Modules   []*Module
}

// StructField is one member of a struct or record declaration.
type StructField struct {
	Name Symbol
	Type Type
}

// StructDecl declares a struct or record type.
type StructDecl struct {
	Name     Symbol
	IsRecord bool
	Fields   []StructField
	Sp       span.Span
}

// Field returns the declared member with the given name.
func (d *StructDecl) Field(name Symbol) (StructField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructField{}, false
}

// MappingDecl declares a persistent key/value mapping.
type MappingDecl struct {
	Name  Symbol
	Key   Type
	Value Type
	Sp    span.Span
}

// StorageDecl declares a persistent storage variable. Scalar-typed and
// vector-typed storage are both rewritten onto backing mappings by
// storage lowering; a mapping-typed storage declaration passes through
// as a plain mapping.
type StorageDecl struct {
	Name Symbol
	Type Type
	Sp   span.Span
}

// ConstDecl declares a program-level constant.
type ConstDecl struct {
	Name  Symbol
	Type  Type
	Value Expression
	Sp    span.Span
}

// Variant categorizes a callable.
type Variant int

const (
	// VariantFunction is a plain helper, emitted as a closure block.
	VariantFunction Variant = iota
	// VariantTransition is an externally callable function.
	VariantTransition
	// VariantAsyncTransition is a transition with an on-chain companion.
	VariantAsyncTransition
	// VariantFinalize is the on-chain, state-mutating companion of an
	// async transition. The only variant whose body may still contain
	// conditionals at code generation.
	VariantFinalize
)

// String returns the block keyword the code generator emits.
func (v Variant) String() string {
	switch v {
	case VariantFunction:
		return "closure"
	case VariantTransition, VariantAsyncTransition:
		return "function"
	case VariantFinalize:
		return "finalize"
	default:
		return "?"
	}
}

// IsTransition reports whether the variant is externally callable.
func (v Variant) IsTransition() bool {
	return v == VariantTransition || v == VariantAsyncTransition
}

// Mode is the visibility of a function input or output.
type Mode int

const (
	ModeNone Mode = iota // unspecified
	ModePrivate
	ModePublic
	ModeConstant
)

// Suffix returns the ".visibility" suffix for input/output declarations,
// or the empty string for ModeNone.
func (m Mode) Suffix() string {
	switch m {
	case ModePrivate:
		return ".private"
	case ModePublic:
		return ".public"
	case ModeConstant:
		return ".constant"
	default:
		return ""
	}
}

// Param is one function input.
type Param struct {
	Binding *Binding
	Type    Type
	Mode    Mode
}

// Output is one declared function output.
type Output struct {
	Type Type
	Mode Mode
}

// FunctionDecl declares a callable. Body is nil for stub functions.
type FunctionDecl struct {
	Variant Variant
	Name    Symbol
	Params  []*Param
	Outputs []*Output
	Body    *Block
	Sp      span.Span
}
