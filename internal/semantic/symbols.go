package semantic

import (
	"sort"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/span"
)

// GlobalKind defines the category of a top-level item.
type GlobalKind int

const (
	KindFunction GlobalKind = iota
	KindStruct
	KindRecord
	KindMapping
	KindStorage
	KindConst
)

// String returns a human-readable name for the kind.
func (k GlobalKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindRecord:
		return "record"
	case KindMapping:
		return "mapping"
	case KindStorage:
		return "storage"
	case KindConst:
		return "const"
	default:
		return "unknown"
	}
}

// FuncSymbol holds resolved information about a callable.
type FuncSymbol struct {
	Variant ast.Variant
	Params  []*ast.Param
	Outputs []*ast.Output

	// FinalizeLoc is the location of the companion finalize function,
	// set for async transitions.
	FinalizeLoc *ast.Location
}

// OutputTuple returns the function's result type: the single output
// type, or a tuple over all outputs, or unit for none.
func (f *FuncSymbol) OutputTuple() ast.Type {
	switch len(f.Outputs) {
	case 0:
		return ast.UnitType{}
	case 1:
		return f.Outputs[0].Type
	default:
		elems := make([]ast.Type, len(f.Outputs))
		for i, out := range f.Outputs {
			elems[i] = out.Type
		}
		return ast.Tuple{Elems: elems}
	}
}

// GlobalSymbol holds information about one top-level item.
type GlobalSymbol struct {
	Kind GlobalKind
	Loc  ast.Location
	Span span.Span

	// Type carries the item's type where statically known: the const's
	// declared type, the mapping's mapping type, or the storage
	// variable's (optional-wrapped) value type.
	Type ast.Type

	// Func is set for functions.
	Func *FuncSymbol

	// Struct is the declaration for struct/record items, used for
	// member lookup by the zero-value synthesizer and code generator.
	Struct *ast.StructDecl

	// Const is the declaration for const items; the code generator
	// inlines its value as an operand.
	Const *ast.ConstDecl

	// FromStub marks items registered from an imported program's stub
	// scope. A composite type may be locally redefined at most once
	// over its stub registration.
	FromStub bool

	// Backing and Length are the backing-mapping locations a storage
	// variable was redirected to by storage lowering. Length is only
	// set for vector-backed storage.
	Backing *ast.Location
	Length  *ast.Location
}

// VarKind defines how a local variable was introduced.
type VarKind int

const (
	VarLet VarKind = iota
	VarConst
	VarInput
	VarIteration
)

// VarSymbol holds information about a lexical-scope binding.
type VarSymbol struct {
	Name ast.Symbol
	Kind VarKind
	Type ast.Type // nil if not statically known
	Span span.Span
}

// SymbolTable is the two-scope symbol table of one compilation: a global
// table keyed by location across the whole compilation, and a stack of
// local frames valid only inside the lexical scope currently being
// processed. A global lookup never queries local scope and vice versa;
// the split is enforced by construction through separate methods.
type SymbolTable struct {
	globals map[ast.Location]*GlobalSymbol
	frames  []map[ast.Symbol]*VarSymbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		globals: make(map[ast.Location]*GlobalSymbol),
	}
}

// DefineGlobal registers a top-level item. Returns false if the location
// is already taken.
func (st *SymbolTable) DefineGlobal(sym *GlobalSymbol) bool {
	if _, exists := st.globals[sym.Loc]; exists {
		return false
	}
	st.globals[sym.Loc] = sym
	return true
}

// ReplaceGlobal overwrites the item at sym.Loc. Used for the single
// permitted local redefinition of an externally-stubbed composite and
// for storage lowering's redirection bookkeeping.
func (st *SymbolTable) ReplaceGlobal(sym *GlobalSymbol) {
	st.globals[sym.Loc] = sym
}

// Global looks up a top-level item by location.
func (st *SymbolTable) Global(loc ast.Location) (*GlobalSymbol, bool) {
	sym, ok := st.globals[loc]
	return sym, ok
}

// Globals returns all registered locations in a deterministic order.
func (st *SymbolTable) Globals() []ast.Location {
	locs := make([]ast.Location, 0, len(st.globals))
	for loc := range st.globals {
		locs = append(locs, loc)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].Less(locs[j]) })
	return locs
}

// PushScope enters a new local frame.
func (st *SymbolTable) PushScope() {
	st.frames = append(st.frames, make(map[ast.Symbol]*VarSymbol))
}

// PopScope leaves the innermost local frame. Popping an empty stack is a
// defect.
func (st *SymbolTable) PopScope() {
	if len(st.frames) == 0 {
		panic(Defectf("popping an empty scope stack"))
	}
	st.frames = st.frames[:len(st.frames)-1]
}

// DefineVar inserts a binding into the innermost frame. A same-frame
// redefinition overwrites the previous binding and returns false.
// Inserting with no open frame is a defect.
func (st *SymbolTable) DefineVar(sym *VarSymbol) bool {
	if len(st.frames) == 0 {
		panic(Defectf("defining local %q with no open scope", sym.Name))
	}
	frame := st.frames[len(st.frames)-1]
	_, exists := frame[sym.Name]
	frame[sym.Name] = sym
	return !exists
}

// LookupVar searches the local frames from innermost to outermost.
func (st *SymbolTable) LookupVar(name ast.Symbol) (*VarSymbol, bool) {
	for i := len(st.frames) - 1; i >= 0; i-- {
		if sym, ok := st.frames[i][name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// ScopeDepth returns the number of open local frames.
func (st *SymbolTable) ScopeDepth() int {
	return len(st.frames)
}
