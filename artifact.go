package lumen

import (
	"encoding/hex"

	"lukechampine.com/blake3"

	"github.com/lumenlang/lumen/ast"
)

// Unit is the emitted assembly text of one program scope.
type Unit struct {
	Program ast.Symbol // program name, as written in the artifact header
	Text    string     // complete instruction text of the program
}

// Artifact is the output of one pipeline run: the emitted units plus
// the fingerprint of the tree they were lowered from.
type Artifact struct {
	Fingerprint Fingerprint
	Units       []Unit
}

// Unit returns the emitted text of the named program.
func (a *Artifact) Unit(program ast.Symbol) (Unit, bool) {
	for _, u := range a.Units {
		if u.Program == program {
			return u, true
		}
	}
	return Unit{}, false
}

// Fingerprint identifies the content of a program tree. Trees whose
// canonical printed forms are identical share a fingerprint.
type Fingerprint [32]byte

// String returns the fingerprint in hexadecimal.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// FingerprintOf computes the fingerprint of a program tree: a blake3
// hash over its canonical printed rendering. Must be taken before
// lowering, which rewrites the tree in place.
func FingerprintOf(prog *ast.Program) Fingerprint {
	return Fingerprint(blake3.Sum256([]byte(ast.ProgramString(prog))))
}
