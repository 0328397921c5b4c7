package lumen

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/lumenlang/lumen/ast"
	"github.com/lumenlang/lumen/internal/codegen"
	"github.com/lumenlang/lumen/internal/lower"
	"github.com/lumenlang/lumen/internal/semantic"
)

// Version is the lumen pipeline version string.
const Version = "0.1.0"

// Lower runs the full pipeline over a resolved, type-checked program
// tree and returns the emitted artifact. The tree is rewritten in place
// and must not be reused afterwards; adjacent tooling that needs the
// pre-lowering tree (the ABI generator, the interpreter) must take its
// read before calling Lower.
//
// config may be nil for defaults. User-level problems are returned as a
// [*CompileError]; internal invariant violations panic.
func Lower(prog *ast.Program, config *Config) (*Artifact, error) {
	if config == nil {
		config = &Config{}
	}
	cfg := *config
	cfg.applyDefaults()

	fp := FingerprintOf(prog)
	ctx := semantic.NewContext(cfg.Log)
	seedIDs(ctx, prog)

	// Symbol binding. Every user-facing diagnostic the pipeline can
	// produce surfaces in these two passes; the rewrites after them only
	// fail on internal defects.
	semantic.CollectGlobals(ctx, prog)
	semantic.ResolvePaths(ctx, prog)
	if len(*ctx.Diags) > 0 {
		return nil, compileError(*ctx.Diags)
	}

	// Tree rewrites. Storage lowering runs after option lowering and
	// shares its struct registry: storage reads materialize the
	// already-lowered {is_some, val} encodings.
	lower.Destructure(ctx, prog)
	opts := lower.LowerOptions(ctx, prog)
	lower.LowerStorage(ctx, prog, opts)
	lower.EliminateCommonSubexpressions(ctx, prog)
	lower.InsertFlags(ctx, prog)

	artifact := &Artifact{Fingerprint: fp}
	for _, scope := range prog.Scopes {
		if scope.IsStub {
			continue
		}
		artifact.Units = append(artifact.Units, Unit{
			Program: scope.Name,
			Text:    codegen.Generate(ctx, scope),
		})
	}
	return artifact, nil
}

// seedIDs advances the context's id generator past every id in the
// input tree, so nodes synthesized by the passes never collide with
// nodes minted by the frontend's generator.
func seedIDs(ctx *semantic.Context, prog *ast.Program) {
	visit := func(n ast.Node) bool {
		ctx.IDs.Seed(n.ID())
		return true
	}
	var walkModule func(*ast.Module)
	walkModule = func(mod *ast.Module) {
		for _, c := range mod.Consts {
			if c.Value != nil {
				ast.Walk(c.Value, visit)
			}
		}
		for _, fn := range mod.Functions {
			ast.WalkFunction(fn, visit)
		}
		for _, sub := range mod.Modules {
			walkModule(sub)
		}
	}
	for _, scope := range prog.Scopes {
		for _, c := range scope.Consts {
			if c.Value != nil {
				ast.Walk(c.Value, visit)
			}
		}
		for _, fn := range scope.Functions {
			ast.WalkFunction(fn, visit)
		}
		for _, mod := range scope.Modules {
			walkModule(mod)
		}
	}
}

// Workspace caches emitted artifacts across repeated lowers, keyed by
// input-tree fingerprint. Tooling that re-lowers an unchanged tree
// (interpreter, ABI reader, editor integrations) pays the pipeline cost
// once.
type Workspace struct {
	cfg   Config
	cache *simplelru.LRU[Fingerprint, *Artifact]
}

// NewWorkspace creates a workspace. config may be nil for defaults.
func NewWorkspace(config *Config) (*Workspace, error) {
	if config == nil {
		config = &Config{}
	}
	cfg := *config
	cfg.applyDefaults()

	cache, err := simplelru.NewLRU[Fingerprint, *Artifact](cfg.CacheSize, nil)
	if err != nil {
		return nil, err
	}
	return &Workspace{cfg: cfg, cache: cache}, nil
}

// Lower returns the artifact for prog, reusing a cached one when a tree
// with the same fingerprint was lowered before. On a cache miss the
// tree is consumed exactly as by [Lower].
func (w *Workspace) Lower(prog *ast.Program) (*Artifact, error) {
	fp := FingerprintOf(prog)
	if artifact, ok := w.cache.Get(fp); ok {
		return artifact, nil
	}
	artifact, err := Lower(prog, &w.cfg)
	if err != nil {
		return nil, err
	}
	w.cache.Add(fp, artifact)
	return artifact, nil
}

// Purge drops every cached artifact.
func (w *Workspace) Purge() {
	w.cache.Purge()
}
