package transformer

import (
	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/runstack/obfuscator/internal/astutil"
	"github.com/runstack/obfuscator/internal/config"
	"github.com/runstack/obfuscator/internal/logging"
	"github.com/runstack/obfuscator/internal/scrambler"
)

// VariableRenamer renames local variables inside function, method, closure
// and arrow function bodies. Code outside any function is left alone.
//
// Names come from a NameGenerator that is reset at the start of every
// Transform, so one original name gets the same token in every scope of a
// run. A VariableRenamer is not safe for concurrent use.
type VariableRenamer struct {
	cfg    config.LevelConfig
	policy *scrambler.PreservationPolicy
	names  *scrambler.NameGenerator
	scopes *ScopeTracker

	index   int                 // preorder index of the node being entered
	skip    map[ast.Vertex]bool // variable nodes that are not locals
	renamed int
}

// NewVariableRenamer builds a renaming pass. A nil policy falls back to the
// default reserved words.
func NewVariableRenamer(cfg config.LevelConfig, policy *scrambler.PreservationPolicy) *VariableRenamer {
	if policy == nil {
		policy = scrambler.NewPreservationPolicy(scrambler.DefaultReservedWords())
	}
	return &VariableRenamer{
		cfg:    cfg,
		policy: policy,
		names:  scrambler.NewNameGenerator(),
		scopes: NewScopeTracker(),
		skip:   make(map[ast.Vertex]bool),
	}
}

// Name implements Pass.
func (v *VariableRenamer) Name() string { return "rename-variables" }

// Transform renames variables in place and returns root.
func (v *VariableRenamer) Transform(root ast.Vertex) ast.Vertex {
	v.names.Reset()
	v.scopes.Reset()
	v.index = 0
	v.renamed = 0
	v.skip = make(map[ast.Vertex]bool)

	if root == nil {
		return nil
	}
	NewTraverser(v).Traverse(root)

	logging.V(logging.LevelPass).Infof("rename-variables: %d occurrences, %d distinct names", v.renamed, v.names.Len())
	return root
}

// Mappings returns the original -> generated table of the last Transform.
func (v *VariableRenamer) Mappings() map[string]string {
	return v.names.Mappings()
}

// Renamed returns how many variable occurrences the last Transform rewrote.
func (v *VariableRenamer) Renamed() int {
	return v.renamed
}

// EnterNode opens scopes and rewrites variable references.
func (v *VariableRenamer) EnterNode(n ast.Vertex) bool {
	v.index++

	switch node := n.(type) {
	case *ast.StmtFunction, *ast.StmtClassMethod, *ast.ExprClosure, *ast.ExprArrowFunction:
		v.scopes.Enter(n, v.index)

	case *ast.ExprClosureUse:
		v.captureUse(node)

	case *ast.StmtGlobal:
		for _, g := range node.Vars {
			v.pin(g)
		}

	case *ast.Parameter:
		// Promoted constructor parameters also name a property.
		if len(node.Modifiers) > 0 {
			v.pin(node.Var)
		}

	case *ast.ExprStaticPropertyFetch:
		v.skip[node.Prop] = true

	case *ast.StmtProperty:
		v.skip[node.Var] = true

	case *ast.ScalarEncapsedStringVar:
		if name, ok := astutil.IdentifierName(node.Name); ok {
			if renamed := v.rename(name); renamed != name {
				astutil.SetIdentifierName(node.Name, renamed)
				v.renamed++
			}
		}

	case *ast.ExprVariable:
		if v.skip[n] {
			return true
		}
		name, ok := astutil.VariableName(node)
		if !ok {
			return true
		}
		if renamed := v.rename(name); renamed != name {
			astutil.SetVariableName(node, renamed)
			v.renamed++
			logging.V(logging.LevelPass+1).Infof("rename $%s -> $%s (scope %d)", name, renamed, v.scopes.Current().ID)
		}
	}
	return true
}

// LeaveNode closes the scope opened by n.
func (v *VariableRenamer) LeaveNode(n ast.Vertex) {
	if v.scopes.IsScopeOpening(n) {
		v.scopes.Leave(n)
	}
}

// rename resolves original in the innermost scope.
func (v *VariableRenamer) rename(original string) string {
	if v.policy.ShouldPreserve(original, v.cfg) {
		return original
	}
	return v.renameAt(v.scopes.Depth()-1, original)
}

// renameAt resolves original in the scope at depth, allocating on first use.
// Free variables of arrow functions resolve in the enclosing scope. Below
// depth 0 is top-level code, which is never renamed.
func (v *VariableRenamer) renameAt(depth int, original string) string {
	scope := v.scopes.At(depth)
	if scope == nil {
		return original
	}
	if name, ok := scope.Lookup(original); ok {
		return name
	}

	var name string
	if scope.InheritsEnclosing() && !scope.IsParam(original) {
		name = v.renameAt(depth-1, original)
	} else {
		name = v.names.Generate(original)
	}
	scope.Bind(original, name)
	return name
}

// captureUse binds a closure's use() variable to whatever the name resolves
// to in the enclosing scope, so the closure body and the capture agree.
func (v *VariableRenamer) captureUse(use *ast.ExprClosureUse) {
	name, ok := astutil.VariableName(use.Var)
	if !ok || v.policy.ShouldPreserve(name, v.cfg) {
		return
	}
	closure := v.scopes.Current()
	if closure == nil {
		return
	}
	closure.Bind(name, v.renameAt(v.scopes.Depth()-2, name))
}

// pin binds a variable to itself in the current scope so it keeps its name.
func (v *VariableRenamer) pin(n ast.Vertex) {
	name, ok := astutil.VariableName(n)
	if !ok {
		return
	}
	if scope := v.scopes.Current(); scope != nil {
		scope.Bind(name, name)
	}
}
