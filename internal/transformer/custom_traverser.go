package transformer

import (
	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/runstack/obfuscator/internal/astutil"
	"github.com/runstack/obfuscator/internal/logging"
)

// NodeVisitor is an interface for visitors driven by a Traverser.
type NodeVisitor interface {
	// EnterNode is called before the children of n. Returning false skips
	// them.
	EnterNode(n ast.Vertex) bool
	// LeaveNode is called after the children of n, also when they were
	// skipped.
	LeaveNode(n ast.Vertex)
}

// Traverser walks a tree depth-first in source order, calling EnterNode and
// LeaveNode on every node. Unlike the php-parser traverser, which dispatches
// to one visitor method per node type, it reaches every node through the same
// two hooks.
type Traverser struct {
	visitor NodeVisitor
}

// NewTraverser creates a new traverser for v.
func NewTraverser(v NodeVisitor) *Traverser {
	return &Traverser{visitor: v}
}

// Traverse starts traversal of the AST at node.
func (t *Traverser) Traverse(node ast.Vertex) {
	if node == nil {
		return
	}
	if t.visitor.EnterNode(node) {
		for _, child := range astutil.Children(node) {
			t.Traverse(child)
		}
	} else {
		logging.V(logging.LevelPass + 1).Infof("traverser: skipping children of %T", node)
	}
	t.visitor.LeaveNode(node)
}
