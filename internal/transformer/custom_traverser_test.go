package transformer

import (
	"fmt"
	"testing"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack/obfuscator/internal/astutil"
)

// eventRecorder logs enter/leave events for functions and variables.
type eventRecorder struct {
	events []string
	depth  int
	skip   map[string]bool // function names whose bodies are skipped
}

func (r *eventRecorder) EnterNode(n ast.Vertex) bool {
	r.depth++
	switch node := n.(type) {
	case *ast.StmtFunction:
		name, _ := astutil.IdentifierName(node.Name)
		r.events = append(r.events, "enter "+name)
		return !r.skip[name]
	case *ast.ExprVariable:
		if name, ok := astutil.VariableName(node); ok {
			r.events = append(r.events, "$"+name)
		}
	}
	return true
}

func (r *eventRecorder) LeaveNode(n ast.Vertex) {
	r.depth--
	if fn, ok := n.(*ast.StmtFunction); ok {
		name, _ := astutil.IdentifierName(fn.Name)
		r.events = append(r.events, "leave "+name)
	}
}

func TestTraverserVisitsEveryNodeInOrder(t *testing.T) {
	root := parsePHP(t, `<?php
function outer($a) {
    $f = function ($b) use ($a) { return $a + $b; };
    return $f(1);
}
function second() { $c = "{$a}"; }
`)
	r := &eventRecorder{}
	NewTraverser(r).Traverse(root)

	assert.Equal(t, []string{
		"enter outer", "$a", "$f", "$b", "$a", "$a", "$b", "$f", "leave outer",
		"enter second", "$c", "$a", "leave second",
	}, r.events)
	assert.Zero(t, r.depth, "every EnterNode is matched by a LeaveNode")
}

func TestTraverserSkipsChildren(t *testing.T) {
	root := parsePHP(t, `<?php function hidden($x) { return $x; } function shown($y) { return $y; }`)
	r := &eventRecorder{skip: map[string]bool{"hidden": true}}
	NewTraverser(r).Traverse(root)

	assert.Equal(t, []string{
		"enter hidden", "leave hidden",
		"enter shown", "$y", "$y", "leave shown",
	}, r.events)
	assert.Zero(t, r.depth)
}

func TestTraverserNilRoot(t *testing.T) {
	r := &eventRecorder{}
	require.NotPanics(t, func() { NewTraverser(r).Traverse(nil) })
	assert.Empty(t, r.events)
}

func TestPassesReachNestedNodes(t *testing.T) {
	src := `<?php
class Box {
    /** doc */
    public function put($item) {
        // nested comment
        return array_map(fn($x) => $x . $item, [1]);
    }
}`
	stripper := NewCommentStripperVisitor()
	out := applyPass(t, stripper, src)
	assert.Equal(t, 2, stripper.Removed())
	assert.NotContains(t, out, "doc")
	assert.NotContains(t, out, "nested comment")

	renamer := NewVariableRenamer(levelTwo, nil)
	out = applyPass(t, renamer, src)
	assert.Equal(t, 4, renamer.Renamed(), fmt.Sprintf("output:\n%s", out))
	assert.Contains(t, out, "put($_0x41a7)")
	assert.Contains(t, out, "fn($_0x834e) => $_0x834e . $_0x41a7")
}
