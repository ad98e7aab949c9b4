package transformer

import (
	"fmt"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/runstack/obfuscator/internal/astutil"
)

// Scope is one PHP variable scope: a function, method, closure or arrow
// function body. It maps original variable names to the names they were
// given inside that body.
type Scope struct {
	// ID is the preorder index of the node that opened the scope within the
	// current walk.
	ID   int
	Kind astutil.Kind

	names  map[string]string
	params map[string]bool
}

func newScope(id int, kind astutil.Kind) *Scope {
	return &Scope{
		ID:     id,
		Kind:   kind,
		names:  make(map[string]string),
		params: make(map[string]bool),
	}
}

// Lookup returns the name already bound to original in this scope.
func (s *Scope) Lookup(original string) (string, bool) {
	name, ok := s.names[original]
	return name, ok
}

// Bind records original -> renamed, replacing any earlier binding.
func (s *Scope) Bind(original, renamed string) {
	s.names[original] = renamed
}

// Len returns the number of bound names.
func (s *Scope) Len() int {
	return len(s.names)
}

// IsParam reports whether name is declared as a parameter of the scope node.
func (s *Scope) IsParam(name string) bool {
	return s.params[name]
}

// InheritsEnclosing reports whether free variables of this scope refer to the
// enclosing scope. Only arrow functions capture implicitly.
func (s *Scope) InheritsEnclosing() bool {
	return s.Kind == astutil.KindArrowFunction
}

// ScopeTracker maintains the stack of scopes open at the current point of a
// depth-first walk.
type ScopeTracker struct {
	stack []*Scope
}

// NewScopeTracker creates an empty tracker.
func NewScopeTracker() *ScopeTracker {
	return &ScopeTracker{}
}

// IsScopeOpening reports whether n starts a new variable scope. Blocks,
// loops and conditionals never do.
func (st *ScopeTracker) IsScopeOpening(n ast.Vertex) bool {
	return astutil.KindOf(n).OpensScope()
}

// Enter pushes a scope for n. Parameters of n are recorded on the new scope.
func (st *ScopeTracker) Enter(n ast.Vertex, id int) *Scope {
	kind := astutil.KindOf(n)
	if !kind.OpensScope() {
		panic(fmt.Sprintf("transformer: %T does not open a scope", n))
	}
	s := newScope(id, kind)
	for _, p := range paramsOf(n) {
		param, ok := p.(*ast.Parameter)
		if !ok {
			continue
		}
		if name, ok := astutil.VariableName(param.Var); ok {
			s.params[name] = true
		}
	}
	st.stack = append(st.stack, s)
	return s
}

// Leave pops the top scope. Calls must mirror Enter in reverse order; an
// unbalanced Leave is a traversal bug and panics.
func (st *ScopeTracker) Leave(n ast.Vertex) *Scope {
	if len(st.stack) == 0 {
		panic(fmt.Sprintf("transformer: leaving %T with no open scope", n))
	}
	top := st.stack[len(st.stack)-1]
	if kind := astutil.KindOf(n); kind != top.Kind {
		panic(fmt.Sprintf("transformer: leaving %s but innermost scope is %s", kind, top.Kind))
	}
	st.stack = st.stack[:len(st.stack)-1]
	return top
}

// Current returns the innermost scope, or nil at top level.
func (st *ScopeTracker) Current() *Scope {
	return st.At(len(st.stack) - 1)
}

// Enclosing returns the scope directly around the innermost one, or nil.
func (st *ScopeTracker) Enclosing() *Scope {
	return st.At(len(st.stack) - 2)
}

// At returns the scope at the given stack depth (0 is outermost), or nil.
func (st *ScopeTracker) At(depth int) *Scope {
	if depth < 0 || depth >= len(st.stack) {
		return nil
	}
	return st.stack[depth]
}

// Depth returns the number of open scopes.
func (st *ScopeTracker) Depth() int {
	return len(st.stack)
}

// Reset drops every open scope.
func (st *ScopeTracker) Reset() {
	st.stack = st.stack[:0]
}

func paramsOf(n ast.Vertex) []ast.Vertex {
	switch v := n.(type) {
	case *ast.StmtFunction:
		return v.Params
	case *ast.StmtClassMethod:
		return v.Params
	case *ast.ExprClosure:
		return v.Params
	case *ast.ExprArrowFunction:
		return v.Params
	}
	return nil
}
