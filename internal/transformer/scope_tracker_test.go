package transformer

import (
	"testing"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runstack/obfuscator/internal/astutil"
)

func variable(name string) *ast.ExprVariable {
	return &ast.ExprVariable{Name: &ast.Identifier{Value: []byte("$" + name)}}
}

func param(name string) *ast.Parameter {
	return &ast.Parameter{Var: variable(name)}
}

func TestScopeTrackerIsScopeOpening(t *testing.T) {
	st := NewScopeTracker()

	opening := []ast.Vertex{
		&ast.StmtFunction{},
		&ast.StmtClassMethod{},
		&ast.ExprClosure{},
		&ast.ExprArrowFunction{},
	}
	for _, n := range opening {
		assert.True(t, st.IsScopeOpening(n), "%T", n)
	}

	notOpening := []ast.Vertex{
		&ast.StmtIf{},
		&ast.StmtFor{},
		&ast.StmtForeach{},
		&ast.StmtWhile{},
		&ast.StmtStmtList{},
		&ast.StmtClass{},
		variable("x"),
	}
	for _, n := range notOpening {
		assert.False(t, st.IsScopeOpening(n), "%T", n)
	}
}

func TestScopeTrackerStackDiscipline(t *testing.T) {
	st := NewScopeTracker()
	assert.Nil(t, st.Current(), "top level has no scope")
	assert.Nil(t, st.Enclosing())

	fn := &ast.StmtFunction{Params: []ast.Vertex{param("a"), param("b")}}
	closure := &ast.ExprClosure{Params: []ast.Vertex{param("n")}}

	outer := st.Enter(fn, 3)
	assert.Equal(t, 3, outer.ID)
	assert.Equal(t, astutil.KindFunctionDecl, outer.Kind)
	assert.True(t, outer.IsParam("a"))
	assert.True(t, outer.IsParam("b"))
	assert.False(t, outer.IsParam("n"))

	inner := st.Enter(closure, 9)
	assert.Equal(t, 2, st.Depth())
	assert.Same(t, inner, st.Current())
	assert.Same(t, outer, st.Enclosing())
	assert.Same(t, outer, st.At(0))
	assert.Nil(t, st.At(2))

	assert.Same(t, inner, st.Leave(closure))
	assert.Same(t, outer, st.Current())
	assert.Same(t, outer, st.Leave(fn))
	assert.Nil(t, st.Current())
	assert.Zero(t, st.Depth())
}

func TestScopeBindings(t *testing.T) {
	s := NewScopeTracker().Enter(&ast.StmtFunction{}, 1)

	_, ok := s.Lookup("x")
	assert.False(t, ok)

	s.Bind("x", "_0x41a7")
	got, ok := s.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "_0x41a7", got)

	s.Bind("x", "x")
	got, _ = s.Lookup("x")
	assert.Equal(t, "x", got, "a later binding replaces the earlier one")
	assert.Equal(t, 1, s.Len())
}

func TestScopeInheritsEnclosingOnlyForArrowFunctions(t *testing.T) {
	st := NewScopeTracker()
	assert.False(t, st.Enter(&ast.ExprClosure{}, 1).InheritsEnclosing())
	assert.True(t, st.Enter(&ast.ExprArrowFunction{}, 2).InheritsEnclosing())
}

func TestScopeTrackerLeaveWithoutEnterPanics(t *testing.T) {
	st := NewScopeTracker()
	assert.Panics(t, func() { st.Leave(&ast.StmtFunction{}) })
}

func TestScopeTrackerMismatchedLeavePanics(t *testing.T) {
	st := NewScopeTracker()
	st.Enter(&ast.StmtFunction{}, 1)
	assert.Panics(t, func() { st.Leave(&ast.ExprClosure{}) })
}

func TestScopeTrackerEnterNonScopePanics(t *testing.T) {
	assert.Panics(t, func() { NewScopeTracker().Enter(&ast.StmtIf{}, 1) })
}

func TestScopeTrackerReset(t *testing.T) {
	st := NewScopeTracker()
	st.Enter(&ast.StmtFunction{}, 1)
	st.Enter(&ast.ExprClosure{}, 2)
	st.Reset()
	assert.Zero(t, st.Depth())
	assert.Nil(t, st.Current())
}
