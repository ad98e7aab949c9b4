// Package astutil provides a small tagged view over the php-parser AST and
// helpers for reading and rewriting variable names in place.
package astutil

import (
	"bytes"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"

	"github.com/runstack/obfuscator/internal/logging"
)

// Kind classifies the nodes the obfuscation passes care about. Everything
// else is KindOther.
type Kind int

const (
	KindOther Kind = iota
	KindFunctionDecl
	KindMethodDecl
	KindClosure
	KindArrowFunction
	KindVariableRef
)

func (k Kind) String() string {
	switch k {
	case KindFunctionDecl:
		return "FunctionDecl"
	case KindMethodDecl:
		return "MethodDecl"
	case KindClosure:
		return "Closure"
	case KindArrowFunction:
		return "ArrowFunction"
	case KindVariableRef:
		return "VariableRef"
	default:
		return "Other"
	}
}

// KindOf returns the kind of n. Variables whose name is an expression
// ($$x, ${expr}) are KindOther: they have no literal name to rename.
func KindOf(n ast.Vertex) Kind {
	switch v := n.(type) {
	case *ast.StmtFunction:
		return KindFunctionDecl
	case *ast.StmtClassMethod:
		return KindMethodDecl
	case *ast.ExprClosure:
		return KindClosure
	case *ast.ExprArrowFunction:
		return KindArrowFunction
	case *ast.ExprVariable:
		if _, ok := v.Name.(*ast.Identifier); ok {
			return KindVariableRef
		}
	}
	return KindOther
}

// OpensScope reports whether k introduces a new PHP variable scope. Blocks,
// loops and conditionals do not.
func (k Kind) OpensScope() bool {
	switch k {
	case KindFunctionDecl, KindMethodDecl, KindClosure, KindArrowFunction:
		return true
	}
	return false
}

// VariableName returns the literal name of a variable node without the
// leading "$". ok is false for dynamic variables and non-variable nodes.
func VariableName(n ast.Vertex) (name string, ok bool) {
	v, isVar := n.(*ast.ExprVariable)
	if !isVar || v == nil {
		return "", false
	}
	ident, isIdent := v.Name.(*ast.Identifier)
	if !isIdent || ident == nil {
		return "", false
	}
	return trimDollar(ident.Value), true
}

// SetVariableName rewrites a variable node's literal name. The "$" form of the
// stored value is kept as the parser produced it.
func SetVariableName(n ast.Vertex, name string) bool {
	v, isVar := n.(*ast.ExprVariable)
	if !isVar || v == nil {
		return false
	}
	ident, isIdent := v.Name.(*ast.Identifier)
	if !isIdent || ident == nil {
		return false
	}
	value := []byte(name)
	if bytes.HasPrefix(ident.Value, []byte("$")) {
		value = append([]byte("$"), value...)
	}
	modifyIdentifier(ident, value)
	return true
}

// IdentifierName returns the value of a bare identifier, stripped of "$".
// Used for ${name} inside interpolated strings.
func IdentifierName(n ast.Vertex) (string, bool) {
	ident, ok := n.(*ast.Identifier)
	if !ok || ident == nil {
		return "", false
	}
	return trimDollar(ident.Value), true
}

// SetIdentifierName rewrites a bare identifier, keeping its "$" form.
func SetIdentifierName(n ast.Vertex, name string) bool {
	ident, ok := n.(*ast.Identifier)
	if !ok || ident == nil {
		return false
	}
	value := []byte(name)
	if bytes.HasPrefix(ident.Value, []byte("$")) {
		value = append([]byte("$"), value...)
	}
	modifyIdentifier(ident, value)
	return true
}

// modifyIdentifier updates both the node value and the token value, since the
// printer reads the token.
func modifyIdentifier(ident *ast.Identifier, newValue []byte) {
	if bytes.Equal(ident.Value, newValue) {
		return
	}
	ident.Value = newValue
	if ident.IdentifierTkn != nil {
		tkn := ident.IdentifierTkn.Value
		if bytes.HasPrefix(tkn, []byte("$")) && !bytes.HasPrefix(newValue, []byte("$")) {
			ident.IdentifierTkn.Value = append([]byte("$"), newValue...)
		} else {
			ident.IdentifierTkn.Value = newValue
		}
	} else {
		logging.Warningf("identifier %q has no token, printer output may keep the old name", string(newValue))
	}
}

func trimDollar(b []byte) string {
	return strings.TrimPrefix(string(b), "$")
}
