// Package transformer holds implementations for specific obfuscation transformations.
package transformer

import (
	"github.com/VKCOM/php-parser/pkg/ast"
)

// Pass is a single AST to AST transformation step. Passes mutate the tree in
// place and return its root, which is handed to the next pass.
type Pass interface {
	Name() string
	Transform(root ast.Vertex) ast.Vertex
}

// MappingReporter is implemented by passes that rename identifiers.
type MappingReporter interface {
	Mappings() map[string]string
}
