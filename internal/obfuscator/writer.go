package obfuscator

import (
	"bytes"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/visitor/printer"
)

// Render prints root back to PHP source with the php-parser printer.
func Render(root ast.Vertex) string {
	var output bytes.Buffer
	p := printer.NewPrinter(&output)
	root.Accept(p)
	return output.String()
}
