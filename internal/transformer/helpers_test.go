package transformer

import (
	"bytes"
	"testing"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/conf"
	"github.com/VKCOM/php-parser/pkg/parser"
	"github.com/VKCOM/php-parser/pkg/version"
	"github.com/VKCOM/php-parser/pkg/visitor/printer"
	"github.com/stretchr/testify/require"

	"github.com/runstack/obfuscator/internal/config"
)

// levelTwo is the policy configuration most renaming tests run under.
var levelTwo = config.LevelConfig{
	Level:                2,
	PreserveSuperglobals: true,
	PreserveMagic:        true,
	StripComments:        true,
}

func parsePHP(t *testing.T, src string) ast.Vertex {
	t.Helper()
	root, err := parser.Parse([]byte(src), conf.Config{
		Version: &version.Version{Major: 8, Minor: 1},
	})
	require.NoError(t, err, "failed to parse:\n%s", src)
	require.NotNil(t, root)
	return root
}

func printPHP(root ast.Vertex) string {
	var out bytes.Buffer
	root.Accept(printer.NewPrinter(&out))
	return out.String()
}

// applyPass parses src, runs pass over it and prints the result.
func applyPass(t *testing.T, pass Pass, src string) string {
	t.Helper()
	return printPHP(pass.Transform(parsePHP(t, src)))
}

func renameVariables(t *testing.T, src string) string {
	t.Helper()
	return applyPass(t, NewVariableRenamer(levelTwo, nil), src)
}
