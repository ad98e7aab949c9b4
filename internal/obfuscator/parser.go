package obfuscator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/VKCOM/php-parser/pkg/ast"
	"github.com/VKCOM/php-parser/pkg/conf"
	"github.com/VKCOM/php-parser/pkg/errors"
	"github.com/VKCOM/php-parser/pkg/parser"
	"github.com/VKCOM/php-parser/pkg/version"
	"github.com/hashicorp/go-multierror"

	"github.com/runstack/obfuscator/internal/config"
)

const openTag = "<?php"

// Parser turns PHP source into an AST for one language version.
type Parser struct {
	version version.Version
}

// NewParser returns a parser for the given parser_mode. An unknown mode is a
// ConfigurationError.
func NewParser(mode string) (*Parser, error) {
	v, err := parserVersion(mode)
	if err != nil {
		return nil, err
	}
	return &Parser{version: v}, nil
}

func parserVersion(mode string) (version.Version, error) {
	switch strings.ToUpper(strings.TrimSpace(mode)) {
	case "ONLY_PHP5", config.ParserModePHP5:
		return version.Version{Major: 5, Minor: 6}, nil
	case "ONLY_PHP7", config.ParserModePHP7:
		return version.Version{Major: 7, Minor: 4}, nil
	case "ONLY_PHP8", config.ParserModePHP8, "":
		return version.Version{Major: 8, Minor: 1}, nil
	}
	return version.Version{}, &ConfigurationError{
		Field:  "parser_mode",
		Value:  mode,
		Reason: "expected one of PREFER_PHP5, PREFER_PHP7, PREFER_PHP8",
	}
}

// Normalize trims src and makes sure it starts with an open tag.
func Normalize(src []byte) []byte {
	src = bytes.TrimSpace(src)
	if !bytes.HasPrefix(src, []byte(openTag)) {
		src = append([]byte(openTag+"\n"), src...)
	}
	return src
}

// Parse normalizes and parses src. Any parser diagnostic fails the parse; the
// diagnostics are returned together inside a *ParseError.
func (p *Parser) Parse(src []byte) (ast.Vertex, error) {
	var diagnostics *multierror.Error
	v := p.version
	parserConfig := conf.Config{
		Version: &v,
		ErrorHandlerFunc: func(e *errors.Error) {
			diagnostics = multierror.Append(diagnostics, diagnostic(e))
		},
	}

	root, err := parser.Parse(Normalize(src), parserConfig)
	if err != nil {
		diagnostics = multierror.Append(diagnostics, err)
	}
	if diagnostics.ErrorOrNil() != nil {
		return nil, &ParseError{Err: diagnostics}
	}
	if root == nil {
		return nil, &ParseError{Err: fmt.Errorf("parser returned no syntax tree")}
	}
	return root, nil
}

func diagnostic(e *errors.Error) error {
	if e.Pos != nil {
		return fmt.Errorf("line %d: %s", e.Pos.StartLine, e.Msg)
	}
	return fmt.Errorf("%s", e.Msg)
}
