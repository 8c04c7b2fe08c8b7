package pysyntax

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Sentinel errors for parser operations.
var (
	errPoolType   = errors.New("unexpected type in parser pool")
	errNoRootNode = errors.New("parse produced no root node")
)

// ParseError reports malformed source. It is a value, not a panic: the
// caller decides whether a broken file aborts anything.
type ParseError struct {
	Path   string
	Line   int // 1-based line of the first syntax error.
	Column int // 1-based column of the first syntax error.
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
}

// Parser parses Python source files. It is safe for concurrent use: the
// underlying tree-sitter parsers are pooled per goroutine.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a Parser with the Python grammar loaded.
func NewParser() *Parser {
	lang := sitter.NewLanguage(python.GetLanguage())

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse parses one file's content into a lowered syntax tree. Malformed
// source yields a *ParseError carrying the position of the first syntax
// error; the returned tree is nil in that case.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*Tree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("pysyntax: parse %s: %w", path, err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	if root.HasError() {
		line, column := firstErrorPosition(root)

		return nil, &ParseError{Path: path, Line: line, Column: column}
	}

	// The full tree is lowered before the sitter tree is closed, so no
	// cgo-backed memory escapes this function.
	return &Tree{Path: path, Root: lower(root, content)}, nil
}

// firstErrorPosition locates the first ERROR or MISSING node in the tree.
func firstErrorPosition(tsNode sitter.Node) (line, column int) {
	if tsNode.IsError() || tsNode.IsMissing() {
		point := tsNode.StartPoint()

		return int(point.Row) + 1, int(point.Column) + 1
	}

	for i := range tsNode.ChildCount() {
		child := tsNode.Child(i)
		if !child.HasError() && !child.IsError() && !child.IsMissing() {
			continue
		}

		if l, c := firstErrorPosition(child); l > 0 {
			return l, c
		}
	}

	point := tsNode.StartPoint()

	return int(point.Row) + 1, int(point.Column) + 1
}

// lower converts a tree-sitter node into the tagged-variant Node model.
func lower(tsNode sitter.Node, src []byte) *Node {
	switch tsNode.Type() {
	case "import_statement":
		return lowerImport(tsNode, src)
	case "import_from_statement":
		return lowerImportFrom(tsNode, src)
	case "future_import_statement":
		// "from __future__ import ..." has its own node type but behaves
		// like any other absolute from-import.
		return &Node{Kind: KindImportFrom, Line: startLine(tsNode), Module: "__future__"}
	case "function_definition":
		return lowerDefinition(tsNode, src, KindFunctionDef)
	case "class_definition":
		return lowerDefinition(tsNode, src, KindClassDef)
	case "decorated_definition":
		return lowerDecorated(tsNode, src)
	default:
		return &Node{Kind: KindOther, Line: startLine(tsNode), Children: lowerChildren(tsNode, src)}
	}
}

func lowerChildren(tsNode sitter.Node, src []byte) []*Node {
	count := tsNode.NamedChildCount()
	if count == 0 {
		return nil
	}

	children := make([]*Node, 0, count)

	for i := range count {
		children = append(children, lower(tsNode.NamedChild(i), src))
	}

	return children
}

// lowerImport handles "import a.b, c as d": each named child is either a
// dotted_name or an aliased_import wrapping one.
func lowerImport(tsNode sitter.Node, src []byte) *Node {
	out := &Node{Kind: KindImport, Line: startLine(tsNode)}

	for i := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(i)

		switch child.Type() {
		case "dotted_name":
			out.Names = append(out.Names, child.Content(src))
		case "aliased_import":
			name := child.ChildByFieldName("name")
			if !name.IsNull() {
				out.Names = append(out.Names, name.Content(src))
			}
		}
	}

	return out
}

// lowerImportFrom handles "from x.y import z" and "from . import z". The
// module_name field is a dotted_name for absolute references and a
// relative_import node when leading dots are present.
func lowerImportFrom(tsNode sitter.Node, src []byte) *Node {
	out := &Node{Kind: KindImportFrom, Line: startLine(tsNode)}

	moduleName := tsNode.ChildByFieldName("module_name")
	if moduleName.IsNull() {
		return out
	}

	switch moduleName.Type() {
	case "relative_import":
		out.Relative = true

		// "from .pkg import x" still carries a dotted_name inside the
		// relative_import node; retain it for completeness.
		for i := range moduleName.NamedChildCount() {
			inner := moduleName.NamedChild(i)
			if inner.Type() == "dotted_name" {
				out.Module = inner.Content(src)

				break
			}
		}
	case "dotted_name":
		out.Module = moduleName.Content(src)
	}

	return out
}

func lowerDefinition(tsNode sitter.Node, src []byte, kind Kind) *Node {
	out := &Node{Kind: kind, Line: startLine(tsNode), Children: lowerChildren(tsNode, src)}

	name := tsNode.ChildByFieldName("name")
	if !name.IsNull() {
		out.Name = name.Content(src)
	}

	return out
}

// lowerDecorated collapses a decorated_definition into the definition it
// wraps, attaching the decorator expressions to it.
func lowerDecorated(tsNode sitter.Node, src []byte) *Node {
	var decorators []string

	var definition *Node

	for i := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(i)

		if child.Type() == "decorator" {
			text := strings.TrimPrefix(strings.TrimSpace(child.Content(src)), "@")
			decorators = append(decorators, text)

			continue
		}

		definition = lower(child, src)
	}

	if definition == nil {
		return &Node{Kind: KindOther, Line: startLine(tsNode)}
	}

	definition.Decorators = decorators

	return definition
}

func startLine(tsNode sitter.Node) int {
	return int(tsNode.StartPoint().Row) + 1
}
