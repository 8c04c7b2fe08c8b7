// Package pysyntax parses Python source into a typed syntax tree and
// extracts module-level import declarations from it.
package pysyntax

import "strings"

// Kind discriminates the syntax node variants the import guard cares about.
// Everything else is KindOther and is only interesting for its children.
type Kind uint8

// Node kind variants.
const (
	KindOther Kind = iota
	KindImport
	KindImportFrom
	KindFunctionDef
	KindClassDef
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindImport:
		return "Import"
	case KindImportFrom:
		return "ImportFrom"
	case KindFunctionDef:
		return "FunctionDef"
	case KindClassDef:
		return "ClassDef"
	default:
		return "Other"
	}
}

// Node is a lowered Python syntax node. Only the fields relevant to the
// node's Kind are populated.
type Node struct {
	Kind Kind
	Line int // 1-based start line.

	// KindImport: the dotted names in declaration order ("a.b", "c").
	Names []string

	// KindImportFrom: the dotted module reference. Empty for bare
	// relative imports ("from . import x").
	Module string

	// KindImportFrom: true when the reference has leading dots.
	Relative bool

	// KindFunctionDef / KindClassDef: the declared name and the source
	// text of any decorators (without the leading "@").
	Name       string
	Decorators []string

	Children []*Node
}

// Tree is the result of parsing one Python source file.
type Tree struct {
	Path string
	Root *Node
}

// ImportDecl is one module-level import occurrence: the canonical
// (first dotted component) module name and its 1-based source line.
type ImportDecl struct {
	Module string
	Line   int
}

// CanonicalModule reduces a dotted module reference to its first component:
// "foo.bar.baz" becomes "foo". This is the unit tracked by the stdlib index,
// the allow-list, and violation reporting.
func CanonicalModule(name string) string {
	head, _, _ := strings.Cut(name, ".")

	return head
}
