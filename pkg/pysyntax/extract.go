package pysyntax

import (
	"iter"
	"strings"
)

// ExtractTopLevel yields the module-level import declarations of a parsed
// file, in source order. The sequence is lazy and single-pass.
//
// Scope rules:
//   - function and class bodies are skipped entirely: imports there are
//     intentionally unrestricted,
//   - relative imports reference sibling modules and are always safe,
//   - every other construct (conditionals, try blocks, loops) is recursed
//     into, so guarded module-level imports are still caught.
//
// A multi-name plain import ("import a, b, c") yields only its first name.
// This narrowing is deliberate and load-bearing: downstream allow-lists
// rely on it, so it must not be widened to all names.
func ExtractTopLevel(tree *Tree) iter.Seq[ImportDecl] {
	return func(yield func(ImportDecl) bool) {
		if tree != nil && tree.Root != nil {
			visitScope(tree.Root, yield)
		}
	}
}

func visitScope(parent *Node, yield func(ImportDecl) bool) bool {
	for _, child := range parent.Children {
		switch child.Kind {
		case KindImport:
			if len(child.Names) == 0 {
				continue
			}

			if !yield(ImportDecl{Module: CanonicalModule(child.Names[0]), Line: child.Line}) {
				return false
			}
		case KindImportFrom:
			if child.Relative || child.Module == "" {
				continue
			}

			if !yield(ImportDecl{Module: CanonicalModule(child.Module), Line: child.Line}) {
				return false
			}
		case KindFunctionDef, KindClassDef:
			// Lazily-executed scope: its whole subtree is exempt.
			continue
		case KindOther:
			if !visitScope(child, yield) {
				return false
			}
		}
	}

	return true
}

// FindPipelineFunctions returns the names of module-level functions carrying
// a pipeline decorator ("pipeline", "dsl.pipeline", call forms included).
// The same scope rules as import extraction apply: nested definitions are
// not considered.
func FindPipelineFunctions(tree *Tree) []string {
	var names []string

	if tree == nil || tree.Root == nil {
		return names
	}

	collectPipelineFunctions(tree.Root, &names)

	return names
}

func collectPipelineFunctions(parent *Node, names *[]string) {
	for _, child := range parent.Children {
		switch child.Kind {
		case KindFunctionDef:
			if hasPipelineDecorator(child.Decorators) {
				*names = append(*names, child.Name)
			}
		case KindOther:
			collectPipelineFunctions(child, names)
		case KindImport, KindImportFrom, KindClassDef:
		}
	}
}

func hasPipelineDecorator(decorators []string) bool {
	for _, decorator := range decorators {
		name, _, _ := strings.Cut(decorator, "(")

		name = strings.TrimSpace(name)
		if name == "pipeline" || strings.HasSuffix(name, ".pipeline") {
			return true
		}
	}

	return false
}
