package pysyntax_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importguard/pkg/pysyntax"
)

func parseSource(t *testing.T, src string) *pysyntax.Tree {
	t.Helper()

	tree, err := pysyntax.NewParser().Parse(context.Background(), "test.py", []byte(src))
	require.NoError(t, err)

	return tree
}

func extractAll(tree *pysyntax.Tree) []pysyntax.ImportDecl {
	var decls []pysyntax.ImportDecl

	for decl := range pysyntax.ExtractTopLevel(tree) {
		decls = append(decls, decl)
	}

	return decls
}

func TestExtractTopLevel_PlainImports(t *testing.T) {
	t.Parallel()

	tree := parseSource(t, "import os\nimport numpy.linalg\n")

	decls := extractAll(tree)
	require.Len(t, decls, 2)
	assert.Equal(t, pysyntax.ImportDecl{Module: "os", Line: 1}, decls[0])
	assert.Equal(t, pysyntax.ImportDecl{Module: "numpy", Line: 2}, decls[1])
}

func TestExtractTopLevel_MultiNameImportYieldsFirstNameOnly(t *testing.T) {
	t.Parallel()

	tree := parseSource(t, "import a, b, c\n")

	decls := extractAll(tree)
	require.Len(t, decls, 1)
	assert.Equal(t, "a", decls[0].Module)
}

func TestExtractTopLevel_AliasedImport(t *testing.T) {
	t.Parallel()

	tree := parseSource(t, "import pandas.core as pd\n")

	decls := extractAll(tree)
	require.Len(t, decls, 1)
	assert.Equal(t, "pandas", decls[0].Module)
}

func TestExtractTopLevel_FromImports(t *testing.T) {
	t.Parallel()

	tree := parseSource(t, "from kfp.dsl import component\nfrom pathlib import Path\n")

	decls := extractAll(tree)
	require.Len(t, decls, 2)
	assert.Equal(t, pysyntax.ImportDecl{Module: "kfp", Line: 1}, decls[0])
	assert.Equal(t, pysyntax.ImportDecl{Module: "pathlib", Line: 2}, decls[1])
}

func TestExtractTopLevel_RelativeImportsAreSkipped(t *testing.T) {
	t.Parallel()

	tree := parseSource(t, "from . import sibling\nfrom .pkg import helper\nfrom ..up import thing\n")

	assert.Empty(t, extractAll(tree))
}

func TestExtractTopLevel_FutureImport(t *testing.T) {
	t.Parallel()

	tree := parseSource(t, "from __future__ import annotations\n")

	decls := extractAll(tree)
	require.Len(t, decls, 1)
	assert.Equal(t, "__future__", decls[0].Module)
}

func TestExtractTopLevel_FunctionAndClassBodiesAreExempt(t *testing.T) {
	t.Parallel()

	src := `import os

def train():
    import heavy_lib
    return heavy_lib.run()

async def fetch():
    import aiohttp

class Worker:
    import threading

    def work(self):
        import multiprocessing
`

	tree := parseSource(t, src)

	decls := extractAll(tree)
	require.Len(t, decls, 1)
	assert.Equal(t, pysyntax.ImportDecl{Module: "os", Line: 1}, decls[0])
}

func TestExtractTopLevel_DecoratedDefinitionBodyIsExempt(t *testing.T) {
	t.Parallel()

	src := `from kfp import dsl

@dsl.component
def step():
    import torch
`

	tree := parseSource(t, src)

	decls := extractAll(tree)
	require.Len(t, decls, 1)
	assert.Equal(t, "kfp", decls[0].Module)
}

func TestExtractTopLevel_ConditionalAndTryBlocksAreCaught(t *testing.T) {
	t.Parallel()

	src := `import sys

if sys.version_info >= (3, 11):
    import tomllib
else:
    import tomli

try:
    import ujson
except ImportError:
    import json

for _ in range(1):
    import itertools
`

	tree := parseSource(t, src)

	modules := make([]string, 0, 6)
	for _, decl := range extractAll(tree) {
		modules = append(modules, decl.Module)
	}

	assert.Equal(t, []string{"sys", "tomllib", "tomli", "ujson", "json", "itertools"}, modules)
}

func TestExtractTopLevel_LazySequenceStopsEarly(t *testing.T) {
	t.Parallel()

	tree := parseSource(t, "import a\nimport b\nimport c\n")

	var first []pysyntax.ImportDecl

	for decl := range pysyntax.ExtractTopLevel(tree) {
		first = append(first, decl)

		break
	}

	require.Len(t, first, 1)
	assert.Equal(t, "a", first[0].Module)
}

func TestParse_SyntaxErrorReturnsParseError(t *testing.T) {
	t.Parallel()

	_, err := pysyntax.NewParser().Parse(context.Background(), "broken.py", []byte("def broken(:\n"))
	require.Error(t, err)

	var parseErr *pysyntax.ParseError

	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "broken.py", parseErr.Path)
	assert.Positive(t, parseErr.Line)
}

func TestFindPipelineFunctions(t *testing.T) {
	t.Parallel()

	src := `from kfp import dsl

@dsl.pipeline(name="training")
def training_pipeline():
    pass

@dsl.component
def not_a_pipeline():
    pass

@pipeline
def bare_decorator():
    pass

def plain():
    pass
`

	tree := parseSource(t, src)

	assert.Equal(t, []string{"training_pipeline", "bare_decorator"}, pysyntax.FindPipelineFunctions(tree))
}

func TestCanonicalModule(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo", pysyntax.CanonicalModule("foo.bar.baz"))
	assert.Equal(t, "foo", pysyntax.CanonicalModule("foo"))
	assert.Equal(t, "", pysyntax.CanonicalModule(""))
}
