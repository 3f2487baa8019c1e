// Package envtest type-checks in-memory sources into an env.Env for tests.
package envtest

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/memorex386/Boxfit/env"
)

// Package parses and checks one file as the package with the given import path.
func Package(t testing.TB, fset *token.FileSet, pkgPath, src string) *packages.Package {
	t.Helper()
	file, err := parser.ParseFile(fset, path.Base(pkgPath)+".go", src, parser.ParseComments)
	require.NoError(t, err)

	info := &types.Info{
		Types: map[ast.Expr]types.TypeAndValue{},
		Defs:  map[*ast.Ident]types.Object{},
		Uses:  map[*ast.Ident]types.Object{},
	}
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg, err := conf.Check(pkgPath, fset, []*ast.File{file}, info)
	require.NoError(t, err)

	return &packages.Package{
		ID:        pkgPath,
		Name:      pkg.Name(),
		PkgPath:   pkgPath,
		Fset:      fset,
		Syntax:    []*ast.File{file},
		Types:     pkg,
		TypesInfo: info,
	}
}

// New builds an environment of a single in-memory package.
func New(t testing.TB, pkgPath, src string) *env.Env {
	t.Helper()
	fset := token.NewFileSet()
	e, err := env.New(fset, Package(t, fset, pkgPath, src))
	require.NoError(t, err)
	return e
}

// TypeName looks up a package-level type of the environment.
func TypeName(t testing.TB, e *env.Env, pkgPath, name string) *types.TypeName {
	t.Helper()
	obj, err := e.Lookup(pkgPath, name)
	require.NoError(t, err)
	typeName, ok := obj.(*types.TypeName)
	require.True(t, ok, "%s is not a type", name)
	return typeName
}
