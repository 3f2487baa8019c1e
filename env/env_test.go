package env_test

import (
	"go/ast"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorex386/Boxfit/env"
	"github.com/memorex386/Boxfit/env/envtest"
	"github.com/memorex386/Boxfit/use"
)

const recordsSrc = `package records

// Label is a record label.
//
//boxfit:entity unique=Name
type Label struct {
	ID   uint64
	Name string
}

type (
	//boxfit:entity
	Release struct {
		ID uint64
	}
	Plain struct{}
)

//boxfit:entity
type Catalog struct {
	ID uint64
}

//boxfit:entityX
type Other struct{}
`

func Test_EntitiesIndexed(t *testing.T) {
	e := envtest.New(t, "example.com/records", recordsSrc)

	names := []string{}
	for _, obj := range e.Entities() {
		names = append(names, obj.Name())
	}
	assert.Equal(t, []string{"Label", "Release", "Catalog"}, names)
	assert.Len(t, e.EntitiesOf("example.com/records"), 3)
	assert.Empty(t, e.EntitiesOf("example.com/other"))

	label := envtest.TypeName(t, e, "example.com/records", "Label")
	d, ok := e.Entity(label)
	require.True(t, ok)
	assert.Equal(t, "Name", d.Unique)

	release := envtest.TypeName(t, e, "example.com/records", "Release")
	d, ok = e.Entity(release)
	require.True(t, ok)
	assert.Empty(t, d.Unique)

	_, ok = e.Entity(envtest.TypeName(t, e, "example.com/records", "Plain"))
	assert.False(t, ok)
	_, ok = e.Entity(envtest.TypeName(t, e, "example.com/records", "Other"))
	assert.False(t, ok)
}

func Test_LookupUnresolvable(t *testing.T) {
	e := envtest.New(t, "example.com/records", recordsSrc)

	_, err := e.Lookup("example.com/records", "Missing")
	assert.ErrorIs(t, err, env.ErrUnresolvable)
	_, err = e.Lookup("example.com/missing", "Label")
	assert.ErrorIs(t, err, env.ErrUnresolvable)

	foreign := types.NewPackage("example.com/foreign", "foreign")
	obj := types.NewTypeName(token.NoPos, foreign, "Foreign", nil)
	_, err = e.PackageOf(obj)
	assert.ErrorIs(t, err, env.ErrUnresolvable)

	var nilEnv *env.Env
	_, err = nilEnv.PackageOf(obj)
	assert.ErrorIs(t, err, env.ErrNoEnv)
	assert.Nil(t, nilEnv.Entities())
}

func Test_DirectiveOnNonStruct(t *testing.T) {
	fset := token.NewFileSet()
	pkg := envtest.Package(t, fset, "example.com/bad", `package bad

//boxfit:entity
type Name string
`)
	_, err := env.New(fset, pkg)
	var useErr *use.Error
	assert.ErrorAs(t, err, &useErr)
}

func Test_ParseDirective(t *testing.T) {
	fset := token.NewFileSet()

	d, ok, err := env.ParseDirective(fset, &ast.Comment{Text: "//boxfit:entity"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, d.Unique)

	d, ok, err = env.ParseDirective(fset, &ast.Comment{Text: "//boxfit:entity unique=Title"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Title", d.Unique)

	_, ok, err = env.ParseDirective(fset, &ast.Comment{Text: "// an entity"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = env.ParseDirective(fset, &ast.Comment{Text: "//boxfit:entity unique"})
	assert.True(t, ok)
	assert.Error(t, err)

	_, ok, err = env.ParseDirective(fset, &ast.Comment{Text: "//boxfit:entity order=Title"})
	assert.True(t, ok)
	assert.ErrorContains(t, err, "unknown directive option 'order'")
}
