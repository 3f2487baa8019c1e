package introspect

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorex386/Boxfit/env"
	"github.com/memorex386/Boxfit/env/envtest"
)

const shopPath = "example.com/shop"

const shopSrc = `package shop

type Genre string

type Item struct {
	ID uint64
}

type Items []*Item

type List[T any] []T

type Page[T any] struct {
	Results []T
}

type ItemList = []*Item

type ItemRef = *Item

type Title = string

type Wrapper struct {
	Items
	Extra int
}

type Holder struct {
	Page   Page[Item]
	List   List[Item]
	Lookup map[string]int
	Ptr    **Item
	Fn     func()
	Ch     chan int
	Anon   struct{ A int }
	Arr    [2]int
	Alist  ItemList
	Aref   ItemRef
	Atitle Title
}

func local() any {
	type Local struct{}
	return Local{}
}
`

func loadShop(t *testing.T) (*env.Env, *types.Package) {
	fset := token.NewFileSet()
	pkg := envtest.Package(t, fset, shopPath, shopSrc)
	e, err := env.New(fset, pkg)
	require.NoError(t, err)
	return e, pkg.Types
}

func typeOf(t *testing.T, pkg *types.Package, name string) types.Type {
	obj := pkg.Scope().Lookup(name)
	require.NotNil(t, obj, name)
	return obj.Type()
}

func fieldOf(t *testing.T, pkg *types.Package, typeName, field string) types.Type {
	s, ok := typeOf(t, pkg, typeName).Underlying().(*types.Struct)
	require.True(t, ok)
	for i := 0; i < s.NumFields(); i++ {
		if f := s.Field(i); f.Name() == field {
			return f.Type()
		}
	}
	require.Failf(t, "no field", "%s.%s", typeName, field)
	return nil
}

func Test_SerializerName(t *testing.T) {
	e, pkg := loadShop(t)

	pkgPath, name, err := SerializerName(e, pkg.Scope().Lookup("Item").(*types.TypeName))
	require.NoError(t, err)
	assert.Equal(t, shopPath, pkgPath)
	assert.Equal(t, "ItemSerializer", name)

	pageOfItem := fieldOf(t, pkg, "Holder", "Page")
	assert.Equal(t, "Page_Item", RelativeName(pageOfItem, pkg))
	assert.Equal(t, "Holder", RelativeName(typeOf(t, pkg, "Holder"), pkg))
}

func Test_SerializerNameUnresolvable(t *testing.T) {
	_, pkg := loadShop(t)

	_, _, err := SerializerName(env.FromTypes(), pkg.Scope().Lookup("Item").(*types.TypeName))
	assert.ErrorIs(t, err, env.ErrUnresolvable)

	var localType *types.TypeName
	fset := token.NewFileSet()
	checked := envtest.Package(t, fset, shopPath, shopSrc)
	for ident, obj := range checked.TypesInfo.Defs {
		if tn, ok := obj.(*types.TypeName); ok && ident.Name == "Local" {
			localType = tn
		}
	}
	require.NotNil(t, localType)
	local, err := env.New(fset, checked)
	require.NoError(t, err)
	_, _, err = SerializerName(local, localType)
	assert.ErrorIs(t, err, env.ErrUnresolvable)

	var nilEnv *env.Env
	_, _, err = SerializerName(nilEnv, pkg.Scope().Lookup("Item").(*types.TypeName))
	assert.ErrorIs(t, err, env.ErrNoEnv)
}

func Test_TypeArgAt(t *testing.T) {
	_, pkg := loadShop(t)
	item := typeOf(t, pkg, "Item")

	arg, err := TypeArgAt(types.Typ[types.Int], 0)
	assert.NoError(t, err)
	assert.Nil(t, arg)

	arg, err = TypeArgAt(types.Typ[types.Invalid], 0)
	assert.NoError(t, err)
	assert.Nil(t, arg)

	arg, err = TypeArgAt(item, 0)
	assert.NoError(t, err)
	assert.Nil(t, arg)

	arg, err = TypeArgAt(fieldOf(t, pkg, "Holder", "Page"), 0)
	require.NoError(t, err)
	assert.True(t, types.Identical(item, arg))

	_, err = TypeArgAt(fieldOf(t, pkg, "Holder", "Page"), 1)
	assert.ErrorIs(t, err, ErrTypeArgIndex)

	arg, err = TypeArgAt(types.NewSlice(types.Typ[types.String]), 0)
	require.NoError(t, err)
	assert.Equal(t, types.Typ[types.String], arg)

	lookup := fieldOf(t, pkg, "Holder", "Lookup")
	key, err := TypeArgAt(lookup, 0)
	require.NoError(t, err)
	assert.Equal(t, types.Typ[types.String], key)
	value, err := TypeArgAt(lookup, 1)
	require.NoError(t, err)
	assert.Equal(t, types.Typ[types.Int], value)

	arg, err = TypeArgAt(fieldOf(t, pkg, "Holder", "Arr"), 0)
	assert.NoError(t, err)
	assert.Nil(t, arg)

	for _, field := range []string{"Ptr", "Fn", "Ch", "Anon"} {
		_, err = TypeArgAt(fieldOf(t, pkg, "Holder", field), 0)
		assert.ErrorIs(t, err, ErrUnsupportedType, field)
	}
}

func Test_JSONGetter(t *testing.T) {
	_, pkg := loadShop(t)

	assert.Equal(t, "GetString", JSONGetter(types.Typ[types.String]))
	assert.Equal(t, "GetInt", JSONGetter(types.Typ[types.Int]))
	assert.Equal(t, "GetBoolean", JSONGetter(types.Typ[types.Bool]))
	assert.Equal(t, "GetLong", JSONGetter(types.Typ[types.Int64]))
	assert.Equal(t, "GetDouble", JSONGetter(types.Typ[types.Float64]))

	jsontree := types.NewPackage(JSONTreePackage, "jsontree")
	object := types.NewNamed(types.NewTypeName(token.NoPos, jsontree, "Object", nil), types.NewStruct(nil, nil), nil)
	array := types.NewNamed(types.NewTypeName(token.NoPos, jsontree, "Array", nil), types.NewStruct(nil, nil), nil)
	assert.Equal(t, "GetJSONObject", JSONGetter(types.NewPointer(object)))
	assert.Equal(t, "GetJSONArray", JSONGetter(types.NewPointer(array)))

	assert.Equal(t, "GetString", JSONGetter(fieldOf(t, pkg, "Holder", "Atitle")))
	assert.Equal(t, FallbackGetter, JSONGetter(typeOf(t, pkg, "Genre")))
	assert.Equal(t, FallbackGetter, JSONGetter(types.Typ[types.Int32]))
	assert.Equal(t, FallbackGetter, JSONGetter(types.NewPointer(types.Typ[types.String])))
	assert.Equal(t, FallbackGetter, JSONGetter(object))
}

func Test_SupertypeChain(t *testing.T) {
	_, pkg := loadShop(t)

	items := typeOf(t, pkg, "Items")
	chain := SupertypeChain(items)
	require.Len(t, chain, 2)
	assert.IsType(t, &types.Slice{}, chain[0])
	assert.Same(t, items, chain[1])

	wrapper := typeOf(t, pkg, "Wrapper")
	chain = SupertypeChain(wrapper)
	require.Len(t, chain, 3)
	assert.IsType(t, &types.Struct{}, chain[0])
	assert.True(t, types.Identical(items, chain[1]))
	assert.Same(t, wrapper, chain[2])

	basic := types.Typ[types.String]
	assert.Equal(t, []types.Type{basic}, SupertypeChain(basic))
}

func Test_IsListLike(t *testing.T) {
	_, pkg := loadShop(t)

	assert.True(t, IsListLike(typeOf(t, pkg, "Items")))
	assert.True(t, IsListLike(types.NewSlice(types.Typ[types.String])))
	assert.True(t, IsListLike(fieldOf(t, pkg, "Holder", "List")))

	assert.True(t, IsListLike(fieldOf(t, pkg, "Holder", "Alist")))
	assert.False(t, IsListLike(fieldOf(t, pkg, "Holder", "Aref")))

	assert.False(t, IsListLike(typeOf(t, pkg, "Wrapper")))
	assert.False(t, IsListLike(typeOf(t, pkg, "Genre")))
	assert.False(t, IsListLike(fieldOf(t, pkg, "Holder", "Lookup")))
	assert.False(t, IsListLike(fieldOf(t, pkg, "Holder", "Arr")))
	assert.False(t, IsListLike(fieldOf(t, pkg, "Holder", "Page")))
}

func Test_ListElem(t *testing.T) {
	_, pkg := loadShop(t)
	item := typeOf(t, pkg, "Item")

	elem, err := ListElem(typeOf(t, pkg, "Items"))
	require.NoError(t, err)
	assert.True(t, types.Identical(types.NewPointer(item), elem))

	elem, err = ListElem(fieldOf(t, pkg, "Holder", "List"))
	require.NoError(t, err)
	assert.True(t, types.Identical(item, elem))

	elem, err = ListElem(fieldOf(t, pkg, "Holder", "Alist"))
	require.NoError(t, err)
	assert.True(t, types.Identical(types.NewPointer(item), elem))

	_, err = ListElem(typeOf(t, pkg, "Genre"))
	assert.ErrorIs(t, err, ErrNotList)
}

func Test_DerefAndNamedOf(t *testing.T) {
	_, pkg := loadShop(t)

	base, count := Deref(fieldOf(t, pkg, "Holder", "Ptr"))
	assert.Equal(t, 2, count)
	assert.Same(t, pkg.Scope().Lookup("Item"), NamedOf(base))

	base, count = Deref(fieldOf(t, pkg, "Holder", "Aref"))
	assert.Equal(t, 1, count)
	assert.Same(t, pkg.Scope().Lookup("Item"), NamedOf(base))

	base, count = Deref(types.Typ[types.Int])
	assert.Equal(t, 0, count)
	assert.Nil(t, NamedOf(base))
}
