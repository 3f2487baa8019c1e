package serializer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorex386/Boxfit/box"
	"github.com/memorex386/Boxfit/jsontree"
)

type artist struct {
	ID      uint64
	Name    string
	Country string
}

var artistBinding = box.Binding[artist]{
	Name:      "serializer.artist",
	ID:        func(a *artist) uint64 { return a.ID },
	SetID:     func(a *artist, id uint64) { a.ID = id },
	UniqueKey: func(a *artist) any { return a.Name },
}

type track struct {
	ID    uint64
	Title string
}

var trackBinding = box.Binding[track]{
	Name:  "serializer.track",
	ID:    func(t *track) uint64 { return t.ID },
	SetID: func(t *track, id uint64) { t.ID = id },
}

type artistSerializer struct {
	ctx *Context
}

func (s *artistSerializer) FromJSONObject(object *jsontree.Object) (*artist, error) {
	entity := new(artist)
	var err error
	if entity.Name, err = object.GetString("name"); err != nil {
		return nil, FieldErr("artist", "name", err)
	}
	if !object.IsNull("country") {
		if entity.Country, err = object.GetString("country"); err != nil {
			return nil, FieldErr("artist", "country", err)
		}
	}
	return Persist(s.ctx, artistBinding, entity)
}

func (s *artistSerializer) FromJSONArray(array *jsontree.Array) ([]*artist, error) {
	return Collect(array, s.FromJSONObject)
}

func openStore(t *testing.T) *box.Store {
	store, err := box.Open(filepath.Join(t.TempDir(), "serializer.db"), box.WithNoSync())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func Test_Merge(t *testing.T) {
	existing := &artist{ID: 7, Name: "Calamaro", Country: "AR"}
	incoming := &artist{Name: "Calamaro"}

	kept := Merge(MergeKeep, artistBinding, existing, incoming)
	assert.Same(t, existing, kept)
	assert.Equal(t, "AR", kept.Country)

	replaced := Merge(MergeReplace, artistBinding, existing, incoming)
	assert.Same(t, existing, replaced)
	assert.Equal(t, uint64(7), replaced.ID)
	assert.Empty(t, replaced.Country)

	assert.Same(t, incoming, Merge(MergeReplace, artistBinding, nil, incoming))
	assert.Same(t, existing, Merge(MergeReplace, artistBinding, existing, existing))
}

func Test_MergePolicyString(t *testing.T) {
	assert.Equal(t, "replace", MergeReplace.String())
	assert.Equal(t, "keep", MergeKeep.String())
	assert.Equal(t, "unknown", MergePolicy(9).String())
}

func Test_PersistWithoutUniqueKey(t *testing.T) {
	c := NewContext(openStore(t))

	first, err := Persist(c, trackBinding, &track{Title: "Paloma"})
	require.NoError(t, err)
	second, err := Persist(c, trackBinding, &track{Title: "Paloma"})
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.ID, second.ID)
	count, err := box.For(c.Store(), trackBinding).Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func Test_PersistSessionIdentity(t *testing.T) {
	c := NewContext(openStore(t))
	assert.Equal(t, MergeReplace, c.Policy())

	first, err := Persist(c, artistBinding, &artist{Name: "Calamaro", Country: "AR"})
	require.NoError(t, err)
	second, err := Persist(c, artistBinding, &artist{Name: "Calamaro", Country: "ES"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "ES", first.Country)

	stored, ok, err := box.For(c.Store(), artistBinding).Get(first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ES", stored.Country)
}

func Test_PersistAcrossSessions(t *testing.T) {
	store := openStore(t)

	first, err := Persist(NewContext(store), artistBinding, &artist{Name: "Calamaro", Country: "AR"})
	require.NoError(t, err)

	keep := NewContext(store, WithMergePolicy(MergeKeep))
	kept, err := Persist(keep, artistBinding, &artist{Name: "Calamaro"})
	require.NoError(t, err)
	assert.NotSame(t, first, kept)
	assert.Equal(t, first.ID, kept.ID)
	assert.Equal(t, "AR", kept.Country)

	keep.Reset()
	again, err := Persist(keep, artistBinding, &artist{Name: "Calamaro"})
	require.NoError(t, err)
	assert.NotSame(t, kept, again)
	assert.Equal(t, first.ID, again.ID)

	count, err := box.For(store, artistBinding).Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_Collect(t *testing.T) {
	c := NewContext(openStore(t))
	s := &artistSerializer{ctx: c}

	array, err := jsontree.ParseArray([]byte(`[{"name":"A"},{"name":"B","country":"AR"},{"name":"A"}]`))
	require.NoError(t, err)
	artists, err := s.FromJSONArray(array)
	require.NoError(t, err)
	require.Len(t, artists, 3)
	assert.Equal(t, "A", artists[0].Name)
	assert.Equal(t, "B", artists[1].Name)
	assert.Same(t, artists[0], artists[2])

	array, err = jsontree.ParseArray([]byte(`[{"name":"C"},{"country":"AR"}]`))
	require.NoError(t, err)
	_, err = s.FromJSONArray(array)
	require.ErrorIs(t, err, jsontree.ErrMissingKey)
	assert.Contains(t, err.Error(), "element 1")
	assert.Contains(t, err.Error(), "artist.name")

	_, found, err := box.For(c.Store(), artistBinding).FindByUniqueKey("C")
	require.NoError(t, err)
	assert.True(t, found)

	array, err = jsontree.ParseArray([]byte(`[{"name":"D"}, "E"]`))
	require.NoError(t, err)
	_, err = s.FromJSONArray(array)
	assert.ErrorIs(t, err, jsontree.ErrTypeMismatch)

	empty, err := s.FromJSONArray(jsontree.NewArray(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func Test_Values(t *testing.T) {
	values := Values([]*track{{ID: 1, Title: "Paloma"}, {ID: 2, Title: "Los Aviones"}})
	assert.Equal(t, []track{{ID: 1, Title: "Paloma"}, {ID: 2, Title: "Los Aviones"}}, values)
}

func Test_Results(t *testing.T) {
	object, err := jsontree.ParseObject([]byte(`{"page": 1, "results": [{"name": "A"}]}`))
	require.NoError(t, err)
	array, err := Results(object)
	require.NoError(t, err)
	assert.Equal(t, 1, array.Length())

	object, err = jsontree.ParseObject([]byte(`{"page": 1}`))
	require.NoError(t, err)
	_, err = Results(object)
	assert.ErrorIs(t, err, jsontree.ErrMissingKey)
}

func Test_Registry(t *testing.T) {
	c := NewContext(openStore(t))
	registry := NewRegistry(c)
	assert.Same(t, c, registry.Context())

	_, err := Lookup[artist](registry)
	assert.ErrorIs(t, err, ErrNotRegistered)

	Register[artist](registry, func(ctx *Context) Serializer[artist] { return &artistSerializer{ctx: ctx} })

	s, err := Lookup[artist](registry)
	require.NoError(t, err)
	assert.Same(t, c, s.(*artistSerializer).ctx)

	entity, err := FromJSONObject[artist](registry, jsontree.NewObject(map[string]any{"name": "A"}))
	require.NoError(t, err)
	assert.Equal(t, "A", entity.Name)

	entities, err := FromJSONArray[artist](registry, jsontree.NewArray([]any{map[string]any{"name": "A"}}))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Same(t, entity, entities[0])

	_, err = FromJSONArray[track](registry, jsontree.NewArray(nil))
	assert.ErrorIs(t, err, ErrNotRegistered)
}
