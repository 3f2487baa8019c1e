package music

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorex386/Boxfit/box"
	"github.com/memorex386/Boxfit/jsontree"
	"github.com/memorex386/Boxfit/serializer"
)

func openStore(t *testing.T) *box.Store {
	store, err := box.Open(filepath.Join(t.TempDir(), "music.db"), box.WithNoSync())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func results(t *testing.T) *jsontree.Array {
	file, err := os.Open(filepath.Join("testdata", "album_paginated_response.json"))
	require.NoError(t, err)
	defer file.Close()

	response, err := jsontree.ReadObject(file)
	require.NoError(t, err)
	array, err := serializer.Results(response)
	require.NoError(t, err)
	return array
}

func count[T any](t *testing.T, store *box.Store, binding box.Binding[T]) int {
	n, err := box.For(store, binding).Count()
	require.NoError(t, err)
	return n
}

func Test_PaginatedAlbums(t *testing.T) {
	store := openStore(t)

	albums, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(results(t))
	require.NoError(t, err)

	require.Len(t, albums, 3)
	assert.Equal(t, "Honestidad Brutal", albums[0].Name)
	assert.Equal(t, "X", albums[1].Name)
	assert.Equal(t, "Y", albums[2].Name)

	assert.Equal(t, 3, count(t, store, AlbumBinding))
	assert.Equal(t, 2, count(t, store, ArtistBinding))
	assert.Equal(t, 3, count(t, store, TrackBinding))
	assert.Equal(t, 2, count(t, store, CoverBinding))

	assert.Equal(t, "https://img.example.com/honestidad-brutal.jpg", albums[0].Cover.URL)
	assert.NotZero(t, albums[0].Cover.ID)
	assert.Zero(t, albums[1].Cover)
	assert.Equal(t, "https://img.example.com/y.jpg", albums[2].Cover.URL)

	require.Len(t, albums[0].Bonus, 1)
	assert.Equal(t, "Paloma (demo)", albums[0].Bonus[0].Title)
	assert.True(t, albums[0].Bonus[0].Explicit)
	assert.NotZero(t, albums[0].Bonus[0].ID)
	assert.Nil(t, albums[2].Bonus)

	assert.Same(t, albums[0].Artist, albums[1].Artist)
	assert.NotSame(t, albums[0].Artist, albums[2].Artist)
	assert.Equal(t, "Andrés Calamaro", albums[0].Artist.Name)
	assert.Equal(t, "Other Artist", albums[2].Artist.Name)
}

func Test_PrimitiveAndOptionalFields(t *testing.T) {
	store := openStore(t)

	albums, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(results(t))
	require.NoError(t, err)
	require.Len(t, albums, 3)

	first := albums[0]
	assert.Equal(t, 1999, first.Year)
	assert.Equal(t, Genre("rock"), first.Genre)
	require.Len(t, first.Tracks, 2)
	assert.Equal(t, "Paloma", first.Tracks[0].Title)
	assert.Equal(t, int64(311000), first.Tracks[0].Duration)
	assert.False(t, first.Tracks[1].Explicit)

	assert.Zero(t, albums[1].Year)
	assert.Empty(t, albums[1].Genre)
	assert.Nil(t, albums[1].Tracks)
	assert.Equal(t, 2004, albums[2].Year)
}

func Test_IDsAssigned(t *testing.T) {
	store := openStore(t)

	albums, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(results(t))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), albums[0].ID)
	assert.Equal(t, uint64(2), albums[1].ID)
	assert.Equal(t, uint64(3), albums[2].ID)
	assert.Equal(t, albums[0].Artist.ID, albums[1].Artist.ID)
	assert.NotEqual(t, albums[0].Artist.ID, albums[2].Artist.ID)

	stored, ok, err := box.For(store, AlbumBinding).Get(albums[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Honestidad Brutal", stored.Name)
	require.NotNil(t, stored.Artist)
	assert.Equal(t, "Andrés Calamaro", stored.Artist.Name)
	assert.Len(t, stored.Tracks, 2)
	assert.Equal(t, albums[0].Cover, stored.Cover)
	assert.Equal(t, albums[0].Bonus, stored.Bonus)
}

func Test_StoredRelationsFollowMerges(t *testing.T) {
	store := openStore(t)

	albums, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(results(t))
	require.NoError(t, err)

	artist, ok, err := box.For(store, ArtistBinding).FindByUniqueKey("Andrés Calamaro")
	require.NoError(t, err)
	require.True(t, ok)

	stored, ok, err := box.For(store, AlbumBinding).Get(albums[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, stored.Artist)
	assert.Equal(t, *artist, *stored.Artist)
	assert.Empty(t, stored.Artist.Country)

	all, err := box.For(store, AlbumBinding).All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Same(t, all[0].Artist, all[1].Artist)
	assert.Equal(t, *artist, *all[0].Artist)
	assert.Equal(t, "Other Artist", all[2].Artist.Name)
}

func Test_MergeReplaceTakesIncomingFields(t *testing.T) {
	store := openStore(t)

	albums, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(results(t))
	require.NoError(t, err)

	artist, ok, err := box.For(store, ArtistBinding).FindByUniqueKey("Andrés Calamaro")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, albums[0].Artist.ID, artist.ID)
	assert.Empty(t, artist.Country)
}

func Test_MergeKeepPreservesStoredFields(t *testing.T) {
	store := openStore(t)

	ctx := serializer.NewContext(store, serializer.WithMergePolicy(serializer.MergeKeep))
	albums, err := NewAlbumSerializer(ctx).FromJSONArray(results(t))
	require.NoError(t, err)

	assert.Same(t, albums[0].Artist, albums[1].Artist)
	artist, ok, err := box.For(store, ArtistBinding).FindByUniqueKey("Andrés Calamaro")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "AR", artist.Country)
}

func Test_DedupAcrossSessions(t *testing.T) {
	store := openStore(t)

	first, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(results(t))
	require.NoError(t, err)
	second, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(results(t))
	require.NoError(t, err)

	assert.Equal(t, 6, count(t, store, AlbumBinding))
	assert.Equal(t, 2, count(t, store, ArtistBinding))
	assert.Equal(t, first[0].Artist.ID, second[0].Artist.ID)
	assert.Equal(t, first[2].Artist.ID, second[2].Artist.ID)
}

func Test_Registry(t *testing.T) {
	store := openStore(t)

	registry := serializer.NewRegistry(serializer.NewContext(store))
	RegisterSerializers(registry)

	albums, err := serializer.FromJSONArray[Album](registry, results(t))
	require.NoError(t, err)
	assert.Len(t, albums, 3)

	artist, err := serializer.FromJSONObject[Artist](registry, jsontree.NewObject(map[string]any{"name": "Other Artist"}))
	require.NoError(t, err)
	assert.Same(t, albums[2].Artist, artist)

	_, err = serializer.FromJSONObject[Genre](registry, jsontree.NewObject(nil))
	assert.ErrorIs(t, err, serializer.ErrNotRegistered)
}

func Test_MissingRequiredField(t *testing.T) {
	store := openStore(t)

	object, err := jsontree.ParseObject([]byte(`{"artist":{"name":"A"}}`))
	require.NoError(t, err)

	_, err = NewAlbumSerializer(serializer.NewContext(store)).FromJSONObject(object)
	require.ErrorIs(t, err, jsontree.ErrMissingKey)
	assert.Contains(t, err.Error(), "Album.name")
	assert.Equal(t, 0, count(t, store, AlbumBinding))
}

func Test_WrongShape(t *testing.T) {
	store := openStore(t)

	object, err := jsontree.ParseObject([]byte(`{"name":"A","artist":"someone"}`))
	require.NoError(t, err)

	_, err = NewAlbumSerializer(serializer.NewContext(store)).FromJSONObject(object)
	require.ErrorIs(t, err, jsontree.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "Album.artist")
}

func Test_EarlierElementsStayPersisted(t *testing.T) {
	store := openStore(t)

	array, err := jsontree.ParseArray([]byte(`[{"name":"A","artist":{"name":"B"}},{"artist":{"name":"C"}}]`))
	require.NoError(t, err)

	albums, err := NewAlbumSerializer(serializer.NewContext(store)).FromJSONArray(array)
	require.Error(t, err)
	assert.Nil(t, albums)
	assert.Contains(t, err.Error(), "element 1")
	assert.Equal(t, 1, count(t, store, AlbumBinding))
	assert.Equal(t, 1, count(t, store, ArtistBinding))
}
