package artifact

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ref := NewRef("linear", "classifier")
	require.NoError(t, store.Put(ctx, ref, []byte("blob")))

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)

	require.NoError(t, store.Put(ctx, ref, []byte("newer")))
	data, err = store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("newer"), data)
}

func TestFileStore_Missing(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(ctx, "linear-vectorizer-gone.gob")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete(ctx, "linear-vectorizer-gone.gob"))
}

func TestFileStore_RejectsPaths(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", "../escape.gob", "nested/ref.gob", ".hidden"} {
		assert.Error(t, store.Put(ctx, ref, []byte("x")), ref)
	}
}

func TestNewRef(t *testing.T) {
	a, b := NewRef("linear", "vectorizer"), NewRef("linear", "vectorizer")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "linear-vectorizer-"))
	assert.True(t, strings.HasSuffix(a, ".gob"))
}
