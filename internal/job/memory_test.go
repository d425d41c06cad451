package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	item := New("cat.png", 5, 30)
	require.NoError(t, repo.Save(ctx, item))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	assert.Equal(t, "cat.png", found.Filename)

	// The repository stores clones; mutating the returned item must not
	// leak back into the stored copy.
	found.Error = "mutated"
	again, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Error)
}

func TestMemoryRepository_SaveUpdates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	item := New("cat.png", 5, 30)
	require.NoError(t, repo.Save(ctx, item))

	require.NoError(t, item.MarkInputStored("/tmp/x"))
	require.NoError(t, repo.Save(ctx, item))

	found, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInputStored, found.Status)
}

func TestMemoryRepository_FindNotFound(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.FindByID(context.Background(), "req-0-deadbeef")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryRepository_List(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.Save(ctx, New("a.png", 5, 30)))
	require.NoError(t, repo.Save(ctx, New("b.png", 5, 30)))

	items, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	item := New("cat.png", 5, 30)
	require.NoError(t, repo.Save(ctx, item))
	require.NoError(t, repo.Delete(ctx, item.ID))

	_, err := repo.FindByID(ctx, item.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, item.ID), ErrJobNotFound)
}
