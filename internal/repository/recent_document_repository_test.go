package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/homelab/netmap/internal/datastore"
	"github.com/jbweber/homelab/netmap/internal/domain"
	"github.com/jbweber/homelab/netmap/internal/testutil"
)

func newTestRepo(t *testing.T) RecentDocumentRepository {
	t.Helper()
	ds, err := datastore.New(testutil.NewTestDSN(t.Name()))
	require.NoError(t, err)
	ds.DB.SetMaxOpenConns(1)
	t.Cleanup(func() { ds.Close() })
	return NewRecentDocumentRepository(ds)
}

func TestRecentDocumentRepository_SaveAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, datastore.RecentDocument{
		Path:        "/home/user/lab.json",
		LastAction:  datastore.ActionLoad,
		DeviceCount: 2,
	})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.AccessedAt.IsZero())

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "/home/user/lab.json", found.Path)
	assert.Equal(t, 2, found.DeviceCount)

	byPath, err := repo.FindByPath(ctx, "/home/user/lab.json")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byPath.ID)

	exists, err := repo.ExistsByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRecentDocumentRepository_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByPath(ctx, "/missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.DeleteByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := repo.ExistsByID(ctx, 99999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecentDocumentRepository_InvalidEntity(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Save(context.Background(), datastore.RecentDocument{LastAction: datastore.ActionSave})
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestRecentDocumentRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, datastore.RecentDocument{Path: "/a.json", LastAction: datastore.ActionSave})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRecentDocumentRepository_RecordKeepsNewest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < MaxRecentDocuments+5; i++ {
		err := repo.Record(ctx, domain.RecentDocument{
			Path:       fmt.Sprintf("/maps/%03d.json", i),
			LastAction: datastore.ActionSave,
			AccessedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, MaxRecentDocuments)
	assert.Equal(t, fmt.Sprintf("/maps/%03d.json", MaxRecentDocuments+4), all[0].Path)

	recent, err := repo.FindRecent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestDatastoreRepository_UnsupportedOperations(t *testing.T) {
	base := NewDatastoreRepository[datastore.RecentDocument, int64](nil)
	ctx := context.Background()

	_, err := base.Save(ctx, datastore.RecentDocument{})
	assert.ErrorIs(t, err, ErrOperationNotSupported)
	_, err = base.FindByID(ctx, 1)
	assert.ErrorIs(t, err, ErrOperationNotSupported)
	_, err = base.FindAll(ctx)
	assert.ErrorIs(t, err, ErrOperationNotSupported)
	assert.ErrorIs(t, base.DeleteByID(ctx, 1), ErrOperationNotSupported)
	_, err = base.ExistsByID(ctx, 1)
	assert.ErrorIs(t, err, ErrOperationNotSupported)
	assert.Nil(t, base.GetDatastore())
}
