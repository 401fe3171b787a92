package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cms0/internal/events"
	"cms0/internal/models"
	"cms0/internal/modules"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkTrashRestoreIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("news")
	ctx := context.Background()

	a := env.insertRecord(t, cfg, 1, "A", models.StatusActive, nil)
	b := env.insertRecord(t, cfg, 1, "B", models.StatusActive, nil)
	ids := []uint64{a.ID, b.ID, b.ID, 4242}

	res, err := env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: 1, IDs: ids, Action: models.BulkTrash})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.EqualValues(t, 2, res.Affected)
	assert.Equal(t, "2 news item(s) moved to trash", res.Message)
	assert.Equal(t, models.StatusTrashed, env.status(t, cfg, a.ID))

	res, err = env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: 1, IDs: ids, Action: models.BulkTrash})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.EqualValues(t, 0, res.Affected)
	assert.Equal(t, models.StatusTrashed, env.status(t, cfg, b.ID))

	for i := 0; i < 2; i++ {
		res, err = env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: 1, IDs: ids, Action: models.BulkRestore})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, models.StatusActive, env.status(t, cfg, a.ID))
		assert.Equal(t, models.StatusActive, env.status(t, cfg, b.ID))
	}
	assert.EqualValues(t, 0, res.Affected)
}

func TestBulkChangeListsOnlyAffectedIds(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("news")
	ctx := context.Background()

	const owner = 91
	var (
		mu  sync.Mutex
		got = map[string][]uint64{}
	)
	events.On("catalog.*", func(event string, data interface{}) {
		change, ok := data.(events.CatalogChange)
		if !ok || change.OwnerID != owner {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		got[event] = change.IDs
	})

	active := env.insertRecord(t, cfg, owner, "Active", models.StatusActive, nil)
	trashed := env.insertRecord(t, cfg, owner, "Trashed", models.StatusTrashed, nil)
	foreign := env.insertRecord(t, cfg, owner+1, "Foreign", models.StatusActive, nil)
	ids := []uint64{active.ID, trashed.ID, foreign.ID, 9999}

	res, err := env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: owner, IDs: ids, Action: models.BulkTrash})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Affected)

	res, err = env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: owner, IDs: ids, Action: models.BulkPurge})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)
	events.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{active.ID}, got[events.CatalogTrashed])
	assert.ElementsMatch(t, []uint64{active.ID, trashed.ID}, got[events.CatalogPurged])
	assert.Equal(t, models.StatusActive, env.status(t, cfg, foreign.ID))
}

func TestBulkValidation(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("news")

	_, err := env.catalog.Bulk(context.Background(), cfg, BulkRequest{OwnerID: 1, Action: "explode"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ids")
	assert.Contains(t, verr.Fields, "action")
}

func TestBulkDoesNotCrossModules(t *testing.T) {
	env := setupTestEnv(t)
	news := modules.Resolve("news")
	shop := modules.Resolve("shop")

	product := env.insertRecord(t, shop, 1, "Product", models.StatusActive, nil)

	res, err := env.catalog.Bulk(context.Background(), news, BulkRequest{OwnerID: 1, IDs: []uint64{product.ID}, Action: models.BulkTrash})
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Affected)
	assert.Equal(t, models.StatusActive, env.status(t, shop, product.ID))
}

func TestPurgeRemovesRowAndFiles(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("record")
	ctx := context.Background()

	first := env.upload(t, 1, "a.png")
	second := env.upload(t, 1, "b.jpg")
	foreign := env.upload(t, 2, "c.png")

	record := env.insertRecord(t, cfg, 1, "With files", models.StatusTrashed, map[string]string{
		"media": fmt.Sprintf("%d,%d,%d", first.ID, second.ID, foreign.ID),
	})

	res, err := env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: 1, IDs: []uint64{record.ID}, Action: models.BulkPurge})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Affected)
	assert.Equal(t, "1 record(s) deleted permanently", res.Message)

	_, err = env.catalog.Get(ctx, cfg, 1, record.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, m := range []*models.Media{first, second} {
		_, err := env.store.Open(ctx, m.Path)
		assert.ErrorIs(t, err, ErrObjectNotFound)
		_, err = models.GetMediaByID(m.ID, 1, env.db)
		assert.Error(t, err)
	}

	exists, err := afero.Exists(env.fs, foreign.Path)
	require.NoError(t, err)
	assert.True(t, exists, "media of another user must survive")

	var pending int64
	require.NoError(t, env.db.Model(&models.FileTombstone{}).Count(&pending).Error)
	assert.Zero(t, pending)

	res, err = env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: 1, IDs: []uint64{record.ID}, Action: models.BulkPurge})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.EqualValues(t, 0, res.Affected)
}

// failingStorage refuses deletions until healed.
type failingStorage struct {
	*LocalStorage
	broken bool
}

func (s *failingStorage) Delete(ctx context.Context, key string) error {
	if s.broken {
		return errors.New("bucket unavailable")
	}
	return s.LocalStorage.Delete(ctx, key)
}

type countingEnqueuer struct{ calls int }

func (e *countingEnqueuer) EnqueueSweep(ctx context.Context) error {
	e.calls++
	return nil
}

func TestPurgeDefersFailedDeletionsToSweep(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("news")
	ctx := context.Background()

	store := &failingStorage{LocalStorage: env.store}
	media := NewMediaLibrary(env.db, store)
	enqueuer := &countingEnqueuer{}
	media.SetSweepEnqueuer(enqueuer)
	catalog := NewCatalogService(env.db, media, 2)

	upload, err := media.Upload(ctx, 1, "cover.png", "image/png", []byte("x"))
	require.NoError(t, err)
	record := env.insertRecord(t, cfg, 1, "Doomed", models.StatusActive, map[string]string{"media": fmt.Sprint(upload.ID)})

	store.broken = true
	res, err := catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: 1, IDs: []uint64{record.ID}, Action: models.BulkPurge})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Affected)
	assert.Equal(t, 1, enqueuer.calls)

	var tombstone models.FileTombstone
	require.NoError(t, env.db.Where("path = ?", upload.Path).Take(&tombstone).Error)
	assert.Equal(t, 1, tombstone.Attempts)
	assert.Equal(t, "bucket unavailable", tombstone.LastError)

	store.broken = false
	cleaned, err := media.Sweep(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)

	exists, err := store.Exists(ctx, upload.Path)
	require.NoError(t, err)
	assert.False(t, exists)

	var pending int64
	require.NoError(t, env.db.Model(&models.FileTombstone{}).Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestCleanupSurvivesTombstoneBookkeepingFailure(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	store := &failingStorage{LocalStorage: env.store, broken: true}
	media := NewMediaLibrary(env.db, store)
	enqueuer := &countingEnqueuer{}
	media.SetSweepEnqueuer(enqueuer)

	upload := env.upload(t, 1, "a.png")
	require.NoError(t, env.db.Migrator().DropTable(&models.FileTombstone{}))

	failed := media.cleanup(ctx, []models.FileTombstone{{Base: models.Base{ID: 1}, Path: upload.Path}})
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, enqueuer.calls)
}
