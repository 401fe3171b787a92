package services

import (
	"context"
	"encoding/json"
	"testing"

	database "cms0/internal/db"
	"cms0/internal/models"
	"cms0/internal/modules"
	"cms0/internal/utils/logger"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	fs      afero.Fs
	store   *LocalStorage
	media   *MediaLibrary
	catalog *CatalogService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.Mute(true)

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	fs := afero.NewMemMapFs()
	store := NewLocalStorageFs(fs, "http://cms.test")
	media := NewMediaLibrary(db, store)

	return &testEnv{
		db:      db,
		fs:      fs,
		store:   store,
		media:   media,
		catalog: NewCatalogService(db, media, 2),
	}
}

// insertRecord writes a row directly, bypassing the editor.
func (e *testEnv) insertRecord(t *testing.T, cfg modules.Config, owner uint64, title string, status models.RecordStatus, data map[string]string) models.CatalogRecord {
	t.Helper()
	blob, err := json.Marshal(data)
	require.NoError(t, err)
	record := models.CatalogRecord{
		UsersID:      owner,
		RelatedTable: cfg.RelatedTable,
		Title:        title,
		Status:       status,
		Data:         blob,
	}
	require.NoError(t, e.db.Table(cfg.CatalogTable).Create(&record).Error)
	return record
}

func (e *testEnv) upload(t *testing.T, owner uint64, name string) *models.Media {
	t.Helper()
	m, err := e.media.Upload(context.Background(), owner, name, "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	return m
}

func (e *testEnv) status(t *testing.T, cfg modules.Config, id uint64) models.RecordStatus {
	t.Helper()
	var record models.CatalogRecord
	require.NoError(t, e.db.Table(cfg.CatalogTable).Where("id = ?", id).Take(&record).Error)
	return record.Status
}

func statusPtr(s models.RecordStatus) *models.RecordStatus {
	return &s
}
