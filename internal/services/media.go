package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"cms0/internal/events"
	"cms0/internal/models"
	"cms0/internal/utils/logger"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// SweepEnqueuer schedules an out-of-band media sweep.
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context) error
}

// MediaLibrary owns media rows and their stored files.
type MediaLibrary struct {
	db       *gorm.DB
	storage  Storage
	enqueuer SweepEnqueuer
	logger   *logger.Logger
}

func NewMediaLibrary(db *gorm.DB, storage Storage) *MediaLibrary {
	return &MediaLibrary{
		db:      db,
		storage: storage,
		logger:  logger.New("media"),
	}
}

// SetSweepEnqueuer lets failed deletions trigger an early sweep.
func (l *MediaLibrary) SetSweepEnqueuer(e SweepEnqueuer) {
	l.enqueuer = e
}

func (l *MediaLibrary) Storage() Storage {
	return l.storage
}

// Upload stores body and records it for ownerID. The stored file is removed
// again when the row cannot be written.
func (l *MediaLibrary) Upload(ctx context.Context, ownerID uint64, name, contentType string, body []byte) (*models.Media, error) {
	if len(body) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"file": "is empty"}}
	}
	if IsActiveContent(name, contentType) {
		return nil, &ValidationError{Fields: map[string]string{"file": "type is not allowed"}}
	}

	key, err := l.storage.Put(ctx, name, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("store media: %w", err)
	}

	media := &models.Media{
		UsersID: ownerID,
		Path:    key,
		Name:    name,
		Size:    int64(len(body)),
		Type:    contentType,
	}
	if err := l.db.WithContext(ctx).Create(media).Error; err != nil {
		if derr := l.storage.Delete(ctx, key); derr != nil {
			l.logger.Warn("Failed to remove %s after insert error: %v", key, derr)
		}
		return nil, fmt.Errorf("insert media: %w", err)
	}

	events.Emit(events.MediaUploaded, media.ID)
	return media, nil
}

// List returns the media of ownerID, newest first.
func (l *MediaLibrary) List(ctx context.Context, ownerID uint64) ([]models.Media, error) {
	media := make([]models.Media, 0)
	if err := l.db.WithContext(ctx).Where("users_id = ?", ownerID).Order("id DESC").Find(&media).Error; err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return media, nil
}

// Resolve returns the media rows of ownerID among ids, in the order of ids.
func (l *MediaLibrary) Resolve(ctx context.Context, ownerID uint64, ids []uint64) ([]models.Media, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Media
	if err := l.db.WithContext(ctx).Where("users_id = ? AND id IN ?", ownerID, ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("resolve media: %w", err)
	}
	byID := make(map[uint64]models.Media, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	ordered := make([]models.Media, 0, len(found))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			ordered = append(ordered, m)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// Thumbnail returns the URL of the first resolvable media in a
// comma-separated id list, or "" when none resolves.
func (l *MediaLibrary) Thumbnail(ctx context.Context, ownerID uint64, idList string) (string, error) {
	ids, err := ParseIDList(idList)
	if err != nil || len(ids) == 0 {
		return "", nil
	}
	media, err := l.Resolve(ctx, ownerID, ids)
	if err != nil || len(media) == 0 {
		return "", err
	}
	return l.storage.URL(ctx, media[0].Path)
}

// Missing returns the ids that are not media of ownerID.
func (l *MediaLibrary) Missing(ctx context.Context, ownerID uint64, ids []uint64) ([]uint64, error) {
	media, err := l.Resolve(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	have := make(map[uint64]bool, len(media))
	for _, m := range media {
		have[m.ID] = true
	}
	var missing []uint64
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Delete removes media of ownerID and their files.
func (l *MediaLibrary) Delete(ctx context.Context, ownerID uint64, ids []uint64) (int64, error) {
	var tombstones []models.FileTombstone
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tombstones, err = l.detach(tx, ownerID, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	l.cleanup(ctx, tombstones)
	return int64(len(tombstones)), nil
}

// detach deletes media rows inside tx and leaves a tombstone per file.
func (l *MediaLibrary) detach(tx *gorm.DB, ownerID uint64, ids []uint64) ([]models.FileTombstone, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var media []models.Media
	if err := tx.Where("users_id = ? AND id IN ?", ownerID, ids).Find(&media).Error; err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	if len(media) == 0 {
		return nil, nil
	}

	mediaIDs := make([]uint64, 0, len(media))
	tombstones := make([]models.FileTombstone, 0, len(media))
	for _, m := range media {
		mediaIDs = append(mediaIDs, m.ID)
		tombstones = append(tombstones, models.FileTombstone{Path: m.Path})
	}

	if err := tx.Create(&tombstones).Error; err != nil {
		return nil, fmt.Errorf("record tombstones: %w", err)
	}
	if err := tx.Where("id IN ?", mediaIDs).Delete(&models.Media{}).Error; err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return tombstones, nil
}

// cleanupConcurrency bounds parallel storage deletes.
const cleanupConcurrency = 4

// cleanup deletes the files behind committed tombstones. Files that cannot be
// deleted keep their tombstone and a sweep is requested.
func (l *MediaLibrary) cleanup(ctx context.Context, tombstones []models.FileTombstone) (failed int) {
	failed = l.deleteFiles(ctx, tombstones)
	if failed > 0 && l.enqueuer != nil {
		if err := l.enqueuer.EnqueueSweep(ctx); err != nil {
			l.logger.Warn("Failed to enqueue media sweep: %v", err)
		}
	}
	return failed
}

// deleteFiles removes each file and its tombstone, and returns how many
// files are still pending.
func (l *MediaLibrary) deleteFiles(ctx context.Context, tombstones []models.FileTombstone) int {
	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(cleanupConcurrency)

	for _, ts := range tombstones {
		g.Go(func() error {
			if err := l.storage.Delete(ctx, ts.Path); err != nil {
				failed.Add(1)
				l.logger.Warn("Deferred deletion of %s: %v", ts.Path, err)
				res := l.db.WithContext(ctx).Model(&models.FileTombstone{}).Where("id = ?", ts.ID).Updates(map[string]interface{}{
					"attempts":    gorm.Expr("attempts + 1"),
					"last_error":  err.Error(),
					"last_try_at": time.Now(),
				})
				if res.Error != nil {
					l.logger.Warn("Failed to record attempt on tombstone %d: %v", ts.ID, res.Error)
				}
				return nil
			}
			if err := l.db.WithContext(ctx).Delete(&models.FileTombstone{}, ts.ID).Error; err != nil {
				l.logger.Warn("Failed to clear tombstone %d: %v", ts.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

// Sweep retries up to limit pending file deletions and returns how many
// files were removed. It never requests another sweep.
func (l *MediaLibrary) Sweep(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	var pending []models.FileTombstone
	if err := l.db.WithContext(ctx).Order("last_try_at ASC, id ASC").Limit(limit).Find(&pending).Error; err != nil {
		return 0, fmt.Errorf("load tombstones: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	failed := l.deleteFiles(ctx, pending)
	cleaned := len(pending) - failed
	l.logger.Info("Media sweep removed %d of %d pending files", cleaned, len(pending))
	return cleaned, nil
}

// ParseIDList parses "3, 5,8" into ids. Empty items are skipped.
func ParseIDList(s string) ([]uint64, error) {
	var ids []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
