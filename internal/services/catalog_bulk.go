package services

import (
	"context"
	"fmt"
	"time"

	"cms0/internal/events"
	"cms0/internal/models"
	"cms0/internal/modules"

	"gorm.io/gorm"
)

type BulkRequest struct {
	OwnerID    uint64
	IDs        []uint64
	Action     models.BulkAction
	Categories bool
}

type BulkResult struct {
	Success  bool   `json:"success"`
	Affected int64  `json:"affected"`
	Message  string `json:"message"`
}

// Bulk applies req.Action to the ids of req that belong to the owner. Foreign
// or stale ids are skipped without error.
func (s *CatalogService) Bulk(ctx context.Context, cfg modules.Config, req BulkRequest) (*BulkResult, error) {
	if err := checkCategories(cfg, req.Categories); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if !req.Action.Valid() {
		verr.add("action", "must be one of [trash restore purge]")
	}
	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 {
		verr.add("ids", "select at least one row")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	var (
		changed []uint64
		err     error
		message string
		event   string
	)
	switch req.Action {
	case models.BulkTrash:
		changed, err = s.setStatus(ctx, cfg, req, ids, models.StatusTrashed)
		message, event = cfg.Messages.Trashed, events.CatalogTrashed
	case models.BulkRestore:
		changed, err = s.setStatus(ctx, cfg, req, ids, models.StatusActive)
		message, event = cfg.Messages.Restored, events.CatalogRestored
	case models.BulkPurge:
		changed, err = s.purge(ctx, cfg, req, ids)
		message, event = cfg.Messages.Purged, events.CatalogPurged
	}
	if err != nil {
		return nil, err
	}

	affected := int64(len(changed))
	if affected > 0 {
		events.Emit(event, events.CatalogChange{
			Module:   string(cfg.Kind),
			OwnerID:  req.OwnerID,
			IDs:      changed,
			Affected: affected,
		})
	}

	return &BulkResult{
		Success:  true,
		Affected: affected,
		Message:  fmt.Sprintf(message, affected),
	}, nil
}

// setStatus only touches rows not already in the target state, so repeating
// an action reports zero affected rows. It returns the ids it changed.
func (s *CatalogService) setStatus(ctx context.Context, cfg modules.Config, req BulkRequest, ids []uint64, status models.RecordStatus) ([]uint64, error) {
	var changed []uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.scoped(ctx, tx, cfg, req.OwnerID, req.Categories).
			Where("id IN ? AND status <> ?", ids, status).
			Order("id ASC").
			Pluck("id", &changed).Error; err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		return s.scoped(ctx, tx, cfg, req.OwnerID, req.Categories).
			Where("id IN ?", changed).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Action, cfg.Kind, err)
	}
	return changed, nil
}

// purge deletes the rows with their media in one transaction and removes the
// stored files once it has committed. It returns the ids it deleted.
func (s *CatalogService) purge(ctx context.Context, cfg modules.Config, req BulkRequest, ids []uint64) ([]uint64, error) {
	var (
		owned      []uint64
		tombstones []models.FileTombstone
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.CatalogRecord
		if err := s.scoped(ctx, tx, cfg, req.OwnerID, req.Categories).
			Where("id IN ?", ids).
			Select("id", "data").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("load rows: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		owned = make([]uint64, 0, len(rows))
		var mediaIDs []uint64
		for i := range rows {
			owned = append(owned, rows[i].ID)
			if list, err := ParseIDList(mediaField(&rows[i])); err == nil {
				mediaIDs = append(mediaIDs, list...)
			}
		}

		res := s.scoped(ctx, tx, cfg, req.OwnerID, req.Categories).
			Where("id IN ?", owned).
			Delete(&models.CatalogRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete rows: %w", res.Error)
		}

		if s.media != nil {
			var err error
			tombstones, err = s.media.detach(tx, req.OwnerID, uniqueIDs(mediaIDs))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purge %s: %w", cfg.Kind, err)
	}

	if len(tombstones) > 0 {
		s.media.cleanup(ctx, tombstones)
	}
	return owned, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
