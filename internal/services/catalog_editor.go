package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cms0/internal/events"
	"cms0/internal/models"
	"cms0/internal/modules"
	"cms0/internal/utils"

	"gorm.io/gorm"
)

type EditRequest struct {
	OwnerID    uint64
	ID         uint64 // zero creates a new row
	Title      string
	Author     string
	Status     *models.RecordStatus
	Data       map[string]interface{}
	Categories bool
}

// Save creates or updates one row. Submitted extra data is merged into the
// stored blob; a null value removes the key.
func (s *CatalogService) Save(ctx context.Context, cfg modules.Config, req EditRequest) (*models.CatalogRecord, error) {
	if err := checkCategories(cfg, req.Categories); err != nil {
		return nil, err
	}

	var existing *models.CatalogRecord
	if req.ID != 0 {
		var record models.CatalogRecord
		err := s.scoped(ctx, s.db, cfg, req.OwnerID, req.Categories).Where("id = ?", req.ID).Take(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load %s %d: %w", cfg.Kind, req.ID, err)
		}
		existing = &record
	}

	verr := &ValidationError{}
	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)

	if err := s.validate.Var(title, "required,max=255"); err != nil {
		verr.add("title", describeRule(err))
	}
	if err := s.validate.Var(author, "max=64"); err != nil {
		verr.add("author", describeRule(err))
	}

	status := models.StatusActive
	if existing != nil {
		status = existing.Status
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			verr.add("status", "must be 0 or 1")
		}
		status = *req.Status
	}

	var stored map[string]interface{}
	if existing != nil {
		var err error
		if stored, err = utils.JSONToMap(existing.Data); err != nil {
			return nil, fmt.Errorf("decode %s %d data: %w", cfg.Kind, req.ID, err)
		}
	}
	data := s.mergeData(cfg.FieldSet(req.Categories), stored, req.Data, verr)

	if len(verr.Fields) == 0 {
		s.checkReferences(ctx, cfg, req, author, data, verr)
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	blob, err := utils.MapToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}

	var record models.CatalogRecord
	if existing == nil {
		record = models.CatalogRecord{
			UsersID:      req.OwnerID,
			RelatedTable: cfg.Discriminator(req.Categories),
			Author:       author,
			Title:        title,
			Status:       status,
			Data:         blob,
		}
		if err := s.db.WithContext(ctx).Table(cfg.CatalogTable).Create(&record).Error; err != nil {
			return nil, fmt.Errorf("create %s: %w", cfg.Kind, err)
		}
	} else {
		record = *existing
		record.Author = author
		record.Title = title
		record.Status = status
		record.Data = blob
		record.UpdatedAt = time.Now()

		res := s.scoped(ctx, s.db, cfg, req.OwnerID, req.Categories).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"author":       record.Author,
				"title":        record.Title,
				"search_title": models.SearchKey(record.Title),
				"status":       record.Status,
				"data":         record.Data,
				"updated_at":   record.UpdatedAt,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("update %s %d: %w", cfg.Kind, record.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	events.Emit(events.CatalogSaved, events.CatalogChange{
		Module:   string(cfg.Kind),
		OwnerID:  req.OwnerID,
		IDs:      []uint64{record.ID},
		Affected: 1,
	})

	s.attachThumbnail(ctx, req.OwnerID, &record)
	return &record, nil
}

// mergeData applies submitted values over stored ones and validates the
// result against the module's field rules. Keys outside the allowlist are
// rejected; stored keys that are no longer declared are kept as they are.
func (s *CatalogService) mergeData(fields []modules.Field, stored, submitted map[string]interface{}, verr *ValidationError) map[string]interface{} {
	merged := make(map[string]interface{}, len(stored)+len(submitted))
	for k, v := range stored {
		merged[k] = v
	}

	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f.Name] = true
	}

	for key, raw := range submitted {
		field := "data." + key
		if !allowed[key] {
			verr.add(field, "is not an allowed field")
			continue
		}
		if raw == nil {
			delete(merged, key)
			continue
		}
		value, ok := scalarString(raw)
		if !ok {
			verr.add(field, "must be a scalar value")
			continue
		}
		merged[key] = strings.TrimSpace(value)
	}

	for _, f := range fields {
		value, _ := scalarString(merged[f.Name])
		if err := s.validate.Var(value, f.Rule); err != nil {
			verr.add("data."+f.Name, describeRule(err))
		}
	}
	return merged
}

// checkReferences verifies that the parent category and the attached media
// belong to the caller.
func (s *CatalogService) checkReferences(ctx context.Context, cfg modules.Config, req EditRequest, author string, data map[string]interface{}, verr *ValidationError) {
	if !req.Categories && cfg.HasCategories() && author != "" {
		if parentID, err := strconv.ParseUint(author, 10, 64); err == nil {
			var count int64
			err := s.scoped(ctx, s.db, cfg, req.OwnerID, true).Where("id = ?", parentID).Count(&count).Error
			if err != nil || count == 0 {
				verr.add("author", "must reference one of your categories")
			}
		}
	}

	raw, submitted := req.Data["media"]
	if !submitted || raw == nil || s.media == nil {
		return
	}
	list, _ := data["media"].(string)
	ids, err := ParseIDList(list)
	if err != nil {
		verr.add("data.media", "must be a comma-separated list of media ids")
		return
	}
	missing, err := s.media.Missing(ctx, req.OwnerID, ids)
	if err != nil || len(missing) > 0 {
		verr.add("data.media", "references unknown media")
	}
}

// scalarString renders a JSON or form scalar as the string stored in the blob.
func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
