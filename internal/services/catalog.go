package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cms0/internal/models"
	"cms0/internal/modules"
	"cms0/internal/utils"
	"cms0/internal/utils/logger"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var ErrNoCategories = errors.New("module has no categories")

const defaultPageSize = 20

// CatalogService lists, edits and bulk-updates catalog rows of any module.
// Every query is scoped to the calling owner and to the module discriminator.
type CatalogService struct {
	db       *gorm.DB
	media    *MediaLibrary
	pageSize int
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCatalogService(db *gorm.DB, media *MediaLibrary, pageSize int) *CatalogService {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &CatalogService{
		db:       db,
		media:    media,
		pageSize: pageSize,
		validate: newValidator(),
		logger:   logger.New("catalog"),
	}
}

type ListQuery struct {
	OwnerID    uint64
	Status     models.RecordStatus
	Search     string
	ParentID   string
	Page       int
	Categories bool
}

type Page struct {
	Items      []models.CatalogRecord `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}

// scoped selects the rows of owner within the module's items or categories.
func (s *CatalogService) scoped(ctx context.Context, db *gorm.DB, cfg modules.Config, ownerID uint64, categories bool) *gorm.DB {
	return db.WithContext(ctx).
		Table(cfg.CatalogTable).
		Where("users_id = ? AND related_table = ?", ownerID, cfg.Discriminator(categories))
}

func checkCategories(cfg modules.Config, categories bool) error {
	if categories && !cfg.HasCategories() {
		return ErrNoCategories
	}
	return nil
}

// List returns one page of the owner's rows matching q, ordered by id.
func (s *CatalogService) List(ctx context.Context, cfg modules.Config, q ListQuery) (*Page, error) {
	if err := checkCategories(cfg, q.Categories); err != nil {
		return nil, err
	}
	if !q.Status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"trash": "must be 0 or 1"}}
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	search := strings.TrimSpace(q.Search)
	parent := strings.TrimSpace(q.ParentID)
	filter := func() *gorm.DB {
		tx := s.scoped(ctx, s.db, cfg, q.OwnerID, q.Categories).Where("status = ?", q.Status)
		if parent != "" {
			tx = tx.Where("author = ?", parent)
		}
		if search != "" {
			tx = tx.Where(`search_title LIKE ? ESCAPE '\'`, "%"+escapeLike(models.SearchKey(search))+"%")
		}
		return tx
	}

	var total int64
	if err := filter().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count %s: %w", cfg.Kind, err)
	}

	result := &Page{
		Items:      make([]models.CatalogRecord, 0),
		Total:      total,
		Page:       page,
		PageSize:   s.pageSize,
		TotalPages: int((total + int64(s.pageSize) - 1) / int64(s.pageSize)),
	}
	if page > result.TotalPages {
		return result, nil
	}

	err := filter().
		Order("id ASC").
		Offset((page - 1) * s.pageSize).
		Limit(s.pageSize).
		Find(&result.Items).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cfg.Kind, err)
	}

	for i := range result.Items {
		s.attachThumbnail(ctx, q.OwnerID, &result.Items[i])
	}
	return result, nil
}

// Get returns a single row of owner for the edit form.
func (s *CatalogService) Get(ctx context.Context, cfg modules.Config, ownerID, id uint64, categories bool) (*models.CatalogRecord, error) {
	if err := checkCategories(cfg, categories); err != nil {
		return nil, err
	}
	var record models.CatalogRecord
	err := s.scoped(ctx, s.db, cfg, ownerID, categories).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", cfg.Kind, id, err)
	}
	s.attachThumbnail(ctx, ownerID, &record)
	return &record, nil
}

func (s *CatalogService) attachThumbnail(ctx context.Context, ownerID uint64, record *models.CatalogRecord) {
	if s.media == nil {
		return
	}
	ids := mediaField(record)
	if ids == "" {
		return
	}
	url, err := s.media.Thumbnail(ctx, ownerID, ids)
	if err != nil {
		s.logger.Warn("Thumbnail lookup failed for record %d: %v", record.ID, err)
		return
	}
	record.Thumbnail = url
}

// mediaField returns the raw "media" id list of a row's extra data.
func mediaField(record *models.CatalogRecord) string {
	data, err := utils.JSONToMap(record.Data)
	if err != nil {
		return ""
	}
	v, _ := data["media"].(string)
	return v
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
