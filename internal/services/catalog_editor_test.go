package services

import (
	"context"
	"fmt"
	"testing"

	"cms0/internal/models"
	"cms0/internal/modules"
	"cms0/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCreatesAndMerges(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("shop")
	ctx := context.Background()

	created, err := env.catalog.Save(ctx, cfg, EditRequest{
		OwnerID: 7,
		Title:   "  Lamp ",
		Data:    map[string]interface{}{"price": 12.5, "sku": "L-1", "stock": "3"},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.EqualValues(t, 7, created.UsersID)
	assert.Equal(t, "shop", created.RelatedTable)
	assert.Equal(t, "Lamp", created.Title)
	assert.Equal(t, models.StatusActive, created.Status)

	updated, err := env.catalog.Save(ctx, cfg, EditRequest{
		OwnerID: 7,
		ID:      created.ID,
		Title:   "Desk lamp",
		Status:  statusPtr(models.StatusTrashed),
		Data:    map[string]interface{}{"sku": nil, "description": "Brass"},
	})
	require.NoError(t, err)

	stored, err := env.catalog.Get(ctx, cfg, 7, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", stored.Title)
	assert.Equal(t, models.StatusTrashed, stored.Status)
	assert.Equal(t, updated.ID, stored.ID)

	data, err := utils.JSONToMap(stored.Data)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"price": "12.5", "stock": "3", "description": "Brass"}, data)

	page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 7, Status: models.StatusTrashed, Search: "DESK"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	page, err = env.catalog.List(ctx, cfg, ListQuery{OwnerID: 7, Status: models.StatusTrashed, Search: "lamp "})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestSaveValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		module string
		req    EditRequest
		fields []string
	}{
		{
			name:   "missing title and price",
			module: "shop",
			req:    EditRequest{OwnerID: 1},
			fields: []string{"title", "data.price"},
		},
		{
			name:   "unknown key",
			module: "news",
			req:    EditRequest{OwnerID: 1, Title: "x", Data: map[string]interface{}{"color": "red"}},
			fields: []string{"data.color"},
		},
		{
			name:   "non-scalar value",
			module: "news",
			req:    EditRequest{OwnerID: 1, Title: "x", Data: map[string]interface{}{"summary": []interface{}{"a"}}},
			fields: []string{"data.summary"},
		},
		{
			name:   "bad slug",
			module: "pages",
			req:    EditRequest{OwnerID: 1, Title: "About", Data: map[string]interface{}{"slug": "About Us"}},
			fields: []string{"data.slug"},
		},
		{
			name:   "bad status",
			module: "record",
			req:    EditRequest{OwnerID: 1, Title: "x", Status: statusPtr(3)},
			fields: []string{"status"},
		},
		{
			name:   "bad date",
			module: "news",
			req:    EditRequest{OwnerID: 1, Title: "x", Data: map[string]interface{}{"published_at": "yesterday"}},
			fields: []string{"data.published_at"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.Save(ctx, modules.Resolve(tt.module), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tt.fields))
		})
	}

	var count int64
	require.NoError(t, env.db.Table(modules.TableCatalog).Count(&count).Error)
	assert.Zero(t, count, "failed saves must not persist")
}

func TestSaveChecksReferences(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("news")
	ctx := context.Background()

	foreignCategory := env.insertRecord(t, modules.Config{CatalogTable: modules.TableCatalog, RelatedTable: cfg.ParentRelatedTable}, 2, "Theirs", models.StatusActive, nil)
	foreignMedia := env.upload(t, 2, "x.png")
	ownMedia := env.upload(t, 1, "y.png")

	_, err := env.catalog.Save(ctx, cfg, EditRequest{OwnerID: 1, Title: "x", Author: fmt.Sprint(foreignCategory.ID)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "author")

	_, err = env.catalog.Save(ctx, cfg, EditRequest{OwnerID: 1, Title: "x", Data: map[string]interface{}{"media": fmt.Sprint(foreignMedia.ID)}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "data.media")

	saved, err := env.catalog.Save(ctx, cfg, EditRequest{OwnerID: 1, Title: "x", Author: "editor", Data: map[string]interface{}{"media": fmt.Sprint(ownMedia.ID)}})
	require.NoError(t, err)
	assert.Equal(t, "editor", saved.Author)
	assert.Equal(t, "http://cms.test/media/"+ownMedia.Path, saved.Thumbnail)
}

func TestSaveCategoryOnModuleWithoutCategories(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.catalog.Save(context.Background(), modules.Resolve("pages"), EditRequest{OwnerID: 1, Title: "x", Categories: true})
	assert.ErrorIs(t, err, ErrNoCategories)
}
