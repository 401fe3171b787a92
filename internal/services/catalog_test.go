package services

import (
	"context"
	"fmt"
	"testing"

	"cms0/internal/models"
	"cms0/internal/modules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPagination(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("news")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		env.insertRecord(t, cfg, 1, fmt.Sprintf("Item %d", i), models.StatusActive, nil)
	}

	t.Run("first page", func(t *testing.T) {
		page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive, Page: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 5, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Item 1", page.Items[0].Title)
		assert.Equal(t, "Item 2", page.Items[1].Title)
	})

	t.Run("last page holds the remainder", func(t *testing.T) {
		page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive, Page: 3})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Item 5", page.Items[0].Title)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive, Page: 4})
		require.NoError(t, err)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Equal(t, 3, page.TotalPages)
	})

	t.Run("page below one is the first page", func(t *testing.T) {
		page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive, Page: -3})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, "Item 1", page.Items[0].Title)
	})
}

func TestListFilters(t *testing.T) {
	env := setupTestEnv(t)
	news := modules.Resolve("news")
	shop := modules.Resolve("shop")
	ctx := context.Background()

	env.insertRecord(t, news, 1, "Summer Sale", models.StatusActive, nil)
	env.insertRecord(t, news, 1, "winter sale", models.StatusActive, nil)
	env.insertRecord(t, news, 1, "Old sale", models.StatusTrashed, nil)
	env.insertRecord(t, news, 1, "100% off", models.StatusActive, nil)
	env.insertRecord(t, news, 1, "Новости недели", models.StatusActive, nil)
	env.insertRecord(t, news, 2, "Sale of user two", models.StatusActive, nil)
	env.insertRecord(t, shop, 1, "Sale product", models.StatusActive, nil)

	t.Run("case-insensitive search", func(t *testing.T) {
		page, err := env.catalog.List(ctx, news, ListQuery{OwnerID: 1, Status: models.StatusActive, Search: "SALE"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
	})

	t.Run("case-insensitive search beyond ascii", func(t *testing.T) {
		page, err := env.catalog.List(ctx, news, ListQuery{OwnerID: 1, Status: models.StatusActive, Search: "новост"})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, "Новости недели", page.Items[0].Title)

		page, err = env.catalog.List(ctx, news, ListQuery{OwnerID: 1, Status: models.StatusActive, Search: "НЕДЕЛ"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, page.Total)
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		page, err := env.catalog.List(ctx, news, ListQuery{OwnerID: 1, Status: models.StatusActive, Search: "%"})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, "100% off", page.Items[0].Title)
	})

	t.Run("trash view", func(t *testing.T) {
		page, err := env.catalog.List(ctx, news, ListQuery{OwnerID: 1, Status: models.StatusTrashed})
		require.NoError(t, err)
		require.EqualValues(t, 1, page.Total)
		assert.Equal(t, "Old sale", page.Items[0].Title)
	})

	t.Run("zero matches", func(t *testing.T) {
		page, err := env.catalog.List(ctx, news, ListQuery{OwnerID: 1, Status: models.StatusActive, Search: "спорт"})
		require.NoError(t, err)
		assert.EqualValues(t, 0, page.Total)
		assert.Equal(t, 0, page.TotalPages)
		assert.Empty(t, page.Items)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := env.catalog.List(ctx, news, ListQuery{OwnerID: 1, Status: 7})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("pages have no categories", func(t *testing.T) {
		_, err := env.catalog.List(ctx, modules.Resolve("pages"), ListQuery{OwnerID: 1, Status: models.StatusActive, Categories: true})
		assert.ErrorIs(t, err, ErrNoCategories)
	})
}

func TestListParentFilter(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("record")
	ctx := context.Background()

	category, err := env.catalog.Save(ctx, cfg, EditRequest{OwnerID: 1, Title: "Books", Categories: true})
	require.NoError(t, err)
	parent := fmt.Sprint(category.ID)

	_, err = env.catalog.Save(ctx, cfg, EditRequest{OwnerID: 1, Title: "In category", Author: parent})
	require.NoError(t, err)
	_, err = env.catalog.Save(ctx, cfg, EditRequest{OwnerID: 1, Title: "Loose"})
	require.NoError(t, err)

	page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive, ParentID: parent})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "In category", page.Items[0].Title)

	categories, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive, Categories: true})
	require.NoError(t, err)
	require.Len(t, categories.Items, 1)
	assert.Equal(t, "record_category", categories.Items[0].RelatedTable)
}

func TestOwnerIsolation(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("shop")
	ctx := context.Background()

	mine := env.insertRecord(t, cfg, 1, "Mine", models.StatusActive, map[string]string{"price": "1"})
	theirs := env.insertRecord(t, cfg, 2, "Theirs", models.StatusActive, map[string]string{"price": "2"})

	page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	_, err = env.catalog.Get(ctx, cfg, 1, theirs.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.catalog.Save(ctx, cfg, EditRequest{OwnerID: 1, ID: theirs.ID, Title: "Hijacked", Data: map[string]interface{}{"price": "0"}})
	assert.ErrorIs(t, err, ErrNotFound)

	for _, action := range []models.BulkAction{models.BulkTrash, models.BulkPurge} {
		res, err := env.catalog.Bulk(ctx, cfg, BulkRequest{OwnerID: 1, IDs: []uint64{theirs.ID}, Action: action})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.EqualValues(t, 0, res.Affected)
	}

	got, err := env.catalog.Get(ctx, cfg, 2, theirs.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Theirs", got.Title)
	assert.Equal(t, models.StatusActive, got.Status)
}

func TestListThumbnail(t *testing.T) {
	env := setupTestEnv(t)
	cfg := modules.Resolve("news")
	ctx := context.Background()

	media := env.upload(t, 1, "cover.png")
	env.insertRecord(t, cfg, 1, "With cover", models.StatusActive, map[string]string{"media": fmt.Sprintf("999, %d", media.ID)})

	page, err := env.catalog.List(ctx, cfg, ListQuery{OwnerID: 1, Status: models.StatusActive})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "http://cms.test/media/"+media.Path, page.Items[0].Thumbnail)
}
