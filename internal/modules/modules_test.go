package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		segment string
		want    Kind
	}{
		{"news", KindNews},
		{"shop", KindShop},
		{"pages", KindPages},
		{"record", KindRecord},
		{" NEWS ", KindNews},
		{"", KindRecord},
		{"users", KindRecord},
		{"../../etc", KindRecord},
		{"catalog; DROP TABLE pages", KindRecord},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.segment).Kind)
		})
	}
}

func TestLookup(t *testing.T) {
	_, ok := Lookup("nope")
	assert.False(t, ok)

	cfg, ok := Lookup("shop")
	assert.True(t, ok)
	assert.Equal(t, "shop", cfg.RelatedTable)
	assert.Equal(t, "shop_category", cfg.Discriminator(true))
}

func TestTablesAreAllowlisted(t *testing.T) {
	assert.Equal(t, []string{TableCatalog, TablePages}, Tables())

	for _, cfg := range All() {
		assert.Contains(t, []string{TableCatalog, TablePages}, cfg.CatalogTable)
		assert.NotEmpty(t, cfg.RelatedTable)
		assert.Contains(t, cfg.Messages.Purged, "%d")
	}
}

func TestPagesHaveNoCategories(t *testing.T) {
	cfg := Resolve("pages")
	assert.False(t, cfg.HasCategories())
	assert.Empty(t, cfg.FieldSet(true))
	assert.True(t, Resolve("news").HasCategories())
}
