// Package modules holds the fixed set of content modules and the per-module
// configuration bundle (tables, labels, messages, extra-data fields).
package modules

import "strings"

type Kind string

const (
	KindNews   Kind = "news"
	KindRecord Kind = "record"
	KindShop   Kind = "shop"
	KindPages  Kind = "pages"
)

// Physical catalog tables. These are the only table identifiers that ever
// reach SQL.
const (
	TableCatalog = "catalog"
	TablePages   = "pages"
)

// Field is an allowed key of the extra-data blob and its validator rule.
type Field struct {
	Name string
	Rule string
}

type Labels struct {
	Title      string `json:"title"`
	List       string `json:"list"`
	Add        string `json:"add"`
	Edit       string `json:"edit"`
	Trash      string `json:"trash"`
	Categories string `json:"categories,omitempty"`
}

// Messages are shown after successful operations. Bulk messages take the
// affected row count.
type Messages struct {
	Saved    string
	Trashed  string
	Restored string
	Purged   string
}

type Config struct {
	Kind               Kind
	CatalogTable       string
	RelatedTable       string
	ParentRelatedTable string
	Labels             Labels
	Messages           Messages
	Fields             []Field
	CategoryFields     []Field
}

// HasCategories reports whether the module groups items under category rows.
func (c Config) HasCategories() bool {
	return c.ParentRelatedTable != ""
}

// Discriminator is the related_table value of items, or of categories.
func (c Config) Discriminator(categories bool) string {
	if categories {
		return c.ParentRelatedTable
	}
	return c.RelatedTable
}

// FieldSet returns the extra-data fields allowed for items or categories.
func (c Config) FieldSet(categories bool) []Field {
	if categories {
		return c.CategoryFields
	}
	return c.Fields
}

const mediaRule = "omitempty,max=512,media_ids"

var categoryFields = []Field{
	{Name: "description", Rule: "omitempty,max=1000"},
}

var configs = map[Kind]Config{
	KindNews: {
		Kind:               KindNews,
		CatalogTable:       TableCatalog,
		RelatedTable:       "news",
		ParentRelatedTable: "news_category",
		Labels: Labels{
			Title:      "News",
			List:       "News list",
			Add:        "Add news",
			Edit:       "Edit news",
			Trash:      "News trash",
			Categories: "News categories",
		},
		Messages: Messages{
			Saved:    "News item saved",
			Trashed:  "%d news item(s) moved to trash",
			Restored: "%d news item(s) restored",
			Purged:   "%d news item(s) deleted permanently",
		},
		Fields: []Field{
			{Name: "media", Rule: mediaRule},
			{Name: "summary", Rule: "omitempty,max=1000"},
			{Name: "body", Rule: "omitempty,max=65535"},
			{Name: "published_at", Rule: "omitempty,datetime=2006-01-02"},
		},
		CategoryFields: categoryFields,
	},
	KindRecord: {
		Kind:               KindRecord,
		CatalogTable:       TableCatalog,
		RelatedTable:       "record",
		ParentRelatedTable: "record_category",
		Labels: Labels{
			Title:      "Records",
			List:       "Record list",
			Add:        "Add record",
			Edit:       "Edit record",
			Trash:      "Record trash",
			Categories: "Record categories",
		},
		Messages: Messages{
			Saved:    "Record saved",
			Trashed:  "%d record(s) moved to trash",
			Restored: "%d record(s) restored",
			Purged:   "%d record(s) deleted permanently",
		},
		Fields: []Field{
			{Name: "media", Rule: mediaRule},
			{Name: "description", Rule: "omitempty,max=5000"},
			{Name: "link", Rule: "omitempty,url"},
		},
		CategoryFields: categoryFields,
	},
	KindShop: {
		Kind:               KindShop,
		CatalogTable:       TableCatalog,
		RelatedTable:       "shop",
		ParentRelatedTable: "shop_category",
		Labels: Labels{
			Title:      "Shop",
			List:       "Product list",
			Add:        "Add product",
			Edit:       "Edit product",
			Trash:      "Product trash",
			Categories: "Product categories",
		},
		Messages: Messages{
			Saved:    "Product saved",
			Trashed:  "%d product(s) moved to trash",
			Restored: "%d product(s) restored",
			Purged:   "%d product(s) deleted permanently",
		},
		Fields: []Field{
			{Name: "media", Rule: mediaRule},
			{Name: "price", Rule: "required,numeric"},
			{Name: "sku", Rule: "omitempty,max=64"},
			{Name: "stock", Rule: "omitempty,number"},
			{Name: "description", Rule: "omitempty,max=5000"},
		},
		CategoryFields: categoryFields,
	},
	KindPages: {
		Kind:         KindPages,
		CatalogTable: TablePages,
		RelatedTable: "pages",
		Labels: Labels{
			Title: "Pages",
			List:  "Page list",
			Add:   "Add page",
			Edit:  "Edit page",
			Trash: "Page trash",
		},
		Messages: Messages{
			Saved:    "Page saved",
			Trashed:  "%d page(s) moved to trash",
			Restored: "%d page(s) restored",
			Purged:   "%d page(s) deleted permanently",
		},
		Fields: []Field{
			{Name: "media", Rule: mediaRule},
			{Name: "slug", Rule: "required,max=128,slug"},
			{Name: "body", Rule: "omitempty,max=65535"},
			{Name: "template", Rule: "omitempty,oneof=default landing wide"},
		},
	},
}

var order = []Kind{KindNews, KindRecord, KindShop, KindPages}

// Resolve maps a URL path segment to its module configuration. Unknown
// segments resolve to the record module.
func Resolve(segment string) Config {
	if cfg, ok := Lookup(segment); ok {
		return cfg
	}
	return configs[KindRecord]
}

// Lookup is Resolve without the fallback.
func Lookup(segment string) (Config, bool) {
	cfg, ok := configs[Kind(strings.ToLower(strings.TrimSpace(segment)))]
	return cfg, ok
}

// All returns every module in a stable order.
func All() []Config {
	all := make([]Config, 0, len(order))
	for _, k := range order {
		all = append(all, configs[k])
	}
	return all
}

// Tables returns the distinct physical catalog tables.
func Tables() []string {
	seen := make(map[string]bool)
	var tables []string
	for _, cfg := range All() {
		if !seen[cfg.CatalogTable] {
			seen[cfg.CatalogTable] = true
			tables = append(tables, cfg.CatalogTable)
		}
	}
	return tables
}
