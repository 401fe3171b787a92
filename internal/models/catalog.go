package models

import (
	"strings"

	"gorm.io/datatypes"
)

// CatalogRecord is a row of a module's catalog table. The physical table is
// chosen per module, so queries always go through db.Table.
type CatalogRecord struct {
	Base
	UsersID      uint64         `gorm:"not null" json:"usersId"`
	RelatedTable string         `gorm:"size:64;not null" json:"relatedTable"`
	Author       string         `gorm:"size:64" json:"author"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	SearchTitle  string         `gorm:"size:255" json:"-"`
	Status       RecordStatus   `gorm:"not null" json:"status"`
	Data         datatypes.JSON `json:"data"`
	Thumbnail    string         `gorm:"-" json:"thumbnail,omitempty"`
}

// SearchKey folds a title or a search term for case-insensitive matching.
// Folding happens here rather than in SQL because sqlite's LOWER only knows
// ASCII.
func SearchKey(s string) string {
	return strings.ToLower(s)
}
