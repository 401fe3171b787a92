package models

import "gorm.io/datatypes"

// Plugin is an installed plugin and its settings.
type Plugin struct {
	Base
	Slug     string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title    string         `gorm:"not null" json:"title"`
	Version  string         `gorm:"not null" json:"version"`
	Enabled  bool           `gorm:"not null" json:"enabled"`
	Settings datatypes.JSON `json:"settings"`
}
