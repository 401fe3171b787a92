package models

import (
	"cms0/internal/events"

	"gorm.io/gorm"
)

func (u *User) AfterCreate(tx *gorm.DB) error {
	events.Emit(events.UserCreated, u.ID)
	return nil
}

func (p *Plugin) AfterCreate(tx *gorm.DB) error {
	events.Emit(events.PluginInstalled, p.Slug)
	return nil
}

func (r *CatalogRecord) BeforeSave(tx *gorm.DB) error {
	r.SearchTitle = SearchKey(r.Title)
	return nil
}
