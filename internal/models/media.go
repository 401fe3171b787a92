package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Media is an uploaded file of the media library.
type Media struct {
	Base
	UsersID uint64 `gorm:"index;not null" json:"usersId"`
	Path    string `gorm:"not null" json:"path"`
	Name    string `gorm:"not null" json:"name"`
	Size    int64  `gorm:"not null" json:"size"`
	Type    string `gorm:"not null" json:"type"`
	URL     string `gorm:"-" json:"url,omitempty"` // Virtual field
}

func (m *Media) AfterFind(tx *gorm.DB) error {
	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator != nil {
		url, err := generator.URL(tx.Statement.Context, m.Path)
		if err != nil {
			return fmt.Errorf("failed to generate media URL: %w", err)
		}
		m.URL = url
	}
	return nil
}

// FileTombstone marks a stored file whose database row is gone. It is removed
// once the file itself has been deleted from storage.
type FileTombstone struct {
	Base
	Path      string    `gorm:"uniqueIndex;not null" json:"path"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	LastTryAt time.Time `json:"lastTryAt"`
}
