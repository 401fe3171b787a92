package models

import (
	"time"
)

// Base contains common columns for all tables
type Base struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// RecordStatus partitions catalog rows into the active and trash views.
type RecordStatus int

const (
	StatusTrashed RecordStatus = 0
	StatusActive  RecordStatus = 1
)

// Valid reports whether s is one of the two known states.
func (s RecordStatus) Valid() bool {
	return s == StatusTrashed || s == StatusActive
}

type BulkAction string

const (
	BulkTrash   BulkAction = "trash"
	BulkRestore BulkAction = "restore"
	BulkPurge   BulkAction = "purge"
)

func (a BulkAction) Valid() bool {
	switch a {
	case BulkTrash, BulkRestore, BulkPurge:
		return true
	default:
		return false
	}
}
