package models

import (
	"gorm.io/gorm"
)

// GetUserByEmail retrieves a user by email address
func GetUserByEmail(email string, db *gorm.DB) (*User, error) {
	user := &User{}
	if err := db.Where("email = ?", email).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func GetMediaByID(id, ownerID uint64, db *gorm.DB) (*Media, error) {
	media := &Media{}
	if err := db.Where("id = ? AND users_id = ?", id, ownerID).First(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}
