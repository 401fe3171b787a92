package models

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	console "cms0/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("SEEDER")

// CreateAdminFromEnv creates the first admin account from SUPERADMIN_EMAIL,
// SUPERADMIN_PASSWORD and SUPERADMIN_NAME unless an admin already exists.
func CreateAdminFromEnv(db *gorm.DB) error {
	var count int64
	if err := db.Model(&User{}).Where("role = ?", UserRoleAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	log.Info("Admin count: %d", count)
	if count > 0 {
		return nil
	}

	email, ok := os.LookupEnv("SUPERADMIN_EMAIL")
	if !ok {
		return fmt.Errorf("SUPERADMIN_EMAIL not set")
	}

	password, ok := os.LookupEnv("SUPERADMIN_PASSWORD")
	if !ok {
		return fmt.Errorf("SUPERADMIN_PASSWORD not set")
	}

	name := os.Getenv("SUPERADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}

	return CreateAdmin(db, email, password, name)
}

// CreateAdmin inserts an admin account with a bcrypt-hashed password.
func CreateAdmin(db *gorm.DB, email, password, name string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: string(hashedPassword),
		Name:     name,
		Role:     UserRoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}
