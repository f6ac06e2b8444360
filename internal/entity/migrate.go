package entity

import "gorm.io/gorm"

// AutoMigrate creates or updates the tables. Accounts must exist before
// favorites reference them.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&Favorite{},
	)
}
