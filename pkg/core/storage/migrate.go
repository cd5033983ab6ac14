// Package storage owns schema migration and bootstrap data.
package storage

import (
	"fmt"

	"gorm.io/gorm"

	blogmodel "blog-platform/pkg/core/blog/model"
	usermodel "blog-platform/pkg/core/user/model"
)

// Migrate creates every table in dependency order.
func Migrate(db *gorm.DB) error {
	if err := usermodel.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	if err := blogmodel.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate blog: %w", err)
	}
	return nil
}
