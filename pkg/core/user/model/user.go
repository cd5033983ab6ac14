package model

import (
	"time"

	"gorm.io/gorm"
)

// Account is a registered identity. Admin accounts manage categories and tags
// and may change any record.
type Account struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	FirstName    string    `gorm:"type:varchar(150);not null;default:''"`
	LastName     string    `gorm:"type:varchar(150);not null;default:''"`
	IsAdmin      bool      `gorm:"not null;default:false;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// TableName maps Account onto its table.
func (Account) TableName() string {
	return "accounts"
}

// Author is the blogging shadow of an Account. Name and email are never stored
// here; they are joined from Account on every read.
type Author struct {
	ID        int64   `gorm:"primaryKey;autoIncrement"`
	AccountID int64   `gorm:"uniqueIndex;not null"`
	Account   Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	Bio       string  `gorm:"type:varchar(1000);not null;default:''"`
}

// TableName maps Author onto its table.
func (Author) TableName() string {
	return "authors"
}

// AutoMigrate creates or updates the account tables.
func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	return db.AutoMigrate(&Account{}, &Author{})
}
