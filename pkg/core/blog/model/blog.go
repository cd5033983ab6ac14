package model

import (
	"time"

	"gorm.io/gorm"

	usermodel "blog-platform/pkg/core/user/model"
)

// Category groups posts. Deleting a category deletes its posts.
type Category struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null"`
}

func (Category) TableName() string {
	return "categories"
}

// Tag labels posts. Deleting a tag only detaches it.
type Tag struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null"`
}

func (Tag) TableName() string {
	return "tags"
}

type Post struct {
	ID         int64            `gorm:"primaryKey;autoIncrement"`
	Header     string           `gorm:"type:varchar(200);not null"`
	Body       string           `gorm:"type:text;not null"`
	DatePosted time.Time        `gorm:"column:date_posted;not null;index"`
	AuthorID   int64            `gorm:"not null;index"`
	Author     usermodel.Author `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CategoryID int64            `gorm:"not null;index"`
	Category   Category         `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	Tags       []Tag            `gorm:"many2many:post_tags"`
}

func (Post) TableName() string {
	return "posts"
}

// PostTag is the join row between posts and tags.
type PostTag struct {
	PostID int64 `gorm:"primaryKey;autoIncrement:false"`
	TagID  int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

func (PostTag) TableName() string {
	return "post_tags"
}

type Comment struct {
	ID        int64             `gorm:"primaryKey;autoIncrement"`
	Content   string            `gorm:"type:varchar(1024);not null"`
	Date      time.Time         `gorm:"column:date;not null"`
	PostID    int64             `gorm:"not null;index"`
	Post      Post              `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AccountID int64             `gorm:"not null;index"`
	Account   usermodel.Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

func (Comment) TableName() string {
	return "comments"
}

// AutoMigrate creates or updates the blog tables. Account tables must exist first.
func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	if err := db.SetupJoinTable(&Post{}, "Tags", &PostTag{}); err != nil {
		return err
	}
	return db.AutoMigrate(&Category{}, &Tag{}, &Post{}, &PostTag{}, &Comment{})
}
