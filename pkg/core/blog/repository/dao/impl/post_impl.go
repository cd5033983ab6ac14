package dao

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/core/blog/model"
	"blog-platform/pkg/core/blog/repository/dao"
)

type GormPostRepository struct {
	db *gorm.DB
}

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

var _ dao.PostRepository = (*GormPostRepository)(nil)

// withRelations loads everything a post payload renders.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author.Account").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.id ASC")
		})
}

func (r *GormPostRepository) Create(ctx context.Context, post *model.Post, tagIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return fmt.Errorf("%w: post creation failed", apperr.WrapGormError(err))
		}
		return linkTags(tx, post.ID, tagIDs)
	})
}

func linkTags(tx *gorm.DB, postID int64, tagIDs []int64) error {
	links := make([]model.PostTag, 0, len(tagIDs))
	seen := make(map[int64]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, model.PostTag{PostID: postID, TagID: id})
	}
	if len(links) == 0 {
		return nil
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("%w: tag links of post %d", apperr.WrapGormError(err), postID)
	}
	return nil
}

func (r *GormPostRepository) QueryByID(ctx context.Context, id int64) (model.Post, error) {
	var post model.Post
	if err := withRelations(r.db.WithContext(ctx)).Where("posts.id = ?", id).First(&post).Error; err != nil {
		return model.Post{}, apperr.WrapGormError(err)
	}
	return post, nil
}

func (r *GormPostRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var owner struct{ AccountID int64 }
	err := r.db.WithContext(ctx).Table("posts").
		Select("authors.account_id AS account_id").
		Joins("JOIN authors ON authors.id = posts.author_id").
		Where("posts.id = ?", id).
		Take(&owner).Error
	if err != nil {
		return 0, apperr.WrapGormError(err)
	}
	return owner.AccountID, nil
}

func (r *GormPostRepository) List(ctx context.Context, q dao.PostQuery) ([]model.Post, error) {
	tx := withRelations(r.db.WithContext(ctx)).Model(&model.Post{})

	if len(q.TagIDs) > 0 {
		tx = tx.Where("posts.id IN (SELECT post_id FROM post_tags WHERE tag_id IN ?)", q.TagIDs)
	}
	if q.TagName != "" {
		tx = tx.Where("posts.id IN (SELECT pt.post_id FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE t.name = ?)", q.TagName)
	}
	if len(q.CategoryIDs) > 0 {
		tx = tx.Where("posts.category_id IN ?", q.CategoryIDs)
	}
	if q.CategoryName != "" {
		tx = tx.Where("posts.category_id IN (SELECT id FROM categories WHERE name = ?)", q.CategoryName)
	}
	if q.AuthorID != 0 {
		tx = tx.Where("posts.author_id = ?", q.AuthorID)
	}
	for _, term := range q.SearchTerms {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		tx = tx.Where("(LOWER(posts.header) LIKE ? ESCAPE '!' OR LOWER(posts.body) LIKE ? ESCAPE '!')", pattern, pattern)
	}

	tx = paginate(tx.Order(orderClause(q.Ordering)), q.Limit, q.Offset)

	var posts []model.Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("%w: post listing failed", apperr.WrapGormError(err))
	}
	return posts, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var orderColumns = map[string]string{
	"id":          "posts.id",
	"date_posted": "posts.date_posted",
}

// orderClause renders the ordering, newest first when none is given. posts.id
// always closes the clause so pages are stable.
func orderClause(fields []dao.OrderField) string {
	if len(fields) == 0 {
		fields = []dao.OrderField{{Column: "date_posted", Desc: true}, {Column: "id", Desc: true}}
	}

	parts := make([]string, 0, len(fields)+1)
	hasID := false
	for _, f := range fields {
		col, ok := orderColumns[f.Column]
		if !ok {
			continue
		}
		if f.Column == "id" {
			hasID = true
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if !hasID {
		parts = append(parts, "posts.id ASC")
	}
	return strings.Join(parts, ", ")
}

func (r *GormPostRepository) Update(ctx context.Context, id int64, changes dao.PostChanges) (model.Post, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Select("id").Where("id = ?", id).First(&post).Error; err != nil {
			return apperr.WrapGormError(err)
		}

		updates := map[string]interface{}{}
		if changes.Header != nil {
			updates["header"] = *changes.Header
		}
		if changes.Body != nil {
			updates["body"] = *changes.Body
		}
		if changes.CategoryID != nil {
			updates["category_id"] = *changes.CategoryID
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("%w: post update failed", apperr.WrapGormError(err))
			}
		}

		if changes.TagIDs != nil {
			if err := tx.Where("post_id = ?", id).Delete(&model.PostTag{}).Error; err != nil {
				return fmt.Errorf("%w: tag links of post %d", apperr.WrapGormError(err), id)
			}
			if err := linkTags(tx, id, *changes.TagIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Post{}, err
	}
	return r.QueryByID(ctx, id)
}

func (r *GormPostRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Select("id").Where("id = ?", id).First(&post).Error; err != nil {
			return apperr.WrapGormError(err)
		}
		if err := deletePostDependents(tx, "SELECT id FROM posts WHERE id = ?", id); err != nil {
			return fmt.Errorf("%w: delete dependents of post %d", err, id)
		}
		if err := tx.Delete(&model.Post{}, id).Error; err != nil {
			return fmt.Errorf("%w: delete post %d", apperr.WrapGormError(err), id)
		}
		return nil
	})
}

func (r *GormPostRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperr.WrapGormError(err)
	}
	return count > 0, nil
}

func paginate(tx *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	return tx
}
