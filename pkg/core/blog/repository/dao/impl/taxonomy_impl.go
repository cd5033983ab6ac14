package dao

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/core/blog/model"
	"blog-platform/pkg/core/blog/repository/dao"
)

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

var _ dao.CategoryRepository = (*GormCategoryRepository)(nil)

func (r *GormCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if apperr.IsDuplicateError(err) {
			return apperr.ErrDuplicateEntry
		}
		return fmt.Errorf("%w: category creation failed", apperr.WrapGormError(err))
	}
	return nil
}

func (r *GormCategoryRepository) QueryByID(ctx context.Context, id int64) (model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return model.Category{}, apperr.WrapGormError(err)
	}
	return category, nil
}

func (r *GormCategoryRepository) List(ctx context.Context, page dao.Page) ([]model.Category, error) {
	var categories []model.Category
	tx := paginate(r.db.WithContext(ctx).Order("id ASC"), page.Limit, page.Offset)
	if err := tx.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("%w: category listing failed", apperr.WrapGormError(err))
	}
	return categories, nil
}

func (r *GormCategoryRepository) Rename(ctx context.Context, id int64, name string) (model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&category).Error; err != nil {
			return apperr.WrapGormError(err)
		}
		if err := tx.Model(&category).Update("name", name).Error; err != nil {
			if apperr.IsDuplicateError(err) {
				return apperr.ErrDuplicateEntry
			}
			return fmt.Errorf("%w: category update failed", apperr.WrapGormError(err))
		}
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}
	category.Name = name
	return category, nil
}

// Delete cascades explicitly so the result does not depend on the driver
// enforcing foreign keys.
func (r *GormCategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.Select("id").Where("id = ?", id).First(&category).Error; err != nil {
			return apperr.WrapGormError(err)
		}

		if err := deletePostDependents(tx, "SELECT id FROM posts WHERE category_id = ?", id); err != nil {
			return fmt.Errorf("%w: delete posts of category %d", err, id)
		}
		if err := tx.Where("category_id = ?", id).Delete(&model.Post{}).Error; err != nil {
			return fmt.Errorf("%w: delete posts of category %d", apperr.WrapGormError(err), id)
		}
		if err := tx.Delete(&model.Category{}, id).Error; err != nil {
			return fmt.Errorf("%w: delete category %d", apperr.WrapGormError(err), id)
		}
		return nil
	})
}

func (r *GormCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperr.WrapGormError(err)
	}
	return count > 0, nil
}

type GormTagRepository struct {
	db *gorm.DB
}

func NewGormTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{db: db}
}

var _ dao.TagRepository = (*GormTagRepository)(nil)

func (r *GormTagRepository) Create(ctx context.Context, tag *model.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		if apperr.IsDuplicateError(err) {
			return apperr.ErrDuplicateEntry
		}
		return fmt.Errorf("%w: tag creation failed", apperr.WrapGormError(err))
	}
	return nil
}

func (r *GormTagRepository) QueryByID(ctx context.Context, id int64) (model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error; err != nil {
		return model.Tag{}, apperr.WrapGormError(err)
	}
	return tag, nil
}

func (r *GormTagRepository) List(ctx context.Context, page dao.Page) ([]model.Tag, error) {
	var tags []model.Tag
	tx := paginate(r.db.WithContext(ctx).Order("id ASC"), page.Limit, page.Offset)
	if err := tx.Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("%w: tag listing failed", apperr.WrapGormError(err))
	}
	return tags, nil
}

func (r *GormTagRepository) Rename(ctx context.Context, id int64, name string) (model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&tag).Error; err != nil {
			return apperr.WrapGormError(err)
		}
		if err := tx.Model(&tag).Update("name", name).Error; err != nil {
			if apperr.IsDuplicateError(err) {
				return apperr.ErrDuplicateEntry
			}
			return fmt.Errorf("%w: tag update failed", apperr.WrapGormError(err))
		}
		return nil
	})
	if err != nil {
		return model.Tag{}, err
	}
	tag.Name = name
	return tag, nil
}

func (r *GormTagRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := tx.Select("id").Where("id = ?", id).First(&tag).Error; err != nil {
			return apperr.WrapGormError(err)
		}
		if err := tx.Where("tag_id = ?", id).Delete(&model.PostTag{}).Error; err != nil {
			return fmt.Errorf("%w: detach tag %d", apperr.WrapGormError(err), id)
		}
		if err := tx.Delete(&model.Tag{}, id).Error; err != nil {
			return fmt.Errorf("%w: delete tag %d", apperr.WrapGormError(err), id)
		}
		return nil
	})
}

func (r *GormTagRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []int64
	if err := r.db.WithContext(ctx).Model(&model.Tag{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, apperr.WrapGormError(err)
	}
	return missing(ids, found), nil
}

func missing(want, found []int64) []int64 {
	seen := make(map[int64]struct{}, len(found))
	for _, id := range found {
		seen[id] = struct{}{}
	}
	var out []int64
	for _, id := range want {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
			seen[id] = struct{}{}
		}
	}
	return out
}

// deletePostDependents removes comments and tag links of the posts selected by
// the postIDs subquery.
func deletePostDependents(tx *gorm.DB, postIDs string, args ...interface{}) error {
	if err := tx.Where("post_id IN ("+postIDs+")", args...).Delete(&model.Comment{}).Error; err != nil {
		return apperr.WrapGormError(err)
	}
	if err := tx.Where("post_id IN ("+postIDs+")", args...).Delete(&model.PostTag{}).Error; err != nil {
		return apperr.WrapGormError(err)
	}
	return nil
}
