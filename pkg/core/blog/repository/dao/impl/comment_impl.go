package dao

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/core/blog/model"
	"blog-platform/pkg/core/blog/repository/dao"
)

type GormCommentRepository struct {
	db *gorm.DB
}

func NewGormCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

var _ dao.CommentRepository = (*GormCommentRepository)(nil)

func (r *GormCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return fmt.Errorf("%w: comment creation failed", apperr.WrapGormError(err))
	}
	return nil
}

func (r *GormCommentRepository) QueryByID(ctx context.Context, id int64) (model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return model.Comment{}, apperr.WrapGormError(err)
	}
	return comment, nil
}

func (r *GormCommentRepository) List(ctx context.Context, q dao.CommentQuery) ([]model.Comment, error) {
	tx := r.db.WithContext(ctx).Order("id ASC")
	if q.PostID != 0 {
		tx = tx.Where("post_id = ?", q.PostID)
	}
	tx = paginate(tx, q.Limit, q.Offset)
	var comments []model.Comment
	if err := tx.Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("%w: comment listing failed", apperr.WrapGormError(err))
	}
	return comments, nil
}

func (r *GormCommentRepository) UpdateContent(ctx context.Context, id int64, content string) (model.Comment, error) {
	result := r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		return model.Comment{}, fmt.Errorf("%w: comment update failed", apperr.WrapGormError(result.Error))
	}
	return r.QueryByID(ctx, id)
}

func (r *GormCommentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Comment{}, id)
	if result.Error != nil {
		return fmt.Errorf("%w: delete comment %d", apperr.WrapGormError(result.Error), id)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
