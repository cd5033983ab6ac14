// Package service holds the blog use cases: categories, tags, posts and comments.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/common/validation"
	"blog-platform/pkg/core/blog/model"
	"blog-platform/pkg/core/blog/repository/dao"
	"blog-platform/pkg/core/policy"
)

// NameInput is the writable part of a category or a tag. Name is nil on a
// PATCH that does not touch it.
type NameInput struct {
	Name *string `json:"name" validate:"omitnil,notblank,max=100"`
}

func (in NameInput) check(partial bool) error {
	if in.Name != nil {
		*in.Name = strings.TrimSpace(*in.Name)
	}
	if in.Name == nil && !partial {
		return apperr.NewValidationError("name", "This field is required.")
	}
	return validation.Struct(in)
}

type CategoryService struct {
	repo dao.CategoryRepository
}

func NewCategoryService(repo dao.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, actor *policy.Actor, page dao.Page) ([]model.Category, error) {
	if err := policy.Authorize(actor, policy.Category, policy.List, policy.NoOwner); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, page)
}

func (s *CategoryService) Get(ctx context.Context, actor *policy.Actor, id int64) (model.Category, error) {
	if err := policy.Authorize(actor, policy.Category, policy.Retrieve, policy.NoOwner); err != nil {
		return model.Category{}, err
	}
	return s.repo.QueryByID(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, actor *policy.Actor, in NameInput) (model.Category, error) {
	if err := policy.Authorize(actor, policy.Category, policy.Create, policy.NoOwner); err != nil {
		return model.Category{}, err
	}
	if err := in.check(false); err != nil {
		return model.Category{}, err
	}

	category := model.Category{Name: *in.Name}
	if err := s.repo.Create(ctx, &category); err != nil {
		return model.Category{}, duplicateName(err, "category")
	}
	hlog.CtxInfof(ctx, "category %d %q created", category.ID, category.Name)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, actor *policy.Actor, id int64, in NameInput, partial bool) (model.Category, error) {
	category, err := s.load(ctx, actor, policy.Update, id)
	if err != nil {
		return model.Category{}, err
	}
	if err := in.check(partial); err != nil {
		return model.Category{}, err
	}
	if in.Name == nil {
		return category, nil
	}

	category, err = s.repo.Rename(ctx, id, *in.Name)
	if err != nil {
		return model.Category{}, duplicateName(err, "category")
	}
	return category, nil
}

// Delete removes the category together with its posts.
func (s *CategoryService) Delete(ctx context.Context, actor *policy.Actor, id int64) error {
	if _, err := s.load(ctx, actor, policy.Delete, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	hlog.CtxInfof(ctx, "category %d deleted with its posts", id)
	return nil
}

func (s *CategoryService) load(ctx context.Context, actor *policy.Actor, action policy.Action, id int64) (model.Category, error) {
	if err := policy.RequireAuthentication(actor, policy.Category, action); err != nil {
		return model.Category{}, err
	}
	category, err := s.repo.QueryByID(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	if err := policy.Authorize(actor, policy.Category, action, policy.NoOwner); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

type TagService struct {
	repo dao.TagRepository
}

func NewTagService(repo dao.TagRepository) *TagService {
	return &TagService{repo: repo}
}

func (s *TagService) List(ctx context.Context, actor *policy.Actor, page dao.Page) ([]model.Tag, error) {
	if err := policy.Authorize(actor, policy.Tag, policy.List, policy.NoOwner); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, page)
}

func (s *TagService) Get(ctx context.Context, actor *policy.Actor, id int64) (model.Tag, error) {
	if err := policy.Authorize(actor, policy.Tag, policy.Retrieve, policy.NoOwner); err != nil {
		return model.Tag{}, err
	}
	return s.repo.QueryByID(ctx, id)
}

func (s *TagService) Create(ctx context.Context, actor *policy.Actor, in NameInput) (model.Tag, error) {
	if err := policy.Authorize(actor, policy.Tag, policy.Create, policy.NoOwner); err != nil {
		return model.Tag{}, err
	}
	if err := in.check(false); err != nil {
		return model.Tag{}, err
	}

	tag := model.Tag{Name: *in.Name}
	if err := s.repo.Create(ctx, &tag); err != nil {
		return model.Tag{}, duplicateName(err, "tag")
	}
	return tag, nil
}

func (s *TagService) Update(ctx context.Context, actor *policy.Actor, id int64, in NameInput, partial bool) (model.Tag, error) {
	tag, err := s.load(ctx, actor, policy.Update, id)
	if err != nil {
		return model.Tag{}, err
	}
	if err := in.check(partial); err != nil {
		return model.Tag{}, err
	}
	if in.Name == nil {
		return tag, nil
	}

	tag, err = s.repo.Rename(ctx, id, *in.Name)
	if err != nil {
		return model.Tag{}, duplicateName(err, "tag")
	}
	return tag, nil
}

// Delete removes the tag; posts carrying it only lose the link.
func (s *TagService) Delete(ctx context.Context, actor *policy.Actor, id int64) error {
	if _, err := s.load(ctx, actor, policy.Delete, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *TagService) load(ctx context.Context, actor *policy.Actor, action policy.Action, id int64) (model.Tag, error) {
	if err := policy.RequireAuthentication(actor, policy.Tag, action); err != nil {
		return model.Tag{}, err
	}
	tag, err := s.repo.QueryByID(ctx, id)
	if err != nil {
		return model.Tag{}, err
	}
	if err := policy.Authorize(actor, policy.Tag, action, policy.NoOwner); err != nil {
		return model.Tag{}, err
	}
	return tag, nil
}

func duplicateName(err error, kind string) error {
	if errors.Is(err, apperr.ErrDuplicateEntry) {
		return apperr.NewValidationError("name", kind+" with this name already exists.")
	}
	return err
}
