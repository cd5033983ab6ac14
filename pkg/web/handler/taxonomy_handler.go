package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blog-platform/pkg/core/blog/repository/dao"
	"blog-platform/pkg/core/blog/service"
	"blog-platform/pkg/core/policy"
	"blog-platform/pkg/web/middleware"
	"blog-platform/pkg/web/model"
)

type CategoryHandler struct {
	categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) List(ctx context.Context, c *app.RequestContext) {
	limit, offset, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.categories.List(ctx, middleware.ActorFrom(c), dao.Page{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewCategoryList(categories))
}

func (h *CategoryHandler) Get(ctx context.Context, c *app.RequestContext) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	category, err := h.categories.Get(ctx, middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewCategoryRes(category))
}

func (h *CategoryHandler) Create(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Category, policy.Create); err != nil {
		respondError(c, err)
		return
	}
	var in service.NameInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	category, err := h.categories.Create(ctx, middleware.ActorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, model.NewCategoryRes(category))
}

func (h *CategoryHandler) Update(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Category, policy.Update); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var in service.NameInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	category, err := h.categories.Update(ctx, middleware.ActorFrom(c), id, in, isPartial(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewCategoryRes(category))
}

// Delete removes the category together with its posts.
func (h *CategoryHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Category, policy.Delete); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.categories.Delete(ctx, middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}

type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) List(ctx context.Context, c *app.RequestContext) {
	limit, offset, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	tags, err := h.tags.List(ctx, middleware.ActorFrom(c), dao.Page{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewTagList(tags))
}

func (h *TagHandler) Get(ctx context.Context, c *app.RequestContext) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	tag, err := h.tags.Get(ctx, middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewTagRes(tag))
}

func (h *TagHandler) Create(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Tag, policy.Create); err != nil {
		respondError(c, err)
		return
	}
	var in service.NameInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	tag, err := h.tags.Create(ctx, middleware.ActorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, model.NewTagRes(tag))
}

func (h *TagHandler) Update(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Tag, policy.Update); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var in service.NameInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	tag, err := h.tags.Update(ctx, middleware.ActorFrom(c), id, in, isPartial(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewTagRes(tag))
}

// Delete removes the tag; tagged posts are kept.
func (h *TagHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Tag, policy.Delete); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.tags.Delete(ctx, middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}
