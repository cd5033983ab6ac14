package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blog-platform/pkg/core/blog/service"
	"blog-platform/pkg/core/policy"
	"blog-platform/pkg/web/middleware"
	"blog-platform/pkg/web/model"
)

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List supports tag_ids, tag_name, category_ids, category_name, author_id,
// search, ordering, limit and offset.
func (h *PostHandler) List(ctx context.Context, c *app.RequestContext) {
	q, err := service.PostFilter{
		TagIDs:       c.Query("tag_ids"),
		TagName:      c.Query("tag_name"),
		CategoryIDs:  c.Query("category_ids"),
		CategoryName: c.Query("category_name"),
		AuthorID:     c.Query("author_id"),
		Search:       c.Query("search"),
		Ordering:     c.Query("ordering"),
		Limit:        c.Query("limit"),
		Offset:       c.Query("offset"),
	}.Query()
	if err != nil {
		respondError(c, err)
		return
	}
	posts, err := h.posts.List(ctx, middleware.ActorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewPostList(posts))
}

func (h *PostHandler) Get(ctx context.Context, c *app.RequestContext) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	post, err := h.posts.Get(ctx, middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewPostRes(post))
}

// Create ignores any author or date in the body.
func (h *PostHandler) Create(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Post, policy.Create); err != nil {
		respondError(c, err)
		return
	}
	var in service.PostInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	post, err := h.posts.Create(ctx, middleware.ActorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, model.NewPostRes(post))
}

func (h *PostHandler) Update(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Post, policy.Update); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var in service.PostInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	post, err := h.posts.Update(ctx, middleware.ActorFrom(c), id, in, isPartial(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewPostRes(post))
}

func (h *PostHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Post, policy.Delete); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.posts.Delete(ctx, middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}
