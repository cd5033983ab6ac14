package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blog-platform/pkg/core/blog/service"
	"blog-platform/pkg/core/policy"
	"blog-platform/pkg/web/middleware"
	"blog-platform/pkg/web/model"
)

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// List accepts an optional post=<id> filter.
func (h *CommentHandler) List(ctx context.Context, c *app.RequestContext) {
	q, err := service.CommentFilter{
		PostID: c.Query("post"),
		Limit:  c.Query("limit"),
		Offset: c.Query("offset"),
	}.Query()
	if err != nil {
		respondError(c, err)
		return
	}
	comments, err := h.comments.List(ctx, middleware.ActorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewCommentList(comments))
}

func (h *CommentHandler) Get(ctx context.Context, c *app.RequestContext) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	comment, err := h.comments.Get(ctx, middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewCommentRes(comment))
}

func (h *CommentHandler) Create(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Comment, policy.Create); err != nil {
		respondError(c, err)
		return
	}
	var in service.CommentInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	comment, err := h.comments.Create(ctx, middleware.ActorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, model.NewCommentRes(comment))
}

func (h *CommentHandler) Update(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Comment, policy.Update); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var in service.CommentInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	comment, err := h.comments.Update(ctx, middleware.ActorFrom(c), id, in, isPartial(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewCommentRes(comment))
}

func (h *CommentHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Comment, policy.Delete); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.comments.Delete(ctx, middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}
