package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"blog-platform/pkg/core/user/repository/dao"
	"blog-platform/pkg/core/user/service"
	"blog-platform/pkg/core/policy"
	"blog-platform/pkg/web/middleware"
	"blog-platform/pkg/web/model"
)

type UserHandler struct {
	users  *service.UserService
	tokens *service.TokenService
}

func NewUserHandler(users *service.UserService, tokens *service.TokenService) *UserHandler {
	return &UserHandler{users: users, tokens: tokens}
}

// Register creates an account for an anonymous caller.
func (h *UserHandler) Register(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Account, policy.Create); err != nil {
		respondError(c, err)
		return
	}
	var in service.RegisterInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	account, err := h.users.Register(ctx, middleware.ActorFrom(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(201, model.NewAccountRes(account))
}

func (h *UserHandler) List(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Account, policy.List); err != nil {
		respondError(c, err)
		return
	}
	limit, offset, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	accounts, err := h.users.List(ctx, middleware.ActorFrom(c), dao.Page{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewAccountList(accounts))
}

func (h *UserHandler) Me(ctx context.Context, c *app.RequestContext) {
	account, err := h.users.Me(ctx, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.MeRes{Data: model.NewAccountRes(account)})
}

func (h *UserHandler) Get(ctx context.Context, c *app.RequestContext) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	account, err := h.users.Get(ctx, middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewAccountRes(account))
}

// Update serves both PUT and PATCH.
func (h *UserHandler) Update(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Account, policy.Update); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var in service.UpdateInput
	if err := bindBody(c, &in); err != nil {
		respondError(c, err)
		return
	}
	account, err := h.users.Update(ctx, middleware.ActorFrom(c), id, in, isPartial(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewAccountRes(account))
}

func (h *UserHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := permit(c, policy.Account, policy.Delete); err != nil {
		respondError(c, err)
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.users.Delete(ctx, middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(204)
}

// ObtainToken exchanges credentials for an access and a refresh token.
func (h *UserHandler) ObtainToken(ctx context.Context, c *app.RequestContext) {
	var req model.TokenReq
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}
	pair, err := h.tokens.Obtain(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.TokenRes{Access: pair.Access, Refresh: pair.Refresh})
}

func (h *UserHandler) RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req model.RefreshReq
	if err := bindBody(c, &req); err != nil {
		respondError(c, err)
		return
	}
	access, err := h.tokens.Refresh(ctx, req.Refresh)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.AccessRes{Access: access})
}

type AuthorHandler struct {
	users *service.UserService
}

func NewAuthorHandler(users *service.UserService) *AuthorHandler {
	return &AuthorHandler{users: users}
}

func (h *AuthorHandler) List(ctx context.Context, c *app.RequestContext) {
	limit, offset, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	authors, err := h.users.ListAuthors(ctx, middleware.ActorFrom(c), dao.Page{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewAuthorList(authors))
}

func (h *AuthorHandler) Get(ctx context.Context, c *app.RequestContext) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	author, err := h.users.GetAuthor(ctx, middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(200, model.NewAuthorRes(author))
}
