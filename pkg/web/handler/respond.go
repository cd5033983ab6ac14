package handler

import (
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	apperr "blog-platform/pkg/common/errors"
	blogservice "blog-platform/pkg/core/blog/service"
	"blog-platform/pkg/core/policy"
	"blog-platform/pkg/web/middleware"
	"blog-platform/pkg/web/model"
)

// respondError attaches err to the request for the access log and writes the
// mapped error body.
func respondError(c *app.RequestContext, err error) {
	_ = c.Error(err)
	status, body := model.NewErrorRes(err)
	c.JSON(status, body)
}

// permit runs the request level part of the policy before the path or body is
// read. Collection actions get the full rule; item actions only the
// authentication part, since the owner is not loaded yet.
func permit(c *app.RequestContext, res policy.Resource, action policy.Action) error {
	actor := middleware.ActorFrom(c)
	switch action {
	case policy.List, policy.Create:
		return policy.Authorize(actor, res, action, policy.NoOwner)
	default:
		return policy.RequireAuthentication(actor, res, action)
	}
}

// bindBody decodes a JSON body into v. An empty body leaves v untouched.
func bindBody(c *app.RequestContext, v interface{}) error {
	if len(c.Request.Body()) == 0 {
		return nil
	}
	if err := c.BindJSON(v); err != nil {
		_ = c.Error(err)
		return apperr.NewValidationError("non_field_errors", "Invalid data.")
	}
	return nil
}

// pathID reads the :id parameter. Ids that are not positive integers cannot
// name a record, so they are reported as not found.
func pathID(c *app.RequestContext) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

func pageParams(c *app.RequestContext) (limit, offset int, err error) {
	return blogservice.ParsePage(c.Query("limit"), c.Query("offset"))
}

func isPartial(c *app.RequestContext) bool {
	return string(c.Method()) == "PATCH"
}
