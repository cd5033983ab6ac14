package service

import (
	"context"
	"time"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/common/validation"
	"blog-platform/pkg/core/blog/model"
	"blog-platform/pkg/core/blog/repository/dao"
	"blog-platform/pkg/core/policy"
)

// CommentInput is the writable part of a comment. The author and the date are
// set by the server; the parent post is fixed at creation.
type CommentInput struct {
	Content *string `json:"content" validate:"omitnil,notblank,max=1024"`
	PostID  *int64  `json:"post" validate:"omitnil,gt=0"`
}

type CommentService struct {
	comments dao.CommentRepository
	posts    dao.PostRepository
	now      func() time.Time
}

func NewCommentService(comments dao.CommentRepository, posts dao.PostRepository) *CommentService {
	return &CommentService{comments: comments, posts: posts, now: time.Now}
}

func (s *CommentService) List(ctx context.Context, actor *policy.Actor, q dao.CommentQuery) ([]model.Comment, error) {
	if err := policy.Authorize(actor, policy.Comment, policy.List, policy.NoOwner); err != nil {
		return nil, err
	}
	return s.comments.List(ctx, q)
}

func (s *CommentService) Get(ctx context.Context, actor *policy.Actor, id int64) (model.Comment, error) {
	if err := policy.Authorize(actor, policy.Comment, policy.Retrieve, policy.NoOwner); err != nil {
		return model.Comment{}, err
	}
	return s.comments.QueryByID(ctx, id)
}

func (s *CommentService) Create(ctx context.Context, actor *policy.Actor, in CommentInput) (model.Comment, error) {
	if err := policy.Authorize(actor, policy.Comment, policy.Create, policy.NoOwner); err != nil {
		return model.Comment{}, err
	}

	trim(in.Content)
	verr := &apperr.ValidationError{}
	if in.Content == nil {
		verr.Add("content", "This field is required.")
	}
	if in.PostID == nil {
		verr.Add("post", "This field is required.")
	}
	if !verr.Empty() {
		return model.Comment{}, verr
	}
	if err := validation.Struct(in); err != nil {
		return model.Comment{}, err
	}

	ok, err := s.posts.Exists(ctx, *in.PostID)
	if err != nil {
		return model.Comment{}, err
	}
	if !ok {
		return model.Comment{}, apperr.NewValidationError("post", doesNotExist(*in.PostID))
	}

	comment := model.Comment{
		Content:   *in.Content,
		Date:      s.now().UTC(),
		PostID:    *in.PostID,
		AccountID: actor.AccountID,
	}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// Update changes the content. A post field in the input must name the
// comment's current post.
func (s *CommentService) Update(ctx context.Context, actor *policy.Actor, id int64, in CommentInput, partial bool) (model.Comment, error) {
	comment, err := s.load(ctx, actor, policy.Update, id)
	if err != nil {
		return model.Comment{}, err
	}

	trim(in.Content)
	if in.Content == nil && !partial {
		return model.Comment{}, apperr.NewValidationError("content", "This field is required.")
	}
	if err := validation.Struct(in); err != nil {
		return model.Comment{}, err
	}
	if in.PostID != nil && *in.PostID != comment.PostID {
		return model.Comment{}, apperr.NewValidationError("post", "A comment cannot be moved to another post.")
	}
	if in.Content == nil {
		return comment, nil
	}
	return s.comments.UpdateContent(ctx, id, *in.Content)
}

func (s *CommentService) Delete(ctx context.Context, actor *policy.Actor, id int64) error {
	if _, err := s.load(ctx, actor, policy.Delete, id); err != nil {
		return err
	}
	return s.comments.Delete(ctx, id)
}

func (s *CommentService) load(ctx context.Context, actor *policy.Actor, action policy.Action, id int64) (model.Comment, error) {
	if err := policy.RequireAuthentication(actor, policy.Comment, action); err != nil {
		return model.Comment{}, err
	}
	comment, err := s.comments.QueryByID(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}
	if err := policy.Authorize(actor, policy.Comment, action, comment.AccountID); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

// CommentFilter holds the raw query parameters of a comment listing.
type CommentFilter struct {
	PostID string
	Limit  string
	Offset string
}

func (f CommentFilter) Query() (dao.CommentQuery, error) {
	verr := &apperr.ValidationError{}
	postID, ok := parseOptionalID(f.PostID)
	if !ok {
		verr.Add("post", invalidIntMsg)
	}
	limit, offset, err := ParsePage(f.Limit, f.Offset)
	if err != nil {
		mergeFields(verr, err)
	}
	if !verr.Empty() {
		return dao.CommentQuery{}, verr
	}
	return dao.CommentQuery{PostID: postID, Limit: limit, Offset: offset}, nil
}
