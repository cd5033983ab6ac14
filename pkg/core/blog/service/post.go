package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/common/validation"
	"blog-platform/pkg/core/blog/model"
	"blog-platform/pkg/core/blog/repository/dao"
	"blog-platform/pkg/core/policy"
	usermodel "blog-platform/pkg/core/user/model"
)

// AuthorLookup finds the author record behind an account.
type AuthorLookup interface {
	AuthorOf(ctx context.Context, accountID int64) (usermodel.Author, error)
}

// ContentGate decides whether a new post may be stored.
type ContentGate interface {
	CheckPost(ctx context.Context, header, body string) error
}

// PostInput is the writable part of a post. Author and date are never taken
// from the client. Nil fields are left untouched on PATCH.
type PostInput struct {
	Header     *string  `json:"header" validate:"omitnil,notblank,max=200"`
	Body       *string  `json:"body" validate:"omitnil,notblank,max=10000"`
	CategoryID *int64   `json:"category" validate:"omitnil,gt=0"`
	TagIDs     *[]int64 `json:"tags" validate:"omitnil,dive,gt=0"`
}

type PostService struct {
	posts      dao.PostRepository
	categories dao.CategoryRepository
	tags       dao.TagRepository
	authors    AuthorLookup
	gate       ContentGate
	now        func() time.Time
}

func NewPostService(posts dao.PostRepository, categories dao.CategoryRepository, tags dao.TagRepository,
	authors AuthorLookup, gate ContentGate) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		tags:       tags,
		authors:    authors,
		gate:       gate,
		now:        time.Now,
	}
}

func (s *PostService) List(ctx context.Context, actor *policy.Actor, q dao.PostQuery) ([]model.Post, error) {
	if err := policy.Authorize(actor, policy.Post, policy.List, policy.NoOwner); err != nil {
		return nil, err
	}
	return s.posts.List(ctx, q)
}

func (s *PostService) Get(ctx context.Context, actor *policy.Actor, id int64) (model.Post, error) {
	if err := policy.Authorize(actor, policy.Post, policy.Retrieve, policy.NoOwner); err != nil {
		return model.Post{}, err
	}
	return s.posts.QueryByID(ctx, id)
}

// Create validates, moderates and stores a post owned by the actor. Nothing
// is written when moderation rejects the content or cannot decide.
func (s *PostService) Create(ctx context.Context, actor *policy.Actor, in PostInput) (model.Post, error) {
	if err := policy.Authorize(actor, policy.Post, policy.Create, policy.NoOwner); err != nil {
		return model.Post{}, err
	}
	if err := s.check(ctx, in, false); err != nil {
		return model.Post{}, err
	}

	if err := s.gate.CheckPost(ctx, *in.Header, *in.Body); err != nil {
		return model.Post{}, err
	}

	author, err := s.authors.AuthorOf(ctx, actor.AccountID)
	if err != nil {
		return model.Post{}, err
	}

	var tagIDs []int64
	if in.TagIDs != nil {
		tagIDs = *in.TagIDs
	}
	post := &model.Post{
		Header:     *in.Header,
		Body:       *in.Body,
		DatePosted: s.now().UTC(),
		AuthorID:   author.ID,
		CategoryID: *in.CategoryID,
	}
	if err := s.posts.Create(ctx, post, tagIDs); err != nil {
		return model.Post{}, err
	}

	hlog.CtxInfof(ctx, "post %d created by account %d", post.ID, actor.AccountID)
	return s.posts.QueryByID(ctx, post.ID)
}

func (s *PostService) Update(ctx context.Context, actor *policy.Actor, id int64, in PostInput, partial bool) (model.Post, error) {
	if err := s.authorize(ctx, actor, policy.Update, id); err != nil {
		return model.Post{}, err
	}
	if err := s.check(ctx, in, partial); err != nil {
		return model.Post{}, err
	}

	return s.posts.Update(ctx, id, dao.PostChanges{
		Header:     in.Header,
		Body:       in.Body,
		CategoryID: in.CategoryID,
		TagIDs:     in.TagIDs,
	})
}

// Delete removes the post and its comments.
func (s *PostService) Delete(ctx context.Context, actor *policy.Actor, id int64) error {
	if err := s.authorize(ctx, actor, policy.Delete, id); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	hlog.CtxInfof(ctx, "post %d deleted by account %d", id, actor.AccountID)
	return nil
}

// authorize runs the item checks in order: authentication, existence, ownership.
// The owner is read from storage on every call.
func (s *PostService) authorize(ctx context.Context, actor *policy.Actor, action policy.Action, id int64) error {
	if err := policy.RequireAuthentication(actor, policy.Post, action); err != nil {
		return err
	}
	owner, err := s.posts.OwnerOf(ctx, id)
	if err != nil {
		return err
	}
	return policy.Authorize(actor, policy.Post, action, owner)
}

func (s *PostService) check(ctx context.Context, in PostInput, partial bool) error {
	trim(in.Header, in.Body)

	if !partial {
		verr := &apperr.ValidationError{}
		if in.Header == nil {
			verr.Add("header", "This field is required.")
		}
		if in.Body == nil {
			verr.Add("body", "This field is required.")
		}
		if in.CategoryID == nil {
			verr.Add("category", "This field is required.")
		}
		if !verr.Empty() {
			return verr
		}
	}
	if err := validation.Struct(in); err != nil {
		return err
	}

	if in.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *in.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NewValidationError("category", doesNotExist(*in.CategoryID))
		}
	}
	if in.TagIDs != nil {
		missing, err := s.tags.MissingIDs(ctx, *in.TagIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			verr := &apperr.ValidationError{}
			for _, id := range missing {
				verr.Add("tags", doesNotExist(id))
			}
			return verr
		}
	}
	return nil
}

func doesNotExist(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func trim(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// PostFilter holds the raw query parameters of a post listing.
type PostFilter struct {
	TagIDs       string
	TagName      string
	CategoryIDs  string
	CategoryName string
	AuthorID     string
	Search       string
	Ordering     string
	Limit        string
	Offset       string
}

// Query parses the filter. Malformed numbers are validation errors, unknown
// ordering fields are ignored.
func (f PostFilter) Query() (dao.PostQuery, error) {
	verr := &apperr.ValidationError{}
	q := dao.PostQuery{
		TagName:      strings.TrimSpace(f.TagName),
		CategoryName: strings.TrimSpace(f.CategoryName),
		SearchTerms:  splitTerms(f.Search),
		Ordering:     parseOrdering(f.Ordering),
	}

	var ok bool
	if q.TagIDs, ok = parseIDList(f.TagIDs); !ok {
		verr.Add("tag_ids", invalidIntMsg)
	}
	if q.CategoryIDs, ok = parseIDList(f.CategoryIDs); !ok {
		verr.Add("category_ids", invalidIntMsg)
	}
	if q.AuthorID, ok = parseOptionalID(f.AuthorID); !ok {
		verr.Add("author_id", invalidIntMsg)
	}

	limit, offset, perr := ParsePage(f.Limit, f.Offset)
	if perr != nil {
		mergeFields(verr, perr)
	}
	q.Limit, q.Offset = limit, offset

	if !verr.Empty() {
		return dao.PostQuery{}, verr
	}
	return q, nil
}

const invalidIntMsg = "Enter a whole number."

func mergeFields(dst *apperr.ValidationError, err error) {
	var src *apperr.ValidationError
	if !errors.As(err, &src) {
		return
	}
	for field, msgs := range src.Fields {
		for _, m := range msgs {
			dst.Add(field, m)
		}
	}
}

func parseIDList(raw string) ([]int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func parseOptionalID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ParsePage reads limit and offset. Empty values mean no bound.
func ParsePage(rawLimit, rawOffset string) (int, int, error) {
	verr := &apperr.ValidationError{}
	limit, ok := parseNonNegative(rawLimit)
	if !ok {
		verr.Add("limit", invalidIntMsg)
	}
	offset, ok := parseNonNegative(rawOffset)
	if !ok {
		verr.Add("offset", invalidIntMsg)
	}
	if !verr.Empty() {
		return 0, 0, verr
	}
	return limit, offset, nil
}

func parseNonNegative(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func splitTerms(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func parseOrdering(raw string) []dao.OrderField {
	var fields []dao.OrderField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		part = strings.TrimPrefix(part, "-")
		switch part {
		case "id", "date_posted":
			fields = append(fields, dao.OrderField{Column: part, Desc: desc})
		}
	}
	return fields
}
