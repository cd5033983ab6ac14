package dao

import (
	"context"

	"blog-platform/pkg/core/blog/model"
)

// OrderField is one ordering key of a post listing.
type OrderField struct {
	Column string // "id" or "date_posted"
	Desc   bool
}

// PostQuery narrows a post listing. Zero values mean "no filter". All filters
// are combined with AND.
type PostQuery struct {
	TagIDs       []int64 // any of
	TagName      string  // exact name
	CategoryIDs  []int64 // any of
	CategoryName string  // exact name
	AuthorID     int64
	SearchTerms  []string // every term must occur in header or body, case-insensitively
	Ordering     []OrderField
	Limit        int
	Offset       int
}

// PostChanges holds the fields of a post update. Nil fields are left untouched.
type PostChanges struct {
	Header     *string
	Body       *string
	CategoryID *int64
	TagIDs     *[]int64
}

// Page bounds category and tag listings. Zero values mean no bound.
type Page struct {
	Limit  int
	Offset int
}

type CommentQuery struct {
	PostID int64
	Limit  int
	Offset int
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	QueryByID(ctx context.Context, id int64) (model.Category, error)
	List(ctx context.Context, page Page) ([]model.Category, error)
	Rename(ctx context.Context, id int64, name string) (model.Category, error)
	// Delete removes the category, its posts and everything attached to them.
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	QueryByID(ctx context.Context, id int64) (model.Tag, error)
	List(ctx context.Context, page Page) ([]model.Tag, error)
	Rename(ctx context.Context, id int64, name string) (model.Tag, error)
	// Delete removes the tag and detaches it from posts; posts survive.
	Delete(ctx context.Context, id int64) error
	// MissingIDs returns the ids in ids that do not name an existing tag.
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type PostRepository interface {
	// Create inserts the post and its tag links in one transaction.
	Create(ctx context.Context, post *model.Post, tagIDs []int64) error
	// QueryByID returns the post with author, account, category and tags loaded.
	QueryByID(ctx context.Context, id int64) (model.Post, error)
	// OwnerOf returns the account id owning the post.
	OwnerOf(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, q PostQuery) ([]model.Post, error)
	Update(ctx context.Context, id int64, changes PostChanges) (model.Post, error)
	// Delete removes the post, its comments and its tag links.
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	QueryByID(ctx context.Context, id int64) (model.Comment, error)
	List(ctx context.Context, q CommentQuery) ([]model.Comment, error)
	UpdateContent(ctx context.Context, id int64, content string) (model.Comment, error)
	Delete(ctx context.Context, id int64) error
}
