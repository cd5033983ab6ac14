package dao

import (
	"context"

	"blog-platform/pkg/core/user/model"
)

// AccountChanges holds the fields of an account update. Nil fields are left untouched.
type AccountChanges struct {
	Email        *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
	Bio          *string
}

// Page bounds account and author listings. Zero values mean no bound.
type Page struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// CreateAccount inserts the account and its Author shadow in one transaction
	// and returns the created author.
	CreateAccount(ctx context.Context, account *model.Account) (*model.Author, error)
	QueryByID(ctx context.Context, id int64) (model.Account, error)
	QueryByEmail(ctx context.Context, email string) (model.Account, error)
	ListAccounts(ctx context.Context, q Page) ([]model.Account, error)
	IsEmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	UpdateAccount(ctx context.Context, id int64, changes AccountChanges) (model.Account, error)
	// DeleteAccount removes the account together with its author, the author's
	// posts and every comment written by the account or attached to those posts.
	DeleteAccount(ctx context.Context, id int64) error

	QueryAuthorByID(ctx context.Context, id int64) (model.Author, error)
	QueryAuthorByAccountID(ctx context.Context, accountID int64) (model.Author, error)
	// ListAuthors returns the authors of non-admin accounts.
	ListAuthors(ctx context.Context, q Page) ([]model.Author, error)
	// AuthorPostIDs returns the ids of the posts written by each author.
	AuthorPostIDs(ctx context.Context, authorIDs []int64) (map[int64][]int64, error)
}
