package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"golang.org/x/crypto/bcrypt"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/common/validation"
	"blog-platform/pkg/core/policy"
	"blog-platform/pkg/core/user/model"
	"blog-platform/pkg/core/user/repository/dao"
)

const duplicateEmailMsg = "user with this email already exists."

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

// UpdateInput carries account changes. Nil fields are left untouched; a full
// update additionally requires Email.
type UpdateInput struct {
	Email     *string `json:"email" validate:"omitnil,email,max=255"`
	Password  *string `json:"password" validate:"omitnil,password"`
	FirstName *string `json:"first_name" validate:"omitnil,max=150"`
	LastName  *string `json:"last_name" validate:"omitnil,max=150"`
	Bio       *string `json:"bio" validate:"omitnil,max=1000"`
}

// AuthorView is an author with the ids of its posts.
type AuthorView struct {
	model.Author
	PostIDs []int64
}

type UserService struct {
	repo dao.UserRepository
	cost int
}

func NewUserService(repo dao.UserRepository) *UserService {
	return &UserService{repo: repo, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Register creates an account and its author. Only anonymous actors may register.
func (s *UserService) Register(ctx context.Context, actor *policy.Actor, in RegisterInput) (model.Account, error) {
	if err := policy.Authorize(actor, policy.Account, policy.Create, policy.NoOwner); err != nil {
		return model.Account{}, err
	}
	return s.create(ctx, in, false)
}

// CreateAdmin creates an admin account, bypassing the policy. It backs the CLI.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (model.Account, error) {
	return s.create(ctx, in, true)
}

func (s *UserService) create(ctx context.Context, in RegisterInput, admin bool) (model.Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validation.Struct(in); err != nil {
		return model.Account{}, err
	}

	exists, err := s.repo.IsEmailExists(ctx, in.Email, 0)
	if err != nil {
		return model.Account{}, err
	}
	if exists {
		return model.Account{}, apperr.NewValidationError("email", duplicateEmailMsg)
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return model.Account{}, err
	}

	account := &model.Account{
		Email:        in.Email,
		PasswordHash: hashed,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsAdmin:      admin,
	}
	if _, err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, apperr.ErrDuplicateEntry) {
			return model.Account{}, apperr.NewValidationError("email", duplicateEmailMsg)
		}
		return model.Account{}, err
	}

	hlog.CtxInfof(ctx, "account %d registered admin=%t", account.ID, admin)
	return *account, nil
}

// Authenticate checks credentials and returns the matching account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (model.Account, error) {
	verr := &apperr.ValidationError{}
	if strings.TrimSpace(email) == "" {
		verr.Add("email", "This field is required.")
	}
	if password == "" {
		verr.Add("password", "This field is required.")
	}
	if !verr.Empty() {
		return model.Account{}, verr
	}

	account, err := s.repo.QueryByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.Account{}, apperr.ErrInvalidCredentials
		}
		return model.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return model.Account{}, apperr.ErrInvalidCredentials
	}
	return account, nil
}

// Resolve loads the actor behind an authenticated account id.
func (s *UserService) Resolve(ctx context.Context, accountID int64) (*policy.Actor, error) {
	account, err := s.repo.QueryByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &policy.Actor{AccountID: account.ID, Admin: account.IsAdmin}, nil
}

func (s *UserService) Me(ctx context.Context, actor *policy.Actor) (model.Account, error) {
	if err := policy.Authenticated(actor, policy.NoOwner); err != nil {
		return model.Account{}, err
	}
	return s.repo.QueryByID(ctx, actor.AccountID)
}

func (s *UserService) List(ctx context.Context, actor *policy.Actor, page dao.Page) ([]model.Account, error) {
	if err := policy.Authorize(actor, policy.Account, policy.List, policy.NoOwner); err != nil {
		return nil, err
	}
	return s.repo.ListAccounts(ctx, page)
}

// load runs the item checks in order: authentication, existence, ownership.
func (s *UserService) load(ctx context.Context, actor *policy.Actor, action policy.Action, id int64) (model.Account, error) {
	if err := policy.RequireAuthentication(actor, policy.Account, action); err != nil {
		return model.Account{}, err
	}
	account, err := s.repo.QueryByID(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	if err := policy.Authorize(actor, policy.Account, action, account.ID); err != nil {
		return model.Account{}, err
	}
	return account, nil
}

func (s *UserService) Get(ctx context.Context, actor *policy.Actor, id int64) (model.Account, error) {
	return s.load(ctx, actor, policy.Retrieve, id)
}

// Update applies in to the account. partial distinguishes PATCH from PUT.
func (s *UserService) Update(ctx context.Context, actor *policy.Actor, id int64, in UpdateInput, partial bool) (model.Account, error) {
	if _, err := s.load(ctx, actor, policy.Update, id); err != nil {
		return model.Account{}, err
	}

	trim(in.Email, in.FirstName, in.LastName)
	if !partial && in.Email == nil {
		return model.Account{}, apperr.NewValidationError("email", "This field is required.")
	}
	if err := validation.Struct(in); err != nil {
		return model.Account{}, err
	}

	changes := dao.AccountChanges{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
	}
	if in.Email != nil {
		exists, err := s.repo.IsEmailExists(ctx, *in.Email, id)
		if err != nil {
			return model.Account{}, err
		}
		if exists {
			return model.Account{}, apperr.NewValidationError("email", duplicateEmailMsg)
		}
	}
	if in.Password != nil {
		hashed, err := s.hash(*in.Password)
		if err != nil {
			return model.Account{}, err
		}
		changes.PasswordHash = &hashed
	}

	account, err := s.repo.UpdateAccount(ctx, id, changes)
	if errors.Is(err, apperr.ErrDuplicateEntry) {
		return model.Account{}, apperr.NewValidationError("email", duplicateEmailMsg)
	}
	return account, err
}

func (s *UserService) Delete(ctx context.Context, actor *policy.Actor, id int64) error {
	if _, err := s.load(ctx, actor, policy.Delete, id); err != nil {
		return err
	}
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return err
	}
	hlog.CtxInfof(ctx, "account %d deleted by %d", id, actor.AccountID)
	return nil
}

func (s *UserService) ListAuthors(ctx context.Context, actor *policy.Actor, page dao.Page) ([]AuthorView, error) {
	if err := policy.Authorize(actor, policy.Author, policy.List, policy.NoOwner); err != nil {
		return nil, err
	}
	authors, err := s.repo.ListAuthors(ctx, page)
	if err != nil {
		return nil, err
	}
	return s.withPosts(ctx, authors)
}

func (s *UserService) GetAuthor(ctx context.Context, actor *policy.Actor, id int64) (AuthorView, error) {
	if err := policy.Authorize(actor, policy.Author, policy.Retrieve, policy.NoOwner); err != nil {
		return AuthorView{}, err
	}
	author, err := s.repo.QueryAuthorByID(ctx, id)
	if err != nil {
		return AuthorView{}, err
	}
	views, err := s.withPosts(ctx, []model.Author{author})
	if err != nil {
		return AuthorView{}, err
	}
	return views[0], nil
}

// AuthorOf returns the author record of an account, used to attribute posts.
func (s *UserService) AuthorOf(ctx context.Context, accountID int64) (model.Author, error) {
	return s.repo.QueryAuthorByAccountID(ctx, accountID)
}

func (s *UserService) withPosts(ctx context.Context, authors []model.Author) ([]AuthorView, error) {
	ids := make([]int64, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	posts, err := s.repo.AuthorPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]AuthorView, 0, len(authors))
	for _, a := range authors {
		postIDs := posts[a.ID]
		if postIDs == nil {
			postIDs = []int64{}
		}
		views = append(views, AuthorView{Author: a, PostIDs: postIDs})
	}
	return views, nil
}

func trim(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}
