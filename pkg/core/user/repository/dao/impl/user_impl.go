package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/core/user/model"
	"blog-platform/pkg/core/user/repository/dao"
)

// tables owned by the blog domain that reference accounts and authors
const (
	postsTable    = "posts"
	postTagsTable = "post_tags"
	commentsTable = "comments"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

var _ dao.UserRepository = (*GormUserRepository)(nil)

// CreateAccount writes the account and its author shadow atomically.
func (r *GormUserRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Author, error) {
	account.Email = normalizeEmail(account.Email)
	author := &model.Author{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			if apperr.IsDuplicateError(err) {
				return apperr.ErrDuplicateEntry
			}
			return fmt.Errorf("%w: account creation failed", apperr.WrapGormError(err))
		}

		author.AccountID = account.ID
		if err := tx.Omit("Account").Create(author).Error; err != nil {
			return fmt.Errorf("%w: author creation failed", apperr.WrapGormError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	author.Account = *account
	return author, nil
}

func (r *GormUserRepository) QueryByID(ctx context.Context, id int64) (model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return model.Account{}, apperr.WrapGormError(err)
	}
	return account, nil
}

func (r *GormUserRepository) QueryByEmail(ctx context.Context, email string) (model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&account).Error
	if err != nil {
		return model.Account{}, apperr.WrapGormError(err)
	}
	return account, nil
}

func (r *GormUserRepository) ListAccounts(ctx context.Context, q dao.Page) ([]model.Account, error) {
	var accounts []model.Account
	tx := r.db.WithContext(ctx).Order("id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if err := tx.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("%w: account listing failed", apperr.WrapGormError(err))
	}
	return accounts, nil
}

// IsEmailExists checks whether another account already uses email.
func (r *GormUserRepository) IsEmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Account{}).Where("email = ?", normalizeEmail(email))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: failed to check email", apperr.WrapGormError(err))
	}
	return count > 0, nil
}

// UpdateAccount applies changes to the account and, for bio, to its author in one transaction.
func (r *GormUserRepository) UpdateAccount(ctx context.Context, id int64, changes dao.AccountChanges) (model.Account, error) {
	var account model.Account

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&account).Error; err != nil {
			return apperr.WrapGormError(err)
		}

		updates := map[string]interface{}{}
		if changes.Email != nil {
			updates["email"] = normalizeEmail(*changes.Email)
		}
		if changes.FirstName != nil {
			updates["first_name"] = *changes.FirstName
		}
		if changes.LastName != nil {
			updates["last_name"] = *changes.LastName
		}
		if changes.PasswordHash != nil {
			updates["password_hash"] = *changes.PasswordHash
		}

		if len(updates) > 0 {
			if err := tx.Model(&account).Updates(updates).Error; err != nil {
				if apperr.IsDuplicateError(err) {
					return apperr.ErrDuplicateEntry
				}
				return fmt.Errorf("%w: account update failed", apperr.WrapGormError(err))
			}
		}

		if changes.Bio != nil {
			result := tx.Model(&model.Author{}).
				Where("account_id = ?", id).
				Update("bio", *changes.Bio)
			if result.Error != nil {
				return fmt.Errorf("%w: author update failed", apperr.WrapGormError(result.Error))
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: account %d has no author", apperr.ErrDatabaseInternal, id)
			}
		}

		if err := tx.Where("id = ?", id).First(&account).Error; err != nil {
			return fmt.Errorf("%w: account reload failed", apperr.WrapGormError(err))
		}
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// DeleteAccount removes the account and everything that depends on it.
func (r *GormUserRepository) DeleteAccount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account model.Account
		if err := tx.Select("id").Where("id = ?", id).First(&account).Error; err != nil {
			return apperr.WrapGormError(err)
		}

		authorPosts := "SELECT p.id FROM " + postsTable + " p JOIN authors a ON a.id = p.author_id WHERE a.account_id = ?"

		steps := []struct {
			what string
			run  func() error
		}{
			{"comments", func() error {
				return tx.Exec("DELETE FROM "+commentsTable+" WHERE account_id = ? OR post_id IN ("+authorPosts+")", id, id).Error
			}},
			{"post tags", func() error {
				return tx.Exec("DELETE FROM "+postTagsTable+" WHERE post_id IN ("+authorPosts+")", id).Error
			}},
			{"posts", func() error {
				return tx.Exec("DELETE FROM "+postsTable+" WHERE author_id IN (SELECT id FROM authors WHERE account_id = ?)", id).Error
			}},
			{"author", func() error {
				return tx.Where("account_id = ?", id).Delete(&model.Author{}).Error
			}},
			{"account", func() error {
				return tx.Delete(&model.Account{}, id).Error
			}},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return fmt.Errorf("%w: delete %s of account %d", apperr.WrapGormError(err), step.what, id)
			}
		}
		return nil
	})
}

func (r *GormUserRepository) QueryAuthorByID(ctx context.Context, id int64) (model.Author, error) {
	var author model.Author
	err := r.db.WithContext(ctx).
		Preload("Account").
		Joins("JOIN accounts ON accounts.id = authors.account_id").
		Where("authors.id = ? AND accounts.is_admin = ?", id, false).
		First(&author).Error
	if err != nil {
		return model.Author{}, apperr.WrapGormError(err)
	}
	return author, nil
}

func (r *GormUserRepository) QueryAuthorByAccountID(ctx context.Context, accountID int64) (model.Author, error) {
	var author model.Author
	err := r.db.WithContext(ctx).
		Preload("Account").
		Where("authors.account_id = ?", accountID).
		First(&author).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Author{}, fmt.Errorf("%w: account %d has no author", apperr.ErrDatabaseInternal, accountID)
		}
		return model.Author{}, apperr.WrapGormError(err)
	}
	return author, nil
}

func (r *GormUserRepository) ListAuthors(ctx context.Context, q dao.Page) ([]model.Author, error) {
	var authors []model.Author
	tx := r.db.WithContext(ctx).
		Preload("Account").
		Joins("JOIN accounts ON accounts.id = authors.account_id").
		Where("accounts.is_admin = ?", false).
		Order("authors.id ASC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if err := tx.Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("%w: author listing failed", apperr.WrapGormError(err))
	}
	return authors, nil
}

func (r *GormUserRepository) AuthorPostIDs(ctx context.Context, authorIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ID       int64
		AuthorID int64
	}
	err := r.db.WithContext(ctx).Table(postsTable).
		Select("id, author_id").
		Where("author_id IN ?", authorIDs).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: author posts lookup failed", apperr.WrapGormError(err))
	}
	for _, row := range rows {
		out[row.AuthorID] = append(out[row.AuthorID], row.ID)
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
