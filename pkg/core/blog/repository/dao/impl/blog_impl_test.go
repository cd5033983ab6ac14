package dao

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"blog-platform/pkg/common/config"
	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/core/blog/model"
	"blog-platform/pkg/core/blog/repository/dao"
	"blog-platform/pkg/core/storage"
	usermodel "blog-platform/pkg/core/user/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")
	cfg.Database.LogLevel = "silent"

	db, err := cfg.InitDB()
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedAuthor(t *testing.T, db *gorm.DB, email string) usermodel.Author {
	t.Helper()
	account := usermodel.Account{Email: email, PasswordHash: "x", FirstName: "F", LastName: "L"}
	require.NoError(t, db.Create(&account).Error)
	author := usermodel.Author{AccountID: account.ID}
	require.NoError(t, db.Omit("Account").Create(&author).Error)
	author.Account = account
	return author
}

type fixture struct {
	db         *gorm.DB
	categories *GormCategoryRepository
	tags       *GormTagRepository
	posts      *GormPostRepository
	comments   *GormCommentRepository
}

func newFixture(t *testing.T) fixture {
	db := newTestDB(t)
	return fixture{
		db:         db,
		categories: NewGormCategoryRepository(db),
		tags:       NewGormTagRepository(db),
		posts:      NewGormPostRepository(db),
		comments:   NewGormCommentRepository(db),
	}
}

func (f fixture) post(t *testing.T, author usermodel.Author, cat model.Category, header, body string, at time.Time, tags ...int64) model.Post {
	t.Helper()
	p := &model.Post{Header: header, Body: body, DatePosted: at, AuthorID: author.ID, CategoryID: cat.ID}
	require.NoError(t, f.posts.Create(context.Background(), p, tags))
	return *p
}

func ids(posts []model.Post) []int64 {
	out := make([]int64, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestCategoryAndTagNamesAreUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.categories.Create(ctx, &model.Category{Name: "Tech"}))
	assert.ErrorIs(t, f.categories.Create(ctx, &model.Category{Name: "Tech"}), apperr.ErrDuplicateEntry)

	tag := &model.Tag{Name: "go"}
	require.NoError(t, f.tags.Create(ctx, tag))
	other := &model.Tag{Name: "rust"}
	require.NoError(t, f.tags.Create(ctx, other))
	_, err := f.tags.Rename(ctx, other.ID, "go")
	assert.ErrorIs(t, err, apperr.ErrDuplicateEntry)

	_, err = f.categories.QueryByID(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostCreateAndLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author := seedAuthor(t, f.db, "a@example.com")
	cat := model.Category{Name: "Tech"}
	require.NoError(t, f.categories.Create(ctx, &cat))
	t1, t2 := model.Tag{Name: "go"}, model.Tag{Name: "db"}
	require.NoError(t, f.tags.Create(ctx, &t1))
	require.NoError(t, f.tags.Create(ctx, &t2))

	p := f.post(t, author, cat, "Hello", "World", time.Now().UTC(), t2.ID, t1.ID, t1.ID)

	got, err := f.posts.QueryByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Header)
	assert.Equal(t, "a@example.com", got.Author.Account.Email)
	assert.Equal(t, "Tech", got.Category.Name)
	require.Len(t, got.Tags, 2)
	assert.Equal(t, t1.ID, got.Tags[0].ID)

	owner, err := f.posts.OwnerOf(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, author.AccountID, owner)

	_, err = f.posts.OwnerOf(ctx, 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := seedAuthor(t, f.db, "alice@example.com")
	bob := seedAuthor(t, f.db, "bob@example.com")
	tech, life := model.Category{Name: "Tech"}, model.Category{Name: "Life"}
	require.NoError(t, f.categories.Create(ctx, &tech))
	require.NoError(t, f.categories.Create(ctx, &life))
	goTag, dbTag := model.Tag{Name: "go"}, model.Tag{Name: "db"}
	require.NoError(t, f.tags.Create(ctx, &goTag))
	require.NoError(t, f.tags.Create(ctx, &dbTag))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p1 := f.post(t, alice, tech, "Go generics", "Type parameters in practice", base, goTag.ID)
	p2 := f.post(t, bob, tech, "Postgres tips", "Indexes and GO to production", base.Add(time.Hour), dbTag.ID, goTag.ID)
	p3 := f.post(t, alice, life, "Gardening", "Tomatoes 100%", base.Add(2*time.Hour))

	tests := []struct {
		name string
		q    dao.PostQuery
		want []int64
	}{
		{"default newest first", dao.PostQuery{}, []int64{p3.ID, p2.ID, p1.ID}},
		{"tag ids any of", dao.PostQuery{TagIDs: []int64{goTag.ID}}, []int64{p2.ID, p1.ID}},
		{"tag name", dao.PostQuery{TagName: "db"}, []int64{p2.ID}},
		{"unknown tag name", dao.PostQuery{TagName: "nope"}, []int64{}},
		{"category ids", dao.PostQuery{CategoryIDs: []int64{life.ID}}, []int64{p3.ID}},
		{"category name", dao.PostQuery{CategoryName: "Tech"}, []int64{p2.ID, p1.ID}},
		{"author", dao.PostQuery{AuthorID: alice.ID}, []int64{p3.ID, p1.ID}},
		{"search is case insensitive across header and body", dao.PostQuery{SearchTerms: []string{"go"}}, []int64{p2.ID, p1.ID}},
		{"every search term must match", dao.PostQuery{SearchTerms: []string{"go", "indexes"}}, []int64{p2.ID}},
		{"like wildcards are literal", dao.PostQuery{SearchTerms: []string{"0%"}}, []int64{p3.ID}},
		{"filters combine", dao.PostQuery{TagIDs: []int64{goTag.ID}, AuthorID: bob.ID}, []int64{p2.ID}},
		{"order by id", dao.PostQuery{Ordering: []dao.OrderField{{Column: "id"}}}, []int64{p1.ID, p2.ID, p3.ID}},
		{"unknown order field ignored", dao.PostQuery{Ordering: []dao.OrderField{{Column: "header"}, {Column: "date_posted"}}}, []int64{p1.ID, p2.ID, p3.ID}},
		{"limit and offset", dao.PostQuery{Ordering: []dao.OrderField{{Column: "id"}}, Limit: 1, Offset: 1}, []int64{p2.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.posts.List(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestPostUpdateReplacesTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author := seedAuthor(t, f.db, "a@example.com")
	cat := model.Category{Name: "Tech"}
	require.NoError(t, f.categories.Create(ctx, &cat))
	t1, t2 := model.Tag{Name: "go"}, model.Tag{Name: "db"}
	require.NoError(t, f.tags.Create(ctx, &t1))
	require.NoError(t, f.tags.Create(ctx, &t2))
	p := f.post(t, author, cat, "Hello", "World", time.Now().UTC(), t1.ID)

	header := "Hello again"
	newTags := []int64{t2.ID}
	got, err := f.posts.Update(ctx, p.ID, dao.PostChanges{Header: &header, TagIDs: &newTags})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", got.Header)
	assert.Equal(t, "World", got.Body)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "db", got.Tags[0].Name)

	empty := []int64{}
	got, err = f.posts.Update(ctx, p.ID, dao.PostChanges{TagIDs: &empty})
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	_, err = f.posts.Update(ctx, 999, dao.PostChanges{Header: &header})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author := seedAuthor(t, f.db, "a@example.com")
	reader := seedAuthor(t, f.db, "r@example.com")
	tech, life := model.Category{Name: "Tech"}, model.Category{Name: "Life"}
	require.NoError(t, f.categories.Create(ctx, &tech))
	require.NoError(t, f.categories.Create(ctx, &life))
	tag := model.Tag{Name: "go"}
	require.NoError(t, f.tags.Create(ctx, &tag))

	now := time.Now().UTC()
	doomed := f.post(t, author, tech, "Doomed", "Body", now, tag.ID)
	kept := f.post(t, author, life, "Kept", "Body", now, tag.ID)
	c1 := &model.Comment{Content: "nice", Date: now, PostID: doomed.ID, AccountID: reader.AccountID}
	c2 := &model.Comment{Content: "also nice", Date: now, PostID: kept.ID, AccountID: reader.AccountID}
	require.NoError(t, f.comments.Create(ctx, c1))
	require.NoError(t, f.comments.Create(ctx, c2))

	t.Run("category delete removes its posts and their comments", func(t *testing.T) {
		require.NoError(t, f.categories.Delete(ctx, tech.ID))

		_, err := f.posts.QueryByID(ctx, doomed.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		_, err = f.comments.QueryByID(ctx, c1.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = f.posts.QueryByID(ctx, kept.ID)
		assert.NoError(t, err)
		_, err = f.comments.QueryByID(ctx, c2.ID)
		assert.NoError(t, err)
	})

	t.Run("tag delete detaches without removing posts", func(t *testing.T) {
		require.NoError(t, f.tags.Delete(ctx, tag.ID))

		got, err := f.posts.QueryByID(ctx, kept.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Tags)
	})

	t.Run("post delete removes its comments", func(t *testing.T) {
		require.NoError(t, f.posts.Delete(ctx, kept.ID))
		_, err := f.comments.QueryByID(ctx, c2.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("deleting missing rows reports not found", func(t *testing.T) {
		assert.ErrorIs(t, f.categories.Delete(ctx, 999), apperr.ErrNotFound)
		assert.ErrorIs(t, f.tags.Delete(ctx, 999), apperr.ErrNotFound)
		assert.ErrorIs(t, f.posts.Delete(ctx, 999), apperr.ErrNotFound)
		assert.ErrorIs(t, f.comments.Delete(ctx, 999), apperr.ErrNotFound)
	})
}

func TestCommentListAndUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author := seedAuthor(t, f.db, "a@example.com")
	cat := model.Category{Name: "Tech"}
	require.NoError(t, f.categories.Create(ctx, &cat))
	now := time.Now().UTC()
	p1 := f.post(t, author, cat, "One", "Body", now)
	p2 := f.post(t, author, cat, "Two", "Body", now)

	for _, pid := range []int64{p1.ID, p2.ID, p1.ID} {
		require.NoError(t, f.comments.Create(ctx, &model.Comment{Content: "hi", Date: now, PostID: pid, AccountID: author.AccountID}))
	}

	all, err := f.comments.List(ctx, dao.CommentQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onP1, err := f.comments.List(ctx, dao.CommentQuery{PostID: p1.ID})
	require.NoError(t, err)
	assert.Len(t, onP1, 2)

	paged, err := f.comments.List(ctx, dao.CommentQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, all[1].ID, paged[0].ID)

	updated, err := f.comments.UpdateContent(ctx, onP1[0].ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, p1.ID, updated.PostID)
}

func TestMissingTagIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tag := model.Tag{Name: "go"}
	require.NoError(t, f.tags.Create(ctx, &tag))

	miss, err := f.tags.MissingIDs(ctx, []int64{tag.ID, 77, 77, 78})
	require.NoError(t, err)
	assert.Equal(t, []int64{77, 78}, miss)

	miss, err = f.tags.MissingIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, miss)
}
