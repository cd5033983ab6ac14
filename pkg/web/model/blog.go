package model

import (
	"time"

	blogmodel "blog-platform/pkg/core/blog/model"
	usermodel "blog-platform/pkg/core/user/model"
	userservice "blog-platform/pkg/core/user/service"
)

// response payloads
type (
	AccountRes struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		IsAdmin   bool   `json:"is_admin"`
	}

	MeRes struct {
		Data AccountRes `json:"data"`
	}

	// AuthorUserRes is the account as seen through an author.
	AuthorUserRes struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	AuthorRes struct {
		ID    int64         `json:"id"`
		User  AuthorUserRes `json:"user"`
		Bio   string        `json:"bio"`
		Posts []int64       `json:"posts"`
	}

	PostAuthorRes struct {
		ID   int64         `json:"id"`
		User AuthorUserRes `json:"user"`
		Bio  string        `json:"bio"`
	}

	CategoryRes struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	TagRes struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	PostRes struct {
		ID         int64         `json:"id"`
		Header     string        `json:"header"`
		Body       string        `json:"body"`
		DatePosted time.Time     `json:"date_posted"`
		Author     PostAuthorRes `json:"author"`
		Category   CategoryRes   `json:"category"`
		Tags       []TagRes      `json:"tags"`
	}

	CommentRes struct {
		ID      int64     `json:"id"`
		Content string    `json:"content"`
		Date    time.Time `json:"date"`
		Post    int64     `json:"post"`
		User    int64     `json:"user"`
	}

	// ErrorRes is the body of every failed request.
	ErrorRes struct {
		Error   string              `json:"error"`
		Message string              `json:"message"`
		Fields  map[string][]string `json:"fields,omitempty"`
		Score   *float64            `json:"score,omitempty"`
	}
)

// request payloads
type (
	TokenReq struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	TokenRes struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	RefreshReq struct {
		Refresh string `json:"refresh"`
	}

	AccessRes struct {
		Access string `json:"access"`
	}
)

func NewAccountRes(a usermodel.Account) AccountRes {
	return AccountRes{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		IsAdmin:   a.IsAdmin,
	}
}

func NewAccountList(accounts []usermodel.Account) []AccountRes {
	out := make([]AccountRes, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewAccountRes(a))
	}
	return out
}

func newAuthorUser(a usermodel.Account) AuthorUserRes {
	return AuthorUserRes{ID: a.ID, Email: a.Email, FirstName: a.FirstName, LastName: a.LastName}
}

func NewAuthorRes(v userservice.AuthorView) AuthorRes {
	return AuthorRes{
		ID:    v.ID,
		User:  newAuthorUser(v.Account),
		Bio:   v.Bio,
		Posts: v.PostIDs,
	}
}

func NewAuthorList(views []userservice.AuthorView) []AuthorRes {
	out := make([]AuthorRes, 0, len(views))
	for _, v := range views {
		out = append(out, NewAuthorRes(v))
	}
	return out
}

func NewCategoryRes(c blogmodel.Category) CategoryRes {
	return CategoryRes{ID: c.ID, Name: c.Name}
}

func NewCategoryList(categories []blogmodel.Category) []CategoryRes {
	out := make([]CategoryRes, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategoryRes(c))
	}
	return out
}

func NewTagRes(t blogmodel.Tag) TagRes {
	return TagRes{ID: t.ID, Name: t.Name}
}

func NewTagList(tags []blogmodel.Tag) []TagRes {
	out := make([]TagRes, 0, len(tags))
	for _, t := range tags {
		out = append(out, NewTagRes(t))
	}
	return out
}

func NewPostRes(p blogmodel.Post) PostRes {
	return PostRes{
		ID:         p.ID,
		Header:     p.Header,
		Body:       p.Body,
		DatePosted: p.DatePosted,
		Author: PostAuthorRes{
			ID:   p.Author.ID,
			User: newAuthorUser(p.Author.Account),
			Bio:  p.Author.Bio,
		},
		Category: NewCategoryRes(p.Category),
		Tags:     NewTagList(p.Tags),
	}
}

func NewPostList(posts []blogmodel.Post) []PostRes {
	out := make([]PostRes, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostRes(p))
	}
	return out
}

func NewCommentRes(c blogmodel.Comment) CommentRes {
	return CommentRes{
		ID:      c.ID,
		Content: c.Content,
		Date:    c.Date,
		Post:    c.PostID,
		User:    c.AccountID,
	}
}

func NewCommentList(comments []blogmodel.Comment) []CommentRes {
	out := make([]CommentRes, 0, len(comments))
	for _, c := range comments {
		out = append(out, NewCommentRes(c))
	}
	return out
}
