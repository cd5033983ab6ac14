// Package policy decides whether an actor may perform an action on a resource.
//
// Rules are plain functions kept in a table keyed by resource and action, so
// every decision can be tested without storage or HTTP. Three outcomes are
// distinguished: nil (allowed), ErrAuthenticationRequired (no actor on a gated
// action) and ErrForbidden (actor known but not entitled). Existence of the
// target is the caller's concern.
package policy

import (
	"fmt"

	apperr "blog-platform/pkg/common/errors"
)

type Action int

const (
	List Action = iota
	Retrieve
	Create
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case List:
		return "list"
	case Retrieve:
		return "retrieve"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

type Resource int

const (
	Account Resource = iota
	Author
	Category
	Tag
	Post
	Comment
)

func (r Resource) String() string {
	switch r {
	case Account:
		return "account"
	case Author:
		return "author"
	case Category:
		return "category"
	case Tag:
		return "tag"
	case Post:
		return "post"
	case Comment:
		return "comment"
	default:
		return fmt.Sprintf("resource(%d)", int(r))
	}
}

// Actor is the authenticated account behind a request. A nil *Actor is anonymous.
type Actor struct {
	AccountID int64
	Admin     bool
}

// NoOwner is passed for collection level decisions (list, create).
const NoOwner int64 = 0

// Check is one rule. owner is the account owning the target, or NoOwner.
type Check func(actor *Actor, owner int64) error

// Anyone allows every actor, anonymous included.
func Anyone(*Actor, int64) error {
	return nil
}

// Authenticated allows any known actor.
func Authenticated(actor *Actor, _ int64) error {
	if actor == nil {
		return apperr.ErrAuthenticationRequired
	}
	return nil
}

// Anonymous allows only requests without credentials.
func Anonymous(actor *Actor, _ int64) error {
	if actor != nil {
		return apperr.ErrForbidden
	}
	return nil
}

// Admin allows admin actors.
func Admin(actor *Actor, _ int64) error {
	if actor == nil {
		return apperr.ErrAuthenticationRequired
	}
	if !actor.Admin {
		return apperr.ErrForbidden
	}
	return nil
}

// OwnerOrAdmin allows the owner of the target and admins.
func OwnerOrAdmin(actor *Actor, owner int64) error {
	if actor == nil {
		return apperr.ErrAuthenticationRequired
	}
	if actor.Admin || (owner != NoOwner && actor.AccountID == owner) {
		return nil
	}
	return apperr.ErrForbidden
}

// Nobody denies the action for every actor.
func Nobody(actor *Actor, _ int64) error {
	if actor == nil {
		return apperr.ErrAuthenticationRequired
	}
	return apperr.ErrForbidden
}

var adminOwned = map[Action]Check{
	List:     Anyone,
	Retrieve: Anyone,
	Create:   Admin,
	Update:   Admin,
	Delete:   Admin,
}

var userOwned = map[Action]Check{
	List:     Anyone,
	Retrieve: Anyone,
	Create:   Authenticated,
	Update:   OwnerOrAdmin,
	Delete:   OwnerOrAdmin,
}

var rules = map[Resource]map[Action]Check{
	Account: {
		List:     Admin,
		Retrieve: OwnerOrAdmin,
		Create:   Anonymous,
		Update:   OwnerOrAdmin,
		Delete:   OwnerOrAdmin,
	},
	Author: {
		List:     Anyone,
		Retrieve: Anyone,
		Create:   Nobody,
		Update:   Nobody,
		Delete:   Nobody,
	},
	Category: adminOwned,
	Tag:      adminOwned,
	Post:     userOwned,
	Comment:  userOwned,
}

func rule(res Resource, action Action) Check {
	if checks, ok := rules[res]; ok {
		if check, ok := checks[action]; ok {
			return check
		}
	}
	return Nobody
}

// Authorize evaluates the full rule for (actor, resource, action) against the
// current owner of the target.
func Authorize(actor *Actor, res Resource, action Action, owner int64) error {
	return rule(res, action)(actor, owner)
}

// RequireAuthentication evaluates only the authentication part of a rule. It is
// checked before the target is loaded, so anonymous callers get
// ErrAuthenticationRequired rather than ErrNotFound on gated item actions.
func RequireAuthentication(actor *Actor, res Resource, action Action) error {
	if actor != nil {
		return nil
	}
	return rule(res, action)(nil, NoOwner)
}
