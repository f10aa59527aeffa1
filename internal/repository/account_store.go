package repository

import (
	"context"
	"time"

	"github.com/iliyamo/account-service/internal/model"
)

// AccountStore is the persistence contract of the account service.  Each
// call is a single atomic operation; uniqueness of user_name is enforced by
// the store itself so concurrent inserts of the same name cannot both win.
type AccountStore interface {
	// Insert assigns a fresh ID to a and stores it.
	Insert(ctx context.Context, a *model.Account) error
	FindByID(ctx context.Context, id string) (model.Account, error)
	FindByUserName(ctx context.Context, userName string) (model.Account, error)
	FindAll(ctx context.Context) ([]model.Account, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserName(ctx context.Context, userName string) error
	// Update rewrites every mutable column of the account identified by a.ID.
	Update(ctx context.Context, a model.Account) error
	// UpdateProfile changes only the columns an owner may edit.  The
	// active and admin flags are never written.
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error
	UpdatePassword(ctx context.Context, id, hashedPassword string, at time.Time) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Ping(ctx context.Context) error
}

// ProfileUpdate is an owner's edit of their own account.  A nil digest
// leaves the stored one in place.
type ProfileUpdate struct {
	UserName           string
	FirstName          string
	LastName           string
	HashedPassword     *string
	SecurityAnswerHash *string
	At                 time.Time
}
