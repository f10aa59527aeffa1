package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/repository"
	"github.com/iliyamo/account-service/internal/utils"
)

// PasswordHasher derives and checks password digests.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, digest string) (bool, error)
}

// TokenDecoder verifies bearer tokens.
type TokenDecoder interface {
	Decode(token string) (utils.TokenClaims, error)
}

// IdentityResolver turns credentials or a bearer token into an account.
// It holds no per-request state.
type IdentityResolver struct {
	store  repository.AccountStore
	hasher PasswordHasher
	tokens TokenDecoder

	dummyMu     sync.Mutex
	dummyDigest string
}

// NewIdentityResolver wires a resolver.
func NewIdentityResolver(store repository.AccountStore, hasher PasswordHasher, tokens TokenDecoder) *IdentityResolver {
	return &IdentityResolver{store: store, hasher: hasher, tokens: tokens}
}

// FindByCredentials looks up the account a login names.  An unknown
// username yields ErrIncorrectCredentials, the same error as a wrong
// password.
func (r *IdentityResolver) FindByCredentials(ctx context.Context, userName string) (model.Account, error) {
	a, err := r.store.FindByUserName(ctx, userName)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, ErrIncorrectCredentials
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by username: %w", err)
	}
	return a, nil
}

// CheckActive rejects deactivated accounts.
func (r *IdentityResolver) CheckActive(a model.Account) error {
	if !a.IsActive {
		return ErrInactiveAccount
	}
	return nil
}

// CheckPassword verifies plain against the stored digest.
func (r *IdentityResolver) CheckPassword(ctx context.Context, a model.Account, plain string) error {
	ok, err := r.hasher.Verify(ctx, plain, a.HashedPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrIncorrectCredentials
	}
	return nil
}

// Authenticate runs the login chain: the account must exist, be active and
// have a matching password.  When the username is unknown a throwaway
// verification still runs so the response time does not reveal it.
func (r *IdentityResolver) Authenticate(ctx context.Context, userName, plain string) (model.Account, error) {
	a, err := r.FindByCredentials(ctx, userName)
	if err != nil {
		if errors.Is(err, ErrIncorrectCredentials) {
			r.burnVerify(ctx, plain)
		}
		return model.Account{}, err
	}
	if err := r.CheckActive(a); err != nil {
		return model.Account{}, err
	}
	if err := r.CheckPassword(ctx, a, plain); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// Resolve decodes a bearer token and loads the account it names.  Errors
// are utils.ErrTokenInvalid, utils.ErrTokenExpired, ErrInvalidIdentifier,
// ErrNotFound or a wrapped store failure.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (model.Account, error) {
	claims, err := r.tokens.Decode(token)
	if err != nil {
		return model.Account{}, err
	}
	id, err := parseID(claims.Subject)
	if err != nil {
		return model.Account{}, err
	}
	a, err := r.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("find account by id: %w", err)
	}
	return a, nil
}

func (r *IdentityResolver) burnVerify(ctx context.Context, plain string) {
	if digest, ok := r.dummy(ctx); ok {
		_, _ = r.hasher.Verify(ctx, plain, digest)
	}
}

// dummy returns the digest verified against for unknown usernames.  A
// failed attempt is retried by the next caller.
func (r *IdentityResolver) dummy(ctx context.Context) (string, bool) {
	r.dummyMu.Lock()
	defer r.dummyMu.Unlock()
	if r.dummyDigest == "" {
		if h, err := r.hasher.Hash(context.WithoutCancel(ctx), "not-a-real-password"); err == nil {
			r.dummyDigest = h
		}
	}
	return r.dummyDigest, r.dummyDigest != ""
}

// parseID validates a caller-supplied account identifier and returns its
// canonical form.
func parseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidIdentifier
	}
	return id.String(), nil
}
