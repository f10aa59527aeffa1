package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/queue"
	"github.com/iliyamo/account-service/internal/repository"
)

// RegisterInput carries a self-registration.  Secrets arrive in plaintext
// and are hashed before anything is stored.
type RegisterInput struct {
	UserName       string
	FirstName      string
	LastName       string
	Password       string
	SecurityAnswer string
}

// UpdateSelfInput is an owner's change to their own account.  ID must be
// the caller's own identifier.  Empty Password or SecurityAnswer keep the
// stored value.
type UpdateSelfInput struct {
	ID             string
	UserName       string
	FirstName      string
	LastName       string
	Password       string
	SecurityAnswer string
}

// AdminUpdateInput is an administrator's full update.  Nil flags keep the
// stored value; so do empty secrets.
type AdminUpdateInput struct {
	UserName       string
	FirstName      string
	LastName       string
	Password       string
	SecurityAnswer string
	IsActive       *bool
	IsAdmin        *bool
}

// ForgotPasswordInput resets a password by answering the security question.
type ForgotPasswordInput struct {
	UserName       string
	SecurityAnswer string
	NewPassword    string
}

// AccountService implements the account lifecycle on top of an
// AccountStore.  Uniqueness and existence are enforced by the store; the
// service only translates store outcomes into domain errors.
type AccountService struct {
	store  repository.AccountStore
	hasher PasswordHasher
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewAccountService wires the service.  A nil publisher disables events.
func NewAccountService(store repository.AccountStore, hasher PasswordHasher, events EventPublisher, logger *zap.Logger) *AccountService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &AccountService{store: store, hasher: hasher, events: events, logger: logger, now: time.Now}
}

// Register creates an active, non-admin account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (model.Account, error) {
	pw, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return model.Account{}, fmt.Errorf("hash password: %w", err)
	}
	answer, err := s.hasher.Hash(ctx, in.SecurityAnswer)
	if err != nil {
		return model.Account{}, fmt.Errorf("hash security answer: %w", err)
	}

	now := s.now().UTC()
	a := model.Account{
		UserName:           in.UserName,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		HashedPassword:     pw,
		SecurityAnswerHash: answer,
		IsActive:           true,
		IsAdmin:            false,
		DateCreated:        now,
		LastUpdate:         now,
	}
	if err := s.store.Insert(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return model.Account{}, duplicate(in.UserName)
		}
		return model.Account{}, fmt.Errorf("insert account: %w", err)
	}

	s.publish(ctx, queue.EventRegistered, a.ID, a.UserName)
	return a, nil
}

// GetByID loads one account.
func (s *AccountService) GetByID(ctx context.Context, id string) (model.Account, error) {
	id, err := parseID(id)
	if err != nil {
		return model.Account{}, err
	}
	a, err := s.store.FindByID(ctx, id)
	return a, notFound(err, "find account by id")
}

// GetByUserName loads one account by its exact username.
func (s *AccountService) GetByUserName(ctx context.Context, userName string) (model.Account, error) {
	a, err := s.store.FindByUserName(ctx, userName)
	return a, notFound(err, "find account by username")
}

// List returns every account.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return all, nil
}

// DeleteByID removes one account.  Deleting an absent account is
// ErrNotFound.
func (s *AccountService) DeleteByID(ctx context.Context, id string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	if err := notFound(s.store.DeleteByID(ctx, id), "delete account"); err != nil {
		return err
	}
	s.publish(ctx, queue.EventDeleted, id, "")
	return nil
}

// DeleteByUserName removes one account.
func (s *AccountService) DeleteByUserName(ctx context.Context, userName string) error {
	if err := notFound(s.store.DeleteByUserName(ctx, userName), "delete account"); err != nil {
		return err
	}
	s.publish(ctx, queue.EventDeleted, "", userName)
	return nil
}

// DeleteSelf removes the caller's own account.
func (s *AccountService) DeleteSelf(ctx context.Context, caller model.Account) error {
	if err := notFound(s.store.DeleteByID(ctx, caller.ID), "delete account"); err != nil {
		return err
	}
	s.publish(ctx, queue.EventDeleted, caller.ID, caller.UserName)
	return nil
}

// UpdateSelf applies in to the caller's own account.  The target check runs
// before anything is hashed or written.  Only the owner-editable columns
// are written, so a concurrent admin update or password reset is never
// overwritten from the caller's copy.  An update matching no row means the
// account disappeared underneath the request and is reported as
// ErrUpdateConflict.
func (s *AccountService) UpdateSelf(ctx context.Context, caller model.Account, in UpdateSelfInput) (model.Account, error) {
	if in.ID != caller.ID {
		return model.Account{}, ErrInvalidTargetAccount
	}

	p := repository.ProfileUpdate{
		UserName:  in.UserName,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if in.Password != "" {
		h, err := s.hasher.Hash(ctx, in.Password)
		if err != nil {
			return model.Account{}, fmt.Errorf("hash password: %w", err)
		}
		p.HashedPassword = &h
	}
	if in.SecurityAnswer != "" {
		h, err := s.hasher.Hash(ctx, in.SecurityAnswer)
		if err != nil {
			return model.Account{}, fmt.Errorf("hash security answer: %w", err)
		}
		p.SecurityAnswerHash = &h
	}
	p.At = s.now().UTC()

	switch err := s.store.UpdateProfile(ctx, caller.ID, p); {
	case errors.Is(err, repository.ErrDuplicateKey):
		return model.Account{}, duplicate(in.UserName)
	case errors.Is(err, repository.ErrNoRowsAffected):
		return model.Account{}, ErrUpdateConflict
	case err != nil:
		return model.Account{}, fmt.Errorf("update profile: %w", err)
	}

	a, err := s.store.FindByID(ctx, caller.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Account{}, ErrUpdateConflict
	case err != nil:
		return model.Account{}, fmt.Errorf("reload account: %w", err)
	}

	s.publish(ctx, queue.EventUpdated, a.ID, a.UserName)
	return a, nil
}

// UpdateAccount is the administrator's full update, the only path that can
// change the active and admin flags.
func (s *AccountService) UpdateAccount(ctx context.Context, id string, in AdminUpdateInput) (model.Account, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return model.Account{}, err
	}

	a.UserName = in.UserName
	a.FirstName = in.FirstName
	a.LastName = in.LastName
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if in.IsAdmin != nil {
		a.IsAdmin = *in.IsAdmin
	}
	if err := s.rehash(ctx, &a, in.Password, in.SecurityAnswer); err != nil {
		return model.Account{}, err
	}
	a.LastUpdate = s.now().UTC()

	switch err := s.store.Update(ctx, a); {
	case errors.Is(err, repository.ErrDuplicateKey):
		return model.Account{}, duplicate(in.UserName)
	case errors.Is(err, repository.ErrNoRowsAffected):
		return model.Account{}, ErrNotFound
	case err != nil:
		return model.Account{}, fmt.Errorf("update account: %w", err)
	}

	s.publish(ctx, queue.EventUpdated, a.ID, a.UserName)
	return a, nil
}

// ForgotPassword replaces the password of the named account once the
// security answer has been verified and returns the updated account.  The
// answer is compared exactly as typed.
func (s *AccountService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (model.Account, error) {
	a, err := s.GetByUserName(ctx, in.UserName)
	if err != nil {
		return model.Account{}, err
	}

	ok, err := s.hasher.Verify(ctx, in.SecurityAnswer, a.SecurityAnswerHash)
	if err != nil {
		return model.Account{}, fmt.Errorf("verify security answer: %w", err)
	}
	if !ok {
		return model.Account{}, ErrSecurityAnswerMismatch
	}

	pw, err := s.hasher.Hash(ctx, in.NewPassword)
	if err != nil {
		return model.Account{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	if err := notFound(s.store.UpdatePassword(ctx, a.ID, pw, now), "update password"); err != nil {
		return model.Account{}, err
	}
	a.HashedPassword = pw
	a.LastUpdate = now

	s.publish(ctx, queue.EventPasswordReset, a.ID, a.UserName)
	return a, nil
}

// RecordLogin stamps last_login.  Failure is logged and otherwise ignored.
func (s *AccountService) RecordLogin(ctx context.Context, id string) {
	if err := s.store.TouchLastLogin(ctx, id, s.now().UTC()); err != nil {
		s.logger.Warn("failed to record last login", zap.String("account_id", id), zap.Error(err))
	}
}

// EnsureAdmin makes sure an administrator named in.UserName exists.  An
// existing account is promoted and reactivated but keeps its credentials;
// a missing one is registered from in and then promoted.
func (s *AccountService) EnsureAdmin(ctx context.Context, in RegisterInput) (model.Account, error) {
	a, err := s.GetByUserName(ctx, in.UserName)
	switch {
	case errors.Is(err, ErrNotFound):
		if a, err = s.Register(ctx, in); err != nil {
			return model.Account{}, err
		}
	case err != nil:
		return model.Account{}, err
	case a.IsAdmin && a.IsActive:
		return a, nil
	}

	a.IsAdmin = true
	a.IsActive = true
	a.LastUpdate = s.now().UTC()
	if err := notFound(s.store.Update(ctx, a), "promote account"); err != nil {
		return model.Account{}, err
	}
	s.publish(ctx, queue.EventUpdated, a.ID, a.UserName)
	return a, nil
}

// rehash replaces the stored digests for every non-empty secret.
func (s *AccountService) rehash(ctx context.Context, a *model.Account, password, answer string) error {
	if password != "" {
		h, err := s.hasher.Hash(ctx, password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		a.HashedPassword = h
	}
	if answer != "" {
		h, err := s.hasher.Hash(ctx, answer)
		if err != nil {
			return fmt.Errorf("hash security answer: %w", err)
		}
		a.SecurityAnswerHash = h
	}
	return nil
}

func (s *AccountService) publish(ctx context.Context, typ, id, userName string) {
	ev := queue.NewAccountEvent(typ, id, userName, s.now())
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish account event", zap.String("type", typ), zap.Error(err))
	}
}

// notFound maps the store's "nothing matched" errors to ErrNotFound and
// wraps anything else with op.
func notFound(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrNoRowsAffected):
		return ErrNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func duplicate(userName string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateUsername, userName)
}
