package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/account-service/internal/model"
)

// MemoryAccountRepo is an in-process AccountStore.  A single mutex guards
// both the id map and the user_name index, which gives the same atomic
// uniqueness guarantee as the MySQL unique key.
type MemoryAccountRepo struct {
	mu     sync.RWMutex
	byID   map[string]model.Account
	byName map[string]string // user_name -> id
}

// NewMemoryAccountRepo returns an empty store.
func NewMemoryAccountRepo() *MemoryAccountRepo {
	return &MemoryAccountRepo{
		byID:   make(map[string]model.Account),
		byName: make(map[string]string),
	}
}

func (r *MemoryAccountRepo) Insert(ctx context.Context, a *model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[a.UserName]; taken {
		return ErrDuplicateKey
	}
	stored := *a
	stored.ID = uuid.NewString()
	r.byID[stored.ID] = stored
	r.byName[stored.UserName] = stored.ID
	a.ID = stored.ID
	return nil
}

func (r *MemoryAccountRepo) FindByID(ctx context.Context, id string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryAccountRepo) FindByUserName(ctx context.Context, userName string) (model.Account, error) {
	if err := ctx.Err(); err != nil {
		return model.Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[userName]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

// FindAll returns a snapshot ordered by creation time then id.
func (r *MemoryAccountRepo) FindAll(ctx context.Context) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]model.Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].DateCreated.Before(out[j].DateCreated)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryAccountRepo) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return ErrNoRowsAffected
	}
	delete(r.byID, id)
	delete(r.byName, a.UserName)
	return nil
}

func (r *MemoryAccountRepo) DeleteByUserName(ctx context.Context, userName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[userName]
	if !ok {
		return ErrNoRowsAffected
	}
	delete(r.byID, id)
	delete(r.byName, userName)
	return nil
}

func (r *MemoryAccountRepo) Update(ctx context.Context, a model.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return ErrNoRowsAffected
	}
	if err := r.rename(&cur, a.UserName); err != nil {
		return err
	}
	cur.FirstName = a.FirstName
	cur.LastName = a.LastName
	cur.HashedPassword = a.HashedPassword
	cur.SecurityAnswerHash = a.SecurityAnswerHash
	cur.IsActive = a.IsActive
	cur.IsAdmin = a.IsAdmin
	cur.LastUpdate = a.LastUpdate
	r.byID[a.ID] = cur
	return nil
}

func (r *MemoryAccountRepo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return ErrNoRowsAffected
	}
	if err := r.rename(&cur, p.UserName); err != nil {
		return err
	}
	cur.FirstName = p.FirstName
	cur.LastName = p.LastName
	if p.HashedPassword != nil {
		cur.HashedPassword = *p.HashedPassword
	}
	if p.SecurityAnswerHash != nil {
		cur.SecurityAnswerHash = *p.SecurityAnswerHash
	}
	cur.LastUpdate = p.At
	r.byID[id] = cur
	return nil
}

func (r *MemoryAccountRepo) UpdatePassword(ctx context.Context, id, hashedPassword string, at time.Time) error {
	return r.modify(ctx, id, func(a *model.Account) {
		a.HashedPassword = hashedPassword
		a.LastUpdate = at
	})
}

func (r *MemoryAccountRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.modify(ctx, id, func(a *model.Account) {
		a.LastLogin = &at
	})
}

// Ping always succeeds for the in-process store.
func (r *MemoryAccountRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

// rename moves cur to userName, keeping the name index unique.  r.mu
// must be held.
func (r *MemoryAccountRepo) rename(cur *model.Account, userName string) error {
	if userName == cur.UserName {
		return nil
	}
	if _, taken := r.byName[userName]; taken {
		return ErrDuplicateKey
	}
	delete(r.byName, cur.UserName)
	r.byName[userName] = cur.ID
	cur.UserName = userName
	return nil
}

func (r *MemoryAccountRepo) modify(ctx context.Context, id string, fn func(*model.Account)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return ErrNoRowsAffected
	}
	fn(&a)
	r.byID[id] = a
	return nil
}
