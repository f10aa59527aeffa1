package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/queue"
	"github.com/iliyamo/account-service/internal/repository"
	"github.com/iliyamo/account-service/internal/utils"
)

// MockAccountStore implements repository.AccountStore for failure paths
// the in-memory store cannot produce.
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) Insert(ctx context.Context, a *model.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountStore) FindByID(ctx context.Context, id string) (model.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAccountStore) FindByUserName(ctx context.Context, userName string) (model.Account, error) {
	args := m.Called(ctx, userName)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAccountStore) FindAll(ctx context.Context) ([]model.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Account), args.Error(1)
}

func (m *MockAccountStore) DeleteByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAccountStore) DeleteByUserName(ctx context.Context, userName string) error {
	return m.Called(ctx, userName).Error(0)
}

func (m *MockAccountStore) Update(ctx context.Context, a model.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountStore) UpdateProfile(ctx context.Context, id string, p repository.ProfileUpdate) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *MockAccountStore) UpdatePassword(ctx context.Context, id, hashedPassword string, at time.Time) error {
	return m.Called(ctx, id, hashedPassword, at).Error(0)
}

func (m *MockAccountStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockAccountStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AccountEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// countingHasher wraps the real hasher and counts calls.
type countingHasher struct {
	*utils.PasswordHasher
	mu       sync.Mutex
	hashes   int
	verifies int

	failHashes int // the next failHashes calls to Hash fail
}

func newCountingHasher() *countingHasher {
	return &countingHasher{PasswordHasher: utils.NewPasswordHasher(utils.Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1}, 4)}
}

func (h *countingHasher) Hash(ctx context.Context, plain string) (string, error) {
	h.mu.Lock()
	h.hashes++
	fail := h.failHashes > 0
	if fail {
		h.failHashes--
	}
	h.mu.Unlock()
	if fail {
		return "", errors.New("hash slot unavailable")
	}
	return h.PasswordHasher.Hash(ctx, plain)
}

func (h *countingHasher) Verify(ctx context.Context, plain, digest string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(ctx, plain, digest)
}
