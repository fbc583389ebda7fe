package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps accounts in process memory. It backs STORE_DRIVER=memory
// and the test suites.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
	byEmail  map[string]uuid.UUID
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*Account),
		byEmail:  make(map[string]uuid.UUID),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, a *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[a.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	stored := clone(a)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.Role == "" {
		stored.Role = RoleStandard
	}
	now := s.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.accounts[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID

	return clone(stored), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(a), nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s.accounts[id]), nil
}

func (s *MemoryStore) GetByResetTokenHash(_ context.Context, tokenHash string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash {
			return clone(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id uuid.UUID, update ProfileUpdate) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}

	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.Address != nil {
		a.Address = *update.Address
	}
	if update.Phone != nil {
		a.Phone = *update.Phone
	}
	if update.PasswordHash != nil {
		a.PasswordHash = *update.PasswordHash
	}
	a.UpdatedAt = s.now()

	return clone(a), nil
}

func (s *MemoryStore) SetBlocked(_ context.Context, id uuid.UUID, blocked bool) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Blocked = blocked
	a.UpdatedAt = s.now()

	return clone(a), nil
}

func (s *MemoryStore) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.ResetTokenHash = &tokenHash
	a.ResetTokenExpiresAt = &expiresAt
	a.UpdatedAt = s.now()

	return nil
}

func (s *MemoryStore) ClearResetToken(_ context.Context, id uuid.UUID, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.ResetTokenHash == nil || *a.ResetTokenHash != tokenHash {
		return ErrNotFound
	}
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
	a.UpdatedAt = s.now()

	return nil
}

func (s *MemoryStore) CompleteReset(_ context.Context, id uuid.UUID, tokenHash, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.ResetTokenHash == nil || *a.ResetTokenHash != tokenHash {
		return ErrNotFound
	}
	a.PasswordHash = passwordHash
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
	a.UpdatedAt = s.now()

	return nil
}

func (s *MemoryStore) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared int64
	for _, a := range s.accounts {
		if a.ResetTokenExpiresAt != nil && a.ResetTokenExpiresAt.Before(now) {
			a.ResetTokenHash = nil
			a.ResetTokenExpiresAt = nil
			a.UpdatedAt = s.now()
			cleared++
		}
	}
	return cleared, nil
}

func clone(a *Account) *Account {
	c := *a
	if a.ResetTokenHash != nil {
		h := *a.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if a.ResetTokenExpiresAt != nil {
		t := *a.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &t
	}
	return &c
}
