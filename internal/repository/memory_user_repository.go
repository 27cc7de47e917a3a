package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"auth-be/internal/entities"
)

// memoryUserRepository keeps users in process memory. It is used when no
// database is configured and in tests.
type memoryUserRepository struct {
	mu      sync.RWMutex
	users   map[string]*entities.User // keyed by ID
	byEmail map[string]string         // email -> ID
	now     func() time.Time
}

// NewMemoryUserRepository creates an empty in-memory user repository
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users:   make(map[string]*entities.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// copyUser returns a deep copy so callers never share state with the store
func copyUser(u *entities.User) *entities.User {
	c := *u
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		c.PasswordChangedAt = &t
	}
	if u.PasswordResetToken != nil {
		s := *u.PasswordResetToken
		c.PasswordResetToken = &s
	}
	if u.PasswordResetExpires != nil {
		t := *u.PasswordResetExpires
		c.PasswordResetExpires = &t
	}
	return &c
}

func (r *memoryUserRepository) Create(_ context.Context, user *entities.User) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	now := r.now().UTC()
	created := copyUser(user)
	created.ID = uuid.NewString()
	created.PasswordChangedAt = nil
	created.ClearResetToken()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.users[created.ID] = created
	r.byEmail[created.Email] = created.ID

	return copyUser(created), nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(r.users[id]), nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *memoryUserRepository) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.PasswordResetToken == nil || user.PasswordResetExpires == nil {
			continue
		}
		if *user.PasswordResetToken == tokenHash && user.PasswordResetExpires.After(now) {
			return copyUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Update(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if ownerID, taken := r.byEmail[user.Email]; taken && ownerID != user.ID {
		return ErrDuplicateEmail
	}

	updated := copyUser(user)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now().UTC()

	delete(r.byEmail, existing.Email)
	r.byEmail[updated.Email] = updated.ID
	r.users[updated.ID] = updated

	return nil
}
