package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth-be/internal/cache"
	"auth-be/internal/entities"
)

// cachedUser mirrors entities.User including the fields the entity hides from JSON
type cachedUser struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"password_hash"`
	PasswordChangedAt    *time.Time `json:"password_changed_at,omitempty"`
	PasswordResetToken   *string    `json:"password_reset_token,omitempty"`
	PasswordResetExpires *time.Time `json:"password_reset_expires,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toCachedUser(u *entities.User) cachedUser {
	return cachedUser{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		PasswordHash:         u.PasswordHash,
		PasswordChangedAt:    u.PasswordChangedAt,
		PasswordResetToken:   u.PasswordResetToken,
		PasswordResetExpires: u.PasswordResetExpires,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (c cachedUser) toEntity() *entities.User {
	return &entities.User{
		ID:                   c.ID,
		Name:                 c.Name,
		Email:                c.Email,
		PasswordHash:         c.PasswordHash,
		PasswordChangedAt:    c.PasswordChangedAt,
		PasswordResetToken:   c.PasswordResetToken,
		PasswordResetExpires: c.PasswordResetExpires,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// cachedUserRepository serves FindByID from Redis and refreshes the entry on every write.
// Every authenticated request looks the user up by ID, so this is the hot path.
type cachedUserRepository struct {
	next   UserRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedUserRepository wraps next with a read-through cache for ID lookups.
// Cache failures are logged and fall through to next.
func NewCachedUserRepository(next UserRepository, c cache.Cache, ttl time.Duration, logger *slog.Logger) UserRepository {
	return &cachedUserRepository{next: next, cache: c, ttl: ttl, logger: logger}
}

func userCacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (r *cachedUserRepository) Create(ctx context.Context, user *entities.User) (*entities.User, error) {
	return r.next.Create(ctx, user)
}

func (r *cachedUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *cachedUserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entities.User, error) {
	return r.next.FindByResetToken(ctx, tokenHash, now)
}

func (r *cachedUserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	key := userCacheKey(id)

	var cached cachedUser
	err := r.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached.toEntity(), nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.WarnContext(ctx, "user cache read failed", "key", key, "error", err)
	}

	user, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// A fill never overwrites: a concurrent Update may already have stored a newer row.
	if _, err := r.cache.SetJSONIfAbsent(ctx, key, toCachedUser(user), r.ttl); err != nil {
		r.logger.WarnContext(ctx, "user cache write failed", "key", key, "error", err)
	}
	return user, nil
}

// Update writes through: the stored row is re-read and replaces the cache
// entry. If the entry can be neither replaced nor deleted the error is
// returned, since a stale entry would keep pre-change sessions valid.
func (r *cachedUserRepository) Update(ctx context.Context, user *entities.User) error {
	if err := r.next.Update(ctx, user); err != nil {
		return err
	}

	key := userCacheKey(user.ID)
	fresh, err := r.next.FindByID(ctx, user.ID)
	if err == nil {
		err = r.cache.SetJSON(ctx, key, toCachedUser(fresh), r.ttl)
		if err == nil {
			return nil
		}
	}
	r.logger.WarnContext(ctx, "user cache refresh failed", "user_id", user.ID, "error", err)

	if delErr := r.cache.Delete(ctx, key); delErr != nil {
		r.logger.ErrorContext(ctx, "user cache invalidation failed", "user_id", user.ID, "error", delErr)
		return fmt.Errorf("failed to invalidate cached user: %w", errors.Join(err, delErr))
	}
	return nil
}
