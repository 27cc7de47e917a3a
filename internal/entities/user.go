package entities

import "time"

// User represents a user entity in the database
type User struct {
	ID                   string     `json:"id"` // UUID
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"` // Don't expose password hash in JSON
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `json:"-"` // SHA-256 of the emailed token
	PasswordResetExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// SetResetToken records an outstanding reset token digest and its expiry.
func (u *User) SetResetToken(hash string, expiresAt time.Time) {
	u.PasswordResetToken = &hash
	u.PasswordResetExpires = &expiresAt
}

// ClearResetToken removes any outstanding reset token.
func (u *User) ClearResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

// PasswordChangedAfter reports whether the password was changed strictly
// after t. Both sides are compared in milliseconds.
func (u *User) PasswordChangedAfter(t time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.UnixMilli() > t.UnixMilli()
}
