package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"auth-be/internal/apperror"
	"auth-be/internal/entities"
	"auth-be/internal/jwt"
	"auth-be/internal/mailer"
	"auth-be/internal/models"
	"auth-be/internal/password"
	"auth-be/internal/repository"
	"auth-be/internal/resettoken"
)

// Client-facing messages
const (
	msgEmailTaken         = "User with this email already exists."
	msgLoginFieldsMissing = "Please enter both fields."
	msgBadLogin           = "Incorrect email or password."
	msgNotLoggedIn        = "You are not logged in. Please log in to gain access."
	msgTokenExpired       = "Your token has expired. Please log in to gain access."
	msgTokenInvalid       = "Invalid token. Please log in again."
	msgUserGone           = "The user belonging to this token no longer exists."
	msgPasswordChanged    = "User recently changed password. Please log in again."
	msgChangeFields       = "Please enter all the required fields"
	msgBadCurrentPassword = "Incorrect password. Please try again."
	msgPasswordMismatch   = "Passwords do not match."
	msgNoSuchEmail        = "User with this email does not exist."
	msgDeliveryFailed     = "There was an error sending the email. Try again later."
	msgResetTokenInvalid  = "Token is invalid or has expired"
	msgResetFieldsMissing = "Please enter your password."
)

// DefaultPasswordChangeSkew is subtracted from the time of a password change
// so that a token issued in the same second as the change stays valid.
const DefaultPasswordChangeSkew = time.Second

// AuthService defines the interface for authentication business logic
type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.TokenResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	// Authenticate verifies a bearer token and resolves the user it belongs to
	Authenticate(ctx context.Context, token string) (*entities.User, error)
	ChangePassword(ctx context.Context, user *entities.User, req *models.ChangePasswordRequest) error
	// ForgotPassword emails a reset link rooted at resetBaseURL
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest, resetBaseURL string) error
	ResetPassword(ctx context.Context, rawToken string, req *models.ResetPasswordRequest) error
}

// AuthOptions tunes the auth service. Zero values select the defaults.
type AuthOptions struct {
	ResetTokenTTL      time.Duration
	PasswordChangeSkew time.Duration
	Clock              func() time.Time
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     password.Hasher
	jwtService *jwt.JWTService
	mailer     mailer.Mailer
	logger     *slog.Logger
	validate   *validator.Validate

	resetTokenTTL time.Duration
	changeSkew    time.Duration
	now           func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	hasher password.Hasher,
	jwtService *jwt.JWTService,
	m mailer.Mailer,
	logger *slog.Logger,
	opts AuthOptions,
) AuthService {
	s := &authService{
		userRepo:      userRepo,
		hasher:        hasher,
		jwtService:    jwtService,
		mailer:        m,
		logger:        logger,
		validate:      validator.New(),
		resetTokenTTL: opts.ResetTokenTTL,
		changeSkew:    opts.PasswordChangeSkew,
		now:           opts.Clock,
	}
	if s.resetTokenTTL <= 0 {
		s.resetTokenTTL = resettoken.Expiry
	}
	if s.changeSkew <= 0 {
		s.changeSkew = DefaultPasswordChangeSkew
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a new user account and logs it in
func (s *authService) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.TokenResponse, error) {
	in := *req
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	// Check-then-create is not atomic; the store's uniqueness check catches the loser.
	_, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, apperror.NewConflict(msgEmailTaken)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.NewUnexpected("failed to look up user", err)
	}

	if err := s.validate.Struct(in); err != nil {
		return nil, apperror.NewValidation(validationMessage(err))
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.NewUnexpected("failed to hash password", err)
	}

	user, err := s.userRepo.Create(ctx, &entities.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.NewConflict(msgEmailTaken)
		}
		return nil, apperror.NewUnexpected("failed to create user", err)
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return s.issueToken(user.ID)
}

// Login authenticates a user and returns a session token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.NewValidation(msgLoginFieldsMissing)
	}

	// Unknown email and wrong password share one message to avoid user enumeration.
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NewBadCredentials(msgBadLogin)
		}
		return nil, apperror.NewUnexpected("failed to look up user", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, apperror.NewBadCredentials(msgBadLogin)
	}

	return s.issueToken(user.ID)
}

func (s *authService) issueToken(userID string) (*models.TokenResponse, error) {
	token, err := s.jwtService.GenerateToken(userID)
	if err != nil {
		return nil, apperror.NewUnexpected("failed to generate token", err)
	}
	return &models.TokenResponse{
		Status: models.StatusSuccess,
		Token:  token,
	}, nil
}

// Authenticate resolves the user behind a session token
func (s *authService) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, apperror.NewUnauthenticated(msgNotLoggedIn, nil)
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, apperror.NewUnauthenticated(msgTokenExpired, err)
		}
		return nil, apperror.NewUnauthenticated(msgTokenInvalid, err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NewUnauthenticated(msgUserGone, err)
		}
		return nil, apperror.NewUnexpected("failed to look up user", err)
	}

	if user.PasswordChangedAfter(claims.IssuedAt) {
		return nil, apperror.NewUnauthenticated(msgPasswordChanged, nil)
	}

	return user, nil
}

// ChangePassword replaces the password of an authenticated user. Tokens
// issued before the change stop being accepted; no new token is issued.
func (s *authService) ChangePassword(ctx context.Context, user *entities.User, req *models.ChangePasswordRequest) error {
	if req.Password == "" || req.NewPassword == "" || req.NewPasswordConfirm == "" {
		return apperror.NewValidation(msgChangeFields)
	}

	current, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NewUnauthenticated(msgUserGone, err)
		}
		return apperror.NewUnexpected("failed to look up user", err)
	}

	if !s.hasher.Verify(req.Password, current.PasswordHash) {
		return apperror.NewBadCredentials(msgBadCurrentPassword)
	}

	if req.NewPassword != req.NewPasswordConfirm {
		return apperror.NewValidation(msgPasswordMismatch)
	}

	if err := s.setPassword(current, req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, current); err != nil {
		return apperror.NewUnexpected("failed to update password", err)
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", current.ID)
	return nil
}

// ForgotPassword stores a reset token for the user and emails it
func (s *authService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest, resetBaseURL string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NewNotFound(msgNoSuchEmail)
		}
		return apperror.NewUnexpected("failed to look up user", err)
	}

	raw, hash, err := resettoken.Generate()
	if err != nil {
		return apperror.NewUnexpected("failed to generate reset token", err)
	}

	user.SetResetToken(hash, s.now().Add(s.resetTokenTTL))
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.NewUnexpected("failed to store reset token", err)
	}

	resetURL := fmt.Sprintf("%s/authentication/resetPassword/%s", strings.TrimRight(resetBaseURL, "/"), raw)
	msg := mailer.Message{
		To: user.Email,
		Subject: fmt.Sprintf("Your password reset token. Token expires in %d minutes.",
			int(s.resetTokenTTL/time.Minute)),
		Body: fmt.Sprintf("Forgot your password? Send a PATCH request to %s with your password and password confirm. "+
			"If you did not forget your password, ignore this email", resetURL),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "reset email delivery failed", "user_id", user.ID, "error", err)

		// Best effort: a failure here leaves a token nobody received, which expires on its own.
		user.ClearResetToken()
		if clearErr := s.userRepo.Update(ctx, user); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear reset token", "user_id", user.ID, "error", clearErr)
		}
		return apperror.NewDeliveryError(msgDeliveryFailed, err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
func (s *authService) ResetPassword(ctx context.Context, rawToken string, req *models.ResetPasswordRequest) error {
	if rawToken == "" {
		return apperror.NewInvalidOrExpiredToken(msgResetTokenInvalid)
	}

	user, err := s.userRepo.FindByResetToken(ctx, resettoken.Hash(rawToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NewInvalidOrExpiredToken(msgResetTokenInvalid)
		}
		return apperror.NewUnexpected("failed to look up reset token", err)
	}

	if req.Password == "" || req.PasswordConfirm == "" {
		return apperror.NewValidation(msgResetFieldsMissing)
	}
	if req.Password != req.PasswordConfirm {
		return apperror.NewValidation(msgPasswordMismatch)
	}

	if err := s.setPassword(user, req.Password); err != nil {
		return err
	}
	user.ClearResetToken()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperror.NewUnexpected("failed to update password", err)
	}

	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	return nil
}

// setPassword is the only place an existing user's password is replaced
func (s *authService) setPassword(user *entities.User, plaintext string) error {
	hashed, err := s.hasher.Hash(plaintext)
	if err != nil {
		return apperror.NewUnexpected("failed to hash password", err)
	}

	changedAt := s.now().Add(-s.changeSkew)
	user.PasswordHash = hashed
	user.PasswordChangedAt = &changedAt
	return nil
}
