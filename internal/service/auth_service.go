package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"task-tracker/internal/model"
	"task-tracker/internal/token"
	"task-tracker/pkg/apierror"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

type TokenStore interface {
	FindByToken(ctx context.Context, tokenValue string) (model.RefreshToken, error)
	Replace(ctx context.Context, userID string, tokenValue string, expiresAt time.Time) error
	DeleteByToken(ctx context.Context, tokenValue string) (int64, error)
}

// AuthService drives the session state machine: a user either has no refresh
// token on file or exactly one, and every transition goes through the token
// store's atomic rotation.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	codec  *token.Codec
}

func NewAuthService(users UserStore, tokens TokenStore, codec *token.Codec) *AuthService {
	return &AuthService{users: users, tokens: tokens, codec: codec}
}

// Register stores a new user with a hashed password and default role USER.
// No tokens are issued here; the client must authenticate afterwards.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) error {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return apierror.Duplicate("Email already in use.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})
}

// Authenticate verifies credentials and returns a fresh access/refresh pair,
// rotating the stored refresh token.
func (s *AuthService) Authenticate(ctx context.Context, email string, password string) (string, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", "", apierror.NotFound("User not found")
	}
	if err != nil {
		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", apierror.NotAuthorized("Invalid email or password.")
	}

	return s.issueAndRotate(ctx, user)
}

// Refresh exchanges a stored refresh token for a new token pair. The old
// value is invalid the instant this succeeds. An expired token is deleted and
// the caller must log in again.
func (s *AuthService) Refresh(ctx context.Context, oldRefreshToken string) (string, string, error) {
	saved, err := s.tokens.FindByToken(ctx, oldRefreshToken)
	if errors.Is(err, model.ErrTokenNotFound) {
		return "", "", apierror.BadRequest("Invalid Refresh Token")
	}
	if err != nil {
		return "", "", err
	}

	if !saved.ExpiresAt.After(time.Now().UTC()) {
		if _, err := s.tokens.DeleteByToken(ctx, oldRefreshToken); err != nil {
			return "", "", err
		}
		return "", "", apierror.Forbidden("Refresh token expired. Please log in again.")
	}

	user, err := s.users.FindByID(ctx, saved.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", "", apierror.BadRequest("Invalid Refresh Token")
	}
	if err != nil {
		return "", "", err
	}

	return s.issueAndRotate(ctx, user)
}

// Logout deletes the stored refresh token. A second call with the same value
// fails with BadRequest rather than being retried.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.tokens.FindByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return apierror.BadRequest("Invalid Refresh Token")
		}
		return err
	}

	affected, err := s.tokens.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if affected == 0 {
		// Lost a race with a concurrent logout or rotation.
		return apierror.BadRequest("The provided refresh token has already been invalidated or the user is already logged out.")
	}
	return nil
}

// GetUserByEmail resolves the principal for a verified access-token subject.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.users.FindByEmail(ctx, email)
}

// VerifyAccessToken checks an access token and returns its subject.
func (s *AuthService) VerifyAccessToken(tokenString string) (string, error) {
	subject, _, err := s.codec.Verify(tokenString, token.Access)
	return subject, err
}

func (s *AuthService) issueAndRotate(ctx context.Context, user model.User) (string, string, error) {
	accessToken, err := s.codec.Issue(user.Email, token.Access)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := s.codec.Issue(user.Email, token.Refresh)
	if err != nil {
		return "", "", err
	}

	expiresAt := time.Now().UTC().Add(s.codec.RefreshTTL())
	if err := s.tokens.Replace(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}
