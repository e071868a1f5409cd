package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-tracker/internal/model"
	"task-tracker/internal/token"
	"task-tracker/pkg/apierror"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by id
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{}}
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

type fakeTokenStore struct {
	mu             sync.Mutex
	byValue        map[string]model.RefreshToken
	deleteOverride func(tokenValue string) (int64, error)
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byValue: map[string]model.RefreshToken{}}
}

func (s *fakeTokenStore) FindByToken(_ context.Context, value string) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byValue[value]
	if !ok {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	return t, nil
}

func (s *fakeTokenStore) Replace(_ context.Context, userID string, value string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for v, t := range s.byValue {
		if t.UserID == userID {
			delete(s.byValue, v)
		}
	}
	s.byValue[value] = model.RefreshToken{
		ID:        value,
		Token:     value,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	return nil
}

func (s *fakeTokenStore) DeleteByToken(_ context.Context, value string) (int64, error) {
	if s.deleteOverride != nil {
		return s.deleteOverride(value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byValue[value]; !ok {
		return 0, nil
	}
	delete(s.byValue, value)
	return 1, nil
}

func (s *fakeTokenStore) countForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, t := range s.byValue {
		if t.UserID == userID {
			count++
		}
	}
	return count
}

func (s *fakeTokenStore) expire(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.byValue[value]
	t.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	s.byValue[value] = t
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserStore, *fakeTokenStore) {
	t.Helper()
	codec, err := token.NewCodec("test-access-secret", "test-refresh-secret", 15*time.Minute, 72*time.Hour)
	require.NoError(t, err)
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	return NewAuthService(users, tokens, codec), users, tokens
}

func seedUser(t *testing.T, users *fakeUserStore, email string, password string) model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := model.User{
		ID:           "user-" + email,
		FirstName:    "Alice",
		LastName:     "Smith",
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func assertAPIError(t *testing.T, err error, wantStatus int) *apierror.APIError {
	t.Helper()
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, wantStatus, apiErr.HTTPStatus)
	return apiErr
}

func TestAuthService_Register(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()

	req := model.RegisterRequest{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "a@x.com",
		Password:  "Passw0rd!",
	}

	require.NoError(t, svc.Register(ctx, req))

	stored, err := users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)
	assert.NotEqual(t, "Passw0rd!", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Passw0rd!")))

	t.Run("duplicate email", func(t *testing.T) {
		err := svc.Register(ctx, req)
		apiErr := assertAPIError(t, err, 409)
		assert.Equal(t, "Email already in use.", apiErr.Message)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, users, "a@x.com", "Passw0rd!")

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "nobody@x.com", "Passw0rd!")
		assertAPIError(t, err, 404)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "a@x.com", "wrong")
		assertAPIError(t, err, 401)
		assert.Equal(t, 0, tokens.countForUser(user.ID))
	})

	t.Run("success issues pair and stores refresh token", func(t *testing.T) {
		access, refresh, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.NotEqual(t, access, refresh)
		assert.Equal(t, 1, tokens.countForUser(user.ID))

		saved, err := tokens.FindByToken(ctx, refresh)
		require.NoError(t, err)
		assert.Equal(t, user.ID, saved.UserID)
		assert.True(t, saved.ExpiresAt.After(time.Now()))
	})

	t.Run("re-authentication supersedes the previous refresh token", func(t *testing.T) {
		_, first, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
		require.NoError(t, err)
		_, second, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.Equal(t, 1, tokens.countForUser(user.ID))

		_, err = tokens.FindByToken(ctx, first)
		assert.ErrorIs(t, err, model.ErrTokenNotFound)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, users, "a@x.com", "Passw0rd!")

	t.Run("unknown token", func(t *testing.T) {
		_, _, err := svc.Refresh(ctx, "never-issued")
		apiErr := assertAPIError(t, err, 400)
		assert.Equal(t, "Invalid Refresh Token", apiErr.Message)
	})

	t.Run("rotation invalidates the old value", func(t *testing.T) {
		_, original, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
		require.NoError(t, err)

		access, rotated, err := svc.Refresh(ctx, original)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEqual(t, original, rotated)
		assert.Equal(t, 1, tokens.countForUser(user.ID))

		// The consumed value must be permanently dead.
		_, _, err = svc.Refresh(ctx, original)
		assertAPIError(t, err, 400)
	})

	t.Run("expired token is deleted and demands re-login", func(t *testing.T) {
		_, refresh, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
		require.NoError(t, err)
		tokens.expire(refresh)

		_, _, err = svc.Refresh(ctx, refresh)
		apiErr := assertAPIError(t, err, 403)
		assert.Equal(t, "Refresh token expired. Please log in again.", apiErr.Message)
		assert.Equal(t, 0, tokens.countForUser(user.ID))

		// Second attempt sees the already-deleted row.
		_, _, err = svc.Refresh(ctx, refresh)
		assertAPIError(t, err, 400)
	})
}

func TestAuthService_Logout(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, users, "a@x.com", "Passw0rd!")

	t.Run("unknown token", func(t *testing.T) {
		err := svc.Logout(ctx, "never-issued")
		assertAPIError(t, err, 400)
	})

	t.Run("logout twice", func(t *testing.T) {
		_, refresh, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, refresh))
		assert.Equal(t, 0, tokens.countForUser(user.ID))

		err = svc.Logout(ctx, refresh)
		assertAPIError(t, err, 400)
	})

	t.Run("delete losing a race reports already invalidated", func(t *testing.T) {
		_, refresh, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
		require.NoError(t, err)

		tokens.deleteOverride = func(string) (int64, error) { return 0, nil }
		defer func() { tokens.deleteOverride = nil }()

		err = svc.Logout(ctx, refresh)
		apiErr := assertAPIError(t, err, 400)
		assert.Contains(t, apiErr.Message, "already been invalidated")
	})
}

func TestAuthService_SingleRefreshTokenInvariant(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	ctx := context.Background()
	user := seedUser(t, users, "a@x.com", "Passw0rd!")

	_, refresh, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
	require.NoError(t, err)

	// Every successful operation leaves exactly one token on file.
	for i := 0; i < 5; i++ {
		_, refresh, err = svc.Refresh(ctx, refresh)
		require.NoError(t, err)
		assert.Equal(t, 1, tokens.countForUser(user.ID))
	}
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()
	seedUser(t, users, "a@x.com", "Passw0rd!")

	access, refresh, err := svc.Authenticate(ctx, "a@x.com", "Passw0rd!")
	require.NoError(t, err)

	subject, err := svc.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)

	// A refresh token presented as an access token must be rejected by key
	// separation.
	_, err = svc.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, model.ErrTokenMalformed)
}
