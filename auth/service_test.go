package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/config"
)

// memStore is an in-memory Store used by the service and handler tests.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*User{}}
}

func (m *memStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdatePassword(_ context.Context, id int64, hashedPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperror.NewNotFoundError("user not found", nil)
	}
	u.HashedPassword = hashedPassword
	return nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            "test-secret",
		AccessTokenDuration:  time.Hour,
		RefreshTokenDuration: 24 * time.Hour,
	}
}

func newTestService(t *testing.T) (*AuthService, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewAuthService(store, testAuthConfig()), store
}

func registerVasya(t *testing.T, s *AuthService) *User {
	t.Helper()
	u, err := s.Register(context.Background(), RegisterRequest{
		Email:     "VPupkin@Yandex.ru",
		Username:  "vasya.pupkin",
		FirstName: "Вася",
		LastName:  "Пупкин",
		Password:  "Qwerty123",
	})
	require.NoError(t, err)
	return u
}

func TestRegister_HashesPasswordAndLowercasesEmail(t *testing.T) {
	s, store := newTestService(t)
	u := registerVasya(t, s)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "vpupkin@yandex.ru", u.Email)
	stored, err := store.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Qwerty123", stored.HashedPassword)
	assert.NotEmpty(t, stored.HashedPassword)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s, _ := newTestService(t)
	registerVasya(t, s)

	_, err := s.Register(context.Background(), RegisterRequest{
		Email: "other@example.com", Username: "vasya.pupkin", FirstName: "a", LastName: "b", Password: "Qwerty123",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUsernameTaken))
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.StatusCode())
}

func TestLogin_IssuesParsableAccessToken(t *testing.T) {
	s, _ := newTestService(t)
	u := registerVasya(t, s)

	tokens, err := s.Login(context.Background(), LoginRequest{Email: "vpupkin@yandex.ru", Password: "Qwerty123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)

	p, err := s.ParseAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.False(t, p.IsStaff)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	s, _ := newTestService(t)
	registerVasya(t, s)

	_, err := s.Login(context.Background(), LoginRequest{Email: "vpupkin@yandex.ru", Password: "nope-nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(context.Background(), LoginRequest{Email: "ghost@yandex.ru", Password: "Qwerty123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseAccessToken_RejectsRefreshToken(t *testing.T) {
	s, _ := newTestService(t)
	registerVasya(t, s)
	tokens, err := s.Login(context.Background(), LoginRequest{Email: "vpupkin@yandex.ru", Password: "Qwerty123"})
	require.NoError(t, err)

	_, err = s.ParseAccessToken(tokens.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperror.IsAuthError(err))
}

func TestParseAccessToken_Expired(t *testing.T) {
	s, _ := newTestService(t)
	registerVasya(t, s)
	tokens, err := s.Login(context.Background(), LoginRequest{Email: "vpupkin@yandex.ru", Password: "Qwerty123"})
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.ParseAccessToken(tokens.AccessToken)
	require.Error(t, err)
	assert.True(t, apperror.IsAuthError(err))
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	s, _ := newTestService(t)
	registerVasya(t, s)
	tokens, err := s.Login(context.Background(), LoginRequest{Email: "vpupkin@yandex.ru", Password: "Qwerty123"})
	require.NoError(t, err)

	other := NewAuthService(newMemStore(), config.AuthConfig{JWTSecret: "another", AccessTokenDuration: time.Hour})
	_, err = other.ParseAccessToken(tokens.AccessToken)
	assert.True(t, apperror.IsAuthError(err))
}

func TestRefreshToken_PicksUpStaffFlag(t *testing.T) {
	s, store := newTestService(t)
	u := registerVasya(t, s)
	tokens, err := s.Login(context.Background(), LoginRequest{Email: "vpupkin@yandex.ru", Password: "Qwerty123"})
	require.NoError(t, err)

	store.users[u.ID].IsStaff = true

	refreshed, err := s.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)

	p, err := s.ParseAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, p.IsStaff)
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	s, _ := newTestService(t)
	registerVasya(t, s)
	tokens, err := s.Login(context.Background(), LoginRequest{Email: "vpupkin@yandex.ru", Password: "Qwerty123"})
	require.NoError(t, err)

	_, err = s.RefreshToken(context.Background(), tokens.AccessToken)
	assert.True(t, apperror.IsAuthError(err))
}

func TestSetPassword(t *testing.T) {
	s, _ := newTestService(t)
	u := registerVasya(t, s)
	ctx := context.Background()

	err := s.SetPassword(ctx, u.ID, SetPasswordRequest{CurrentPassword: "wrong-one", NewPassword: "NewPass123"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, s.SetPassword(ctx, u.ID, SetPasswordRequest{CurrentPassword: "Qwerty123", NewPassword: "NewPass123"}))

	_, err = s.Login(ctx, LoginRequest{Email: "vpupkin@yandex.ru", Password: "Qwerty123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, LoginRequest{Email: "vpupkin@yandex.ru", Password: "NewPass123"})
	assert.NoError(t, err)
}
