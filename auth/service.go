package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/config"
)

// Constants defining token types.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenIssuer      = "foodgram"
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = apperror.Coded(apperror.AuthError, "invalid_credentials", "", "invalid credentials")
	// ErrWrongPassword is returned by SetPassword when the current password does not match.
	ErrWrongPassword = apperror.Coded(apperror.ValidationError, "wrong_password", "current_password", "current password is incorrect")
	// ErrUsernameTaken and ErrEmailTaken report account identity collisions.
	ErrUsernameTaken = apperror.Coded(apperror.DuplicateAccountError, "username_taken", "username", "a user with that username already exists")
	ErrEmailTaken    = apperror.Coded(apperror.DuplicateAccountError, "email_taken", "email", "a user with that email address already exists")
)

// Store is the persistence the auth service needs. PgStore implements it.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
}

// AuthService provides authentication-related services.
// Dependencies are injected through the constructor; there is no DI container.
type AuthService struct {
	store      Store
	authConfig config.AuthConfig
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store Store, authConfig config.AuthConfig) *AuthService {
	return &AuthService{
		store:      store,
		authConfig: authConfig,
		now:        time.Now,
	}
}

// CustomClaims embeds jwt.RegisteredClaims and adds custom fields.
type CustomClaims struct {
	UserID    int64  `json:"user_id"`
	IsStaff   bool   `json:"is_staff,omitempty"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// Register creates a new user. Emails are stored lowercase so login is case-insensitive.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Username:       strings.TrimSpace(req.Username),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		HashedPassword: string(hashedPassword),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user by email and password and returns a token pair.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(user)
}

// RefreshToken issues a new access token for a valid refresh token. The refresh token
// itself is returned unchanged. The staff flag is reloaded so demotions take effect.
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenResponse, error) {
	claims, err := s.validateToken(refreshTokenString, tokenTypeRefresh)
	if err != nil {
		return nil, apperror.NewAuthError("invalid refresh token", err)
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewAuthError("invalid refresh token", err)
		}
		return nil, err
	}

	access, err := s.generateSpecificToken(user, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refreshTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.authConfig.AccessTokenDuration.Seconds()),
	}, nil
}

// SetPassword replaces the caller's password after checking the current one.
func (s *AuthService) SetPassword(ctx context.Context, userID int64, req SetPasswordRequest) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, userID, string(hashed))
}

// ParseAccessToken validates an access token and returns the principal it identifies.
func (s *AuthService) ParseAccessToken(tokenString string) (*Principal, error) {
	claims, err := s.validateToken(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, apperror.NewAuthError("invalid token", err)
	}
	if claims.UserID == 0 {
		return nil, apperror.NewAuthError("invalid token: user_id claim is missing", nil)
	}
	return &Principal{UserID: claims.UserID, IsStaff: claims.IsStaff}, nil
}

// generateTokens creates both access and refresh tokens for a user.
func (s *AuthService) generateTokens(user *User) (*TokenResponse, error) {
	accessToken, err := s.generateSpecificToken(user, tokenTypeAccess, s.authConfig.AccessTokenDuration)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateSpecificToken(user, tokenTypeRefresh, s.authConfig.RefreshTokenDuration)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.authConfig.AccessTokenDuration.Seconds()),
	}, nil
}

// generateSpecificToken creates a signed HS256 JWT of the given type and lifetime.
func (s *AuthService) generateSpecificToken(user *User, tokenType string, duration time.Duration) (string, error) {
	now := s.now()
	expirationTime := now.Add(duration)
	claims := &CustomClaims{
		UserID:    user.ID,
		IsStaff:   user.IsStaff,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.authConfig.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// validateToken parses a JWT, checks its signature, expiry and type.
func (s *AuthService) validateToken(tokenString string, expectedTokenType string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.authConfig.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.TokenType != expectedTokenType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedTokenType, claims.TokenType)
	}
	return claims, nil
}
