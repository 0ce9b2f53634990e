package biz

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kart-io/docbrain/internal/docbrain/store"
	"github.com/kart-io/docbrain/internal/model"
)

const apiKeyPrefix = "sk-docbrain-"

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("Username already exists")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("Invalid username or password")

	// ErrInvalidToken is returned when a session token fails verification.
	ErrInvalidToken = errors.New("Invalid token")

	// ErrInvalidAPIKey is returned when an API key matches no user.
	ErrInvalidAPIKey = errors.New("Invalid API key")
)

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// JWTKey signs session tokens (HS256).
	JWTKey string
	// TokenExpiry bounds session token lifetime.
	TokenExpiry time.Duration
	// Issuer is the token issuer claim.
	Issuer string
}

// AuthResult is the outcome of a successful register or login.
type AuthResult struct {
	UserID string
	Token  string
	APIKey string
}

// AuthService handles registration, login and token verification.
// Passwords are stored as bcrypt hashes and sessions are signed JWTs.
type AuthService struct {
	store store.Factory
	cfg   *AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(factory store.Factory, cfg *AuthConfig) *AuthService {
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "docbrain"
	}
	return &AuthService{store: factory, cfg: cfg}
}

// Register creates a new user and returns a signed session token and
// the user's API key.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	_, err := s.store.Users().GetByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	apiKey, err := newAPIKey()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UserID:   ulid.Make().String(),
		Username: username,
		Password: string(hashed),
		APIKey:   apiKey,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.sign(user.UserID)
	if err != nil {
		return nil, err
	}

	logger.Infow("user registered", "user_id", user.UserID, "username", username)

	return &AuthResult{UserID: user.UserID, Token: token, APIKey: user.APIKey}, nil
}

// Login authenticates a user and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.sign(user.UserID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{UserID: user.UserID, Token: token, APIKey: user.APIKey}, nil
}

// Verify validates a session token and returns the user ID it was
// issued for.
func (s *AuthService) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTKey), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// UserByAPIKey resolves an API key to its user.
func (s *AuthService) UserByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	user, err := s.store.Users().GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, ErrInvalidAPIKey
	}
	return user, nil
}

func (s *AuthService) sign(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func newAPIKey() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}
