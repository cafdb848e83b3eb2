package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID int        `json:"user_id"`
	Role   model.Role `json:"role"`
	Email  string     `json:"email"`
}

// RefreshStore persists outstanding refresh tokens. Redeem removes the
// token as it resolves it, which is what makes rotation single-use.
type RefreshStore interface {
	Save(ctx context.Context, token string, accountID int, ttl time.Duration) error
	Redeem(ctx context.Context, token string) (int, error)
	Delete(ctx context.Context, token string) error
}

// AuthService issues and validates access tokens and manages the
// rotating refresh tokens behind them.
type AuthService struct {
	cfg   *config.Config
	store RefreshStore
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, store RefreshStore) *AuthService {
	return &AuthService{cfg: cfg, store: store}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateAccessToken creates a short-lived signed JWT binding the
// account's identity and role.
func (s *AuthService) GenerateAccessToken(account *model.Account) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(account.ID),
			Issuer:    s.cfg.JWTIssuer,
			Audience:  jwt.ClaimStrings{s.cfg.JWTAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
		UserID: account.ID,
		Role:   account.Role,
		Email:  account.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateAccessToken parses and validates a JWT, returning the claims.
// Signature, issuer, audience, and expiry are all enforced; expiry has
// no clock-skew leeway. Tokens carrying a role outside the closed enum
// are rejected here so downstream code never re-checks role strings.
func (s *AuthService) ValidateAccessToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithAudience(s.cfg.JWTAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return claims, nil
}

// IssueRefreshToken generates an opaque refresh token and stores it with
// the configured TTL. Persisting it client-side (the cookie) is the
// caller's responsibility.
func (s *AuthService) IssueRefreshToken(ctx context.Context, accountID int) (string, error) {
	token := uuid.New().String()
	if err := s.store.Save(ctx, token, accountID, s.cfg.RefreshTokenTTL); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Refresh redeems a refresh token for the account ID it belongs to and
// issues a replacement. The old token is consumed before the new one is
// written, so a leaked token is usable at most once.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (int, string, error) {
	if oldToken == "" {
		return 0, "", ErrInvalidRefreshToken
	}

	accountID, err := s.store.Redeem(ctx, oldToken)
	if err != nil {
		return 0, "", err
	}

	newToken, err := s.IssueRefreshToken(ctx, accountID)
	if err != nil {
		return 0, "", err
	}

	return accountID, newToken, nil
}

// RevokeRefreshToken invalidates a refresh token on logout.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}

// RefreshTokenTTL exposes the configured refresh lifetime for cookie Max-Age.
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.cfg.RefreshTokenTTL
}

// ────────────────────────────────────────────────────────────────────────────
// Redis-backed refresh store
// ────────────────────────────────────────────────────────────────────────────

// redisRefreshStore keeps refresh tokens in Redis keyed by token value;
// the TTL doubles as the token expiry.
type redisRefreshStore struct {
	rdb *redis.Client
}

// NewRedisRefreshStore creates the production RefreshStore.
func NewRedisRefreshStore(rdb *redis.Client) RefreshStore {
	return &redisRefreshStore{rdb: rdb}
}

func (s *redisRefreshStore) Save(ctx context.Context, token string, accountID int, ttl time.Duration) error {
	return s.rdb.Set(ctx, config.CacheKey.RefreshTokenKey(token), accountID, ttl).Err()
}

// Redeem atomically fetches and deletes the token. An unknown or
// expired token maps to ErrInvalidRefreshToken.
func (s *redisRefreshStore) Redeem(ctx context.Context, token string) (int, error) {
	val, err := s.rdb.GetDel(ctx, config.CacheKey.RefreshTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrInvalidRefreshToken
		}
		return 0, fmt.Errorf("redeem refresh token: %w", err)
	}

	accountID, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt refresh token entry: %w", err)
	}
	return accountID, nil
}

func (s *redisRefreshStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, config.CacheKey.RefreshTokenKey(token)).Err()
}
