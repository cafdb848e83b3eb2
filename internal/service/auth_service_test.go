package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		JWTIssuer:       "courseloom",
		JWTAudience:     "courseloom-web",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		BcryptCost:      4,
	}
}

// memoryRefreshStore is an in-memory RefreshStore for rotation tests.
type memoryRefreshStore struct {
	tokens map[string]int
}

func newMemoryRefreshStore() *memoryRefreshStore {
	return &memoryRefreshStore{tokens: make(map[string]int)}
}

func (s *memoryRefreshStore) Save(ctx context.Context, token string, accountID int, ttl time.Duration) error {
	s.tokens[token] = accountID
	return nil
}

func (s *memoryRefreshStore) Redeem(ctx context.Context, token string) (int, error) {
	accountID, ok := s.tokens[token]
	if !ok {
		return 0, ErrInvalidRefreshToken
	}
	delete(s.tokens, token)
	return accountID, nil
}

func (s *memoryRefreshStore) Delete(ctx context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}

func testAccount() *model.Account {
	return &model.Account{ID: 12, Email: "ada@example.com", Role: model.RoleInstructor}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), newMemoryRefreshStore())

	token, err := svc.GenerateAccessToken(testAccount())
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.UserID != 12 {
		t.Fatalf("UserID = %d, want 12", claims.UserID)
	}
	if claims.Role != model.RoleInstructor {
		t.Fatalf("Role = %q, want instructor", claims.Role)
	}
}

func TestExpiredTokenRejectedWithoutLeeway(t *testing.T) {
	cfg := testAuthConfig()
	svc := NewAuthService(cfg, newMemoryRefreshStore())

	// Sign a token that expired one second ago.
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "12",
			Issuer:    cfg.JWTIssuer,
			Audience:  jwt.ClaimStrings{cfg.JWTAudience},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
		},
		UserID: 12,
		Role:   model.RoleStudent,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestTokenWithWrongIssuerRejected(t *testing.T) {
	cfg := testAuthConfig()
	otherCfg := testAuthConfig()
	otherCfg.JWTIssuer = "someone-else"

	issuer := NewAuthService(otherCfg, newMemoryRefreshStore())
	verifier := NewAuthService(cfg, newMemoryRefreshStore())

	token, err := issuer.GenerateAccessToken(testAccount())
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := verifier.ValidateAccessToken(token); err == nil {
		t.Fatalf("token with wrong issuer accepted")
	}
}

func TestTokenWithWrongAudienceRejected(t *testing.T) {
	cfg := testAuthConfig()
	otherCfg := testAuthConfig()
	otherCfg.JWTAudience = "another-app"

	issuer := NewAuthService(otherCfg, newMemoryRefreshStore())
	verifier := NewAuthService(cfg, newMemoryRefreshStore())

	token, err := issuer.GenerateAccessToken(testAccount())
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := verifier.ValidateAccessToken(token); err == nil {
		t.Fatalf("token with wrong audience accepted")
	}
}

func TestTokenWithUnknownRoleRejected(t *testing.T) {
	cfg := testAuthConfig()
	svc := NewAuthService(cfg, newMemoryRefreshStore())

	account := testAccount()
	account.Role = model.Role("superuser")
	token, err := svc.GenerateAccessToken(account)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatalf("token carrying unknown role accepted")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newMemoryRefreshStore()
	svc := NewAuthService(testAuthConfig(), store)
	ctx := context.Background()

	first, err := svc.IssueRefreshToken(ctx, 12)
	if err != nil {
		t.Fatalf("IssueRefreshToken failed: %v", err)
	}

	accountID, second, err := svc.Refresh(ctx, first)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if accountID != 12 {
		t.Fatalf("accountID = %d, want 12", accountID)
	}
	if second == first {
		t.Fatalf("refresh returned the same token")
	}

	// The consumed token must not be redeemable a second time.
	if _, _, err := svc.Refresh(ctx, first); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("reused token error = %v, want ErrInvalidRefreshToken", err)
	}

	// The successor still works.
	if _, _, err := svc.Refresh(ctx, second); err != nil {
		t.Fatalf("successor token rejected: %v", err)
	}
}

func TestRefreshEmptyTokenRejected(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), newMemoryRefreshStore())

	if _, _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("empty token error = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	svc := NewAuthService(testAuthConfig(), newMemoryRefreshStore())

	hash, err := svc.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := svc.CheckPassword(hash, "hunter2hunter2"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := svc.CheckPassword(hash, "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
}
