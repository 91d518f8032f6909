package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gatehouse/internal/models"
)

const issuer = "gatehouse"

// Claims carries identity plus a kind discriminator so an access token can
// never be replayed as a refresh or reset token.
type Claims struct {
	Email          string   `json:"email,omitempty"`
	OrganizationID string   `json:"org,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	Kind           string   `json:"kind"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens. All kinds share a
// single HS256 secret; the kind claim is always checked on verify.
type TokenService struct {
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	singleUseTTL time.Duration
	now          func() time.Time
	lg           *zap.SugaredLogger
}

func NewTokenService(secret string, accessTTL, refreshTTL, singleUseTTL time.Duration, lg *zap.SugaredLogger) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if singleUseTTL <= 0 {
		singleUseTTL = time.Hour
	}
	return &TokenService{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		singleUseTTL: singleUseTTL,
		now:          time.Now,
		lg:           lg,
	}
}

// WithClock overrides the time source. Only intended for tests.
func (t *TokenService) WithClock(fn func() time.Time) *TokenService {
	if fn != nil {
		t.now = fn
	}
	return t
}

func (t *TokenService) IssueAccess(userID, email, orgID string, roles []string) (string, time.Time, error) {
	return t.issue(Claims{
		Email:          email,
		OrganizationID: orgID,
		Roles:          roles,
		Kind:           models.TokenKindAccess,
	}, userID, t.accessTTL)
}

func (t *TokenService) IssueRefresh(userID, email string) (string, time.Time, error) {
	return t.issue(Claims{
		Email: email,
		Kind:  models.TokenKindRefresh,
	}, userID, t.refreshTTL)
}

// IssueSingleUse mints a short-lived token for password reset, email
// verification or MFA. The caller must persist its hash for single-use
// enforcement.
func (t *TokenService) IssueSingleUse(userID, kind string) (string, time.Time, error) {
	return t.issue(Claims{Kind: kind}, userID, t.singleUseTTL)
}

func (t *TokenService) issue(claims Claims, userID string, ttl time.Duration) (string, time.Time, error) {
	if len(t.secret) == 0 {
		return "", time.Time{}, ErrConfiguration
	}
	now := t.now().UTC()
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry. Every failure collapses to
// ErrInvalidToken toward the caller; the internal cause is only logged.
func (t *TokenService) Verify(raw string) (Claims, error) {
	if len(t.secret) == 0 {
		return Claims{}, ErrConfiguration
	}
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.now))
	if err != nil || !tok.Valid {
		if t.lg != nil {
			t.lg.Debugw("token rejected", "error", err)
		}
		return Claims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.Subject == "" || claims.Kind == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}

// DecodeUnsafe decodes without verifying the signature. Debug and logging
// paths only; never an authorization input.
func (t *TokenService) DecodeUnsafe(raw string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}
	return claims
}
