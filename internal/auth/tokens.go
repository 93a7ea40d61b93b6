package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// MinSecretBytes is the shortest accepted HS256 signing secret.
const MinSecretBytes = 32

// TokenKind distinguishes access from refresh tokens via the typ claim.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// TokenConfig is the immutable signing configuration handed to TokenIssuer.
type TokenConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims are carried by both token kinds. Role is only set on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"typ"`
	Role rbac.Role `json:"role,omitempty"`
}

// PrincipalID returns the numeric subject.
func (c *Claims) PrincipalID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrTokenMalformed
	}
	return id, nil
}

// ExpiresAtTime returns the expiry instant, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenPair is the credential pair returned on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	cfg    TokenConfig
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenIssuer validates cfg and builds an issuer. The secret is copied so
// later mutation by the caller has no effect.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, fmt.Errorf("auth: signing secret must be at least %d bytes", MinSecretBytes)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	cfg.Secret = append([]byte(nil), cfg.Secret...)
	return &TokenIssuer{
		cfg: cfg,
		now: time.Now,
		// Time-based claims are checked by verify so expiry stays exclusive
		// and follows the injected clock.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// WithClock returns a copy of the issuer reading time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *i
	clone.now = now
	return &clone
}

// AccessTTL reports the configured access-token lifetime.
func (i *TokenIssuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// Issue mints an access and a refresh token for the principal.
func (i *TokenIssuer) Issue(principalID int64, role rbac.Role) (TokenPair, error) {
	access, err := i.IssueAccess(principalID, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(i.claims(KindRefresh, principalID, "", i.cfg.RefreshTTL))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess mints a single access token.
func (i *TokenIssuer) IssueAccess(principalID int64, role rbac.Role) (string, error) {
	return i.sign(i.claims(KindAccess, principalID, role, i.cfg.AccessTTL))
}

// VerifyAccess checks signature, kind and expiry of an access token.
func (i *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return i.verify(token, KindAccess, true)
}

// VerifyRefresh checks signature, kind and expiry of a refresh token. The
// revocation ledger is consulted by the caller.
func (i *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(token, KindRefresh, true)
}

// ParseRefresh checks signature and kind but accepts expired tokens. Logout
// uses it so that revoking an already-expired token still succeeds.
func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.verify(token, KindRefresh, false)
}

func (i *TokenIssuer) claims(kind TokenKind, principalID int64, role rbac.Role, ttl time.Duration) *Claims {
	now := i.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.cfg.Issuer,
			Subject:   strconv.FormatInt(principalID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
		Role: role,
	}
}

func (i *TokenIssuer) sign(claims *Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign %s token: %w", claims.Kind, err)
	}
	return signed, nil
}

func (i *TokenIssuer) verify(token string, kind TokenKind, checkExpiry bool) (*Claims, error) {
	if token == "" {
		return nil, shared.ErrMissingToken
	}
	claims := &Claims{}
	_, err := i.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.cfg.Secret, nil
	})
	if err != nil {
		return nil, shared.ErrTokenMalformed
	}
	if claims.Kind != kind || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, shared.ErrTokenMalformed
	}
	if i.cfg.Issuer != "" && claims.Issuer != i.cfg.Issuer {
		return nil, shared.ErrTokenMalformed
	}
	if _, err := claims.PrincipalID(); err != nil {
		return nil, err
	}
	if checkExpiry && !i.now().Before(claims.ExpiresAt.Time) {
		return nil, shared.ErrTokenExpired
	}
	return claims, nil
}
