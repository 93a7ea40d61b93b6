package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
	"github.com/odyssey-erp/odyssey-auth/internal/users"
)

// PrincipalStore is the read side of the credential store used by sessions.
type PrincipalStore interface {
	FindByUsername(ctx context.Context, username string) (users.Principal, error)
	FindByID(ctx context.Context, id int64) (users.Principal, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// Recorder receives authentication outcomes for metrics.
type Recorder interface {
	LoginAttempt(outcome string)
	RefreshAttempt(outcome string)
	Revoked()
}

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeExpired = "expired"
	outcomeRevoked = "revoked"
	outcomeInvalid = "invalid"
)

type noopRecorder struct{}

func (noopRecorder) LoginAttempt(string)   {}
func (noopRecorder) RefreshAttempt(string) {}
func (noopRecorder) Revoked()              {}

// Service wraps authentication business rules: login, refresh, logout and
// access-token authentication.
type Service struct {
	principals PrincipalStore
	hasher     PasswordHasher
	tokens     *TokenIssuer
	ledger     Ledger
	metrics    Recorder
	logger     *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs a new Service. metrics and logger may be nil.
func NewService(principals PrincipalStore, hasher PasswordHasher, tokens *TokenIssuer, ledger Ledger, metrics Recorder, logger *slog.Logger) *Service {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		principals: principals,
		hasher:     hasher,
		tokens:     tokens,
		ledger:     ledger,
		metrics:    metrics,
		logger:     logger,
	}
}

// Login verifies credentials and issues a token pair. Unknown usernames, wrong
// passwords and inactive principals all yield shared.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	username = users.NormalizeUsername(username)
	principal, err := s.principals.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return TokenPair{}, fmt.Errorf("auth: lookup principal: %w", err)
		}
		// Spend a bcrypt comparison anyway so unknown usernames are not
		// distinguishable by latency.
		s.hasher.Verify(s.dummy(), password)
		return TokenPair{}, s.loginFailed(username, "unknown username")
	}
	if !s.hasher.Verify(principal.PasswordHash, password) {
		return TokenPair{}, s.loginFailed(username, "password mismatch")
	}
	if !principal.IsActive {
		return TokenPair{}, s.loginFailed(username, "principal inactive")
	}

	pair, err := s.tokens.Issue(principal.ID, principal.Role)
	if err != nil {
		return TokenPair{}, err
	}
	s.metrics.LoginAttempt(outcomeSuccess)
	s.logger.Info("login succeeded", slog.Int64("principal_id", principal.ID))
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is neither rotated nor revoked. The access token carries the
// principal's current role.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.metrics.RefreshAttempt(refreshOutcome(err))
		return "", err
	}
	revoked, err := s.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if revoked {
		s.metrics.RefreshAttempt(outcomeRevoked)
		return "", shared.ErrTokenRevoked
	}

	principalID, err := claims.PrincipalID()
	if err != nil {
		s.metrics.RefreshAttempt(outcomeInvalid)
		return "", err
	}
	principal, err := s.principals.FindByID(ctx, principalID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return "", fmt.Errorf("auth: reload principal: %w", err)
	}
	if err != nil || !principal.IsActive {
		s.metrics.RefreshAttempt(outcomeInvalid)
		return "", shared.ErrTokenMalformed
	}

	access, err := s.tokens.IssueAccess(principal.ID, principal.Role)
	if err != nil {
		return "", err
	}
	s.metrics.RefreshAttempt(outcomeSuccess)
	return access, nil
}

// Logout revokes a refresh token. An empty token yields
// shared.ErrMissingToken and an unverifiable one shared.ErrTokenMalformed;
// expired or already revoked tokens succeed.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return shared.ErrMissingToken
	}
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return shared.ErrTokenMalformed
	}
	if err := s.ledger.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		return err
	}
	s.metrics.Revoked()
	s.logger.Info("refresh token revoked",
		slog.String("jti", claims.ID),
		slog.String("subject", claims.Subject),
	)
	return nil
}

// Authenticate validates an access token and returns the actor it names.
// Every failure collapses to shared.ErrUnauthenticated.
func (s *Service) Authenticate(accessToken string) (rbac.Actor, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return rbac.Actor{}, shared.ErrUnauthenticated
	}
	id, err := claims.PrincipalID()
	if err != nil {
		return rbac.Actor{}, shared.ErrUnauthenticated
	}
	return rbac.Actor{ID: id, Role: claims.Role}, nil
}

func (s *Service) loginFailed(username, reason string) error {
	s.metrics.LoginAttempt(outcomeFailure)
	s.logger.Info("login failed", slog.String("username", username), slog.String("reason", reason))
	return shared.ErrInvalidCredentials
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("odyssey-timing-equaliser")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func refreshOutcome(err error) string {
	switch {
	case errors.Is(err, shared.ErrTokenExpired):
		return outcomeExpired
	case errors.Is(err, shared.ErrTokenRevoked):
		return outcomeRevoked
	default:
		return outcomeInvalid
	}
}
