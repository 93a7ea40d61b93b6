package auth_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-auth/internal/auth"
	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
	"github.com/odyssey-erp/odyssey-auth/internal/users"
	odysseytesting "github.com/odyssey-erp/odyssey-auth/testing"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type principalStore struct {
	mu   sync.Mutex
	rows map[int64]users.Principal
}

func (s *principalStore) FindByUsername(_ context.Context, username string) (users.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.Username == username {
			return p, nil
		}
	}
	return users.Principal{}, shared.ErrNotFound
}

func (s *principalStore) FindByID(_ context.Context, id int64) (users.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return users.Principal{}, shared.ErrNotFound
	}
	return p, nil
}

func (s *principalStore) set(p users.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[p.ID] = p
}

type fixture struct {
	clock   *clock
	hasher  *auth.BcryptHasher
	issuer  *auth.TokenIssuer
	store   *principalStore
	ledger  *auth.RedisLedger
	redis   *miniredis.Miniredis
	service *auth.Service
}

func testTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:     []byte(odysseytesting.TestSecret),
		Issuer:     "odyssey-test",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := newClock()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	issuer, err := auth.NewTokenIssuer(testTokenConfig())
	require.NoError(t, err)
	issuer = issuer.WithClock(clk.Now)

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	store := &principalStore{rows: map[int64]users.Principal{
		7: {ID: 7, Username: "alice", PasswordHash: hash, Role: rbac.RoleManager, IsActive: true},
		8: {ID: 8, Username: "bob", PasswordHash: hash, Role: rbac.RoleEmployee, IsActive: false},
	}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ledger := auth.NewRedisLedger(client).WithClock(clk.Now)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		clock:   clk,
		hasher:  hasher,
		issuer:  issuer,
		store:   store,
		ledger:  ledger,
		redis:   mr,
		service: auth.NewService(store, hasher, issuer, ledger, nil, logger),
	}
}
