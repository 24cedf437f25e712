package cli

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/tillway/tillway/internal/platform/tokenstore"
)

type memoryStore struct {
	mu        sync.Mutex
	revoked   map[string]bool
	announced []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{revoked: map[string]bool{}}
}

func (s *memoryStore) Revoke(ctx context.Context, fingerprint string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[fingerprint] = true
	return nil
}

func (s *memoryStore) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[fingerprint], nil
}

func (s *memoryStore) Announce(ctx context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announced = append(s.announced, fingerprint)
	return nil
}

func (s *memoryStore) Watch(ctx context.Context) (<-chan tokenstore.Signal, error) {
	ch := make(chan tokenstore.Signal)
	close(ch)
	return ch, nil
}

func (s *memoryStore) Close() error { return nil }

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return token
}

func TestInspectValidToken(t *testing.T) {
	store := newMemoryStore()
	ops := NewSessionOpsCLIWithStore(store)

	token := mintToken(t, jwt.MapClaims{
		"id":    "u-1",
		"email": "ops@tillway.example",
		"role":  "manager",
		"exp":   time.Now().Add(30 * time.Minute).Unix(),
	})

	report, err := ops.Inspect(context.Background(), token)
	require.NoError(t, err)
	require.True(t, report.Valid)
	require.False(t, report.Revoked)
	require.NotNil(t, report.Identity)
	require.Equal(t, "u-1", report.Identity.ID)
	require.NotEmpty(t, report.Fingerprint)
}

func TestInspectMalformedToken(t *testing.T) {
	ops := NewSessionOpsCLIWithStore(newMemoryStore())

	report, err := ops.Inspect(context.Background(), "not-a-token")
	require.NoError(t, err)
	require.False(t, report.Valid)
	require.Nil(t, report.Identity)
	require.NotEmpty(t, report.Reason)
}

func TestRevokeMarksAndAnnounces(t *testing.T) {
	store := newMemoryStore()
	ops := NewSessionOpsCLIWithStore(store)

	token := mintToken(t, jwt.MapClaims{
		"id":    "u-2",
		"email": "admin@tillway.example",
		"role":  "admin",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	require.NoError(t, ops.Revoke(context.Background(), token))

	report, err := ops.Inspect(context.Background(), token)
	require.NoError(t, err)
	require.True(t, report.Revoked)
	require.Len(t, store.announced, 1)
	require.Equal(t, report.Fingerprint, store.announced[0])
}
