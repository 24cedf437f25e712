// Package cli holds operational helpers for console administrators.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/platform/tokenstore"
	"github.com/tillway/tillway/internal/session"
)

// SessionOpsCLI exposes helpers for inspecting and revoking session tokens.
type SessionOpsCLI struct {
	validator *session.Validator
	store     tokenstore.Store
	cleanup   func()
}

// TokenReport summarises a decoded token for operators.
type TokenReport struct {
	Valid       bool
	Identity    *authz.Identity
	ExpiresIn   time.Duration
	Revoked     bool
	Fingerprint string
	Reason      string
}

// NewSessionOpsCLI constructs the helper wired to the provided Redis endpoint.
func NewSessionOpsCLI(ctx context.Context, redisAddr string) (*SessionOpsCLI, error) {
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	store, err := tokenstore.NewRedisStore(ctx, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &SessionOpsCLI{
		validator: session.NewValidator(slog.Default(), 0),
		store:     store,
		cleanup: func() {
			_ = store.Close()
			_ = client.Close()
		},
	}, nil
}

// NewSessionOpsCLIWithStore builds the helper over an existing store, for
// tests and file-backed deployments.
func NewSessionOpsCLIWithStore(store tokenstore.Store) *SessionOpsCLI {
	return &SessionOpsCLI{
		validator: session.NewValidator(slog.Default(), 0),
		store:     store,
	}
}

// Close releases the underlying store resources.
func (c *SessionOpsCLI) Close() error {
	if c == nil {
		return nil
	}
	if c.cleanup != nil {
		c.cleanup()
	}
	return nil
}

// Inspect decodes a raw token and reports its standing.
func (c *SessionOpsCLI) Inspect(ctx context.Context, token string) (TokenReport, error) {
	if c == nil || c.store == nil {
		return TokenReport{}, errors.New("session cli: store not configured")
	}
	report := TokenReport{Fingerprint: session.Fingerprint(token)}
	result := c.validator.Validate(token)
	report.Valid = result.Valid
	report.Identity = result.Identity
	report.ExpiresIn = result.ExpiresIn
	if result.Err != nil {
		report.Reason = result.Err.Error()
	}
	revoked, err := c.store.IsRevoked(ctx, report.Fingerprint)
	if err != nil {
		return report, err
	}
	report.Revoked = revoked
	return report, nil
}

// Revoke force-expires a token across every console instance.
func (c *SessionOpsCLI) Revoke(ctx context.Context, token string) error {
	if c == nil || c.store == nil {
		return errors.New("session cli: store not configured")
	}
	fp := session.Fingerprint(token)
	ttl := tokenstore.DefaultRevocationTTL
	if result := c.validator.Validate(token); result.Valid && result.ExpiresIn != session.NoExpiry {
		ttl = result.ExpiresIn
	}
	if err := c.store.Revoke(ctx, fp, ttl); err != nil {
		return err
	}
	return c.store.Announce(ctx, fp)
}
