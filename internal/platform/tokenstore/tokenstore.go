// Package tokenstore provides the shared revocation store and change-signal
// channel that session state is synchronized through. The token itself always
// travels in the request cookie; the store only records which tokens have
// been revoked and broadcasts change notifications so every console instance
// observes a logout within one notification cycle.
package tokenstore

import (
	"context"
	"time"
)

// Signal is a one-shot change notification. The payload is close to
// irrelevant: receivers re-derive state from the store rather than trusting
// the message.
type Signal struct {
	Fingerprint string
	At          time.Time
}

// Store is the shared revocation state behind all console instances.
type Store interface {
	// Revoke marks a token fingerprint as revoked for ttl.
	Revoke(ctx context.Context, fingerprint string, ttl time.Duration) error
	// IsRevoked reports whether the fingerprint is currently revoked.
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
	// Announce broadcasts a change signal to every watcher.
	Announce(ctx context.Context, fingerprint string) error
	// Watch delivers signals until ctx is cancelled or the store closes.
	Watch(ctx context.Context) (<-chan Signal, error)
	// Close tears down watchers and releases resources.
	Close() error
}

// DefaultRevocationTTL bounds how long a revocation marker lives when the
// revoked token has no expiry of its own.
const DefaultRevocationTTL = 24 * time.Hour
