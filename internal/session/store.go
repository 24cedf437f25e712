package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tillway/tillway/internal/authz"
	"github.com/tillway/tillway/internal/platform/tokenstore"
)

// State is the resolved session for one token.
//
// Loading marks an unknown outcome (revocation store unreachable): consumers
// must treat it as "not yet decided" and render their safe fallback, never as
// an authenticated or denied session.
type State struct {
	Identity  *authz.Identity
	Loading   bool
	Err       error
	ExpiresIn time.Duration
}

// Evaluator builds a permission evaluator over this state.
func (s State) Evaluator() authz.Evaluator {
	return authz.NewEvaluator(s.Identity, s.Loading)
}

// Store resolves tokens into identities and keeps a per-instance cache that
// is invalidated by revocation signals from other instances. Construct one
// per process; tests can instantiate isolated stores.
type Store struct {
	logger      *slog.Logger
	validator   *Validator
	revocations tokenstore.Store

	mu    sync.RWMutex
	cache map[string]State

	watchOnce sync.Once
	stop      context.CancelFunc
	done      chan struct{}
}

// NewStore constructs a Store. It does not start the signal watcher; call
// Start once the process is ready to consume notifications.
func NewStore(logger *slog.Logger, validator *Validator, revocations tokenstore.Store) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:      logger,
		validator:   validator,
		revocations: revocations,
		cache:       make(map[string]State),
	}
}

// Resolve validates the token, consults the revocation store, and caches the
// outcome. Idempotent: the same token resolves to the same state until it is
// refreshed, revoked, or expired.
func (s *Store) Resolve(ctx context.Context, token string) State {
	result := s.validator.Validate(token)
	if !result.Valid {
		return State{Err: result.Err, ExpiresIn: NoExpiry}
	}

	fp := Fingerprint(token)
	s.mu.RLock()
	cached, ok := s.cache[fp]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	revoked, err := s.revocations.IsRevoked(ctx, fp)
	if err != nil {
		// Unknown, not denied: the caller renders its fallback and the
		// next request retries. Not cached.
		s.logger.Warn("revocation lookup failed", slog.Any("error", err))
		return State{Loading: true, Err: err, ExpiresIn: NoExpiry}
	}
	if revoked {
		state := State{Err: fmt.Errorf("%w: revoked", ErrTokenExpired), ExpiresIn: NoExpiry}
		s.store(fp, state)
		return state
	}

	state := State{Identity: result.Identity, ExpiresIn: result.ExpiresIn}
	s.store(fp, state)
	return state
}

func (s *Store) store(fingerprint string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[fingerprint] = state
}

// Refresh drops any cached state for the token and re-resolves it. Callable
// at any time; same token yields the same resulting state.
func (s *Store) Refresh(ctx context.Context, token string) State {
	if token != "" {
		s.Invalidate(Fingerprint(token))
	}
	return s.Resolve(ctx, token)
}

// Logout revokes the token in the shared store, announces the change so
// every other instance drops the session, and clears the local cache entry.
func (s *Store) Logout(ctx context.Context, token string) error {
	result := s.validator.Validate(token)
	fp := Fingerprint(token)

	ttl := tokenstore.DefaultRevocationTTL
	if result.Valid && result.ExpiresIn != NoExpiry {
		ttl = result.ExpiresIn
	}
	if err := s.revocations.Revoke(ctx, fp, ttl); err != nil {
		return err
	}
	if err := s.revocations.Announce(ctx, fp); err != nil {
		s.logger.Warn("logout announce failed", slog.Any("error", err))
	}
	s.Invalidate(fp)
	return nil
}

// Invalidate removes one cached entry, or every entry when fingerprint is
// empty.
func (s *Store) Invalidate(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fingerprint == "" {
		s.cache = make(map[string]State)
		return
	}
	delete(s.cache, fingerprint)
}

// Start launches the signal watcher. Signals arrive asynchronously: the
// instance that caused a change must call Refresh itself rather than rely on
// its own notification loop.
func (s *Store) Start(ctx context.Context) error {
	var startErr error
	s.watchOnce.Do(func() {
		watchCtx, cancel := context.WithCancel(ctx)
		signals, err := s.revocations.Watch(watchCtx)
		if err != nil {
			cancel()
			startErr = err
			return
		}
		s.stop = cancel
		s.done = make(chan struct{})
		go func() {
			defer close(s.done)
			for {
				select {
				case <-watchCtx.Done():
					return
				case sig, ok := <-signals:
					if !ok {
						return
					}
					s.logger.Debug("session signal received",
						slog.String("fingerprint", sig.Fingerprint))
					s.Invalidate(sig.Fingerprint)
				}
			}
		}()
	})
	return startErr
}

// Close stops the watcher and waits for it to drain.
func (s *Store) Close() {
	if s.stop != nil {
		s.stop()
	}
	if s.done != nil {
		<-s.done
	}
}

// CloseToExpiration exposes the validator's soft expiry-warning query.
func (s *Store) CloseToExpiration(token string, threshold time.Duration) bool {
	return s.validator.CloseToExpiration(token, threshold)
}
