package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const signalFileName = ".signal"

// FileStore keeps revocation markers as files in a directory. Intended for
// single-node deployments without Redis; change signals come from a
// filesystem watcher, with short-interval polling as the fallback when no
// watcher can be established.
type FileStore struct {
	dir          string
	pollInterval time.Duration

	mu     sync.Mutex
	closed bool
	cancel []context.CancelFunc
}

// NewFileStore ensures the directory exists and returns a FileStore.
func NewFileStore(dir string, pollInterval time.Duration) (*FileStore, error) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("tokenstore: create dir: %w", err)
	}
	return &FileStore{dir: dir, pollInterval: pollInterval}, nil
}

// Revoke writes a marker file holding the revocation deadline.
func (s *FileStore) Revoke(ctx context.Context, fingerprint string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultRevocationTTL
	}
	deadline := time.Now().Add(ttl).Unix()
	path := s.markerPath(fingerprint)
	if err := os.WriteFile(path, []byte(strconv.FormatInt(deadline, 10)), 0o600); err != nil {
		return fmt.Errorf("tokenstore: write marker: %w", err)
	}
	return nil
}

// IsRevoked reports whether a live marker exists; stale markers are removed
// opportunistically.
func (s *FileStore) IsRevoked(ctx context.Context, fingerprint string) (bool, error) {
	path := s.markerPath(fingerprint)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("tokenstore: read marker: %w", err)
	}
	deadline, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		// Unparseable marker counts as revoked; failing open here would
		// resurrect a logged-out session.
		return true, nil
	}
	if time.Now().Unix() >= deadline {
		_ = os.Remove(path)
		return false, nil
	}
	return true, nil
}

// Announce rewrites the signal file; the write is what watchers observe, the
// content is informational.
func (s *FileStore) Announce(ctx context.Context, fingerprint string) error {
	payload := fmt.Sprintf("%s|%d", fingerprint, time.Now().UnixMilli())
	if err := os.WriteFile(filepath.Join(s.dir, signalFileName), []byte(payload), 0o600); err != nil {
		return fmt.Errorf("tokenstore: announce: %w", err)
	}
	return nil
}

// Watch emits a Signal whenever the signal file changes. Falls back to
// polling the file's modification time when fsnotify is unavailable.
func (s *FileStore) Watch(ctx context.Context) (<-chan Signal, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("tokenstore: store closed")
	}
	watchCtx, cancel := context.WithCancel(ctx)
	s.cancel = append(s.cancel, cancel)
	s.mu.Unlock()

	out := make(chan Signal, 8)

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		err = watcher.Add(s.dir)
	}
	if err != nil {
		if watcher != nil {
			_ = watcher.Close()
		}
		go s.poll(watchCtx, out)
		return out, nil
	}

	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != signalFileName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				select {
				case out <- s.readSignal():
				case <-watchCtx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

// Close cancels every watcher started through Watch.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, cancel := range s.cancel {
		cancel()
	}
	s.cancel = nil
	return nil
}

func (s *FileStore) poll(ctx context.Context, out chan<- Signal) {
	defer close(out)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var lastMod time.Time
	if info, err := os.Stat(filepath.Join(s.dir, signalFileName)); err == nil {
		lastMod = info.ModTime()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(filepath.Join(s.dir, signalFileName))
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				select {
				case out <- s.readSignal():
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (s *FileStore) readSignal() Signal {
	sig := Signal{At: time.Now()}
	data, err := os.ReadFile(filepath.Join(s.dir, signalFileName))
	if err != nil {
		return sig
	}
	return parseSignal(strings.TrimSpace(string(data)))
}

func (s *FileStore) markerPath(fingerprint string) string {
	return filepath.Join(s.dir, fingerprint+".revoked")
}
