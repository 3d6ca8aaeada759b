package social

import (
	"sync"
	"time"
)

// DefaultStateTTL is how long a minted CSRF state stays valid.
const DefaultStateTTL = 10 * time.Minute

// DefaultSweepInterval is how often expired states are swept out.
const DefaultSweepInterval = time.Minute

type stateEntry struct {
	data      bool
	expiresAt time.Time
}

// StateStore is an in-memory expiring store for CSRF state tokens. It is
// safe for concurrent use by in-flight provider-select/callback pairs.
// A single process owns the map; multi-process deployments need a shared
// store instead.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry

	ttl      time.Duration
	interval time.Duration
	logger   Logger
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// StateStoreOption configures the store.
type StateStoreOption func(*StateStore)

// WithStateTTL overrides the default TTL applied by Set.
func WithStateTTL(ttl time.Duration) StateStoreOption {
	return func(s *StateStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval overrides how often the periodic sweep runs.
func WithSweepInterval(interval time.Duration) StateStoreOption {
	return func(s *StateStore) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithStateLogger sets the store logger.
func WithStateLogger(logger Logger) StateStoreOption {
	return func(s *StateStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStateClock overrides the time source, used in tests.
func WithStateClock(now func() time.Time) StateStoreOption {
	return func(s *StateStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStateStore creates a store and starts its periodic sweep.
func NewStateStore(opts ...StateStoreOption) *StateStore {
	s := &StateStore{
		entries:  map[string]stateEntry{},
		ttl:      DefaultStateTTL,
		interval: DefaultSweepInterval,
		logger:   defLogger{},
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	go s.sweep()

	return s
}

// Set stores a state under key with the default TTL.
func (s *StateStore) Set(key string, data bool) {
	s.SetUntil(key, data, s.now().Add(s.ttl))
}

// SetUntil stores a state under key with an explicit expiry.
func (s *StateStore) SetUntil(key string, data bool, expiresAt time.Time) {
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = stateEntry{data: data, expiresAt: expiresAt}
	s.mu.Unlock()

	s.logger.Debug("state stored key=%s expires_at=%s", key, expiresAt.Format(time.RFC3339))
}

// Get returns the stored value and whether the key was present. The second
// return is the not-found sentinel: a stored false yields (false, true),
// a missing or expired key yields (false, false). Expired entries are
// evicted here as well, independent of the sweep.
func (s *StateStore) Get(key string) (bool, bool) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && !entry.expiresAt.After(s.now()) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("state not found key=%s", key)
		return false, false
	}

	return entry.data, true
}

// Has reports whether an unexpired state exists for key.
func (s *StateStore) Has(key string) bool {
	s.mu.Lock()
	entry, ok := s.entries[key]
	s.mu.Unlock()

	return ok && entry.expiresAt.After(s.now())
}

// Delete removes the state stored under key, if any.
func (s *StateStore) Delete(key string) {
	s.mu.Lock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if ok {
		s.logger.Debug("state removed key=%s", key)
	}
}

// Len returns the number of entries currently held, expired or not.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup stops the periodic sweep. Call it at process shutdown; it is
// safe to call more than once.
func (s *StateStore) Cleanup() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *StateStore) sweep() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *StateStore) sweepExpired() {
	now := s.now()
	removed := 0

	s.mu.Lock()
	for key, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("swept %d expired state(s)", removed)
	}
}
